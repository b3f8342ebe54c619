package artifact

import (
	"os"
)

// Kind identifies the role of a file in the pipeline's interchange layout.
type Kind string

const (
	KindVideo       Kind = "video"
	KindRawAudio    Kind = "raw-audio"
	KindTranscript  Kind = "transcript-text"
	KindTranslation Kind = "translated-text"
	KindDubbedAudio Kind = "synthesized-audio"
	KindFinalVideo  Kind = "final-video"
)

// Artifact is a typed reference to a file on disk. Artifacts are write-once:
// created by exactly one stage, consumed by the next, never mutated.
type Artifact struct {
	Kind       Kind
	Path       string
	ProducedBy string
}

// SizeBytes returns the current on-disk size, or 0 when the file is absent.
func (a Artifact) SizeBytes() int64 {
	info, err := os.Stat(a.Path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Ready reports whether the artifact names an existing, non-empty regular
// file. The orchestrator never hands a non-ready artifact to the next stage.
func (a Artifact) Ready() bool {
	info, err := os.Stat(a.Path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}
