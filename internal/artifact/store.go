package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// Fixed artifact file names under one run directory. The layout is a naming
// convention only; no stage-specific logic lives here.
var fileNames = map[Kind]string{
	KindVideo:       "source_video.mp4",
	KindRawAudio:    "source_audio.wav",
	KindTranscript:  "transcript.txt",
	KindTranslation: "translated.txt",
	KindDubbedAudio: "dubbed_audio.wav",
	KindFinalVideo:  "dubbed_video.mp4",
}

// Store resolves canonical, collision-free paths for each artifact kind of
// one run. Resolution is pure and deterministic given the run directory.
type Store struct {
	runDir string
}

// NewStore creates a store rooted at the given run directory.
func NewStore(runDir string) *Store {
	return &Store{runDir: runDir}
}

// RunDir returns the directory holding every artifact of the run.
func (s *Store) RunDir() string {
	return s.runDir
}

// Resolve returns the canonical path for the given artifact kind.
func (s *Store) Resolve(kind Kind) string {
	name, ok := fileNames[kind]
	if !ok {
		// Unknown kinds indicate a programming error; keep the path scoped to
		// the run directory regardless.
		name = string(kind)
	}
	return filepath.Join(s.runDir, name)
}

// EnsureDir creates the run directory if needed. Idempotent; the only
// observable effect on failure is the propagated filesystem error.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.runDir, 0o755); err != nil {
		return fmt.Errorf("create run directory %q: %w", s.runDir, err)
	}
	return nil
}

// Kinds lists every artifact kind in pipeline order.
func Kinds() []Kind {
	return []Kind{
		KindVideo,
		KindRawAudio,
		KindTranscript,
		KindTranslation,
		KindDubbedAudio,
		KindFinalVideo,
	}
}
