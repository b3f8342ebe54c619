// Package preflight runs the checks that must pass before a dubbing run
// starts: directory access, external binaries, free disk space and, when
// voice cloning is requested, the reference audio file.
package preflight

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"dubber/internal/config"
	"dubber/internal/deps"
	"dubber/internal/fileutil"
)

// MinFreeBytes is the free-space floor for the output directory. A dub of a
// typical video needs room for the source plus every intermediate artifact.
const MinFreeBytes = uint64(2) * 1024 * 1024 * 1024

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check for the given config. A non-empty
// referenceAudio adds the reference file check.
func RunAll(ctx context.Context, cfg *config.Config, referenceAudio string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDiskSpace("Free disk space", cfg.Paths.OutputDir, MinFreeBytes),
	}
	for _, status := range deps.CheckBinaries(deps.ForConfig(cfg)) {
		if status.Optional {
			continue
		}
		results = append(results, Result{Name: status.Name, Passed: status.Available, Detail: statusDetail(status)})
	}
	if referenceAudio != "" {
		results = append(results, CheckReferenceAudio(referenceAudio))
	}
	return results
}

// Failed filters results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies that the filesystem holding path has at least
// minBytes available.
func CheckDiskSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s free, need %s", humanize.IBytes(free), humanize.IBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free", humanize.IBytes(free))}
}

// CheckReferenceAudio verifies that the voice cloning reference file exists
// and is non-empty.
func CheckReferenceAudio(path string) Result {
	const name = "Reference audio"
	if !fileutil.NonEmptyFile(path) {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: missing or empty)", path)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

func statusDetail(status deps.Status) string {
	if status.Available {
		return status.Command
	}
	return status.Detail
}
