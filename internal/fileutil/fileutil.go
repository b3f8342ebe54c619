package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// CopyFile streams src to dst using io.Copy with default permissions (0o644).
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// TempSibling returns a temp path next to target so a later rename stays on
// the same filesystem. The target's base name, extension included, is kept
// intact because tools like ffmpeg pick their output format from it.
func TempSibling(target string) string {
	return filepath.Join(filepath.Dir(target), ".partial-"+filepath.Base(target))
}

// MoveInto renames src to dst, overwriting dst. When the rename crosses a
// device boundary it falls back to copy-then-remove.
func MoveInto(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		var linkErr *os.LinkError
		if errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
			if err := CopyFile(src, dst); err != nil {
				return fmt.Errorf("copy across devices: %w", err)
			}
			if err := os.Remove(src); err != nil {
				return fmt.Errorf("remove source after copy: %w", err)
			}
			return nil
		}
		return fmt.Errorf("move file: %w", err)
	}
	return nil
}

// DiscardPartial removes a leftover output file, ignoring absence. Engines
// call this on failure so no partial artifact survives the attempt.
func DiscardPartial(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}

// NonEmptyFile reports whether path names a regular file with at least one byte.
func NonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}
