package resolver

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// Extract unpacks the archive into targetDir. If targetDir already exists
// the previous extraction is reused unchanged; extraction is never silently
// redone. Concurrent first launches serialize on a file lock next to the
// target, and the unpack lands in a staging directory renamed into place on
// success, so an existing targetDir always means a completed extraction.
func Extract(ctx context.Context, archivePath, targetDir string) error {
	if dirExists(targetDir) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(targetDir), 0o755); err != nil {
		return fmt.Errorf("%w: prepare %s: %v", ErrExtractionFailed, targetDir, err)
	}

	lock := flock.New(targetDir + ".lock")
	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil || !locked {
		return fmt.Errorf("%w: acquire lock for %s: %v", ErrExtractionFailed, targetDir, err)
	}
	defer func() { _ = lock.Unlock() }()

	// Re-check under the lock: a concurrent request may have finished.
	if dirExists(targetDir) {
		return nil
	}

	staging := targetDir + ".partial"
	_ = os.RemoveAll(staging)
	if err := unzip(archivePath, staging); err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("%w: %s: %v", ErrExtractionFailed, archivePath, err)
	}
	if err := os.Rename(staging, targetDir); err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("%w: finalize %s: %v", ErrExtractionFailed, targetDir, err)
	}
	return nil
}

func unzip(archivePath, dest string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		// ErrInsecurePath still hands back a reader; close it.
		if zr != nil {
			zr.Close()
		}
		return err
	}
	defer zr.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	for _, f := range zr.File {
		target, err := sanitizePath(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := writeEntry(f, target); err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// sanitizePath rejects entries escaping dest (zip-slip).
func sanitizePath(dest, name string) (string, error) {
	p := filepath.Join(dest, filepath.FromSlash(name))
	clean := filepath.Clean(dest)
	if p != clean && !strings.HasPrefix(p, clean+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal archive path %q", name)
	}
	return p, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
