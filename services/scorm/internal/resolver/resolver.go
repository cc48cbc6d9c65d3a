// Package resolver implements the SCORM package pipeline: idempotent
// archive extraction, manifest location and parsing, structural validation,
// and entry-point resolution.
package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Entry-point fallbacks when the manifest yields nothing, in order.
var entryPointFallbacks = []string{"index.html", "index.htm", "story.html", "story.htm"}

// defaultEntryPoint is returned even when absent on disk; the content
// handler 404s at serve time rather than the resolver failing a launch.
const defaultEntryPoint = "index.html"

// PackageLocation identifies a raw package and its identity.
type PackageLocation struct {
	ArchivePath string
	ContentType string
	ContentID   string
}

// Launch is the resolved launch target for a package.
type Launch struct {
	EntryPoint       string `json:"entry_point"`
	ExtractedRelPath string `json:"extracted_relative_path"`
}

// Resolver extracts, validates and resolves packages under extractRoot.
// Results are memoized per (contentType, contentID): resolving twice yields
// identical output and performs no second extraction.
type Resolver struct {
	extractRoot string
	log         *zap.Logger

	mu    sync.Mutex
	cache map[string]Launch
}

func New(extractRoot string, log *zap.Logger) *Resolver {
	return &Resolver{
		extractRoot: extractRoot,
		log:         log,
		cache:       make(map[string]Launch),
	}
}

// Dir returns the extraction directory for a package identity.
func (r *Resolver) Dir(contentType, contentID string) string {
	return filepath.Join(r.extractRoot, contentType, contentID)
}

// Resolve extracts the package if needed and resolves its entry point.
// Precedence: manifest resource href, then the first on-disk fallback file,
// then the hard-coded default. Manifest absence or corruption never fails a
// launch; only a genuinely missing extraction can.
func (r *Resolver) Resolve(ctx context.Context, loc PackageLocation) (Launch, error) {
	key := loc.ContentType + "/" + loc.ContentID

	r.mu.Lock()
	if l, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return l, nil
	}
	r.mu.Unlock()

	dir := r.Dir(loc.ContentType, loc.ContentID)
	if err := Extract(ctx, loc.ArchivePath, dir); err != nil {
		return Launch{}, err
	}

	entry := r.entryPoint(dir)
	l := Launch{
		EntryPoint:       entry,
		ExtractedRelPath: filepath.ToSlash(filepath.Join(loc.ContentType, loc.ContentID)),
	}

	r.mu.Lock()
	r.cache[key] = l
	r.mu.Unlock()
	return l, nil
}

func (r *Resolver) entryPoint(dir string) string {
	if mpath, ok := LocateManifest(dir); ok {
		m, err := ParseManifest(mpath)
		if err != nil {
			r.log.Warn("manifest parse failed, falling back", zap.String("manifest", mpath), zap.Error(err))
		} else if m.EntryPoint != "" {
			return m.EntryPoint
		}
	} else {
		r.log.Warn("manifest not found, falling back", zap.String("dir", dir))
	}

	for _, c := range entryPointFallbacks {
		if fileExists(filepath.Join(dir, c)) {
			return c
		}
	}
	return defaultEntryPoint
}

// ValidatePackage is the structural sanity check used at ingestion time:
// the extraction directory must exist and a manifest must be locatable.
// It is deliberately stricter than Resolve, which tolerates manifest loss.
func ValidatePackage(dir string) error {
	if !dirExists(dir) {
		return fmt.Errorf("%w: missing extraction directory %s", ErrInvalidPackage, dir)
	}
	if _, ok := LocateManifest(dir); !ok {
		return fmt.Errorf("%w: no manifest under %s", ErrInvalidPackage, dir)
	}
	return nil
}

// Invalidate removes a cached resolution and its extraction directory so
// the next launch re-extracts from the archive.
func (r *Resolver) Invalidate(contentType, contentID string) error {
	key := contentType + "/" + contentID

	r.mu.Lock()
	delete(r.cache, key)
	r.mu.Unlock()

	dir := r.Dir(contentType, contentID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("invalidate %s: %w", dir, err)
	}
	return nil
}
