package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Content serves files out of the extraction root. Packages reference their
// own assets with relative URLs, so this route carries no credential; the
// guessable part of the URL space only exposes static course material.
func Content(d Deps) http.HandlerFunc {
	root := d.Cfg.ExtractRoot
	return func(w http.ResponseWriter, r *http.Request) {
		rel := chi.URLParam(r, "*")
		rel = strings.TrimPrefix(rel, "/")
		if rel == "" {
			http.NotFound(w, r)
			return
		}

		// Reject any path that escapes the extraction root.
		clean := filepath.Clean(filepath.FromSlash(rel))
		if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
			http.NotFound(w, r)
			return
		}

		full := filepath.Join(root, clean)
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, full)
	}
}
