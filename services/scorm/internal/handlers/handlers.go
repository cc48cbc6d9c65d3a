// Package handlers exposes the HTTP surface of the scorm service: launch
// resolution, the wrapper document, extracted content, the per-session
// runtime endpoints and the progress API.
package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/learn-platform/internal/platform/analytics"
	"github.com/example/learn-platform/internal/platform/signing"
	"github.com/example/learn-platform/services/scorm/internal/config"
	"github.com/example/learn-platform/services/scorm/internal/registry"
	"github.com/example/learn-platform/services/scorm/internal/resolver"
	"github.com/example/learn-platform/services/scorm/internal/store"
)

// Deps bundles the collaborators every handler constructor draws from.
type Deps struct {
	Log       *zap.Logger
	Cfg       config.Config
	Resolver  *resolver.Resolver
	Registry  *registry.Registry
	Store     store.ProgressStore
	Signer    *signing.Signer
	Analytics *analytics.Publisher // nil-safe
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst)
}
