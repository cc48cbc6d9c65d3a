package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/example/learn-platform/internal/platform/api"
	"github.com/example/learn-platform/internal/platform/httpserver"
	"github.com/example/learn-platform/services/scorm/internal/resolver"
)

type adminPackageRequest struct {
	ContentID   string `json:"content_id"`
	ContentType string `json:"content_type"`
}

func (r *adminPackageRequest) validate() bool {
	r.ContentID = strings.TrimSpace(r.ContentID)
	r.ContentType = strings.TrimSpace(r.ContentType)
	return r.ContentID != "" && contentTypes[r.ContentType]
}

// ValidatePackage checks the structural contract of an extracted package:
// directory present and a manifest locatable. Used by the ingestion flow
// after upload, before the content is offered to learners.
func ValidatePackage(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		var req adminPackageRequest
		if err := decodeJSON(w, r, &req); err != nil || !req.validate() {
			api.BadRequest(w, "INVALID_REQUEST", "content_id and content_type are required", rid, nil)
			return
		}

		dir := d.Resolver.Dir(req.ContentType, req.ContentID)
		if err := resolver.ValidatePackage(dir); err != nil {
			api.UnprocessableEntity(w, "INVALID_PACKAGE", err.Error(), rid, nil)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"valid": true})
	}
}

// InvalidatePackage drops the cached resolution and the extracted files so
// the next launch re-extracts. Used after a package is re-uploaded.
func InvalidatePackage(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		var req adminPackageRequest
		if err := decodeJSON(w, r, &req); err != nil || !req.validate() {
			api.BadRequest(w, "INVALID_REQUEST", "content_id and content_type are required", rid, nil)
			return
		}

		if err := d.Resolver.Invalidate(req.ContentType, req.ContentID); err != nil {
			d.Log.Error("admin: invalidate failed",
				zap.String("content_type", req.ContentType),
				zap.String("content_id", req.ContentID),
				zap.Error(err))
			api.Internal(w, rid)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
