package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/example/learn-platform/internal/platform/api"
	"github.com/example/learn-platform/internal/platform/auth"
	"github.com/example/learn-platform/internal/platform/httpserver"
	"github.com/example/learn-platform/internal/platform/signing"
	"github.com/example/learn-platform/services/scorm/internal/wrapper"
)

// Wrapper serves the runtime bridge document for a signed launch URL.
// The signature binds the extracted resource to the authenticated learner;
// a URL copied to another account fails verification.
func Wrapper(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}

		q := r.URL.Query()
		contentType := strings.TrimSpace(q.Get("contentType"))
		contentID := strings.TrimSpace(q.Get("contentId"))
		entryPoint := strings.TrimSpace(q.Get("entryPoint"))
		relPath := strings.TrimSpace(q.Get("path"))
		sessionID := strings.TrimSpace(q.Get("session"))
		if relPath == "" || entryPoint == "" || sessionID == "" {
			api.BadRequest(w, "MISSING_PARAMS", "path, entryPoint and session are required", rid, nil)
			return
		}

		exp, sig, err := signing.ExtractSigned(q)
		if err != nil {
			api.BadRequest(w, "MISSING_SIGNATURE", "signed params are required", rid, nil)
			return
		}
		resource := relPath + "/" + entryPoint
		if !d.Signer.Verify(resource, uid, exp, sig) {
			api.Forbidden(w, "BAD_SIGNATURE", "launch URL is invalid or expired", rid)
			return
		}

		sess, ok := d.Registry.Get(sessionID)
		if !ok {
			api.NotFound(w, "SESSION_NOT_FOUND", "session expired, relaunch the content", rid)
			return
		}
		if sess.Key().LearnerID != uid {
			api.Forbidden(w, "SESSION_FORBIDDEN", "session belongs to another learner", rid)
			return
		}

		token, _ := auth.RawTokenFromContext(r.Context())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = wrapper.Render(w, wrapper.Params{
			ContentID:   contentID,
			ContentType: contentType,
			Token:       token,
			ContentURL:  "/scorm/content/" + resource,
			RuntimeBase: "/scorm/runtime/" + sessionID,
		})
		if err != nil {
			d.Log.Error("wrapper: render failed", zap.Error(err))
		}
	}
}
