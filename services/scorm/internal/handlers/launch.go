package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/learn-platform/internal/platform/analytics"
	"github.com/example/learn-platform/internal/platform/api"
	"github.com/example/learn-platform/internal/platform/auth"
	"github.com/example/learn-platform/internal/platform/httpserver"
	"github.com/example/learn-platform/internal/platform/signing"
	"github.com/example/learn-platform/services/scorm/internal/resolver"
	"github.com/example/learn-platform/services/scorm/internal/runtime"
	"github.com/example/learn-platform/services/scorm/internal/store"
)

// contentTypes the platform ships SCORM packages under.
var contentTypes = map[string]bool{
	"audioAssignment": true,
	"chant":           true,
	"book":            true,
	"video":           true,
}

type launchRequest struct {
	ContentID   string `json:"content_id"`
	ContentType string `json:"content_type"`
	CourseID    string `json:"course_id"`
}

type launchResponse struct {
	URL              string `json:"url"`
	SessionID        string `json:"session_id"`
	EntryPoint       string `json:"entry_point"`
	ExtractedRelPath string `json:"extracted_relative_path"`
}

// Launch resolves a package, opens a runtime session and returns the signed
// wrapper URL the client loads into its player.
func Launch(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok || strings.TrimSpace(uid) == "" {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}

		var req launchRequest
		if err := decodeJSON(w, r, &req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}
		req.ContentID = strings.TrimSpace(req.ContentID)
		req.ContentType = strings.TrimSpace(req.ContentType)
		req.CourseID = strings.TrimSpace(req.CourseID)
		if req.ContentID == "" {
			api.BadRequest(w, "MISSING_ID", "content_id is required", rid, nil)
			return
		}
		if !contentTypes[req.ContentType] {
			api.BadRequest(w, "INVALID_CONTENT_TYPE", "unsupported content_type", rid, nil)
			return
		}

		loc := resolver.PackageLocation{
			ArchivePath: filepath.Join(d.Cfg.PackageRoot, req.ContentType, req.ContentID+".zip"),
			ContentType: req.ContentType,
			ContentID:   req.ContentID,
		}
		launch, err := d.Resolver.Resolve(r.Context(), loc)
		if err != nil {
			if errors.Is(err, resolver.ErrInvalidPackage) {
				api.UnprocessableEntity(w, "INVALID_PACKAGE", "package failed validation", rid, nil)
				return
			}
			d.Log.Error("launch: resolve failed",
				zap.String("content_type", req.ContentType),
				zap.String("content_id", req.ContentID),
				zap.Error(err))
			api.Unavailable(w, "CONTENT_UNAVAILABLE", "content could not be prepared", rid)
			return
		}

		sess := runtime.NewSession(runtime.Options{
			Key: store.ProgressKey{
				LearnerID:   uid,
				CourseID:    req.CourseID,
				ContentID:   req.ContentID,
				ContentType: req.ContentType,
			},
			Store:     d.Store,
			Logger:    d.Log,
			Analytics: d.Analytics,
			Debounce:  d.Cfg.CommitDebounce,
		})
		sessionID := d.Registry.Put(sess)

		resource := launch.ExtractedRelPath + "/" + launch.EntryPoint
		signed := d.Signer.Sign(resource, uid, time.Now().Add(d.Cfg.WrapperTTL))

		token, _ := auth.RawTokenFromContext(r.Context())
		q := url.Values{}
		q.Set("contentType", req.ContentType)
		q.Set("contentId", req.ContentID)
		q.Set("entryPoint", launch.EntryPoint)
		q.Set("path", launch.ExtractedRelPath)
		q.Set("session", sessionID)
		q.Set("token", token)
		signing.Attach(q, signed)

		d.Analytics.Publish(
			analytics.SubjectScormLaunched, "scorm_launched", uid,
			map[string]any{"content_id": req.ContentID, "content_type": req.ContentType},
		)

		api.WriteJSON(w, http.StatusOK, launchResponse{
			URL:              d.Cfg.PublicBaseURL + "/scorm/wrapper?" + q.Encode(),
			SessionID:        sessionID,
			EntryPoint:       launch.EntryPoint,
			ExtractedRelPath: launch.ExtractedRelPath,
		})
	}
}
