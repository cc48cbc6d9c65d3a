package handlers

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/learn-platform/internal/platform/api"
	"github.com/example/learn-platform/internal/platform/auth"
	"github.com/example/learn-platform/internal/platform/httpserver"
	"github.com/example/learn-platform/services/scorm/internal/store"
)

type progressData struct {
	LessonStatus string `json:"lessonStatus"`
	Score        string `json:"score"`
	TimeSpent    string `json:"timeSpent"`
	SuspendData  string `json:"suspendData"`
	Entry        string `json:"entry,omitempty"`
	Exit         string `json:"exit,omitempty"`
}

func progressKeyFromQuery(r *http.Request, uid string) (store.ProgressKey, bool) {
	q := r.URL.Query()
	key := store.ProgressKey{
		LearnerID:   uid,
		CourseID:    strings.TrimSpace(q.Get("courseId")),
		ContentID:   strings.TrimSpace(q.Get("contentId")),
		ContentType: strings.TrimSpace(q.Get("contentType")),
	}
	return key, key.ContentID != "" && key.ContentType != ""
}

// GetProgress returns the learner's stored snapshot for one content item.
// An absent record comes back as an empty object, not an error: first-time
// learners are the common case.
func GetProgress(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}
		key, ok := progressKeyFromQuery(r, uid)
		if !ok {
			api.BadRequest(w, "MISSING_PARAMS", "contentId and contentType are required", rid, nil)
			return
		}

		rec, err := d.Store.Get(r.Context(), key)
		if err != nil {
			d.Log.Error("progress: get failed", zap.Error(err))
			api.Internal(w, rid)
			return
		}
		if rec == nil {
			api.WriteJSON(w, http.StatusOK, progressData{})
			return
		}
		api.WriteJSON(w, http.StatusOK, progressData{
			LessonStatus: rec.LessonStatus,
			Score:        rec.Score,
			TimeSpent:    rec.TimeSpent,
			SuspendData:  rec.SuspendData,
			Entry:        rec.Entry,
			Exit:         rec.Exit,
		})
	}
}

type upsertProgressRequest struct {
	CourseID     string       `json:"courseId"`
	ContentID    string       `json:"contentId"`
	ContentType  string       `json:"contentType"`
	ProgressData progressData `json:"progressData"`
}

// UpsertProgress stores a full snapshot directly, bypassing the runtime
// session. Non-SCORM players use this for the same progress records.
func UpsertProgress(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}

		var req upsertProgressRequest
		if err := decodeJSON(w, r, &req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}
		req.ContentID = strings.TrimSpace(req.ContentID)
		req.ContentType = strings.TrimSpace(req.ContentType)
		if req.ContentID == "" || req.ContentType == "" {
			api.BadRequest(w, "MISSING_PARAMS", "contentId and contentType are required", rid, nil)
			return
		}

		key := store.ProgressKey{
			LearnerID:   uid,
			CourseID:    strings.TrimSpace(req.CourseID),
			ContentID:   req.ContentID,
			ContentType: req.ContentType,
		}
		rec := store.ProgressRecord{
			LessonStatus: req.ProgressData.LessonStatus,
			Score:        req.ProgressData.Score,
			TimeSpent:    req.ProgressData.TimeSpent,
			SuspendData:  req.ProgressData.SuspendData,
			Entry:        req.ProgressData.Entry,
			Exit:         req.ProgressData.Exit,
			UpdatedAt:    time.Now().UTC(),
		}
		if err := d.Store.Upsert(r.Context(), key, rec); err != nil {
			d.Log.Error("progress: upsert failed", zap.Error(err))
			api.Unavailable(w, "PERSISTENCE_UNAVAILABLE", "progress could not be stored", rid)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
