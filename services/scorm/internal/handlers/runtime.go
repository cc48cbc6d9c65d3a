package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/learn-platform/internal/platform/api"
	"github.com/example/learn-platform/internal/platform/auth"
	"github.com/example/learn-platform/internal/platform/httpserver"
	"github.com/example/learn-platform/services/scorm/internal/runtime"
)

// runtimeResult mirrors the SCORM API convention: a string boolean plus the
// session's current error code. Content-side shims pass both through
// unchanged.
type runtimeResult struct {
	Result    string `json:"result"`
	Value     string `json:"value,omitempty"`
	ErrorCode int    `json:"error_code"`
}

func boolString(ok bool) string {
	if ok {
		return "true"
	}
	return "false"
}

// session resolves the {session} URL param to a live session owned by the
// authenticated learner. On failure it writes the error and returns nil.
func (d Deps) session(w http.ResponseWriter, r *http.Request) *runtime.Session {
	rid := httpserver.RequestIDFromContext(r.Context())
	id := strings.TrimSpace(chi.URLParam(r, "session"))
	sess, ok := d.Registry.Get(id)
	if !ok {
		api.NotFound(w, "SESSION_NOT_FOUND", "session expired, relaunch the content", rid)
		return nil
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	if sess.Key().LearnerID != uid {
		api.Forbidden(w, "SESSION_FORBIDDEN", "session belongs to another learner", rid)
		return nil
	}
	return sess
}

func Initialize(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := d.session(w, r)
		if sess == nil {
			return
		}
		ok := sess.Initialize(r.Context())
		api.WriteJSON(w, http.StatusOK, runtimeResult{Result: boolString(ok), ErrorCode: sess.LastError()})
	}
}

func GetValue(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := d.session(w, r)
		if sess == nil {
			return
		}
		element := strings.TrimSpace(r.URL.Query().Get("element"))
		value := sess.GetValue(element)
		code := sess.LastError()
		api.WriteJSON(w, http.StatusOK, runtimeResult{
			Result:    boolString(code == runtime.NoError),
			Value:     value,
			ErrorCode: code,
		})
	}
}

type setValueRequest struct {
	Element string `json:"element"`
	Value   string `json:"value"`
}

func SetValue(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		sess := d.session(w, r)
		if sess == nil {
			return
		}
		var req setValueRequest
		if err := decodeJSON(w, r, &req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}
		ok := sess.SetValue(req.Element, req.Value)
		api.WriteJSON(w, http.StatusOK, runtimeResult{Result: boolString(ok), ErrorCode: sess.LastError()})
	}
}

func Commit(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := d.session(w, r)
		if sess == nil {
			return
		}
		ok := sess.Commit(r.Context())
		api.WriteJSON(w, http.StatusOK, runtimeResult{Result: boolString(ok), ErrorCode: sess.LastError()})
	}
}

func Finish(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "session"))
		sess := d.session(w, r)
		if sess == nil {
			return
		}
		ok := sess.Finish(r.Context())
		if ok {
			d.Registry.Remove(id)
		}
		api.WriteJSON(w, http.StatusOK, runtimeResult{Result: boolString(ok), ErrorCode: sess.LastError()})
	}
}

type errorLookupResponse struct {
	ErrorString string `json:"error_string"`
	Diagnostic  string `json:"diagnostic"`
}

// ErrorLookup serves GetErrorString/GetDiagnostic. Pure table lookup, no
// session state involved, but the route stays session-scoped so the shim
// uses one base URL for everything.
func ErrorLookup(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("code")))
		if err != nil {
			code = runtime.GeneralException
		}
		api.WriteJSON(w, http.StatusOK, errorLookupResponse{
			ErrorString: runtime.ErrorString(code),
			Diagnostic:  runtime.Diagnostic(code),
		})
	}
}
