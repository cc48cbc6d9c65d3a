package handlers

import (
	"github.com/go-chi/chi/v5"

	"github.com/example/learn-platform/internal/platform/auth"
)

// Routes mounts the service surface on r. Content serving is credential-free
// because frames fetch package assets without headers; everything else sits
// behind bearer auth, with the admin endpoints additionally role-gated.
func Routes(r chi.Router, d Deps, verifier auth.JWTVerifier) {
	r.Get("/scorm/content/*", Content(d))

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))

		r.Post("/scorm/launch", Launch(d))
		r.Get("/scorm/wrapper", Wrapper(d))

		r.Route("/scorm/runtime/{session}", func(r chi.Router) {
			r.Post("/initialize", Initialize(d))
			r.Get("/value", GetValue(d))
			r.Post("/value", SetValue(d))
			r.Post("/commit", Commit(d))
			r.Post("/finish", Finish(d))
			r.Get("/error", ErrorLookup(d))
			r.Get("/events", Events(d))
		})

		r.Get("/progress", GetProgress(d))
		r.Post("/progress", UpsertProgress(d))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Post("/scorm/admin/validate", ValidatePackage(d))
			r.Post("/scorm/admin/invalidate", InvalidatePackage(d))
		})
	})
}
