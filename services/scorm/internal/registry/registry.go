// Package registry tracks live runtime sessions between the launch that
// creates them and the frame traffic that drives them.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/learn-platform/services/scorm/internal/runtime"
)

type entry struct {
	sess     *runtime.Session
	lastSeen time.Time
}

// Registry is an in-memory session table. Sessions are transient by
// definition; losing them on restart only costs the learner a reload.
type Registry struct {
	ttl time.Duration
	log *zap.Logger

	mu       sync.Mutex
	sessions map[string]*entry
}

func New(ttl time.Duration, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		ttl:      ttl,
		log:      log,
		sessions: make(map[string]*entry),
	}
}

// Put registers a session and returns its opaque id.
func (r *Registry) Put(sess *runtime.Session) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = &entry{sess: sess, lastSeen: time.Now()}
	r.mu.Unlock()
	return id
}

// Get looks a session up and refreshes its idle clock.
func (r *Registry) Get(id string) (*runtime.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = time.Now()
	return e.sess, true
}

// Remove drops a session without finishing it.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep finishes and drops sessions idle past the TTL, every interval,
// until ctx is done. An abandoned frame (closed tab, crashed browser)
// still gets its uncommitted state flushed this way.
func (r *Registry) Sweep(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.sweepOnce(ctx)
		}
	}
}

func (r *Registry) sweepOnce(ctx context.Context) {
	cutoff := time.Now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*runtime.Session
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.sess)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		if s.Initialized() {
			s.Finish(ctx)
			r.log.Info("idle session finished by sweeper",
				zap.String("content_id", s.Key().ContentID),
				zap.String("learner_id", s.Key().LearnerID))
		}
	}
}
