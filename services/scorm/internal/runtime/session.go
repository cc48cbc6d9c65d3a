// Package runtime emulates the LMS runtime object SCORM content talks to:
// the CMI get/set/commit/finish contract, its fixed error code table, and
// the debounced write-behind to the progress store.
package runtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/learn-platform/internal/platform/analytics"
	"github.com/example/learn-platform/services/scorm/internal/store"
)

type state int

const (
	stateUninitialized state = iota
	stateInitialized
	stateTerminated // terminal
)

// DefaultDebounce is how long after the last SetValue an automatic Commit
// fires. Writes batch; the store is never hit more often than once per
// window of inactivity.
const DefaultDebounce = 5 * time.Second

// Options configures one Session.
type Options struct {
	Key       store.ProgressKey
	Store     store.ProgressStore
	Logger    *zap.Logger
	Analytics *analytics.Publisher // nil-safe
	// Debounce overrides DefaultDebounce; tests shrink it.
	Debounce time.Duration
}

// Session is one learner's live runtime state for one loaded content frame.
// It is transient: rebuilt from the durable ProgressRecord on each load and
// never persisted directly.
type Session struct {
	key       store.ProgressKey
	progress  store.ProgressStore
	log       *zap.Logger
	analytics *analytics.Publisher
	debounce  time.Duration

	mu        sync.Mutex
	st        state
	cmi       map[string]string
	written   map[string]bool // elements content wrote since Initialize
	lastError int
	dirty     bool
	timer     *time.Timer

	// restored is closed when the async snapshot restore finishes.
	restored chan struct{}
}

func NewSession(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Session{
		key:       opts.Key,
		progress:  opts.Store,
		log:       opts.Logger.With(zap.String("content_id", opts.Key.ContentID), zap.String("content_type", opts.Key.ContentType)),
		analytics: opts.Analytics,
		debounce:  opts.Debounce,
		cmi:       make(map[string]string),
		written:   make(map[string]bool),
		restored:  make(chan struct{}),
	}
}

// Key returns the progress identity this session commits under.
func (s *Session) Key() store.ProgressKey { return s.key }

// Initialize transitions Uninitialized → Initialized and kicks off the
// asynchronous restore of the prior snapshot. It returns without waiting on
// the fetch: content gets a responsive synchronous return and may read
// defaults until the restore lands (documented, accepted race). A second
// call fails with 101 and changes nothing.
func (s *Session) Initialize(ctx context.Context) bool {
	s.mu.Lock()
	if s.st != stateUninitialized {
		s.lastError = GeneralException
		s.mu.Unlock()
		return false
	}
	s.st = stateInitialized
	s.lastError = NoError
	s.mu.Unlock()

	go s.restore(context.WithoutCancel(ctx))
	return true
}

func (s *Session) restore(ctx context.Context) {
	defer close(s.restored)

	rec, err := s.progress.Get(ctx, s.key)
	if err != nil {
		// Persistence trouble is never surfaced to content as an LMS
		// error; the session simply starts from defaults.
		s.log.Warn("progress restore failed", zap.Error(err))
		return
	}
	if rec == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st != stateInitialized {
		return
	}
	s.merge(elemLessonStatus, rec.LessonStatus)
	s.merge(elemScoreRaw, rec.Score)
	s.merge(elemTotalTime, rec.TimeSpent)
	s.merge(elemSuspendData, rec.SuspendData)
}

// merge applies a restored value unless content already wrote the element
// after Initialize; a fast first SetValue must not be clobbered by a slow
// fetch.
func (s *Session) merge(element, value string) {
	if value == "" || s.written[element] {
		return
	}
	s.cmi[element] = value
}

// GetValue returns the stored value or the per-element default. Guard
// violations set 301, invalid names 201; the returned string is then empty.
func (s *Session) GetValue(element string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st != stateInitialized {
		s.lastError = NotInitialized
		return ""
	}
	if !validElement(element) {
		s.lastError = InvalidArgument
		return ""
	}
	if writeOnlyElements[element] {
		s.lastError = WriteOnlyElement
		return ""
	}
	if v, ok := childrenElements[element]; ok {
		s.lastError = NoError
		return v
	}
	if v, ok := s.cmi[element]; ok {
		s.lastError = NoError
		return v
	}
	if v, ok := cmiDefaults[element]; ok {
		s.lastError = NoError
		return v
	}
	s.lastError = ElementNotInitialized
	return ""
}

// SetValue writes into the snapshot, marks it dirty and (re)starts the
// debounce timer that triggers an automatic Commit.
func (s *Session) SetValue(element, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st != stateInitialized {
		s.lastError = NotInitialized
		return false
	}
	if !validElement(element) {
		s.lastError = InvalidArgument
		return false
	}
	if keywordElement(element) {
		s.lastError = KeywordElement
		return false
	}
	if readOnlyElements[element] {
		s.lastError = ReadOnlyElement
		return false
	}

	s.cmi[element] = value
	s.written[element] = true
	s.dirty = true
	s.lastError = NoError
	s.scheduleCommitLocked()
	return true
}

// scheduleCommitLocked restarts the debounce timer. Caller holds s.mu.
func (s *Session) scheduleCommitLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		// The commit guards state itself; a timer that loses the race
		// with Finish becomes a no-op.
		s.Commit(context.Background())
	})
}

// Commit builds a ProgressRecord from the current snapshot and upserts it.
// Persistence failure is logged and deliberately not rolled back or
// retried: the next natural trigger resends the full current state, which
// is safe because upserts are idempotent full snapshots, not deltas.
func (s *Session) Commit(ctx context.Context) bool {
	s.mu.Lock()
	if s.st != stateInitialized {
		s.lastError = NotInitialized
		s.mu.Unlock()
		return false
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	rec := s.snapshotLocked()
	s.lastError = NoError
	s.mu.Unlock()

	if err := s.progress.Upsert(ctx, s.key, rec); err != nil {
		s.log.Warn("progress commit failed", zap.Error(err))
		return true
	}

	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()

	s.analytics.Publish(analytics.SubjectScormProgressCommitted, "scorm_progress_committed", s.key.LearnerID, map[string]any{
		"content_id":    s.key.ContentID,
		"content_type":  s.key.ContentType,
		"lesson_status": rec.LessonStatus,
	})
	return true
}

func (s *Session) snapshotLocked() store.ProgressRecord {
	rec := store.ProgressRecord{
		LessonStatus: s.cmi[elemLessonStatus],
		Score:        s.cmi[elemScoreRaw],
		TimeSpent:    s.cmi[elemTotalTime],
		SuspendData:  s.cmi[elemSuspendData],
		Entry:        s.cmi[elemEntry],
		Exit:         s.cmi[elemExit],
	}
	if rec.LessonStatus == "" {
		rec.LessonStatus = "incomplete"
	}
	if rec.TimeSpent == "" {
		rec.TimeSpent = "00:00:00.00"
	}
	if rec.Entry == "" {
		rec.Entry = "ab-initio"
	}
	if rec.Exit == "" {
		rec.Exit = "normal"
	}
	return rec
}

// Finish cancels the debounce timer, performs one final unconditional
// Commit, and transitions to Terminated. Every later call on the session
// fails with 301.
func (s *Session) Finish(ctx context.Context) bool {
	s.mu.Lock()
	if s.st != stateInitialized {
		s.lastError = NotInitialized
		s.mu.Unlock()
		return false
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.Commit(ctx)

	s.mu.Lock()
	s.st = stateTerminated
	s.lastError = NoError
	s.mu.Unlock()

	s.analytics.Publish(analytics.SubjectScormFinished, "scorm_finished", s.key.LearnerID, map[string]any{
		"content_id":   s.key.ContentID,
		"content_type": s.key.ContentType,
	})
	return true
}

// LastError returns the code set by the previous call; a pure lookup that
// never changes state.
func (s *Session) LastError() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Initialized reports whether the session is currently in the Initialized
// state.
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st == stateInitialized
}

// Terminated reports whether Finish has completed.
func (s *Session) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st == stateTerminated
}

// Progress samples the relay-facing subset of the snapshot without
// touching the last-error code.
func (s *Session) Progress() (status, score, timeSpent string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status = s.cmi[elemLessonStatus]
	if status == "" {
		status = cmiDefaults[elemLessonStatus]
	}
	score = s.cmi[elemScoreRaw]
	timeSpent = s.cmi[elemTotalTime]
	if timeSpent == "" {
		timeSpent = cmiDefaults[elemTotalTime]
	}
	return status, score, timeSpent
}
