package runtime

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/learn-platform/services/scorm/internal/store"
)

// countingStore wraps a ProgressStore and counts calls.
type countingStore struct {
	inner     store.ProgressStore
	gets      atomic.Int64
	upserts   atomic.Int64
	upsertErr error
}

func (c *countingStore) Get(ctx context.Context, key store.ProgressKey) (*store.ProgressRecord, error) {
	c.gets.Add(1)
	return c.inner.Get(ctx, key)
}

func (c *countingStore) Upsert(ctx context.Context, key store.ProgressKey, rec store.ProgressRecord) error {
	c.upserts.Add(1)
	if c.upsertErr != nil {
		return c.upsertErr
	}
	return c.inner.Upsert(ctx, key, rec)
}

func testKey() store.ProgressKey {
	return store.ProgressKey{LearnerID: "learner-1", CourseID: "course-1", ContentID: "abc123", ContentType: "video"}
}

func newTestSession(st store.ProgressStore, debounce time.Duration) *Session {
	return NewSession(Options{Key: testKey(), Store: st, Debounce: debounce})
}

func initSession(t *testing.T, s *Session) {
	t.Helper()
	if !s.Initialize(context.Background()) {
		t.Fatalf("initialize failed with code %d", s.LastError())
	}
	<-s.restored
}

// ─── State machine guards ───────────────────────────────────────────────────

func TestGuards_BeforeInitialize(t *testing.T) {
	s := newTestSession(store.NewMemoryProgressStore(), time.Minute)

	if v := s.GetValue("cmi.core.lesson_status"); v != "" {
		t.Fatalf("expected empty value, got %q", v)
	}
	if s.LastError() != NotInitialized {
		t.Fatalf("expected 301, got %d", s.LastError())
	}

	if s.SetValue("cmi.core.lesson_status", "completed") {
		t.Fatal("expected SetValue to fail before Initialize")
	}
	if s.LastError() != NotInitialized {
		t.Fatalf("expected 301, got %d", s.LastError())
	}

	if s.Commit(context.Background()) {
		t.Fatal("expected Commit to fail before Initialize")
	}
	if s.LastError() != NotInitialized {
		t.Fatalf("expected 301, got %d", s.LastError())
	}

	if s.Finish(context.Background()) {
		t.Fatal("expected Finish to fail before Initialize")
	}
	if s.LastError() != NotInitialized {
		t.Fatalf("expected 301, got %d", s.LastError())
	}
}

func TestInitialize_Twice(t *testing.T) {
	s := newTestSession(store.NewMemoryProgressStore(), time.Minute)
	initSession(t, s)

	s.SetValue("cmi.core.score.raw", "55")

	if s.Initialize(context.Background()) {
		t.Fatal("expected second Initialize to fail")
	}
	if s.LastError() != GeneralException {
		t.Fatalf("expected 101, got %d", s.LastError())
	}
	// Existing session state must be unchanged.
	if v := s.GetValue("cmi.core.score.raw"); v != "55" {
		t.Fatalf("expected score preserved, got %q", v)
	}
}

func TestGuards_AfterFinish(t *testing.T) {
	s := newTestSession(store.NewMemoryProgressStore(), time.Minute)
	initSession(t, s)

	if !s.Finish(context.Background()) {
		t.Fatal("finish failed")
	}
	if !s.Terminated() {
		t.Fatal("expected terminated state")
	}

	if s.SetValue("cmi.core.score.raw", "1") {
		t.Fatal("expected SetValue to fail after Finish")
	}
	if s.LastError() != NotInitialized {
		t.Fatalf("expected 301, got %d", s.LastError())
	}
	if s.Commit(context.Background()) {
		t.Fatal("expected Commit to fail after Finish")
	}
	if s.Finish(context.Background()) {
		t.Fatal("expected second Finish to fail")
	}
}

// ─── Element semantics ──────────────────────────────────────────────────────

func TestGetValue_Defaults(t *testing.T) {
	s := newTestSession(store.NewMemoryProgressStore(), time.Minute)
	initSession(t, s)

	cases := map[string]string{
		"cmi.core.lesson_status": "not attempted",
		"cmi.core.entry":         "ab-initio",
		"cmi.core.total_time":    "00:00:00.00",
		"cmi.core.credit":        "credit",
		"cmi.suspend_data":       "",
	}
	for el, want := range cases {
		if got := s.GetValue(el); got != want {
			t.Fatalf("%s: expected %q, got %q", el, want, got)
		}
		if s.LastError() != NoError {
			t.Fatalf("%s: expected no error, got %d", el, s.LastError())
		}
	}
}

func TestGetValue_InvalidElement(t *testing.T) {
	s := newTestSession(store.NewMemoryProgressStore(), time.Minute)
	initSession(t, s)

	if v := s.GetValue("bogus.element"); v != "" {
		t.Fatalf("expected empty, got %q", v)
	}
	if s.LastError() != InvalidArgument {
		t.Fatalf("expected 201, got %d", s.LastError())
	}
}

func TestGetValue_WriteOnly(t *testing.T) {
	s := newTestSession(store.NewMemoryProgressStore(), time.Minute)
	initSession(t, s)

	s.GetValue("cmi.core.exit")
	if s.LastError() != WriteOnlyElement {
		t.Fatalf("expected 406, got %d", s.LastError())
	}
}

func TestGetValue_Children(t *testing.T) {
	s := newTestSession(store.NewMemoryProgressStore(), time.Minute)
	initSession(t, s)

	if v := s.GetValue("cmi.core.score._children"); v != "raw,min,max" {
		t.Fatalf("unexpected _children value %q", v)
	}
}

func TestSetValue_ReadOnly(t *testing.T) {
	s := newTestSession(store.NewMemoryProgressStore(), time.Minute)
	initSession(t, s)

	if s.SetValue("cmi.core.student_id", "tamper") {
		t.Fatal("expected write to read-only element to fail")
	}
	if s.LastError() != ReadOnlyElement {
		t.Fatalf("expected 405, got %d", s.LastError())
	}
}

func TestSetValue_Keyword(t *testing.T) {
	s := newTestSession(store.NewMemoryProgressStore(), time.Minute)
	initSession(t, s)

	if s.SetValue("cmi.core._children", "x") {
		t.Fatal("expected write to keyword element to fail")
	}
	if s.LastError() != KeywordElement {
		t.Fatalf("expected 407, got %d", s.LastError())
	}
}

func TestErrorString_Table(t *testing.T) {
	if ErrorString(0) != "No error" {
		t.Fatalf("unexpected text for 0: %q", ErrorString(0))
	}
	if ErrorString(301) != "Not initialized" {
		t.Fatalf("unexpected text for 301: %q", ErrorString(301))
	}
	if ErrorString(999) != "" {
		t.Fatal("expected empty text for unknown code")
	}
	if Diagnostic(405) != "405: Element is read only" {
		t.Fatalf("unexpected diagnostic: %q", Diagnostic(405))
	}
}

// ─── Debounce & commit ──────────────────────────────────────────────────────

func TestDebounce_BatchesWrites(t *testing.T) {
	cs := &countingStore{inner: store.NewMemoryProgressStore()}
	s := newTestSession(cs, 100*time.Millisecond)
	initSession(t, s)

	for i := 0; i < 10; i++ {
		if !s.SetValue("cmi.core.score.raw", "90") {
			t.Fatalf("SetValue %d failed", i)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if n := cs.upserts.Load(); n != 0 {
		t.Fatalf("expected no commit inside debounce window, got %d", n)
	}

	time.Sleep(300 * time.Millisecond)
	if n := cs.upserts.Load(); n != 1 {
		t.Fatalf("expected exactly one debounced commit, got %d", n)
	}
}

func TestAutoCommit_PersistsSnapshot(t *testing.T) {
	mem := store.NewMemoryProgressStore()
	s := newTestSession(mem, 50*time.Millisecond)
	initSession(t, s)

	s.SetValue("cmi.core.lesson_status", "completed")
	s.SetValue("cmi.core.score.raw", "90")

	time.Sleep(200 * time.Millisecond)

	rec, err := mem.Get(context.Background(), testKey())
	if err != nil || rec == nil {
		t.Fatalf("expected committed record, got %v, %v", rec, err)
	}
	if rec.LessonStatus != "completed" || rec.Score != "90" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestCommit_Defaults(t *testing.T) {
	mem := store.NewMemoryProgressStore()
	s := newTestSession(mem, time.Minute)
	initSession(t, s)

	if !s.Commit(context.Background()) {
		t.Fatal("commit failed")
	}

	rec, _ := mem.Get(context.Background(), testKey())
	if rec == nil {
		t.Fatal("expected record")
	}
	if rec.LessonStatus != "incomplete" {
		t.Fatalf("expected default lesson status 'incomplete', got %q", rec.LessonStatus)
	}
	if rec.TimeSpent != "00:00:00.00" {
		t.Fatalf("expected default time spent, got %q", rec.TimeSpent)
	}
	if rec.Entry != "ab-initio" {
		t.Fatalf("expected default entry, got %q", rec.Entry)
	}
	if rec.Exit != "normal" {
		t.Fatalf("expected default exit, got %q", rec.Exit)
	}
}

func TestCommit_FailureKeepsStateAndStaysSilent(t *testing.T) {
	cs := &countingStore{inner: store.NewMemoryProgressStore(), upsertErr: errors.New("store down")}
	s := newTestSession(cs, time.Minute)
	initSession(t, s)

	s.SetValue("cmi.core.score.raw", "77")
	// Persistence trouble is invisible to content: Commit still reports
	// success and leaves no error code.
	if !s.Commit(context.Background()) {
		t.Fatal("expected commit to report success despite store failure")
	}
	if s.LastError() != NoError {
		t.Fatalf("expected no LMS error, got %d", s.LastError())
	}
	if !s.dirty {
		t.Fatal("expected uncommitted changes to remain flagged")
	}

	// Next commit resends the full snapshot.
	cs.upsertErr = nil
	if !s.Commit(context.Background()) {
		t.Fatal("retry commit failed")
	}
	if s.dirty {
		t.Fatal("expected dirty flag cleared after successful commit")
	}
	rec, _ := cs.inner.Get(context.Background(), testKey())
	if rec == nil || rec.Score != "77" {
		t.Fatalf("expected full snapshot on retry, got %+v", rec)
	}
}

func TestFinish_FlushesAndCancelsTimer(t *testing.T) {
	cs := &countingStore{inner: store.NewMemoryProgressStore()}
	s := newTestSession(cs, 100*time.Millisecond)
	initSession(t, s)

	s.SetValue("cmi.core.lesson_status", "passed")
	if !s.Finish(context.Background()) {
		t.Fatal("finish failed")
	}
	if n := cs.upserts.Load(); n != 1 {
		t.Fatalf("expected one final commit, got %d", n)
	}

	// The debounce timer must not fire a post-termination write.
	time.Sleep(300 * time.Millisecond)
	if n := cs.upserts.Load(); n != 1 {
		t.Fatalf("expected no post-finish commits, got %d", n)
	}
}

// ─── Restore ────────────────────────────────────────────────────────────────

func TestRestore_RoundTrip(t *testing.T) {
	mem := store.NewMemoryProgressStore()

	first := newTestSession(mem, time.Minute)
	initSession(t, first)
	first.SetValue("cmi.core.lesson_status", "completed")
	first.SetValue("cmi.core.score.raw", "85")
	first.SetValue("cmi.suspend_data", "xyz")
	if !first.Commit(context.Background()) {
		t.Fatal("commit failed")
	}
	// Durable time-spent comes back on the next load.
	_ = mem.Upsert(context.Background(), testKey(), store.ProgressRecord{
		LessonStatus: "completed", Score: "85", TimeSpent: "00:15:30.00", SuspendData: "xyz",
	})

	second := newTestSession(mem, time.Minute)
	initSession(t, second)

	cases := map[string]string{
		"cmi.core.lesson_status": "completed",
		"cmi.core.score.raw":     "85",
		"cmi.core.total_time":    "00:15:30.00",
		"cmi.suspend_data":       "xyz",
	}
	for el, want := range cases {
		if got := second.GetValue(el); got != want {
			t.Fatalf("%s: expected %q, got %q", el, want, got)
		}
	}
}

func TestRestore_DoesNotClobberFreshWrites(t *testing.T) {
	mem := store.NewMemoryProgressStore()
	_ = mem.Upsert(context.Background(), testKey(), store.ProgressRecord{LessonStatus: "incomplete", Score: "10"})

	s := newTestSession(mem, time.Minute)
	if !s.Initialize(context.Background()) {
		t.Fatal("initialize failed")
	}
	// Write before the restore fetch lands.
	s.SetValue("cmi.core.lesson_status", "completed")
	<-s.restored

	if got := s.GetValue("cmi.core.lesson_status"); got != "completed" {
		t.Fatalf("restore clobbered fresh write: %q", got)
	}
	// Untouched elements still restore.
	if got := s.GetValue("cmi.core.score.raw"); got != "10" {
		t.Fatalf("expected restored score, got %q", got)
	}
}
