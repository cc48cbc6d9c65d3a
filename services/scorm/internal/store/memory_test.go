package store

import (
	"context"
	"testing"
)

func testKey() ProgressKey {
	return ProgressKey{LearnerID: "learner-1", CourseID: "course-1", ContentID: "abc123", ContentType: "video"}
}

func TestMemory_GetMissing(t *testing.T) {
	s := NewMemoryProgressStore()
	rec, err := s.Get(context.Background(), testKey())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil for missing key, got %+v", rec)
	}
}

func TestMemory_UpsertRoundTrip(t *testing.T) {
	s := NewMemoryProgressStore()
	in := ProgressRecord{
		LessonStatus: "completed",
		Score:        "85",
		TimeSpent:    "00:15:30.00",
		SuspendData:  "xyz",
		Entry:        "ab-initio",
		Exit:         "normal",
	}
	if err := s.Upsert(context.Background(), testKey(), in); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	out, err := s.Get(context.Background(), testKey())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out == nil {
		t.Fatal("expected record")
	}
	if out.LessonStatus != "completed" || out.Score != "85" || out.TimeSpent != "00:15:30.00" || out.SuspendData != "xyz" {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if out.UpdatedAt.IsZero() {
		t.Fatal("expected UpdatedAt to be set")
	}
}

func TestMemory_UpsertIsIdempotentReplace(t *testing.T) {
	s := NewMemoryProgressStore()
	key := testKey()
	_ = s.Upsert(context.Background(), key, ProgressRecord{LessonStatus: "incomplete"})
	_ = s.Upsert(context.Background(), key, ProgressRecord{LessonStatus: "completed", Score: "90"})

	out, _ := s.Get(context.Background(), key)
	if out.LessonStatus != "completed" || out.Score != "90" {
		t.Fatalf("expected last snapshot to win, got %+v", out)
	}
}

func TestMemory_KeysAreIndependent(t *testing.T) {
	s := NewMemoryProgressStore()
	a := testKey()
	b := testKey()
	b.ContentType = "book"

	_ = s.Upsert(context.Background(), a, ProgressRecord{LessonStatus: "passed"})

	out, _ := s.Get(context.Background(), b)
	if out != nil {
		t.Fatalf("expected no record for different content type, got %+v", out)
	}
}
