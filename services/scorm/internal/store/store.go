package store

import (
	"context"
	"time"
)

// ProgressKey identifies one learner's progress on one content item.
type ProgressKey struct {
	LearnerID   string
	CourseID    string
	ContentID   string
	ContentType string
}

// ProgressRecord is the durable snapshot of a learner's CMI state.
// All values are strings, even when semantically numeric, because the CMI
// data model is string-typed end to end.
type ProgressRecord struct {
	LessonStatus string    `json:"lessonStatus"`
	Score        string    `json:"score"`
	TimeSpent    string    `json:"timeSpent"`
	SuspendData  string    `json:"suspendData"`
	Entry        string    `json:"entry"`
	Exit         string    `json:"exit"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProgressStore defines the persistence contract the runtime bridge depends
// on. Exactly two operations, regardless of storage technology.
type ProgressStore interface {
	// Get returns the stored record, or nil when none exists.
	Get(ctx context.Context, key ProgressKey) (*ProgressRecord, error)
	// Upsert stores the full snapshot. Upserts are idempotent: replaying
	// the same record is safe.
	Upsert(ctx context.Context, key ProgressKey, rec ProgressRecord) error
}
