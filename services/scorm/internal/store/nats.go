package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// SubjectProgress is the JetStream subject progress snapshots travel on
// when the async write path is enabled.
const SubjectProgress = "scorm.progress"

// ProgressEvent is the wire form of an upsert published to SubjectProgress.
type ProgressEvent struct {
	EventID     string         `json:"event_id"`
	LearnerID   string         `json:"learner_id"`
	CourseID    string         `json:"course_id"`
	ContentID   string         `json:"content_id"`
	ContentType string         `json:"content_type"`
	Record      ProgressRecord `json:"record"`
	CreatedAt   string         `json:"created_at"`
}

// AsyncProgressStore publishes upserts to JetStream instead of writing the
// database directly; a consumer applies them (see the worker package).
// Reads go straight to the underlying reader, because Initialize needs the
// durable state, not an in-flight event.
type AsyncProgressStore struct {
	js     nats.JetStreamContext
	reader ProgressStore
}

func NewAsyncProgressStore(js nats.JetStreamContext, reader ProgressStore) *AsyncProgressStore {
	return &AsyncProgressStore{js: js, reader: reader}
}

func (s *AsyncProgressStore) Get(ctx context.Context, key ProgressKey) (*ProgressRecord, error) {
	return s.reader.Get(ctx, key)
}

func (s *AsyncProgressStore) Upsert(_ context.Context, key ProgressKey, rec ProgressRecord) error {
	ev := ProgressEvent{
		EventID:     uuid.NewString(),
		LearnerID:   key.LearnerID,
		CourseID:    key.CourseID,
		ContentID:   key.ContentID,
		ContentType: key.ContentType,
		Record:      rec,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("progress event marshal: %w", err)
	}
	// Synchronous publish: the caller treats a failed Upsert as a failed
	// commit and resends the full snapshot on the next trigger.
	if _, err := s.js.Publish(SubjectProgress, data); err != nil {
		return fmt.Errorf("progress event publish: %w", err)
	}
	return nil
}
