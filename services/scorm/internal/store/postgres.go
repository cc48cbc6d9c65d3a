package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProgressStore is the production Postgres-backed implementation.
type PostgresProgressStore struct {
	db *pgxpool.Pool
}

func NewPostgresProgressStore(db *pgxpool.Pool) *PostgresProgressStore {
	return &PostgresProgressStore{db: db}
}

func (s *PostgresProgressStore) Get(ctx context.Context, key ProgressKey) (*ProgressRecord, error) {
	q := `SELECT lesson_status, score, time_spent, suspend_data, entry, exit, updated_at
	      FROM scorm_progress
	      WHERE learner_id=$1 AND course_id=$2 AND content_id=$3 AND content_type=$4`

	var rec ProgressRecord
	err := s.db.QueryRow(ctx, q, key.LearnerID, key.CourseID, key.ContentID, key.ContentType).
		Scan(&rec.LessonStatus, &rec.Score, &rec.TimeSpent, &rec.SuspendData, &rec.Entry, &rec.Exit, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("progress get: %w", err)
	}
	return &rec, nil
}

func (s *PostgresProgressStore) Upsert(ctx context.Context, key ProgressKey, rec ProgressRecord) error {
	q := `
INSERT INTO scorm_progress (learner_id, course_id, content_id, content_type, lesson_status, score, time_spent, suspend_data, entry, exit, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (learner_id, course_id, content_id, content_type)
DO UPDATE SET
  lesson_status = EXCLUDED.lesson_status,
  score         = EXCLUDED.score,
  time_spent    = EXCLUDED.time_spent,
  suspend_data  = EXCLUDED.suspend_data,
  entry         = EXCLUDED.entry,
  exit          = EXCLUDED.exit,
  updated_at    = EXCLUDED.updated_at`

	_, err := s.db.Exec(ctx, q,
		key.LearnerID, key.CourseID, key.ContentID, key.ContentType,
		rec.LessonStatus, rec.Score, rec.TimeSpent, rec.SuspendData, rec.Entry, rec.Exit,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("progress upsert: %w", err)
	}
	return nil
}
