package worker

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/example/learn-platform/services/scorm/internal/store"
)

// StartProgressConsumer subscribes to scorm.progress and applies idempotent
// upserts through dst. Each event carries a full progress snapshot, so
// replaying a message is harmless and per-message ack is enough.
func StartProgressConsumer(ctx context.Context, nc *nats.Conn, dst store.ProgressStore) {
	js, err := nc.JetStream()
	if err != nil {
		log.Printf("progress_consumer: jetstream error: %v", err)
		return
	}

	sub, err := js.PullSubscribe(store.SubjectProgress, "scorm_progress")
	if err != nil {
		log.Printf("progress_consumer: subscribe error: %v", err)
		return
	}

	go func() {
		batchSize := envInt("WORKER_BATCH_SIZE", 100)
		batchInterval := envInt("WORKER_BATCH_INTERVAL_MS", 2000)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			msgs, err := sub.Fetch(batchSize, nats.MaxWait(time.Duration(batchInterval)*time.Millisecond))
			if err != nil {
				if err == nats.ErrTimeout {
					continue
				}
				log.Printf("progress_consumer: fetch error: %v", err)
				time.Sleep(1 * time.Second)
				continue
			}

			for _, m := range msgs {
				var ev store.ProgressEvent
				if err := json.Unmarshal(m.Data, &ev); err != nil {
					// Poison message; acking it beats redelivering forever.
					log.Printf("progress_consumer: invalid json: %v", err)
					if err := m.Ack(); err != nil {
						log.Printf("progress_consumer: ack error: %v", err)
					}
					continue
				}

				key := store.ProgressKey{
					LearnerID:   ev.LearnerID,
					CourseID:    ev.CourseID,
					ContentID:   ev.ContentID,
					ContentType: ev.ContentType,
				}
				if err := dst.Upsert(ctx, key, ev.Record); err != nil {
					log.Printf("progress_consumer: upsert failed: %v", err)
					if err := m.Nak(); err != nil {
						log.Printf("progress_consumer: nak error: %v", err)
					}
					continue
				}

				if err := m.Ack(); err != nil {
					log.Printf("progress_consumer: ack error: %v", err)
				}
			}
		}
	}()
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
