// Package relay streams runtime progress to the host page and carries the
// host's save/finish signals back. It is the only channel through which the
// host learns of progress without polling the store, trading up to one
// sample interval of latency for a single message channel.
package relay

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/learn-platform/services/scorm/internal/runtime"
)

// Message types, fixed by the cross-frame contract.
const (
	TypeProgress = "SCORM_PROGRESS"
	TypeSave     = "SCORM_SAVE"
	TypeFinish   = "SCORM_FINISH"
)

// DefaultSampleInterval between progress snapshots.
const DefaultSampleInterval = 3 * time.Second

// Progress is the sampled payload sent with TypeProgress.
type Progress struct {
	Status      string `json:"status"`
	Score       string `json:"score"`
	TimeSpent   string `json:"timeSpent"`
	IsCompleted bool   `json:"isCompleted"`
}

// Message is the envelope for both directions.
type Message struct {
	Type string    `json:"type"`
	Data *Progress `json:"data,omitempty"`
}

// Sink receives outbound messages. A websocket connection in production,
// a buffer in tests.
type Sink interface {
	Send(Message) error
}

// Relay samples one session and forwards its state to one sink.
type Relay struct {
	sess     *runtime.Session
	sink     Sink
	interval time.Duration
	log      *zap.Logger
}

func New(sess *runtime.Session, sink Sink, interval time.Duration, log *zap.Logger) *Relay {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Relay{sess: sess, sink: sink, interval: interval, log: log}
}

// Run samples until the context ends, the session terminates, or the sink
// fails. Samples taken before Initialize are skipped, not errors.
func (r *Relay) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		if r.sess.Terminated() {
			return
		}
		if !r.sess.Initialized() {
			continue
		}

		status, score, timeSpent := r.sess.Progress()
		msg := Message{Type: TypeProgress, Data: &Progress{
			Status:      status,
			Score:       score,
			TimeSpent:   timeSpent,
			IsCompleted: completed(status),
		}}
		if err := r.sink.Send(msg); err != nil {
			r.log.Warn("relay send failed, stopping", zap.Error(err))
			return
		}
	}
}

// Handle applies one inbound host signal. Save commits without other side
// effects; Finish commits (inside Finish) and terminates, which stops the
// sampling loop on its next tick.
func (r *Relay) Handle(ctx context.Context, m Message) {
	switch m.Type {
	case TypeSave:
		r.sess.Commit(ctx)
	case TypeFinish:
		r.sess.Finish(ctx)
	default:
		r.log.Debug("relay ignoring message", zap.String("type", m.Type))
	}
}

func completed(status string) bool {
	return status == "completed" || status == "passed"
}
