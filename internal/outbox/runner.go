package outbox

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"grove/internal/db"
	"grove/internal/events"
	"grove/internal/models"
)

// Channel is the Postgres NOTIFY channel raised when rows are enqueued.
const Channel = "outbox_events"

type Runner struct {
	Log zerolog.Logger
	DB  *gorm.DB
	Pub events.Publisher

	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	BackoffMax   time.Duration

	// Wake triggers an immediate tick; nil means poll only.
	Wake <-chan struct{}
	Now  func() time.Time
}

func (r *Runner) Run(ctx context.Context) {
	t := time.NewTicker(r.PollInterval)
	defer t.Stop()

	r.Log.Info().Dur("poll", r.PollInterval).Msg("outbox runner started")
	for {
		select {
		case <-ctx.Done():
			r.Log.Info().Msg("outbox runner stopped")
			return
		case <-t.C:
		case <-r.Wake:
		}
		if _, err := r.Tick(ctx); err != nil && ctx.Err() == nil {
			r.Log.Error().Err(err).Msg("outbox tick failed")
		}
	}
}

// Tick relays one batch of due events and returns how many were sent.
func (r *Runner) Tick(ctx context.Context) (int, error) {
	_ = r.updatePending(ctx)

	sent := 0
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("sent_at IS NULL AND next_attempt_at <= ?", r.now()).
			Order("created_at").
			Limit(r.batchSize())
		if db.IsPostgres(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}

		var batch []models.OutboxEvent
		if err := q.Find(&batch).Error; err != nil {
			return err
		}

		for _, e := range batch {
			if e.Attempts >= r.MaxAttempts {
				if err := tx.Model(&models.OutboxEvent{}).Where("id = ?", e.ID).
					Updates(map[string]any{"sent_at": r.now(), "last_error": parked(e.LastError)}).Error; err != nil {
					return err
				}
				r.Log.Warn().Str("id", e.ID).Int("attempts", e.Attempts).Msg("outbox drop (max attempts), marked sent")
				continue
			}

			err := r.Pub.Publish(ctx, events.Message{
				ID:       e.ID,
				Type:     e.EventType,
				Key:      e.AggregateID,
				Body:     []byte(e.Payload),
				Attempts: e.Attempts,
			})
			if err == nil {
				SentTotal.Inc()
				sent++
				if err := tx.Model(&models.OutboxEvent{}).Where("id = ?", e.ID).
					Updates(map[string]any{"sent_at": r.now(), "last_error": ""}).Error; err != nil {
					return err
				}
				continue
			}

			PublishErrorsTotal.Inc()
			next := r.now().Add(Backoff(e.Attempts+1, r.BackoffMax))
			if err2 := tx.Model(&models.OutboxEvent{}).Where("id = ?", e.ID).Updates(map[string]any{
				"attempts":        gorm.Expr("attempts + 1"),
				"next_attempt_at": next,
				"last_error":      err.Error(),
			}).Error; err2 != nil {
				return err2
			}
			r.Log.Error().Err(err).Str("id", e.ID).Str("type", e.EventType).Int("attempts", e.Attempts+1).Time("next", next).Msg("publish failed -> retry scheduled")
		}
		return nil
	})
	return sent, err
}

func (r *Runner) updatePending(ctx context.Context) error {
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	var n int64
	if err := r.DB.WithContext(ctx2).Model(&models.OutboxEvent{}).Where("sent_at IS NULL").Count(&n).Error; err != nil {
		return err
	}
	Pending.Set(float64(n))
	return nil
}

// parked keeps the last publish error on a row given up on.
func parked(lastErr string) string {
	if lastErr == "" {
		return "max attempts reached"
	}
	return "max attempts reached: " + lastErr
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) batchSize() int {
	if r.BatchSize <= 0 {
		return 50
	}
	return r.BatchSize
}

// Backoff is 2^attempt seconds, clamped to [1s, max].
func Backoff(attempt int, max time.Duration) time.Duration {
	sec := math.Pow(2, float64(attempt))
	d := time.Duration(sec) * time.Second
	if d > max {
		return max
	}
	if d < time.Second {
		return time.Second
	}
	return d
}
