package scheduler

import (
	"context"
	"time"

	"leasing-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

type expirer interface {
	ExpireBefore(ctx context.Context, now time.Time) (repository.Expired, error)
}

// ExpiryJob deactivates conventions and campaigns whose end date has passed.
type ExpiryJob struct {
	store   expirer
	now     func() time.Time
	timeout time.Duration

	// Last holds the counts of the latest run.
	Last repository.Expired
}

func NewExpiryJob(store expirer) *ExpiryJob {
	return &ExpiryJob{store: store, now: time.Now, timeout: 30 * time.Second}
}

func (j *ExpiryJob) Name() string { return "barème-expiry" }

func (j *ExpiryJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.store.ExpireBefore(ctx, j.now())
	if err != nil {
		return err
	}
	j.Last = n
	if n.Conventions > 0 || n.Campaigns > 0 {
		log.Info().Int64("conventions", n.Conventions).Int64("campaigns", n.Campaigns).Msg("expired barèmes deactivated")
	}
	return nil
}
