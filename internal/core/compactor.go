package core

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/rs/zerolog"

	"gwi.com/chat-core/internal/metrics"
)

type typingSweeper interface {
	DeleteTypingBefore(ctx context.Context, cutoff int64) (int64, error)
}

// TypingCompactor deletes typing rows that have not been touched for longer
// than the retention window. Readers already ignore stale rows, so this only
// keeps the table small.
type TypingCompactor struct {
	store     typingSweeper
	cronExpr  string
	retention time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

func NewTypingCompactor(st typingSweeper, cronExpr string, retention time.Duration, logger zerolog.Logger) (*TypingCompactor, error) {
	if cronExpr == "" {
		cronExpr = "*/10 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid typing sweep cron expression: %s", cronExpr)
	}
	if retention < TypingTimeout {
		retention = TypingTimeout
	}
	return &TypingCompactor{
		store:     st,
		cronExpr:  cronExpr,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// RunOnce performs a single sweep and returns the number of rows removed.
func (c *TypingCompactor) RunOnce(ctx context.Context) (int64, error) {
	cutoff := c.now().Add(-c.retention).UnixMilli()
	n, err := c.store.DeleteTypingBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to compact typing states: %w", err)
	}
	metrics.TypingCompacted.Add(float64(n))
	c.logger.Info().Int64("removed", n).Dur("retention", c.retention).Msg("typing states compacted")
	return n, nil
}

// Run sweeps on every tick of the cron schedule until ctx is cancelled.
func (c *TypingCompactor) Run(ctx context.Context) {
	c.logger.Info().Str("cron", c.cronExpr).Msg("typing compactor started")
	for {
		next, err := gronx.NextTickAfter(c.cronExpr, c.now().UTC(), false)
		if err != nil {
			c.logger.Error().Err(err).Str("cron", c.cronExpr).Msg("failed to compute next sweep")
			select {
			case <-time.After(30 * time.Second):
				continue
			case <-ctx.Done():
				c.logger.Info().Msg("typing compactor stopping")
				return
			}
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			if _, err := c.RunOnce(ctx); err != nil {
				c.logger.Error().Err(err).Msg("typing sweep failed")
			}
		case <-ctx.Done():
			timer.Stop()
			c.logger.Info().Msg("typing compactor stopping")
			return
		}
	}
}
