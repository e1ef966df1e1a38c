package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/pagecompiler/internal/logfields"
)

// Pruner periodically evicts stale cache entries.
type Pruner struct {
	scheduler gocron.Scheduler
}

// StartPruner schedules Prune(maxAge) every interval.
func (c *Cache) StartPruner(interval, maxAge time.Duration) (*Pruner, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if n := c.Prune(context.Background(), maxAge); n > 0 {
				c.logger.Debug("Pruned compile cache", logfields.Count(n))
			}
		}),
		gocron.WithName("cache-prune"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create cache prune job: %w", err)
	}
	s.Start()
	return &Pruner{scheduler: s}, nil
}

// Stop shuts the scheduler down.
func (p *Pruner) Stop() error {
	return p.scheduler.Shutdown()
}
