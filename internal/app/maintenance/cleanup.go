// Package maintenance runs periodic housekeeping: audit retention and the
// database cache sweep.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/cache"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/services"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/logger"
)

// Schedule holds cron specs and the audit retention window. Zero values fall
// back to daily retention of 90 days and a 15 minute cache sweep.
type Schedule struct {
	AuditRetentionDays int
	Audit              string
	Cache              string
}

func (s Schedule) normalised() Schedule {
	if s.AuditRetentionDays <= 0 {
		s.AuditRetentionDays = 90
	}
	if s.Audit == "" {
		s.Audit = "@daily"
	}
	if s.Cache == "" {
		s.Cache = "@every 15m"
	}
	return s
}

// Sources are the stores the cleaner prunes. A nil source disables its job.
type Sources struct {
	Audit *services.AuditService
	Cache cache.Purger
}

type job struct {
	name string
	spec string
	run  func(context.Context) (int64, error)
}

// Cleaner owns a cron scheduler and the housekeeping jobs registered on it.
type Cleaner struct {
	jobs []job
	cron *cron.Cron
	now  func() time.Time
	log  *zap.Logger
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron replaces the default scheduler.
func WithCron(c *cron.Cron) Option {
	return func(cl *Cleaner) { cl.cron = c }
}

// WithClock sets the time source used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(cl *Cleaner) { cl.now = now }
}

func NewCleaner(schedule Schedule, src Sources, opts ...Option) *Cleaner {
	cl := &Cleaner{now: time.Now, log: logger.WithModule("maintenance")}
	for _, opt := range opts {
		opt(cl)
	}
	if cl.cron == nil {
		cl.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	schedule = schedule.normalised()
	if src.Audit != nil {
		days := schedule.AuditRetentionDays
		cl.jobs = append(cl.jobs, job{
			name: "audit_retention",
			spec: schedule.Audit,
			run: func(ctx context.Context) (int64, error) {
				return src.Audit.CleanupOlderThan(ctx, days)
			},
		})
	}
	if src.Cache != nil {
		cl.jobs = append(cl.jobs, job{
			name: "cache_sweep",
			spec: schedule.Cache,
			run: func(ctx context.Context) (int64, error) {
				return src.Cache.PurgeExpired(ctx, cl.now())
			},
		})
	}
	return cl
}

// Start registers every job and starts the scheduler. It does nothing when
// there are no jobs.
func (c *Cleaner) Start() error {
	if len(c.jobs) == 0 {
		return nil
	}
	for _, j := range c.jobs {
		if _, err := c.cron.AddFunc(j.spec, func() { c.execute(context.Background(), j) }); err != nil {
			return fmt.Errorf("maintenance: schedule %s %q: %w", j.name, j.spec, err)
		}
	}
	c.cron.Start()
	return nil
}

func (c *Cleaner) execute(ctx context.Context, j job) {
	removed, err := j.run(ctx)
	if err != nil {
		c.log.Warn("maintenance job failed", zap.String("job", j.name), zap.Error(err))
		return
	}
	c.log.Debug("maintenance job finished", zap.String("job", j.name), zap.Int64("removed", removed))
}

// Stop halts the scheduler. The returned context is done once running jobs finish.
func (c *Cleaner) Stop() context.Context {
	return c.cron.Stop()
}

// RunOnce runs every job immediately and returns their combined errors.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	var errs error
	for _, j := range c.jobs {
		if _, err := j.run(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", j.name, err))
		}
	}
	return errs
}
