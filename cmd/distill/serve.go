package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/distill"
	distillhttp "github.com/fwojciec/distill/http"
	"github.com/robfig/cron/v3"
)

// limiterIdle is how long a client IP may stay silent before its rate
// limiter is forgotten.
const limiterIdle = time.Hour

// Run executes the serve command.
func (c *ServeCmd) Run(deps *Dependencies) error {
	cfg := deps.Config

	s := distillhttp.NewServer()
	s.Addr = cfg.Addr
	s.URLExtractor = deps.URLs
	s.FileExtractor = deps.Files
	s.PremiumExtractor = deps.Premium
	s.AllowedOrigins = cfg.AllowedOrigins
	s.TrustProxy = cfg.TrustProxy
	s.Logger = deps.Logger
	if deps.DB != nil {
		s.DB = deps.DB
	}
	if cfg.RateLimit > 0 {
		s.Limiter = distillhttp.NewKeyLimiter(cfg.RateLimit, cfg.RateBurst)
	}

	scheduler := cron.New(cron.WithLocation(time.UTC))
	if _, err := scheduler.AddFunc(cfg.PruneSchedule, func() {
		Housekeep(deps.Ctx, deps.Quotas, s.Limiter, deps.Now(), cfg.QuotaRetention, deps.Logger)
	}); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", cfg.PruneSchedule, err)
	}

	if err := s.Open(); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}

	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	deps.Logger.Info("listening", "url", s.URL())
	fmt.Fprintf(deps.Stdout, "Listening on %s\n", s.URL())

	return s.Serve(deps.Ctx)
}

// Housekeep deletes quota records older than retention months and forgets
// idle rate limiters.
func Housekeep(ctx context.Context, quotas distill.QuotaService, limiter *distillhttp.KeyLimiter, now time.Time, retention int, logger *slog.Logger) {
	if quotas != nil {
		cutoff := distill.PeriodStart(now).AddDate(0, -retention, 0)
		n, err := quotas.PruneQuotas(ctx, cutoff)
		if err != nil {
			logger.Error("prune quotas", "cutoff", cutoff, "err", err)
		} else {
			logger.Info("prune quotas", "cutoff", cutoff, "deleted", n)
		}
	}
	if limiter != nil {
		logger.Info("prune rate limiters", "deleted", limiter.Prune(limiterIdle))
	}
}
