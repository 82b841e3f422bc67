package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	affiliatedomain "github.com/maiscriancaoficial/affiliates/internal/affiliate/domain"
	"github.com/maiscriancaoficial/affiliates/internal/clock"
	configdomain "github.com/maiscriancaoficial/affiliates/internal/globalconfig/domain"
	obsmetrics "github.com/maiscriancaoficial/affiliates/internal/observability/metrics"
	"github.com/maiscriancaoficial/affiliates/internal/ratelimit"
	withdrawaldomain "github.com/maiscriancaoficial/affiliates/internal/withdrawal/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	WithdrawalSvc withdrawaldomain.Service
	AffiliateRepo affiliatedomain.Repository
	ConfigSvc     configdomain.Service
	Limiter       *ratelimit.EventIngestLimiter `optional:"true"`
	GenID         *snowflake.Node
	Clock         clock.Clock
	Config        Config `optional:"true"`
}

type Scheduler struct {
	db            *gorm.DB
	log           *zap.Logger
	cfg           Config
	genID         *snowflake.Node
	clock         clock.Clock
	withdrawalSvc withdrawaldomain.Service
	affiliateRepo affiliatedomain.Repository
	configSvc     configdomain.Service
	limiter       *ratelimit.EventIngestLimiter
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.WithdrawalSvc == nil || p.AffiliateRepo == nil || p.ConfigSvc == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()
	return &Scheduler{
		db:            p.DB,
		log:           p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:           cfg,
		genID:         p.GenID,
		clock:         p.Clock,
		withdrawalSvc: p.WithdrawalSvc,
		affiliateRepo: p.AffiliateRepo,
		configSvc:     p.ConfigSvc,
		limiter:       p.Limiter,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	log := s.log.With(
		zap.String("job", name),
		zap.String("run_id", s.genID.Generate().String()),
	)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if err == nil {
		return nil
	}

	schedMetrics.IncJobError(name)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	log.Error("job failed", zap.Error(err))
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name    string
		Enabled bool
		Run     func(context.Context) error
	}{
		{"dispatch_payouts", s.isJobEnabled("dispatch_payouts"), func(ctx context.Context) error {
			return s.runJob(ctx, "dispatch_payouts", 30*time.Second, s.DispatchPayoutsJob)
		}},
		{"auto_approve", s.isJobEnabled("auto_approve"), func(ctx context.Context) error {
			return s.runJob(ctx, "auto_approve", 30*time.Second, s.AutoApproveJob)
		}},
	}

	for _, job := range jobs {
		if job.Enabled {
			err = errors.Join(err, job.Run(parent))
		}
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := time.Since(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// Empty EnabledJobs means every job runs (monolith mode).
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// DispatchPayoutsJob pushes eligible withdrawal requests to the payout
// transport. When Redis is configured the job takes a short-lived lock so
// only one replica dispatches at a time.
func (s *Scheduler) DispatchPayoutsJob(ctx context.Context) error {
	if s.limiter.Enabled() {
		token, acquired, err := s.limiter.TryLockPayoutDispatch(ctx)
		if err != nil {
			return err
		}
		if !acquired {
			s.log.Debug("payout dispatch lock held elsewhere, skipping")
			return nil
		}
		defer func() {
			if err := s.limiter.ReleasePayoutDispatch(ctx, token); err != nil {
				s.log.Warn("failed to release payout dispatch lock", zap.Error(err))
			}
		}()
	}

	dispatched, err := s.withdrawalSvc.DispatchEligible(ctx, s.cfg.BatchSize)
	if dispatched > 0 {
		s.log.Info("payouts dispatched", zap.Int("count", dispatched))
	}
	return err
}

// AutoApproveJob sweeps pending affiliates whose accumulated sales already
// crossed the auto-approval threshold. The inline check during event ingest
// covers the common path; this job catches affiliates left behind by a
// threshold lowered after their sales were recorded.
func (s *Scheduler) AutoApproveJob(ctx context.Context) error {
	cfg, err := s.configSvc.Current(ctx)
	if err != nil {
		if errors.Is(err, configdomain.ErrNotFound) {
			return nil
		}
		return err
	}
	if cfg.AutoApproval || cfg.AutoApprovalSalesThreshold <= 0 {
		return nil
	}

	var jobErr error
	cursor := snowflake.ID(0)
	for {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}

		batch, err := s.affiliateRepo.List(ctx, s.db, affiliatedomain.ListFilter{
			Status: affiliatedomain.StatusPending,
		}, cursor, s.cfg.BatchSize)
		if err != nil {
			return errors.Join(jobErr, err)
		}
		if len(batch) == 0 {
			return jobErr
		}

		for i := range batch {
			affiliate := &batch[i]
			cursor = affiliate.ID
			if affiliate.TotalSales < cfg.AutoApprovalSalesThreshold {
				continue
			}
			changed, err := s.affiliateRepo.TransitionStatus(ctx, s.db, affiliate.ID, affiliatedomain.StatusPending, affiliatedomain.StatusActive)
			if err != nil {
				jobErr = errors.Join(jobErr, err)
				continue
			}
			if changed {
				s.log.Info("affiliate auto approved",
					zap.String("affiliate_id", affiliate.ID.String()),
					zap.Int64("total_sales", affiliate.TotalSales),
				)
			}
		}
	}
}
