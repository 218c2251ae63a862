package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"offerhub/internal/metrics"
	"offerhub/internal/service"
)

const (
	defaultSweepInterval = time.Minute
	maxSweepInterval     = 5 * time.Minute
	sweepRunTimeout      = 2 * time.Minute
)

// ExpiryJob is the background expiration sweep. Each run advances
// time-driven offer transitions and expires lapsed claims. Every row
// transition is independently atomic, so a partial run leaves rows for the
// next pass rather than corrupting state. The job shares no in-memory
// state with the request path; both sides speak only through the same
// conditional updates on the offer and claim rows.
type ExpiryJob struct {
	cron     *cron.Cron
	offers   *service.OfferService
	claims   *service.ClaimService
	interval time.Duration
	logger   *zap.Logger
}

func NewExpiryJob(
	offers *service.OfferService,
	claims *service.ClaimService,
	interval time.Duration,
	logger *zap.Logger,
) *ExpiryJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if interval > maxSweepInterval {
		interval = maxSweepInterval
	}

	return &ExpiryJob{
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		offers:   offers,
		claims:   claims,
		interval: interval,
		logger:   logger,
	}
}

func (j *ExpiryJob) Start() error {
	if j == nil || j.cron == nil || j.offers == nil || j.claims == nil {
		return nil
	}

	spec := fmt.Sprintf("@every %s", j.interval)
	_, err := j.cron.AddFunc(spec, func() {
		defer j.recoverPanic()

		ctx, cancel := context.WithTimeout(context.Background(), sweepRunTimeout)
		defer cancel()

		j.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("expiration sweep started", zap.Duration("interval", j.interval))
	return nil
}

// RunOnce executes a single sweep pass. Safe to call concurrently with
// live traffic and with other sweep runs; the sweep only ever moves state
// forward.
func (j *ExpiryJob) RunOnce(ctx context.Context) {
	start := time.Now()

	activated, offersExpired, err := j.offers.SweepExpired(ctx)
	if err != nil {
		j.logger.Warn("offer sweep failed", zap.Error(err))
	}

	claimsExpired, err := j.claims.SweepExpired(ctx)
	if err != nil {
		j.logger.Warn("claim sweep failed", zap.Error(err))
	}

	metrics.ObserveSweep(time.Since(start), activated, offersExpired, claimsExpired)

	if activated > 0 || offersExpired > 0 || claimsExpired > 0 {
		j.logger.Info("expiration sweep finished",
			zap.Int64("offers_activated", activated),
			zap.Int64("offers_expired", offersExpired),
			zap.Int64("claims_expired", claimsExpired),
			zap.Duration("cost", time.Since(start)),
		)
	}
}

func (j *ExpiryJob) Stop() {
	if j == nil || j.cron == nil {
		return
	}

	stopCtx := j.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(2 * time.Second):
	}
}

func (j *ExpiryJob) recoverPanic() {
	if recovered := recover(); recovered != nil {
		j.logger.Error("expiration sweep panic recovered", zap.Any("panic", recovered))
	}
}
