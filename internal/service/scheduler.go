package service

import (
	"context"
	"infinite-buying/config"
	"infinite-buying/internal/repository"
	"infinite-buying/pkg/clock"
	"infinite-buying/pkg/logger"
	"infinite-buying/pkg/telegram"
	"infinite-buying/pkg/utils"
	"time"
)

const (
	// The decision window opens 10 minutes before the close and shuts
	// 5 minutes before it, leaving the LOC/MOC orders time to queue.
	windowOpenBefore  = 10 * time.Minute
	windowCloseBefore = 5 * time.Minute

	idleInterval   = 30 * time.Second
	errorBackoff   = 60 * time.Second
	postTradeSleep = 23*time.Hour + 55*time.Minute
)

// Scheduler drives the strategy engine: it waits for the daily decision
// window near the market close and runs exactly one decision pass per day.
type Scheduler interface {
	// Run blocks until ctx is cancelled. Trading errors are reported and
	// retried; they never terminate the loop.
	Run(ctx context.Context)
}

type scheduler struct {
	cfg      *config.Config
	log      *logger.Logger
	broker   repository.BrokerRepository
	trading  TradingService
	notifier telegram.Notifier
	clk      clock.Clock
}

func NewScheduler(
	cfg *config.Config,
	log *logger.Logger,
	broker repository.BrokerRepository,
	trading TradingService,
	notifier telegram.Notifier,
	clk clock.Clock,
) Scheduler {
	return &scheduler{
		cfg:      cfg,
		log:      log,
		broker:   broker,
		trading:  trading,
		notifier: notifier,
		clk:      clk,
	}
}

func (s *scheduler) Run(ctx context.Context) {
	s.log.InfoContext(ctx, "Trading scheduler started",
		logger.StringField("symbol", s.cfg.Trading.Symbol),
		logger.Field("dry_run", s.cfg.Trading.DryRun),
	)

	kst := utils.GetKSTLocation()

	for {
		if ctx.Err() != nil {
			s.log.Info("Trading scheduler stopped")
			return
		}

		sleepFor, err := s.runOnce(ctx, kst)
		if err != nil {
			s.log.ErrorContext(ctx, "Trading pass failed",
				logger.ErrorField(err),
			)
			s.notifier.NotifyError(ctx, err)
			sleepFor = errorBackoff
		}

		if err := s.clk.Sleep(ctx, sleepFor); err != nil {
			s.log.Info("Trading scheduler stopped")
			return
		}
	}
}

// runOnce makes one pass and returns how long to sleep before the next one.
func (s *scheduler) runOnce(ctx context.Context, kst *time.Location) (time.Duration, error) {
	closeAt, err := s.broker.GetMarketCloseTime(ctx)
	if err != nil {
		return 0, err
	}

	now := s.clk.Now().In(kst)
	if !InDecisionWindow(now, closeAt) {
		return idleInterval, nil
	}

	completed, err := s.trading.CheckCycleCompletion(ctx)
	if err != nil {
		return 0, err
	}
	if completed {
		// The next pass opens the new cycle with a first buy.
		return idleInterval, nil
	}

	if s.trading.Snapshot().IsFirstBuy {
		err = s.trading.ExecuteFirstBuy(ctx)
	} else {
		err = s.trading.ExecuteNormalTrading(ctx)
	}
	if err != nil {
		return 0, err
	}

	// Done for today; wake shortly before tomorrow's window.
	return postTradeSleep, nil
}

// InDecisionWindow reports whether now falls inside the daily trading window
// derived from the market close.
func InDecisionWindow(now, closeAt time.Time) bool {
	open := closeAt.Add(-windowOpenBefore)
	shut := closeAt.Add(-windowCloseBefore)
	return !now.Before(open) && now.Before(shut)
}
