package service

import (
	"context"
	"fmt"
	"infinite-buying/config"
	"infinite-buying/internal/repository"
	"infinite-buying/pkg/logger"
	"infinite-buying/pkg/telegram"
	"infinite-buying/pkg/utils"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// ReportService sends the daily account summary to the notification channel
// on a cron schedule (22:30 KST by default).
type ReportService interface {
	Start() error
	Stop()
}

type reportService struct {
	cfg      *config.Config
	log      *logger.Logger
	broker   repository.BrokerRepository
	notifier telegram.Notifier
	cron     *cron.Cron
}

func NewReportService(
	cfg *config.Config,
	log *logger.Logger,
	broker repository.BrokerRepository,
	notifier telegram.Notifier,
) ReportService {
	return &reportService{
		cfg:      cfg,
		log:      log,
		broker:   broker,
		notifier: notifier,
		cron:     cron.New(cron.WithLocation(utils.GetKSTLocation())),
	}
}

func (s *reportService) Start() error {
	_, err := s.cron.AddFunc(s.cfg.Report.DailyCron, func() {
		ctx := logger.NewContext(context.Background(), s.log)
		if err := s.sendDailyReport(ctx); err != nil {
			s.log.ErrorContext(ctx, "Failed to send daily report", logger.ErrorField(err))
			s.notifier.NotifyError(ctx, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule daily report: %w", err)
	}

	s.cron.Start()
	s.log.Info("Daily report scheduled",
		logger.StringField("cron", s.cfg.Report.DailyCron),
	)
	return nil
}

func (s *reportService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *reportService) sendDailyReport(ctx context.Context) error {
	balance, err := s.broker.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch account for report: %w", err)
	}

	positions := make([]telegram.PositionSnapshot, len(balance.Positions))

	// Quotes are independent per symbol, fetch them concurrently. The
	// broker repository's own limiter keeps the request rate in bounds.
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range balance.Positions {
		i, p := i, p
		g.Go(func() error {
			currentPrice, err := s.broker.GetQuote(gctx, p.Symbol)
			if err != nil {
				return fmt.Errorf("failed to quote %s: %w", p.Symbol, err)
			}

			totalValue := p.Quantity * currentPrice
			profitRate := 0.0
			if p.AveragePrice > 0 {
				profitRate = (currentPrice - p.AveragePrice) / p.AveragePrice * 100
			}

			positions[i] = telegram.PositionSnapshot{
				Symbol:       p.Symbol,
				Quantity:     p.Quantity,
				AveragePrice: p.AveragePrice,
				CurrentPrice: currentPrice,
				TotalValue:   totalValue,
				ProfitRate:   profitRate,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.notifier.NotifyBalance(ctx, balance.Cash, positions)
	return nil
}
