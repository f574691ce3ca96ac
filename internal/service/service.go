package service

import (
	"fmt"
	"infinite-buying/config"
	"infinite-buying/internal/repository"
	"infinite-buying/pkg/clock"
	"infinite-buying/pkg/logger"
	"infinite-buying/pkg/telegram"
)

type Service struct {
	TradingService TradingService
	OrderTracker   OrderTracker
	Scheduler      Scheduler
	BotManager     BotManager
	ReportService  ReportService
	TradeRepo      repository.TradeRepository
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	notifier telegram.Notifier,
	clk clock.Clock,
) (*Service, error) {
	tracker := NewOrderTracker(cfg, log, repo.BrokerRepo, repo.TradeRepo, notifier, clk)

	trading, err := NewTradingService(cfg, log, repo.BrokerRepo, repo.StateRepo, tracker, notifier, clk)
	if err != nil {
		return nil, fmt.Errorf("failed to build trading service: %w", err)
	}

	sched := NewScheduler(cfg, log, repo.BrokerRepo, trading, notifier, clk)

	return &Service{
		TradingService: trading,
		OrderTracker:   tracker,
		Scheduler:      sched,
		BotManager:     NewBotManager(log, sched, trading),
		ReportService:  NewReportService(cfg, log, repo.BrokerRepo, notifier),
		TradeRepo:      repo.TradeRepo,
	}, nil
}
