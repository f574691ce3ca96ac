package service

import (
	"context"
	"errors"
	"infinite-buying/internal/model"
	"infinite-buying/pkg/logger"
	"infinite-buying/pkg/utils"
	"sync"
)

var (
	ErrBotAlreadyRunning = errors.New("trading bot is already running")
	ErrBotNotRunning     = errors.New("trading bot is not running")
	ErrBotRunning        = errors.New("trading bot must be stopped first")
)

// BotManager owns the scheduler's lifecycle. All transitions go through its
// mutex, so concurrent control-surface requests cannot double-start the loop
// or reset state underneath a running bot.
type BotManager interface {
	Start(ctx context.Context) error
	Stop() error
	// Reset wipes the trading state back to cycle one. Refused while the
	// bot is running.
	Reset() error
	IsRunning() bool
	Status() (bool, model.TradingState)
}

type botManager struct {
	log       *logger.Logger
	scheduler Scheduler
	trading   TradingService

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewBotManager(log *logger.Logger, scheduler Scheduler, trading TradingService) BotManager {
	return &botManager{
		log:       log,
		scheduler: scheduler,
		trading:   trading,
	}
}

func (m *botManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return ErrBotAlreadyRunning
	}

	// Detach from the caller: a start issued over HTTP must not die with
	// the request context. Stop is the only way to cancel the loop.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	utils.GoSafe(func() {
		defer close(done)
		m.scheduler.Run(runCtx)
	})

	m.log.Info("Trading bot started")
	return nil
}

func (m *botManager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel == nil {
		return ErrBotNotRunning
	}

	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil

	m.log.Info("Trading bot stopped")
	return nil
}

func (m *botManager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return ErrBotRunning
	}

	if err := m.trading.ResetState(); err != nil {
		return err
	}
	m.log.Info("Trading state reset")
	return nil
}

func (m *botManager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *botManager) Status() (bool, model.TradingState) {
	m.mu.Lock()
	running := m.cancel != nil
	m.mu.Unlock()
	return running, m.trading.Snapshot()
}
