package service

import (
	"context"
	"infinite-buying/internal/model"
	"infinite-buying/pkg/logger"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingScheduler struct {
	started chan struct{}
}

func newBlockingScheduler() *blockingScheduler {
	return &blockingScheduler{started: make(chan struct{})}
}

func (s *blockingScheduler) Run(ctx context.Context) {
	close(s.started)
	<-ctx.Done()
}

func TestBotManagerLifecycle(t *testing.T) {
	sched := newBlockingScheduler()
	trading := &mockTradingService{state: model.TradingState{CycleNumber: 3, Turn: 12}}
	manager := NewBotManager(logger.NewNop(), sched, trading)

	assert.False(t, manager.IsRunning())

	require.NoError(t, manager.Start(context.Background()))
	<-sched.started
	assert.True(t, manager.IsRunning())

	assert.ErrorIs(t, manager.Start(context.Background()), ErrBotAlreadyRunning)

	running, state := manager.Status()
	assert.True(t, running)
	assert.Equal(t, 3, state.CycleNumber)

	require.NoError(t, manager.Stop())
	assert.False(t, manager.IsRunning())

	assert.ErrorIs(t, manager.Stop(), ErrBotNotRunning)
}

func TestBotManagerResetRefusedWhileRunning(t *testing.T) {
	sched := newBlockingScheduler()
	trading := &mockTradingService{state: model.TradingState{CycleNumber: 3, Turn: 12}}
	manager := NewBotManager(logger.NewNop(), sched, trading)

	require.NoError(t, manager.Start(context.Background()))
	<-sched.started

	assert.ErrorIs(t, manager.Reset(), ErrBotRunning)

	require.NoError(t, manager.Stop())
	require.NoError(t, manager.Reset())

	_, state := manager.Status()
	assert.Equal(t, 1, state.CycleNumber)
	assert.True(t, state.IsFirstBuy)
}

func TestBotManagerStartSurvivesCallerCancellation(t *testing.T) {
	sched := newBlockingScheduler()
	trading := &mockTradingService{}
	manager := NewBotManager(logger.NewNop(), sched, trading)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, manager.Start(ctx))
	<-sched.started

	// An HTTP request context ending must not stop the loop.
	cancel()
	assert.True(t, manager.IsRunning())

	require.NoError(t, manager.Stop())
}
