package service

import (
	"context"
	"infinite-buying/internal/model"
	"infinite-buying/pkg/logger"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInDecisionWindow(t *testing.T) {
	closeAt := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "before window opens", now: closeAt.Add(-11 * time.Minute), want: false},
		{name: "one second early", now: closeAt.Add(-10*time.Minute - time.Second), want: false},
		{name: "window opens", now: closeAt.Add(-10 * time.Minute), want: true},
		{name: "mid window", now: closeAt.Add(-7 * time.Minute), want: true},
		{name: "last second", now: closeAt.Add(-5*time.Minute - time.Second), want: true},
		{name: "window shuts", now: closeAt.Add(-5 * time.Minute), want: false},
		{name: "at the close", now: closeAt, want: false},
		{name: "after the close", now: closeAt.Add(time.Hour), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InDecisionWindow(tt.now, closeAt))
		})
	}
}

func TestSchedulerRunsFirstBuyInWindow(t *testing.T) {
	cfg := testConfig()
	now := time.Date(2026, 3, 2, 5, 52, 0, 0, time.UTC)
	broker := &mockBroker{closeAt: now.Add(7 * time.Minute)}
	trading := &mockTradingService{state: model.TradingState{CycleNumber: 1, IsFirstBuy: true}}

	clk := newFakeClock(now)
	clk.maxSleeps = 1

	sched := NewScheduler(cfg, logger.NewNop(), broker, trading, &mockNotifier{}, clk)
	sched.Run(context.Background())

	assert.Equal(t, 1, trading.completionRuns)
	assert.Equal(t, 1, trading.firstBuyCalls)
	assert.Zero(t, trading.normalCalls)
	assert.Equal(t, []time.Duration{postTradeSleep}, clk.sleeps)
}

func TestSchedulerRunsNormalTradingInWindow(t *testing.T) {
	cfg := testConfig()
	now := time.Date(2026, 3, 2, 5, 52, 0, 0, time.UTC)
	broker := &mockBroker{closeAt: now.Add(7 * time.Minute)}
	trading := &mockTradingService{state: model.TradingState{CycleNumber: 2, Turn: 4}}

	clk := newFakeClock(now)
	clk.maxSleeps = 1

	sched := NewScheduler(cfg, logger.NewNop(), broker, trading, &mockNotifier{}, clk)
	sched.Run(context.Background())

	assert.Zero(t, trading.firstBuyCalls)
	assert.Equal(t, 1, trading.normalCalls)
	assert.Equal(t, []time.Duration{postTradeSleep}, clk.sleeps)
}

func TestSchedulerIdlesOutsideWindow(t *testing.T) {
	cfg := testConfig()
	now := time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC)
	broker := &mockBroker{closeAt: now.Add(4 * time.Hour)}
	trading := &mockTradingService{state: model.TradingState{CycleNumber: 1, IsFirstBuy: true}}

	clk := newFakeClock(now)
	clk.maxSleeps = 3

	sched := NewScheduler(cfg, logger.NewNop(), broker, trading, &mockNotifier{}, clk)
	sched.Run(context.Background())

	assert.Zero(t, trading.completionRuns)
	assert.Zero(t, trading.firstBuyCalls)
	assert.Equal(t, []time.Duration{idleInterval, idleInterval, idleInterval}, clk.sleeps)
}

func TestSchedulerBacksOffAndNotifiesOnError(t *testing.T) {
	cfg := testConfig()
	// Close enough to the window edge that the backoff lands outside it.
	now := time.Date(2026, 3, 2, 5, 53, 30, 0, time.UTC)
	broker := &mockBroker{closeAt: now.Add(6 * time.Minute)}
	trading := &mockTradingService{
		state:       model.TradingState{CycleNumber: 1, IsFirstBuy: true},
		firstBuyErr: errBroker,
	}
	notifier := &mockNotifier{}

	clk := newFakeClock(now)
	clk.maxSleeps = 1

	sched := NewScheduler(cfg, logger.NewNop(), broker, trading, notifier, clk)
	sched.Run(context.Background())

	assert.Equal(t, []time.Duration{errorBackoff}, clk.sleeps)
	assert.Len(t, notifier.errs, 1)
}

func TestSchedulerSkipsTradingAfterCycleCompletion(t *testing.T) {
	cfg := testConfig()
	// The idle interval after completion carries the loop out of the window.
	now := time.Date(2026, 3, 2, 5, 52, 0, 0, time.UTC)
	broker := &mockBroker{closeAt: now.Add(5*time.Minute + 10*time.Second)}
	trading := &mockTradingService{
		state:     model.TradingState{CycleNumber: 2, Turn: 18},
		completed: true,
	}

	clk := newFakeClock(now)
	clk.maxSleeps = 1

	sched := NewScheduler(cfg, logger.NewNop(), broker, trading, &mockNotifier{}, clk)
	sched.Run(context.Background())

	assert.Equal(t, 1, trading.completionRuns)
	assert.Zero(t, trading.firstBuyCalls)
	assert.Zero(t, trading.normalCalls)
	assert.Equal(t, []time.Duration{idleInterval}, clk.sleeps)
}
