package service

import (
	"context"
	"infinite-buying/internal/dto"
	"infinite-buying/internal/model"
	"infinite-buying/pkg/logger"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buyRequest(qty int64) dto.OrderRequest {
	return dto.OrderRequest{
		Symbol:    "TQQQ",
		Side:      model.OrderSideBuy,
		Quantity:  qty,
		Price:     50,
		Condition: model.ConditionLOC,
	}
}

func TestSubmitAndTrackDryRun(t *testing.T) {
	cfg := testConfig()
	cfg.Trading.DryRun = true
	broker := &mockBroker{}
	notifier := &mockNotifier{}
	clk := newFakeClock(time.Now())

	tracker := NewOrderTracker(cfg, logger.NewNop(), broker, nil, notifier, clk)

	filled, err := tracker.SubmitAndTrack(context.Background(), buyRequest(5))
	require.NoError(t, err)
	assert.True(t, filled)

	// Dry-run fills never touch the pending-order endpoint.
	assert.Zero(t, broker.pendingCalls)
	assert.Equal(t, []string{"Buy order filled"}, notifier.orderLabels())
}

func TestSubmitAndTrackFilledWhenOrderSettles(t *testing.T) {
	cfg := testConfig()
	// The order is gone from the pending view right away.
	broker := &mockBroker{pendingSeq: []map[string]int64{{}}}
	notifier := &mockNotifier{}
	clk := newFakeClock(time.Now())

	tracker := NewOrderTracker(cfg, logger.NewNop(), broker, nil, notifier, clk)

	filled, err := tracker.SubmitAndTrack(context.Background(), buyRequest(5))
	require.NoError(t, err)
	assert.True(t, filled)
	assert.Equal(t, 1, broker.pendingCalls)
	assert.Zero(t, clk.sleepCount())
}

func TestSubmitAndTrackFilledAfterPartialProgress(t *testing.T) {
	cfg := testConfig()
	broker := &mockBroker{pendingSeq: []map[string]int64{
		{"ODNO-1": 2},
		{"ODNO-1": 5},
	}}
	notifier := &mockNotifier{}
	clk := newFakeClock(time.Now())

	tracker := NewOrderTracker(cfg, logger.NewNop(), broker, nil, notifier, clk)

	filled, err := tracker.SubmitAndTrack(context.Background(), buyRequest(5))
	require.NoError(t, err)
	assert.True(t, filled)
	assert.Equal(t, 2, broker.pendingCalls)
	assert.Equal(t, 1, clk.sleepCount())
}

func TestSubmitAndTrackBudgetExhausted(t *testing.T) {
	cfg := testConfig()
	// Stuck at a partial fill for the whole polling budget.
	broker := &mockBroker{pendingSeq: []map[string]int64{{"ODNO-1": 2}}}
	notifier := &mockNotifier{}
	clk := newFakeClock(time.Now())

	tracker := NewOrderTracker(cfg, logger.NewNop(), broker, nil, notifier, clk)

	filled, err := tracker.SubmitAndTrack(context.Background(), buyRequest(5))
	require.NoError(t, err)
	assert.False(t, filled)
	assert.Equal(t, maxTrackAttempts, broker.pendingCalls)
	assert.Empty(t, notifier.orderLabels())
}

func TestSubmitAndTrackPendingErrorsTolerated(t *testing.T) {
	cfg := testConfig()
	broker := &mockBroker{pendingErr: errBroker}
	clk := newFakeClock(time.Now())

	tracker := NewOrderTracker(cfg, logger.NewNop(), broker, nil, &mockNotifier{}, clk)

	// A flaky pending-order endpoint consumes the budget but is not fatal.
	filled, err := tracker.SubmitAndTrack(context.Background(), buyRequest(5))
	require.NoError(t, err)
	assert.False(t, filled)
	assert.Equal(t, maxTrackAttempts, broker.pendingCalls)
}

func TestSubmitAndTrackPlaceOrderError(t *testing.T) {
	cfg := testConfig()
	broker := &mockBroker{orderErr: errBroker}
	clk := newFakeClock(time.Now())

	tracker := NewOrderTracker(cfg, logger.NewNop(), broker, nil, &mockNotifier{}, clk)

	filled, err := tracker.SubmitAndTrack(context.Background(), buyRequest(5))
	assert.ErrorIs(t, err, errBroker)
	assert.False(t, filled)
}

func TestSubmitAndTrackSellNotification(t *testing.T) {
	cfg := testConfig()
	cfg.Trading.DryRun = true
	notifier := &mockNotifier{}
	clk := newFakeClock(time.Now())

	tracker := NewOrderTracker(cfg, logger.NewNop(), &mockBroker{}, nil, notifier, clk)

	filled, err := tracker.SubmitAndTrack(context.Background(), dto.OrderRequest{
		Symbol:    "TQQQ",
		Side:      model.OrderSideSell,
		Quantity:  3,
		Price:     55,
		Condition: model.ConditionLimit,
	})
	require.NoError(t, err)
	assert.True(t, filled)
	assert.Equal(t, []string{"Sell order filled"}, notifier.orderLabels())
}
