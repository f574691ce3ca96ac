package service

import (
	"context"
	"encoding/json"
	"infinite-buying/config"
	"infinite-buying/internal/dto"
	"infinite-buying/internal/model"
	"infinite-buying/internal/repository"
	"infinite-buying/pkg/clock"
	"infinite-buying/pkg/logger"
	"infinite-buying/pkg/telegram"
	"infinite-buying/pkg/utils"
	"time"
)

const (
	maxTrackAttempts = 10
	trackInterval    = time.Second
)

// OrderTracker submits one order and follows it until it fills or the polling
// budget is exhausted.
type OrderTracker interface {
	// SubmitAndTrack returns true only when the full requested quantity is
	// confirmed executed. False with a nil error means the budget ran out;
	// the order may be partially filled and the caller must not assume
	// full execution.
	SubmitAndTrack(ctx context.Context, req dto.OrderRequest) (bool, error)
}

type orderTracker struct {
	cfg       *config.Config
	log       *logger.Logger
	broker    repository.BrokerRepository
	tradeRepo repository.TradeRepository
	notifier  telegram.Notifier
	clk       clock.Clock
}

func NewOrderTracker(
	cfg *config.Config,
	log *logger.Logger,
	broker repository.BrokerRepository,
	tradeRepo repository.TradeRepository,
	notifier telegram.Notifier,
	clk clock.Clock,
) OrderTracker {
	return &orderTracker{
		cfg:       cfg,
		log:       log,
		broker:    broker,
		tradeRepo: tradeRepo,
		notifier:  notifier,
		clk:       clk,
	}
}

func (t *orderTracker) SubmitAndTrack(ctx context.Context, req dto.OrderRequest) (bool, error) {
	orderNumber, err := t.broker.PlaceOrder(ctx, req)
	if err != nil {
		return false, err
	}

	tracking := &model.OrderTracking{
		OrderNumber: orderNumber,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Condition:   req.Condition,
		SubmittedAt: t.clk.Now(),
	}

	t.log.InfoContext(ctx, "Order submitted",
		logger.StringField("order_number", orderNumber),
		logger.StringField("symbol", req.Symbol),
		logger.StringField("side", string(req.Side)),
		logger.StringField("condition", string(req.Condition)),
		logger.Field("quantity", req.Quantity),
		logger.Float64Field("price", req.Price),
	)

	// Dry-run fills are deterministic and immediate, no polling.
	if t.cfg.Trading.DryRun {
		tracking.ExecutedQty = tracking.Quantity
		t.onFilled(ctx, tracking, req)
		return true, nil
	}

	for attempt := 0; attempt < maxTrackAttempts; attempt++ {
		pending, err := t.broker.GetPendingOrders(ctx)
		if err != nil {
			t.log.WarnContext(ctx, "Failed to check pending orders",
				logger.StringField("order_number", orderNumber),
				logger.ErrorField(err),
			)
		} else if executed, ok := pending[orderNumber]; ok {
			tracking.ExecutedQty = executed
		} else {
			// Settled orders drop out of the pending view.
			tracking.ExecutedQty = tracking.Quantity
		}

		if tracking.IsComplete() {
			t.onFilled(ctx, tracking, req)
			return true, nil
		}

		if err := t.clk.Sleep(ctx, trackInterval); err != nil {
			return false, err
		}
	}

	t.log.WarnContext(ctx, "Order tracking budget exhausted",
		logger.StringField("order_number", orderNumber),
		logger.Field("executed_qty", tracking.ExecutedQty),
		logger.Field("pending_qty", tracking.PendingQty()),
	)
	return false, nil
}

func (t *orderTracker) onFilled(ctx context.Context, tracking *model.OrderTracking, req dto.OrderRequest) {
	label := "Buy order filled"
	if tracking.Side == model.OrderSideSell {
		label = "Sell order filled"
	}
	amount := tracking.Price * float64(tracking.Quantity)
	t.notifier.NotifyOrder(ctx, label, tracking.Symbol, &tracking.Quantity, &tracking.Price, &amount)

	t.recordTrade(ctx, tracking, req)
}

// recordTrade journals the fill. Best effort: a storage failure is logged and
// must never abort a trading decision.
func (t *orderTracker) recordTrade(ctx context.Context, tracking *model.OrderTracking, req dto.OrderRequest) {
	if t.tradeRepo == nil {
		return
	}

	metadata, _ := json.Marshal(map[string]interface{}{
		"condition":    string(tracking.Condition),
		"submitted_at": tracking.SubmittedAt,
	})

	trade := &model.Trade{
		Symbol:      tracking.Symbol,
		Side:        string(tracking.Side),
		Price:       tracking.Price,
		Quantity:    tracking.Quantity,
		Division:    req.Division,
		TotalAmount: tracking.Price * float64(tracking.Quantity),
		OrderNumber: tracking.OrderNumber,
		Metadata:    metadata,
	}

	saveCtx := context.WithoutCancel(ctx)
	utils.GoSafe(func() {
		if err := t.tradeRepo.Save(saveCtx, trade); err != nil {
			t.log.ErrorContext(saveCtx, "Failed to journal trade",
				logger.StringField("order_number", trade.OrderNumber),
				logger.ErrorField(err),
			)
		}
	})
}
