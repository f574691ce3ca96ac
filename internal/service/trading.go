package service

import (
	"context"
	"fmt"
	"infinite-buying/config"
	"infinite-buying/internal/dto"
	"infinite-buying/internal/model"
	"infinite-buying/internal/repository"
	"infinite-buying/pkg/clock"
	"infinite-buying/pkg/logger"
	"infinite-buying/pkg/telegram"
	"math"
	"sync"
	"time"
)

// cycleCooldown is how long the engine pauses after a cycle closes before a
// new first buy is allowed.
const cycleCooldown = 60 * time.Second

// TradingService is the strategy engine: the turn-by-turn decision logic of
// the infinite-buying schedule. All operations assume exclusive access to the
// persisted state between load and save; the scheduling loop is the only
// caller that mutates it.
type TradingService interface {
	// CheckCycleCompletion reports whether the current cycle just closed
	// (position fully liquidated). On completion the state is reset for
	// the next cycle, persisted, and a cool-down is observed.
	CheckCycleCompletion(ctx context.Context) (bool, error)
	// ExecuteFirstBuy opens a new cycle with a fixed-quantity MOC buy.
	ExecuteFirstBuy(ctx context.Context) error
	// ExecuteNormalTrading runs one buy turn (pre- or post-turn regime)
	// followed by the sell-order evaluation.
	ExecuteNormalTrading(ctx context.Context) error
	Snapshot() model.TradingState
	ResetState() error
}

type tradingService struct {
	cfg      *config.Config
	log      *logger.Logger
	broker   repository.BrokerRepository
	states   repository.StateRepository
	tracker  OrderTracker
	notifier telegram.Notifier
	clk      clock.Clock

	mu    sync.RWMutex
	state *model.TradingState
}

func NewTradingService(
	cfg *config.Config,
	log *logger.Logger,
	broker repository.BrokerRepository,
	states repository.StateRepository,
	tracker OrderTracker,
	notifier telegram.Notifier,
	clk clock.Clock,
) (TradingService, error) {
	state, err := states.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load trading state: %w", err)
	}

	log.Info("Trading state loaded",
		logger.IntField("cycle_number", state.CycleNumber),
		logger.Float64Field("turn", state.Turn),
		logger.Field("is_first_buy", state.IsFirstBuy),
	)

	return &tradingService{
		cfg:      cfg,
		log:      log,
		broker:   broker,
		states:   states,
		tracker:  tracker,
		notifier: notifier,
		clk:      clk,
		state:    state,
	}, nil
}

// CalculateBuyQuantity converts a cash amount into a share count at the given
// price. Truncates toward zero so the engine never over-commits capital.
func CalculateBuyQuantity(amount, price float64) int64 {
	if price <= 0 {
		return 0
	}
	return int64(math.Floor(amount / price))
}

// CalculateLOCPrice applies a percent offset to a base price. A negative
// percent yields a discount.
func CalculateLOCPrice(basePrice, percent float64) float64 {
	return basePrice * (1 + percent/100)
}

func (s *tradingService) Snapshot() model.TradingState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.state
}

func (s *tradingService) ResetState() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = model.NewTradingState()
	return s.states.Save(s.state)
}

func (s *tradingService) CheckCycleCompletion(ctx context.Context) (bool, error) {
	if s.Snapshot().IsFirstBuy {
		// Nothing accumulated yet, the cycle has not even started.
		return false, nil
	}

	balance, err := s.stockBalance(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check cycle completion: %w", err)
	}

	if balance != nil && balance.Quantity > 0 {
		return false, nil
	}

	s.log.InfoContext(ctx, "Cycle completed, starting new cycle",
		logger.IntField("finished_cycle", s.Snapshot().CycleNumber),
	)
	s.notifier.NotifyOrder(ctx, "🎉 Cycle completed", s.cfg.Trading.Symbol, nil, nil, nil)

	s.mu.Lock()
	s.state.Reset(s.clk.Now())
	err = s.states.Save(s.state)
	s.mu.Unlock()
	if err != nil {
		return false, fmt.Errorf("failed to persist reset state: %w", err)
	}

	// Give the account a moment to settle before the next first buy.
	if err := s.clk.Sleep(ctx, cycleCooldown); err != nil {
		return true, err
	}
	return true, nil
}

func (s *tradingService) ExecuteFirstBuy(ctx context.Context) error {
	currentPrice, err := s.broker.GetQuote(ctx, s.cfg.Trading.Symbol)
	if err != nil {
		return fmt.Errorf("failed to quote for first buy: %w", err)
	}

	qty := int64(s.cfg.Trading.FirstBuyAmount)
	filled, err := s.tracker.SubmitAndTrack(ctx, dto.OrderRequest{
		Symbol:    s.cfg.Trading.Symbol,
		Side:      model.OrderSideBuy,
		Quantity:  qty,
		Condition: model.ConditionMOC,
	})
	if err != nil {
		return fmt.Errorf("first buy failed: %w", err)
	}
	if !filled {
		return nil
	}

	amount := currentPrice * float64(qty)
	s.notifier.NotifyOrder(ctx, "First buy completed", s.cfg.Trading.Symbol, &qty, &currentPrice, &amount)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsFirstBuy = false
	s.state.InitialPrice = currentPrice
	s.state.TotalInvestment = amount
	s.state.Touch(s.clk.Now())
	if err := s.states.Save(s.state); err != nil {
		return fmt.Errorf("failed to persist state after first buy: %w", err)
	}
	return nil
}

func (s *tradingService) ExecuteNormalTrading(ctx context.Context) error {
	accountBalance, err := s.broker.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch balance: %w", err)
	}

	balance, err := s.stockBalanceFrom(ctx, accountBalance)
	if err != nil {
		return err
	}
	if balance == nil {
		// No position left; the next completion check starts a new cycle.
		return nil
	}

	turn := s.Snapshot().Turn
	remainingTurns := float64(s.cfg.Trading.TotalDivisions) - turn
	if remainingTurns <= 0 {
		s.log.InfoContext(ctx, "All planned divisions exhausted",
			logger.Float64Field("turn", turn),
		)
		return nil
	}

	// Deployable capital is the account's live USD cash; each remaining
	// turn gets an equal share of it.
	singleAmount := accountBalance.Cash / remainingTurns

	if turn < s.cfg.Trading.PreTurnThreshold {
		err = s.executePreTurnTrading(ctx, singleAmount)
	} else {
		err = s.executePostTurnTrading(ctx, singleAmount)
	}
	if err != nil {
		return err
	}

	return s.executeSellOrders(ctx, balance)
}

// executePreTurnTrading splits the turn's budget over two LOC buy legs: one
// at the current price and, only if the first fills, one at a decaying
// premium above it.
func (s *tradingService) executePreTurnTrading(ctx context.Context, singleAmount float64) error {
	currentPrice, err := s.broker.GetQuote(ctx, s.cfg.Trading.Symbol)
	if err != nil {
		return fmt.Errorf("failed to quote for pre-turn buy: %w", err)
	}

	turn := s.Snapshot().Turn
	halfAmount := singleAmount / 2

	qty := CalculateBuyQuantity(halfAmount, currentPrice)
	if qty > 0 {
		filled, err := s.tracker.SubmitAndTrack(ctx, dto.OrderRequest{
			Symbol:    s.cfg.Trading.Symbol,
			Side:      model.OrderSideBuy,
			Quantity:  qty,
			Price:     currentPrice,
			Condition: model.ConditionLOC,
			Division:  turn,
		})
		if err != nil {
			return fmt.Errorf("pre-turn 0%% buy failed: %w", err)
		}

		if filled {
			amount := currentPrice * float64(qty)
			s.notifier.NotifyOrder(ctx, "Pre-turn 0% LOC buy completed", s.cfg.Trading.Symbol, &qty, &currentPrice, &amount)

			percent := 10 - turn/2
			offsetPrice := CalculateLOCPrice(currentPrice, percent)
			qty2 := CalculateBuyQuantity(halfAmount, offsetPrice)
			if qty2 > 0 {
				// Shave a cent off to avoid rejection at the exact
				// boundary price.
				legPrice := offsetPrice - 0.01
				filled2, err := s.tracker.SubmitAndTrack(ctx, dto.OrderRequest{
					Symbol:    s.cfg.Trading.Symbol,
					Side:      model.OrderSideBuy,
					Quantity:  qty2,
					Price:     legPrice,
					Condition: model.ConditionLOC,
					Division:  turn,
				})
				if err != nil {
					return fmt.Errorf("pre-turn %.1f%% buy failed: %w", percent, err)
				}
				if filled2 {
					amount2 := offsetPrice * float64(qty2)
					s.notifier.NotifyOrder(ctx,
						fmt.Sprintf("Pre-turn %.1f%% LOC buy completed", percent),
						s.cfg.Trading.Symbol, &qty2, &legPrice, &amount2)
				}
			}
		}
	}

	// The turn advances even when a leg was skipped or timed out; a
	// partially recorded turn is accepted rather than rolled back.
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Turn++
	s.state.Touch(s.clk.Now())
	if err := s.states.Save(s.state); err != nil {
		return fmt.Errorf("failed to persist state after pre-turn: %w", err)
	}
	return nil
}

// executePostTurnTrading places the single LOC buy leg of the late regime.
// By now the percent offset has decayed toward or below zero, so the leg
// price approaches or undercuts the current price.
func (s *tradingService) executePostTurnTrading(ctx context.Context, singleAmount float64) error {
	currentPrice, err := s.broker.GetQuote(ctx, s.cfg.Trading.Symbol)
	if err != nil {
		return fmt.Errorf("failed to quote for post-turn buy: %w", err)
	}

	turn := s.Snapshot().Turn
	percent := 10 - turn/2
	offsetPrice := CalculateLOCPrice(currentPrice, percent)

	qty := CalculateBuyQuantity(singleAmount, offsetPrice)
	if qty == 0 {
		return nil
	}

	legPrice := offsetPrice - 0.01
	filled, err := s.tracker.SubmitAndTrack(ctx, dto.OrderRequest{
		Symbol:    s.cfg.Trading.Symbol,
		Side:      model.OrderSideBuy,
		Quantity:  qty,
		Price:     legPrice,
		Condition: model.ConditionLOC,
		Division:  turn,
	})
	if err != nil {
		return fmt.Errorf("post-turn buy failed: %w", err)
	}
	if !filled {
		return nil
	}

	amount := offsetPrice * float64(qty)
	s.notifier.NotifyOrder(ctx,
		fmt.Sprintf("Post-turn %.1f%% LOC buy completed", percent),
		s.cfg.Trading.Symbol, &qty, &legPrice, &amount)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Turn++
	s.state.Touch(s.clk.Now())
	if err := s.states.Save(s.state); err != nil {
		return fmt.Errorf("failed to persist state after post-turn: %w", err)
	}
	return nil
}

// executeSellOrders places the exit legs for the turn: a quarter of the
// position at a decaying premium over average cost, and only if that fills,
// the remainder at a fixed 10% premium as a plain limit order.
func (s *tradingService) executeSellOrders(ctx context.Context, balance *model.StockBalance) error {
	turn := s.Snapshot().Turn
	if turn >= s.cfg.Trading.QuarterLossStart {
		return s.executeQuarterStopLoss(ctx, balance)
	}

	totalQuantity := int64(balance.Quantity)
	quarterQuantity := totalQuantity / 4
	if quarterQuantity == 0 {
		return nil
	}

	percent := 10 - turn/2
	price := CalculateLOCPrice(balance.AveragePrice, percent)
	filled, err := s.tracker.SubmitAndTrack(ctx, dto.OrderRequest{
		Symbol:    s.cfg.Trading.Symbol,
		Side:      model.OrderSideSell,
		Quantity:  quarterQuantity,
		Price:     price,
		Condition: model.ConditionLOC,
		Division:  turn,
	})
	if err != nil {
		return fmt.Errorf("%.1f%% sell failed: %w", percent, err)
	}
	if !filled {
		return nil
	}

	amount := price * float64(quarterQuantity)
	s.notifier.NotifyOrder(ctx,
		fmt.Sprintf("%.1f%% LOC sell completed", percent),
		s.cfg.Trading.Symbol, &quarterQuantity, &price, &amount)

	remainingQty := totalQuantity - quarterQuantity
	if remainingQty == 0 {
		return nil
	}

	targetPrice := CalculateLOCPrice(balance.AveragePrice, 10)
	filled2, err := s.tracker.SubmitAndTrack(ctx, dto.OrderRequest{
		Symbol:    s.cfg.Trading.Symbol,
		Side:      model.OrderSideSell,
		Quantity:  remainingQty,
		Price:     targetPrice,
		Condition: model.ConditionLimit,
		Division:  turn,
	})
	if err != nil {
		return fmt.Errorf("10%% limit sell failed: %w", err)
	}
	if filled2 {
		amount2 := targetPrice * float64(remainingQty)
		s.notifier.NotifyOrder(ctx, "10% limit sell completed", s.cfg.Trading.Symbol, &remainingQty, &targetPrice, &amount2)
	}
	return nil
}

// executeQuarterStopLoss liquidates a quarter of the position at the close,
// no price offset. Active once turn reaches the quarter-loss threshold.
func (s *tradingService) executeQuarterStopLoss(ctx context.Context, balance *model.StockBalance) error {
	quarterQuantity := int64(balance.Quantity) / 4
	if quarterQuantity == 0 {
		return nil
	}

	filled, err := s.tracker.SubmitAndTrack(ctx, dto.OrderRequest{
		Symbol:    s.cfg.Trading.Symbol,
		Side:      model.OrderSideSell,
		Quantity:  quarterQuantity,
		Condition: model.ConditionMOC,
		Division:  s.Snapshot().Turn,
	})
	if err != nil {
		return fmt.Errorf("quarter stop-loss failed: %w", err)
	}
	if filled {
		s.notifier.NotifyOrder(ctx, "Quarter stop-loss MOC sell completed", s.cfg.Trading.Symbol, &quarterQuantity, nil, nil)
	}
	return nil
}

// stockBalance fetches the account and derives the position snapshot for the
// traded symbol. Returns nil when the account holds none of it.
func (s *tradingService) stockBalance(ctx context.Context) (*model.StockBalance, error) {
	accountBalance, err := s.broker.GetBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balance: %w", err)
	}
	return s.stockBalanceFrom(ctx, accountBalance)
}

func (s *tradingService) stockBalanceFrom(ctx context.Context, accountBalance *dto.AccountBalance) (*model.StockBalance, error) {
	position := accountBalance.Position(s.cfg.Trading.Symbol)
	if position == nil {
		return nil, nil
	}

	currentPrice, err := s.broker.GetQuote(ctx, s.cfg.Trading.Symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to quote %s: %w", s.cfg.Trading.Symbol, err)
	}

	return &model.StockBalance{
		Quantity:     position.Quantity,
		AveragePrice: position.AveragePrice,
		CurrentPrice: currentPrice,
	}, nil
}
