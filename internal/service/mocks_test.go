package service

import (
	"context"
	"errors"
	"infinite-buying/internal/dto"
	"infinite-buying/internal/model"
	"infinite-buying/pkg/telegram"
	"sync"
	"time"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
	// sleepErr is returned after maxSleeps successful sleeps, simulating
	// context cancellation mid-wait.
	sleepErr  error
	maxSleeps int
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now, maxSleeps: -1}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxSleeps >= 0 && len(c.sleeps) >= c.maxSleeps {
		if c.sleepErr != nil {
			return c.sleepErr
		}
		return context.Canceled
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) sleepCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sleeps)
}

type mockBroker struct {
	quote      float64
	quoteErr   error
	balance    *dto.AccountBalance
	balanceErr error
	closeAt    time.Time
	closeErr   error

	orderNumber string
	orderErr    error
	orders      []dto.OrderRequest

	// pendingSeq is consumed one snapshot per GetPendingOrders call; when
	// it runs out the last snapshot repeats.
	pendingSeq   []map[string]int64
	pendingCalls int
	pendingErr   error
}

func (b *mockBroker) GetQuote(ctx context.Context, symbol string) (float64, error) {
	return b.quote, b.quoteErr
}

func (b *mockBroker) GetBalance(ctx context.Context) (*dto.AccountBalance, error) {
	return b.balance, b.balanceErr
}

func (b *mockBroker) PlaceOrder(ctx context.Context, order dto.OrderRequest) (string, error) {
	if b.orderErr != nil {
		return "", b.orderErr
	}
	b.orders = append(b.orders, order)
	if b.orderNumber == "" {
		return "ODNO-1", nil
	}
	return b.orderNumber, nil
}

func (b *mockBroker) GetPendingOrders(ctx context.Context) (map[string]int64, error) {
	b.pendingCalls++
	if b.pendingErr != nil {
		return nil, b.pendingErr
	}
	if len(b.pendingSeq) == 0 {
		return map[string]int64{}, nil
	}
	snapshot := b.pendingSeq[0]
	if len(b.pendingSeq) > 1 {
		b.pendingSeq = b.pendingSeq[1:]
	}
	return snapshot, nil
}

func (b *mockBroker) GetMarketCloseTime(ctx context.Context) (time.Time, error) {
	return b.closeAt, b.closeErr
}

type mockTracker struct {
	requests []dto.OrderRequest
	// fills is consumed per call; when exhausted every order fills.
	fills []bool
	err   error
}

func (t *mockTracker) SubmitAndTrack(ctx context.Context, req dto.OrderRequest) (bool, error) {
	if t.err != nil {
		return false, t.err
	}
	t.requests = append(t.requests, req)
	if len(t.fills) == 0 {
		return true, nil
	}
	filled := t.fills[0]
	t.fills = t.fills[1:]
	return filled, nil
}

type mockNotifier struct {
	mu       sync.Mutex
	orders   []string
	balances int
	errs     []error
}

func (n *mockNotifier) NotifyOrder(ctx context.Context, label, symbol string, qty *int64, price, amount *float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, label)
}

func (n *mockNotifier) NotifyBalance(ctx context.Context, cash float64, positions []telegram.PositionSnapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balances++
}

func (n *mockNotifier) NotifyError(ctx context.Context, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, err)
}

func (n *mockNotifier) Start() {}
func (n *mockNotifier) Stop()  {}

func (n *mockNotifier) orderLabels() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.orders...)
}

type memStateRepo struct {
	state     *model.TradingState
	saveCount int
	saveErr   error
}

func (r *memStateRepo) Load() (*model.TradingState, error) {
	if r.state == nil {
		return model.NewTradingState(), nil
	}
	clone := *r.state
	return &clone, nil
}

func (r *memStateRepo) Save(state *model.TradingState) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	clone := *state
	r.state = &clone
	r.saveCount++
	return nil
}

type mockTradingService struct {
	mu             sync.Mutex
	state          model.TradingState
	completed      bool
	completionErr  error
	firstBuyCalls  int
	normalCalls    int
	firstBuyErr    error
	normalErr      error
	completionRuns int
}

func (s *mockTradingService) CheckCycleCompletion(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completionRuns++
	return s.completed, s.completionErr
}

func (s *mockTradingService) ExecuteFirstBuy(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.firstBuyCalls++
	return s.firstBuyErr
}

func (s *mockTradingService) ExecuteNormalTrading(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.normalCalls++
	return s.normalErr
}

func (s *mockTradingService) Snapshot() model.TradingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *mockTradingService) ResetState() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = *model.NewTradingState()
	return nil
}

var errBroker = errors.New("broker unavailable")
