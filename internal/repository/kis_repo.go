package repository

import (
	"context"
	"fmt"
	"infinite-buying/config"
	"infinite-buying/internal/dto"
	"infinite-buying/internal/model"
	"infinite-buying/pkg/cache"
	"infinite-buying/pkg/httpclient"
	"infinite-buying/pkg/logger"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	tokenCacheKey = "kis:access_token"

	trIDQuote         = "HHDFS00000300"
	trIDBalance       = "TTTS3012R"
	trIDPendingOrders = "TTTS3018R"
	trIDOrderBuy      = "TTTT1002U"
	trIDOrderSell     = "TTTT1006U"
)

// BrokerRepository is the contract the strategy engine trades through.
// The production implementation talks to the Korea Investment & Securities
// open API; tests substitute an in-memory fake.
type BrokerRepository interface {
	GetQuote(ctx context.Context, symbol string) (float64, error)
	GetBalance(ctx context.Context) (*dto.AccountBalance, error)
	PlaceOrder(ctx context.Context, order dto.OrderRequest) (string, error)
	// GetPendingOrders maps order number to executed quantity for orders
	// still visible in the unexecuted-order view. Settled orders disappear
	// from this view.
	GetPendingOrders(ctx context.Context) (map[string]int64, error)
	GetMarketCloseTime(ctx context.Context) (time.Time, error)
}

type kisRepository struct {
	cfg        *config.Config
	log        *logger.Logger
	httpClient httpclient.HTTPClient
	tokenCache cache.Cache
	limiter    *rate.Limiter
	nyLocation *time.Location
	kstLoc     *time.Location
}

func NewKISRepository(cfg *config.Config, tokenCache cache.Cache, log *logger.Logger) (BrokerRepository, error) {
	nyLoc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, fmt.Errorf("failed to load exchange time zone: %w", err)
	}
	kstLoc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return nil, fmt.Errorf("failed to load KST time zone: %w", err)
	}

	return &kisRepository{
		cfg:        cfg,
		log:        log,
		httpClient: httpclient.New(cfg.KIS.BaseURL, cfg.KIS.Timeout),
		tokenCache: tokenCache,
		limiter:    rate.NewLimiter(rate.Limit(cfg.KIS.MaxRequestPerSec), 1),
		nyLocation: nyLoc,
		kstLoc:     kstLoc,
	}, nil
}

func (r *kisRepository) GetQuote(ctx context.Context, symbol string) (float64, error) {
	headers, err := r.authHeaders(ctx, trIDQuote)
	if err != nil {
		return 0, err
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	queryParams := map[string]string{
		"AUTH": "",
		"EXCD": r.quoteExchangeCode(),
		"SYMB": symbol,
	}

	var result dto.KISQuoteResponse
	resp, err := r.httpClient.Get(ctx, "/uapi/overseas-price/v1/quotations/price", queryParams, headers, &result)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch quote: %w", err)
	}
	if err := checkKISResponse(resp, result.RtCd, result.Msg1); err != nil {
		return 0, fmt.Errorf("quote request rejected: %w", err)
	}

	price, err := strconv.ParseFloat(result.Output.Last, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quote price %q: %w", result.Output.Last, err)
	}
	return price, nil
}

func (r *kisRepository) GetBalance(ctx context.Context) (*dto.AccountBalance, error) {
	headers, err := r.authHeaders(ctx, trIDBalance)
	if err != nil {
		return nil, err
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	queryParams := map[string]string{
		"CANO":           r.cfg.KIS.AccountNumber,
		"ACNT_PRDT_CD":   r.cfg.KIS.AccountCode,
		"OVRS_EXCG_CD":   r.cfg.KIS.ExchangeCode,
		"TR_CRCY_CD":     "USD",
		"CTX_AREA_FK200": "",
		"CTX_AREA_NK200": "",
	}

	var result dto.KISBalanceResponse
	resp, err := r.httpClient.Get(ctx, "/uapi/overseas-stock/v1/trading/inquire-balance", queryParams, headers, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balance: %w", err)
	}
	if err := checkKISResponse(resp, result.RtCd, result.Msg1); err != nil {
		return nil, fmt.Errorf("balance request rejected: %w", err)
	}

	balance := &dto.AccountBalance{}
	balance.Cash, _ = strconv.ParseFloat(result.Output2.ForeignDeposit, 64)

	for _, p := range result.Output1 {
		qty, _ := strconv.ParseFloat(p.Quantity, 64)
		if qty == 0 {
			continue
		}
		avgPrice, _ := strconv.ParseFloat(p.AveragePrice, 64)
		balance.Positions = append(balance.Positions, dto.PositionBalance{
			Symbol:       p.Pdno,
			Quantity:     qty,
			AveragePrice: avgPrice,
		})
	}
	return balance, nil
}

func (r *kisRepository) PlaceOrder(ctx context.Context, order dto.OrderRequest) (string, error) {
	trID := trIDOrderBuy
	if order.Side == model.OrderSideSell {
		trID = trIDOrderSell
	}

	headers, err := r.authHeaders(ctx, trID)
	if err != nil {
		return "", err
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}

	price := "0"
	if order.Condition != model.ConditionMOC {
		price = strconv.FormatFloat(order.Price, 'f', 2, 64)
	}

	body := dto.KISOrderRequest{
		AccountNumber: r.cfg.KIS.AccountNumber,
		AccountCode:   r.cfg.KIS.AccountCode,
		ExchangeCode:  r.cfg.KIS.ExchangeCode,
		Symbol:        order.Symbol,
		Quantity:      strconv.FormatInt(order.Quantity, 10),
		Price:         price,
		ServerDivsion: "0",
		OrderDivision: orderDivision(order.Condition),
	}

	var result dto.KISOrderResponse
	resp, err := r.httpClient.Post(ctx, "/uapi/overseas-stock/v1/trading/order", body, headers, &result)
	if err != nil {
		return "", fmt.Errorf("failed to place %s order: %w", order.Side, err)
	}
	if err := checkKISResponse(resp, result.RtCd, result.Msg1); err != nil {
		return "", fmt.Errorf("%s order rejected: %w", order.Side, err)
	}

	return result.Output.OrderNumber, nil
}

func (r *kisRepository) GetPendingOrders(ctx context.Context) (map[string]int64, error) {
	headers, err := r.authHeaders(ctx, trIDPendingOrders)
	if err != nil {
		return nil, err
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	queryParams := map[string]string{
		"CANO":           r.cfg.KIS.AccountNumber,
		"ACNT_PRDT_CD":   r.cfg.KIS.AccountCode,
		"OVRS_EXCG_CD":   r.cfg.KIS.ExchangeCode,
		"SORT_SQN":       "DS",
		"CTX_AREA_FK200": "",
		"CTX_AREA_NK200": "",
	}

	var result dto.KISPendingOrdersResponse
	resp, err := r.httpClient.Get(ctx, "/uapi/overseas-stock/v1/trading/inquire-nccs", queryParams, headers, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending orders: %w", err)
	}
	if err := checkKISResponse(resp, result.RtCd, result.Msg1); err != nil {
		return nil, fmt.Errorf("pending orders request rejected: %w", err)
	}

	pending := make(map[string]int64, len(result.Output))
	for _, o := range result.Output {
		executed, _ := strconv.ParseInt(o.ExecutedQty, 10, 64)
		pending[o.OrderNumber] = executed
	}
	return pending, nil
}

// GetMarketCloseTime returns today's regular US close (16:00 America/New_York)
// expressed in KST. The API has no trading-hours endpoint for overseas venues,
// so the close is derived from the exchange time zone, which also absorbs DST.
func (r *kisRepository) GetMarketCloseTime(ctx context.Context) (time.Time, error) {
	now := time.Now().In(r.nyLocation)
	closeAt := time.Date(now.Year(), now.Month(), now.Day(), 16, 0, 0, 0, r.nyLocation)
	return closeAt.In(r.kstLoc), nil
}

func (r *kisRepository) authHeaders(ctx context.Context, trID string) (map[string]string, error) {
	token, err := r.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"authorization": "Bearer " + token,
		"appkey":        r.cfg.KIS.AppKey,
		"appsecret":     r.cfg.KIS.AppSecret,
		"tr_id":         trID,
	}, nil
}

// accessToken returns a cached OAuth token, requesting a fresh one when the
// cache has expired. KIS tokens live for 24h; issuing them too often is
// itself rate limited, hence the cache.
func (r *kisRepository) accessToken(ctx context.Context) (string, error) {
	if cached, found := r.tokenCache.Get(tokenCacheKey); found {
		if token, ok := cached.(string); ok {
			return token, nil
		}
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body := dto.KISTokenRequest{
		GrantType: "client_credentials",
		AppKey:    r.cfg.KIS.AppKey,
		AppSecret: r.cfg.KIS.AppSecret,
	}

	var result dto.KISTokenResponse
	resp, err := r.httpClient.Post(ctx, "/oauth2/tokenP", body, nil, &result)
	if err != nil {
		return "", fmt.Errorf("failed to request access token: %w", err)
	}
	if resp.StatusCode != http.StatusOK || result.AccessToken == "" {
		return "", fmt.Errorf("token request returned status %d", resp.StatusCode)
	}

	// Renew one minute before the broker expires it.
	ttl := time.Duration(result.ExpiresIn)*time.Second - time.Minute
	r.tokenCache.Set(tokenCacheKey, result.AccessToken, ttl)

	return result.AccessToken, nil
}

// quoteExchangeCode maps the order-routing exchange code to the shorter code
// the quotation endpoints use.
func (r *kisRepository) quoteExchangeCode() string {
	switch r.cfg.KIS.ExchangeCode {
	case "NASD":
		return "NAS"
	case "NYSE":
		return "NYS"
	case "AMEX":
		return "AMS"
	default:
		return "NAS"
	}
}

func orderDivision(condition model.OrderCondition) string {
	switch condition {
	case model.ConditionMOC:
		return "33"
	case model.ConditionLOC:
		return "34"
	default:
		return "00"
	}
}

func checkKISResponse(resp *httpclient.BaseResponse, rtCd, msg string) error {
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api returned status %d", resp.StatusCode)
	}
	if rtCd != "0" {
		return fmt.Errorf("api returned rt_cd=%s: %s", rtCd, msg)
	}
	return nil
}
