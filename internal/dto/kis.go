package dto

// DTOs for the Korea Investment & Securities open API (overseas stock).
// Field names mirror the wire format of the API, which returns every numeric
// value as a string.

type KISTokenRequest struct {
	GrantType string `json:"grant_type"`
	AppKey    string `json:"appkey"`
	AppSecret string `json:"appsecret"`
}

type KISTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type KISQuoteResponse struct {
	RtCd   string `json:"rt_cd"`
	MsgCd  string `json:"msg_cd"`
	Msg1   string `json:"msg1"`
	Output struct {
		Rsym string `json:"rsym"`
		Last string `json:"last"`
		Base string `json:"base"`
		Tvol string `json:"tvol"`
	} `json:"output"`
}

type KISPosition struct {
	Pdno         string `json:"ovrs_pdno"`      // symbol
	ItemName     string `json:"ovrs_item_name"` // human-readable name
	Quantity     string `json:"ovrs_cblc_qty"`  // held quantity
	AveragePrice string `json:"pchs_avg_pric"`  // purchase average price
	CurrentPrice string `json:"now_pric2"`      // latest price
	EvalAmount   string `json:"ovrs_stck_evlu_amt"`
}

type KISBalanceResponse struct {
	RtCd    string        `json:"rt_cd"`
	Msg1    string        `json:"msg1"`
	Output1 []KISPosition `json:"output1"`
	Output2 struct {
		ForeignDeposit string `json:"frcr_dncl_amt_2"` // deployable USD cash
		TotalEvalPnl   string `json:"tot_evlu_pfls_amt"`
	} `json:"output2"`
}

type KISOrderRequest struct {
	AccountNumber string `json:"CANO"`
	AccountCode   string `json:"ACNT_PRDT_CD"`
	ExchangeCode  string `json:"OVRS_EXCG_CD"`
	Symbol        string `json:"PDNO"`
	Quantity      string `json:"ORD_QTY"`
	Price         string `json:"OVRS_ORD_UNPR"`
	ServerDivsion string `json:"ORD_SVR_DVSN_CD"`
	OrderDivision string `json:"ORD_DVSN"`
}

type KISOrderResponse struct {
	RtCd   string `json:"rt_cd"`
	MsgCd  string `json:"msg_cd"`
	Msg1   string `json:"msg1"`
	Output struct {
		OrderNumber string `json:"ODNO"`
		OrderTime   string `json:"ORD_TMD"`
	} `json:"output"`
}

type KISPendingOrder struct {
	OrderNumber string `json:"odno"`
	Symbol      string `json:"pdno"`
	OrderQty    string `json:"ft_ord_qty"`
	ExecutedQty string `json:"ft_ccld_qty"`
	OrderPrice  string `json:"ft_ord_unpr3"`
	SellBuyCode string `json:"sll_buy_dvsn_cd"`
}

type KISPendingOrdersResponse struct {
	RtCd   string            `json:"rt_cd"`
	Msg1   string            `json:"msg1"`
	Output []KISPendingOrder `json:"output"`
}
