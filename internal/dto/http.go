package dto

import (
	"infinite-buying/internal/model"
	"net/http"
)

type BaseResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func NewBaseResponse(code int, message string, data interface{}) *BaseResponse {
	return &BaseResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func NewBadRequestResponse(message string) *BaseResponse {
	return NewBaseResponse(http.StatusBadRequest, message, nil)
}

func NewSuccessResponse(message string, data interface{}) *BaseResponse {
	return NewBaseResponse(http.StatusOK, message, data)
}

type TradingStatusResponse struct {
	IsRunning    bool                `json:"is_running"`
	State        *model.TradingState `json:"state"`
	RecentTrades []model.Trade       `json:"recent_trades"`
}

type ConfigResponse struct {
	Symbol           string  `json:"symbol"`
	TotalDivisions   int     `json:"total_divisions"`
	FirstBuyAmount   int     `json:"first_buy_amount"`
	PreTurnThreshold float64 `json:"pre_turn_threshold"`
	QuarterLossStart float64 `json:"quarter_loss_start"`
	DryRun           bool    `json:"dry_run"`
}

type ConfigUpdateRequest struct {
	Symbol           string  `json:"symbol" validate:"required"`
	TotalDivisions   int     `json:"total_divisions" validate:"gt=0"`
	FirstBuyAmount   int     `json:"first_buy_amount" validate:"gt=0"`
	PreTurnThreshold float64 `json:"pre_turn_threshold" validate:"gte=0"`
	QuarterLossStart float64 `json:"quarter_loss_start" validate:"gte=0"`
}
