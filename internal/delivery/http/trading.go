package http

import (
	"infinite-buying/internal/dto"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const defaultHistoryLimit = 20

func (h *HttpAPIHandler) SetupTrading(base *echo.Group) {
	v1 := base.Group("/v1/trading")
	{
		v1.GET("/status", h.GetTradingStatus)
		v1.GET("/history", h.GetTradingHistory)
	}
}

func (h *HttpAPIHandler) GetTradingStatus(c echo.Context) error {
	ctx := c.Request().Context()

	running, state := h.service.BotManager.Status()

	trades, err := h.service.TradeRepo.GetRecent(ctx, defaultHistoryLimit)
	if err != nil {
		response := dto.NewBaseResponse(http.StatusInternalServerError, err.Error(), nil)
		return c.JSON(response.Code, response)
	}

	response := dto.NewSuccessResponse("Trading status", dto.TradingStatusResponse{
		IsRunning:    running,
		State:        &state,
		RecentTrades: trades,
	})
	return c.JSON(response.Code, response)
}

func (h *HttpAPIHandler) GetTradingHistory(c echo.Context) error {
	ctx := c.Request().Context()

	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultHistoryLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	trades, err := h.service.TradeRepo.List(ctx, limit, offset)
	if err != nil {
		response := dto.NewBaseResponse(http.StatusInternalServerError, err.Error(), nil)
		return c.JSON(response.Code, response)
	}

	response := dto.NewSuccessResponse("Trading history", trades)
	return c.JSON(response.Code, response)
}
