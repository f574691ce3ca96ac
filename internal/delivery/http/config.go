package http

import (
	"errors"
	"infinite-buying/internal/dto"
	"infinite-buying/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupConfig(base *echo.Group) {
	v1 := base.Group("/v1/config")
	{
		v1.GET("", h.GetConfig)
		v1.POST("", h.UpdateConfig)
		v1.POST("/start", h.StartBot)
		v1.POST("/stop", h.StopBot)
		v1.POST("/reset", h.ResetBot)
	}
}

func (h *HttpAPIHandler) GetConfig(c echo.Context) error {
	response := dto.NewSuccessResponse("Trading config", dto.ConfigResponse{
		Symbol:           h.cfg.Trading.Symbol,
		TotalDivisions:   h.cfg.Trading.TotalDivisions,
		FirstBuyAmount:   h.cfg.Trading.FirstBuyAmount,
		PreTurnThreshold: h.cfg.Trading.PreTurnThreshold,
		QuarterLossStart: h.cfg.Trading.QuarterLossStart,
		DryRun:           h.cfg.Trading.DryRun,
	})
	return c.JSON(response.Code, response)
}

func (h *HttpAPIHandler) UpdateConfig(c echo.Context) error {
	var req dto.ConfigUpdateRequest
	if err := c.Bind(&req); err != nil {
		response := dto.NewBadRequestResponse(err.Error())
		return c.JSON(response.Code, response)
	}
	if err := h.validator.Struct(&req); err != nil {
		response := dto.NewBadRequestResponse(err.Error())
		return c.JSON(response.Code, response)
	}

	// Changing the plan mid-run would desynchronize the persisted turn
	// counter from the division math, so the bot must be stopped first.
	if h.service.BotManager.IsRunning() {
		response := dto.NewBaseResponse(http.StatusConflict, service.ErrBotRunning.Error(), nil)
		return c.JSON(response.Code, response)
	}

	h.cfg.Trading.Symbol = req.Symbol
	h.cfg.Trading.TotalDivisions = req.TotalDivisions
	h.cfg.Trading.FirstBuyAmount = req.FirstBuyAmount
	h.cfg.Trading.PreTurnThreshold = req.PreTurnThreshold
	h.cfg.Trading.QuarterLossStart = req.QuarterLossStart

	response := dto.NewSuccessResponse("Trading config updated", nil)
	return c.JSON(response.Code, response)
}

func (h *HttpAPIHandler) StartBot(c echo.Context) error {
	if err := h.service.BotManager.Start(c.Request().Context()); err != nil {
		response := dto.NewBaseResponse(http.StatusConflict, err.Error(), nil)
		return c.JSON(response.Code, response)
	}
	response := dto.NewSuccessResponse("Trading bot started", nil)
	return c.JSON(response.Code, response)
}

func (h *HttpAPIHandler) StopBot(c echo.Context) error {
	if err := h.service.BotManager.Stop(); err != nil {
		response := dto.NewBaseResponse(http.StatusConflict, err.Error(), nil)
		return c.JSON(response.Code, response)
	}
	response := dto.NewSuccessResponse("Trading bot stopped", nil)
	return c.JSON(response.Code, response)
}

func (h *HttpAPIHandler) ResetBot(c echo.Context) error {
	if err := h.service.BotManager.Reset(); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, service.ErrBotRunning) {
			code = http.StatusConflict
		}
		response := dto.NewBaseResponse(code, err.Error(), nil)
		return c.JSON(response.Code, response)
	}
	response := dto.NewSuccessResponse("Trading state reset", nil)
	return c.JSON(response.Code, response)
}
