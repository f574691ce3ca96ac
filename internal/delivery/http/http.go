package http

import (
	"infinite-buying/config"
	"infinite-buying/internal/service"
	"infinite-buying/pkg/logger"
	"infinite-buying/pkg/middleware"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type HttpAPIHandler struct {
	echo      *echo.Echo
	validator *goValidator.Validate
	cfg       *config.Config
	log       *logger.Logger
	service   *service.Service
}

func NewHttpAPIHandler(echo *echo.Echo, validator *goValidator.Validate, cfg *config.Config, log *logger.Logger, service *service.Service) *HttpAPIHandler {
	return &HttpAPIHandler{
		echo:      echo,
		validator: validator,
		cfg:       cfg,
		log:       log,
		service:   service,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	h.echo.Use(middleware.NewRateLimiterMiddleware())

	base := h.echo.Group("/api")
	h.SetupTrading(base)
	h.SetupConfig(base)
}
