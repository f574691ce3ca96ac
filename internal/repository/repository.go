package repository

import (
	"infinite-buying/config"
	"infinite-buying/pkg/cache"
	"infinite-buying/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	BrokerRepo BrokerRepository
	StateRepo  StateRepository
	TradeRepo  TradeRepository
}

func NewRepository(cfg *config.Config, tokenCache cache.Cache, db *gorm.DB, log *logger.Logger) (*Repository, error) {
	brokerRepo, err := NewKISRepository(cfg, tokenCache, log)
	if err != nil {
		return nil, err
	}

	return &Repository{
		BrokerRepo: brokerRepo,
		StateRepo:  NewFileStateRepository(cfg.Trading.StateFile, log),
		TradeRepo:  NewTradeRepository(db),
	}, nil
}
