package repository

import (
	"context"
	"fmt"
	"infinite-buying/internal/model"

	"gorm.io/gorm"
)

type TradeRepository interface {
	Save(ctx context.Context, trade *model.Trade) error
	GetRecent(ctx context.Context, limit int) ([]model.Trade, error)
	List(ctx context.Context, limit, offset int) ([]model.Trade, error)
}

type tradeRepository struct {
	db *gorm.DB
}

func NewTradeRepository(db *gorm.DB) TradeRepository {
	return &tradeRepository{
		db: db,
	}
}

func (r *tradeRepository) Save(ctx context.Context, trade *model.Trade) error {
	if err := r.db.WithContext(ctx).Create(trade).Error; err != nil {
		return fmt.Errorf("failed to save trade: %w", err)
	}
	return nil
}

func (r *tradeRepository) GetRecent(ctx context.Context, limit int) ([]model.Trade, error) {
	var trades []model.Trade
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recent trades: %w", err)
	}
	return trades, nil
}

func (r *tradeRepository) List(ctx context.Context, limit, offset int) ([]model.Trade, error) {
	var trades []model.Trade
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, nil
}
