package model

import (
	"time"

	"gorm.io/datatypes"
)

// Trade is one confirmed fill, journaled for the trade-history endpoint.
// Writing it is best effort and never blocks a trading decision.
type Trade struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Symbol      string         `gorm:"not null" json:"symbol"`
	Side        string         `gorm:"not null" json:"side"`
	Price       float64        `json:"price"`
	Quantity    int64          `gorm:"not null" json:"quantity"`
	Division    float64        `json:"division"`
	TotalAmount float64        `json:"total_amount"`
	OrderNumber string         `gorm:"not null" json:"order_number"`
	Metadata    datatypes.JSON `json:"metadata"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (Trade) TableName() string {
	return "trades"
}
