package model

// StockBalance is a live snapshot of the account's position in one symbol.
// It is recomputed from the broker on every decision cycle and never persisted.
type StockBalance struct {
	Quantity     float64 `json:"quantity"`
	AveragePrice float64 `json:"average_price"`
	CurrentPrice float64 `json:"current_price"`
}

func (b *StockBalance) TotalValue() float64 {
	return b.Quantity * b.CurrentPrice
}

func (b *StockBalance) ProfitRate() float64 {
	if b.AveragePrice == 0 {
		return 0
	}
	return (b.CurrentPrice - b.AveragePrice) / b.AveragePrice * 100
}
