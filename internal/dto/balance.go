package dto

// AccountBalance is the broker-neutral view of the account: deployable cash
// plus every open position.
type AccountBalance struct {
	Cash      float64
	Positions []PositionBalance
}

type PositionBalance struct {
	Symbol       string
	Quantity     float64
	AveragePrice float64
}

// Position returns the holding for symbol, or nil when the account holds none.
func (b *AccountBalance) Position(symbol string) *PositionBalance {
	for i := range b.Positions {
		if b.Positions[i].Symbol == symbol {
			return &b.Positions[i]
		}
	}
	return nil
}
