package model

import "time"

// TradingState is the persisted record of one bot's position in its
// accumulation cycle. It is loaded at startup and written back after every
// state-mutating operation.
type TradingState struct {
	CycleNumber     int        `json:"cycle_number"`
	Turn            float64    `json:"turn"`
	InitialPrice    float64    `json:"initial_price"`
	TotalInvestment float64    `json:"total_investment"`
	IsFirstBuy      bool       `json:"is_first_buy"`
	LastUpdated     *time.Time `json:"last_updated"`
}

// NewTradingState returns the state of a bot that has never traded:
// cycle 1, turn 0, waiting for its first buy.
func NewTradingState() *TradingState {
	return &TradingState{
		CycleNumber: 1,
		IsFirstBuy:  true,
	}
}

// Reset starts a new accumulation cycle after the position fully closed.
// Turn and IsFirstBuy reset together; this is the only place they do.
func (s *TradingState) Reset(now time.Time) {
	s.Turn = 0
	s.InitialPrice = 0
	s.IsFirstBuy = true
	s.CycleNumber++
	s.LastUpdated = &now
}

func (s *TradingState) Touch(now time.Time) {
	s.LastUpdated = &now
}
