package model

import "time"

type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderCondition is the time-in-force of an order. LOC and MOC execute in the
// closing auction; ConditionLimit is a plain limit order.
type OrderCondition string

const (
	ConditionLimit OrderCondition = "LIMIT"
	ConditionLOC   OrderCondition = "LOC"
	ConditionMOC   OrderCondition = "MOC"
)

// OrderTracking follows one submitted order until it fills or the polling
// budget runs out. ExecutedQty only ever grows.
type OrderTracking struct {
	OrderNumber string
	Symbol      string
	Side        OrderSide
	Price       float64
	Quantity    int64
	ExecutedQty int64
	Condition   OrderCondition
	SubmittedAt time.Time
}

func (t *OrderTracking) PendingQty() int64 {
	return t.Quantity - t.ExecutedQty
}

func (t *OrderTracking) IsComplete() bool {
	return t.ExecutedQty == t.Quantity
}
