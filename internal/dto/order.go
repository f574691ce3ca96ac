package dto

import "infinite-buying/internal/model"

// OrderRequest is what the strategy engine asks the broker to do.
// Price is ignored for MOC orders.
type OrderRequest struct {
	Symbol    string
	Side      model.OrderSide
	Quantity  int64
	Price     float64
	Condition model.OrderCondition
	// Division is journal metadata (which turn produced the order); it is
	// not sent to the broker.
	Division float64
}
