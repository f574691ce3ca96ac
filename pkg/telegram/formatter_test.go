package telegram

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatOrderMessage(t *testing.T) {
	qty := int64(10)
	price := 52.49
	amount := 524.9

	msg := FormatOrderMessage("Pre-turn 0% LOC buy completed", "TQQQ", &qty, &price, &amount)

	assert.Contains(t, msg, "<b>Pre-turn 0% LOC buy completed</b>")
	assert.Contains(t, msg, "Symbol: TQQQ")
	assert.Contains(t, msg, "Quantity: 10 shares")
	assert.Contains(t, msg, "Price: $52.49")
	assert.Contains(t, msg, "Amount: $524.90")
}

func TestFormatOrderMessageOmitsNilFields(t *testing.T) {
	// MOC orders carry no price, cycle notifications carry nothing at all.
	msg := FormatOrderMessage("🎉 Cycle completed", "TQQQ", nil, nil, nil)

	assert.Contains(t, msg, "Symbol: TQQQ")
	assert.NotContains(t, msg, "Quantity")
	assert.NotContains(t, msg, "Price")
	assert.NotContains(t, msg, "Amount")
}

func TestFormatBalanceMessage(t *testing.T) {
	msg := FormatBalanceMessage(1234.56, []PositionSnapshot{
		{
			Symbol:       "TQQQ",
			Quantity:     100,
			AveragePrice: 40,
			CurrentPrice: 42,
			TotalValue:   4200,
			ProfitRate:   5,
		},
	})

	assert.Contains(t, msg, "Cash: $1234.56")
	assert.Contains(t, msg, "TQQQ: 100 shares")
	assert.Contains(t, msg, "Avg price: $40.00")
	assert.Contains(t, msg, "P/L: 5.00%")
}

func TestFormatBalanceMessageNoHoldings(t *testing.T) {
	msg := FormatBalanceMessage(500, nil)
	assert.Contains(t, msg, "No holdings")
}

func TestFormatErrorMessage(t *testing.T) {
	msg := FormatErrorMessage(errors.New("balance request rejected"))
	assert.Contains(t, msg, "<b>Error</b>")
	assert.Contains(t, msg, "balance request rejected")
}
