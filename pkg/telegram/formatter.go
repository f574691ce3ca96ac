package telegram

import (
	"fmt"
	"infinite-buying/pkg/utils"
	"strings"
)

// FormatOrderMessage renders an order event. Quantity, price and amount lines
// are omitted when the caller has nothing meaningful to report (MOC orders
// carry no price).
func FormatOrderMessage(label, symbol string, qty *int64, price, amount *float64) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("🔔 <b>%s</b>\n", label))
	builder.WriteString(fmt.Sprintf("Symbol: %s\n", symbol))

	if qty != nil {
		builder.WriteString(fmt.Sprintf("Quantity: %d shares\n", *qty))
	}
	if price != nil {
		builder.WriteString(fmt.Sprintf("Price: $%.2f\n", *price))
	}
	if amount != nil {
		builder.WriteString(fmt.Sprintf("Amount: $%.2f\n", *amount))
	}

	builder.WriteString(fmt.Sprintf("Time: %s", utils.TimeNowKST().Format("2006-01-02 15:04:05")))
	return builder.String()
}

func FormatBalanceMessage(cash float64, positions []PositionSnapshot) string {
	var builder strings.Builder

	builder.WriteString("📊 <b>Daily Account Report</b>\n\n")
	builder.WriteString(fmt.Sprintf("💵 Cash: $%.2f\n\n", cash))

	if len(positions) == 0 {
		builder.WriteString("No holdings")
		return builder.String()
	}

	builder.WriteString("📈 Holdings:\n")
	for _, p := range positions {
		builder.WriteString(fmt.Sprintf(
			"- %s: %.0f shares\n  Avg price: $%.2f\n  Current: $%.2f\n  Value: $%.2f\n  P/L: %.2f%%\n\n",
			p.Symbol, p.Quantity, p.AveragePrice, p.CurrentPrice, p.TotalValue, p.ProfitRate,
		))
	}
	return builder.String()
}

func FormatErrorMessage(err error) string {
	return fmt.Sprintf("⚠️ <b>Error</b>\nTime: %s\nError: %s",
		utils.TimeNowKST().Format("2006-01-02 15:04:05"), err)
}
