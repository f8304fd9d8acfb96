package proposal

import (
	"strings"

	"leasing-backend/internal/money"

	"github.com/shopspring/decimal"
)

// parseQuantity treats an empty quantity as 1, like a fresh line.
func parseQuantity(s string) decimal.Decimal {
	if strings.TrimSpace(s) == "" {
		return decimal.NewFromInt(1)
	}
	return money.ParseAmount(s)
}
