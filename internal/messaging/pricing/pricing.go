// Package pricing holds the per-message cost table for WhatsApp template
// messages, based on Meta's Business API rates for Brazil.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Template pricing by category, USD per message. Rates as of 2024; see
// https://developers.facebook.com/docs/whatsapp/pricing
var templatePricing = map[string]decimal.Decimal{
	"MARKETING":      decimal.RequireFromString("0.0600"),
	"UTILITY":        decimal.RequireFromString("0.0200"),
	"AUTHENTICATION": decimal.RequireFromString("0.0150"),
}

// defaultCost applies to unknown or empty categories (utility pricing).
var defaultCost = decimal.RequireFromString("0.0200")

// TemplateCost returns the USD cost for sending one template message of
// the given category. Category matching is case-insensitive; unknown
// categories get the default utility rate.
func TemplateCost(category string) decimal.Decimal {
	if cost, ok := templatePricing[strings.ToUpper(category)]; ok {
		return cost
	}
	return defaultCost
}
