package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTemplateCost(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"MARKETING", "0.0600"},
		{"UTILITY", "0.0200"},
		{"AUTHENTICATION", "0.0150"},
		{"marketing", "0.0600"},
		{"Utility", "0.0200"},
		{"unknown", "0.0200"},
		{"", "0.0200"},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			want := decimal.RequireFromString(tt.want)
			assert.True(t, TemplateCost(tt.category).Equal(want),
				"TemplateCost(%q) = %s, want %s", tt.category, TemplateCost(tt.category), want)
		})
	}
}
