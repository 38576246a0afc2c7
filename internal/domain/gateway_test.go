package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"100", 10000},
		{"25.50", 2550},
		{"0.01", 1},
		{"10.005", 1001},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			if got := ToMinorUnits(decimal.RequireFromString(tt.amount)); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestGatewayOrder_Amount(t *testing.T) {
	o := &GatewayOrder{AmountMinor: 2550}
	if !o.Amount().Equal(decimal.RequireFromString("25.50")) {
		t.Fatalf("expected 25.50, got %s", o.Amount())
	}
}
