package policy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func percentageConfig(value string) EffectiveConfig {
	return EffectiveConfig{
		CommissionType:   CommissionPercentage,
		CommissionValue:  decimal.RequireFromString(value),
		CommissionEvent:  EventCheckout,
		WithdrawalMethod: WithdrawalPix,
	}
}

func TestCalculate_Percentage(t *testing.T) {
	// 10% of R$100.00 = R$10.00.
	amount, ok := Calculate(EventCheckout, 10000, percentageConfig("10"))
	assert.True(t, ok)
	assert.Equal(t, int64(1000), amount)
}

func TestCalculate_PercentageRounding(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		grossCents int64
		want       int64
	}{
		{"half rounds up", "12.5", 101, 13},       // 12.625 -> 13
		{"below half rounds down", "3.33", 100, 3}, // 3.33 -> 3
		{"exact half up", "7.5", 10, 1},            // 0.75 -> 1
		{"large gross", "2.75", 1234567, 33951},    // 33950.5925 -> 33951
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			amount, ok := Calculate(EventCheckout, tc.grossCents, percentageConfig(tc.value))
			assert.True(t, ok)
			assert.Equal(t, tc.want, amount)
		})
	}
}

func TestCalculate_Fixed(t *testing.T) {
	cfg := EffectiveConfig{
		CommissionType:  CommissionFixed,
		CommissionValue: decimal.RequireFromString("750"),
		CommissionEvent: EventCoupon,
	}

	// Fixed pays the configured amount regardless of gross.
	amount, ok := Calculate(EventCoupon, 100, cfg)
	assert.True(t, ok)
	assert.Equal(t, int64(750), amount)

	amount, ok = Calculate(EventCoupon, 9_999_999, cfg)
	assert.True(t, ok)
	assert.Equal(t, int64(750), amount)
}

func TestCalculate_EventMismatch(t *testing.T) {
	cfg := percentageConfig("10")
	cfg.CommissionEvent = EventCoupon

	amount, ok := Calculate(EventCheckout, 10000, cfg)
	assert.False(t, ok)
	assert.Zero(t, amount)
}

func TestCalculate_ZeroGross(t *testing.T) {
	amount, ok := Calculate(EventCheckout, 0, percentageConfig("10"))
	assert.True(t, ok)
	assert.Zero(t, amount)
}
