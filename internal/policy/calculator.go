package policy

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// Calculate derives the commission for an event under a resolved config.
// It returns ok=false when the event kind is not the configured trigger:
// the event may still be recorded for conversion-rate metrics, it just pays
// nothing.
//
// PERCENTAGE commissions are grossCents * value / 100 rounded half-up to a
// whole cent; FIXED commissions pay the configured minor-unit value
// regardless of gross. A zero gross with PERCENTAGE yields a zero commission.
func Calculate(eventType EventType, grossCents int64, cfg EffectiveConfig) (amountCents int64, ok bool) {
	if eventType != cfg.CommissionEvent {
		return 0, false
	}

	switch cfg.CommissionType {
	case CommissionFixed:
		return cfg.CommissionValue.Round(0).IntPart(), true
	default:
		// decimal.Round rounds half away from zero, which is half-up for
		// the non-negative amounts handled here.
		amount := decimal.NewFromInt(grossCents).
			Mul(cfg.CommissionValue).
			Div(oneHundred).
			Round(0)
		return amount.IntPart(), true
	}
}
