package policy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func globalDefaults() Defaults {
	return Defaults{
		CommissionType:     CommissionPercentage,
		CommissionValue:    decimal.NewFromInt(10),
		CommissionEvent:    EventCheckout,
		WithdrawalMethod:   WithdrawalPix,
		MinWithdrawalCents: 5000,
		ProcessingDays:     7,
	}
}

func TestResolve_GlobalOnly(t *testing.T) {
	cfg := Resolve(Overrides{}, nil, globalDefaults())

	assert.Equal(t, CommissionPercentage, cfg.CommissionType)
	assert.True(t, decimal.NewFromInt(10).Equal(cfg.CommissionValue))
	assert.Equal(t, EventCheckout, cfg.CommissionEvent)
	assert.Equal(t, WithdrawalPix, cfg.WithdrawalMethod)
	assert.Equal(t, int64(5000), cfg.MinWithdrawalCents)
	assert.Equal(t, 7, cfg.ProcessingDays)
}

func TestResolve_Precedence(t *testing.T) {
	affValue := decimal.NewFromInt(20)
	groupValue := decimal.NewFromInt(15)

	group := &GroupPolicy{
		Active:    true,
		Overrides: Overrides{CommissionValue: &groupValue},
	}

	cfg := Resolve(Overrides{CommissionValue: &affValue}, group, globalDefaults())
	assert.True(t, affValue.Equal(cfg.CommissionValue), "affiliate override wins")

	cfg = Resolve(Overrides{}, group, globalDefaults())
	assert.True(t, groupValue.Equal(cfg.CommissionValue), "group override wins without affiliate override")

	cfg = Resolve(Overrides{}, nil, globalDefaults())
	assert.True(t, decimal.NewFromInt(10).Equal(cfg.CommissionValue), "global default applies last")
}

func TestResolve_PerField(t *testing.T) {
	affValue := decimal.NewFromInt(25)
	groupType := CommissionFixed
	groupEvent := EventClick

	group := &GroupPolicy{
		Active: true,
		Overrides: Overrides{
			CommissionType:  &groupType,
			CommissionEvent: &groupEvent,
		},
	}

	cfg := Resolve(Overrides{CommissionValue: &affValue}, group, globalDefaults())

	// Value from the affiliate, type and event from the group, the rest global.
	assert.True(t, affValue.Equal(cfg.CommissionValue))
	assert.Equal(t, CommissionFixed, cfg.CommissionType)
	assert.Equal(t, EventClick, cfg.CommissionEvent)
	assert.Equal(t, WithdrawalPix, cfg.WithdrawalMethod)
	assert.Equal(t, int64(5000), cfg.MinWithdrawalCents)
}

func TestResolve_DisabledGroupFallsThrough(t *testing.T) {
	groupValue := decimal.NewFromInt(15)
	groupMethod := WithdrawalTed
	affMin := int64(2000)

	group := &GroupPolicy{
		Active: false,
		Overrides: Overrides{
			CommissionValue:  &groupValue,
			WithdrawalMethod: &groupMethod,
		},
	}

	cfg := Resolve(Overrides{MinWithdrawalCents: &affMin}, group, globalDefaults())

	// Group overrides are treated as absent; affiliate overrides still apply.
	assert.True(t, decimal.NewFromInt(10).Equal(cfg.CommissionValue))
	assert.Equal(t, WithdrawalPix, cfg.WithdrawalMethod)
	assert.Equal(t, int64(2000), cfg.MinWithdrawalCents)
}

func TestResolve_Totality(t *testing.T) {
	// Whatever the override combination, every field ends up populated.
	combos := []struct {
		name  string
		aff   Overrides
		group *GroupPolicy
	}{
		{"empty", Overrides{}, nil},
		{"disabled group", Overrides{}, &GroupPolicy{Active: false}},
		{"enabled empty group", Overrides{}, &GroupPolicy{Active: true}},
	}

	for _, combo := range combos {
		t.Run(combo.name, func(t *testing.T) {
			cfg := Resolve(combo.aff, combo.group, globalDefaults())
			assert.True(t, cfg.CommissionType.Valid())
			assert.True(t, cfg.CommissionEvent.Valid())
			assert.True(t, cfg.WithdrawalMethod.Valid())
			assert.False(t, cfg.CommissionValue.IsNegative())
		})
	}
}
