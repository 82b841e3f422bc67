package policy

// Resolve merges the three configuration tiers into one EffectiveConfig.
// Precedence is per-field: affiliate override, then group override, then the
// global default. Group overrides are ignored while the group is disabled, so
// affiliates assigned to a disabled group fall through to the global terms
// while keeping their own overrides.
//
// Resolution never fails: the global tier supplies every field.
func Resolve(affiliate Overrides, group *GroupPolicy, global Defaults) EffectiveConfig {
	groupOverrides := Overrides{}
	if group != nil && group.Active {
		groupOverrides = group.Overrides
	}

	cfg := EffectiveConfig{
		CommissionType:     global.CommissionType,
		CommissionValue:    global.CommissionValue,
		CommissionEvent:    global.CommissionEvent,
		WithdrawalMethod:   global.WithdrawalMethod,
		MinWithdrawalCents: global.MinWithdrawalCents,
		ProcessingDays:     global.ProcessingDays,
	}

	if groupOverrides.CommissionType != nil {
		cfg.CommissionType = *groupOverrides.CommissionType
	}
	if groupOverrides.CommissionValue != nil {
		cfg.CommissionValue = *groupOverrides.CommissionValue
	}
	if groupOverrides.CommissionEvent != nil {
		cfg.CommissionEvent = *groupOverrides.CommissionEvent
	}
	if groupOverrides.WithdrawalMethod != nil {
		cfg.WithdrawalMethod = *groupOverrides.WithdrawalMethod
	}
	if groupOverrides.MinWithdrawalCents != nil {
		cfg.MinWithdrawalCents = *groupOverrides.MinWithdrawalCents
	}

	if affiliate.CommissionType != nil {
		cfg.CommissionType = *affiliate.CommissionType
	}
	if affiliate.CommissionValue != nil {
		cfg.CommissionValue = *affiliate.CommissionValue
	}
	if affiliate.CommissionEvent != nil {
		cfg.CommissionEvent = *affiliate.CommissionEvent
	}
	if affiliate.WithdrawalMethod != nil {
		cfg.WithdrawalMethod = *affiliate.WithdrawalMethod
	}
	if affiliate.MinWithdrawalCents != nil {
		cfg.MinWithdrawalCents = *affiliate.MinWithdrawalCents
	}

	return cfg
}
