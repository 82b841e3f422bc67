package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func baseInput() CheckInput {
	return CheckInput{
		RequestedCents:     10000,
		TotalEarnedCents:   50000,
		MinWithdrawalCents: 5000,
		ProcessingDays:     7,
		Now:                time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestCheckWithdrawal_Eligible(t *testing.T) {
	assert.Nil(t, CheckWithdrawal(baseInput()))
}

func TestCheckWithdrawal_InsufficientBalance(t *testing.T) {
	in := baseInput()
	in.RequestedCents = 60000

	rejection := CheckWithdrawal(in)
	assert.NotNil(t, rejection)
	assert.Equal(t, RejectionInsufficientBalance, *rejection)
}

func TestCheckWithdrawal_BelowMinimum(t *testing.T) {
	in := baseInput()
	in.RequestedCents = 4999

	rejection := CheckWithdrawal(in)
	assert.NotNil(t, rejection)
	assert.Equal(t, RejectionBelowMinimum, *rejection)
}

func TestCheckWithdrawal_OrderingBelowMinimumBeforeMonthlyLimit(t *testing.T) {
	// Both rules fail; the earlier one wins.
	limit := int64(1000)
	in := baseInput()
	in.RequestedCents = 2000
	in.MonthlyLimitCents = &limit
	in.MonthWithdrawnCents = 500

	rejection := CheckWithdrawal(in)
	assert.NotNil(t, rejection)
	assert.Equal(t, RejectionBelowMinimum, *rejection)
}

func TestCheckWithdrawal_MonthlyLimit(t *testing.T) {
	limit := int64(15000)
	in := baseInput()
	in.MonthlyLimitCents = &limit
	in.MonthWithdrawnCents = 6000

	rejection := CheckWithdrawal(in)
	assert.NotNil(t, rejection)
	assert.Equal(t, RejectionMonthlyLimitExceeded, *rejection)

	// Exactly at the limit passes.
	in.MonthWithdrawnCents = 5000
	assert.Nil(t, CheckWithdrawal(in))
}

func TestCheckWithdrawal_GracePeriod(t *testing.T) {
	in := baseInput()
	recent := in.Now.Add(-3 * 24 * time.Hour)
	in.LastCommissionedAt = &recent

	rejection := CheckWithdrawal(in)
	assert.NotNil(t, rejection)
	assert.Equal(t, RejectionGracePeriodNotElapsed, *rejection)

	old := in.Now.Add(-8 * 24 * time.Hour)
	in.LastCommissionedAt = &old
	assert.Nil(t, CheckWithdrawal(in))
}

func TestCheckWithdrawal_NoCommissionHistorySkipsGrace(t *testing.T) {
	in := baseInput()
	in.LastCommissionedAt = nil
	assert.Nil(t, CheckWithdrawal(in))
}
