package domain

import "time"

// Rejection names the first eligibility rule a request failed.
type Rejection string

const (
	RejectionInsufficientBalance   Rejection = "insufficient_balance"
	RejectionBelowMinimum          Rejection = "below_minimum"
	RejectionMonthlyLimitExceeded  Rejection = "monthly_limit_exceeded"
	RejectionGracePeriodNotElapsed Rejection = "grace_period_not_elapsed"
)

// CheckInput carries everything the eligibility rules read, loaded by the
// caller so the check itself touches no storage.
type CheckInput struct {
	RequestedCents      int64
	TotalEarnedCents    int64
	MinWithdrawalCents  int64
	MonthlyLimitCents   *int64
	MonthWithdrawnCents int64
	LastCommissionedAt  *time.Time
	ProcessingDays      int
	Now                 time.Time
}

// CheckWithdrawal runs the ordered eligibility rules; the first failure
// wins. A nil result means eligible.
func CheckWithdrawal(in CheckInput) *Rejection {
	if in.RequestedCents > in.TotalEarnedCents {
		return rejection(RejectionInsufficientBalance)
	}
	if in.RequestedCents < in.MinWithdrawalCents {
		return rejection(RejectionBelowMinimum)
	}
	if in.MonthlyLimitCents != nil &&
		in.MonthWithdrawnCents+in.RequestedCents > *in.MonthlyLimitCents {
		return rejection(RejectionMonthlyLimitExceeded)
	}
	if in.LastCommissionedAt != nil && in.ProcessingDays > 0 {
		release := in.LastCommissionedAt.Add(time.Duration(in.ProcessingDays) * 24 * time.Hour)
		if in.Now.Before(release) {
			return rejection(RejectionGracePeriodNotElapsed)
		}
	}
	return nil
}

func rejection(r Rejection) *Rejection { return &r }
