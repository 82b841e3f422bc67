package domain

import "errors"

var (
	ErrNotFound                = errors.New("affiliate_not_found")
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidName             = errors.New("invalid_name")
	ErrInvalidEmail            = errors.New("invalid_email")
	ErrEmailTaken              = errors.New("email_taken")
	ErrInvalidCode             = errors.New("invalid_code")
	ErrCodeTaken               = errors.New("code_taken")
	ErrCodeExhausted           = errors.New("code_generation_exhausted")
	ErrGroupNotFound           = errors.New("group_not_found")
	ErrInvalidTransition       = errors.New("invalid_status_transition")
	ErrHasEvents               = errors.New("affiliate_has_events")
	ErrInvalidCommissionType   = errors.New("invalid_commission_type")
	ErrInvalidCommissionValue  = errors.New("invalid_commission_value")
	ErrInvalidCommissionEvent  = errors.New("invalid_commission_event")
	ErrInvalidWithdrawalMethod = errors.New("invalid_withdrawal_method")
	ErrInvalidMinWithdrawal    = errors.New("invalid_min_withdrawal")
	ErrInvalidMonthlyLimit     = errors.New("invalid_monthly_limit")
)
