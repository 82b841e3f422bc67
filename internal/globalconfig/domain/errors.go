package domain

import "errors"

var (
	ErrNotFound                = errors.New("config_not_found")
	ErrConcurrencyConflict     = errors.New("concurrency_conflict")
	ErrInvalidCommissionType   = errors.New("invalid_commission_type")
	ErrInvalidCommissionValue  = errors.New("invalid_commission_value")
	ErrInvalidCommissionEvent  = errors.New("invalid_commission_event")
	ErrInvalidWithdrawalMethod = errors.New("invalid_withdrawal_method")
	ErrInvalidMinWithdrawal    = errors.New("invalid_min_withdrawal")
	ErrInvalidProcessingDays   = errors.New("invalid_processing_days")
	ErrInvalidCookieExpiration = errors.New("invalid_cookie_expiration")
	ErrInvalidSalesThreshold   = errors.New("invalid_sales_threshold")
)
