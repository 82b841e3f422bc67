package payout

import "context"

// Instruction is one payout order handed to the external processor.
type Instruction struct {
	WithdrawalID string `json:"withdrawal_id"`
	AffiliateID  string `json:"affiliate_id"`
	AmountCents  int64  `json:"amount_cents"`
	Method       string `json:"method"`
	PixKey       string `json:"pix_key,omitempty"`
	BankName     string `json:"bank_name,omitempty"`
	BankAgency   string `json:"bank_agency,omitempty"`
	BankAccount  string `json:"bank_account,omitempty"`
}

// Transport delivers payout instructions. A failed dispatch is retryable;
// the caller keeps the withdrawal ELIGIBLE and tries again later.
type Transport interface {
	Dispatch(ctx context.Context, inst Instruction) error
}

type NoOpTransport struct{}

func (t *NoOpTransport) Dispatch(ctx context.Context, inst Instruction) error {
	return nil
}
