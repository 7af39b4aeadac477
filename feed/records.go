package feed

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrValidation wraps every data-quality failure raised by this package.
// Callers can errors.Is against it to separate bad input from I/O trouble.
var ErrValidation = errors.New("invalid feed data")

// Status of a receivable or payable. Only open items participate in
// forecasting; paid items drop out entirely.
type Status string

const (
	StatusOpen Status = "open"
	StatusPaid Status = "paid"
)

// ParseStatus validates against the closed status set.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOpen, StatusPaid:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: status %q, must be one of [open paid]", ErrValidation, s)
}

// VendorTier sizes the per-vendor reserve buffer.
type VendorTier string

const (
	TierCritical VendorTier = "critical"
	TierRegular  VendorTier = "regular"
)

// ParseVendorTier validates against the closed tier set.
func ParseVendorTier(s string) (VendorTier, error) {
	switch VendorTier(s) {
	case TierCritical, TierRegular:
		return VendorTier(s), nil
	}
	return "", fmt.Errorf("%w: vendor_tier %q, must be one of [critical regular]", ErrValidation, s)
}

// BankTxn is one row of the bank statement feed.
type BankTxn struct {
	Date           time.Time
	Description    string
	Amount         decimal.Decimal // negative = debit, positive = credit
	CounterpartyID string
	RunningBalance decimal.NullDecimal // populated only when the feed tracks it
}

// Receivable is an AR invoice.
type Receivable struct {
	InvoiceID      string          `json:"invoice_id"`
	CounterpartyID string          `json:"counterparty_id"`
	InvoiceDate    time.Time       `json:"invoice_date"`
	DueDate        time.Time       `json:"due_date"`
	Amount         decimal.Decimal `json:"amount"`
	Status         Status          `json:"status"`
}

// Payable is an AP bill.
type Payable struct {
	BillID         string          `json:"bill_id"`
	CounterpartyID string          `json:"counterparty_id"`
	VendorTier     VendorTier      `json:"vendor_tier"`
	BillDate       time.Time       `json:"bill_date"`
	DueDate        time.Time       `json:"due_date"`
	Amount         decimal.Decimal `json:"amount"`
	Status         Status          `json:"status"`
}

// CurrentBalance derives the balance from the transaction feed: the last
// running balance when the feed carries one, otherwise the sum of all
// amounts. Transactions must already be sorted by date ascending, which
// LoadBank guarantees.
func CurrentBalance(txns []BankTxn) decimal.Decimal {
	if n := len(txns); n > 0 && txns[n-1].RunningBalance.Valid {
		return txns[n-1].RunningBalance.Decimal
	}
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.Amount)
	}
	return total
}
