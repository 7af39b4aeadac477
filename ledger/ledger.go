// Package ledger is the holdings accrual ledger: a SQLite-backed store of
// interest-bearing holdings and their daily accrual postings. All amounts
// are integer paise (minor units); conversion to rupees happens only at
// formatting boundaries. Every mutating operation runs in one transaction.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// ErrInsufficientFunds is returned by Redeem when the request exceeds
// aggregate available principal. No holding is mutated in that case.
var ErrInsufficientFunds = errors.New("insufficient funds")

const (
	defaultRateBps   = 0
	defaultBasisDays = 365
	dateLayout       = "2006-01-02"
)

// Ledger is a single-writer SQLite store. Concurrent writers serialize
// through SQLite's own transaction mechanism.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Ledger{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// SetClock overrides the timestamp source for updated_at/created_at.
// Intended for tests that need deterministic redemption ordering.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// DailyInterest computes one day's accrued interest in paise:
// floor(amount × rate / (10000 × basis)). Floor, never round, so the
// ledger can never systematically over-credit.
func DailyInterest(amountPaise, rateBps, basisDays int64) int64 {
	if basisDays <= 0 {
		return 0
	}
	return amountPaise * rateBps / (10000 * basisDays)
}

// ToPaise converts a major-unit amount to integer paise, truncating any
// sub-paisa fraction.
func ToPaise(major decimal.Decimal) int64 {
	return major.Mul(decimal.NewFromInt(100)).IntPart()
}

// ToMajor converts paise back to a major-unit decimal.
func ToMajor(paise int64) decimal.Decimal {
	return decimal.New(paise, -2)
}

// Holding is one (instrument, issuer) position. A redeemed-to-zero
// holding stays on the books with amount 0.
type Holding struct {
	InstrumentName     string    `json:"instrument_name"`
	Issuer             string    `json:"issuer"`
	AmountPaise        int64     `json:"amount_paise"`
	RateBps            int64     `json:"expected_annual_rate_bps"`
	AccrualBasisDays   int64     `json:"accrual_basis_days"`
	DailyInterestPaise int64     `json:"daily_interest_paise"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func validDate(s string) error {
	if _, err := time.Parse(dateLayout, s); err != nil {
		return fmt.Errorf("bad date %q, want YYYY-MM-DD: %w", s, err)
	}
	return nil
}

// inTx runs fn inside a transaction, rolling back on any error.
func (l *Ledger) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
