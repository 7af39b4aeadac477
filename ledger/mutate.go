package ledger

import (
	"database/sql"
	"fmt"
)

// SelectionStrategy orders holdings for redemption draining.
type SelectionStrategy string

const (
	MostRecentFirst SelectionStrategy = "most_recent_first"
	OldestFirst     SelectionStrategy = "oldest_first"
)

// AllocationResult reports what Allocate did.
type AllocationResult struct {
	Action         string `json:"action"` // "created" or "updated"
	InstrumentName string `json:"instrument_name"`
	Issuer         string `json:"issuer"`
	AmountPaise    int64  `json:"amount_paise"`
}

// Allocate adds principal to the (instrument, issuer) holding, creating
// it with default rate and basis when absent. The derived daily interest
// is recomputed and updated_at bumped in the same transaction.
func (l *Ledger) Allocate(instrument, issuer string, amountPaise int64) (AllocationResult, error) {
	if amountPaise <= 0 {
		return AllocationResult{}, fmt.Errorf("allocation amount must be positive, got %d", amountPaise)
	}

	res := AllocationResult{
		InstrumentName: instrument,
		Issuer:         issuer,
		AmountPaise:    amountPaise,
	}

	err := l.inTx(func(tx *sql.Tx) error {
		var current, rateBps, basisDays int64
		err := tx.QueryRow(`
			SELECT amount_paise, expected_annual_rate_bps, accrual_basis_days
			FROM holdings
			WHERE instrument_name = ? AND issuer = ?`, instrument, issuer).
			Scan(&current, &rateBps, &basisDays)

		switch {
		case err == sql.ErrNoRows:
			res.Action = "created"
			_, err = tx.Exec(`
				INSERT INTO holdings
				(instrument_name, issuer, amount_paise, expected_annual_rate_bps, accrual_basis_days, daily_interest_paise, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				instrument, issuer, amountPaise, defaultRateBps, defaultBasisDays,
				DailyInterest(amountPaise, defaultRateBps, defaultBasisDays), l.now())
			return err
		case err != nil:
			return err
		}

		res.Action = "updated"
		newAmount := current + amountPaise
		_, err = tx.Exec(`
			UPDATE holdings
			SET amount_paise = ?, daily_interest_paise = ?, updated_at = ?
			WHERE instrument_name = ? AND issuer = ?`,
			newAmount, DailyInterest(newAmount, rateBps, basisDays), l.now(), instrument, issuer)
		return err
	})
	if err != nil {
		return AllocationResult{}, fmt.Errorf("allocate: %w", err)
	}
	return res, nil
}

// Redemption is one holding's share of a redemption request.
type Redemption struct {
	InstrumentName string `json:"instrument_name"`
	Issuer         string `json:"issuer"`
	RedeemedPaise  int64  `json:"redeemed_paise"`
	RemainingPaise int64  `json:"remaining_paise"`
}

// RedeemResult reports a completed redemption.
type RedeemResult struct {
	TotalRedeemedPaise int64        `json:"total_redeemed_paise"`
	Redemptions        []Redemption `json:"redemptions"`
}

// Redeem drains holdings greedily in updated_at order per the chosen
// strategy until the requested amount is satisfied. The aggregate-funds
// check happens before any mutation: an overdraw fails atomically with
// ErrInsufficientFunds and leaves every holding untouched.
func (l *Ledger) Redeem(amountPaise int64, strategy SelectionStrategy) (RedeemResult, error) {
	if amountPaise <= 0 {
		return RedeemResult{}, fmt.Errorf("redemption amount must be positive, got %d", amountPaise)
	}

	var order string
	switch strategy {
	case MostRecentFirst:
		order = "updated_at DESC"
	case OldestFirst:
		order = "updated_at ASC"
	default:
		return RedeemResult{}, fmt.Errorf("unknown selection strategy %q", strategy)
	}

	res := RedeemResult{TotalRedeemedPaise: amountPaise}

	err := l.inTx(func(tx *sql.Tx) error {
		var available int64
		if err := tx.QueryRow(`SELECT COALESCE(SUM(amount_paise), 0) FROM holdings`).Scan(&available); err != nil {
			return err
		}
		if available < amountPaise {
			return fmt.Errorf("%w: need %d paise, available %d paise", ErrInsufficientFunds, amountPaise, available)
		}

		rows, err := tx.Query(fmt.Sprintf(`
			SELECT id, instrument_name, issuer, amount_paise, expected_annual_rate_bps, accrual_basis_days
			FROM holdings
			WHERE amount_paise > 0
			ORDER BY %s`, order))
		if err != nil {
			return err
		}
		defer rows.Close()

		type slice struct {
			id                         int64
			instrument, issuer         string
			amount, rateBps, basisDays int64
		}
		var slices []slice
		for rows.Next() {
			var s slice
			if err := rows.Scan(&s.id, &s.instrument, &s.issuer, &s.amount, &s.rateBps, &s.basisDays); err != nil {
				return err
			}
			slices = append(slices, s)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		remaining := amountPaise
		for _, s := range slices {
			if remaining <= 0 {
				break
			}
			redeemed := s.amount
			if remaining < redeemed {
				redeemed = remaining
			}
			newAmount := s.amount - redeemed

			if _, err := tx.Exec(`
				UPDATE holdings
				SET amount_paise = ?, daily_interest_paise = ?, updated_at = ?
				WHERE id = ?`,
				newAmount, DailyInterest(newAmount, s.rateBps, s.basisDays), l.now(), s.id); err != nil {
				return err
			}

			res.Redemptions = append(res.Redemptions, Redemption{
				InstrumentName: s.instrument,
				Issuer:         s.issuer,
				RedeemedPaise:  redeemed,
				RemainingPaise: newAmount,
			})
			remaining -= redeemed
		}
		return nil
	})
	if err != nil {
		return RedeemResult{}, err
	}
	return res, nil
}

// AccrualResult reports a daily accrual pass.
type AccrualResult struct {
	AsOfDate string `json:"as_of_date"`
	Posted   int    `json:"accruals_posted"`
	Skipped  int    `json:"accruals_skipped"`
	Eligible int    `json:"total_holdings"`
}

// PostDailyAccrual writes one accrual posting per holding with positive
// principal for the given date. A posting that already exists for the
// date is skipped, not an error, so the operation is idempotent and safe
// to re-run. The whole pass is one transaction.
func (l *Ledger) PostDailyAccrual(asOfDate string) (AccrualResult, error) {
	if err := validDate(asOfDate); err != nil {
		return AccrualResult{}, err
	}

	res := AccrualResult{AsOfDate: asOfDate}

	err := l.inTx(func(tx *sql.Tx) error {
		rows, err := tx.Query(`
			SELECT instrument_name, issuer, amount_paise, expected_annual_rate_bps, accrual_basis_days
			FROM holdings
			WHERE amount_paise > 0`)
		if err != nil {
			return err
		}
		defer rows.Close()

		type holding struct {
			instrument, issuer         string
			amount, rateBps, basisDays int64
		}
		var eligible []holding
		for rows.Next() {
			var h holding
			if err := rows.Scan(&h.instrument, &h.issuer, &h.amount, &h.rateBps, &h.basisDays); err != nil {
				return err
			}
			eligible = append(eligible, h)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		res.Eligible = len(eligible)

		for _, h := range eligible {
			r, err := tx.Exec(`
				INSERT OR IGNORE INTO interest_accruals
				(as_of_date, instrument_name, issuer, opening_amount_paise, expected_annual_rate_bps, accrual_basis_days, accrued_interest_paise, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				asOfDate, h.instrument, h.issuer, h.amount, h.rateBps, h.basisDays,
				DailyInterest(h.amount, h.rateBps, h.basisDays), l.now())
			if err != nil {
				return err
			}
			n, err := r.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				res.Skipped++
			} else {
				res.Posted++
			}
		}
		return nil
	})
	if err != nil {
		return AccrualResult{}, fmt.Errorf("post daily accrual: %w", err)
	}
	return res, nil
}

// ClearResult reports how many rows Clear removed.
type ClearResult struct {
	HoldingsDeleted int64 `json:"holdings_deleted"`
	AccrualsDeleted int64 `json:"accruals_deleted"`
}

// Clear removes all holdings and accrual postings in one transaction.
func (l *Ledger) Clear() (ClearResult, error) {
	var res ClearResult
	err := l.inTx(func(tx *sql.Tx) error {
		r, err := clearAll(tx)
		res = r
		return err
	})
	if err != nil {
		return ClearResult{}, fmt.Errorf("clear: %w", err)
	}
	return res, nil
}

func clearAll(tx *sql.Tx) (ClearResult, error) {
	var res ClearResult
	if err := tx.QueryRow(`SELECT COUNT(*) FROM holdings`).Scan(&res.HoldingsDeleted); err != nil {
		return res, err
	}
	if err := tx.QueryRow(`SELECT COUNT(*) FROM interest_accruals`).Scan(&res.AccrualsDeleted); err != nil {
		return res, err
	}
	if _, err := tx.Exec(`DELETE FROM interest_accruals`); err != nil {
		return res, err
	}
	if _, err := tx.Exec(`DELETE FROM holdings`); err != nil {
		return res, err
	}
	return res, nil
}
