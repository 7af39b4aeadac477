package ledger

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// SeedRow is one row of the holdings seed file. Amount is in major units
// (rupees); it is converted to paise on insert.
type SeedRow struct {
	InstrumentName   string
	Issuer           string
	Amount           decimal.Decimal
	RateBps          int64
	AccrualBasisDays int64
}

// SeedResult reports a seeding pass.
type SeedResult struct {
	Inserted  int          `json:"rows_inserted"`
	Skipped   int          `json:"rows_skipped"`
	Overwrite bool         `json:"overwrite_mode"`
	Cleared   *ClearResult `json:"cleared_data,omitempty"`
}

// SeedCSV loads holdings from a CSV of
// instrument_name, issuer, amount_rupees, expected_annual_rate_bps
// with an optional accrual_basis_days column (default 365).
//
// In overwrite mode all holdings and accrual postings are cleared first,
// inside the same transaction. In update mode existing rows are left
// alone and duplicate (instrument, issuer) keys are skipped and counted,
// never an error.
func (l *Ledger) SeedCSV(path string, overwrite bool) (SeedResult, error) {
	rows, err := readSeedCSV(path)
	if err != nil {
		return SeedResult{}, err
	}
	return l.Seed(rows, overwrite)
}

// Seed inserts already-parsed seed rows. See SeedCSV.
func (l *Ledger) Seed(rows []SeedRow, overwrite bool) (SeedResult, error) {
	res := SeedResult{Overwrite: overwrite}

	err := l.inTx(func(tx *sql.Tx) error {
		if overwrite {
			cleared, err := clearAll(tx)
			if err != nil {
				return err
			}
			if cleared.HoldingsDeleted > 0 || cleared.AccrualsDeleted > 0 {
				res.Cleared = &cleared
			}
		}

		for _, row := range rows {
			amountPaise := ToPaise(row.Amount)
			r, err := tx.Exec(`
				INSERT OR IGNORE INTO holdings
				(instrument_name, issuer, amount_paise, expected_annual_rate_bps, accrual_basis_days, daily_interest_paise, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				row.InstrumentName, row.Issuer, amountPaise, row.RateBps, row.AccrualBasisDays,
				DailyInterest(amountPaise, row.RateBps, row.AccrualBasisDays), l.now())
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
				res.Inserted++
			}
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, fmt.Errorf("seed holdings: %w", err)
	}
	return res, nil
}

func readSeedCSV(path string) ([]SeedRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("seed file %s is empty", path)
	}

	cols := map[string]int{}
	for i, name := range records[0] {
		cols[name] = i
	}
	for _, name := range []string{"instrument_name", "issuer", "amount_rupees", "expected_annual_rate_bps"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("seed file missing required column %q", name)
		}
	}

	var rows []SeedRow
	for _, rec := range records[1:] {
		row := SeedRow{
			InstrumentName:   rec[cols["instrument_name"]],
			Issuer:           rec[cols["issuer"]],
			AccrualBasisDays: defaultBasisDays,
		}
		row.Amount, err = decimal.NewFromString(rec[cols["amount_rupees"]])
		if err != nil {
			return nil, fmt.Errorf("bad amount_rupees %q: %w", rec[cols["amount_rupees"]], err)
		}
		row.RateBps, err = strconv.ParseInt(rec[cols["expected_annual_rate_bps"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad expected_annual_rate_bps %q: %w", rec[cols["expected_annual_rate_bps"]], err)
		}
		if i, ok := cols["accrual_basis_days"]; ok && i < len(rec) && rec[i] != "" {
			row.AccrualBasisDays, err = strconv.ParseInt(rec[i], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bad accrual_basis_days %q: %w", rec[i], err)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
