package ledger

import (
	"database/sql"
	"strconv"
)

// List returns all holdings ordered by issuer then instrument.
func (l *Ledger) List() ([]Holding, error) {
	rows, err := l.db.Query(`
		SELECT instrument_name, issuer, amount_paise, expected_annual_rate_bps, accrual_basis_days, daily_interest_paise, updated_at
		FROM holdings
		ORDER BY issuer, instrument_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Holding
	for rows.Next() {
		var h Holding
		if err := rows.Scan(
			&h.InstrumentName,
			&h.Issuer,
			&h.AmountPaise,
			&h.RateBps,
			&h.AccrualBasisDays,
			&h.DailyInterestPaise,
			&h.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Totals is the aggregate corpus view.
type Totals struct {
	CorpusPaise        int64 `json:"total_corpus_paise"`
	DailyInterestPaise int64 `json:"total_daily_interest_paise"`
	HoldingsCount      int   `json:"holdings_count"`
}

// Totals sums principal and derived daily interest across all holdings.
func (l *Ledger) Totals() (Totals, error) {
	var t Totals
	err := l.db.QueryRow(`
		SELECT COALESCE(SUM(amount_paise), 0), COALESCE(SUM(daily_interest_paise), 0), COUNT(*)
		FROM holdings`).Scan(&t.CorpusPaise, &t.DailyInterestPaise, &t.HoldingsCount)
	return t, err
}

// SeriesPoint is one day's summed accrued interest.
type SeriesPoint struct {
	Date         string `json:"date"`
	AccruedPaise int64  `json:"accrued_interest_paise"`
	Instruments  int    `json:"instruments"`
}

// DailySeries returns summed accrued interest per date in [start, end].
func (l *Ledger) DailySeries(start, end string) ([]SeriesPoint, error) {
	if err := validDate(start); err != nil {
		return nil, err
	}
	if err := validDate(end); err != nil {
		return nil, err
	}

	rows, err := l.db.Query(`
		SELECT as_of_date, SUM(accrued_interest_paise), COUNT(*)
		FROM interest_accruals
		WHERE as_of_date >= ? AND as_of_date <= ?
		GROUP BY as_of_date
		ORDER BY as_of_date`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeriesPoint
	for rows.Next() {
		var p SeriesPoint
		if err := rows.Scan(&p.Date, &p.AccruedPaise, &p.Instruments); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// YTD is the year-to-date accrual summary.
type YTD struct {
	Year              int   `json:"year"`
	AccruedPaise      int64 `json:"ytd_accrued_interest_paise"`
	AccrualRecords    int   `json:"total_accrual_records"`
	AccrualDays       int   `json:"accrual_days"`
	UniqueInstruments int   `json:"unique_instruments"`
}

// YTDTotals summarizes all accrual postings for one calendar year.
func (l *Ledger) YTDTotals(year int) (YTD, error) {
	t := YTD{Year: year}
	err := l.db.QueryRow(`
		SELECT
			COALESCE(SUM(accrued_interest_paise), 0),
			COUNT(*),
			COUNT(DISTINCT as_of_date),
			COUNT(DISTINCT instrument_name || '|' || issuer)
		FROM interest_accruals
		WHERE strftime('%Y', as_of_date) = ?`, strconv.Itoa(year)).
		Scan(&t.AccruedPaise, &t.AccrualRecords, &t.AccrualDays, &t.UniqueInstruments)
	return t, err
}

// AttributionRow is one (instrument, issuer)'s share of interest earned.
type AttributionRow struct {
	InstrumentName  string `json:"instrument_name"`
	Issuer          string `json:"issuer"`
	InterestPaise   int64  `json:"interest_earned_paise"`
	AvgOpeningPaise int64  `json:"avg_opening_balance_paise"`
	AvgRateBps      int64  `json:"avg_rate_bps"` // weighted by opening balance
	Days            int    `json:"days_count"`
}

// Attribution groups accrued interest by (instrument, issuer) over
// [start, end], ordered by total interest earned descending.
func (l *Ledger) Attribution(start, end string) ([]AttributionRow, error) {
	if err := validDate(start); err != nil {
		return nil, err
	}
	if err := validDate(end); err != nil {
		return nil, err
	}

	rows, err := l.db.Query(`
		SELECT
			instrument_name,
			issuer,
			SUM(accrued_interest_paise),
			ROUND(AVG(opening_amount_paise), 0),
			ROUND(SUM(expected_annual_rate_bps * opening_amount_paise) * 1.0 /
			      NULLIF(SUM(opening_amount_paise), 0), 0),
			COUNT(*)
		FROM interest_accruals
		WHERE as_of_date >= ? AND as_of_date <= ?
		GROUP BY instrument_name, issuer
		ORDER BY SUM(accrued_interest_paise) DESC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttributionRow
	for rows.Next() {
		var r AttributionRow
		var avgOpening, avgRate sql.NullFloat64
		if err := rows.Scan(&r.InstrumentName, &r.Issuer, &r.InterestPaise, &avgOpening, &avgRate, &r.Days); err != nil {
			return nil, err
		}
		r.AvgOpeningPaise = int64(avgOpening.Float64)
		r.AvgRateBps = int64(avgRate.Float64)
		out = append(out, r)
	}
	return out, rows.Err()
}

// DetailRow is one accrual posting with its inputs.
type DetailRow struct {
	AsOfDate         string `json:"as_of_date"`
	InstrumentName   string `json:"instrument_name"`
	Issuer           string `json:"issuer"`
	OpeningPaise     int64  `json:"opening_amount_paise"`
	RateBps          int64  `json:"expected_annual_rate_bps"`
	AccrualBasisDays int64  `json:"accrual_basis_days"`
	AccruedPaise     int64  `json:"accrued_interest_paise"`
}

// DailyDetail lists every posting in [start, end] ordered by date then
// instrument and issuer.
func (l *Ledger) DailyDetail(start, end string) ([]DetailRow, error) {
	if err := validDate(start); err != nil {
		return nil, err
	}
	if err := validDate(end); err != nil {
		return nil, err
	}

	rows, err := l.db.Query(`
		SELECT as_of_date, instrument_name, issuer, opening_amount_paise, expected_annual_rate_bps, accrual_basis_days, accrued_interest_paise
		FROM interest_accruals
		WHERE as_of_date >= ? AND as_of_date <= ?
		ORDER BY as_of_date, instrument_name, issuer`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DetailRow
	for rows.Next() {
		var r DetailRow
		if err := rows.Scan(&r.AsOfDate, &r.InstrumentName, &r.Issuer, &r.OpeningPaise, &r.RateBps, &r.AccrualBasisDays, &r.AccruedPaise); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
