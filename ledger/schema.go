// ledger/schema.go
package ledger

// Schema creates the holdings table and the append-mostly accrual
// postings table. Daily interest is a derived column recomputed by the
// mutation paths (see DailyInterest); there are deliberately no triggers.
const Schema = `
CREATE TABLE IF NOT EXISTS holdings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	instrument_name TEXT NOT NULL,
	issuer TEXT NOT NULL,
	amount_paise INTEGER NOT NULL,
	currency TEXT NOT NULL DEFAULT 'INR',
	expected_annual_rate_bps INTEGER NOT NULL DEFAULT 0,
	accrual_basis_days INTEGER NOT NULL DEFAULT 365,
	daily_interest_paise INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL,
	UNIQUE (instrument_name, issuer)
);

CREATE INDEX IF NOT EXISTS idx_holdings_issuer ON holdings(issuer);

CREATE TABLE IF NOT EXISTS interest_accruals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	as_of_date TEXT NOT NULL,
	instrument_name TEXT NOT NULL,
	issuer TEXT NOT NULL,
	opening_amount_paise INTEGER NOT NULL,
	expected_annual_rate_bps INTEGER NOT NULL,
	accrual_basis_days INTEGER NOT NULL DEFAULT 365,
	accrued_interest_paise INTEGER NOT NULL,
	method TEXT NOT NULL DEFAULT 'model',
	created_at DATETIME NOT NULL,
	UNIQUE (as_of_date, instrument_name, issuer)
);

CREATE INDEX IF NOT EXISTS idx_accruals_date ON interest_accruals(as_of_date);
CREATE INDEX IF NOT EXISTS idx_accruals_instr ON interest_accruals(instrument_name, issuer);
`
