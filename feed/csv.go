package feed

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// header maps column names to their index and checks required columns.
type header map[string]int

func newHeader(row []string, required []string) (header, error) {
	h := header{}
	for i, name := range row {
		h[name] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := h[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns %v", ErrValidation, missing)
	}
	return h, nil
}

func (h header) get(row []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func (h header) has(name string) bool {
	_, ok := h[name]
	return ok
}

func (h header) date(row []string, name string) (time.Time, error) {
	raw := h.get(row, name)
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: column %s: bad date %q", ErrValidation, name, raw)
	}
	return t, nil
}

func (h header) amount(row []string, name string) (decimal.Decimal, error) {
	raw := h.get(row, name)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: column %s: bad amount %q", ErrValidation, name, raw)
	}
	return d, nil
}

func readAll(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrValidation, path)
	}
	return rows, nil
}

// LoadBank reads the bank transaction feed.
//
// Required columns: date, description, amount.
// Optional columns: counterparty_id, running_balance.
// Rows are returned sorted by date ascending.
func LoadBank(path string) ([]BankTxn, error) {
	rows, err := readAll(path)
	if err != nil {
		return nil, err
	}
	h, err := newHeader(rows[0], []string{"date", "description", "amount"})
	if err != nil {
		return nil, err
	}

	var txns []BankTxn
	for _, row := range rows[1:] {
		t := BankTxn{
			Description:    h.get(row, "description"),
			CounterpartyID: h.get(row, "counterparty_id"),
		}
		if t.Date, err = h.date(row, "date"); err != nil {
			return nil, err
		}
		if t.Amount, err = h.amount(row, "amount"); err != nil {
			return nil, err
		}
		if h.has("running_balance") {
			rb, err := h.amount(row, "running_balance")
			if err != nil {
				return nil, err
			}
			t.RunningBalance = decimal.NewNullDecimal(rb)
		}
		txns = append(txns, t)
	}

	sort.SliceStable(txns, func(i, j int) bool { return txns[i].Date.Before(txns[j].Date) })
	return txns, nil
}

// LoadReceivables reads the AR invoice feed.
//
// Required columns: invoice_id, counterparty_id, invoice_date, due_date,
// amount, status.
func LoadReceivables(path string) ([]Receivable, error) {
	rows, err := readAll(path)
	if err != nil {
		return nil, err
	}
	h, err := newHeader(rows[0], []string{"invoice_id", "counterparty_id", "invoice_date", "due_date", "amount", "status"})
	if err != nil {
		return nil, err
	}

	var items []Receivable
	for _, row := range rows[1:] {
		r := Receivable{
			InvoiceID:      h.get(row, "invoice_id"),
			CounterpartyID: h.get(row, "counterparty_id"),
		}
		if r.InvoiceDate, err = h.date(row, "invoice_date"); err != nil {
			return nil, err
		}
		if r.DueDate, err = h.date(row, "due_date"); err != nil {
			return nil, err
		}
		if r.Amount, err = h.amount(row, "amount"); err != nil {
			return nil, err
		}
		if r.Status, err = ParseStatus(h.get(row, "status")); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, nil
}

// LoadPayables reads the AP bill feed.
//
// Required columns: bill_id, counterparty_id, vendor_tier, bill_date,
// due_date, amount, status.
func LoadPayables(path string) ([]Payable, error) {
	rows, err := readAll(path)
	if err != nil {
		return nil, err
	}
	h, err := newHeader(rows[0], []string{"bill_id", "counterparty_id", "vendor_tier", "bill_date", "due_date", "amount", "status"})
	if err != nil {
		return nil, err
	}

	var items []Payable
	for _, row := range rows[1:] {
		p := Payable{
			BillID:         h.get(row, "bill_id"),
			CounterpartyID: h.get(row, "counterparty_id"),
		}
		if p.VendorTier, err = ParseVendorTier(h.get(row, "vendor_tier")); err != nil {
			return nil, err
		}
		if p.BillDate, err = h.date(row, "bill_date"); err != nil {
			return nil, err
		}
		if p.DueDate, err = h.date(row, "due_date"); err != nil {
			return nil, err
		}
		if p.Amount, err = h.amount(row, "amount"); err != nil {
			return nil, err
		}
		if p.Status, err = ParseStatus(h.get(row, "status")); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, nil
}
