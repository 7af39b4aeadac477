// Package perform persists the sweep decision: a full decision snapshot
// and a compact dated execution record with a human-readable rationale.
package perform

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/suraj93/autosweep/config"
	"github.com/suraj93/autosweep/pkg/id"
	"github.com/suraj93/autosweep/policy"
)

// Record is the execution record for one decision run.
type Record struct {
	RunID            string          `json:"run_id"`
	Date             string          `json:"date"`
	DeployableValue  decimal.Decimal `json:"deployable_value"`
	CurrentBalance   decimal.Decimal `json:"current_balance"`
	MustKeepValue    decimal.Decimal `json:"must_keep_value"`
	SafetyBuffers    decimal.Decimal `json:"safety_buffers"`
	Description      string          `json:"description"`
	DeployInstrument *string         `json:"deploy_instrument"`
	DeployIssuer     *string         `json:"deploy_issuer"`
	MaxTenor         *int            `json:"max_tenor"`
	ApprovalNeeded   bool            `json:"approval_needed"`
}

// NewRecord builds the execution record from a decision. The max tenor is
// looked up from the whitelist entry matching the chosen instrument and
// left null when there is no order or no matching entry.
func NewRecord(d policy.Decision, p config.Policy) Record {
	rec := Record{
		RunID:           id.New(),
		Date:            d.ReferenceDate.Format("2006-01-02"),
		DeployableValue: d.Deployable.Round(2),
		CurrentBalance:  d.Balance.Round(2),
		MustKeepValue:   d.MustKeep.Round(2),
		SafetyBuffers:   d.Attribution.Buffers.TotalMustKeep,
		Description:     describe(d),
		ApprovalNeeded:  true,
	}

	if d.Order != nil {
		rec.DeployInstrument = &d.Order.Instrument
		rec.DeployIssuer = &d.Order.Issuer
		rec.ApprovalNeeded = d.Order.NeedsApproval
		for _, wl := range p.Whitelist {
			if wl.Instrument == d.Order.Instrument {
				tenor := wl.MaxTenorDays
				rec.MaxTenor = &tenor
				break
			}
		}
	}
	return rec
}

// describe renders the two-line rationale. The first line states the
// figures; the second branches on the sign of deployable and on whether
// inflows outrun outflows or the balance sits below 80% of must-keep.
func describe(d policy.Decision) string {
	inM := func(v decimal.Decimal) float64 { return v.InexactFloat64() / 1_000_000 }

	line1 := fmt.Sprintf(
		"Deployable value: INR%.1fM from current balance INR%.1fM, expected AR INR%.1fM, AP INR%.1fM, buffer INR%.1fM.",
		inM(d.Deployable), inM(d.Balance), inM(d.Forecast.ExpectedInflows), inM(d.Forecast.ExpectedOutflows), inM(d.MustKeep))

	var line2 string
	switch {
	case d.Deployable.IsPositive() && d.Forecast.ExpectedInflows.GreaterThan(d.Forecast.ExpectedOutflows):
		line2 = "Strong inflow position enables surplus deployment after maintaining prudent safety buffers."
	case d.Deployable.IsPositive():
		line2 = "Limited surplus available due to high outflow requirements and conservative buffer maintenance."
	case d.Balance.LessThan(d.MustKeep.Mul(decimal.NewFromFloat(0.8))):
		line2 = "No deployment possible - current balance below safety buffer requirements."
	default:
		line2 = "No surplus available after accounting for expected outflows and mandatory buffers."
	}

	return line1 + "\n" + line2
}

// WriteRecord writes the execution record to perform.json and a dated
// perform_YYYY-MM-DD.json in dir, creating the directory if needed.
func WriteRecord(dir string, rec Record) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	for _, name := range []string{"perform.json", "perform_" + rec.Date + ".json"} {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// WriteSnapshot writes the full decision snapshot to decision.json in dir.
func WriteSnapshot(dir string, d policy.Decision) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "decision.json"), data, 0644); err != nil {
		return fmt.Errorf("write decision.json: %w", err)
	}
	return nil
}
