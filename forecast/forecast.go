// Package forecast turns open receivables and payables into
// probability-weighted expected cash flows over a forward horizon.
package forecast

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/suraj93/autosweep/config"
	"github.com/suraj93/autosweep/feed"
)

// ErrValidation wraps bad forecast inputs (out-of-range horizon, records
// outside their closed value sets).
var ErrValidation = errors.New("invalid forecast input")

// ARItem is a receivable annotated with its forecast weighting.
type ARItem struct {
	feed.Receivable
	DaysToDue          int             `json:"days_to_due"`
	PaymentProbability decimal.Decimal `json:"payment_probability"`
	ExpectedAmount     decimal.Decimal `json:"expected_amount"`
}

// APItem is a payable annotated with its forecast weighting.
type APItem struct {
	feed.Payable
	DaysToDue          int             `json:"days_to_due"`
	PaymentProbability decimal.Decimal `json:"payment_probability"`
	ExpectedAmount     decimal.Decimal `json:"expected_amount"`
}

// Result carries the expected and face-value totals plus the annotated
// subsets they were computed from.
//
// ExpectedOutflows is summed over the provision-window subset while
// OpenPayables is the face value of the horizon-only subset: payables are
// provisioned further out than they are recognized, and the two scopes
// must not be conflated.
type Result struct {
	ExpectedInflows  decimal.Decimal `json:"expected_inflows"`
	ExpectedOutflows decimal.Decimal `json:"expected_outflows"`
	OpenReceivables  decimal.Decimal `json:"total_open_receivables"`
	OpenPayables     decimal.Decimal `json:"total_open_payables"`
	ARHorizon        []ARItem        `json:"-"`
	APHorizon        []APItem        `json:"-"`
	APProvision      []APItem        `json:"-"`
}

// CollectionProbability buckets an open receivable by days to due.
func CollectionProbability(daysToDue int, probs config.ARProbs) decimal.Decimal {
	switch {
	case daysToDue < 0:
		return probs.Overdue
	case daysToDue <= 7:
		return probs.Within7Days
	case daysToDue <= 14:
		return probs.Within14Days
	default:
		return probs.Beyond14Days
	}
}

// PaymentProbability buckets an open payable by days to due relative to
// the horizon and provision windows.
func PaymentProbability(daysToDue, horizonDays, provisionDays int, probs config.APProbs) decimal.Decimal {
	switch {
	case daysToDue < 0:
		return probs.Overdue
	case daysToDue <= horizonDays:
		return probs.WithinHorizon
	case daysToDue <= provisionDays:
		return probs.BeyondHorizonWithinProvision
	default:
		return probs.BeyondProvision
	}
}

// Flows computes expected inflows/outflows and horizon face values as of
// asOf. Only open items participate; overdue items are included because
// they are still outstanding obligations, and paid items are dropped
// entirely. Monetary totals are rounded to 2 decimals at this boundary
// only.
func Flows(ar []feed.Receivable, ap []feed.Payable, horizonDays int, asOf time.Time, m config.ModelParams) (Result, error) {
	if horizonDays < 1 || horizonDays > 365 {
		return Result{}, fmt.Errorf("%w: horizon_days must be between 1 and 365, got %d", ErrValidation, horizonDays)
	}
	if err := m.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	res := Result{
		ExpectedInflows:  decimal.Zero,
		ExpectedOutflows: decimal.Zero,
		OpenReceivables:  decimal.Zero,
		OpenPayables:     decimal.Zero,
	}

	for _, r := range ar {
		if r.Status != feed.StatusOpen && r.Status != feed.StatusPaid {
			return Result{}, fmt.Errorf("%w: receivable %s: unknown status %q", ErrValidation, r.InvoiceID, r.Status)
		}
		days := daysBetween(asOf, r.DueDate)
		if r.Status != feed.StatusOpen || days > horizonDays {
			continue
		}
		prob := CollectionProbability(days, m.ARProbs)
		item := ARItem{
			Receivable:         r,
			DaysToDue:          days,
			PaymentProbability: prob,
			ExpectedAmount:     r.Amount.Mul(prob),
		}
		res.ARHorizon = append(res.ARHorizon, item)
		res.ExpectedInflows = res.ExpectedInflows.Add(item.ExpectedAmount)
		res.OpenReceivables = res.OpenReceivables.Add(r.Amount)
	}

	for _, p := range ap {
		if p.Status != feed.StatusOpen && p.Status != feed.StatusPaid {
			return Result{}, fmt.Errorf("%w: payable %s: unknown status %q", ErrValidation, p.BillID, p.Status)
		}
		if p.VendorTier != "" && p.VendorTier != feed.TierCritical && p.VendorTier != feed.TierRegular {
			return Result{}, fmt.Errorf("%w: payable %s: unknown vendor_tier %q", ErrValidation, p.BillID, p.VendorTier)
		}
		days := daysBetween(asOf, p.DueDate)
		if p.Status != feed.StatusOpen || days > m.ProvisionDays {
			continue
		}
		prob := PaymentProbability(days, horizonDays, m.ProvisionDays, m.APProbs)
		item := APItem{
			Payable:            p,
			DaysToDue:          days,
			PaymentProbability: prob,
			ExpectedAmount:     p.Amount.Mul(prob),
		}
		res.APProvision = append(res.APProvision, item)
		res.ExpectedOutflows = res.ExpectedOutflows.Add(item.ExpectedAmount)
		if days <= horizonDays {
			res.APHorizon = append(res.APHorizon, item)
			res.OpenPayables = res.OpenPayables.Add(p.Amount)
		}
	}

	res.ExpectedInflows = res.ExpectedInflows.Round(2)
	res.ExpectedOutflows = res.ExpectedOutflows.Round(2)
	res.OpenReceivables = res.OpenReceivables.Round(2)
	res.OpenPayables = res.OpenPayables.Round(2)
	return res, nil
}

// daysBetween counts whole calendar days from a to b, ignoring the time
// of day on either side. Negative means b is before a.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
