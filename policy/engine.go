// Package policy derives the sweep decision: how much cash must stay,
// how much is deployable, and which whitelisted instrument absorbs it.
package policy

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/suraj93/autosweep/config"
	"github.com/suraj93/autosweep/feed"
	"github.com/suraj93/autosweep/forecast"
)

// Order is a proposed investment. At most one order is produced per run:
// the first whitelist entry that receives a positive waterfall allocation.
type Order struct {
	Proposed      decimal.Decimal `json:"proposed"`
	Instrument    string          `json:"instrument"`
	Issuer        string          `json:"issuer"`
	NeedsApproval bool            `json:"needs_maker_checker"`
}

// vendorCounts counts distinct counterparty IDs per tier among the AP
// horizon subset. A vendor with three open bills contributes one buffer
// unit, not three. A missing tier counts as regular.
func vendorCounts(apHorizon []forecast.APItem) (critical, regular int) {
	seen := map[feed.VendorTier]map[string]struct{}{
		feed.TierCritical: {},
		feed.TierRegular:  {},
	}
	for _, item := range apHorizon {
		tier := item.VendorTier
		if tier != feed.TierCritical {
			tier = feed.TierRegular
		}
		seen[tier][item.CounterpartyID] = struct{}{}
	}
	return len(seen[feed.TierCritical]), len(seen[feed.TierRegular])
}

// MustKeep computes the minimum reserve: fixed buffers, a per-distinct-
// vendor buffer by tier, and a shock multiple of expected outflows.
func MustKeep(p config.Policy, expectedOutflows decimal.Decimal, apHorizon []forecast.APItem) decimal.Decimal {
	base := p.MinOperatingCash.Add(p.PayrollBuffer).Add(p.TaxBuffer)

	critical, regular := vendorCounts(apHorizon)
	vendor := p.VendorTierBuffers.Critical.Mul(decimal.NewFromInt(int64(critical))).
		Add(p.VendorTierBuffers.Regular.Mul(decimal.NewFromInt(int64(regular))))

	shock := p.OutflowShockMultiplier.Mul(expectedOutflows)

	return base.Add(vendor).Add(shock).Round(2)
}

// Deployable computes the surplus eligible for investment. Expected
// inflows are discounted by the recognition ratio before they count
// toward deployable cash; the result is clamped at zero.
func Deployable(balance, expectedInflows, mustKeep decimal.Decimal, p config.Policy) decimal.Decimal {
	recognized := p.RecognitionRatio.Mul(expectedInflows)
	available := balance.Add(recognized).Sub(mustKeep)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available.Round(2)
}

// ProposeOrder walks the whitelist in its configured order, filling each
// instrument up to its cap, and returns the first instrument that
// receives a positive allocation. now supplies the wall clock for the
// cutoff check (IST by convention); it is only consulted when there is a
// surplus to deploy.
func ProposeOrder(deployable decimal.Decimal, p config.Policy, now time.Time) (*Order, []string) {
	codes := []string{ReasonFixedBuffers, ReasonOutflowShock, ReasonConservativeInflow}

	if deployable.Sign() <= 0 {
		codes = append(codes, ReasonNoSurplus)
		return nil, codes
	}

	if p.EnforceCutoff && now.Hour() >= p.CutoffHour {
		codes = append(codes, ReasonCutoffPassed)
		return nil, codes
	}

	if len(p.Whitelist) == 0 {
		return nil, codes
	}

	remaining := deployable
	var first *Order
	for _, wl := range p.Whitelist {
		if remaining.Sign() <= 0 {
			break
		}
		proposed := decimal.Min(remaining, wl.MaxAmount)
		if proposed.Sign() > 0 {
			if first == nil {
				first = &Order{
					Proposed:      proposed.Round(2),
					Instrument:    wl.Instrument,
					Issuer:        wl.Issuer,
					NeedsApproval: proposed.GreaterThanOrEqual(p.ApprovalThreshold),
				}
			}
			remaining = remaining.Sub(proposed)
		}
	}

	codes = append(codes, ReasonWhitelistOK)
	if first == nil {
		return nil, codes
	}
	if first.NeedsApproval {
		codes = append(codes, ReasonMakerChecker)
	}
	return first, codes
}
