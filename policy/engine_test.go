package policy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/suraj93/autosweep/config"
	"github.com/suraj93/autosweep/feed"
	"github.com/suraj93/autosweep/forecast"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testPolicy() config.Policy {
	return config.Policy{
		MinOperatingCash:       dec("1500000"),
		PayrollBuffer:          dec("800000"),
		TaxBuffer:              dec("400000"),
		VendorTierBuffers:      config.TierBuffers{Critical: dec("50000"), Regular: dec("10000")},
		OutflowShockMultiplier: dec("0.10"),
		RecognitionRatio:       dec("0.98"),
		ApprovalThreshold:      dec("500000"),
		EnforceCutoff:          false,
		CutoffHour:             14,
		Whitelist: []config.WhitelistEntry{
			{Instrument: "overnight_mmf", Issuer: "AAA Fund House", MaxAmount: dec("2000000"), MaxTenorDays: 1},
			{Instrument: "liquid_fund", Issuer: "AAA Fund House", MaxAmount: dec("1000000"), MaxTenorDays: 7},
		},
	}
}

func apItem(billID, vendorID string, tier feed.VendorTier) forecast.APItem {
	return forecast.APItem{
		Payable: feed.Payable{BillID: billID, CounterpartyID: vendorID, VendorTier: tier},
	}
}

func noon() time.Time {
	return time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)
}

func TestMustKeepCountsDistinctVendors(t *testing.T) {
	t.Parallel()

	// V1 has three open bills but contributes one critical buffer unit.
	apHorizon := []forecast.APItem{
		apItem("B1", "V1", feed.TierCritical),
		apItem("B2", "V1", feed.TierCritical),
		apItem("B3", "V1", feed.TierCritical),
		apItem("B4", "V2", feed.TierRegular),
		apItem("B5", "V3", ""), // missing tier defaults to regular
	}

	got := MustKeep(testPolicy(), dec("100000"), apHorizon)

	// 1500000 + 800000 + 400000 + 1*50000 + 2*10000 + 0.10*100000
	assert.Equal(t, "2780000.00", got.StringFixed(2))
}

func TestMustKeepAtLeastBaseBuffers(t *testing.T) {
	t.Parallel()

	got := MustKeep(testPolicy(), decimal.Zero, nil)
	assert.Equal(t, "2700000.00", got.StringFixed(2))
}

func TestDeployable(t *testing.T) {
	t.Parallel()

	got := Deployable(dec("3000000"), dec("1000000"), dec("2000000"), testPolicy())
	assert.Equal(t, "1980000.00", got.StringFixed(2))
}

func TestDeployableClampedAtZero(t *testing.T) {
	t.Parallel()

	got := Deployable(dec("1000000"), dec("0"), dec("2000000"), testPolicy())
	assert.True(t, got.IsZero())
	assert.False(t, got.IsNegative())
}

func TestProposeOrderWaterfall(t *testing.T) {
	t.Parallel()

	order, codes := ProposeOrder(dec("1500000"), testPolicy(), noon())

	assert.NotNil(t, order)
	assert.Equal(t, "overnight_mmf", order.Instrument)
	assert.Equal(t, "AAA Fund House", order.Issuer)
	assert.Equal(t, "1500000.00", order.Proposed.StringFixed(2))
	assert.True(t, order.NeedsApproval)
	assert.Equal(t, []string{ReasonFixedBuffers, ReasonOutflowShock, ReasonConservativeInflow, ReasonWhitelistOK, ReasonMakerChecker}, codes)
}

func TestProposeOrderCappedByInstrument(t *testing.T) {
	t.Parallel()

	p := testPolicy()
	p.Whitelist[0].MaxAmount = dec("600000")

	order, codes := ProposeOrder(dec("1500000"), p, noon())

	// The first instrument still wins but only up to its cap.
	assert.NotNil(t, order)
	assert.Equal(t, "overnight_mmf", order.Instrument)
	assert.Equal(t, "600000.00", order.Proposed.StringFixed(2))
	assert.Contains(t, codes, ReasonWhitelistOK)
}

func TestProposeOrderDeterministic(t *testing.T) {
	t.Parallel()

	p := testPolicy()
	for i := 0; i < 10; i++ {
		order, _ := ProposeOrder(dec("750000"), p, noon())
		assert.NotNil(t, order)
		assert.Equal(t, "overnight_mmf", order.Instrument)
		assert.Equal(t, "750000.00", order.Proposed.StringFixed(2))
	}
}

func TestProposeOrderNoSurplus(t *testing.T) {
	t.Parallel()

	order, codes := ProposeOrder(decimal.Zero, testPolicy(), noon())

	assert.Nil(t, order)
	assert.Equal(t, []string{ReasonFixedBuffers, ReasonOutflowShock, ReasonConservativeInflow, ReasonNoSurplus}, codes)
}

func TestProposeOrderCutoff(t *testing.T) {
	t.Parallel()

	p := testPolicy()
	p.EnforceCutoff = true
	late := time.Date(2025, 8, 30, 15, 30, 0, 0, time.UTC)

	order, codes := ProposeOrder(dec("100000"), p, late)
	assert.Nil(t, order)
	assert.Contains(t, codes, ReasonCutoffPassed)

	// Before the cutoff the order goes through.
	order, codes = ProposeOrder(dec("100000"), p, noon())
	assert.NotNil(t, order)
	assert.NotContains(t, codes, ReasonCutoffPassed)
}

func TestProposeOrderCutoffIgnoredWithoutSurplus(t *testing.T) {
	t.Parallel()

	p := testPolicy()
	p.EnforceCutoff = true
	late := time.Date(2025, 8, 30, 15, 30, 0, 0, time.UTC)

	_, codes := ProposeOrder(decimal.Zero, p, late)
	assert.Contains(t, codes, ReasonNoSurplus)
	assert.NotContains(t, codes, ReasonCutoffPassed)
}

func TestProposeOrderEmptyWhitelist(t *testing.T) {
	t.Parallel()

	p := testPolicy()
	p.Whitelist = nil

	order, codes := ProposeOrder(dec("100000"), p, noon())
	assert.Nil(t, order)
	assert.NotContains(t, codes, ReasonWhitelistOK)
}

func TestProposeOrderBelowApprovalThreshold(t *testing.T) {
	t.Parallel()

	order, codes := ProposeOrder(dec("100000"), testPolicy(), noon())

	assert.NotNil(t, order)
	assert.False(t, order.NeedsApproval)
	assert.NotContains(t, codes, ReasonMakerChecker)
}
