package forecast

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/suraj93/autosweep/config"
	"github.com/suraj93/autosweep/feed"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testModel() config.ModelParams {
	return config.ModelParams{
		ARProbs: config.ARProbs{
			Overdue:      dec("0.85"),
			Within7Days:  dec("0.70"),
			Within14Days: dec("0.50"),
			Beyond14Days: dec("0.30"),
		},
		APProbs: config.APProbs{
			Overdue:                      dec("1"),
			WithinHorizon:                dec("1"),
			BeyondHorizonWithinProvision: dec("0.90"),
			BeyondProvision:              dec("0"),
		},
		ProvisionDays: 14,
	}
}

func TestCollectionProbabilityBuckets(t *testing.T) {
	t.Parallel()

	probs := testModel().ARProbs

	assert.Equal(t, "0.85", CollectionProbability(-3, probs).String())
	assert.Equal(t, "0.7", CollectionProbability(0, probs).String())
	assert.Equal(t, "0.7", CollectionProbability(7, probs).String())
	assert.Equal(t, "0.5", CollectionProbability(8, probs).String())
	assert.Equal(t, "0.5", CollectionProbability(14, probs).String())
	assert.Equal(t, "0.3", CollectionProbability(15, probs).String())
}

func TestPaymentProbabilityTiers(t *testing.T) {
	t.Parallel()

	probs := testModel().APProbs

	assert.Equal(t, "1", PaymentProbability(-1, 7, 14, probs).String())
	assert.Equal(t, "1", PaymentProbability(7, 7, 14, probs).String())
	assert.Equal(t, "0.9", PaymentProbability(8, 7, 14, probs).String())
	assert.Equal(t, "0.9", PaymentProbability(14, 7, 14, probs).String())
	assert.Equal(t, "0", PaymentProbability(15, 7, 14, probs).String())
}

func TestFlowsExpectedInflow(t *testing.T) {
	t.Parallel()

	asOf := day(2025, 8, 30)
	ar := []feed.Receivable{
		{InvoiceID: "INV-1", CounterpartyID: "C1", DueDate: asOf, Amount: dec("200000"), Status: feed.StatusOpen},
	}

	res, err := Flows(ar, nil, 7, asOf, testModel())
	assert.NoError(t, err)

	assert.Len(t, res.ARHorizon, 1)
	assert.Equal(t, 0, res.ARHorizon[0].DaysToDue)
	assert.Equal(t, "0.7", res.ARHorizon[0].PaymentProbability.String())
	assert.Equal(t, "140000.00", res.ARHorizon[0].ExpectedAmount.StringFixed(2))
	assert.Equal(t, "140000.00", res.ExpectedInflows.StringFixed(2))
	assert.Equal(t, "200000.00", res.OpenReceivables.StringFixed(2))
}

func TestFlowsOverdueIncludedPaidDropped(t *testing.T) {
	t.Parallel()

	asOf := day(2025, 8, 30)
	ar := []feed.Receivable{
		{InvoiceID: "INV-1", DueDate: day(2025, 8, 20), Amount: dec("100000"), Status: feed.StatusOpen},
		{InvoiceID: "INV-2", DueDate: day(2025, 8, 31), Amount: dec("100000"), Status: feed.StatusPaid},
		{InvoiceID: "INV-3", DueDate: day(2025, 9, 20), Amount: dec("100000"), Status: feed.StatusOpen},
	}

	res, err := Flows(ar, nil, 7, asOf, testModel())
	assert.NoError(t, err)

	// Only the overdue open invoice is in scope: paid items vanish
	// entirely and the far-future one is past the horizon.
	assert.Len(t, res.ARHorizon, 1)
	assert.Equal(t, "INV-1", res.ARHorizon[0].InvoiceID)
	assert.Equal(t, "85000.00", res.ExpectedInflows.StringFixed(2))
	assert.Equal(t, "100000.00", res.OpenReceivables.StringFixed(2))
}

func TestFlowsProvisionWindowAsymmetry(t *testing.T) {
	t.Parallel()

	asOf := day(2025, 8, 30)
	ap := []feed.Payable{
		// Due in 11 days: beyond the 7-day horizon, within the 14-day provision.
		{BillID: "BILL-1", CounterpartyID: "V1", VendorTier: feed.TierRegular,
			DueDate: day(2025, 9, 10), Amount: dec("50000"), Status: feed.StatusOpen},
	}

	res, err := Flows(nil, ap, 7, asOf, testModel())
	assert.NoError(t, err)

	assert.Equal(t, "45000.00", res.ExpectedOutflows.StringFixed(2))
	assert.Equal(t, "0.00", res.OpenPayables.StringFixed(2))
	assert.Len(t, res.APProvision, 1)
	assert.Empty(t, res.APHorizon)
}

func TestFlowsOutflowScopes(t *testing.T) {
	t.Parallel()

	asOf := day(2025, 8, 30)
	ap := []feed.Payable{
		{BillID: "B1", CounterpartyID: "V1", VendorTier: feed.TierCritical,
			DueDate: day(2025, 8, 28), Amount: dec("10000"), Status: feed.StatusOpen}, // overdue
		{BillID: "B2", CounterpartyID: "V2", VendorTier: feed.TierRegular,
			DueDate: day(2025, 9, 2), Amount: dec("20000"), Status: feed.StatusOpen}, // within horizon
		{BillID: "B3", CounterpartyID: "V3", VendorTier: feed.TierRegular,
			DueDate: day(2025, 9, 12), Amount: dec("30000"), Status: feed.StatusOpen}, // provision only
		{BillID: "B4", CounterpartyID: "V4", VendorTier: feed.TierRegular,
			DueDate: day(2025, 9, 20), Amount: dec("40000"), Status: feed.StatusOpen}, // beyond provision
	}

	res, err := Flows(nil, ap, 7, asOf, testModel())
	assert.NoError(t, err)

	// 10000*1 + 20000*1 + 30000*0.9; B4 filtered out entirely.
	assert.Equal(t, "57000.00", res.ExpectedOutflows.StringFixed(2))
	// Face value covers the horizon subset only.
	assert.Equal(t, "30000.00", res.OpenPayables.StringFixed(2))
	assert.Len(t, res.APProvision, 3)
	assert.Len(t, res.APHorizon, 2)
}

func TestFlowsHorizonValidation(t *testing.T) {
	t.Parallel()

	asOf := day(2025, 8, 30)

	for _, horizon := range []int{0, -1, 366} {
		_, err := Flows(nil, nil, horizon, asOf, testModel())
		assert.ErrorIs(t, err, ErrValidation)
	}

	_, err := Flows(nil, nil, 365, asOf, testModel())
	assert.NoError(t, err)
}

func TestFlowsRejectsBadModelParams(t *testing.T) {
	t.Parallel()

	m := testModel()
	m.ARProbs.Within7Days = dec("1.5")

	_, err := Flows(nil, nil, 7, day(2025, 8, 30), m)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFlowsRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	ar := []feed.Receivable{
		{InvoiceID: "INV-1", DueDate: day(2025, 9, 1), Amount: dec("1000"), Status: feed.Status("pending")},
	}

	_, err := Flows(ar, nil, 7, day(2025, 8, 30), testModel())
	assert.ErrorIs(t, err, ErrValidation)
}
