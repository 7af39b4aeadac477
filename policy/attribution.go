package policy

import (
	"github.com/shopspring/decimal"
	"github.com/suraj93/autosweep/config"
	"github.com/suraj93/autosweep/forecast"
)

// Attribution restates the decision inputs as a disclosure-friendly
// breakdown. Every field is re-derivable from the other components'
// outputs; this structure carries no independent state or business rule.
type Attribution struct {
	CashFlows  CashFlowAttribution  `json:"cash_flows"`
	Buffers    BufferAttribution    `json:"safety_buffers"`
	Deployable DeployableDerivation `json:"deployable_calculation"`
}

// CashFlowAttribution separates face values from probability-weighted
// figures and isolates the delta attributable to the probability model.
type CashFlowAttribution struct {
	CurrentBalance       decimal.Decimal `json:"current_balance"`
	RawARReceivables     decimal.Decimal `json:"raw_ar_receivables"`
	RawAPPayables        decimal.Decimal `json:"raw_ap_payables"`
	RawNetPosition       decimal.Decimal `json:"raw_net_position"`
	ExpectedInflows      decimal.Decimal `json:"expected_inflows"`
	ExpectedOutflows     decimal.Decimal `json:"expected_outflows"`
	NetExpectedFlow      decimal.Decimal `json:"net_expected_flow"`
	ARProbabilityEffect  decimal.Decimal `json:"ar_probability_effect"`
	APProbabilityEffect  decimal.Decimal `json:"ap_probability_effect"`
	NetProbabilityEffect decimal.Decimal `json:"net_probability_effect"`
}

// BufferAttribution breaks the must-keep reserve into its components.
type BufferAttribution struct {
	TotalMustKeep decimal.Decimal   `json:"total_must_keep"`
	Base          BaseBuffers       `json:"base_buffers"`
	Vendor        VendorBuffers     `json:"vendor_buffers"`
	Shock         ShockBufferDetail `json:"shock_buffer"`
}

type BaseBuffers struct {
	OperatingCash decimal.Decimal `json:"operating_cash"`
	PayrollBuffer decimal.Decimal `json:"payroll_buffer"`
	TaxBuffer     decimal.Decimal `json:"tax_buffer"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

type VendorBuffers struct {
	CriticalVendors int             `json:"critical_vendors"`
	RegularVendors  int             `json:"regular_vendors"`
	CriticalBuffer  decimal.Decimal `json:"critical_buffer"`
	RegularBuffer   decimal.Decimal `json:"regular_buffer"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

type ShockBufferDetail struct {
	Multiplier       decimal.Decimal `json:"multiplier"`
	ExpectedOutflows decimal.Decimal `json:"expected_outflows"`
	BufferAmount     decimal.Decimal `json:"buffer_amount"`
}

// DeployableDerivation records each step from balance to the final
// clamped deployable amount.
type DeployableDerivation struct {
	AvailableBalance  decimal.Decimal `json:"available_balance"`
	RecognitionRatio  decimal.Decimal `json:"recognition_ratio"`
	RecognizedInflows decimal.Decimal `json:"recognized_inflows"`
	TotalAvailable    decimal.Decimal `json:"total_available"`
	LessMustKeep      decimal.Decimal `json:"less_must_keep"`
	DeployableAmount  decimal.Decimal `json:"deployable_amount"`
}

// Attribute builds the full attribution tree from the forecast result,
// the policy, and the already-computed deployable amount.
func Attribute(p config.Policy, balance decimal.Decimal, f forecast.Result, deployable decimal.Decimal) Attribution {
	critical, regular := vendorCounts(f.APHorizon)
	criticalBuf := p.VendorTierBuffers.Critical.Mul(decimal.NewFromInt(int64(critical)))
	regularBuf := p.VendorTierBuffers.Regular.Mul(decimal.NewFromInt(int64(regular)))
	vendorSubtotal := criticalBuf.Add(regularBuf)

	baseSubtotal := p.MinOperatingCash.Add(p.PayrollBuffer).Add(p.TaxBuffer)
	shock := p.OutflowShockMultiplier.Mul(f.ExpectedOutflows)
	totalMustKeep := baseSubtotal.Add(vendorSubtotal).Add(shock)

	recognized := p.RecognitionRatio.Mul(f.ExpectedInflows)

	arEffect := f.OpenReceivables.Sub(f.ExpectedInflows)
	apEffect := f.OpenPayables.Sub(f.ExpectedOutflows)

	return Attribution{
		CashFlows: CashFlowAttribution{
			CurrentBalance:       balance.Round(2),
			RawARReceivables:     f.OpenReceivables.Round(2),
			RawAPPayables:        f.OpenPayables.Round(2),
			RawNetPosition:       f.OpenReceivables.Sub(f.OpenPayables).Round(2),
			ExpectedInflows:      f.ExpectedInflows.Round(2),
			ExpectedOutflows:     f.ExpectedOutflows.Round(2),
			NetExpectedFlow:      f.ExpectedInflows.Sub(f.ExpectedOutflows).Round(2),
			ARProbabilityEffect:  arEffect.Round(2),
			APProbabilityEffect:  apEffect.Round(2),
			NetProbabilityEffect: arEffect.Sub(apEffect).Round(2),
		},
		Buffers: BufferAttribution{
			TotalMustKeep: totalMustKeep.Round(2),
			Base: BaseBuffers{
				OperatingCash: p.MinOperatingCash,
				PayrollBuffer: p.PayrollBuffer,
				TaxBuffer:     p.TaxBuffer,
				Subtotal:      baseSubtotal.Round(2),
			},
			Vendor: VendorBuffers{
				CriticalVendors: critical,
				RegularVendors:  regular,
				CriticalBuffer:  criticalBuf,
				RegularBuffer:   regularBuf,
				Subtotal:        vendorSubtotal.Round(2),
			},
			Shock: ShockBufferDetail{
				Multiplier:       p.OutflowShockMultiplier,
				ExpectedOutflows: f.ExpectedOutflows.Round(2),
				BufferAmount:     shock.Round(2),
			},
		},
		Deployable: DeployableDerivation{
			AvailableBalance:  balance.Round(2),
			RecognitionRatio:  p.RecognitionRatio,
			RecognizedInflows: recognized.Round(2),
			TotalAvailable:    balance.Add(recognized).Round(2),
			LessMustKeep:      totalMustKeep.Round(2),
			DeployableAmount:  deployable.Round(2),
		},
	}
}
