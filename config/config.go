package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Settings is the complete engine configuration: the treasury policy and
// the AR/AP model parameters. Loaded once per run and never mutated.
type Settings struct {
	Policy Policy      `json:"policy" yaml:"policy"`
	Model  ModelParams `json:"model_params" yaml:"model_params"`
}

// Policy holds the reserve and allocation rules.
type Policy struct {
	MinOperatingCash       decimal.Decimal  `json:"min_operating_cash" yaml:"min_operating_cash"`
	PayrollBuffer          decimal.Decimal  `json:"payroll_buffer" yaml:"payroll_buffer"`
	TaxBuffer              decimal.Decimal  `json:"tax_buffer" yaml:"tax_buffer"`
	VendorTierBuffers      TierBuffers      `json:"vendor_tier_buffers" yaml:"vendor_tier_buffers"`
	OutflowShockMultiplier decimal.Decimal  `json:"outflow_shock_multiplier" yaml:"outflow_shock_multiplier"`
	RecognitionRatio       decimal.Decimal  `json:"recognition_ratio" yaml:"recognition_ratio"`
	ApprovalThreshold      decimal.Decimal  `json:"approval_threshold" yaml:"approval_threshold"`
	EnforceCutoff          bool             `json:"enforce_cutoff" yaml:"enforce_cutoff"`
	CutoffHour             int              `json:"cutoff_hour" yaml:"cutoff_hour"`
	Whitelist              []WhitelistEntry `json:"whitelist" yaml:"whitelist"`
}

// TierBuffers is the per-distinct-vendor reserve amount by tier.
type TierBuffers struct {
	Critical decimal.Decimal `json:"critical" yaml:"critical"`
	Regular  decimal.Decimal `json:"regular" yaml:"regular"`
}

// WhitelistEntry is one instrument in the allocation waterfall. The slice
// order in the config file is the allocation priority order.
type WhitelistEntry struct {
	Instrument   string          `json:"instrument" yaml:"instrument"`
	Issuer       string          `json:"issuer" yaml:"issuer"`
	MaxAmount    decimal.Decimal `json:"max_amount" yaml:"max_amount"`
	MaxTenorDays int             `json:"max_tenor_days" yaml:"max_tenor_days"`
}

// ModelParams holds the probability tables and the provision window.
type ModelParams struct {
	ARProbs       ARProbs `json:"ar_collection_probs" yaml:"ar_collection_probs"`
	APProbs       APProbs `json:"ap_payment_probs" yaml:"ap_payment_probs"`
	ProvisionDays int     `json:"ap_provision_days" yaml:"ap_provision_days"`
}

// ARProbs is the collection probability per days-to-due bucket. All four
// values are required; there are no defaults.
type ARProbs struct {
	Overdue      decimal.Decimal `json:"overdue" yaml:"overdue"`
	Within7Days  decimal.Decimal `json:"within_7_days" yaml:"within_7_days"`
	Within14Days decimal.Decimal `json:"within_14_days" yaml:"within_14_days"`
	Beyond14Days decimal.Decimal `json:"beyond_14_days" yaml:"beyond_14_days"`
}

// APProbs is the payment probability per provision tier. BeyondProvision
// is applied defensively even though the provision filter makes it
// unreachable.
type APProbs struct {
	Overdue                      decimal.Decimal `json:"overdue" yaml:"overdue"`
	WithinHorizon                decimal.Decimal `json:"within_horizon" yaml:"within_horizon"`
	BeyondHorizonWithinProvision decimal.Decimal `json:"beyond_horizon_within_provision" yaml:"beyond_horizon_within_provision"`
	BeyondProvision              decimal.Decimal `json:"beyond_provision" yaml:"beyond_provision"`
}

// policyRequiredKeys and modelRequiredKeys are the config keys a file
// must carry explicitly. A missing key is a configuration error, never a
// silent zero default: a zero probability or buffer passes the range
// checks but means something very different from an absent one.
var (
	policyRequiredKeys = []string{
		"min_operating_cash",
		"payroll_buffer",
		"tax_buffer",
		"vendor_tier_buffers.critical",
		"vendor_tier_buffers.regular",
		"outflow_shock_multiplier",
		"recognition_ratio",
		"approval_threshold",
	}
	modelRequiredKeys = []string{
		"ar_collection_probs.overdue",
		"ar_collection_probs.within_7_days",
		"ar_collection_probs.within_14_days",
		"ar_collection_probs.beyond_14_days",
		"ap_payment_probs.overdue",
		"ap_payment_probs.within_horizon",
		"ap_payment_probs.beyond_horizon_within_provision",
		"ap_payment_probs.beyond_provision",
		"ap_provision_days",
	}
)

// Load reads the policy and model-parameter files into one Settings.
// Both files are required; a missing file is fatal to the run.
func Load(policyPath, modelPath string) (*Settings, error) {
	s := &Settings{}
	if err := loadInto(policyPath, &s.Policy, policyRequiredKeys); err != nil {
		return nil, err
	}
	if err := loadInto(modelPath, &s.Model, modelRequiredKeys); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return s, nil
}

// LoadFromFile loads a combined settings file (JSON or YAML).
func LoadFromFile(path string) (*Settings, error) {
	var required []string
	for _, k := range policyRequiredKeys {
		required = append(required, "policy."+k)
	}
	for _, k := range modelRequiredKeys {
		required = append(required, "model_params."+k)
	}

	s := &Settings{}
	if err := loadInto(path, s, required); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return s, nil
}

func loadInto(path string, v any, required []string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// Try YAML first, fall back to JSON
	if yerr := yaml.Unmarshal(data, v); yerr != nil {
		if jerr := json.Unmarshal(data, v); jerr != nil {
			return fmt.Errorf("parse %s (tried YAML and JSON): %w", path, jerr)
		}
	}
	return checkRequiredKeys(path, data, required)
}

// checkRequiredKeys re-parses the raw document as a generic map and
// verifies every required key path is present. Struct unmarshalling
// cannot distinguish an absent key from an explicit zero, so presence
// has to be checked against the document itself.
func checkRequiredKeys(path string, data []byte, required []string) error {
	var doc map[string]any
	if yerr := yaml.Unmarshal(data, &doc); yerr != nil {
		if jerr := json.Unmarshal(data, &doc); jerr != nil {
			return fmt.Errorf("parse %s (tried YAML and JSON): %w", path, jerr)
		}
	}

	var missing []string
	for _, key := range required {
		if !hasKey(doc, key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing required keys %v", path, missing)
	}
	return nil
}

func hasKey(doc map[string]any, path string) bool {
	cur := any(doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return false
		}
		if cur, ok = m[part]; !ok {
			return false
		}
	}
	return true
}

// SaveToFile saves the settings to a file (JSON or YAML based on extension).
func (s *Settings) SaveToFile(path string) error {
	var data []byte
	var err error

	if (len(path) > 5 && path[len(path)-5:] == ".yaml") || (len(path) > 4 && path[len(path)-4:] == ".yml") {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the whole configuration at load time so consumers can
// read typed fields without call-site defaults.
func (s *Settings) Validate() error {
	if err := s.Policy.Validate(); err != nil {
		return err
	}
	return s.Model.Validate()
}

// Validate checks the policy fields.
func (p *Policy) Validate() error {
	for _, f := range []struct {
		name string
		v    decimal.Decimal
	}{
		{"min_operating_cash", p.MinOperatingCash},
		{"payroll_buffer", p.PayrollBuffer},
		{"tax_buffer", p.TaxBuffer},
		{"vendor_tier_buffers.critical", p.VendorTierBuffers.Critical},
		{"vendor_tier_buffers.regular", p.VendorTierBuffers.Regular},
		{"outflow_shock_multiplier", p.OutflowShockMultiplier},
		{"approval_threshold", p.ApprovalThreshold},
	} {
		if f.v.IsNegative() {
			return fmt.Errorf("%s must not be negative", f.name)
		}
	}
	if err := ratio("recognition_ratio", p.RecognitionRatio); err != nil {
		return err
	}
	if p.CutoffHour < 0 || p.CutoffHour > 23 {
		return fmt.Errorf("cutoff_hour must be between 0 and 23, got %d", p.CutoffHour)
	}
	for i, wl := range p.Whitelist {
		if wl.Instrument == "" {
			return fmt.Errorf("whitelist[%d].instrument is required", i)
		}
		if wl.Issuer == "" {
			return fmt.Errorf("whitelist[%d].issuer is required", i)
		}
		if !wl.MaxAmount.IsPositive() {
			return fmt.Errorf("whitelist[%d].max_amount must be positive", i)
		}
		if wl.MaxTenorDays <= 0 {
			return fmt.Errorf("whitelist[%d].max_tenor_days must be positive", i)
		}
	}
	return nil
}

// Validate checks the model parameters.
func (m *ModelParams) Validate() error {
	if m.ProvisionDays < 1 {
		return fmt.Errorf("ap_provision_days must be at least 1, got %d", m.ProvisionDays)
	}
	for _, f := range []struct {
		name string
		v    decimal.Decimal
	}{
		{"ar_collection_probs.overdue", m.ARProbs.Overdue},
		{"ar_collection_probs.within_7_days", m.ARProbs.Within7Days},
		{"ar_collection_probs.within_14_days", m.ARProbs.Within14Days},
		{"ar_collection_probs.beyond_14_days", m.ARProbs.Beyond14Days},
		{"ap_payment_probs.overdue", m.APProbs.Overdue},
		{"ap_payment_probs.within_horizon", m.APProbs.WithinHorizon},
		{"ap_payment_probs.beyond_horizon_within_provision", m.APProbs.BeyondHorizonWithinProvision},
		{"ap_payment_probs.beyond_provision", m.APProbs.BeyondProvision},
	} {
		if err := ratio(f.name, f.v); err != nil {
			return err
		}
	}
	return nil
}

func ratio(name string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be between 0 and 1, got %s", name, v)
	}
	return nil
}

// Default returns a configuration with sensible demo values.
func Default() *Settings {
	return &Settings{
		Policy: Policy{
			MinOperatingCash:       decimal.NewFromInt(1_500_000),
			PayrollBuffer:          decimal.NewFromInt(800_000),
			TaxBuffer:              decimal.NewFromInt(400_000),
			VendorTierBuffers:      TierBuffers{Critical: decimal.NewFromInt(50_000), Regular: decimal.NewFromInt(10_000)},
			OutflowShockMultiplier: decimal.NewFromFloat(0.10),
			RecognitionRatio:       decimal.NewFromFloat(0.40),
			ApprovalThreshold:      decimal.NewFromInt(500_000),
			EnforceCutoff:          false,
			CutoffHour:             14,
			Whitelist: []WhitelistEntry{
				{Instrument: "overnight_mmf", Issuer: "AAA Fund House", MaxAmount: decimal.NewFromInt(2_000_000), MaxTenorDays: 1},
				{Instrument: "liquid_fund", Issuer: "AAA Fund House", MaxAmount: decimal.NewFromInt(1_000_000), MaxTenorDays: 7},
			},
		},
		Model: ModelParams{
			ARProbs: ARProbs{
				Overdue:      decimal.NewFromFloat(0.85),
				Within7Days:  decimal.NewFromFloat(0.70),
				Within14Days: decimal.NewFromFloat(0.50),
				Beyond14Days: decimal.NewFromFloat(0.30),
			},
			APProbs: APProbs{
				Overdue:                      decimal.NewFromInt(1),
				WithinHorizon:                decimal.NewFromInt(1),
				BeyondHorizonWithinProvision: decimal.NewFromFloat(0.90),
				BeyondProvision:              decimal.Zero,
			},
			ProvisionDays: 14,
		},
	}
}
