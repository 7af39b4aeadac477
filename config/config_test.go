package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	s := Default()
	assert.NoError(t, s.Validate())
	assert.Len(t, s.Policy.Whitelist, 2)
	assert.Equal(t, "overnight_mmf", s.Policy.Whitelist[0].Instrument)
}

func TestLoadYAMLPolicyAndModel(t *testing.T) {
	t.Parallel()

	policyPath := writeConfig(t, "policy.yaml", `
min_operating_cash: 1500000
payroll_buffer: 800000
tax_buffer: 400000
vendor_tier_buffers:
  critical: 50000
  regular: 10000
outflow_shock_multiplier: 0.10
recognition_ratio: 0.40
approval_threshold: 500000
enforce_cutoff: true
cutoff_hour: 14
whitelist:
  - instrument: overnight_mmf
    issuer: AAA Fund House
    max_amount: 2000000
    max_tenor_days: 1
`)
	modelPath := writeConfig(t, "model.yaml", `
ar_collection_probs:
  overdue: 0.85
  within_7_days: 0.70
  within_14_days: 0.50
  beyond_14_days: 0.30
ap_payment_probs:
  overdue: 1.0
  within_horizon: 1.0
  beyond_horizon_within_provision: 0.90
  beyond_provision: 0.0
ap_provision_days: 14
`)

	s, err := Load(policyPath, modelPath)
	assert.NoError(t, err)
	assert.Equal(t, "1500000", s.Policy.MinOperatingCash.String())
	assert.Equal(t, "0.4", s.Policy.RecognitionRatio.String())
	assert.True(t, s.Policy.EnforceCutoff)
	assert.Equal(t, 14, s.Model.ProvisionDays)
	assert.Equal(t, "0.9", s.Model.APProbs.BeyondHorizonWithinProvision.String())
}

func TestLoadFromFileJSON(t *testing.T) {
	t.Parallel()

	s := Default()
	path := filepath.Join(t.TempDir(), "settings.json")
	assert.NoError(t, s.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	assert.NoError(t, err)
	assert.True(t, loaded.Policy.MinOperatingCash.Equal(s.Policy.MinOperatingCash))
	assert.True(t, loaded.Model.ARProbs.Overdue.Equal(s.Model.ARProbs.Overdue))
	assert.Equal(t, s.Policy.Whitelist, loaded.Policy.Whitelist)
}

func TestSaveLoadRoundTripYAML(t *testing.T) {
	t.Parallel()

	s := Default()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	assert.NoError(t, s.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	assert.NoError(t, err)
	assert.True(t, loaded.Policy.RecognitionRatio.Equal(s.Policy.RecognitionRatio))
	assert.Equal(t, s.Model.ProvisionDays, loaded.Model.ProvisionDays)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"negative buffer", func(s *Settings) { s.Policy.PayrollBuffer = decimal.NewFromInt(-1) }},
		{"recognition ratio above one", func(s *Settings) { s.Policy.RecognitionRatio = decimal.NewFromFloat(1.5) }},
		{"negative recognition ratio", func(s *Settings) { s.Policy.RecognitionRatio = decimal.NewFromFloat(-0.1) }},
		{"cutoff hour out of range", func(s *Settings) { s.Policy.CutoffHour = 24 }},
		{"whitelist missing instrument", func(s *Settings) { s.Policy.Whitelist[0].Instrument = "" }},
		{"whitelist zero cap", func(s *Settings) { s.Policy.Whitelist[0].MaxAmount = decimal.Zero }},
		{"whitelist zero tenor", func(s *Settings) { s.Policy.Whitelist[0].MaxTenorDays = 0 }},
		{"ar prob above one", func(s *Settings) { s.Model.ARProbs.Within7Days = decimal.NewFromFloat(1.2) }},
		{"ap prob negative", func(s *Settings) { s.Model.APProbs.Overdue = decimal.NewFromFloat(-0.5) }},
		{"zero provision days", func(s *Settings) { s.Model.ProvisionDays = 0 }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := Default()
			tc.mutate(s)
			assert.Error(t, s.Validate())
		})
	}
}

const validPolicyYAML = `
min_operating_cash: 1500000
payroll_buffer: 800000
tax_buffer: 400000
vendor_tier_buffers:
  critical: 50000
  regular: 10000
outflow_shock_multiplier: 0.10
recognition_ratio: 0.40
approval_threshold: 500000
`

const validModelYAML = `
ar_collection_probs:
  overdue: 0.85
  within_7_days: 0.70
  within_14_days: 0.50
  beyond_14_days: 0.30
ap_payment_probs:
  overdue: 1.0
  within_horizon: 1.0
  beyond_horizon_within_provision: 0.90
  beyond_provision: 0.0
ap_provision_days: 14
`

func TestLoadRejectsMissingModelKeys(t *testing.T) {
	t.Parallel()

	policyPath := writeConfig(t, "policy.yaml", validPolicyYAML)

	// A model file with no probability tables must not load as all-zero
	// probabilities: that would zero expected outflows and inflate the
	// deployable surplus.
	modelPath := writeConfig(t, "model.json", `{"ap_provision_days": 14}`)

	_, err := Load(policyPath, modelPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing required keys")
	assert.Contains(t, err.Error(), "ar_collection_probs.overdue")
	assert.Contains(t, err.Error(), "ap_payment_probs.within_horizon")
}

func TestLoadRejectsMissingPolicyKeys(t *testing.T) {
	t.Parallel()

	policyPath := writeConfig(t, "policy.yaml", `
min_operating_cash: 1500000
payroll_buffer: 800000
tax_buffer: 400000
vendor_tier_buffers:
  critical: 50000
  regular: 10000
outflow_shock_multiplier: 0.10
approval_threshold: 500000
`)
	modelPath := writeConfig(t, "model.yaml", validModelYAML)

	_, err := Load(policyPath, modelPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "recognition_ratio")
}

func TestLoadFromFileRejectsMissingKeys(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "settings.yaml", `
policy:
  min_operating_cash: 1500000
model_params:
  ap_provision_days: 14
`)

	_, err := LoadFromFile(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "policy.recognition_ratio")
	assert.Contains(t, err.Error(), "model_params.ar_collection_probs.overdue")
}

func TestExplicitZeroKeyIsNotMissing(t *testing.T) {
	t.Parallel()

	// An explicit zero is a legitimate value; only absence is an error.
	policyPath := writeConfig(t, "policy.yaml", `
min_operating_cash: 1500000
payroll_buffer: 800000
tax_buffer: 0
vendor_tier_buffers:
  critical: 50000
  regular: 10000
outflow_shock_multiplier: 0.10
recognition_ratio: 0.40
approval_threshold: 500000
`)
	modelPath := writeConfig(t, "model.yaml", validModelYAML)

	loaded, err := Load(policyPath, modelPath)
	assert.NoError(t, err)
	assert.True(t, loaded.Policy.TaxBuffer.IsZero())
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	s := Default()
	s.Policy.CutoffHour = 99
	path := filepath.Join(t.TempDir(), "bad.json")
	assert.NoError(t, s.SaveToFile(path))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}
