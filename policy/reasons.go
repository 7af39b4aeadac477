package policy

// Reason codes attached to every sweep decision. The first three describe
// the method and are always emitted; the rest describe the outcome.
const (
	ReasonFixedBuffers       = "FIXED_BUFFERS"
	ReasonOutflowShock       = "OUTFLOW_SHOCK"
	ReasonConservativeInflow = "CONSERVATIVE_INFLOW"
	ReasonWhitelistOK        = "WL_OK"
	ReasonCutoffPassed       = "CUTOFF_PASSED"
	ReasonMakerChecker       = "MAKER_CHECKER"
	ReasonNoSurplus          = "NO_SURPLUS"
)

// Reasons maps each code to its disclosure wording.
var Reasons = map[string]string{
	ReasonFixedBuffers:       "applied operating + payroll + tax + vendor tier buffers",
	ReasonOutflowShock:       "applied outflow shock multiplier to horizon outflows",
	ReasonConservativeInflow: "recognized only a fraction of expected inflows pre-settlement",
	ReasonWhitelistOK:        "instrument/issuer within whitelist & caps",
	ReasonCutoffPassed:       "suppressed order due to market cutoff",
	ReasonMakerChecker:       "amount >= approval threshold",
	ReasonNoSurplus:          "deployable <= 0",
}
