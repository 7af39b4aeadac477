package policy

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/suraj93/autosweep/config"
	"github.com/suraj93/autosweep/feed"
	"github.com/suraj93/autosweep/forecast"
)

// Decision is the full sweep decision snapshot for one run. It is
// produced fresh each run and never persisted by the engine itself;
// persistence is the recorder's job.
type Decision struct {
	ReferenceDate time.Time       `json:"reference_date"`
	HorizonDays   int             `json:"horizon_days"`
	Balance       decimal.Decimal `json:"current_balance"`
	Forecast      forecast.Result `json:"forecast"`
	MustKeep      decimal.Decimal `json:"must_keep"`
	Deployable    decimal.Decimal `json:"deployable"`
	Order         *Order          `json:"order"`
	ReasonCodes   []string        `json:"reason_codes"`
	Attribution   Attribution     `json:"attribution"`
}

// Decide runs the full decision path: forecast, reserve, surplus,
// waterfall proposal, attribution. asOf anchors the forecast windows;
// now supplies the wall clock for the cutoff rule. The engine is a pure
// function of these inputs and holds no state between runs.
func Decide(s *config.Settings, ar []feed.Receivable, ap []feed.Payable, balance decimal.Decimal, horizonDays int, asOf, now time.Time) (Decision, error) {
	f, err := forecast.Flows(ar, ap, horizonDays, asOf, s.Model)
	if err != nil {
		return Decision{}, err
	}

	mustKeep := MustKeep(s.Policy, f.ExpectedOutflows, f.APHorizon)
	deployable := Deployable(balance, f.ExpectedInflows, mustKeep, s.Policy)
	order, codes := ProposeOrder(deployable, s.Policy, now)

	return Decision{
		ReferenceDate: asOf,
		HorizonDays:   horizonDays,
		Balance:       balance,
		Forecast:      f,
		MustKeep:      mustKeep,
		Deployable:    deployable,
		Order:         order,
		ReasonCodes:   codes,
		Attribution:   Attribute(s.Policy, balance, f, deployable),
	}, nil
}
