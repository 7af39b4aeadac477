package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/suraj93/autosweep/config"
	"github.com/suraj93/autosweep/feed"
	"github.com/suraj93/autosweep/perform"
	"github.com/suraj93/autosweep/policy"
)

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Run the daily sweep decision",
	Long: `Run the full decision pipeline over a data snapshot: forecast expected
cash flows, compute the must-keep reserve and deployable surplus, propose
an investment order via waterfall allocation, and write the decision
snapshot and execution record.

The data directory must contain bank_txns.csv, ar_invoices.csv and
ap_bills.csv plus the policy and model-parameter config files.

Example:
  autosweep decide --data ./data --as-of 2025-08-30 --horizon 7 --out ./out`,
	RunE: runDecide,
}

var (
	decideDataDir string
	decidePolicy  string
	decideModel   string
	decideAsOf    string
	decideHorizon int
	decideOut     string
)

func init() {
	rootCmd.AddCommand(decideCmd)

	decideCmd.Flags().StringVarP(&decideDataDir, "data", "d", "./data", "directory with bank_txns.csv, ar_invoices.csv, ap_bills.csv")
	decideCmd.Flags().StringVar(&decidePolicy, "policy", "", "policy file (default <data>/policy.json)")
	decideCmd.Flags().StringVar(&decideModel, "model", "", "model parameters file (default <data>/ar_ap_model_params.json)")
	decideCmd.Flags().StringVar(&decideAsOf, "as-of", "", "reference date YYYY-MM-DD (required)")
	decideCmd.Flags().IntVar(&decideHorizon, "horizon", 7, "forecast horizon in days")
	decideCmd.Flags().StringVarP(&decideOut, "out", "o", "./out", "output directory for decision artifacts")
	decideCmd.MarkFlagRequired("as-of")
}

func runDecide(cmd *cobra.Command, args []string) error {
	asOf, err := time.Parse("2006-01-02", decideAsOf)
	if err != nil {
		return fmt.Errorf("bad --as-of date: %w", err)
	}

	policyPath := decidePolicy
	if policyPath == "" {
		policyPath = filepath.Join(decideDataDir, "policy.json")
	}
	modelPath := decideModel
	if modelPath == "" {
		modelPath = filepath.Join(decideDataDir, "ar_ap_model_params.json")
	}

	settings, err := config.Load(policyPath, modelPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	bank, err := feed.LoadBank(filepath.Join(decideDataDir, "bank_txns.csv"))
	if err != nil {
		return fmt.Errorf("load bank transactions: %w", err)
	}
	ar, err := feed.LoadReceivables(filepath.Join(decideDataDir, "ar_invoices.csv"))
	if err != nil {
		return fmt.Errorf("load receivables: %w", err)
	}
	ap, err := feed.LoadPayables(filepath.Join(decideDataDir, "ap_bills.csv"))
	if err != nil {
		return fmt.Errorf("load payables: %w", err)
	}

	balance := feed.CurrentBalance(bank)

	// The cutoff rule is defined in IST regardless of where the batch runs.
	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		ist = time.FixedZone("IST", 5*3600+1800)
	}
	now := time.Now().In(ist)

	decision, err := policy.Decide(settings, ar, ap, balance, decideHorizon, asOf, now)
	if err != nil {
		return fmt.Errorf("decide: %w", err)
	}

	fmt.Printf("As of %s (horizon %d days)\n", decideAsOf, decideHorizon)
	fmt.Printf("  Balance:           %s\n", decision.Balance.StringFixed(2))
	fmt.Printf("  Expected inflows:  %s\n", decision.Forecast.ExpectedInflows.StringFixed(2))
	fmt.Printf("  Expected outflows: %s\n", decision.Forecast.ExpectedOutflows.StringFixed(2))
	fmt.Printf("  Must keep:         %s\n", decision.MustKeep.StringFixed(2))
	fmt.Printf("  Deployable:        %s\n", decision.Deployable.StringFixed(2))
	if decision.Order != nil {
		fmt.Printf("  Order: %s via %s / %s (approval needed: %v)\n",
			decision.Order.Proposed.StringFixed(2), decision.Order.Instrument,
			decision.Order.Issuer, decision.Order.NeedsApproval)
	} else {
		fmt.Println("  Order: none")
	}
	fmt.Printf("  Reasons: %v\n", decision.ReasonCodes)

	if err := perform.WriteSnapshot(decideOut, decision); err != nil {
		return err
	}
	rec := perform.NewRecord(decision, settings.Policy)
	if err := perform.WriteRecord(decideOut, rec); err != nil {
		return err
	}
	fmt.Printf("Wrote decision artifacts to %s (run %s)\n", decideOut, rec.RunID)
	return nil
}
