package cmd

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/suraj93/autosweep/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Manage the holdings accrual ledger",
	Long: `Operate on the SQLite holdings ledger: seed and mutate holdings, post
daily interest accruals, and query totals and attribution.

Examples:
  autosweep ledger seed --csv holdings.csv
  autosweep ledger allocate overnight_mmf "AAA Fund House" 250000
  autosweep ledger redeem 100000 --selection oldest_first
  autosweep ledger accrue 2025-08-30
  autosweep ledger attribution 2025-01-01 2025-08-30`,
}

var (
	ledgerDBPath    string
	seedCSVPath     string
	seedUpdate      bool
	redeemSelection string
)

var ledgerSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load holdings from a CSV seed file",
	Args:  cobra.NoArgs,
	RunE:  runLedgerSeed,
}

var ledgerClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all holdings and accrual postings",
	Args:  cobra.NoArgs,
	RunE:  runLedgerClear,
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all holdings",
	Args:  cobra.NoArgs,
	RunE:  runLedgerList,
}

var ledgerTotalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Show total corpus and daily interest",
	Args:  cobra.NoArgs,
	RunE:  runLedgerTotals,
}

var ledgerAllocateCmd = &cobra.Command{
	Use:   "allocate <instrument> <issuer> <amount>",
	Short: "Add principal to a holding (amount in rupees)",
	Args:  cobra.ExactArgs(3),
	RunE:  runLedgerAllocate,
}

var ledgerRedeemCmd = &cobra.Command{
	Use:   "redeem <amount>",
	Short: "Redeem principal across holdings (amount in rupees)",
	Args:  cobra.ExactArgs(1),
	RunE:  runLedgerRedeem,
}

var ledgerAccrueCmd = &cobra.Command{
	Use:   "accrue <YYYY-MM-DD>",
	Short: "Post daily interest accruals for a date",
	Args:  cobra.ExactArgs(1),
	RunE:  runLedgerAccrue,
}

var ledgerSeriesCmd = &cobra.Command{
	Use:   "series <start> <end>",
	Short: "Daily accrued-interest series for a date range",
	Args:  cobra.ExactArgs(2),
	RunE:  runLedgerSeries,
}

var ledgerYTDCmd = &cobra.Command{
	Use:   "ytd <year>",
	Short: "Year-to-date accrual totals",
	Args:  cobra.ExactArgs(1),
	RunE:  runLedgerYTD,
}

var ledgerAttributionCmd = &cobra.Command{
	Use:   "attribution <start> <end>",
	Short: "Interest attribution by instrument and issuer",
	Args:  cobra.ExactArgs(2),
	RunE:  runLedgerAttribution,
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerSeedCmd)
	ledgerCmd.AddCommand(ledgerClearCmd)
	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerTotalsCmd)
	ledgerCmd.AddCommand(ledgerAllocateCmd)
	ledgerCmd.AddCommand(ledgerRedeemCmd)
	ledgerCmd.AddCommand(ledgerAccrueCmd)
	ledgerCmd.AddCommand(ledgerSeriesCmd)
	ledgerCmd.AddCommand(ledgerYTDCmd)
	ledgerCmd.AddCommand(ledgerAttributionCmd)

	ledgerCmd.PersistentFlags().StringVarP(&ledgerDBPath, "db", "d", "./treasury.db", "path to SQLite ledger DB")
	ledgerSeedCmd.Flags().StringVar(&seedCSVPath, "csv", "", "seed CSV file (required)")
	ledgerSeedCmd.Flags().BoolVar(&seedUpdate, "update", false, "add to existing holdings instead of overwriting")
	ledgerSeedCmd.MarkFlagRequired("csv")
	ledgerRedeemCmd.Flags().StringVar(&redeemSelection, "selection", string(ledger.MostRecentFirst), "most_recent_first or oldest_first")
}

func openLedger() (*ledger.Ledger, error) {
	l, err := ledger.Open(ledgerDBPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return l, nil
}

func runLedgerSeed(cmd *cobra.Command, args []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	res, err := l.SeedCSV(seedCSVPath, !seedUpdate)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d holdings (%d skipped)\n", res.Inserted, res.Skipped)
	if res.Cleared != nil {
		fmt.Printf("Cleared %d holdings and %d accruals first\n", res.Cleared.HoldingsDeleted, res.Cleared.AccrualsDeleted)
	}
	return nil
}

func runLedgerClear(cmd *cobra.Command, args []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	res, err := l.Clear()
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d holdings and %d accrual postings\n", res.HoldingsDeleted, res.AccrualsDeleted)
	return nil
}

func runLedgerList(cmd *cobra.Command, args []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	holdings, err := l.List()
	if err != nil {
		return err
	}
	for _, h := range holdings {
		fmt.Printf("%-20s %-24s amount %12s  rate %5dbps  daily %8s\n",
			h.InstrumentName, h.Issuer,
			ledger.ToMajor(h.AmountPaise).StringFixed(2),
			h.RateBps,
			ledger.ToMajor(h.DailyInterestPaise).StringFixed(2))
	}
	fmt.Printf("%d holdings\n", len(holdings))
	return nil
}

func runLedgerTotals(cmd *cobra.Command, args []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	t, err := l.Totals()
	if err != nil {
		return err
	}
	fmt.Printf("Corpus:         %s\n", ledger.ToMajor(t.CorpusPaise).StringFixed(2))
	fmt.Printf("Daily interest: %s\n", ledger.ToMajor(t.DailyInterestPaise).StringFixed(2))
	fmt.Printf("Holdings:       %d\n", t.HoldingsCount)
	return nil
}

func runLedgerAllocate(cmd *cobra.Command, args []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	amount, err := decimal.NewFromString(args[2])
	if err != nil {
		return fmt.Errorf("bad amount %q: %w", args[2], err)
	}

	res, err := l.Allocate(args[0], args[1], ledger.ToPaise(amount))
	if err != nil {
		return err
	}
	fmt.Printf("Allocation %s: %s / %s += %s\n", res.Action, res.InstrumentName, res.Issuer, amount.StringFixed(2))
	return nil
}

func runLedgerRedeem(cmd *cobra.Command, args []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("bad amount %q: %w", args[0], err)
	}

	res, err := l.Redeem(ledger.ToPaise(amount), ledger.SelectionStrategy(redeemSelection))
	if err != nil {
		return err
	}
	fmt.Printf("Redeemed %s across %d holdings:\n", amount.StringFixed(2), len(res.Redemptions))
	for _, r := range res.Redemptions {
		fmt.Printf("  %-20s %-24s -%s (remaining %s)\n",
			r.InstrumentName, r.Issuer,
			ledger.ToMajor(r.RedeemedPaise).StringFixed(2),
			ledger.ToMajor(r.RemainingPaise).StringFixed(2))
	}
	return nil
}

func runLedgerAccrue(cmd *cobra.Command, args []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	res, err := l.PostDailyAccrual(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Accruals for %s: %d posted, %d skipped (%d eligible)\n",
		res.AsOfDate, res.Posted, res.Skipped, res.Eligible)
	return nil
}

func runLedgerSeries(cmd *cobra.Command, args []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	series, err := l.DailySeries(args[0], args[1])
	if err != nil {
		return err
	}
	for _, p := range series {
		fmt.Printf("%s  %10s  (%d instruments)\n", p.Date, ledger.ToMajor(p.AccruedPaise).StringFixed(2), p.Instruments)
	}
	return nil
}

func runLedgerYTD(cmd *cobra.Command, args []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	year, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad year %q: %w", args[0], err)
	}

	t, err := l.YTDTotals(year)
	if err != nil {
		return err
	}
	fmt.Printf("YTD %d: interest %s over %d days (%d records, %d instruments)\n",
		t.Year, ledger.ToMajor(t.AccruedPaise).StringFixed(2), t.AccrualDays, t.AccrualRecords, t.UniqueInstruments)
	return nil
}

func runLedgerAttribution(cmd *cobra.Command, args []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	rows, err := l.Attribution(args[0], args[1])
	if err != nil {
		return err
	}
	for _, r := range rows {
		fmt.Printf("%-20s %-24s interest %10s  avg balance %12s  avg rate %5dbps  %d days\n",
			r.InstrumentName, r.Issuer,
			ledger.ToMajor(r.InterestPaise).StringFixed(2),
			ledger.ToMajor(r.AvgOpeningPaise).StringFixed(2),
			r.AvgRateBps, r.Days)
	}
	return nil
}
