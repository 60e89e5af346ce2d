package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"rational-assistant/internal/analyzer"
	"rational-assistant/internal/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	riskStyles = map[analyzer.RiskLevel]lipgloss.Style{
		analyzer.RiskLow:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		analyzer.RiskMedium: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		analyzer.RiskHigh:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
)

type analyzeOptions struct {
	salary      string
	monthly     string
	current     string
	price       string
	category    string
	useSavings  bool
	blacklisted bool
	coolingDays int
	asJSON      bool
}

func analyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score a purchase and compute its cooling-off period",
		Long: `Score a purchase against a financial profile.

Without --cooling-days the period comes from the default price ranges
(see "impulse ranges").`,
		Example: "  impulse analyze --price 60000 --salary 100000 --current-savings 20000",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := opts.input(time.Now())
			if err != nil {
				return err
			}
			a := analyzer.Analyze(in)
			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(a)
			}
			printAnalysis(cmd.OutOrStdout(), in, a)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.price, "price", "", "purchase price (required)")
	f.StringVar(&opts.category, "category", "", "purchase category")
	f.StringVar(&opts.salary, "salary", "100000", "monthly salary")
	f.StringVar(&opts.monthly, "monthly-savings", "20000", "amount saved per month")
	f.StringVar(&opts.current, "current-savings", "0", "savings available now")
	f.BoolVar(&opts.useSavings, "use-savings", true, "extend the period by the time needed to save up")
	f.BoolVar(&opts.blacklisted, "blacklisted", false, "the category is on the blacklist")
	f.IntVar(&opts.coolingDays, "cooling-days", -1, "cooling period of the matching price range")
	f.BoolVar(&opts.asJSON, "json", false, "print the analysis as JSON")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func (o analyzeOptions) input(now time.Time) (analyzer.Input, error) {
	price, err := parseAmount("price", o.price)
	if err != nil {
		return analyzer.Input{}, err
	}
	if !price.IsPositive() {
		return analyzer.Input{}, fmt.Errorf("price must be positive")
	}
	salary, err := parseAmount("salary", o.salary)
	if err != nil {
		return analyzer.Input{}, err
	}
	monthly, err := parseAmount("monthly-savings", o.monthly)
	if err != nil {
		return analyzer.Input{}, err
	}
	current, err := parseAmount("current-savings", o.current)
	if err != nil {
		return analyzer.Input{}, err
	}

	days := o.coolingDays
	if days < 0 {
		days = defaultCoolingDays(price)
	}

	return analyzer.Input{
		Profile: analyzer.Profile{
			Salary:                salary,
			MonthlySavings:        monthly,
			CurrentSavings:        current,
			UseSavingsCalculation: o.useSavings,
		},
		Price:            price,
		Category:         strings.TrimSpace(o.category),
		Blacklisted:      o.blacklisted,
		PriceCoolingDays: days,
		Now:              now,
	}, nil
}

func parseAmount(name, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: %q is not a number", name, raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("--%s must not be negative", name)
	}
	return d, nil
}

// defaultCoolingDays picks the period of the default range containing price.
// Overlapping bounds resolve to the range with the higher lower bound.
func defaultCoolingDays(price decimal.Decimal) int {
	days := analyzer.DefaultCoolingDays
	var best *models.PriceRange
	for _, r := range models.DefaultPriceRanges() {
		if r.Contains(price) && (best == nil || r.MinPrice.GreaterThanOrEqual(best.MinPrice)) {
			best = &r
			days = r.CoolingDays
		}
	}
	return days
}

func printAnalysis(w io.Writer, in analyzer.Input, a analyzer.Analysis) {
	risk := riskStyles[a.RiskLevel].Render(fmt.Sprintf("%s %s", a.RiskMarker, a.RiskDescription))
	fmt.Fprintf(w, "%s  (impulse score %d/100)\n\n", risk, a.ImpulseScore)

	row := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-16s", label+":")), value)
	}
	row("Price", analyzer.FormatMoney(in.Price))
	row("Cooling-off", fmt.Sprintf("%s (range %d, savings %d, extra %d)",
		analyzer.Days(a.CoolingDays), a.PriceCoolingDays, a.SavingsDays, a.ExtraDays))
	row("Ready on", a.ReadyDate.Format(analyzer.DateLayout))
	if a.CanAfford {
		row("Can afford", "yes")
	} else {
		row("Can afford", "no, short by "+analyzer.FormatMoney(a.Shortage))
	}
	if plan := a.SavingsPlan; plan != nil {
		row("Savings plan", fmt.Sprintf("%s a day for %s, until %s",
			analyzer.FormatMoney(plan.DailySavings), analyzer.Days(plan.DaysNeeded), plan.TargetDate.Format(analyzer.DateLayout)))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render(a.Recommendation))
	fmt.Fprintln(w, a.ActionPlan)

	list := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render(title))
		for _, item := range items {
			fmt.Fprintln(w, "  "+item)
		}
	}
	list("Reasons", a.Reasons)
	list("Warnings", a.FinancialWarnings)
}
