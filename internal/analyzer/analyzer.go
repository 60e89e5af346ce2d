// Package analyzer scores how impulsive a purchase is and derives the
// cooling-off period a user should wait before buying.
//
// Analyze is a pure function: it performs no I/O, reads no clock and keeps
// no state, so it is safe to call from any number of goroutines.
package analyzer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// DefaultCoolingDays applies when no price range matches the price.
	DefaultCoolingDays = 7

	daysPerMonth = 30
	maxScore     = 100
)

var hundred = decimal.NewFromInt(100)

// Analyze evaluates a proposed purchase against the user's profile.
// Inputs are expected to be validated by the caller: price > 0 and
// non-negative profile amounts.
func Analyze(in Input) Analysis {
	p := in.Profile
	price := in.Price

	canAfford := price.LessThanOrEqual(p.CurrentSavings)
	shortage := decimal.Max(decimal.Zero, price.Sub(p.CurrentSavings))

	plan := savingsPlan(in, canAfford, shortage)
	savingsDays := 0
	if plan != nil {
		savingsDays = plan.DaysNeeded
	}

	ratio := percentOf(price, p.Salary)
	extra := extraDays(price, p.Salary)
	cooling := max(in.PriceCoolingDays, savingsDays) + extra

	score, reasons, warnings := tally([]term{
		salaryTerm(price, p.Salary, ratio),
		affordabilityTerm(price, p.CurrentSavings, canAfford, shortage, plan),
		blacklistTerm(in.Category, in.Blacklisted),
		cushionTerm(price, p),
	})
	risk := riskFor(score)

	a := Analysis{
		IsBlacklisted:      in.Blacklisted,
		CoolingDays:        cooling,
		PriceCoolingDays:   in.PriceCoolingDays,
		SavingsDays:        savingsDays,
		ExtraDays:          extra,
		CanAfford:          canAfford,
		Shortage:           shortage,
		SavingsPlan:        plan,
		FinancialHealth:    financialHealth(price, p, canAfford),
		ImpulseScore:       score,
		RiskLevel:          risk,
		RiskDescription:    risk.Description(),
		RiskMarker:         risk.Marker(),
		Reasons:            reasons,
		FinancialWarnings:  warnings,
		PriceToSalaryRatio: ratio.Round(2),
		ReadyDate:          in.Now.AddDate(0, 0, cooling),
	}
	a.Recommendation, a.ActionPlan = recommend(a)
	return a
}

func savingsPlan(in Input, canAfford bool, shortage decimal.Decimal) *SavingsPlan {
	p := in.Profile
	if !p.UseSavingsCalculation || canAfford || !p.MonthlySavings.IsPositive() {
		return nil
	}

	month := decimal.NewFromInt(daysPerMonth)
	daily := p.MonthlySavings.Div(month)
	// shortage / (monthly / 30) without the rounding error of the repeating daily rate.
	days := int(shortage.Mul(month).Div(p.MonthlySavings).Floor().IntPart()) + 1

	return &SavingsPlan{
		Shortage:      shortage,
		DailySavings:  daily.Round(2),
		DaysNeeded:    days,
		TargetDate:    in.Now.AddDate(0, 0, days),
		MonthlyImpact: percentOf(in.Price, p.Salary).Round(2),
	}
}

func extraDays(price, salary decimal.Decimal) int {
	if !salary.IsPositive() {
		return 0
	}
	switch {
	case exceeds(price, salary, 50):
		return 14
	case exceeds(price, salary, 30):
		return 7
	default:
		return 0
	}
}

// term is one independent contribution to the impulse score.
type term struct {
	points   int
	override bool
	reasons  []string
	warnings []string
}

// tally sums the terms in order. An override term pins the score to the
// maximum after every additive term has been counted.
func tally(terms []term) (int, []string, []string) {
	score := 0
	override := false
	reasons := make([]string, 0, len(terms))
	warnings := make([]string, 0, len(terms))
	for _, t := range terms {
		score += t.points
		override = override || t.override
		reasons = append(reasons, t.reasons...)
		warnings = append(warnings, t.warnings...)
	}
	if override {
		score = maxScore
	}
	return min(max(score, 0), maxScore), reasons, warnings
}

func salaryTerm(price, salary, ratio decimal.Decimal) term {
	if !salary.IsPositive() {
		return term{}
	}
	pct := ratio.StringFixed(0)
	switch {
	case exceeds(price, salary, 100):
		return term{
			points:   50,
			reasons:  []string{fmt.Sprintf("💰 Price exceeds your monthly salary (%s%%)", pct)},
			warnings: []string{"⚠️ This is a very large purchase that needs special attention"},
		}
	case exceeds(price, salary, 50):
		return term{
			points:   40,
			reasons:  []string{fmt.Sprintf("💰 Price is %s%% of your salary", pct)},
			warnings: []string{"⚠️ The purchase will significantly affect your budget"},
		}
	case exceeds(price, salary, 25):
		return term{points: 25, reasons: []string{fmt.Sprintf("💸 Price is %s%% of your salary", pct)}}
	case exceeds(price, salary, 10):
		return term{points: 15, reasons: []string{fmt.Sprintf("💵 Price is %s%% of your salary", pct)}}
	default:
		return term{}
	}
}

func affordabilityTerm(price, savings decimal.Decimal, canAfford bool, shortage decimal.Decimal, plan *SavingsPlan) term {
	if !canAfford {
		t := term{
			points:  35,
			reasons: []string{fmt.Sprintf("🏦 Not enough savings (another %s needed)", FormatMoney(shortage))},
		}
		if plan == nil {
			return t
		}
		switch n := plan.DaysNeeded; {
		case n > 90:
			t.warnings = append(t.warnings, fmt.Sprintf("⏳ Saving up will take more than 3 months (%s)", Days(n)))
			t.reasons = append(t.reasons, "⏰ More than 3 months of saving")
		case n > 30:
			t.warnings = append(t.warnings, fmt.Sprintf("⏳ Saving up will take about %s", Days(n)))
		default:
			t.warnings = append(t.warnings, fmt.Sprintf("✅ You can save up in %s", Days(n)))
		}
		return t
	}

	share := percentOf(price, savings).StringFixed(0)
	switch {
	case exceeds(price, savings, 80):
		return term{
			points:   20,
			reasons:  []string{fmt.Sprintf("⚠️ The purchase takes %s%% of your savings", share)},
			warnings: []string{"💰 Little will be left for unexpected expenses"},
		}
	case exceeds(price, savings, 50):
		return term{
			points:  10,
			reasons: []string{fmt.Sprintf("⚠️ The purchase takes %s%% of your savings", share)},
		}
	default:
		return term{}
	}
}

func blacklistTerm(category string, blacklisted bool) term {
	if !blacklisted {
		return term{}
	}
	return term{
		override: true,
		reasons:  []string{fmt.Sprintf("🚫 Category '%s' is on your blacklist", category)},
	}
}

func cushionTerm(price decimal.Decimal, p Profile) term {
	if !p.CurrentSavings.IsPositive() {
		return term{}
	}
	if p.CurrentSavings.Sub(price).GreaterThanOrEqual(p.Salary) {
		return term{}
	}
	return term{
		points:   15,
		reasons:  []string{"📉 Less than one month of safety cushion left after the purchase"},
		warnings: []string{"⚠️ Keep a safety cushion of at least one month of income"},
	}
}

func riskFor(score int) RiskLevel {
	switch {
	case score >= 70:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

func recommend(a Analysis) (string, string) {
	switch {
	case a.IsBlacklisted:
		return "Purchase blocked by your own rule",
			"You put this category on your blacklist. Remove it in settings if you changed your mind."

	case !a.CanAfford && a.SavingsPlan != nil:
		plan := a.SavingsPlan
		return fmt.Sprintf("Save another %s over %s", FormatMoney(a.Shortage), Days(plan.DaysNeeded)),
			strings.Join([]string{
				"📅 Savings plan:",
				fmt.Sprintf("• Put aside %s a day", FormatMoney(plan.DailySavings)),
				fmt.Sprintf("• Target date: %s", plan.TargetDate.Format(DateLayout)),
				fmt.Sprintf("• Then wait another %s of cooling-off", Days(a.PriceCoolingDays)),
			}, "\n")

	case !a.CanAfford:
		return fmt.Sprintf("Not enough funds (%s short)", FormatMoney(a.Shortage)),
			"Set up monthly savings in your profile to get a savings plan"

	case a.CoolingDays > 0:
		var parts []string
		if a.PriceCoolingDays > 0 {
			parts = append(parts, Days(a.PriceCoolingDays)+" of cooling-off")
		}
		if a.SavingsDays > 0 {
			parts = append(parts, Days(a.SavingsDays)+" of saving")
		}
		if a.ExtraDays > 0 {
			parts = append(parts, Days(a.ExtraDays)+" for a large purchase")
		}
		return fmt.Sprintf("Think it over for %s", Days(a.CoolingDays)),
			"Wait: " + strings.Join(parts, " + ")

	default:
		return "You may purchase now",
			"You have enough funds and the purchase is not critical for your budget"
	}
}

func financialHealth(price decimal.Decimal, p Profile, canAfford bool) FinancialHealth {
	left := p.CurrentSavings.Sub(price)
	impact := ImpactNegative
	if canAfford && price.Mul(hundred).LessThan(p.CurrentSavings.Mul(decimal.NewFromInt(30))) {
		impact = ImpactPositive
	}
	return FinancialHealth{
		Before: SavingsSnapshot{
			Savings:       p.CurrentSavings,
			SavingsMonths: months(p.CurrentSavings, p.Salary),
		},
		After: SavingsSnapshot{
			Savings:       decimal.Max(decimal.Zero, left),
			SavingsMonths: decimal.Max(decimal.Zero, months(left, p.Salary)),
		},
		Impact: impact,
	}
}

func months(amount, salary decimal.Decimal) decimal.Decimal {
	if !salary.IsPositive() {
		return decimal.Zero
	}
	return amount.Div(salary).Round(2)
}

// percentOf returns part as a percentage of base, or zero when base is not positive.
func percentOf(part, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(base)
}

// exceeds reports part > base*pct/100 without dividing.
func exceeds(part, base decimal.Decimal, pct int64) bool {
	return part.Mul(hundred).GreaterThan(base.Mul(decimal.NewFromInt(pct)))
}
