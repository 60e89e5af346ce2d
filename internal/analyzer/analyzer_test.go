package analyzer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

func profile(salary, monthly, current string, useSavings bool) Profile {
	return Profile{
		Salary:                dec(salary),
		MonthlySavings:        dec(monthly),
		CurrentSavings:        dec(current),
		UseSavingsCalculation: useSavings,
	}
}

func TestAnalyze_LargePurchaseNeedsSavingsPlan(t *testing.T) {
	a := Analyze(Input{
		Profile:          profile("100000", "20000", "5000", true),
		Price:            dec("60000"),
		Category:         "electronics",
		PriceCoolingDays: DefaultCoolingDays,
		Now:              testNow,
	})

	assert.False(t, a.CanAfford)
	assertDecimal(t, "55000", a.Shortage)
	require.NotNil(t, a.SavingsPlan)
	assertDecimal(t, "666.67", a.SavingsPlan.DailySavings)
	assert.Equal(t, 83, a.SavingsPlan.DaysNeeded)
	assert.Equal(t, testNow.AddDate(0, 0, 83), a.SavingsPlan.TargetDate)
	assertDecimal(t, "60", a.SavingsPlan.MonthlyImpact)

	assert.Equal(t, 7, a.PriceCoolingDays)
	assert.Equal(t, 83, a.SavingsDays)
	assert.Equal(t, 14, a.ExtraDays)
	assert.Equal(t, 97, a.CoolingDays)
	assert.Equal(t, testNow.AddDate(0, 0, 97), a.ReadyDate)

	// 40 (ratio) + 35 (cannot afford) + 15 (cushion)
	assert.Equal(t, 90, a.ImpulseScore)
	assert.Equal(t, RiskHigh, a.RiskLevel)
	assert.Equal(t, "Very high risk", a.RiskDescription)
	assert.Equal(t, "🔴", a.RiskMarker)

	assert.Equal(t, []string{
		"💰 Price is 60% of your salary",
		"🏦 Not enough savings (another 55,000 ₽ needed)",
		"📉 Less than one month of safety cushion left after the purchase",
	}, a.Reasons)
	assert.Equal(t, []string{
		"⚠️ The purchase will significantly affect your budget",
		"⏳ Saving up will take about 83 days",
		"⚠️ Keep a safety cushion of at least one month of income",
	}, a.FinancialWarnings)

	assert.Equal(t, "Save another 55,000 ₽ over 83 days", a.Recommendation)
	assert.Contains(t, a.ActionPlan, "• Put aside 667 ₽ a day")
	assert.Contains(t, a.ActionPlan, "• Target date: 08.01.2027")
	assert.Contains(t, a.ActionPlan, "• Then wait another 7 days of cooling-off")

	assertDecimal(t, "60", a.PriceToSalaryRatio)
	assert.Equal(t, ImpactNegative, a.FinancialHealth.Impact)
	assertDecimal(t, "0", a.FinancialHealth.After.Savings)
	assertDecimal(t, "0", a.FinancialHealth.After.SavingsMonths)
	assertDecimal(t, "0.05", a.FinancialHealth.Before.SavingsMonths)
}

func TestAnalyze_SmallAffordablePurchase(t *testing.T) {
	a := Analyze(Input{
		Profile:          profile("100000", "20000", "50000", true),
		Price:            dec("5000"),
		Category:         "books",
		PriceCoolingDays: 1,
		Now:              testNow,
	})

	assert.True(t, a.CanAfford)
	assertDecimal(t, "0", a.Shortage)
	assert.Nil(t, a.SavingsPlan)
	assert.Equal(t, 0, a.SavingsDays)
	assert.Equal(t, 0, a.ExtraDays)
	assert.Equal(t, 1, a.CoolingDays)
	assertDecimal(t, "5", a.PriceToSalaryRatio)

	// Only the cushion term fires: 45 000 left is below one salary.
	assert.Equal(t, 15, a.ImpulseScore)
	assert.Equal(t, RiskLow, a.RiskLevel)
	assert.Equal(t, "Think it over for 1 day", a.Recommendation)
	assert.Equal(t, "Wait: 1 day of cooling-off", a.ActionPlan)

	assert.Equal(t, ImpactPositive, a.FinancialHealth.Impact)
	assertDecimal(t, "45000", a.FinancialHealth.After.Savings)
	assertDecimal(t, "0.45", a.FinancialHealth.After.SavingsMonths)
}

func TestAnalyze_PurchaseNow(t *testing.T) {
	a := Analyze(Input{
		Profile:          profile("10000", "0", "1000000", false),
		Price:            dec("500"),
		Category:         "food",
		PriceCoolingDays: 0,
		Now:              testNow,
	})

	assert.Equal(t, 0, a.ImpulseScore)
	assert.Equal(t, 0, a.CoolingDays)
	assert.Equal(t, "You may purchase now", a.Recommendation)
	assert.Equal(t, testNow, a.ReadyDate)
	assert.Empty(t, a.Reasons)
	assert.NotNil(t, a.Reasons)
	assert.NotNil(t, a.FinancialWarnings)
}

func TestAnalyze_BlacklistedCategory(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		price   string
	}{
		{"cheap and affordable", profile("100000", "20000", "1000000", true), "100"},
		{"unaffordable", profile("100000", "20000", "0", true), "300000"},
		{"no salary", profile("0", "0", "0", false), "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{
				Profile:          tt.profile,
				Price:            dec(tt.price),
				Category:         "games",
				Blacklisted:      true,
				PriceCoolingDays: 30,
				Now:              testNow,
			}
			a := Analyze(in)

			assert.True(t, a.IsBlacklisted)
			assert.Equal(t, 100, a.ImpulseScore)
			assert.Equal(t, RiskHigh, a.RiskLevel)
			assert.Equal(t, "Purchase blocked by your own rule", a.Recommendation)
			assert.Contains(t, a.Reasons, "🚫 Category 'games' is on your blacklist")

			in.Blacklisted = false
			plain := Analyze(in)
			assert.Equal(t, plain.CoolingDays, a.CoolingDays, "cooling period is computed regardless of the blacklist")
		})
	}
}

func TestAnalyze_BlacklistKeepsCushionReasons(t *testing.T) {
	a := Analyze(Input{
		Profile:          profile("100000", "0", "20000", false),
		Price:            dec("15000"),
		Category:         "games",
		Blacklisted:      true,
		PriceCoolingDays: 1,
		Now:              testNow,
	})

	assert.Equal(t, 100, a.ImpulseScore)
	require.Len(t, a.Reasons, 4)
	assert.Equal(t, "🚫 Category 'games' is on your blacklist", a.Reasons[2])
	assert.Equal(t, "📉 Less than one month of safety cushion left after the purchase", a.Reasons[3])
	assert.Contains(t, a.FinancialWarnings, "⚠️ Keep a safety cushion of at least one month of income")
}

func TestAnalyze_SalaryTiers(t *testing.T) {
	tests := []struct {
		price     string
		wantScore int
		wantExtra int
	}{
		{"10000", 0, 0},
		{"10001", 15, 0},
		{"25000", 15, 0},
		{"25001", 25, 0},
		{"30001", 25, 7},
		{"50000", 25, 7},
		{"50001", 40, 14},
		{"100000", 40, 14},
		{"100001", 50, 14},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			a := Analyze(Input{
				Profile:          profile("100000", "0", "10000000", false),
				Price:            dec(tt.price),
				PriceCoolingDays: 0,
				Now:              testNow,
			})
			assert.Equal(t, tt.wantScore, a.ImpulseScore)
			assert.Equal(t, tt.wantExtra, a.ExtraDays)
			assert.Equal(t, tt.wantExtra, a.CoolingDays)
		})
	}
}

func TestAnalyze_SavingsShare(t *testing.T) {
	tests := []struct {
		name         string
		price        string
		wantScore    int
		wantWarnings int
	}{
		{"half of savings", "500", 0, 0},
		{"above half", "501", 10, 0},
		{"above 80 percent", "801", 20, 1},
		{"all savings", "1000", 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No salary: the ratio and cushion terms stay silent while the price is affordable.
			a := Analyze(Input{
				Profile: profile("0", "0", "1000", false),
				Price:   dec(tt.price),
				Now:     testNow,
			})
			assert.True(t, a.CanAfford)
			assert.Equal(t, tt.wantScore, a.ImpulseScore)
			assert.Len(t, a.FinancialWarnings, tt.wantWarnings)
		})
	}
}

func TestAnalyze_SavingsPlanHorizons(t *testing.T) {
	tests := []struct {
		name        string
		monthly     string
		price       string
		wantDays    int
		wantWarning string
		wantReason  string
	}{
		{"quick", "30000", "5000", 6, "✅ You can save up in 6 days", ""},
		{"exact multiple of daily rate", "20000", "20000", 31, "⏳ Saving up will take about 31 days", ""},
		{"long", "3000", "10000", 101, "⏳ Saving up will take more than 3 months (101 days)", "⏰ More than 3 months of saving"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Analyze(Input{
				Profile: profile("0", tt.monthly, "0", true),
				Price:   dec(tt.price),
				Now:     testNow,
			})
			require.NotNil(t, a.SavingsPlan)
			assert.Equal(t, tt.wantDays, a.SavingsPlan.DaysNeeded)
			assert.Equal(t, tt.wantDays, a.CoolingDays)
			assert.Contains(t, a.FinancialWarnings, tt.wantWarning)
			if tt.wantReason != "" {
				assert.Contains(t, a.Reasons, tt.wantReason)
			}
			assertDecimal(t, "0", a.SavingsPlan.MonthlyImpact)
		})
	}
}

func TestAnalyze_NoPlanWithoutSavingsCalculation(t *testing.T) {
	for _, p := range []Profile{
		profile("100000", "20000", "0", false),
		profile("100000", "0", "0", true),
	} {
		a := Analyze(Input{Profile: p, Price: dec("1000"), PriceCoolingDays: 3, Now: testNow})
		assert.Nil(t, a.SavingsPlan)
		assert.Equal(t, 0, a.SavingsDays)
		assert.Equal(t, 3, a.CoolingDays)
		assert.Equal(t, "Not enough funds (1,000 ₽ short)", a.Recommendation)
		assert.Equal(t, "Set up monthly savings in your profile to get a savings plan", a.ActionPlan)
	}
}

func TestAnalyze_DegenerateProfile(t *testing.T) {
	a := Analyze(Input{
		Profile:          profile("0", "0", "0", true),
		Price:            dec("1000"),
		PriceCoolingDays: 7,
		Now:              testNow,
	})

	assertDecimal(t, "0", a.PriceToSalaryRatio)
	assert.Equal(t, 0, a.ExtraDays)
	assert.Equal(t, 35, a.ImpulseScore)
	assertDecimal(t, "0", a.FinancialHealth.Before.SavingsMonths)
	assertDecimal(t, "0", a.FinancialHealth.After.SavingsMonths)
}

func TestAnalyze_Properties(t *testing.T) {
	profiles := []Profile{
		profile("100000", "20000", "5000", true),
		profile("100000", "20000", "500000", true),
		profile("50000", "0", "0", false),
		profile("0", "10000", "20000", true),
		profile("250000", "1000", "80000", false),
	}

	for _, p := range profiles {
		for _, blacklisted := range []bool{false, true} {
			prev := -1
			for price := int64(100); price <= 400000; price += 2500 {
				in := Input{
					Profile:          p,
					Price:            decimal.NewFromInt(price),
					Category:         "any",
					Blacklisted:      blacklisted,
					PriceCoolingDays: 7,
					Now:              testNow,
				}
				a := Analyze(in)

				assert.GreaterOrEqual(t, a.ImpulseScore, 0)
				assert.LessOrEqual(t, a.ImpulseScore, 100)
				if blacklisted {
					assert.Equal(t, 100, a.ImpulseScore)
				}
				assert.Equal(t, in.Price.LessThanOrEqual(p.CurrentSavings), a.CanAfford)
				assert.True(t, decimal.Max(decimal.Zero, in.Price.Sub(p.CurrentSavings)).Equal(a.Shortage))
				assert.Equal(t, max(a.PriceCoolingDays, a.SavingsDays)+a.ExtraDays, a.CoolingDays)
				assert.Contains(t, []int{0, 7, 14}, a.ExtraDays)
				assert.GreaterOrEqual(t, a.ImpulseScore, prev, "score must not drop as price grows (price %d)", price)
				assert.Equal(t, a, Analyze(in))

				prev = a.ImpulseScore
			}
		}
	}
}

func TestRiskLevel(t *testing.T) {
	assert.Equal(t, RiskHigh, riskFor(70))
	assert.Equal(t, RiskMedium, riskFor(69))
	assert.Equal(t, RiskMedium, riskFor(40))
	assert.Equal(t, RiskLow, riskFor(39))

	assert.True(t, RiskHigh.Notifiable())
	assert.True(t, RiskMedium.Notifiable())
	assert.False(t, RiskLow.Notifiable())
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "55,000 ₽", FormatMoney(dec("55000")))
	assert.Equal(t, "667 ₽", FormatMoney(dec("666.67")))
	assert.Equal(t, "0 ₽", FormatMoney(decimal.Zero))
	assert.Equal(t, "1 day", Days(1))
	assert.Equal(t, "14 days", Days(14))
}
