package analyzer

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskLevel classifies how risky a purchase decision looks.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Notifiable reports whether a purchase at this risk level warrants a chat message.
func (r RiskLevel) Notifiable() bool {
	return r == RiskMedium || r == RiskHigh
}

// Marker returns the display marker for the risk level.
func (r RiskLevel) Marker() string {
	switch r {
	case RiskHigh:
		return "🔴"
	case RiskMedium:
		return "🟡"
	default:
		return "🟢"
	}
}

// Description returns the human readable label for the risk level.
func (r RiskLevel) Description() string {
	switch r {
	case RiskHigh:
		return "Very high risk"
	case RiskMedium:
		return "Medium risk"
	default:
		return "Low risk"
	}
}

// Impact values of FinancialHealth.
const (
	ImpactPositive = "positive"
	ImpactNegative = "negative"
)

// Profile is the financial snapshot of a user used by the analysis.
type Profile struct {
	Salary                decimal.Decimal `json:"salary"`
	MonthlySavings        decimal.Decimal `json:"monthly_savings"`
	CurrentSavings        decimal.Decimal `json:"current_savings"`
	UseSavingsCalculation bool            `json:"use_savings_calculation"`
}

// Input holds everything Analyze needs. Blacklisted and PriceCoolingDays are
// resolved by storage before the call.
type Input struct {
	Profile          Profile
	Price            decimal.Decimal
	Category         string
	Blacklisted      bool
	PriceCoolingDays int
	Now              time.Time
}

// SavingsPlan is a projected daily saving schedule closing the gap between
// current savings and the price.
type SavingsPlan struct {
	Shortage      decimal.Decimal `json:"shortage"`
	DailySavings  decimal.Decimal `json:"daily_savings"`
	DaysNeeded    int             `json:"days_needed"`
	TargetDate    time.Time       `json:"target_date"`
	MonthlyImpact decimal.Decimal `json:"monthly_impact"`
}

// SavingsSnapshot is the savings position at one point in time.
type SavingsSnapshot struct {
	Savings       decimal.Decimal `json:"savings"`
	SavingsMonths decimal.Decimal `json:"savings_months"`
}

// FinancialHealth compares savings before and after the purchase.
type FinancialHealth struct {
	Before SavingsSnapshot `json:"before"`
	After  SavingsSnapshot `json:"after"`
	Impact string          `json:"impact"`
}

// Analysis is the immutable result of Analyze.
type Analysis struct {
	IsBlacklisted    bool `json:"is_blacklisted"`
	CoolingDays      int  `json:"cooling_days"`
	PriceCoolingDays int  `json:"price_cooling_days"`
	SavingsDays      int  `json:"savings_days"`
	ExtraDays        int  `json:"extra_days"`

	CanAfford       bool            `json:"can_afford"`
	Shortage        decimal.Decimal `json:"shortage"`
	SavingsPlan     *SavingsPlan    `json:"savings_plan"`
	FinancialHealth FinancialHealth `json:"financial_health"`

	ImpulseScore    int       `json:"impulse_score"`
	RiskLevel       RiskLevel `json:"risk_level"`
	RiskDescription string    `json:"risk_description"`
	RiskMarker      string    `json:"emoji"`

	Recommendation    string   `json:"recommendation"`
	ActionPlan        string   `json:"action_plan"`
	Reasons           []string `json:"reasons"`
	FinancialWarnings []string `json:"financial_warnings"`

	PriceToSalaryRatio decimal.Decimal `json:"price_to_salary_ratio"`
	ReadyDate          time.Time       `json:"ready_date"`
}
