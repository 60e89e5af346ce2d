package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money goes over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Purchase statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ValidStatus reports whether s is a known purchase status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// User represents a user account together with the financial profile.
type User struct {
	ID                    int64           `json:"id" db:"id"`
	Nickname              string          `json:"nickname" db:"nickname"`
	PasswordHash          string          `json:"-" db:"password_hash"`
	Salary                decimal.Decimal `json:"salary" db:"salary"`
	MonthlySavings        decimal.Decimal `json:"monthly_savings" db:"monthly_savings"`
	CurrentSavings        decimal.Decimal `json:"current_savings" db:"current_savings"`
	UseSavingsCalculation bool            `json:"use_savings_calculation" db:"use_savings_calculation"`
	TelegramChatID        *int64          `json:"telegram_chat_id,omitempty" db:"telegram_chat_id"`
	NotificationsEnabled  bool            `json:"telegram_notifications_enabled" db:"notifications_enabled"`
	CreatedAt             time.Time       `json:"created_at" db:"created_at"`
	LastLogin             time.Time       `json:"last_login" db:"last_login"`
}

// Notifiable reports whether the user linked a chat and wants messages there.
func (u *User) Notifiable() bool {
	return u.TelegramChatID != nil && u.NotificationsEnabled
}

// PriceRange maps a price interval to a cooling-off period.
// A nil MaxPrice means the range has no upper bound.
type PriceRange struct {
	ID          int64            `json:"id" db:"id"`
	UserID      int64            `json:"-" db:"user_id"`
	MinPrice    decimal.Decimal  `json:"min_price" db:"min_price"`
	MaxPrice    *decimal.Decimal `json:"max_price" db:"max_price"`
	CoolingDays int              `json:"cooling_days" db:"cooling_days"`
}

// Contains reports whether price falls into the range, bounds included.
func (r PriceRange) Contains(price decimal.Decimal) bool {
	if price.LessThan(r.MinPrice) {
		return false
	}
	return r.MaxPrice == nil || price.LessThanOrEqual(*r.MaxPrice)
}

// DefaultPriceRanges returns the ranges every new account starts with.
func DefaultPriceRanges() []PriceRange {
	bound := func(v int64) *decimal.Decimal {
		d := decimal.NewFromInt(v)
		return &d
	}
	return []PriceRange{
		{MinPrice: decimal.Zero, MaxPrice: bound(15000), CoolingDays: 1},
		{MinPrice: decimal.NewFromInt(15000), MaxPrice: bound(50000), CoolingDays: 7},
		{MinPrice: decimal.NewFromInt(50000), MaxPrice: bound(100000), CoolingDays: 30},
		{MinPrice: decimal.NewFromInt(100000), CoolingDays: 90},
	}
}

// BlacklistEntry is a spending category the user committed not to buy from.
type BlacklistEntry struct {
	ID       int64  `json:"id" db:"id"`
	UserID   int64  `json:"-" db:"user_id"`
	Category string `json:"category" db:"category"`
}

// Purchase is a wished-for item waiting out its cooling-off period.
type Purchase struct {
	ID                int64           `json:"id" db:"id"`
	UserID            int64           `json:"user_id" db:"user_id"`
	Name              string          `json:"name" db:"name"`
	Price             decimal.Decimal `json:"price" db:"price"`
	Category          string          `json:"category" db:"category"`
	Status            string          `json:"status" db:"status"`
	CoolingPeriodDays int             `json:"cooling_period_days" db:"cooling_period_days"`
	CoolingEndDate    time.Time       `json:"cooling_end_date" db:"cooling_end_date"`
	IsBlacklisted     bool            `json:"is_blacklisted" db:"is_blacklisted"`
	Notes             string          `json:"notes" db:"notes"`
	ProductURL        *string         `json:"product_url" db:"product_url"`
	ImageURL          *string         `json:"image_url" db:"image_url"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// DaysLeft returns the whole days remaining until the cooling period ends.
func (p *Purchase) DaysLeft(now time.Time) int {
	return int(p.CoolingEndDate.Sub(now).Hours() / 24)
}

// Session represents a user session.
type Session struct {
	Token        string    `json:"token" db:"token"`
	UserID       int64     `json:"user_id" db:"user_id"`
	ExpiresAt    time.Time `json:"expires_at" db:"expires_at"`
	LastActivity time.Time `json:"-" db:"last_activity"`
}

// Statistics summarizes a user's purchase decisions.
type Statistics struct {
	Total      int             `json:"total" db:"total"`
	Pending    int             `json:"pending" db:"pending"`
	Approved   int             `json:"approved" db:"approved"`
	Rejected   int             `json:"rejected" db:"rejected"`
	TotalSpent decimal.Decimal `json:"total_spent" db:"total_spent"`
	TotalSaved decimal.Decimal `json:"total_saved" db:"total_saved"`
}

// Efficiency is the share of declined money among all decided purchases, in percent.
func (s Statistics) Efficiency() decimal.Decimal {
	decided := s.TotalSpent.Add(s.TotalSaved)
	if !decided.IsPositive() {
		return decimal.Zero
	}
	return s.TotalSaved.Mul(decimal.NewFromInt(100)).Div(decided).Round(1)
}
