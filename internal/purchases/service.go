// Package purchases runs the purchase workflow: analysis on entry,
// cooling-off tracking, decisions and the periodic chat notifications.
package purchases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rational-assistant/internal/analyzer"
	"rational-assistant/internal/models"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput wraps every validation failure of the service.
var ErrInvalidInput = errors.New("invalid input")

// weeklyWindow is the period covered by the weekly digest.
const weeklyWindow = 7 * 24 * time.Hour

// Store is the persistence the service needs. *storage.DB implements it.
type Store interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	IsBlacklisted(ctx context.Context, userID int64, category string) (bool, error)
	CoolingDaysForPrice(ctx context.Context, userID int64, price decimal.Decimal) (int, error)
	CreatePurchase(ctx context.Context, p *models.Purchase) error
	GetPurchase(ctx context.Context, userID, id int64) (*models.Purchase, error)
	UpdatePurchase(ctx context.Context, p *models.Purchase) error
	ListCoolingEnded(ctx context.Context, now time.Time) ([]models.Purchase, error)
	ListNotifiableUsers(ctx context.Context) ([]models.User, error)
	Statistics(ctx context.Context, userID int64, since time.Time) (*models.Statistics, error)
}

// Notifier delivers purchase events to the user. *telegram.Notifier implements it.
type Notifier interface {
	NotifyHighImpulse(ctx context.Context, u *models.User, p *models.Purchase, a analyzer.Analysis) error
	NotifyCoolingEnded(ctx context.Context, u *models.User, p *models.Purchase) (bool, error)
	NotifyWeeklyStats(ctx context.Context, u *models.User, s *models.Statistics) error
}

// NewPurchase is the user supplied part of a purchase.
type NewPurchase struct {
	UserID     int64
	Name       string
	Price      decimal.Decimal
	Category   string
	Notes      string
	ProductURL *string
	ImageURL   *string
}

// Changes lists the fields of a purchase a user may edit. Nil fields stay as they are.
type Changes struct {
	Status *string
	Notes  *string
}

// Service coordinates storage, analysis and notifications.
type Service struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a service. A nil notifier disables notifications.
func NewService(store Store, notifier Notifier, opts ...Option) *Service {
	s := &Service{store: store, notifier: notifier, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze runs the impulse analysis for a purchase the user is considering
// without storing anything.
func (s *Service) Analyze(ctx context.Context, userID int64, price decimal.Decimal, category string) (analyzer.Analysis, error) {
	if !price.IsPositive() {
		return analyzer.Analysis{}, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return analyzer.Analysis{}, err
	}
	return s.analyze(ctx, user, price, strings.TrimSpace(category))
}

func (s *Service) analyze(ctx context.Context, u *models.User, price decimal.Decimal, category string) (analyzer.Analysis, error) {
	blacklisted := false
	if category != "" {
		var err error
		if blacklisted, err = s.store.IsBlacklisted(ctx, u.ID, category); err != nil {
			return analyzer.Analysis{}, fmt.Errorf("check blacklist: %w", err)
		}
	}
	days, err := s.store.CoolingDaysForPrice(ctx, u.ID, price)
	if err != nil {
		return analyzer.Analysis{}, fmt.Errorf("cooling days: %w", err)
	}

	return analyzer.Analyze(analyzer.Input{
		Profile:          ProfileOf(u),
		Price:            price,
		Category:         category,
		Blacklisted:      blacklisted,
		PriceCoolingDays: days,
		Now:              s.now(),
	}), nil
}

// ProfileOf extracts the analyzer profile of a user.
func ProfileOf(u *models.User) analyzer.Profile {
	return analyzer.Profile{
		Salary:                u.Salary,
		MonthlySavings:        u.MonthlySavings,
		CurrentSavings:        u.CurrentSavings,
		UseSavingsCalculation: u.UseSavingsCalculation,
	}
}

// Create analyzes and stores a new pending purchase. Medium and high risk
// purchases are announced to the user; a failed announcement is logged and
// does not fail the call.
func (s *Service) Create(ctx context.Context, np NewPurchase) (*models.Purchase, analyzer.Analysis, error) {
	np.Name = strings.TrimSpace(np.Name)
	np.Category = strings.TrimSpace(np.Category)
	if np.Name == "" {
		return nil, analyzer.Analysis{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !np.Price.IsPositive() {
		return nil, analyzer.Analysis{}, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}

	user, err := s.store.GetUserByID(ctx, np.UserID)
	if err != nil {
		return nil, analyzer.Analysis{}, err
	}
	a, err := s.analyze(ctx, user, np.Price, np.Category)
	if err != nil {
		return nil, analyzer.Analysis{}, err
	}

	now := s.now()
	p := &models.Purchase{
		UserID:            user.ID,
		Name:              np.Name,
		Price:             np.Price,
		Category:          np.Category,
		Status:            models.StatusPending,
		CoolingPeriodDays: a.CoolingDays,
		CoolingEndDate:    now.AddDate(0, 0, a.CoolingDays),
		IsBlacklisted:     a.IsBlacklisted,
		Notes:             np.Notes,
		ProductURL:        blankToNil(np.ProductURL),
		ImageURL:          blankToNil(np.ImageURL),
		CreatedAt:         now,
	}
	if err := s.store.CreatePurchase(ctx, p); err != nil {
		return nil, analyzer.Analysis{}, fmt.Errorf("store purchase: %w", err)
	}

	if s.notifier != nil && a.RiskLevel.Notifiable() {
		if err := s.notifier.NotifyHighImpulse(ctx, user, p, a); err != nil {
			slog.Error("high impulse notification failed", "user_id", user.ID, "purchase_id", p.ID, "error", err)
		}
	}
	return p, a, nil
}

// Update applies changes to one of the user's purchases.
func (s *Service) Update(ctx context.Context, userID, purchaseID int64, c Changes) (*models.Purchase, error) {
	if c.Status != nil && !models.ValidStatus(*c.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *c.Status)
	}
	p, err := s.store.GetPurchase(ctx, userID, purchaseID)
	if err != nil {
		return nil, err
	}
	if c.Status != nil {
		p.Status = *c.Status
	}
	if c.Notes != nil {
		p.Notes = *c.Notes
	}
	if err := s.store.UpdatePurchase(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetStatus records the user's decision on a purchase.
func (s *Service) SetStatus(ctx context.Context, userID, purchaseID int64, status string) (*models.Purchase, error) {
	return s.Update(ctx, userID, purchaseID, Changes{Status: &status})
}

// UpdateNotes replaces the notes of a purchase.
func (s *Service) UpdateNotes(ctx context.Context, userID, purchaseID int64, notes string) (*models.Purchase, error) {
	return s.Update(ctx, userID, purchaseID, Changes{Notes: &notes})
}

// Statistics summarizes all of the user's purchases.
func (s *Service) Statistics(ctx context.Context, userID int64) (*models.Statistics, error) {
	return s.store.Statistics(ctx, userID, time.Time{})
}

// NotifyCoolingEnded asks users to decide on every pending purchase whose
// cooling period is over. It returns the number of messages sent.
func (s *Service) NotifyCoolingEnded(ctx context.Context) (int, error) {
	if s.notifier == nil {
		return 0, nil
	}
	purchases, err := s.store.ListCoolingEnded(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("list cooling ended: %w", err)
	}

	users := map[int64]*models.User{}
	sent := 0
	var errs []error
	for i := range purchases {
		p := &purchases[i]
		u, ok := users[p.UserID]
		if !ok {
			if u, err = s.store.GetUserByID(ctx, p.UserID); err != nil {
				errs = append(errs, fmt.Errorf("user %d: %w", p.UserID, err))
				continue
			}
			users[p.UserID] = u
		}
		delivered, err := s.notifier.NotifyCoolingEnded(ctx, u, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("purchase %d: %w", p.ID, err))
			continue
		}
		if delivered {
			sent++
		}
	}
	return sent, errors.Join(errs...)
}

// SendWeeklyStats sends every notifiable user the summary of the last seven days.
func (s *Service) SendWeeklyStats(ctx context.Context) (int, error) {
	if s.notifier == nil {
		return 0, nil
	}
	users, err := s.store.ListNotifiableUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	since := s.now().Add(-weeklyWindow)
	sent := 0
	var errs []error
	for i := range users {
		u := &users[i]
		stats, err := s.store.Statistics(ctx, u.ID, since)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", u.ID, err))
			continue
		}
		if err := s.notifier.NotifyWeeklyStats(ctx, u, stats); err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", u.ID, err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
