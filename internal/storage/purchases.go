package storage

import (
	"context"
	"time"

	"rational-assistant/internal/models"

	"github.com/shopspring/decimal"
)

const purchaseColumns = `id, user_id, name, price, category, status, cooling_period_days, cooling_end_date,
	is_blacklisted, notes, product_url, image_url, created_at`

// CreatePurchase inserts a purchase and fills in its ID and creation time.
func (db *DB) CreatePurchase(ctx context.Context, p *models.Purchase) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	p.CreatedAt = dbTime(p.CreatedAt)
	p.CoolingEndDate = dbTime(p.CoolingEndDate)

	return db.conn.QueryRowxContext(ctx, db.q(`
		INSERT INTO purchases (user_id, name, price, category, status, cooling_period_days, cooling_end_date,
			is_blacklisted, notes, product_url, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		p.UserID, p.Name, p.Price, p.Category, p.Status, p.CoolingPeriodDays, p.CoolingEndDate,
		p.IsBlacklisted, p.Notes, p.ProductURL, p.ImageURL, p.CreatedAt,
	).Scan(&p.ID)
}

// GetPurchase retrieves one of the user's purchases.
func (db *DB) GetPurchase(ctx context.Context, userID, id int64) (*models.Purchase, error) {
	var p models.Purchase
	err := db.conn.GetContext(ctx, &p, db.q(
		"SELECT "+purchaseColumns+" FROM purchases WHERE id = ? AND user_id = ?"),
		id, userID,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListPurchases returns the user's purchases newest first, optionally
// filtered by status. An empty status lists everything.
func (db *DB) ListPurchases(ctx context.Context, userID int64, status string) ([]models.Purchase, error) {
	query := "SELECT " + purchaseColumns + " FROM purchases WHERE user_id = ?"
	args := []any{userID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC, id DESC"

	purchases := []models.Purchase{}
	err := db.conn.SelectContext(ctx, &purchases, db.q(query), args...)
	return purchases, err
}

// ListPendingByCoolingEnd returns pending purchases, the soonest ready first.
func (db *DB) ListPendingByCoolingEnd(ctx context.Context, userID int64) ([]models.Purchase, error) {
	purchases := []models.Purchase{}
	err := db.conn.SelectContext(ctx, &purchases, db.q(
		"SELECT "+purchaseColumns+" FROM purchases WHERE user_id = ? AND status = ? ORDER BY cooling_end_date, id"),
		userID, models.StatusPending,
	)
	return purchases, err
}

// ListCoolingEnded returns pending purchases of all users whose cooling
// period ended at or before now.
func (db *DB) ListCoolingEnded(ctx context.Context, now time.Time) ([]models.Purchase, error) {
	purchases := []models.Purchase{}
	err := db.conn.SelectContext(ctx, &purchases, db.q(
		"SELECT "+purchaseColumns+" FROM purchases WHERE status = ? AND cooling_end_date <= ? ORDER BY user_id, cooling_end_date"),
		models.StatusPending, dbTime(now),
	)
	return purchases, err
}

// UpdatePurchase stores the mutable fields of a purchase.
func (db *DB) UpdatePurchase(ctx context.Context, p *models.Purchase) error {
	p.CoolingEndDate = dbTime(p.CoolingEndDate)
	res, err := db.conn.ExecContext(ctx, db.q(`
		UPDATE purchases SET name = ?, price = ?, category = ?, status = ?, cooling_period_days = ?,
			cooling_end_date = ?, is_blacklisted = ?, notes = ?, product_url = ?, image_url = ?
		WHERE id = ? AND user_id = ?`),
		p.Name, p.Price, p.Category, p.Status, p.CoolingPeriodDays,
		p.CoolingEndDate, p.IsBlacklisted, p.Notes, p.ProductURL, p.ImageURL,
		p.ID, p.UserID,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// DeletePurchase removes one of the user's purchases.
func (db *DB) DeletePurchase(ctx context.Context, userID, id int64) error {
	res, err := db.conn.ExecContext(ctx, db.q("DELETE FROM purchases WHERE id = ? AND user_id = ?"), id, userID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// Statistics aggregates the user's purchases created at or after since.
// A zero since covers all time.
func (db *DB) Statistics(ctx context.Context, userID int64, since time.Time) (*models.Statistics, error) {
	query := `
		SELECT status, COUNT(*) AS n, COALESCE(SUM(price), 0) AS amount
		FROM purchases
		WHERE user_id = ?`
	args := []any{userID}
	if !since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, dbTime(since))
	}
	query += " GROUP BY status"

	var rows []struct {
		Status string          `db:"status"`
		N      int             `db:"n"`
		Amount decimal.Decimal `db:"amount"`
	}
	if err := db.conn.SelectContext(ctx, &rows, db.q(query), args...); err != nil {
		return nil, err
	}

	stats := &models.Statistics{}
	for _, r := range rows {
		stats.Total += r.N
		switch r.Status {
		case models.StatusPending:
			stats.Pending = r.N
		case models.StatusApproved:
			stats.Approved = r.N
			stats.TotalSpent = r.Amount
		case models.StatusRejected:
			stats.Rejected = r.N
			stats.TotalSaved = r.Amount
		}
	}
	return stats, nil
}
