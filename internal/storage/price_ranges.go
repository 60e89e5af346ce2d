package storage

import (
	"context"
	"database/sql"
	"errors"

	"rational-assistant/internal/analyzer"
	"rational-assistant/internal/models"

	"github.com/shopspring/decimal"
)

// ListPriceRanges returns a user's price ranges ordered by lower bound.
func (db *DB) ListPriceRanges(ctx context.Context, userID int64) ([]models.PriceRange, error) {
	ranges := []models.PriceRange{}
	err := db.conn.SelectContext(ctx, &ranges, db.q(
		"SELECT id, user_id, min_price, max_price, cooling_days FROM price_ranges WHERE user_id = ? ORDER BY min_price, id"),
		userID,
	)
	return ranges, err
}

// CreatePriceRange adds a price range for a user.
func (db *DB) CreatePriceRange(ctx context.Context, r *models.PriceRange) error {
	return db.conn.QueryRowxContext(ctx, db.q(
		"INSERT INTO price_ranges (user_id, min_price, max_price, cooling_days) VALUES (?, ?, ?, ?) RETURNING id"),
		r.UserID, r.MinPrice, r.MaxPrice, r.CoolingDays,
	).Scan(&r.ID)
}

// DeletePriceRange removes one of the user's price ranges.
func (db *DB) DeletePriceRange(ctx context.Context, userID, id int64) error {
	res, err := db.conn.ExecContext(ctx, db.q("DELETE FROM price_ranges WHERE id = ? AND user_id = ?"), id, userID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// CoolingDaysForPrice returns the cooling period of the range containing price.
// When ranges overlap the one with the highest lower bound wins; with no match
// the default period applies.
func (db *DB) CoolingDaysForPrice(ctx context.Context, userID int64, price decimal.Decimal) (int, error) {
	var days int
	err := db.conn.GetContext(ctx, &days, db.q(`
		SELECT cooling_days FROM price_ranges
		WHERE user_id = ? AND min_price <= ? AND (max_price IS NULL OR max_price >= ?)
		ORDER BY min_price DESC, id DESC
		LIMIT 1`),
		userID, price, price,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return analyzer.DefaultCoolingDays, nil
	}
	if err != nil {
		return 0, err
	}
	return days, nil
}
