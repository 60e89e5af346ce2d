package storage

import (
	"context"

	"rational-assistant/internal/models"
)

// ListBlacklist returns a user's blacklisted categories in insertion order.
func (db *DB) ListBlacklist(ctx context.Context, userID int64) ([]models.BlacklistEntry, error) {
	entries := []models.BlacklistEntry{}
	err := db.conn.SelectContext(ctx, &entries, db.q(
		"SELECT id, user_id, category FROM blacklist_categories WHERE user_id = ? ORDER BY id"),
		userID,
	)
	return entries, err
}

// AddBlacklist puts a category on the user's blacklist.
func (db *DB) AddBlacklist(ctx context.Context, userID int64, category string) (*models.BlacklistEntry, error) {
	e := &models.BlacklistEntry{UserID: userID, Category: category}
	err := db.conn.QueryRowxContext(ctx, db.q(
		"INSERT INTO blacklist_categories (user_id, category) VALUES (?, ?) RETURNING id"),
		userID, category,
	).Scan(&e.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return e, nil
}

// RemoveBlacklist deletes one of the user's blacklist entries.
func (db *DB) RemoveBlacklist(ctx context.Context, userID, id int64) error {
	res, err := db.conn.ExecContext(ctx, db.q("DELETE FROM blacklist_categories WHERE id = ? AND user_id = ?"), id, userID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// IsBlacklisted reports whether category is on the user's blacklist.
func (db *DB) IsBlacklisted(ctx context.Context, userID int64, category string) (bool, error) {
	var n int
	err := db.conn.GetContext(ctx, &n, db.q(
		"SELECT COUNT(*) FROM blacklist_categories WHERE user_id = ? AND category = ?"),
		userID, category,
	)
	return n > 0, err
}
