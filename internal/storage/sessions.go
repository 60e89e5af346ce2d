package storage

import (
	"context"
	"time"

	"rational-assistant/internal/models"
)

// CreateSession creates a new session for a user.
func (db *DB) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	now := dbTime(time.Now())
	_, err := db.conn.ExecContext(ctx, db.q(
		"INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)"),
		token, userID, dbTime(expiresAt), now,
	)
	return err
}

// SessionInfo holds session validation data.
type SessionInfo struct {
	User         *models.User
	LastActivity time.Time
	ExpiresAt    time.Time
}

// ValidateSession checks if a session token is valid and returns the associated user.
func (db *DB) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	info, err := db.ValidateSessionWithInfo(ctx, token)
	if err != nil {
		return nil, err
	}
	return info.User, nil
}

// ValidateSessionWithInfo checks if a session token is valid and returns session details.
func (db *DB) ValidateSessionWithInfo(ctx context.Context, token string) (*SessionInfo, error) {
	var row struct {
		models.User
		LastActivity time.Time `db:"last_activity"`
		ExpiresAt    time.Time `db:"expires_at"`
	}
	err := db.conn.GetContext(ctx, &row, db.q(`
		SELECT u.id, u.nickname, u.password_hash, u.salary, u.monthly_savings, u.current_savings,
			u.use_savings_calculation, u.telegram_chat_id, u.notifications_enabled, u.created_at, u.last_login,
			s.last_activity, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ?`),
		token, dbTime(time.Now()),
	)
	if err != nil {
		return nil, notFound(err)
	}

	user := row.User
	return &SessionInfo{
		User:         &user,
		LastActivity: row.LastActivity,
		ExpiresAt:    row.ExpiresAt,
	}, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(ctx context.Context, token string, newExpiresAt time.Time) error {
	_, err := db.conn.ExecContext(ctx, db.q(
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?"),
		dbTime(time.Now()), dbTime(newExpiresAt), token,
	)
	return err
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	_, err := db.conn.ExecContext(ctx, db.q("DELETE FROM sessions WHERE token = ?"), token)
	return err
}

// CleanExpiredSessions removes all expired sessions.
func (db *DB) CleanExpiredSessions(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, db.q("DELETE FROM sessions WHERE expires_at <= ?"), dbTime(time.Now()))
	return err
}
