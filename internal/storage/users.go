package storage

import (
	"context"
	"time"

	"rational-assistant/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const userColumns = `id, nickname, password_hash, salary, monthly_savings, current_savings,
	use_savings_calculation, telegram_chat_id, notifications_enabled, created_at, last_login`

// NewUser holds the fields accepted at registration.
type NewUser struct {
	Nickname              string
	PasswordHash          string
	Salary                decimal.Decimal
	MonthlySavings        decimal.Decimal
	CurrentSavings        decimal.Decimal
	UseSavingsCalculation bool
}

// Profile holds the editable financial fields of a user.
type Profile struct {
	Salary                decimal.Decimal
	MonthlySavings        decimal.Decimal
	CurrentSavings        decimal.Decimal
	UseSavingsCalculation bool
}

// CreateUser creates a user together with the default price ranges.
func (db *DB) CreateUser(ctx context.Context, nu NewUser) (*models.User, error) {
	now := dbTime(time.Now())
	var id int64
	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, db.q(`
			INSERT INTO users (nickname, password_hash, salary, monthly_savings, current_savings,
				use_savings_calculation, created_at, last_login)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`),
			nu.Nickname, nu.PasswordHash, nu.Salary, nu.MonthlySavings, nu.CurrentSavings,
			nu.UseSavingsCalculation, now, now,
		).Scan(&id)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}

		for _, r := range models.DefaultPriceRanges() {
			if _, err := tx.ExecContext(ctx, db.q(
				"INSERT INTO price_ranges (user_id, min_price, max_price, cooling_days) VALUES (?, ?, ?, ?)"),
				id, r.MinPrice, r.MaxPrice, r.CoolingDays,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return db.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := db.conn.GetContext(ctx, &u, db.q("SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetUserByNickname retrieves a user by nickname.
func (db *DB) GetUserByNickname(ctx context.Context, nickname string) (*models.User, error) {
	var u models.User
	err := db.conn.GetContext(ctx, &u, db.q("SELECT "+userColumns+" FROM users WHERE nickname = ?"), nickname)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetUserByTelegramChat retrieves the user linked to a chat.
func (db *DB) GetUserByTelegramChat(ctx context.Context, chatID int64) (*models.User, error) {
	var u models.User
	err := db.conn.GetContext(ctx, &u, db.q("SELECT "+userColumns+" FROM users WHERE telegram_chat_id = ?"), chatID)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// UpdateProfile replaces the financial profile of a user.
func (db *DB) UpdateProfile(ctx context.Context, userID int64, p Profile) (*models.User, error) {
	res, err := db.conn.ExecContext(ctx, db.q(`
		UPDATE users SET salary = ?, monthly_savings = ?, current_savings = ?, use_savings_calculation = ?
		WHERE id = ?`),
		p.Salary, p.MonthlySavings, p.CurrentSavings, p.UseSavingsCalculation, userID,
	)
	if err != nil {
		return nil, err
	}
	if err := checkAffected(res); err != nil {
		return nil, err
	}
	return db.GetUserByID(ctx, userID)
}

// TouchLogin records a successful login.
func (db *DB) TouchLogin(ctx context.Context, userID int64) error {
	_, err := db.conn.ExecContext(ctx, db.q("UPDATE users SET last_login = ? WHERE id = ?"), dbTime(time.Now()), userID)
	return err
}

// LinkTelegram attaches a chat to a user and turns notifications on.
// A chat can belong to one user only, so any previous owner is unlinked first.
func (db *DB) LinkTelegram(ctx context.Context, userID, chatID int64) error {
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, db.q(
			"UPDATE users SET telegram_chat_id = NULL, notifications_enabled = ? WHERE telegram_chat_id = ? AND id <> ?"),
			false, chatID, userID,
		); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, db.q(
			"UPDATE users SET telegram_chat_id = ?, notifications_enabled = ? WHERE id = ?"),
			chatID, true, userID,
		)
		if err != nil {
			return err
		}
		return checkAffected(res)
	})
}

// UnlinkTelegram detaches a chat from whichever user owns it.
func (db *DB) UnlinkTelegram(ctx context.Context, chatID int64) error {
	res, err := db.conn.ExecContext(ctx, db.q(
		"UPDATE users SET telegram_chat_id = NULL, notifications_enabled = ? WHERE telegram_chat_id = ?"),
		false, chatID,
	)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// SetNotifications toggles chat notifications for a user.
func (db *DB) SetNotifications(ctx context.Context, userID int64, enabled bool) error {
	res, err := db.conn.ExecContext(ctx, db.q("UPDATE users SET notifications_enabled = ? WHERE id = ?"), enabled, userID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// ListNotifiableUsers returns users with a linked chat and notifications on.
func (db *DB) ListNotifiableUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := db.conn.SelectContext(ctx, &users, db.q(
		"SELECT "+userColumns+" FROM users WHERE telegram_chat_id IS NOT NULL AND notifications_enabled = ? ORDER BY id"),
		true,
	)
	return users, err
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	err := db.conn.GetContext(ctx, &count, "SELECT COUNT(*) FROM users")
	return count, err
}
