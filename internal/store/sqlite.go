package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/ykvlv/cowin-alert-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct {
	db  *sql.DB
	now func() time.Time
}

var _ Repo = (*SQLiteRepo)(nil)

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db, now: time.Now}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// GetOrCreateUser returns the user, inserting a fresh record when missing.
// A new record starts with alerts disabled and last_alert_sent_at set to its
// creation time.
func (r *SQLiteRepo) GetOrCreateUser(ctx context.Context, userID, chatID int64) (*domain.User, bool, error) {
	now := r.now().UTC().Unix()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, chat_id, last_alert_sent_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING`,
		userID, chatID, now, now, now,
	)
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	u, err := r.GetUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return u, n > 0, nil
}

// GetUser returns a user by id or ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// SetPincode stores a validated six-digit pincode.
func (r *SQLiteRepo) SetPincode(ctx context.Context, userID int64, pincode string) error {
	if !domain.ValidPincode(pincode) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidPincode, pincode)
	}
	return r.update(ctx, `UPDATE users SET pincode = ?, updated_at = ? WHERE user_id = ?`,
		toNullString(pincode), r.now().UTC().Unix(), userID)
}

// SetAgePreference stores the user's age bracket.
func (r *SQLiteRepo) SetAgePreference(ctx context.Context, userID int64, pref domain.AgePreference) error {
	if !pref.Valid() {
		return fmt.Errorf("%w: %d", domain.ErrInvalidAgePreference, pref)
	}
	return r.update(ctx, `UPDATE users SET age_pref = ?, updated_at = ? WHERE user_id = ?`,
		int(pref), r.now().UTC().Unix(), userID)
}

// SetAlertsEnabled toggles alerts for a user.
func (r *SQLiteRepo) SetAlertsEnabled(ctx context.Context, userID int64, enabled bool) error {
	return r.update(ctx, `UPDATE users SET enabled = ?, updated_at = ? WHERE user_id = ?`,
		boolToInt(enabled), r.now().UTC().Unix(), userID)
}

// UpdateAlertSent records a delivered alert. The counter is incremented in
// place so a concurrent preference update cannot be lost.
func (r *SQLiteRepo) UpdateAlertSent(ctx context.Context, userID int64, at time.Time) error {
	return r.update(ctx, `
		UPDATE users
		SET last_alert_sent_at = ?, total_alerts_sent = total_alerts_sent + 1
		WHERE user_id = ?`,
		at.UTC().Unix(), userID)
}

func (r *SQLiteRepo) update(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DistinctPincodesWithAlerts lists pincodes having at least one user with
// alerts enabled, in ascending order.
func (r *SQLiteRepo) DistinctPincodesWithAlerts(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT pincode
		FROM users
		WHERE pincode IS NOT NULL AND enabled = 1
		ORDER BY pincode ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// UsersWithAlerts returns users subscribed to pincode with alerts enabled.
func (r *SQLiteRepo) UsersWithAlerts(ctx context.Context, pincode string) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE pincode = ? AND enabled = 1
		ORDER BY user_id ASC`,
		pincode,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Stats aggregates directory counters.
func (r *SQLiteRepo) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(enabled), 0),
			COUNT(DISTINCT CASE WHEN enabled = 1 THEN pincode END),
			COALESCE(SUM(total_alerts_sent), 0)
		FROM users`,
	).Scan(&s.Users, &s.AlertsEnabled, &s.Pincodes, &s.AlertsSent)
	return s, err
}
