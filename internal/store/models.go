package store

import (
	"database/sql"
	"time"

	"github.com/ykvlv/cowin-alert-bot/internal/domain"
)

const userColumns = `user_id, chat_id, pincode, age_pref, enabled,
	last_alert_sent_at, total_alerts_sent, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*domain.User, error) {
	var (
		u          domain.User
		pincode    sql.NullString
		agePref    int
		enabledInt int
		lastSent   int64
		createdAt  int64
		updatedAt  int64
	)
	if err := s.Scan(
		&u.UserID, &u.ChatID, &pincode, &agePref, &enabledInt,
		&lastSent, &u.TotalAlertsSent, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	u.Pincode = pincode.String
	u.AgePreference = domain.AgePreference(agePref)
	u.AlertsEnabled = enabledInt != 0
	u.LastAlertSentAt = fromUnix(lastSent)
	u.CreatedAt = fromUnix(createdAt)
	u.UpdatedAt = fromUnix(updatedAt)
	return &u, nil
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func fromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
