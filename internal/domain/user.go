package domain

import "time"

// AgePreference is the minimum-age bracket a user wants alerts for.
type AgePreference int

const (
	AgeUnknown AgePreference = iota // not configured yet
	Age18Plus
	Age45Plus
	AgeAny
)

// String renders the preference the way it is shown to users.
func (p AgePreference) String() string {
	switch p {
	case Age18Plus:
		return "18+"
	case Age45Plus:
		return "45+"
	default:
		return "Both"
	}
}

// Valid reports whether p is one of the declared preferences.
func (p AgePreference) Valid() bool {
	return p >= AgeUnknown && p <= AgeAny
}

// User represents a subscriber and their alert state.
type User struct {
	UserID          int64         // Telegram user id, stable handle
	ChatID          int64         // delivery destination
	Pincode         string        // empty until set
	AgePreference   AgePreference //
	AlertsEnabled   bool
	LastAlertSentAt time.Time // UTC, creation time until the first alert
	TotalAlertsSent int
	CreatedAt       time.Time // UTC
	UpdatedAt       time.Time // UTC
}

// Actionable reports whether the scheduler may alert this user at all.
func (u *User) Actionable() bool {
	return u.AlertsEnabled && u.Pincode != "" && u.AgePreference != AgeUnknown && u.AgePreference.Valid()
}
