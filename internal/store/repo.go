package store

import (
	"context"
	"errors"
	"time"

	"github.com/ykvlv/cowin-alert-bot/internal/domain"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

// Stats is an aggregate view of the directory for maintainers.
type Stats struct {
	Users         int
	AlertsEnabled int
	Pincodes      int
	AlertsSent    int
}

// Repo is the user directory: preferences and alert state per user.
// Every mutation is a single-row statement, so concurrent writers never
// overwrite each other's columns.
type Repo interface {
	GetOrCreateUser(ctx context.Context, userID, chatID int64) (u *domain.User, created bool, err error)
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	SetPincode(ctx context.Context, userID int64, pincode string) error
	SetAgePreference(ctx context.Context, userID int64, pref domain.AgePreference) error
	SetAlertsEnabled(ctx context.Context, userID int64, enabled bool) error
	DistinctPincodesWithAlerts(ctx context.Context) ([]string, error)
	UsersWithAlerts(ctx context.Context, pincode string) ([]domain.User, error)
	UpdateAlertSent(ctx context.Context, userID int64, at time.Time) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}
