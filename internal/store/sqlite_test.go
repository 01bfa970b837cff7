package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykvlv/cowin-alert-bot/internal/domain"
)

func openTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "data", "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestGetOrCreateUser(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	created := time.Date(2021, time.May, 20, 8, 0, 0, 0, time.UTC)
	repo.now = fixedClock(created)

	u, isNew, err := repo.GetOrCreateUser(ctx, 42, 4200)
	require.NoError(t, err)
	require.True(t, isNew)
	require.Equal(t, int64(42), u.UserID)
	require.Equal(t, int64(4200), u.ChatID)
	require.Empty(t, u.Pincode)
	require.Equal(t, domain.AgeUnknown, u.AgePreference)
	require.False(t, u.AlertsEnabled)
	require.Equal(t, 0, u.TotalAlertsSent)
	require.Equal(t, created, u.CreatedAt)
	require.Equal(t, created, u.LastAlertSentAt, "last alert defaults to creation time")

	repo.now = fixedClock(created.Add(time.Hour))
	again, isNew, err := repo.GetOrCreateUser(ctx, 42, 9999)
	require.NoError(t, err)
	require.False(t, isNew)
	require.Equal(t, int64(4200), again.ChatID)
	require.Equal(t, created, again.CreatedAt)
}

func TestGetUser_NotFound(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.GetUser(context.Background(), 1)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, repo.SetAlertsEnabled(context.Background(), 1, true), ErrNotFound)
}

func TestPreferenceSetters(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	_, _, err := repo.GetOrCreateUser(ctx, 1, 10)
	require.NoError(t, err)

	require.ErrorIs(t, repo.SetPincode(ctx, 1, "12345"), domain.ErrInvalidPincode)
	require.ErrorIs(t, repo.SetAgePreference(ctx, 1, domain.AgePreference(9)), domain.ErrInvalidAgePreference)

	require.NoError(t, repo.SetPincode(ctx, 1, "560001"))
	require.NoError(t, repo.SetAgePreference(ctx, 1, domain.Age45Plus))
	require.NoError(t, repo.SetAlertsEnabled(ctx, 1, true))

	u, err := repo.GetUser(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "560001", u.Pincode)
	require.Equal(t, domain.Age45Plus, u.AgePreference)
	require.True(t, u.AlertsEnabled)
	require.True(t, u.Actionable())

	require.NoError(t, repo.SetAlertsEnabled(ctx, 1, false))
	u, err = repo.GetUser(ctx, 1)
	require.NoError(t, err)
	require.False(t, u.AlertsEnabled)
}

func seed(t *testing.T, repo *SQLiteRepo, userID int64, pincode string, pref domain.AgePreference, enabled bool) {
	t.Helper()
	ctx := context.Background()
	_, _, err := repo.GetOrCreateUser(ctx, userID, userID*10)
	require.NoError(t, err)
	if pincode != "" {
		require.NoError(t, repo.SetPincode(ctx, userID, pincode))
	}
	if pref != domain.AgeUnknown {
		require.NoError(t, repo.SetAgePreference(ctx, userID, pref))
	}
	require.NoError(t, repo.SetAlertsEnabled(ctx, userID, enabled))
}

func TestDistinctPincodesAndUsersWithAlerts(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	seed(t, repo, 1, "560001", domain.Age18Plus, true)
	seed(t, repo, 2, "560001", domain.Age45Plus, true)
	seed(t, repo, 3, "110011", domain.AgeAny, true)
	seed(t, repo, 4, "400050", domain.Age18Plus, false)
	seed(t, repo, 5, "", domain.Age18Plus, true)

	pins, err := repo.DistinctPincodesWithAlerts(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"110011", "560001"}, pins)

	users, err := repo.UsersWithAlerts(ctx, "560001")
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, int64(1), users[0].UserID)
	require.Equal(t, int64(2), users[1].UserID)

	none, err := repo.UsersWithAlerts(ctx, "400050")
	require.NoError(t, err)
	require.Empty(t, none)

	st, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, Stats{Users: 5, AlertsEnabled: 4, Pincodes: 2, AlertsSent: 0}, st)
}

func TestUpdateAlertSent(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	seed(t, repo, 1, "560001", domain.Age18Plus, true)

	at := time.Date(2021, time.May, 20, 9, 30, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateAlertSent(ctx, 1, at))
	require.NoError(t, repo.UpdateAlertSent(ctx, 1, at.Add(time.Minute)))

	u, err := repo.GetUser(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 2, u.TotalAlertsSent)
	require.Equal(t, at.Add(time.Minute), u.LastAlertSentAt)

	require.ErrorIs(t, repo.UpdateAlertSent(ctx, 404, at), ErrNotFound)
}

func TestUpdateAlertSent_ConcurrentWithPreferenceChanges(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	seed(t, repo, 1, "560001", domain.Age18Plus, true)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			assert.NoError(t, repo.UpdateAlertSent(ctx, 1, time.Now()))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			pref := domain.Age18Plus
			if i%2 == 0 {
				pref = domain.Age45Plus
			}
			assert.NoError(t, repo.SetAgePreference(ctx, 1, pref))
		}
	}()
	wg.Wait()

	u, err := repo.GetUser(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, n, u.TotalAlertsSent)
	require.Equal(t, "560001", u.Pincode)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.db")

	repo, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	seed(t, repo, 1, "560001", domain.Age18Plus, true)
	require.NoError(t, repo.Close())

	repo, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer repo.Close()

	u, err := repo.GetUser(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "560001", u.Pincode)
}
