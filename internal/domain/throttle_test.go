package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShouldNotify_18PlusNeverThrottled(t *testing.T) {
	now := time.Date(2021, time.May, 20, 10, 0, 0, 0, time.UTC)
	for _, last := range []time.Time{now, now.Add(-time.Second), now.Add(time.Hour)} {
		u := &User{AgePreference: Age18Plus, LastAlertSentAt: last}
		require.True(t, ShouldNotify(u, now))
	}
}

func TestShouldNotify_HourBoundary(t *testing.T) {
	now := time.Date(2021, time.May, 20, 10, 0, 0, 0, time.UTC)

	for _, p := range []AgePreference{Age45Plus, AgeAny, AgeUnknown} {
		u := &User{AgePreference: p, LastAlertSentAt: now.Add(-59 * time.Minute)}
		require.False(t, ShouldNotify(u, now), "pref %s at 59m", p)

		u.LastAlertSentAt = now.Add(-60 * time.Minute)
		require.True(t, ShouldNotify(u, now), "pref %s at 60m", p)

		u.LastAlertSentAt = now.Add(-3 * time.Hour)
		require.True(t, ShouldNotify(u, now), "pref %s at 3h", p)
	}
}

func TestUserActionable(t *testing.T) {
	ok := User{AlertsEnabled: true, Pincode: "560001", AgePreference: Age45Plus}
	require.True(t, ok.Actionable())

	noPin := ok
	noPin.Pincode = ""
	require.False(t, noPin.Actionable())

	noAge := ok
	noAge.AgePreference = AgeUnknown
	require.False(t, noAge.Actionable())

	disabled := ok
	disabled.AlertsEnabled = false
	require.False(t, disabled.Actionable())

	bogus := ok
	bogus.AgePreference = AgePreference(42)
	require.False(t, bogus.Actionable())
}
