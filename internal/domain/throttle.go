package domain

import "time"

// MinAlertGap is the minimum time between alerts for throttled brackets.
const MinAlertGap = time.Hour

// ShouldNotify decides whether u may receive another alert at now.
// 18+ subscribers are never throttled; every other bracket waits MinAlertGap
// since the last alert (boundary inclusive). The caller updates
// LastAlertSentAt only after a successful delivery.
func ShouldNotify(u *User, now time.Time) bool {
	if u.AgePreference == Age18Plus {
		return true
	}
	return now.Sub(u.LastAlertSentAt) >= MinAlertGap
}
