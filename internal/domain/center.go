package domain

// FeeType tells whether a center charges for vaccination.
type FeeType string

const (
	FeeFree FeeType = "Free"
	FeePaid FeeType = "Paid"
)

// Session is a single day's vaccination offering at a center.
type Session struct {
	Date              string // DD-MM-YYYY
	AvailableCapacity int
	MinAgeLimit       int
	Vaccine           string
	Slots             []string
}

// Available reports whether the session has open capacity.
func (s Session) Available() bool {
	return s.AvailableCapacity > 0
}

// VaccinationCenter is a read-only snapshot returned by the slot provider.
// Values are shared between users within one cycle and must not be modified;
// filters build new centers instead.
type VaccinationCenter struct {
	Name      string
	BlockName string
	FeeType   FeeType
	Sessions  []Session
}

// Paid reports whether the center charges a fee.
func (c VaccinationCenter) Paid() bool {
	return c.FeeType == FeePaid
}

// HasAvailableSessions reports whether any session has open capacity.
func (c VaccinationCenter) HasAvailableSessions() bool {
	for _, s := range c.Sessions {
		if s.Available() {
			return true
		}
	}
	return false
}

// AvailableSessions returns a new slice holding only sessions with capacity.
func (c VaccinationCenter) AvailableSessions() []Session {
	var out []Session
	for _, s := range c.Sessions {
		if s.Available() {
			out = append(out, s)
		}
	}
	return out
}
