package domain

// AgeThreshold maps a preference to the provider's min_age_limit value.
// ok is false for preferences that do not narrow results.
func AgeThreshold(p AgePreference) (limit int, ok bool) {
	switch p {
	case Age18Plus:
		return 18, true
	case Age45Plus:
		return 45, true
	default:
		return 0, false
	}
}

// FilterAvailable keeps only centers with at least one open session.
func FilterAvailable(centers []VaccinationCenter) []VaccinationCenter {
	var out []VaccinationCenter
	for _, c := range centers {
		if c.HasAvailableSessions() {
			out = append(out, c)
		}
	}
	return out
}

// FilterByAge narrows centers to sessions whose min age equals the preference
// threshold exactly. Unknown and Any preferences return the input as is.
// Centers left without an open session are dropped. The input is never modified.
func FilterByAge(p AgePreference, centers []VaccinationCenter) []VaccinationCenter {
	limit, ok := AgeThreshold(p)
	if !ok {
		return centers
	}

	var out []VaccinationCenter
	for _, c := range centers {
		var kept []Session
		for _, s := range c.Sessions {
			if s.MinAgeLimit == limit {
				kept = append(kept, s)
			}
		}
		nc := VaccinationCenter{
			Name:      c.Name,
			BlockName: c.BlockName,
			FeeType:   c.FeeType,
			Sessions:  kept,
		}
		if nc.HasAvailableSessions() {
			out = append(out, nc)
		}
	}
	return out
}
