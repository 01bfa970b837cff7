package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// helper: a center with sessions given as (minAge, capacity) pairs
func center(name string, sessions ...[2]int) VaccinationCenter {
	c := VaccinationCenter{Name: name, BlockName: "Block", FeeType: FeeFree}
	for _, s := range sessions {
		c.Sessions = append(c.Sessions, Session{
			Date:              "20-05-2021",
			MinAgeLimit:       s[0],
			AvailableCapacity: s[1],
			Vaccine:           "COVISHIELD",
		})
	}
	return c
}

func sampleCenters() []VaccinationCenter {
	return []VaccinationCenter{
		center("A", [2]int{18, 5}, [2]int{45, 3}),
		center("B", [2]int{45, 0}, [2]int{45, 2}),
		center("C", [2]int{18, 0}),
		center("D", [2]int{18, 1}, [2]int{45, 0}),
	}
}

func TestFilterByAge_ExactThreshold(t *testing.T) {
	for _, p := range []AgePreference{Age18Plus, Age45Plus} {
		limit, ok := AgeThreshold(p)
		require.True(t, ok)

		got := FilterByAge(p, sampleCenters())
		require.NotEmpty(t, got)
		for _, c := range got {
			require.NotEmpty(t, c.Sessions)
			for _, s := range c.Sessions {
				require.Equal(t, limit, s.MinAgeLimit, "pref %s center %s", p, c.Name)
			}
		}
	}
}

func TestFilterByAge_DropsCentersWithoutOpenSessions(t *testing.T) {
	got := FilterByAge(Age45Plus, sampleCenters())
	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
	}
	// D only has a full 45+ session; C has no 45+ sessions at all.
	require.Equal(t, []string{"A", "B"}, names)
}

func TestFilterByAge_IdentityForUnsetAndAny(t *testing.T) {
	in := sampleCenters()
	require.Equal(t, in, FilterByAge(AgeUnknown, in))
	require.Equal(t, in, FilterByAge(AgeAny, in))
	require.Nil(t, FilterByAge(AgeAny, nil))
}

func TestFilterByAge_DoesNotMutateInput(t *testing.T) {
	in := sampleCenters()
	before := sampleCenters()

	_ = FilterByAge(Age18Plus, in)
	_ = FilterByAge(Age45Plus, in)

	require.Equal(t, before, in)
}

func TestFilterAvailable(t *testing.T) {
	once := FilterAvailable(sampleCenters())
	require.Len(t, once, 3)
	for _, c := range once {
		require.True(t, c.HasAvailableSessions())
	}

	twice := FilterAvailable(once)
	require.Equal(t, once, twice)

	require.Empty(t, FilterAvailable([]VaccinationCenter{center("Z", [2]int{18, 0})}))
}

func TestAvailableSessions(t *testing.T) {
	c := center("A", [2]int{18, 0}, [2]int{45, 4})
	got := c.AvailableSessions()
	require.Len(t, got, 1)
	require.Equal(t, 45, got[0].MinAgeLimit)
	require.Len(t, c.Sessions, 2)
}
