package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePincode(t *testing.T) {
	cases := map[string]string{
		"560001":            "560001",
		"  560001 ":         "560001",
		"pincode 560001":    "560001",
		"PINCODE560001":     "560001",
		"/pincode 110011":   "110011",
		"/PinCode   400050": "400050",
	}
	for in, want := range cases {
		got, err := ParsePincode(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "56000", "5600012", "abc123", "pincode", "560 001"} {
		_, err := ParsePincode(in)
		require.True(t, errors.Is(err, ErrInvalidPincode), in)
	}
}

func TestValidPincode(t *testing.T) {
	require.True(t, ValidPincode("560001"))
	require.False(t, ValidPincode("56000a"))
	require.False(t, ValidPincode("5600011"))
	require.False(t, ValidPincode(""))
}

func TestParseAgePreference(t *testing.T) {
	cases := map[string]AgePreference{
		"18":   Age18Plus,
		"18+":  Age18Plus,
		" 45 ": Age45Plus,
		"45+":  Age45Plus,
		"Any":  AgeAny,
		"both": AgeAny,
	}
	for in, want := range cases {
		got, err := ParseAgePreference(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseAgePreference("60")
	require.ErrorIs(t, err, ErrInvalidAgePreference)
}

func TestAgePreferenceString(t *testing.T) {
	require.Equal(t, "18+", Age18Plus.String())
	require.Equal(t, "45+", Age45Plus.String())
	require.Equal(t, "Both", AgeAny.String())
	require.Equal(t, "Both", AgeUnknown.String())
}

func TestIsDisableText(t *testing.T) {
	require.True(t, IsDisableText("stop"))
	require.True(t, IsDisableText(" Pause "))
	require.True(t, IsDisableText("DISABLE"))
	require.False(t, IsDisableText("don't stop me now"))
}
