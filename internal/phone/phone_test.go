package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partyflow/internal/status"
)

func TestNormalizeEquivalentForms(t *testing.T) {
	inputs := []string{
		"0501234567",
		"050-123-4567",
		"050 123 4567",
		"+972501234567",
		"+972 50-123-4567",
		"  0501234567  ",
	}

	for _, input := range inputs {
		got, err := Normalize(input, "IL")
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, "+972501234567", got, "input %q", input)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	once, err := Normalize("0501234567", "IL")
	require.NoError(t, err)

	twice, err := Normalize(once, "IL")
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestNormalizeForeignNumberKeepsItsCountry(t *testing.T) {
	got, err := Normalize("+14155552671", "IL")
	require.NoError(t, err)
	assert.Equal(t, "+14155552671", got)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "   ", "abc", "not a phone", "123", "05012"} {
		_, err := Normalize(input, "IL")
		assert.ErrorIs(t, err, status.ErrInvalidPhone, "input %q", input)
	}
}
