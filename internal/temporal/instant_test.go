package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInstant_AcceptsMultipleShapes(t *testing.T) {
	want := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := map[string]any{
		"rfc3339 with Z":        "2025-03-01T12:00:00Z",
		"rfc3339 with offset":   "2025-03-01T14:00:00+02:00",
		"rfc3339 nano truncate": "2025-03-01T12:00:00.999999Z",
		"naive T separator":     "2025-03-01T12:00:00",
		"naive space separator": "2025-03-01 12:00:00",
		"epoch seconds int64":   int64(1740830400),
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseInstant(input)
			require.NoError(t, err)
			assert.True(t, got.Equal(want), "got %v want %v", got, want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseInstant_DateOnly(t *testing.T) {
	got, err := ParseInstant("2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestParseInstant_RejectsGarbage(t *testing.T) {
	_, err := ParseInstant("not-a-timestamp")
	require.ErrorIs(t, err, ErrBadTimestamp)

	_, err = ParseInstant(struct{}{})
	require.ErrorIs(t, err, ErrBadTimestamp)
}

func TestFormatInstant_CanonicalForm(t *testing.T) {
	in := time.Date(2025, 3, 1, 12, 0, 0, 123456789, time.FixedZone("x", 3600))
	assert.Equal(t, "2025-03-01T11:00:00Z", FormatInstant(in))
	assert.Equal(t, "", FormatInstant(time.Time{}))
}
