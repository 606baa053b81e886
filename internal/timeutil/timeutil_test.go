package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestampShapes(t *testing.T) {
	want := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	for _, raw := range []string{
		"2026-03-14T09:30",
		"2026-03-14T09:30:00",
		"2026-03-14 09:30:00",
		"2026-03-14T09:30:00Z",
		"2026-03-14T09:30:00+02:00",
		" 2026-03-14T09:30 ",
	} {
		parsed, err := ParseTimestamp(raw)
		require.NoError(t, err, "ParseTimestamp(%q)", raw)
		assert.True(t, parsed.Equal(want), "ParseTimestamp(%q) = %v", raw, parsed)
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "yesterday", "14/03/2026"} {
		_, err := ParseTimestamp(raw)
		assert.Error(t, err, "ParseTimestamp(%q)", raw)
	}
}

func TestParseOptionalTimestamp(t *testing.T) {
	parsed, err := ParseOptionalTimestamp("")
	require.NoError(t, err)
	assert.Nil(t, parsed)

	parsed, err = ParseOptionalTimestamp("2026-03-14T09:30")
	require.NoError(t, err)
	require.NotNil(t, parsed)
}

func TestParseDate(t *testing.T) {
	parsed, err := ParseDate("2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), parsed)

	_, err = ParseDate("03-14-2026")
	assert.Error(t, err)

	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestParseOptionalDate(t *testing.T) {
	parsed, err := ParseOptionalDate("  ")
	require.NoError(t, err)
	assert.Nil(t, parsed)

	parsed, err = ParseOptionalDate("2026-03-14")
	require.NoError(t, err)
	require.NotNil(t, parsed)
}
