package dates

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/dolarhistorico/src/apperrors"
)

var now = time.Date(2024, time.June, 10, 15, 0, 0, 0, time.UTC)

func TestFormatModes(t *testing.T) {
	instant := time.Date(2024, time.March, 15, 2, 0, 0, 0, time.UTC)

	tests := []struct {
		mode     Mode
		expected string
	}{
		{ModeKey, "2024-03-14"},
		{ModeAPI, "2024/03/14"},
		{ModeShort, "14/03/2024"},
		{ModeVerbose, "jueves 14 de marzo de 2024"},
		{ModeLabel, "Jue 14/03/2024"},
		{ModeDateTime, "14/03/24 23:00:00"},
		{ModeLong, "jueves 14/03/2024 23:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Format(instant, tt.mode), "mode %d", tt.mode)
	}
}

func TestFormatIgnoresInputLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	instant := time.Date(2024, time.March, 15, 7, 0, 0, 0, loc) // 02:00Z
	assert.Equal(t, "14/03/24 23:00:00", Format(instant, ModeDateTime))
}

func TestInstantAndCivilRoundTrip(t *testing.T) {
	d := civil.Date{Year: 2023, Month: time.December, Day: 31}
	instant := Instant(d)
	assert.Equal(t, time.Date(2023, time.December, 31, 3, 0, 0, 0, time.UTC), instant)
	assert.Equal(t, d, Civil(instant))
	assert.Equal(t, "2023-12-31", FormatDate(d, ModeKey))
	assert.Equal(t, "domingo 31 de diciembre de 2023", FormatDate(d, ModeVerbose))
}

func TestFromWallClock(t *testing.T) {
	wall := time.Date(2024, time.March, 15, 14, 57, 0, 0, time.UTC)
	instant := FromWallClock(wall)
	assert.Equal(t, time.Date(2024, time.March, 15, 17, 57, 0, 0, time.UTC), instant)
	assert.Equal(t, "15/03/24 14:57:00", Format(instant, ModeDateTime))
}

func TestParseUserDate_RoundTripsAcrossSeparators(t *testing.T) {
	inputs := []string{"05/03/24", "05-03-24", "05/03/2024", "05-03-2024", "05/03-2024", " 5/3/24 "}
	for _, in := range inputs {
		d, err := ParseUserDate(in, now)
		require.NoError(t, err, in)
		assert.Equal(t, "2024-03-05", FormatDate(d, ModeKey), in)
	}
}

func TestParseUserDate_DefaultsToCurrentYear(t *testing.T) {
	d, err := ParseUserDate("01/02", now)
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.February, Day: 1}, d)

	d, err = ParseUserDate("28-12", now)
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.December, Day: 28}, d)
}

func TestParseUserDate_CurrentYearFollowsCivilTime(t *testing.T) {
	newYearUTC := time.Date(2025, time.January, 1, 1, 0, 0, 0, time.UTC) // still 2024 at UTC-3
	d, err := ParseUserDate("31/12", newYearUTC)
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year)
}

func TestParseUserDate_Rejects(t *testing.T) {
	inputs := []string{"", "15", "31/02/2024", "1/2/3/4", "aa/02", "10/13/2024", "10/10/123", "10//2024", "-1/02"}
	for _, in := range inputs {
		_, err := ParseUserDate(in, now)
		require.Error(t, err, in)
		assert.ErrorIs(t, err, apperrors.ErrFormat, in)
	}
}

func TestParseLabel(t *testing.T) {
	d, err := ParseLabel("Vie 15/03/2024")
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.March, Day: 15}, d)

	d, err = ParseLabel("15/03/2024")
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.March, Day: 15}, d)

	d, err = ParseLabel("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.March, Day: 15}, d)

	_, err = ParseLabel("Fecha")
	assert.ErrorIs(t, err, apperrors.ErrFormat)
}
