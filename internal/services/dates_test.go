package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Wednesday, 2026-09-02.
var dateTestNow = time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)

func TestParseDate(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"today works", "2026-09-02"},
		{"tomorrow", "2026-09-03"},
		{"the day after tomorrow", "2026-09-04"},
		{"friday", "2026-09-04"},
		{"next friday", "2026-09-11"},
		{"wednesday", "2026-09-09"}, // bare weekday means the next one, not today
		{"2026-10-15", "2026-10-15"},
		{"10/15", "2026-10-15"},
		{"15/10", "2026-10-15"}, // day-first when the first number can't be a month
		{"3/5/27", "2027-03-05"},
		{"no date in here", ""},
	}

	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			require.Equal(t, tc.want, parseDate(tc.text, dateTestNow))
		})
	}
}

func TestParseDatePastSlashDateRollsToNextYear(t *testing.T) {
	require.Equal(t, "2027-01-10", parseDate("1/10", dateTestNow))
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"2pm", "14:00"},
		{"2:30pm", "14:30"},
		{"12am", "00:00"},
		{"12pm", "12:00"},
		{"14:30", "14:30"},
		{"at 3", "15:00"}, // bare small hour reads as afternoon
		{"at 10", "10:00"},
		{"no time here", ""},
	}

	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			require.Equal(t, tc.want, parseClock(tc.text))
		})
	}
}

func TestCombineDateTime(t *testing.T) {
	got, err := combineDateTime("2026-09-03", "14:00", time.UTC)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 9, 3, 14, 0, 0, 0, time.UTC), got)
}

func TestFriendlyFormats(t *testing.T) {
	require.Equal(t, "Thursday, Sep 3", friendlyDate("2026-09-03"))
	require.Equal(t, "2:00 PM", friendlyClock("14:00"))
}
