package automation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Guidantas28/blog-generator/internal/database"
)

func TestShouldRun(t *testing.T) {
	now := time.Date(2026, 3, 31, 9, 0, 0, 0, time.UTC)
	daysAgo := func(d float64) *time.Time {
		t := now.Add(-time.Duration(d * float64(24*time.Hour)))
		return &t
	}

	tests := []struct {
		name string
		freq Frequency
		last *time.Time
		want bool
	}{
		{"never run", Weekly, nil, true},
		{"never run unknown frequency", Frequency("daily"), nil, true},
		{"weekly 6 days", Weekly, daysAgo(6), false},
		{"weekly 6.9 days", Weekly, daysAgo(6.9), false},
		{"weekly 7 days", Weekly, daysAgo(7), true},
		{"biweekly 13 days", Biweekly, daysAgo(13), false},
		{"biweekly 14 days", Biweekly, daysAgo(14), true},
		{"monthly 29 days", Monthly, daysAgo(29), false},
		{"monthly 30 days", Monthly, daysAgo(30), true},
		{"monthly 45 days", Monthly, daysAgo(45), true},
		{"unknown frequency", Frequency("daily"), daysAgo(100), false},
		{"last run in the future", Weekly, daysAgo(-1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRun(tt.freq, tt.last, now))
		})
	}
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency(" Biweekly ")
	require.NoError(t, err)
	assert.Equal(t, Biweekly, f)
	assert.Equal(t, 14, f.IntervalDays())

	_, err = ParseFrequency("daily")
	assert.Error(t, err)
}

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday("Thursday")
	require.NoError(t, err)
	assert.Equal(t, time.Thursday, d)

	_, err = ParseWeekday("funday")
	assert.Error(t, err)
}

func TestValidateSetting(t *testing.T) {
	valid := database.AutomationSetting{
		SiteID:           "site-1",
		BusinessCategory: "padaria",
		DaysPerWeek:      2,
		Frequency:        "weekly",
		SelectedDays:     []string{"monday", "thursday"},
	}
	require.NoError(t, ValidateSetting(valid))

	noDays := valid
	noDays.SelectedDays = nil
	assert.NoError(t, ValidateSetting(noDays))

	bad := valid
	bad.BusinessCategory = " "
	bad.Frequency = "hourly"
	bad.DaysPerWeek = 9
	bad.SelectedDays = []string{"monday", "Monday", "someday"}
	err := ValidateSetting(bad)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "business category is required")
	assert.Contains(t, msg, "unknown frequency")
	assert.Contains(t, msg, "between 1 and 7")
	assert.Contains(t, msg, "selected twice")
	assert.Contains(t, msg, `unknown weekday "someday"`)
}
