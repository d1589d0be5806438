package automation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Guidantas28/blog-generator/internal/database"
)

// Frequency is how often an automation produces a post.
type Frequency string

const (
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
)

// Frequencies lists the accepted values in display order.
var Frequencies = []Frequency{Weekly, Biweekly, Monthly}

// IntervalDays returns the minimum whole days between completed runs, or 0
// for an unknown frequency.
func (f Frequency) IntervalDays() int {
	switch f {
	case Weekly:
		return 7
	case Biweekly:
		return 14
	case Monthly:
		return 30
	}
	return 0
}

// ParseFrequency validates a stored or user-supplied frequency.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if f.IntervalDays() == 0 {
		return "", fmt.Errorf("unknown frequency %q (want weekly, biweekly or monthly)", s)
	}
	return f, nil
}

// ShouldRun reports whether an automation is due. Without a completed run it
// is always due; otherwise whole days since that run's start must reach the
// frequency interval. Unknown frequencies are never due.
func ShouldRun(frequency Frequency, lastCompleted *time.Time, now time.Time) bool {
	if lastCompleted == nil {
		return true
	}
	interval := frequency.IntervalDays()
	if interval == 0 {
		return false
	}
	daysSince := int(now.Sub(*lastCompleted) / (24 * time.Hour))
	return daysSince >= interval
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts an English weekday name in any case.
func ParseWeekday(s string) (time.Weekday, error) {
	d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return d, nil
}

// ValidateSetting checks an automation before it is stored. Selected days,
// when given, must be distinct weekdays and match days_per_week.
func ValidateSetting(s database.AutomationSetting) error {
	var errs []error
	if strings.TrimSpace(s.SiteID) == "" {
		errs = append(errs, errors.New("site is required"))
	}
	if strings.TrimSpace(s.BusinessCategory) == "" {
		errs = append(errs, errors.New("business category is required"))
	}
	if _, err := ParseFrequency(s.Frequency); err != nil {
		errs = append(errs, err)
	}
	if s.DaysPerWeek < 1 || s.DaysPerWeek > 7 {
		errs = append(errs, fmt.Errorf("days per week must be between 1 and 7, got %d", s.DaysPerWeek))
	}

	if len(s.SelectedDays) > 0 {
		seen := make(map[time.Weekday]bool)
		for _, name := range s.SelectedDays {
			d, err := ParseWeekday(name)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if seen[d] {
				errs = append(errs, fmt.Errorf("weekday %q selected twice", name))
			}
			seen[d] = true
		}
		if len(s.SelectedDays) != s.DaysPerWeek {
			errs = append(errs, fmt.Errorf("%d days selected but days per week is %d", len(s.SelectedDays), s.DaysPerWeek))
		}
	}

	return errors.Join(errs...)
}
