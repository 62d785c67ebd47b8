// Package recurrence computes when a recurring transaction happens next.
//
// Calendar-month and calendar-year steps keep the day of month when the
// target month has it and clamp to the target month's last day otherwise:
// Jan 31 + 1 month is Feb 28 (Feb 29 in leap years), Feb 29 + 1 year is
// Feb 28. This differs from time.AddDate, which would roll Jan 31 into March.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"fintrack/internal/models"
)

var (
	// ErrInvalidFrequency is returned for an empty or unknown frequency.
	ErrInvalidFrequency = errors.New("invalid recurrence frequency")
	// ErrMissingTimestamp is returned when the current timestamp is the zero time.
	ErrMissingTimestamp = errors.New("missing recurrence timestamp")
)

// NextOccurrence returns the occurrence following current for the given
// frequency. It has no side effects and is safe for concurrent use.
func NextOccurrence(current time.Time, frequency models.RecurrenceFrequency) (time.Time, error) {
	if frequency == "" {
		return time.Time{}, ErrInvalidFrequency
	}
	if current.IsZero() {
		return time.Time{}, ErrMissingTimestamp
	}

	switch frequency {
	case models.FrequencyDaily:
		return current.AddDate(0, 0, 1), nil
	case models.FrequencyWeekly:
		return current.AddDate(0, 0, 7), nil
	case models.FrequencyMonthly:
		return addMonthsClamped(current, 1), nil
	case models.FrequencyYearly:
		return addMonthsClamped(current, 12), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, frequency)
	}
}

// Validate checks the recurring flag against the frequency: a recurring
// entry needs a known frequency and a one-off entry must not carry one.
func Validate(isRecurring bool, frequency *models.RecurrenceFrequency) error {
	if !isRecurring {
		if frequency != nil && *frequency != "" {
			return fmt.Errorf("%w: frequency set on a non-recurring transaction", ErrInvalidFrequency)
		}
		return nil
	}
	if frequency == nil {
		return fmt.Errorf("%w: recurring transaction needs a frequency", ErrInvalidFrequency)
	}
	if !Supported(*frequency) {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, *frequency)
	}
	return nil
}

// Supported reports whether NextOccurrence understands f.
func Supported(f models.RecurrenceFrequency) bool {
	switch f {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly, models.FrequencyYearly:
		return true
	}
	return false
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := daysIn(firstOfTarget.Year(), firstOfTarget.Month(), t.Location())
	if day > lastDay {
		day = lastDay
	}
	hour, min, sec := t.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
