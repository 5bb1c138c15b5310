package shared

import (
	"errors"
	"fmt"
	"time"
)

// Period is an inclusive reporting date range. Quarterly and annual
// returns use the same shape; only the span differs.
type Period struct {
	Start time.Time
	End   time.Time
}

// ErrInvalidPeriod indicates an incoherent reporting range.
var ErrInvalidPeriod = errors.New("shared: period start must not be after end")

// NewPeriod builds a period from inclusive bounds, truncated to dates.
func NewPeriod(start, end time.Time) (Period, error) {
	p := Period{Start: dateOnly(start), End: dateOnly(end)}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Validate checks the range is usable.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return errors.New("shared: period bounds required")
	}
	if p.Start.After(p.End) {
		return ErrInvalidPeriod
	}
	return nil
}

// Days returns the inclusive length of the period in days.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// Contains reports whether t falls inside the inclusive range.
func (p Period) Contains(t time.Time) bool {
	d := dateOnly(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// String renders the range for logs and error messages.
func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
