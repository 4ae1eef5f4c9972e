package booking

import (
	"fmt"
	"time"

	"github.com/DriveNow-Rental/service-booking/pkg/domain"
)

// DateLayout is the wire format for rental dates.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar days, stored as UTC midnights
// of the dates as given.
type DateRange struct {
	start time.Time
	end   time.Time
}

// NewDateRange validates and normalizes a range. start must not be after end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.IsZero() || end.IsZero() {
		return DateRange{}, domain.NewValidationError("start and end dates are required")
	}
	s, e := truncateDay(start), truncateDay(end)
	if s.After(e) {
		return DateRange{}, domain.NewValidationError(
			fmt.Sprintf("start date %s is after end date %s", s.Format(DateLayout), e.Format(DateLayout)))
	}
	return DateRange{start: s, end: e}, nil
}

// ParseDateRange parses two YYYY-MM-DD strings.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, domain.NewValidationError(fmt.Sprintf("invalid start date %q", start))
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, domain.NewValidationError(fmt.Sprintf("invalid end date %q", end))
	}
	return NewDateRange(s, e)
}

// Start returns the first rental day.
func (r DateRange) Start() time.Time { return r.start }

// End returns the last rental day.
func (r DateRange) End() time.Time { return r.end }

// Days returns the number of rental days, counting both ends.
func (r DateRange) Days() int {
	return int(r.end.Sub(r.start).Hours()/24) + 1
}

// Overlaps reports whether the two inclusive ranges share at least one day.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.start.After(other.end) && !r.end.Before(other.start)
}

// Contains reports whether day falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	d := truncateDay(day)
	return !d.Before(r.start) && !d.After(r.end)
}

func (r DateRange) String() string {
	return r.start.Format(DateLayout) + ".." + r.end.Format(DateLayout)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
