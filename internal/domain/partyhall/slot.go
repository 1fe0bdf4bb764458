package partyhall

import (
	"fmt"
	"strings"
	"time"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
)

const (
	// EventDuration is the fixed length of every hall reservation.
	EventDuration = 3 * time.Hour
	// DateLayout is the wire format of an event date.
	DateLayout = "2006-01-02"
)

var clockLayouts = []string{"15:04", "15:04:05"}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Slot is a half-open [Start, End) reservation interval.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewSlot returns the fixed-length slot beginning at start.
func NewSlot(start time.Time) Slot {
	return Slot{Start: start, End: start.Add(EventDuration)}
}

// DayWindow returns the whole calendar day of date (UTC) as a slot.
func DayWindow(date time.Time) Slot {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return Slot{Start: start, End: start.AddDate(0, 0, 1)}
}

// Overlaps reports whether two slots share any instant. Touching slots do not overlap.
func (s Slot) Overlaps(other Slot) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

// ParseEventDate parses a YYYY-MM-DD date as UTC midnight.
func ParseEventDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, domain.NewValidationError(fmt.Sprintf("event date %q must be YYYY-MM-DD", s))
	}
	return d, nil
}

// ParseSlot resolves a start time on eventDate. start is either a clock time
// ("18:00") or a full date-time that falls on eventDate.
func ParseSlot(eventDate time.Time, start string) (Slot, error) {
	start = strings.TrimSpace(start)
	for _, layout := range clockLayouts {
		if c, err := time.Parse(layout, start); err == nil {
			at := time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(),
				c.Hour(), c.Minute(), c.Second(), 0, time.UTC)
			return NewSlot(at), nil
		}
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, start); err == nil {
			t = t.UTC()
			if t.Format(DateLayout) != eventDate.Format(DateLayout) {
				return Slot{}, domain.NewValidationError(
					fmt.Sprintf("start time %s is not on event date %s", start, eventDate.Format(DateLayout)))
			}
			return NewSlot(t), nil
		}
	}
	return Slot{}, domain.NewValidationError(fmt.Sprintf("start time %q is not a valid time", start))
}
