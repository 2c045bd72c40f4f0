package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is one of the five school days a substitution plan is published for.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
)

// Weekdays lists all school days in order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// German names, as used in the plan URLs and in messages to subscribers.
var weekdayLocalNames = [...]string{"Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag"}

// FromCalendarDay maps a calendar day onto a school day.
// Saturday, Sunday and anything unrecognized fall back to Monday.
func FromCalendarDay(day time.Weekday) Weekday {
	switch day {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	default:
		return Monday
	}
}

// IsSchoolDay reports whether the calendar day has its own plan.
func IsSchoolDay(day time.Weekday) bool {
	return day >= time.Monday && day <= time.Friday
}

// Next returns the following school day, wrapping Friday to Monday.
func (w Weekday) Next() Weekday {
	if w >= Friday || w < Monday {
		return Monday
	}
	return w + 1
}

// Valid reports whether w is one of the five school days.
func (w Weekday) Valid() bool {
	return w >= Monday && w <= Friday
}

func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// LocalName returns the German day name.
func (w Weekday) LocalName() string {
	if !w.Valid() {
		return w.String()
	}
	return weekdayLocalNames[w]
}

// ParseWeekday accepts the English or German day name, case-insensitive.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.TrimSpace(s)
	for _, w := range Weekdays {
		if strings.EqualFold(s, weekdayNames[w]) || strings.EqualFold(s, weekdayLocalNames[w]) {
			return w, nil
		}
	}
	return 0, fmt.Errorf("unknown school weekday %q", s)
}

func (w Weekday) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", int(w))
	}
	return []byte(w.String()), nil
}

func (w *Weekday) UnmarshalText(text []byte) error {
	parsed, err := ParseWeekday(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
