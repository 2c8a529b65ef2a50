// Package dates converts between user-entered dates, API path segments, sortable keys
// and the Spanish display formats used in the rates table.
//
// Every rendering projects the instant onto a fixed UTC-3 civil time (Argentina, which
// has no daylight saving) by shifting it three hours back and reading the UTC fields.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/username/dolarhistorico/src/apperrors"
)

// Offset is the fixed civil-time offset applied before reading date fields.
const Offset = -3 * time.Hour

// Mode selects one of the textual representations produced by Format.
type Mode int

const (
	ModeKey      Mode = iota // 2024-03-15
	ModeAPI                  // 2024/03/15
	ModeShort                // 15/03/2024
	ModeVerbose              // viernes 15 de marzo de 2024
	ModeLabel                // Vie 15/03/2024
	ModeDateTime             // 15/03/24 23:00:00
	ModeLong                 // viernes 15/03/2024 23:00:00
)

const (
	layoutKey      = "2006-01-02"
	layoutAPI      = "2006/01/02"
	layoutShort    = "02/01/2006"
	layoutDateTime = "02/01/06 15:04:05"
	layoutTime     = "15:04:05"
)

var weekdayNames = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

var weekdayAbbr = [...]string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// Shift returns t projected onto civil time, expressed in UTC so that its fields can be read directly.
func Shift(t time.Time) time.Time {
	return t.UTC().Add(Offset)
}

// Format renders t in the requested mode.
func Format(t time.Time, mode Mode) string {
	s := Shift(t)
	switch mode {
	case ModeKey:
		return s.Format(layoutKey)
	case ModeAPI:
		return s.Format(layoutAPI)
	case ModeShort:
		return s.Format(layoutShort)
	case ModeVerbose:
		return fmt.Sprintf("%s %d de %s de %d", weekdayNames[s.Weekday()], s.Day(), monthNames[s.Month()-1], s.Year())
	case ModeLabel:
		return weekdayAbbr[s.Weekday()] + " " + s.Format(layoutShort)
	case ModeDateTime:
		return s.Format(layoutDateTime)
	case ModeLong:
		return weekdayNames[s.Weekday()] + " " + s.Format(layoutShort) + " " + s.Format(layoutTime)
	default:
		return s.Format(time.RFC3339)
	}
}

// FormatDate renders a civil date in the requested mode.
func FormatDate(d civil.Date, mode Mode) string {
	return Format(Instant(d), mode)
}

// Civil returns the civil date t falls on.
func Civil(t time.Time) civil.Date {
	return civil.DateOf(Shift(t))
}

// Instant returns the instant at which the civil date d begins.
func Instant(d civil.Date) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Add(-Offset)
}

// FromWallClock interprets the date and clock fields of wall as civil time and
// returns the matching instant. Any location attached to wall is ignored.
func FromWallClock(wall time.Time) time.Time {
	naive := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), time.UTC)
	return naive.Add(-Offset)
}

// Today returns the civil date of now.
func Today(now time.Time) civil.Date {
	return Civil(now)
}

// ParseUserDate parses dd/mm, dd/mm/yy, dd/mm/yyyy and their dash-separated variants.
// A missing year defaults to the civil year of now; two-digit years map to 2000+yy.
func ParseUserDate(text string, now time.Time) (civil.Date, error) {
	trimmed := strings.TrimSpace(text)
	parts := strings.Split(strings.ReplaceAll(trimmed, "-", "/"), "/")
	if len(parts) != 2 && len(parts) != 3 {
		return civil.Date{}, fmt.Errorf("%w: date '%s' must have day, month and optional year", apperrors.ErrFormat, text)
	}

	day, err := parseDigits(parts[0])
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: invalid day in '%s'", apperrors.ErrFormat, text)
	}
	month, err := parseDigits(parts[1])
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: invalid month in '%s'", apperrors.ErrFormat, text)
	}

	year := Civil(now).Year
	if len(parts) == 3 {
		raw := strings.TrimSpace(parts[2])
		y, err := parseDigits(raw)
		if err != nil {
			return civil.Date{}, fmt.Errorf("%w: invalid year in '%s'", apperrors.ErrFormat, text)
		}
		switch len(raw) {
		case 2:
			year = 2000 + y
		case 4:
			year = y
		default:
			return civil.Date{}, fmt.Errorf("%w: year in '%s' must have 2 or 4 digits", apperrors.ErrFormat, text)
		}
	}

	d := civil.Date{Year: year, Month: time.Month(month), Day: day}
	if !d.IsValid() {
		return civil.Date{}, fmt.Errorf("%w: '%s' is not a calendar date", apperrors.ErrFormat, text)
	}
	return d, nil
}

// ParseKey parses a sortable yyyy-mm-dd key.
func ParseKey(s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: invalid date key '%s'", apperrors.ErrFormat, s)
	}
	return d, nil
}

// ParseLabel extracts the civil date from a day label ("Vie 15/03/2024"), a short
// date ("15/03/2024") or a sortable key.
func ParseLabel(s string) (civil.Date, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return civil.Date{}, fmt.Errorf("%w: empty day label", apperrors.ErrFormat)
	}
	last := fields[len(fields)-1]
	if t, err := time.Parse(layoutShort, last); err == nil {
		return civil.DateOf(t), nil
	}
	return ParseKey(last)
}

func parseDigits(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not a number: %s", s)
		}
	}
	return strconv.Atoi(s)
}
