package dates

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a timezone-naive calendar date. Transaction and statement
// dates are stored as YYYY-MM-DD strings and must never pass through a
// UTC-assuming parser, otherwise they can shift across a statement
// close boundary.
type Date struct {
	Year  int
	Month int
	Day   int
}

var ErrInvalidDate = fmt.Errorf("invalid date")

// Parse splits a YYYY-MM-DD string into calendar components.
func Parse(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > DaysInMonth(year, month) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	return Date{Year: year, Month: month, Day: day}, nil
}

// MustParse is for tests and compile-time-known constants.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Today returns the current wall-clock calendar date.
func Today() Date {
	now := time.Now()
	return Date{Year: now.Year(), Month: int(now.Month()), Day: now.Day()}
}

// FromTime drops the time-of-day and location from t.
func FromTime(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// MarshalJSON encodes the date as its YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a YYYY-MM-DD string; empty means the zero date.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Compare returns -1, 0 or 1 ordering d against other.
func (d Date) Compare(other Date) int {
	if d.Year != other.Year {
		return sign(d.Year - other.Year)
	}
	if d.Month != other.Month {
		return sign(d.Month - other.Month)
	}
	return sign(d.Day - other.Day)
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }

// AddDays walks the calendar by n days (n may be negative).
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return FromTime(t)
}

// AddMonths moves n months forward, clamping the day to the target
// month's length (Jan 31 + 1 month = Feb 28/29).
func (d Date) AddMonths(n int) Date {
	total := d.Year*12 + (d.Month - 1) + n
	year := total / 12
	month := total%12 + 1
	day := d.Day
	if limit := DaysInMonth(year, month); day > limit {
		day = limit
	}
	return Date{Year: year, Month: month, Day: day}
}

// DaysBetween returns b - a in calendar days.
func DaysBetween(a, b Date) int {
	at := time.Date(a.Year, time.Month(a.Month), a.Day, 0, 0, 0, 0, time.UTC)
	bt := time.Date(b.Year, time.Month(b.Month), b.Day, 0, 0, 0, 0, time.UTC)
	return int(bt.Sub(at).Hours() / 24)
}

// DaysInMonth returns the length of the given month.
func DaysInMonth(year, month int) int {
	// Day 0 of the next month is the last day of this one.
	t := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	return t.Day()
}

// ClampDay fits a nominal day-of-month (e.g. a close day of 31) into
// the given month.
func ClampDay(year, month, day int) Date {
	if limit := DaysInMonth(year, month); day > limit {
		day = limit
	}
	if day < 1 {
		day = 1
	}
	return Date{Year: year, Month: month, Day: day}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
