// Package period derives billing periods and academic years from dates.
package period

import (
	"fmt"
	"regexp"
	"time"

	"github.com/pkg/errors"
)

// AcademicYearStart is the first month of an academic year.
const AcademicYearStart = time.August

var academicYearRegex = regexp.MustCompile(`^\d{4}/\d{4}$`)

// AcademicYear returns the "YYYY/YYYY" academic year t falls in.
// Dates before August belong to the academic year that started the previous calendar year.
func AcademicYear(t time.Time) string {
	year := t.Year()
	if t.Month() >= AcademicYearStart {
		return fmt.Sprintf("%d/%d", year, year+1)
	}
	return fmt.Sprintf("%d/%d", year-1, year)
}

// IsValidAcademicYear reports whether s has the "YYYY/YYYY" format.
func IsValidAcademicYear(s string) bool {
	return academicYearRegex.MatchString(s)
}

var (
	ErrInvalidMonth = errors.New("month must be between 1 and 12")
	ErrInvalidYear  = errors.New("year must be a four-digit year")
)

// Key identifies the billing cycle of an obligation.
type Key struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func NewKey(month, year int) Key {
	return Key{Month: month, Year: year}
}

// KeyOf returns the period t falls in, in UTC.
func KeyOf(t time.Time) Key {
	t = t.UTC()
	return Key{Month: int(t.Month()), Year: t.Year()}
}

func (k Key) Validate() error {
	if k.Month < 1 || k.Month > 12 {
		return ErrInvalidMonth
	}
	if k.Year < 1000 || k.Year > 9999 {
		return ErrInvalidYear
	}
	return nil
}

// MonthName returns the English name of the month, e.g. "June".
func (k Key) MonthName() string {
	return time.Month(k.Month).String()
}

// Bounds returns the [start, end) UTC instants of the calendar month.
func (k Key) Bounds() (start, end time.Time) {
	start = time.Date(k.Year, time.Month(k.Month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Contains reports whether t falls within the calendar month.
func (k Key) Contains(t time.Time) bool {
	start, end := k.Bounds()
	t = t.UTC()
	return !t.Before(start) && t.Before(end)
}

func (k Key) String() string {
	return fmt.Sprintf("%s %d", k.MonthName(), k.Year)
}
