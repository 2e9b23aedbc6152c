package core

import (
	"fmt"
	"strconv"
	"time"
)

// Month is a calendar month without a day component. Its textual form is the
// zero-padded "YYYY-MM" token used on the wire.
type Month struct {
	Year  int
	Month time.Month
}

// MaxMonth is the last month with a four-digit token. Add can move past it,
// but the result no longer round-trips through ParseMonth.
var MaxMonth = Month{Year: 9999, Month: time.December}

// ParseMonth parses a strict "YYYY-MM" token.
func ParseMonth(token string) (Month, error) {
	if len(token) != 7 || token[4] != '-' {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, token)
	}
	for i, c := range token {
		if i != 4 && (c < '0' || c > '9') {
			return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, token)
		}
	}
	y, err := strconv.Atoi(token[:4])
	if err != nil || y < 1 {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, token)
	}
	m, err := strconv.Atoi(token[5:])
	if err != nil || m < 1 || m > 12 {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, token)
	}
	return Month{Year: y, Month: time.Month(m)}, nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Index counts months since year 0, so that consecutive months differ by one.
func (m Month) Index() int {
	return m.Year*12 + int(m.Month) - 1
}

// Add moves the month by offset calendar months, rolling the year as needed.
// Callers projecting forward check the result against MaxMonth.
func (m Month) Add(offset int) Month {
	idx := m.Index() + offset
	y, mo := idx/12, idx%12
	if mo < 0 {
		y--
		mo += 12
	}
	return Month{Year: y, Month: time.Month(mo + 1)}
}

// Start returns the first instant of the month in UTC.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// AdvanceMonth returns the token offset months after token.
func AdvanceMonth(token string, offset int) (string, error) {
	m, err := ParseMonth(token)
	if err != nil {
		return "", err
	}
	return m.Add(offset).String(), nil
}
