package receipt

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const maxDescriptionRunes = 100

// Amount patterns are tried in order; keyword totals win over bare numbers.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:total|итого|сумма|amount|sum)[:\s]+([0-9]+[.,][0-9]{2})`),
	regexp.MustCompile(`(?i)(?:total|итого|сумма|amount)[:\s]+([0-9]+)`),
	regexp.MustCompile(`\b([0-9]{1,3}(?:[,\s][0-9]{3})*[.,][0-9]{2})\b`),
	regexp.MustCompile(`\b([0-9]+[.,][0-9]{2})\b`),
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{2}[./]\d{2}[./]\d{4})`),
	regexp.MustCompile(`(\d{4}[./\-]\d{2}[./\-]\d{2})`),
	regexp.MustCompile(`(\d{2}[./]\d{2}[./]\d{2})`),
}

// Layouts for a matched date after '/' has been normalized to '.'.
var dateLayouts = []string{"02.01.2006", "2006-01-02", "2006.01.02", "02.01.06"}

var numericLine = regexp.MustCompile(`^[\d\s.,]+$`)

// ParseAmount returns the receipt total, or nil when none is found.
func ParseAmount(text string) *float64 {
	for _, re := range amountPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v, ok := parseNumber(m[1]); ok {
			return &v
		}
	}
	return nil
}

// parseNumber reads an amount with optional thousands grouping. When the
// third-to-last character is '.' or ',', it is the decimal separator and any
// other separators are grouping.
func parseNumber(raw string) (float64, bool) {
	s := strings.Join(strings.Fields(raw), "")
	intPart, frac := s, ""
	if n := len(s); n >= 3 && (s[n-3] == '.' || s[n-3] == ',') {
		intPart, frac = s[:n-3], s[n-2:]
	}
	intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)
	if intPart == "" {
		intPart = "0"
	}
	num := intPart
	if frac != "" {
		num += "." + frac
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseDate returns the first recognizable date as YYYY-MM-DD, or nil.
func ParseDate(text string) *string {
	for _, re := range datePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw := strings.ReplaceAll(m[1], "/", ".")
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				s := t.Format(time.DateOnly)
				return &s
			}
		}
	}
	return nil
}

// ParseDescription returns the first meaningful line among the first five
// non-empty lines, falling back to the first line.
func ParseDescription(text string) *string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	head := lines
	if len(head) > 5 {
		head = head[:5]
	}
	for _, l := range head {
		if utf8.RuneCountInString(l) > 3 && !numericLine.MatchString(l) {
			d := truncateRunes(l, maxDescriptionRunes)
			return &d
		}
	}
	d := truncateRunes(lines[0], maxDescriptionRunes)
	return &d
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
