package core

// convert.go provides value conversions for result set cells.
//
// Data sources hand back whatever the driver produced: native integers,
// floats, decimals, times, byte slices or text. Legacy procedures also
// return numbers and dates as formatted strings. These helpers normalize:
//   - Multiple date formats (ISO, day-first, with or without time)
//   - Thousands separators and currency symbols in numbers
//   - Various boolean representations (yes/no, true/false, 1/0, Y/N)
//
// All to* functions report false for null or unparseable values, and the
// Record accessors turn that into a zero value.

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format. Ambiguous layouts are day-first.
var (
	twoDigitYearLayouts = []string{
		"02/01/06", "2/1/06", "02.01.06", "2.1.06",
	}
	fourDigitYearLayouts = []string{
		time.RFC3339Nano, time.RFC3339,
		"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04",
		"2006-01-02", "2006/01/02",
		"02/01/2006 15:04:05", "02/01/2006 15:04", "02/01/2006", "2/1/2006",
		"02.01.2006", "02-01-2006",
		"20060102",
	}
)

// Text renders a cell value for display. Dates are day-first; values
// without a time of day drop it.
func Text(v any) string { return toText(v) }

// Decimal converts a cell value to a decimal, reporting false for null
// or non-numeric values.
func Decimal(v any) (decimal.Decimal, bool) { return toDecimal(v) }

func toText(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("02/01/2006")
		}
		return t.Format("02/01/2006 15:04")
	case *time.Time:
		if t == nil {
			return ""
		}
		return toText(*t)
	}
	return strings.TrimSpace(formatScalar(v))
}

func toInt(v any) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case int:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float32:
		return int64(t), true
	case float64:
		return int64(t), true
	case decimal.Decimal:
		return t.IntPart(), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	d, ok := parseNumber(toText(v))
	if !ok {
		return 0, false
	}
	return d.IntPart(), true
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return t, true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int16:
		return decimal.NewFromInt(int64(t)), true
	case int32:
		return decimal.NewFromInt32(t), true
	case int64:
		return decimal.NewFromInt(t), true
	case float32:
		return decimal.NewFromFloat32(t), true
	case float64:
		return decimal.NewFromFloat(t), true
	}
	return parseNumber(toText(v))
}

// parseNumber handles thousands separators, currency symbols and the
// accounting format (parentheses for negative).
func parseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer(
		"$", "",
		"₪", "", // Shekel
		"€", "", // Euro
		"£", "", // Pound
		",", "",
	).Replace(s)
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}
	if !numericRegex.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	}
	return ParseDate(formatScalar(v))
}

// ParseDate parses a date in any of the accepted layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}
	return time.Time{}, false
}

func toBool(v any) (bool, bool) {
	switch t := v.(type) {
	case nil:
		return false, false
	case bool:
		return t, true
	case int64:
		return t != 0, true
	case int32:
		return t != 0, true
	case int:
		return t != 0, true
	}

	switch strings.ToLower(strings.TrimSpace(formatScalar(v))) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}

// FormatThousands renders n with comma thousands separators and no
// decimal places.
func FormatThousands(n decimal.Decimal) string {
	s := n.Round(0).StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatGush renders a gush (lot) number the way warehouse staff write it:
// the two-digit year prefix, a slash, then the serial. Values of two
// characters or fewer are left unchanged.
func FormatGush(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 2 {
		return s
	}
	return s[:2] + "/" + s[2:]
}
