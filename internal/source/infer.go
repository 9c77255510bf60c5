package source

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Kind is the dynamically inferred type of a CSV cell.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindDate
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

// Value is a typed CSV cell.
type Value struct {
	Kind   Kind
	Raw    string
	Bool   bool
	Number decimal.Decimal
	Time   time.Time
}

// InferValue types a raw cell: empty cells are null, true/false are
// booleans, anything ParseNumber accepts is a number, anything ParseDate
// accepts is a date, and the rest stays a string.
func InferValue(raw string) Value {
	s := strings.TrimSpace(raw)
	v := Value{Raw: s}
	if s == "" {
		return v
	}
	switch strings.ToLower(s) {
	case "true":
		v.Kind, v.Bool = KindBool, true
		return v
	case "false":
		v.Kind = KindBool
		return v
	}
	if d, ok := ParseNumber(s); ok {
		v.Kind, v.Number = KindNumber, d
		return v
	}
	if t, ok := ParseDate(s); ok {
		v.Kind, v.Time = KindDate, t
		return v
	}
	v.Kind = KindString
	return v
}

// Amounts beyond these bounds are treated as non-numeric.
const (
	maxNumberExponent = 28
	maxNumberDigits   = 38
)

// ParseNumber parses a monetary amount. Currency symbols, ISO currency
// codes, thousands separators and accounting-style parentheses are
// accepted: "$1,234.50", "USD 12", "(3.10)". Commas must group the
// integer part in threes, so decimal-comma cells such as "1.234,56" are
// rejected rather than misread.
func ParseNumber(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = stripCurrencyCode(s)

	var b strings.Builder
	b.Grow(len(s))
	digits := 0
	// group counts integer digits since the last comma; -1 until a comma.
	group := -1
	fraction := false
	for _, r := range s {
		switch {
		case r == ',':
			if fraction || (group >= 0 && group != 3) || (group < 0 && digits == 0) {
				return decimal.Zero, false
			}
			group = 0
		case unicode.Is(unicode.Sc, r) || unicode.IsSpace(r):
			// symbols
		case r >= '0' && r <= '9':
			digits++
			if group >= 0 && !fraction {
				group++
			}
			b.WriteRune(r)
		case r == '.' || r == 'e' || r == 'E':
			if group >= 0 && !fraction && group != 3 {
				return decimal.Zero, false
			}
			fraction = true
			b.WriteRune(r)
		case r == '-' || r == '+':
			b.WriteRune(r)
		default:
			return decimal.Zero, false
		}
	}
	if digits == 0 || (group >= 0 && !fraction && group != 3) {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp < -maxNumberExponent || exp > maxNumberExponent {
		return decimal.Zero, false
	}
	if d.NumDigits() > maxNumberDigits {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// stripCurrencyCode removes a leading or trailing three-letter code such
// as "USD 12.00" or "12.00 EUR".
func stripCurrencyCode(s string) string {
	if len(s) > 4 && isUpperCode(s[:3]) && s[3] == ' ' {
		return strings.TrimSpace(s[4:])
	}
	if n := len(s); n > 4 && isUpperCode(s[n-3:]) && s[n-4] == ' ' {
		return strings.TrimSpace(s[:n-4])
	}
	return s
}

func isUpperCode(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// Date layouts tried in order. US month-first forms come before
// day-first ones because Azure's en-US exports use MM/DD/YYYY.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"2/1/2006",
	"2/1/2006 15:04:05",
	"2006/01/02",
	"02-Jan-2006",
	"Jan 2, 2006",
}

// ParseDate parses a date cell and returns midnight UTC of the calendar
// day exactly as written, without converting between time zones.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}
