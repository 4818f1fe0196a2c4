// Package format renders money, percentages, dates and contact data
// the way the portfolio screens show them (ru-RU, rubles).
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	CurrencySign    = "₽"
	DefaultUserName = "User"
	DateLayout      = "02.01.2006"
)

var printer = message.NewPrinter(language.Russian)

// Number rounds v and groups thousands: 1234567.8 -> "1 234 568".
func Number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}

	return normalizeSpaces(printer.Sprint(number.Decimal(int64(math.Round(v)))))
}

// NumberString is Number for user input; whitespace is ignored and
// unparsable input yields "".
func NumberString(s string) string {
	v, ok := parse(s)
	if !ok {
		return ""
	}

	return Number(v)
}

// Currency is Number followed by the ruble sign.
func Currency(v float64) string {
	n := Number(v)
	if n == "" {
		return ""
	}

	return n + " " + CurrencySign
}

// Percent renders v with one decimal: 12.345 -> "12.3%".
func Percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}

	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// ChartValue formats a chart point. ROI series are percentages, everything
// else is money with kopecks.
func ChartValue(seriesName string, v float64) string {
	s := normalizeSpaces(printer.Sprint(number.Decimal(v,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	)))

	if IsROISeries(seriesName) {
		return s + " %"
	}

	return s + " " + CurrencySign
}

func IsROISeries(name string) bool {
	return strings.Contains(strings.ToLower(name), "roi")
}

// Date accepts "2006-01-02" or RFC 3339 and renders dd.mm.yyyy.
func Date(s string) (string, error) {
	for _, layout := range []string{time.DateOnly, time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout), nil
		}
	}

	return "", fmt.Errorf("format.Date: unsupported date %q", s)
}

// Phone keeps digits only.
func Phone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

// NameFromEmail derives a display name from the local part of an email:
// "ivan.petrov@mail.ru" -> "Ivan".
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	name, _, _ := strings.Cut(local, ".")
	if name == "" {
		return DefaultUserName
	}

	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])

	return string(r)
}

func parse(s string) (float64, bool) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}

	return v, true
}

// normalizeSpaces replaces the locale's no-break group separators with plain spaces.
func normalizeSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
}
