// Package display formats normalized records for list and detail screens.
package display

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"casting-admin/internal/models"

	"github.com/microcosm-cc/bluemonday"
)

// NotAvailable is shown for absent values.
const NotAvailable = "N/A"

// TimestampLayout is the list screen timestamp format.
const TimestampLayout = "Jan 2, 2006 3:04 PM"

var strict = bluemonday.StrictPolicy()

// Timestamp formats an API timestamp in loc. Unparseable values are shown raw.
func Timestamp(v interface{}, loc *time.Location) string {
	t, ok := models.ParseTimestamp(v)
	if !ok {
		if s := models.ToString(v); s != "" {
			return s
		}
		return NotAvailable
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(TimestampLayout)
}

// Date keeps the calendar date of an API timestamp ("2024-01-05").
func Date(v interface{}) string {
	t, ok := models.ParseTimestamp(v)
	if !ok {
		return models.ToString(v)
	}
	return t.UTC().Format("2006-01-02")
}

// Cents renders an amount held in minor units as dollars.
func Cents(v interface{}) string {
	n, ok := models.ToFloat(v)
	if !ok {
		return NotAvailable
	}
	return fmt.Sprintf("$%.2f", n/100)
}

// Money renders a major unit amount with an optional currency code.
func Money(v interface{}, currency string) string {
	n, ok := models.ToFloat(v)
	if !ok {
		return NotAvailable
	}
	if currency == "" {
		return fmt.Sprintf("%.2f", n)
	}
	return fmt.Sprintf("%.2f %s", n, strings.ToUpper(currency))
}

// FullName joins first and last names, skipping blanks.
func FullName(first, last string) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name == "" {
		return NotAvailable
	}
	return name
}

// PlainText strips markup from user supplied HTML.
func PlainText(s string) string {
	text := html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

// Truncate shortens s to max runes, appending an ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

// ActiveLabel maps the admin-active flag to its display label.
func ActiveLabel(v interface{}) string {
	switch t := v.(type) {
	case bool:
		if t {
			return "Active"
		}
	case float64:
		if t != 0 {
			return "Active"
		}
	case string:
		if t == "1" || strings.EqualFold(t, "true") || strings.EqualFold(t, "active") {
			return "Active"
		}
	}
	return "Deactivate"
}

// Ethnicity formats a casting role ethnicity value.
func Ethnicity(v interface{}) string {
	return models.ParseEthnicity(models.ToString(v))
}

// OrNA returns NotAvailable for blank values.
func OrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}
