package content

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order. Layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

var epochMillisRegex = regexp.MustCompile(`^-?\d{1,19}$`)

// ScalarField returns the named field if it holds a plain string.
func ScalarField(doc Document, name string) (string, bool) {
	return doc.Field(name).Str()
}

// LocalizedField returns the locale entry of a locale-keyed field. A field
// missing the locale is treated the same as a missing field.
func LocalizedField(doc Document, name, locale string) (string, bool) {
	return doc.Field(name).Localized(locale)
}

// NestedField walks path through nested mappings and returns the string at
// its end. Any missing step or wrong shape yields an absent result.
func NestedField(doc Document, path ...string) (string, bool) {
	if len(path) == 0 {
		return "", false
	}

	v := doc.Field(path[0])
	for _, key := range path[1:] {
		if !v.IsMapping() {
			return "", false
		}
		v = v.Get(key)
	}

	return v.Str()
}

// DateField reads a date-time field. Strings are parsed as ISO-8601 date
// times or epoch milliseconds; numbers are epoch milliseconds.
func DateField(doc Document, name string) (time.Time, bool, error) {
	v := doc.Field(name)
	if t, ok := v.Time(); ok {
		return t, true, nil
	}
	if ms, ok := v.Float(); ok {
		return time.UnixMilli(int64(ms)).UTC(), true, nil
	}

	s, ok := v.Str()
	if !ok {
		return time.Time{}, false, nil
	}

	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("field %q: %w", name, err)
	}

	return t, true, nil
}

// ParseDate parses the date formats accepted by the search index.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if epochMillisRegex.MatchString(s) && len(s) > 4 {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
}

// LocationField formats a lat/lon mapping as "<lat>;<lon>", the iCalendar
// GEO value layout.
func LocationField(doc Document, name string) (string, bool) {
	v := doc.Field(name)
	lat, ok := v.Get("lat").Float()
	if !ok {
		return "", false
	}
	lon, ok := v.Get("lon").Float()
	if !ok {
		return "", false
	}

	return formatCoordinate(lat) + ";" + formatCoordinate(lon), true
}

// formatCoordinate always keeps a fractional part, so 4 is written "4.0".
func formatCoordinate(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// LinkField returns name.url[locale], the localized URL of a link element.
func LinkField(doc Document, name, locale string) (string, bool) {
	return doc.Field(name).Get("url").Localized(locale)
}
