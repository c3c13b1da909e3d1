package content

import (
	"fmt"
	"regexp"
	"strings"
)

// localeRegex accepts language[_region[_variant]].
var localeRegex = regexp.MustCompile(`^[A-Za-z]{2,8}(_([A-Za-z]{2}|[0-9]{3})(_[A-Za-z0-9]{1,8})?)?$`)

// NormalizeLocale replaces every hyphen with an underscore and validates
// the result.
func NormalizeLocale(locale string) (string, error) {
	normalized := strings.ReplaceAll(locale, "-", "_")
	if !localeRegex.MatchString(normalized) {
		return "", fmt.Errorf("%w: language %s is not supported", ErrInvalidLocale, locale)
	}

	return normalized, nil
}

// ResolveLocale returns the normalized language, or defaultLocale when no
// language was given. defaultLocale must already be normalized.
func ResolveLocale(language, defaultLocale string) (string, error) {
	if language == "" {
		return defaultLocale, nil
	}

	return NormalizeLocale(language)
}

// LocaleTag converts a normalized locale back to its hyphenated form, as
// used in feed language elements.
func LocaleTag(locale string) string {
	return strings.ReplaceAll(locale, "_", "-")
}
