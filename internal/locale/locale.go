// Package locale maps store cultures onto the language and country tokens the
// catalog query strings expect.
package locale

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// ErrInvalidLocale is returned when a culture identifier cannot be split into
// a language and a country.
var ErrInvalidLocale = errors.New("locale: invalid locale")

// Locale is a store culture such as "en-US".
type Locale string

const (
	// Unknown marks an unset culture. It is never a valid request parameter.
	Unknown Locale = "Unknown"
	// All is the aggregate marker used by the all-locales operations.
	All Locale = "All"
)

// concrete lists every culture the store serves, in enumeration order.
var concrete = []Locale{
	"ar-AE", "ar-BH", "ar-DZ", "ar-EG", "ar-IQ", "ar-JO", "ar-KW", "ar-LB",
	"ar-LY", "ar-MA", "ar-OM", "ar-QA", "ar-SA", "ar-TN", "ar-YE", "az-AZ",
	"be-BY", "bg-BG", "bn-BD", "ca-ES", "cs-CZ", "da-DK", "de-AT", "de-CH",
	"de-DE", "de-LU", "el-CY", "el-GR", "en-AU", "en-BW", "en-CA", "en-GB",
	"en-GH", "en-HK", "en-IE", "en-IN", "en-JM", "en-KE", "en-MT", "en-MY",
	"en-NG", "en-NZ", "en-PH", "en-PK", "en-SG", "en-TT", "en-US", "en-ZA",
	"en-ZW", "es-AR", "es-BO", "es-CL", "es-CO", "es-CR", "es-DO", "es-EC",
	"es-ES", "es-GT", "es-HN", "es-MX", "es-NI", "es-PA", "es-PE", "es-PR",
	"es-PY", "es-SV", "es-US", "es-UY", "es-VE", "et-EE", "fa-IR", "fi-FI",
	"fil-PH", "fr-BE", "fr-CA", "fr-CH", "fr-FR", "fr-MC", "he-IL", "hi-IN",
	"hr-HR", "hu-HU", "hy-AM", "id-ID", "is-IS", "it-IT", "ja-JP", "ka-GE",
	"kk-KZ", "km-KH", "ko-KR", "lt-LT", "lv-LV", "mk-MK", "ms-MY", "nb-NO",
	"nl-BE", "nl-NL", "pl-PL", "pt-AO", "pt-BR", "pt-PT", "ro-RO", "ru-RU",
	"si-LK", "sk-SK", "sl-SI", "sq-AL", "sr-RS", "sv-SE", "sw-KE", "th-TH",
	"tr-TR", "uk-UA", "ur-PK", "uz-UZ", "vi-VN", "zh-CN", "zh-HK", "zh-TW",
}

var index = func() map[string]Locale {
	m := make(map[string]Locale, len(concrete))
	for _, l := range concrete {
		m[strings.ToLower(string(l))] = l
	}
	return m
}()

// Concrete returns every culture except Unknown and All. The returned slice is
// a copy and may be modified by the caller.
func Concrete() []Locale {
	out := make([]Locale, len(concrete))
	copy(out, concrete)
	return out
}

// String implements fmt.Stringer.
func (l Locale) String() string { return string(l) }

// IsSentinel reports whether l is one of the markers that must never reach a
// request URI.
func (l Locale) IsSentinel() bool {
	return l == Unknown || l == All || l == ""
}

// Parse resolves user input such as "en_us" or "EN-US" onto a known culture.
// The sentinel names "Unknown" and "All" parse to their markers so callers can
// reject them with their own error.
func Parse(s string) (Locale, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, string(Unknown)):
		return Unknown, nil
	case strings.EqualFold(s, string(All)):
		return All, nil
	}

	raw := strings.ToLower(strings.ReplaceAll(s, "_", "-"))
	if l, ok := index[raw]; ok {
		return l, nil
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return Unknown, fmt.Errorf("%w: %q", ErrInvalidLocale, s)
	}
	if l, ok := index[strings.ToLower(tag.String())]; ok {
		return l, nil
	}
	return Unknown, fmt.Errorf("%w: %q is not a store culture", ErrInvalidLocale, s)
}

// Normalize converts a culture identifier into the full culture tag and the
// country code. Both "_" and "-" are accepted as the region separator.
func Normalize(culture string) (languageTag, country string, err error) {
	languageTag = strings.ReplaceAll(culture, "_", "-")
	parts := strings.Split(languageTag, "-")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidLocale, culture)
	}
	return languageTag, parts[1], nil
}
