package domain

import (
	"sort"
	"strings"
)

// LocaleCode is an ISO 639-1 language code, lower case ("en", "es").
type LocaleCode string

const (
	English LocaleCode = "en"
	Spanish LocaleCode = "es"
	French  LocaleCode = "fr"
	German  LocaleCode = "de"
	Italian LocaleCode = "it"
	Chinese LocaleCode = "zh"
)

// DefaultLocales is the delivery language set offered when no explicit
// configuration is given.
var DefaultLocales = []LocaleCode{English, Spanish, French, German, Italian, Chinese}

// Languages is the set of locales the system can translate into.
type Languages map[LocaleCode]struct{}

func NewLanguages(codes ...LocaleCode) Languages {
	set := make(Languages, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set
}

// ParseLanguages builds the set from a comma separated list ("en,es,fr").
// An empty input yields the default set.
func ParseLanguages(csv string) Languages {
	if strings.TrimSpace(csv) == "" {
		return NewLanguages(DefaultLocales...)
	}
	set := make(Languages)
	for _, part := range strings.Split(csv, ",") {
		code := LocaleCode(strings.ToLower(strings.TrimSpace(part)))
		if code != "" {
			set[code] = struct{}{}
		}
	}
	return set
}

func (l Languages) Contains(code LocaleCode) bool {
	_, ok := l[code]
	return ok
}

// Codes returns the members in stable order.
func (l Languages) Codes() []LocaleCode {
	codes := make([]LocaleCode, 0, len(l))
	for code := range l {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

func (l Languages) String() string {
	parts := make([]string, 0, len(l))
	for _, code := range l.Codes() {
		parts = append(parts, string(code))
	}
	return strings.Join(parts, ",")
}
