package shared

import (
	"strings"

	"golang.org/x/text/language"
)

// Supported content languages. Ukrainian is the primary catalog language,
// English is the optional secondary one.
var (
	LangPrimary   = language.Ukrainian
	LangSecondary = language.English

	contentMatcher = language.NewMatcher([]language.Tag{LangPrimary, LangSecondary})
)

// LocalizedText holds a bilingual value. It is embedded into GORM models with a
// column prefix, e.g. `gorm:"embedded;embeddedPrefix:name_"` yields name_uk and name_en.
type LocalizedText struct {
	UK string `json:"uk" yaml:"uk" gorm:"column:uk;type:text"`
	EN string `json:"en" yaml:"en" gorm:"column:en;type:text"`
}

// NewLocalizedText trims both values and builds a LocalizedText
func NewLocalizedText(uk, en string) LocalizedText {
	return LocalizedText{UK: strings.TrimSpace(uk), EN: strings.TrimSpace(en)}
}

// IsEmpty reports whether neither translation is set
func (t LocalizedText) IsEmpty() bool {
	return t.UK == "" && t.EN == ""
}

// Get returns the best translation for an Accept-Language style preference
// ("en", "en-US,uk;q=0.8", ...). Missing translations fall back to the other language.
func (t LocalizedText) Get(preference string) string {
	tags, _, err := language.ParseAcceptLanguage(preference)
	if err != nil || len(tags) == 0 {
		return t.fallback(t.UK)
	}
	_, idx, confidence := contentMatcher.Match(tags...)
	if confidence == language.No || idx == 0 {
		return t.fallback(t.UK)
	}
	return t.fallback(t.EN)
}

func (t LocalizedText) fallback(preferred string) string {
	if preferred != "" {
		return preferred
	}
	if t.UK != "" {
		return t.UK
	}
	return t.EN
}

// Contains reports whether either translation contains the lower-cased needle
func (t LocalizedText) Contains(needle string) bool {
	needle = strings.ToLower(needle)
	return strings.Contains(strings.ToLower(t.UK), needle) || strings.Contains(strings.ToLower(t.EN), needle)
}
