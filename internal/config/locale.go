package config

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var rtlScripts = map[string]bool{
	"Arab": true,
	"Hebr": true,
	"Syrc": true,
	"Thaa": true,
	"Nkoo": true,
	"Adlm": true,
}

// ParseLocale parses a BCP 47 locale tag.
func ParseLocale(raw string) (language.Tag, error) {
	return language.Parse(raw)
}

// DefaultLocaleConfig derives the label, direction and html lang of a locale
// from its language tag.
func DefaultLocaleConfig(locale string) LocaleConfig {
	tag, err := language.Parse(locale)
	if err != nil {
		return LocaleConfig{Label: locale, Direction: "ltr", HTMLLang: locale}
	}

	label := display.Self.Name(tag)
	if label == "" {
		label = locale
	}

	dir := "ltr"
	if script, _ := tag.Script(); rtlScripts[script.String()] {
		dir = "rtl"
	}

	return LocaleConfig{Label: label, Direction: dir, HTMLLang: tag.String()}
}
