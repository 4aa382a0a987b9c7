// Package i18n provides locale-aware printers for CLI output.
package i18n

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLang is the fallback language
var DefaultLang = language.English

// SupportedLangs are the languages we support
var SupportedLangs = []language.Tag{
	language.English,
	language.German,
}

var matcher = language.NewMatcher(SupportedLangs)

// MatchLanguage returns the best supported match for a locale string such
// as "de_DE.UTF-8" or "en-US".
func MatchLanguage(locale string) language.Tag {
	if i := strings.IndexAny(locale, ".@"); i != -1 {
		locale = locale[:i]
	}
	locale = strings.ReplaceAll(locale, "_", "-")
	if locale == "" || locale == "C" || locale == "POSIX" {
		return DefaultLang
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return DefaultLang
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return DefaultLang
	}
	return SupportedLangs[idx]
}

// NewPrinter returns a message printer for the given language
func NewPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// NewCLIPrinter returns a printer for the locale named by LC_ALL or LANG.
func NewCLIPrinter() *message.Printer {
	lang := os.Getenv("LC_ALL")
	if lang == "" {
		lang = os.Getenv("LANG")
	}
	return NewPrinter(MatchLanguage(lang))
}
