package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		locale   string
		expected language.Tag
	}{
		{"en_US.UTF-8", language.English},
		{"de_DE.UTF-8", language.German},
		{"de_AT@euro", language.German},
		{"fr_FR.UTF-8", language.English},
		{"C", language.English},
		{"", language.English},
		{"not a locale", language.English},
	}

	for _, tt := range tests {
		got := MatchLanguage(tt.locale)
		base, _ := got.Base()
		exp, _ := tt.expected.Base()
		assert.Equal(t, exp, base, "locale: %q", tt.locale)
	}
}

func TestNewCLIPrinter(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LANG", "en_US.UTF-8")

	p := NewCLIPrinter()
	assert.Equal(t, "1,400", p.Sprintf("%d", 1400))
}
