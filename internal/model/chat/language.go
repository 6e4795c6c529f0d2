package chat

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLanguage is returned when a language code is outside the supported set.
var ErrUnknownLanguage = errors.New("unknown language")

// Language is a supported language code.
type Language string

const (
	English Language = "en"
	Hindi   Language = "hi"
	Marathi Language = "mr"
	Bengali Language = "bn"
)

// DefaultLanguage is used for new stores and as the catalog fallback.
const DefaultLanguage = English

var languageInfo = map[Language]struct {
	name string
	flag string
}{
	English: {name: "English", flag: "🇬🇧"},
	Hindi:   {name: "हिन्दी", flag: "🇮🇳"},
	Marathi: {name: "मराठी", flag: "🇮🇳"},
	Bengali: {name: "বাংলা", flag: "🇮🇳"},
}

// Languages lists every supported code in display order.
func Languages() []Language {
	return []Language{English, Hindi, Marathi, Bengali}
}

// ParseLanguage normalizes and validates a language code.
func ParseLanguage(raw string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := languageInfo[lang]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, raw)
	}
	return lang, nil
}

// Valid reports whether l is one of the supported codes.
func (l Language) Valid() bool {
	_, ok := languageInfo[l]
	return ok
}

// Name is the language's own name for itself.
func (l Language) Name() string {
	return languageInfo[l].name
}

// Flag is the emoji shown next to sessions in the list.
func (l Language) Flag() string {
	return languageInfo[l].flag
}
