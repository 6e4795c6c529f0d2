package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/zhouzirui/arogya-chat/backend/internal/logging"
	"github.com/zhouzirui/arogya-chat/backend/internal/model/chat"
)

//go:embed catalog.toml
var embedded []byte

var (
	// ErrMissingEntry is returned by strict lookups when a language or topic has no text.
	ErrMissingEntry = errors.New("catalog entry missing")
	// ErrUnknownKey is returned when catalog data carries keys the catalog does not define.
	ErrUnknownKey = errors.New("unknown catalog key")
)

// Topic names one canned response block.
type Topic string

const (
	Greeting    Topic = "greeting"
	Prevention  Topic = "prevention"
	Symptoms    Topic = "symptoms"
	Vaccination Topic = "vaccination"
	Alert       Topic = "alert"
	Fallback    Topic = "fallback"
)

// Topics lists every topic a complete language entry must provide.
func Topics() []Topic {
	return []Topic{Greeting, Prevention, Symptoms, Vaccination, Alert, Fallback}
}

// keywordTopic reports whether topic can carry trigger keywords.
func keywordTopic(topic Topic) bool {
	switch topic {
	case Prevention, Symptoms, Vaccination, Alert:
		return true
	}
	return false
}

// Entry holds all texts for a single language.
type Entry struct {
	Placeholder string              `toml:"placeholder"`
	QuickTopics []string            `toml:"quick_topics"`
	Greeting    string              `toml:"greeting"`
	Prevention  string              `toml:"prevention"`
	Symptoms    string              `toml:"symptoms"`
	Vaccination string              `toml:"vaccination"`
	Alert       string              `toml:"alert"`
	Fallback    string              `toml:"fallback"`
	Keywords    map[string][]string `toml:"keywords"`
}

func (e Entry) text(topic Topic) string {
	switch topic {
	case Greeting:
		return e.Greeting
	case Prevention:
		return e.Prevention
	case Symptoms:
		return e.Symptoms
	case Vaccination:
		return e.Vaccination
	case Alert:
		return e.Alert
	case Fallback:
		return e.Fallback
	default:
		return ""
	}
}

type document struct {
	Languages map[string]Entry `toml:"languages"`
}

// Resolution is the outcome of a fail-closed lookup.
type Resolution struct {
	Text string
	// Language is the language the text is actually written in.
	Language chat.Language
	FellBack bool
}

// Store exposes catalog reads to the dispatcher and HTTP handlers.
type Store interface {
	Lookup(lang chat.Language, topic Topic) (string, error)
	Resolve(lang chat.Language, topic Topic) Resolution
	Keywords(lang chat.Language, topic Topic) []string
	QuickTopics(lang chat.Language) []string
	Placeholder(lang chat.Language) string
	Languages() []chat.Language
}

// Catalog is an immutable, in-memory Store.
type Catalog struct {
	entries  map[chat.Language]Entry
	fallback chat.Language
}

// Default parses the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(embedded)
}

// Load reads a catalog override from disk. An empty path yields the embedded catalog.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML catalog data.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(keys, ", "))
	}

	entries := make(map[chat.Language]Entry, len(doc.Languages))
	for code, entry := range doc.Languages {
		lang, err := chat.ParseLanguage(code)
		if err != nil {
			return nil, fmt.Errorf("catalog section %q: %w", code, err)
		}
		for topic := range entry.Keywords {
			if !keywordTopic(Topic(topic)) {
				return nil, fmt.Errorf("%w: languages.%s.keywords.%s", ErrUnknownKey, code, topic)
			}
		}
		entries[lang] = entry
	}
	return New(entries, chat.DefaultLanguage)
}

// New builds a catalog and checks that the fallback language is complete.
func New(entries map[chat.Language]Entry, fallback chat.Language) (*Catalog, error) {
	base, ok := entries[fallback]
	if !ok {
		return nil, fmt.Errorf("%w: fallback language %s", ErrMissingEntry, fallback)
	}
	for _, topic := range Topics() {
		if strings.TrimSpace(base.text(topic)) == "" {
			return nil, fmt.Errorf("%w: %s/%s", ErrMissingEntry, fallback, topic)
		}
	}

	copied := make(map[chat.Language]Entry, len(entries))
	for lang, entry := range entries {
		copied[lang] = entry
	}
	return &Catalog{entries: copied, fallback: fallback}, nil
}

// Lookup returns the exact text for lang and topic.
func (c *Catalog) Lookup(lang chat.Language, topic Topic) (string, error) {
	entry, ok := c.entries[lang]
	if !ok {
		return "", fmt.Errorf("%w: language %s", ErrMissingEntry, lang)
	}
	text := entry.text(topic)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s/%s", ErrMissingEntry, lang, topic)
	}
	return text, nil
}

// Resolve is Lookup with a fallback to the default language; the result is never empty.
func (c *Catalog) Resolve(lang chat.Language, topic Topic) Resolution {
	text, err := c.Lookup(lang, topic)
	if err == nil {
		return Resolution{Text: text, Language: lang}
	}

	logging.Component("catalog").Warn().
		Str("language", string(lang)).
		Str("topic", string(topic)).
		Str("fallback", string(c.fallback)).
		Err(err).
		Msg("falling back to default language")

	text, err = c.Lookup(c.fallback, topic)
	if err != nil {
		// Only reachable for a topic outside Topics(); New guarantees the rest.
		text = c.entries[c.fallback].Fallback
	}
	return Resolution{Text: text, Language: c.fallback, FellBack: true}
}

// Keywords returns the localized trigger words for topic, or nil when lang has none.
func (c *Catalog) Keywords(lang chat.Language, topic Topic) []string {
	entry, ok := c.entries[lang]
	if !ok {
		return nil
	}
	return append([]string(nil), entry.Keywords[string(topic)]...)
}

// QuickTopics returns the shortcut labels for lang, falling back to the default language.
func (c *Catalog) QuickTopics(lang chat.Language) []string {
	if entry, ok := c.entries[lang]; ok && len(entry.QuickTopics) > 0 {
		return append([]string(nil), entry.QuickTopics...)
	}
	return append([]string(nil), c.entries[c.fallback].QuickTopics...)
}

// Placeholder returns the input hint for lang, falling back to the default language.
func (c *Catalog) Placeholder(lang chat.Language) string {
	if entry, ok := c.entries[lang]; ok && entry.Placeholder != "" {
		return entry.Placeholder
	}
	return c.entries[c.fallback].Placeholder
}

// Languages lists the languages that have their own entry, in display order.
func (c *Catalog) Languages() []chat.Language {
	var out []chat.Language
	for _, lang := range chat.Languages() {
		if _, ok := c.entries[lang]; ok {
			out = append(out, lang)
		}
	}
	return out
}
