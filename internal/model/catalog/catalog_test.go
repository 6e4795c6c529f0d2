package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/arogya-chat/backend/internal/model/chat"
)

func TestDefaultCatalogCoversEnglishAndHindi(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []chat.Language{chat.English, chat.Hindi}, c.Languages())
	for _, lang := range c.Languages() {
		for _, topic := range Topics() {
			text, err := c.Lookup(lang, topic)
			require.NoError(t, err, "%s/%s", lang, topic)
			assert.NotEmpty(t, strings.TrimSpace(text))
		}
	}
}

func TestLookupMissingLanguage(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	_, err = c.Lookup(chat.Marathi, Greeting)
	assert.ErrorIs(t, err, ErrMissingEntry)
}

func TestResolveFallsBackForUncatalogedLanguages(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	english, err := c.Lookup(chat.English, Greeting)
	require.NoError(t, err)

	for _, lang := range []chat.Language{chat.Marathi, chat.Bengali} {
		res := c.Resolve(lang, Greeting)
		assert.True(t, res.FellBack)
		assert.Equal(t, chat.English, res.Language)
		assert.Equal(t, english, res.Text)
	}
}

func TestResolveKeepsTranslatedText(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	res := c.Resolve(chat.Hindi, Vaccination)
	assert.False(t, res.FellBack)
	assert.Equal(t, chat.Hindi, res.Language)
	assert.Contains(t, res.Text, "टीकाकरण")
}

func TestKeywordsAndQuickTopics(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Contains(t, c.Keywords(chat.Hindi, Vaccination), "टीका")
	assert.Nil(t, c.Keywords(chat.Bengali, Vaccination))

	assert.Len(t, c.QuickTopics(chat.English), 4)
	assert.Equal(t, c.QuickTopics(chat.English), c.QuickTopics(chat.Marathi))
	assert.Equal(t, c.Placeholder(chat.English), c.Placeholder(chat.Bengali))
	assert.NotEqual(t, c.Placeholder(chat.English), c.Placeholder(chat.Hindi))
}

func TestNewRejectsIncompleteFallback(t *testing.T) {
	_, err := New(map[chat.Language]Entry{
		chat.English: {Greeting: "hi"},
	}, chat.English)
	assert.ErrorIs(t, err, ErrMissingEntry)

	_, err = New(map[chat.Language]Entry{}, chat.English)
	assert.ErrorIs(t, err, ErrMissingEntry)
}

func TestParseRejectsUnknownLanguageSection(t *testing.T) {
	_, err := Parse([]byte(`[languages.fr]
greeting = "bonjour"`))
	assert.ErrorIs(t, err, chat.ErrUnknownLanguage)
}

func TestLoadOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	data := `
[languages.en]
placeholder = "Type here"
quick_topics = ["Prevention"]
greeting = "Hi"
prevention = "Wash hands"
symptoms = "Fever"
vaccination = "BCG"
alert = "Dengue"
fallback = "See a doctor"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	text, err := c.Lookup(chat.English, Prevention)
	require.NoError(t, err)
	assert.Equal(t, "Wash hands", text)
	assert.Equal(t, "Type here", c.Placeholder(chat.Hindi))
}

func TestLoadEmptyPathUsesEmbedded(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Contains(t, c.Languages(), chat.Hindi)
}

const minimalEnglish = `
[languages.en]
greeting = "Hi"
prevention = "Wash hands"
symptoms = "Fever"
vaccination = "BCG"
alert = "Dengue"
fallback = "See a doctor"
`

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte(minimalEnglish + `preventoin = "typo"` + "\n"))
	require.ErrorIs(t, err, ErrUnknownKey)
	assert.Contains(t, err.Error(), "languages.en.preventoin")

	_, err = Parse([]byte(minimalEnglish + "\n[languages.en.keywords]\nsymptom = [\"fever\"]\n"))
	require.ErrorIs(t, err, ErrUnknownKey)
	assert.Contains(t, err.Error(), "symptom")

	_, err = Parse([]byte(minimalEnglish + "\n[languages.en.keywords]\nsymptoms = [\"ache\"]\n"))
	require.NoError(t, err)
}

func TestHindiHasOneKeywordPerTopic(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	want := map[Topic]string{
		Prevention:  "बचाव",
		Symptoms:    "लक्षण",
		Vaccination: "टीका",
		Alert:       "अलर्ट",
	}
	for topic, keyword := range want {
		assert.Equal(t, []string{keyword}, c.Keywords(chat.Hindi, topic), topic)
	}
}
