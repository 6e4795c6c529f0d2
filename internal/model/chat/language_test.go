package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		raw     string
		want    Language
		wantErr bool
	}{
		{raw: "en", want: English},
		{raw: "HI", want: Hindi},
		{raw: "  mr ", want: Marathi},
		{raw: "Bn\n", want: Bengali},
		{raw: "", wantErr: true},
		{raw: "fr", wantErr: true},
		{raw: "english", wantErr: true},
		{raw: "e n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLanguage(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownLanguage)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLanguageMetadata(t *testing.T) {
	assert.Equal(t, []Language{English, Hindi, Marathi, Bengali}, Languages())
	assert.Equal(t, English, DefaultLanguage)

	for _, lang := range Languages() {
		assert.True(t, lang.Valid(), lang)
		assert.NotEmpty(t, lang.Name(), lang)
	}
	assert.Equal(t, "English", English.Name())
	assert.Equal(t, "हिन्दी", Hindi.Name())
	assert.Equal(t, "🇬🇧", English.Flag())
	assert.Equal(t, "🇮🇳", Bengali.Flag())

	unknown := Language("xx")
	assert.False(t, unknown.Valid())
	assert.False(t, Language("EN").Valid())
	assert.Empty(t, unknown.Name())
	assert.Empty(t, unknown.Flag())
}
