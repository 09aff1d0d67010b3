package kb

import (
	"testing"

	"github.com/lorenco/sean/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTeachMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{"english prefix", "TEACH: the VAT rate is 15%", true},
		{"afrikaans prefix", "LEER: die BTW koers is 15%", true},
		{"long prefix", "SAVE TO KNOWLEDGE: provisional tax deadlines", true},
		{"case insensitive", "teach: something", true},
		{"plain question", "What is the VAT rate?", false},
		{"prefix mid-sentence", "Please TEACH: me", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTeachMessage(tt.message))
		})
	}
}

func TestParseTeachMessage_Defaults(t *testing.T) {
	input, err := ParseTeachMessage("TEACH: The VAT rate in South Africa is 15%.")
	require.NoError(t, err)

	assert.Equal(t, model.LayerFirm, input.Layer)
	assert.Equal(t, model.ScopeGlobal, input.ScopeType)
	assert.Equal(t, "EN", input.Language)
	assert.Equal(t, model.DomainOther, input.PrimaryDomain)
	assert.Equal(t, "The VAT rate in South Africa is 15%.", input.ContentText)
	// Title falls back to the first content line, kept as-is when it
	// already ends with a full stop.
	assert.Equal(t, "The VAT rate in South Africa is 15%.", input.Title)
}

func TestParseTeachMessage_Metadata(t *testing.T) {
	message := `TEACH:
LAYER: LEGAL
TITLE: VAT registration threshold
TAGS: vat, threshold
LANGUAGE: EN
DOMAIN: VAT
SECONDARY_DOMAINS: INCOME_TAX, NOT_A_DOMAIN
CONTENT: Compulsory VAT registration applies above R1 million turnover.`

	input, err := ParseTeachMessage(message)
	require.NoError(t, err)

	assert.Equal(t, model.LayerLegal, input.Layer)
	assert.Equal(t, "VAT registration threshold", input.Title)
	assert.Equal(t, []string{"vat", "threshold"}, input.Tags)
	assert.Equal(t, model.DomainVAT, input.PrimaryDomain)
	assert.Equal(t, []string{model.DomainIncomeTax}, input.SecondaryDomains)
	assert.Equal(t, "Compulsory VAT registration applies above R1 million turnover.", input.ContentText)
}

func TestParseTeachMessage_MultilineContent(t *testing.T) {
	message := `TEACH:
TITLE: Provisional tax deadlines
CONTENT: First payment is due at the end of August.
Second payment is due at the end of February.`

	input, err := ParseTeachMessage(message)
	require.NoError(t, err)

	assert.Equal(t,
		"First payment is due at the end of August.\nSecond payment is due at the end of February.",
		input.ContentText)
}

func TestParseTeachMessage_ClientScope(t *testing.T) {
	message := `TEACH:
LAYER: CLIENT
CLIENT: acme-pty
CONTENT: Acme's year end is June.`

	input, err := ParseTeachMessage(message)
	require.NoError(t, err)

	assert.Equal(t, model.LayerClient, input.Layer)
	assert.Equal(t, model.ScopeClient, input.ScopeType)
	assert.Equal(t, "acme-pty", input.ScopeClientID)
}

func TestParseTeachMessage_Errors(t *testing.T) {
	t.Run("no content", func(t *testing.T) {
		_, err := ParseTeachMessage("TEACH:\nTITLE: Empty item")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no content")
	})

	t.Run("client layer without client id", func(t *testing.T) {
		_, err := ParseTeachMessage("TEACH:\nLAYER: CLIENT\nCONTENT: orphaned fact")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CLIENT layer requires")
	})

	t.Run("not a teach message", func(t *testing.T) {
		_, err := ParseTeachMessage("what is VAT?")
		require.Error(t, err)
	})
}

func TestParseTeachMessage_TitleTruncation(t *testing.T) {
	long := "TEACH: This is a very long first line of knowledge content that easily exceeds the sixty character title limit"
	input, err := ParseTeachMessage(long)
	require.NoError(t, err)

	assert.Len(t, input.Title, 63) // 60 chars plus "..."
	assert.True(t, len(input.Title) <= 63)
}
