package llm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestParseResponsePositive(t *testing.T) {
	res := parseResponse("sentiment: positive\nscore: 0.85\nreason: 실적 개선 기대")
	assert.Equal(t, "positive", res.SentimentLabel)
	assert.Equal(t, 0.85, res.SentimentConfidence)
	assert.Equal(t, 0.85, res.SentimentRaw)
}

func TestParseResponseNegative(t *testing.T) {
	res := parseResponse("sentiment: negative\nscore: 0.9\nreason: 규제 리스크")
	assert.Equal(t, "negative", res.SentimentLabel)
	assert.Equal(t, -0.9, res.SentimentRaw)
}

func TestParseResponseNeutral(t *testing.T) {
	res := parseResponse("sentiment: neutral\nscore: 0.6")
	assert.Equal(t, "neutral", res.SentimentLabel)
	assert.Equal(t, 0.0, res.SentimentRaw)
	assert.Equal(t, 0.6, res.SentimentConfidence)
}

func TestParseResponseMalformed(t *testing.T) {
	res := parseResponse("I cannot analyze this article.")
	assert.Equal(t, "neutral", res.SentimentLabel)
	assert.Equal(t, 0.5, res.SentimentConfidence)
	assert.Equal(t, 0.0, res.SentimentRaw)

	res = parseResponse("sentiment: positive\nscore: not-a-number")
	assert.Equal(t, "positive", res.SentimentLabel)
	assert.Equal(t, 0.5, res.SentimentConfidence)
	assert.Equal(t, 0.5, res.SentimentRaw)
}

func TestParseResponseCaseInsensitive(t *testing.T) {
	res := parseResponse("Sentiment: Positive\nScore: 0.75")
	assert.Equal(t, "positive", res.SentimentLabel)
	assert.Equal(t, 0.75, res.SentimentConfidence)
}

func TestBuildPromptTruncates(t *testing.T) {
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'a'
	}
	prompt := buildPrompt(string(long), "005930")
	assert.Less(t, len(prompt), 800)
	assert.Contains(t, prompt, "005930")
}

func TestBuildPromptKeepsRunesWhole(t *testing.T) {
	long := strings.Repeat("삼성전자 실적 ", 100)
	prompt := buildPrompt(long, "005930")
	assert.True(t, utf8.ValidString(prompt))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 10))
	assert.Equal(t, "ab", truncateRunes("abcd", 2))

	// "감" is three bytes; cutting mid-rune backs off to the boundary.
	assert.Equal(t, "감", truncateRunes("감성", 4))
	assert.Equal(t, "감", truncateRunes("감성", 3))
	assert.Equal(t, "", truncateRunes("감성", 2))
}
