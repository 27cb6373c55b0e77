package naver

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "삼성전자 실적 발표", StripHTML("<b>삼성전자</b> 실적 발표"))
	assert.Equal(t, `목표가 "상향"`, StripHTML("목표가 &quot;상향&quot;"))
	assert.Equal(t, "plain", StripHTML("  plain  "))
}

func TestClassifySource(t *testing.T) {
	assert.Equal(t, "financial", ClassifySource("https://www.hankyung.com/article/123"))
	assert.Equal(t, "financial", ClassifySource("https://news.mk.co.kr/view/456"))
	assert.Equal(t, "portal", ClassifySource("https://blog.naver.com/user/789"))
	assert.Equal(t, "portal", ClassifySource("https://cafe.daum.net/stock"))
	assert.Equal(t, "general", ClassifySource("https://news.example.com/a"))
	assert.Equal(t, "general", ClassifySource(""))
}

func TestClassifyArticleType(t *testing.T) {
	assert.Equal(t, "earnings", ClassifyArticleType("삼성전자 영업이익 급증", ""))
	assert.Equal(t, "analyst", ClassifyArticleType("증권사 목표가 상향", ""))
	assert.Equal(t, "disclosure", ClassifyArticleType("지분 변동 공시", ""))
	assert.Equal(t, "general", ClassifyArticleType("신제품 출시 행사", ""))

	// Earnings keywords win over analyst keywords.
	assert.Equal(t, "earnings", ClassifyArticleType("리포트: 매출 전망", ""))
}

func TestParsePubDate(t *testing.T) {
	parsed, err := parsePubDate("Thu, 20 Feb 2025 09:00:00 +0900")
	require.NoError(t, err)
	assert.Equal(t, 2025, parsed.Year())
	assert.Equal(t, time.February, parsed.Month())
	assert.Equal(t, 20, parsed.Day())

	_, err = parsePubDate("")
	assert.Error(t, err)

	_, err = parsePubDate("not a date")
	assert.Error(t, err)
}

func TestExtractDomain(t *testing.T) {
	assert.Equal(t, "www.hankyung.com", extractDomain("https://www.hankyung.com/article/123"))
	assert.Equal(t, "unknown", extractDomain(""))
	assert.Equal(t, "unknown", extractDomain("not-a-url"))
}

func TestSearchSkipsWithoutCredentials(t *testing.T) {
	c := NewClient("", "", zerolog.Nop())
	articles, err := c.Search(context.Background(), "삼성전자", 100)
	require.NoError(t, err)
	assert.Nil(t, articles)
}
