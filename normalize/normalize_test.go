package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/poiesic/marketrag/core"
	"github.com/poiesic/marketrag/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var buildTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "utc marker", input: "2025-05-30T08:15:00Z", want: "2025-05-30T08:15:00Z"},
		{name: "naive", input: "2025-05-30T08:15:00", want: "2025-05-30T08:15:00Z"},
		{name: "offset converted to utc", input: "2025-05-30T17:15:00+09:00", want: "2025-05-30T08:15:00Z"},
		{name: "compact offset", input: "2025-05-30T17:15:00+0900", want: "2025-05-30T08:15:00Z"},
		{name: "fractional seconds truncated", input: "2025-05-30T08:15:00.987654Z", want: "2025-05-30T08:15:00Z"},
		{name: "space separator", input: "2025-05-30 08:15:00", want: "2025-05-30T08:15:00Z"},
		{name: "date only", input: "2025-05-30", want: "2025-05-30T00:00:00Z"},
		{name: "surrounding whitespace", input: "  2025-05-30T08:15:00Z ", want: "2025-05-30T08:15:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, core.FormatTimestamp(got))
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	for _, bad := range []string{"", "yesterday", "2025-13-45", "30/05/2025"} {
		_, err := ParseTimestamp(bad)
		assert.ErrorIs(t, err, ErrBadTimestamp, bad)
	}
}

func TestTimestampOr(t *testing.T) {
	assert.Equal(t, buildTime, TimestampOr("garbage", buildTime))
	assert.Equal(t, buildTime, TimestampOr("", buildTime.Add(300*time.Millisecond)))
	assert.Equal(t, "2025-01-02T00:00:00Z", core.FormatTimestamp(TimestampOr("2025-01-02", buildTime)))
}

func TestDateFromFilename(t *testing.T) {
	assert.Equal(t, "2025-05-30", DateFromFilename("brief_2025-05-30_latest.md"))
	assert.Empty(t, DateFromFilename("latest.json"))
}

func TestNormalizeNews(t *testing.T) {
	row := core.NewRawRow(core.SourceNewsFile, map[string]any{
		"title":        "  Nasdaq rallies  ",
		"content":      "Tech stocks surge on strong earnings.",
		"url":          "https://example.com/a",
		"published_at": "2025-05-31T09:00:00+09:00",
		"tickers":      []any{"qqq", " QQQ ", "spy"},
		"sectors":      "technology, Technology ,semis",
	})

	doc, err := NormalizeNews(row, buildTime)
	require.NoError(t, err)

	assert.Equal(t, "Nasdaq rallies", doc.Title)
	assert.Equal(t, []string{"QQQ", "SPY"}, doc.Tickers)
	assert.Equal(t, []string{"SEMIS", "TECHNOLOGY"}, doc.Sectors)
	assert.Equal(t, "2025-05-31T00:00:00Z", core.FormatTimestamp(doc.PublishedAt))
	assert.Equal(t, "2025-05-31", doc.Date)
	assert.Equal(t, core.SourceNewsFile, doc.SourceType)
	assert.Equal(t, "news_"+core.IDFromContent("Nasdaq rallies|https://example.com/a"), doc.DocID)
	require.NoError(t, core.ValidateSymbols("tickers", doc.Tickers))
}

func TestNormalizeNews_RequiredFields(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{"title": "t", "content": "c", "url": "u"}
	}
	for _, field := range []string{"title", "content", "url"} {
		t.Run(field, func(t *testing.T) {
			fields := base()
			delete(fields, field)
			_, err := NormalizeNews(core.NewRawRow(core.SourceNewsFile, fields), buildTime)

			var ve *core.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, field, ve.Field)
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}
}

func TestNormalizeNews_Timestamps(t *testing.T) {
	fields := map[string]any{"id": "n1", "title": "t", "content": "c", "url": "u", "published_at": "not a date"}

	t.Run("malformed falls back to now", func(t *testing.T) {
		doc, err := NormalizeNews(core.NewRawRow(core.SourceRSS, fields), buildTime)
		require.NoError(t, err)
		assert.Equal(t, buildTime, doc.PublishedAt)
		assert.Equal(t, "n1", doc.DocID)
		assert.Equal(t, core.SourceRSS, doc.SourceType)
	})

	t.Run("strict mode surfaces the parse failure", func(t *testing.T) {
		_, err := NormalizeNews(core.NewRawRow(core.SourceRSS, fields), buildTime, WithStrictTimestamps())
		var ve *core.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "published_at", ve.Field)
	})

	t.Run("strict mode tolerates absence", func(t *testing.T) {
		noTime := map[string]any{"title": "t", "content": "c", "url": "u"}
		doc, err := NormalizeNews(core.NewRawRow(core.SourceRSS, noTime), buildTime, WithStrictTimestamps())
		require.NoError(t, err)
		assert.Equal(t, buildTime, doc.PublishedAt)
	})
}

func TestNormalizeEvent_RawDigest(t *testing.T) {
	row := core.NewRawRow(core.SourceRaw, map[string]any{
		"id":           "raw-1",
		"title":        "Oil jumps after OPEC cut",
		"key_points":   []any{"OPEC trims output", "Brent above $90", "Energy stocks rally"},
		"published_at": "2025-05-30T10:00:00Z",
		"category":     "energy_oil",
		"source":       "Reuters",
		"url":          "https://example.com/oil",
	})
	row.Date = "2025-05-30"

	doc, err := NormalizeEvent(row, buildTime)
	require.NoError(t, err)
	assert.Equal(t, "raw-1", doc.DocID)
	assert.Equal(t, "Oil jumps after OPEC cut", doc.Event)
	assert.Equal(t, "OPEC trims output", doc.Cause)
	assert.Equal(t, "Brent above $90", doc.Development)
	assert.Equal(t, "Energy stocks rally", doc.MarketReaction)
	assert.Equal(t, "energy_oil", doc.Category)
	assert.Equal(t, "2025-05-30", doc.Date)
}

func TestNormalizeEvent_RawDigestSingleKeyPoint(t *testing.T) {
	row := core.NewRawRow(core.SourceRaw, map[string]any{
		"title":      "Quiet session",
		"key_points": []any{"Indexes flat"},
	})
	doc, err := NormalizeEvent(row, buildTime)
	require.NoError(t, err)
	assert.Equal(t, "Indexes flat", doc.Cause)
	assert.Equal(t, "Indexes flat", doc.Development)
	assert.Empty(t, doc.MarketReaction)
	assert.Empty(t, doc.URL)
	assert.Equal(t, buildTime, doc.PublishedAt)
	assert.Equal(t, "2025-06-01", doc.Date)
	assert.Equal(t, "event_"+core.IDFromContent("Quiet session|"), doc.DocID)
	assert.Empty(t, doc.Category, "raw digests keep their own category")
}

func TestNormalizeEvent_Brief(t *testing.T) {
	row := core.NewRawRow(core.SourceBriefJSON, map[string]any{
		"event":           "FOMC holds rates",
		"cause":           "Sticky inflation",
		"development":     "Dot plot shifts",
		"market_reaction": "Yields rise",
		"scenarios":       []any{"cut in Q3", " "},
		"invalidation":    "CPI below 2.5%",
		"published_at":    "bogus",
	})

	doc, err := NormalizeEvent(row, buildTime)
	require.NoError(t, err)
	assert.Equal(t, "FOMC holds rates", doc.Title)
	assert.Equal(t, []string{"cut in Q3"}, doc.Scenarios)
	assert.Equal(t, features.CategoryMonetaryPolicy, doc.Category)
	assert.Equal(t, buildTime, doc.PublishedAt)
}

func TestNormalizeEvent_BriefCategoryFromEventName(t *testing.T) {
	row := core.NewRawRow(core.SourceBriefJSON, map[string]any{
		"event":       "AI 반도체 수요 급증",
		"cause":       "연준 금리 인하 기대",
		"development": "fed 피벗 논의",
	})

	doc, err := NormalizeEvent(row, buildTime)
	require.NoError(t, err)
	assert.Equal(t, features.CategoryEquityThemeAI, doc.Category)

	md := core.NewRawRow(core.SourceBriefMarkdown, map[string]any{
		"title": "AI 반도체 수요 급증",
		"cause": "연준 금리 인하 기대",
	})
	doc, err = NormalizeEvent(md, buildTime)
	require.NoError(t, err)
	assert.Equal(t, features.CategoryMonetaryPolicy, doc.Category, "markdown briefs read header and body")
}

func TestNormalizeEvent_MissingHeadline(t *testing.T) {
	_, err := NormalizeEvent(core.NewRawRow(core.SourceBriefJSON, map[string]any{"cause": "x"}), buildTime)
	var ve *core.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "title", ve.Field)
}

const sampleBrief = `# Daily research brief

Intro paragraph that is not an event.

## FOMC 금리 동결
- **원인**: 물가 둔화 지연
- **전개**: 점도표 상향
- **시장반응**: 국채 금리 상승
무효화 조건: CPI 2% 하회

##

## AI capex accelerates
- **Cause**: Hyperscaler guidance raised
- **Market reaction**: Semiconductor rally
`

func TestParseBriefMarkdown(t *testing.T) {
	rows := ParseBriefMarkdown(sampleBrief, "brief_2025-05-30.md")
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, core.SourceBriefMarkdown, first.SourceType)
	assert.Equal(t, "FOMC 금리 동결", first.String("title"))
	assert.Equal(t, "물가 둔화 지연", first.String("cause"))
	assert.Equal(t, "점도표 상향", first.String("development"))
	assert.Equal(t, "국채 금리 상승", first.String("market_reaction"))
	assert.Equal(t, "CPI 2% 하회", first.String("invalidation"))
	assert.Equal(t, "2025-05-30T00:00:00Z", first.String("published_at"))
	assert.Equal(t, features.CategoryMonetaryPolicy, first.String("category"))
	assert.Equal(t, "2025-05-30", first.Date)

	second := rows[1]
	assert.Equal(t, "AI capex accelerates", second.String("event"))
	assert.Equal(t, "Hyperscaler guidance raised", second.String("cause"))
	assert.Empty(t, second.String("development"))
	assert.Equal(t, "Semiconductor rally", second.String("market_reaction"))
	assert.Empty(t, second.String("invalidation"))
	assert.Contains(t, second.String("id"), "brief_md_2025-05-30_2_")

	doc, err := NormalizeEvent(first, buildTime)
	require.NoError(t, err)
	assert.Equal(t, "2025-05-30T00:00:00Z", core.FormatTimestamp(doc.PublishedAt))
}

func TestParseBriefMarkdown_NoSections(t *testing.T) {
	assert.Empty(t, ParseBriefMarkdown("just prose without headings", "x.md"))
}

func TestSymbols(t *testing.T) {
	assert.Equal(t, []string{"QQQ", "SPY"}, Symbols([]string{"spy", " qqq", "SPY", ""}))
	assert.Empty(t, Symbols(nil))
}

func TestNormalizeLink(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "HTTPS://Example.COM/News/Story/", want: "https://example.com/News/Story"},
		{in: "https://example.com/a?utm_source=x&id=7&UTM_Medium=y#comments", want: "https://example.com/a?id=7"},
		{in: "https://example.com/a?b=2&a=1", want: "https://example.com/a?a=1&b=2"},
		{in: " https://example.com/ ", want: "https://example.com"},
		{in: "not a url/", want: "not a url"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLink(tt.in))
		})
	}

	assert.Equal(t,
		NormalizeLink("https://example.com/a?utm_campaign=rss"),
		NormalizeLink("https://EXAMPLE.com/a/#top"))
}
