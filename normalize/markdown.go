package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/poiesic/marketrag/core"
	"github.com/poiesic/marketrag/features"
)

// BriefSectionDelimiter separates events in a Markdown research brief.
const BriefSectionDelimiter = "\n## "

// MarkdownBriefSource is the source label stamped on rows parsed from Markdown briefs.
const MarkdownBriefSource = "RESEARCHER_MD"

// Labelled bullet patterns, Korean labels first with English aliases.
var (
	causeRe        = labelledBullet("원인", "cause")
	developmentRe  = labelledBullet("전개", "development")
	reactionRe     = labelledBullet("시장반응", "market reaction")
	invalidationRe = regexp.MustCompile(`(?i)(?:무효화|invalidation)[^\n:]*:\s*(.+)`)
)

func labelledBullet(labels ...string) *regexp.Regexp {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = regexp.QuoteMeta(l)
	}
	return regexp.MustCompile(`(?i)-\s*\*\*(?:` + strings.Join(quoted, "|") + `)\*\*:\s*(.+)`)
}

// ParseBriefMarkdown splits a Markdown brief into one raw row per "## " section.
// Text before the first section heading is not an event and is dropped, as is any
// section whose heading is empty. Missing labelled sub-fields become empty strings.
func ParseBriefMarkdown(text, filename string) []core.RawRow {
	date := DateFromFilename(filename)
	text = strings.ReplaceAll(text, "\r\n", "\n")

	chunks := strings.Split("\n"+text, BriefSectionDelimiter)
	var rows []core.RawRow
	for _, chunk := range chunks[1:] {
		lines := nonEmptyLines(chunk)
		if len(lines) == 0 {
			continue
		}
		header := strings.TrimSpace(strings.TrimLeft(lines[0], "#"))
		if header == "" {
			continue
		}
		body := strings.Join(lines[1:], "\n")

		published := ""
		if date != "" {
			published = date + "T00:00:00Z"
		}

		row := core.NewRawRow(core.SourceBriefMarkdown, map[string]any{
			"id":              fmt.Sprintf("brief_md_%s_%d_%s", date, len(rows)+1, core.IDFromContent(header)[:8]),
			"published_at":    published,
			"title":           header,
			"event":           header,
			"cause":           firstGroup(causeRe, body),
			"development":     firstGroup(developmentRe, body),
			"market_reaction": firstGroup(reactionRe, body),
			"invalidation":    firstGroup(invalidationRe, body),
			"category":        features.InferCategory(header + " " + body),
			"source":          MarkdownBriefSource,
		})
		row.Origin = filename
		row.Date = date
		rows = append(rows, row)
	}
	return rows
}

func nonEmptyLines(chunk string) []string {
	var out []string
	for _, ln := range strings.Split(chunk, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

func firstGroup(re *regexp.Regexp, body string) string {
	if m := re.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
