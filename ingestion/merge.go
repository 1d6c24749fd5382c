package ingestion

import (
	"github.com/poiesic/marketrag/core"
	"github.com/poiesic/marketrag/normalize"
)

// MergeEvents de-duplicates events by DocID, falling back to a content hash of the
// headline and URL for documents without one. A duplicate from a higher-priority
// source replaces the kept document in place; on equal priority the first seen wins.
func MergeEvents(docs []*core.EventDoc) []*core.EventDoc {
	index := make(map[string]int, len(docs))
	out := make([]*core.EventDoc, 0, len(docs))

	for _, doc := range docs {
		key := doc.DocID
		if key == "" {
			key = core.IDFromContent(doc.Headline() + "|" + doc.URL)
		}
		if i, seen := index[key]; seen {
			if doc.SourceType.Priority() > out[i].SourceType.Priority() {
				out[i] = doc
			}
			continue
		}
		index[key] = len(out)
		out = append(out, doc)
	}
	return out
}

// MergeNews de-duplicates news articles that share a DocID or a normalized link.
// The most recently published duplicate replaces the kept document in place; on
// equal timestamps the first seen wins.
func MergeNews(docs []*core.NewsDoc) []*core.NewsDoc {
	byID := make(map[string]int, len(docs))
	byLink := make(map[string]int, len(docs))
	out := make([]*core.NewsDoc, 0, len(docs))

	for _, doc := range docs {
		link := normalize.NormalizeLink(doc.SourceLink)

		i, seen := byID[doc.DocID]
		if !seen && link != "" {
			i, seen = byLink[link]
		}
		if !seen {
			i = len(out)
			out = append(out, doc)
		} else if doc.PublishedAt.After(out[i].PublishedAt) {
			out[i] = doc
		}

		byID[doc.DocID] = i
		if link != "" {
			byLink[link] = i
		}
	}
	return out
}
