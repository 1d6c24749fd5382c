package core

import (
	"fmt"
	"strconv"
	"strings"
)

// RawRow is a loosely typed ingestion row as decoded from a source, before normalization.
// Fields holds the decoded values; the remaining fields carry provenance the provider knows
// about but the row itself may not.
type RawRow struct {
	Fields     map[string]any
	SourceType SourceType
	Origin     string // File name or feed URL the row came from
	Date       string // Archival date hint, typically taken from the origin file name
}

// NewRawRow creates a row of the given source type.
func NewRawRow(sourceType SourceType, fields map[string]any) RawRow {
	if fields == nil {
		fields = map[string]any{}
	}
	return RawRow{Fields: fields, SourceType: sourceType}
}

// String returns the trimmed string value of the first key that holds a non-empty value.
func (r RawRow) String(keys ...string) string {
	for _, key := range keys {
		if s := stringify(r.Fields[key]); s != "" {
			return s
		}
	}
	return ""
}

// Strings returns the value of key as a list of trimmed, non-empty strings.
// Arrays and comma-separated strings are both accepted.
func (r RawRow) Strings(key string) []string {
	return SplitList(r.Fields[key])
}

// Has reports whether key is present with a non-empty value.
func (r RawRow) Has(key string) bool {
	return r.String(key) != ""
}

// SplitList converts an array or comma-separated string into trimmed, non-empty strings.
func SplitList(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := stringify(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		text := stringify(v)
		if text == "" {
			return nil
		}
		parts := strings.Split(text, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
