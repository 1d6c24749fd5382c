// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"sort"
	"strings"
)

// ValidateNewsDoc checks an enriched NewsDoc against the index invariants.
//
// Validation rules:
//   - DocID, Title, Content and SourceLink must not be empty
//   - PublishedAt must be set
//   - Tickers must be trimmed, uppercase, unique and sorted
//   - Embedding must have exactly dim entries
func ValidateNewsDoc(doc *NewsDoc, dim int) error {
	if doc == nil {
		return NewValidationError("document", "is nil")
	}
	if doc.DocID == "" {
		return NewValidationError("doc_id", "is required")
	}
	if doc.Title == "" {
		return NewValidationError("title", "is required")
	}
	if doc.Content == "" {
		return NewValidationError("content", "is required")
	}
	if doc.SourceLink == "" {
		return NewValidationError("url", "is required")
	}
	if doc.PublishedAt.IsZero() {
		return NewValidationError("published_at", "is not set")
	}
	if err := ValidateSymbols("tickers", doc.Tickers); err != nil {
		return err
	}
	return validateEmbedding(doc.Embedding, dim)
}

// ValidateEventDoc checks an enriched EventDoc against the index invariants.
//
// Validation rules:
//   - DocID must not be empty and one of Title or Event must be set
//   - PublishedAt must be set
//   - every factor score must lie within [-1, 1]
//   - Embedding must have exactly dim entries
//
// NOT validated:
//   - URL (curated briefs carry none)
func ValidateEventDoc(doc *EventDoc, dim int) error {
	if doc == nil {
		return NewValidationError("document", "is nil")
	}
	if doc.DocID == "" {
		return NewValidationError("doc_id", "is required")
	}
	if doc.Title == "" && doc.Event == "" {
		return NewValidationError("title", "is required")
	}
	if doc.PublishedAt.IsZero() {
		return NewValidationError("published_at", "is not set")
	}
	if doc.FactorScores.MaxAbs() > 1.0 {
		return NewValidationError("factor_scores", fmt.Sprintf("exceed unit magnitude (%.3f)", doc.FactorScores.MaxAbs()))
	}
	return validateEmbedding(doc.Embedding, dim)
}

// ValidateSymbols checks that symbols are trimmed, uppercase, unique and sorted.
func ValidateSymbols(field string, symbols []string) error {
	for i, s := range symbols {
		if s == "" || s != strings.TrimSpace(s) || s != strings.ToUpper(s) {
			return NewValidationError(field, fmt.Sprintf("contains non-canonical symbol %q", s))
		}
		if i > 0 && symbols[i-1] == s {
			return NewValidationError(field, fmt.Sprintf("contains duplicate symbol %q", s))
		}
	}
	if !sort.StringsAreSorted(symbols) {
		return NewValidationError(field, "are not sorted")
	}
	return nil
}

func validateEmbedding(vec []float32, dim int) error {
	if len(vec) != dim {
		return NewValidationError("embedding", fmt.Sprintf("has length %d, want %d", len(vec), dim))
	}
	return nil
}
