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


// Package index holds the immutable in-memory document snapshots the search services
// rank against.
//
// A Snapshot is built once from a complete document set and never modified; a
// rebuild produces a new Snapshot that replaces the old one wholesale. Readers that
// obtained the old Snapshot keep a consistent view for as long as they hold it.
package index

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// UnknownDate is the archive bucket for documents without a date.
const UnknownDate = "unknown"

// Params describes a build alongside its documents.
type Params struct {
	// LatestLoaded records, per source kind, whether a "latest" input was loaded.
	LatestLoaded map[string]bool

	// BuiltAt is the build completion time.
	BuiltAt time.Time

	// EmbedDim is the embedding length of every document.
	EmbedDim int
}

// Snapshot is an immutable set of documents plus build metadata.
type Snapshot[D any] struct {
	docs           []D
	archivesByDate map[string]int
	latestLoaded   map[string]bool
	builtAt        time.Time
	buildID        string
	embedDim       int
}

// New creates a snapshot over docs. dateOf returns the archive date of a document.
// The snapshot takes ownership of docs; callers must not modify the slice or its
// elements afterwards.
func New[D any](docs []D, dateOf func(D) string, p Params) *Snapshot[D] {
	archives := make(map[string]int)
	for _, doc := range docs {
		date := dateOf(doc)
		if date == "" {
			date = UnknownDate
		}
		archives[date]++
	}

	latest := make(map[string]bool, len(p.LatestLoaded))
	maps.Copy(latest, p.LatestLoaded)

	return &Snapshot[D]{
		docs:           docs,
		archivesByDate: archives,
		latestLoaded:   latest,
		builtAt:        p.BuiltAt.UTC().Truncate(time.Second),
		buildID:        uuid.NewString(),
		embedDim:       p.EmbedDim,
	}
}

// Docs returns the indexed documents. The slice is shared and must not be modified.
func (s *Snapshot[D]) Docs() []D {
	return s.docs
}

// Len returns the number of indexed documents.
func (s *Snapshot[D]) Len() int {
	return len(s.docs)
}

// ArchivesByDate returns a copy of the per-date document counts.
func (s *Snapshot[D]) ArchivesByDate() map[string]int {
	return maps.Clone(s.archivesByDate)
}

// LatestLoaded returns a copy of the per-source latest flags.
func (s *Snapshot[D]) LatestLoaded() map[string]bool {
	return maps.Clone(s.latestLoaded)
}

// BuiltAt returns the build time, UTC with second precision.
func (s *Snapshot[D]) BuiltAt() time.Time {
	return s.builtAt
}

// BuildID uniquely identifies this build.
func (s *Snapshot[D]) BuildID() string {
	return s.buildID
}

// EmbedDim returns the embedding length of the indexed documents.
func (s *Snapshot[D]) EmbedDim() int {
	return s.embedDim
}
