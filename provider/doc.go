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


// Package provider loads raw ingestion rows from the sources the indexes are built from.
//
// Each Provider returns a Batch of loosely typed core.RawRow values; normalization
// and feature extraction happen downstream in the ingestion package. Providers
// report unusable sources with core.ErrSourceUnavailable and sources that yield
// nothing with core.ErrEmptySource, so callers can decide whether to degrade or
// fall back.
//
// # Implementations
//
//   - NewsFile: a JSON array of pre-normalized news articles
//   - Feed: RSS/Atom feeds, paced by a token bucket and retried with backoff
//   - RawDigestDir: daily raw news digests ({"items": [...]}) in a directory
//   - BriefDir: curated research briefs in JSON and Markdown in a directory
package provider
