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


// Package search ranks indexed documents against ticker queries.
//
// Two services share the scoring machinery:
//   - NewsService ranks news articles by semantic similarity, ticker overlap and recency
//   - DecisionService ranks market events by semantic similarity, factor fit, causal
//     completeness and recency, then aggregates the top events into a per-ticker call
//
// Each service owns an immutable index snapshot and the query cache built against it.
// Build replaces both atomically, so a query sees either the old index with its cache
// or the new index with an empty one.
package search
