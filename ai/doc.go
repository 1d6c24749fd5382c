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


// Package ai provides the embedding abstraction used to rank documents.
//
// The core and search packages depend on the Embedder interface rather than on a
// concrete implementation, so the vectorizer can be swapped without touching
// scoring code.
//
// # Implementation Packages
//
//   - ai/hashing: Deterministic feature-hashing pseudo-embeddings. No model, no network.
//   - ai/mock: Test doubles for unit testing with injected behavior.
//
// # Constructor Return Type Pattern
//
// hashing.New returns the concrete *hashing.Embedder; callers store it as an
// ai.Embedder. mock.NewMockEmbedder returns *mock.MockEmbedder so tests can
// inject behavior and assert on CallCount.
//
// # Usage Example
//
//	embedder, err := hashing.New(cfg.NewsDimension)
//	if err != nil {
//	    return err
//	}
//	query, _ := embedder.EmbedText(ctx, "ETF news QQQ nasdaq")
//	doc, _ := embedder.EmbedText(ctx, "Nasdaq rallies on megacap earnings")
//	score := ai.Cosine(query, doc)
package ai
