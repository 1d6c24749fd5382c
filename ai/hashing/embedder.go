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


// Package hashing implements ai.Embedder with signed feature hashing.
//
// Every token is hashed with BLAKE2b into one of dim buckets and adds +1 or -1
// there depending on a second hash bit. The accumulated vector is L2 normalized.
// Vectors carry lexical overlap only; they are deterministic across processes and
// platforms, so documents embedded in one build compare meaningfully with queries
// embedded in another.
package hashing

import (
	"context"
	"encoding/binary"
	"errors"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/marketrag/ai"
	"github.com/poiesic/marketrag/features"
)

// digestSize is the number of BLAKE2b bytes read per token: four for the bucket, one for the sign.
const digestSize = 8

// ErrInvalidDimension is returned by New when dim is not positive.
var ErrInvalidDimension = errors.New("embedding dimension must be positive")

// Embedder is a stateless feature-hashing embedder. Safe for concurrent use.
type Embedder struct {
	dim int
}

var _ ai.Embedder = (*Embedder)(nil)

// New creates an embedder producing vectors of length dim.
func New(dim int) (*Embedder, error) {
	if dim <= 0 {
		return nil, ErrInvalidDimension
	}
	return &Embedder{dim: dim}, nil
}

// Dimension returns the vector length.
func (e *Embedder) Dimension() int {
	return e.dim
}

// Vector embeds text. Text without tokens yields the zero vector.
func (e *Embedder) Vector(text string) []float32 {
	acc := make([]float64, e.dim)
	h, _ := blake2b.New(digestSize, nil)
	sum := make([]byte, 0, digestSize)

	for _, token := range features.Tokenize(text) {
		h.Reset()
		h.Write([]byte(token))
		sum = h.Sum(sum[:0])

		bucket := binary.BigEndian.Uint32(sum[0:4]) % uint32(e.dim)
		if sum[4]%2 == 0 {
			acc[bucket]++
		} else {
			acc[bucket]--
		}
	}

	vec := make([]float32, e.dim)
	for i, v := range acc {
		vec[i] = float32(v)
	}
	return ai.Normalize(vec)
}

// EmbedText implements ai.Embedder.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.Vector(text), nil
}

// EmbedTexts implements ai.Embedder.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.Vector(text)
	}
	return out, nil
}
