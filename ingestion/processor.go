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


package ingestion

import (
	"context"
	"errors"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// processor enriches one normalized document with derived features.
// Implementations must be safe for concurrent use; each call owns its document.
type processor[D any] interface {
	process(ctx context.Context, doc D) error
}

// runPool applies proc to every doc on pool and waits for all of them.
// Errors are collected by position and joined.
func runPool[D any](ctx context.Context, pool *ants.Pool, proc processor[D], docs []D) error {
	var wg sync.WaitGroup
	errs := make([]error, len(docs))

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			errs[i] = proc.process(ctx, doc)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return err
		}
	}

	wg.Wait()
	return errors.Join(errs...)
}
