// Package ingestion turns raw provider rows into enriched, de-duplicated documents.
//
// The Pipeline type manages the build workflow for both indexes:
//   - Normalizing raw rows, logging and counting rows that fail validation
//   - Merging duplicates (source priority for events, recency for news)
//   - Extracting features concurrently: signal, evidence and summary for news;
//     factor scores and direction for events; a pseudo-embedding for both
//
// Feature extraction runs on an ants worker pool. Results are written back by
// position, so the output order does not depend on scheduling.
package ingestion
