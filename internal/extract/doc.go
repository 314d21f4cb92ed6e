// Package extract derives a brand signature from a rendered dom.Document.
//
// The extractors are independent single-pass tree walks:
//   - AggregateStyles ranks computed colors and collects font families.
//   - Harvester collects images from an ordered list of Source strategies
//     and deduplicates them by canonical key.
//   - ExtractText collects visible text blocks.
//   - ReadMetadata reads title, description and favicon.
//
// Every call owns its accumulators (ColorCount, DedupIndex); nothing is
// shared between passes, so concurrent passes over different documents are
// safe.
package extract
