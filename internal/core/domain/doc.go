// Package domain defines the core business entities for manualqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - PageImage: A rasterised manual page
//   - IconCrop, IconCluster: Icon candidates and their near-duplicate groups
//   - IconClassification, IconToken: Vision-model semantics and inline tokens
//   - Chunk: A retrievable, embedded span of enriched manual text
//   - Manual, IngestRun: Registry entries for ingested manuals
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
