// Package domain defines the core business entities for Paperag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Paper: A scientific paper under ingestion or query
//   - Section: A titled, contiguous span of a paper's text
//   - Chunk: The atomic unit of indexing and retrieval
//   - IngestTask: A queued background ingestion job
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
