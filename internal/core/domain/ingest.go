package domain

// IngestStats summarises one successful ingestion.
type IngestStats struct {
	// Chunks is the number of chunks indexed.
	Chunks int

	// Sections is the number of detected sections.
	Sections int

	// Method records which extraction path was used.
	Method ExtractionMethod

	// Characters is the total text length processed.
	Characters int
}

// IngestResult is the tagged outcome of an ingestion attempt.
type IngestResult struct {
	// Success reports whether the paper was indexed.
	Success bool

	// PaperID is the paper the result refers to.
	PaperID string

	// Cached is set when the paper was already indexed and
	// processing was skipped.
	Cached bool

	// Stats carries statistics for a successful ingestion.
	Stats IngestStats

	// Stage names the pipeline stage that failed, when Success is false.
	Stage string

	// Error is the failure message, when Success is false.
	Error string
}

// IndexStats summarises the state of the index store.
type IndexStats struct {
	// TotalChunks is the number of chunks in the metadata table.
	TotalChunks int

	// VectorCount is the number of vectors in the dense index.
	// Invariant: equals TotalChunks.
	VectorCount int

	// UniquePapers is the number of distinct paper IDs.
	UniquePapers int

	// UniqueSections is the number of distinct section titles.
	UniqueSections int
}
