// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared data model for the harvest pipeline.
package types

// Family classifies a discovered document by the IMSS naming convention.
type Family int

const (
	// FamilyOther is anything that is not a guideline PDF.
	FamilyOther Family = iota

	// FamilyGER is the comprehensive evidence-and-recommendations
	// guideline, the download target.
	FamilyGER

	// FamilyGRR is the quick-reference companion document, always
	// skipped.
	FamilyGRR
)

func (f Family) String() string {
	switch f {
	case FamilyGER:
		return "GER"
	case FamilyGRR:
		return "GRR"
	default:
		return "other"
	}
}

// Guideline describes one discovered guideline document. It is built once
// during classification and never mutated afterwards.
type Guideline struct {
	// SourceURL is the absolute PDF URL and the deduplication key.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// FileName is the base name of the remote PDF.
	FileName string `json:"file_name" yaml:"file_name"`

	// Title is the anchor text from the listing page.
	Title string `json:"title" yaml:"title"`

	// GuideID is the IMSS catalog number (e.g. "IMSS-050-18"); empty
	// when none could be extracted. It only influences the local
	// filename, never inclusion.
	GuideID string `json:"guide_id,omitempty" yaml:"guide_id,omitempty"`

	// Family is the document family the filename matched.
	Family Family `json:"family" yaml:"family"`

	// LocalName is the deterministic on-disk filename; the same source
	// URL always yields the same LocalName across runs, which is what
	// makes the duplicate skip correct.
	LocalName string `json:"local_name" yaml:"local_name"`
}

// RunStats accumulates outcome counts for one harvest run. It is owned by
// the orchestrator; nothing else writes to it.
type RunStats struct {
	PagesVisited   int `json:"pages_visited" yaml:"pages_visited"`
	DocumentsFound int `json:"documents_found" yaml:"documents_found"`
	Downloaded     int `json:"downloaded" yaml:"downloaded"`
	Skipped        int `json:"skipped" yaml:"skipped"`
	Failed         int `json:"failed" yaml:"failed"`
}

// Total returns the number of documents processed.
func (s RunStats) Total() int {
	return s.Downloaded + s.Skipped + s.Failed
}

// HasFailures reports whether any document failed.
func (s RunStats) HasFailures() bool {
	return s.Failed > 0
}
