package domain

import "fmt"

// TOCEntry is one row of the table of contents. Page ranges are 1-indexed,
// contiguous and non-overlapping across the plan.
type TOCEntry struct {
	Position     int            `json:"position"`
	DocumentType DocumentTypeID `json:"document_type"`
	FileID       string         `json:"file_id"`
	Filename     string         `json:"filename"`
	StartPage    int            `json:"start_page"`
	EndPage      int            `json:"end_page"`
}

// BookmarkTitle is the canonical bookmark text for the entry. The binder
// generator both writes and verifies bookmarks through this formula, so the
// integrity comparison is exact.
func (e TOCEntry) BookmarkTitle() string {
	return fmt.Sprintf("%02d %s", e.Position, e.Filename)
}

type PaginationSummary struct {
	TotalDocuments int `json:"total_documents"`
	TotalPages     int `json:"total_pages"`
}

// AssemblyPlan is the single source of truth both the metadata response and
// the compiled binder must agree with.
type AssemblyPlan struct {
	TOC        []TOCEntry        `json:"toc_entries"`
	Pagination PaginationSummary `json:"pagination_summary"`
}

// Entry returns the TOC entry for a file id, or nil.
func (p AssemblyPlan) Entry(fileID string) *TOCEntry {
	for i := range p.TOC {
		if p.TOC[i].FileID == fileID {
			return &p.TOC[i]
		}
	}
	return nil
}

type IntegrityStatus string

const (
	IntegrityVerified    IntegrityStatus = "verified"
	IntegrityMismatched  IntegrityStatus = "mismatched"
	IntegrityUnavailable IntegrityStatus = "unavailable"
)

// Bookmark is one outline anchor re-derived from a compiled binder.
type Bookmark struct {
	Title string `json:"title"`
	Page  int    `json:"page"`
}

// CompiledArtifact is the ephemeral binder output. Bytes are only populated
// when the integrity gate passed; the artifact is regenerated on each build
// and never reused without re-verification.
type CompiledArtifact struct {
	Bytes           []byte          `json:"-"`
	PageCount       int             `json:"page_count"`
	Bookmarks       []Bookmark      `json:"bookmarks"`
	IntegrityStatus IntegrityStatus `json:"integrity_status"`
	Detail          string          `json:"detail,omitempty"`
}

// BinderSource pairs a planned document with its raw payload.
type BinderSource struct {
	FileID    string
	Signature SignatureKind
	Payload   []byte
}
