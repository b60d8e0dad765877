package domain

// UploadFile is one file delivered by the upload transport. The declared
// content type is untrusted and only kept for diagnostics.
type UploadFile struct {
	Filename            string
	DeclaredContentType string
	Payload             []byte
}

// IntakeCommand is the inbound request for one intake batch.
type IntakeCommand struct {
	OwnerScope    string
	MatterID      string
	Forum         string
	ProfileID     string
	Files         []UploadFile
	FilingContext *FilingContext
}

// FileOutcome is the per-file result of an intake batch.
type FileOutcome struct {
	FileID         string         `json:"file_id"`
	Filename       string         `json:"filename"`
	Classification DocumentTypeID `json:"classification,omitempty"`
	Confidence     float64        `json:"classification_confidence"`
	QualityStatus  QualityStatus  `json:"quality_status"`
	PageCount      int            `json:"page_count"`
	Issues         []Issue        `json:"issues,omitempty"`
}

type IntakeResult struct {
	MatterID  string        `json:"matter_id"`
	Forum     string        `json:"forum"`
	ProfileID string        `json:"profile_id"`
	Files     []FileOutcome `json:"files"`
	Readiness Readiness     `json:"readiness"`
}

// ArtifactMetadata is the binder state exposed by package responses; bytes
// are never included there.
type ArtifactMetadata struct {
	PageCount       int             `json:"page_count"`
	Bookmarks       []Bookmark      `json:"bookmarks,omitempty"`
	IntegrityStatus IntegrityStatus `json:"integrity_status"`
	Detail          string          `json:"detail,omitempty"`
}

// PackageResult answers "what is missing and why" even when no binder can be
// produced.
type PackageResult struct {
	MatterID  string            `json:"matter_id"`
	Forum     string            `json:"forum"`
	ProfileID string            `json:"profile_id"`
	Violation []Violation       `json:"violations"`
	Sections  []RecordSection   `json:"sections"`
	Plan      AssemblyPlan      `json:"assembly_plan"`
	Deadline  DeadlineResult    `json:"deadline"`
	Readiness Readiness         `json:"readiness"`
	Artifact  *ArtifactMetadata `json:"compiled_artifact,omitempty"`
}

type ReadinessReport struct {
	MatterID  string          `json:"matter_id"`
	Readiness Readiness       `json:"readiness"`
	Sections  []RecordSection `json:"sections"`
	Deadline  DeadlineResult  `json:"deadline"`
}
