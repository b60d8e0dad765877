package domain

import "time"

// DocumentTypeID is a canonical identifier drawn from the document type
// registry. Every rule, section slot and classification result must resolve
// to a registered id.
type DocumentTypeID string

type QualityStatus string

const (
	QualityReady       QualityStatus = "ready"
	QualityNeedsReview QualityStatus = "needs_review"
	QualityFailed      QualityStatus = "failed"
)

// SignatureKind is the payload type derived from byte signatures. The
// declared content type of an upload is untrusted.
type SignatureKind string

const (
	SignaturePDF     SignatureKind = "pdf"
	SignaturePNG     SignatureKind = "png"
	SignatureJPEG    SignatureKind = "jpeg"
	SignatureUnknown SignatureKind = "unknown"
)

type Issue struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Remediation string `json:"remediation,omitempty"`
}

// UploadedDocument is one intake file owned by a Matter. Classification and
// quality status are set by the intake pipeline and change afterwards only
// through the audited classification override.
type UploadedDocument struct {
	FileID             string         `json:"file_id"`
	OriginalFilename   string         `json:"original_filename"`
	NormalizedFilename string         `json:"normalized_filename"`
	StoragePath        string         `json:"storage_path"`
	Signature          SignatureKind  `json:"signature"`
	Classification     DocumentTypeID `json:"classification,omitempty"`
	Confidence         float64        `json:"classification_confidence"`
	QualityStatus      QualityStatus  `json:"quality_status"`
	Issues             []Issue        `json:"issues,omitempty"`
	PageCount          int            `json:"page_count"`
	UploadOrder        int            `json:"upload_order"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// Ready reports whether the document may feed automatic validation and
// assembly. Files pending review or failed still occupy slot candidates but
// never count as satisfying a rule.
func (d UploadedDocument) Ready() bool {
	return d.QualityStatus == QualityReady
}

// ClassificationInput carries everything a classifier may consult.
type ClassificationInput struct {
	Filename  string
	Text      string
	Signature SignatureKind
}

// Extraction is the result of the text/OCR extraction capability.
type Extraction struct {
	Text        string
	PageCount   int
	OCRFallback bool
}
