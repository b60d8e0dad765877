package ports

import (
	"context"
	"io"

	"github.com/casebinder/casebinder/internal/core/domain"
)

// MatterRepository persists matters, strictly scoped by owner. Update is a
// compare-and-swap on the matter revision so concurrent mutations never
// interleave into a half-updated state.
type MatterRepository interface {
	Create(ctx context.Context, m *domain.Matter) error
	Get(ctx context.Context, matterID, ownerScope string) (*domain.Matter, error)
	Update(ctx context.Context, m *domain.Matter) error
}

// AuditRepository persists audit events consumed from the event stream.
type AuditRepository interface {
	Insert(ctx context.Context, ev domain.AuditEvent) error
}

// ObjectStorage stores source payloads.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// AuditStream publishes and consumes matter audit events.
type AuditStream interface {
	PublishAuditEvent(ctx context.Context, ev domain.AuditEvent) error
	SubscribeAuditEvents(ctx context.Context, handler func(context.Context, domain.AuditEvent) error) error
}

// PayloadSniffer derives the payload kind from byte signatures; declared
// content types are never trusted.
type PayloadSniffer interface {
	Sniff(payload []byte) (domain.SignatureKind, error)
}

// TextExtractor extracts text and page counts from a payload, signalling
// when only an OCR fallback could produce text.
type TextExtractor interface {
	Extract(ctx context.Context, payload []byte, kind domain.SignatureKind) (domain.Extraction, error)
}

// Classifier maps one upload to a registered document type with a confidence
// in [0,1]. The intake pipeline owns the confidence threshold.
type Classifier interface {
	Classify(ctx context.Context, input domain.ClassificationInput) (domain.DocumentTypeID, float64, error)
}

// BinderCompiler merges planned payloads into one bookmarked, page-stamped
// binder and verifies the output against the plan.
type BinderCompiler interface {
	Enabled() bool
	Compile(ctx context.Context, sources []domain.BinderSource, plan domain.AssemblyPlan) *domain.CompiledArtifact
}

// ChecklistExporter renders a package result as a downloadable checklist.
type ChecklistExporter interface {
	Export(res *domain.PackageResult) ([]byte, error)
}

// EngineMetrics records compilation-engine telemetry.
type EngineMetrics interface {
	LowConfidenceClassification(forum, profile string)
	BinderCompiled(status domain.IntegrityStatus)
	DeadlineBlocked(forum, profile string)
}
