package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/casebinder/casebinder/internal/core/catalog"
	"github.com/casebinder/casebinder/internal/core/domain"
)

const testCatalogYAML = `
version: "1.2.0"
document_types:
  - id: application-for-leave
    label: Application for Leave
    keywords: [application for leave]
  - id: decision-under-review
    label: Decision Under Review
    keywords: [decision]
  - id: translation
    label: Certified Translation
    keywords: [translation]
  - id: translator-declaration
    label: Translator's Declaration
    keywords: [translator]
  - id: supporting-document
    label: Supporting Document
rule_sets:
  - forum: federal-court-jr
    profile: leave
    default: true
    deadline:
      basis: decision
      days: 15
      approaching_lead_days: 5
      citation: "IRPA s 72(2)(b)"
    sections:
      - id: originating
        title: Originating Documents
        document_types: [application-for-leave]
      - id: decision
        title: Decision
        document_types: [decision-under-review]
      - id: translations
        title: Translations
        document_types: [translation, translator-declaration]
    rules:
      - id: jr-application
        scope: required
        document_types: [application-for-leave]
        order_priority: 10
        citation: "IRPA s 72(1)"
      - id: jr-decision
        scope: required
        document_types: [decision-under-review]
        order_priority: 20
        citation: "SOR/93-22, r 10(2)(a)"
      - id: jr-translations
        scope: conditional
        document_types: [translation]
        trigger:
          any_present: [translation]
        order_priority: 30
        citation: "SOR/98-106, r 93(1)"
      - id: jr-translator-declaration
        scope: conditional
        document_types: [translator-declaration]
        trigger:
          any_present: [translation]
        order_priority: 40
        citation: "SOR/98-106, r 93(2)"
  - forum: federal-court-jr
    profile: hearing
    deadline:
      basis: service
      days: 20
      approaching_lead_days: 7
      citation: "SOR/93-22, r 17"
    sections:
      - id: decision
        title: Decision
        document_types: [decision-under-review]
    rules:
      - id: hr-decision
        scope: required
        document_types: [decision-under-review]
        order_priority: 10
        citation: "SOR/93-22, r 17(a)"
`

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalogYAML), "")
	if err != nil {
		t.Fatalf("parse test catalog: %v", err)
	}
	return cat
}

type matterRepoFake struct {
	mu       sync.Mutex
	matters  map[string]*domain.Matter
	getErr   error
	updErr   error
	conflict int
	updates  int
}

func newMatterRepoFake() *matterRepoFake {
	return &matterRepoFake{matters: make(map[string]*domain.Matter)}
}

func (f *matterRepoFake) key(matterID, ownerScope string) string {
	return matterID + "|" + ownerScope
}

func (f *matterRepoFake) Create(_ context.Context, m *domain.Matter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.Revision = 1
	clone := *m
	f.matters[f.key(m.MatterID, m.OwnerScope)] = &clone
	return nil
}

func (f *matterRepoFake) Get(_ context.Context, matterID, ownerScope string) (*domain.Matter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	m, ok := f.matters[f.key(matterID, ownerScope)]
	if !ok {
		return nil, domain.WrapError(domain.ErrMatterNotFound, "fake.get", fmt.Errorf("matter %s not found", matterID))
	}
	clone := *m
	clone.Documents = append([]domain.UploadedDocument(nil), m.Documents...)
	clone.Audit = append([]domain.AuditEntry(nil), m.Audit...)
	return &clone, nil
}

func (f *matterRepoFake) Update(_ context.Context, m *domain.Matter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updErr != nil {
		return f.updErr
	}
	if f.conflict > 0 {
		f.conflict--
		return domain.WrapError(domain.ErrConflict, "fake.update", fmt.Errorf("stale revision"))
	}
	stored, ok := f.matters[f.key(m.MatterID, m.OwnerScope)]
	if !ok {
		return domain.WrapError(domain.ErrMatterNotFound, "fake.update", fmt.Errorf("matter %s not found", m.MatterID))
	}
	if stored.Revision != m.Revision {
		return domain.WrapError(domain.ErrConflict, "fake.update", fmt.Errorf("stale revision %d", m.Revision))
	}
	m.Revision++
	clone := *m
	f.matters[f.key(m.MatterID, m.OwnerScope)] = &clone
	f.updates++
	return nil
}

type storageFake struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
	openErr error
}

func newStorageFake() *storageFake {
	return &storageFake{objects: make(map[string][]byte)}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	payload, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = payload
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	payload, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not stored", key)
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

type snifferFake struct {
	failOn map[string]bool
}

func (f *snifferFake) Sniff(payload []byte) (domain.SignatureKind, error) {
	if f.failOn != nil && f.failOn[string(payload)] {
		return domain.SignatureUnknown, fmt.Errorf("unrecognized byte signature")
	}
	return domain.SignaturePDF, nil
}

type extractorFake struct {
	pages  int
	errOn  map[string]bool
	ocrOn  map[string]bool
	textBy map[string]string
}

func (f *extractorFake) Extract(_ context.Context, payload []byte, _ domain.SignatureKind) (domain.Extraction, error) {
	key := string(payload)
	if f.errOn != nil && f.errOn[key] {
		return domain.Extraction{}, fmt.Errorf("corrupt payload")
	}
	pages := f.pages
	if pages == 0 {
		pages = 3
	}
	text := key
	if f.textBy != nil {
		text = f.textBy[key]
	}
	return domain.Extraction{
		Text:        text,
		PageCount:   pages,
		OCRFallback: f.ocrOn != nil && f.ocrOn[key],
	}, nil
}

// classifierFake keys its verdict on the payload text: "as:<type>:<conf>".
type classifierFake struct {
	err error
}

func (f *classifierFake) Classify(_ context.Context, input domain.ClassificationInput) (domain.DocumentTypeID, float64, error) {
	if f.err != nil {
		return "", 0, f.err
	}
	parts := strings.SplitN(input.Text, ":", 3)
	if len(parts) == 3 && parts[0] == "as" {
		var conf float64
		fmt.Sscanf(parts[2], "%f", &conf)
		return domain.DocumentTypeID(parts[1]), conf, nil
	}
	return "supporting-document", 0.1, nil
}

type auditStreamFake struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	pubErr error
}

func (f *auditStreamFake) PublishAuditEvent(_ context.Context, ev domain.AuditEvent) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *auditStreamFake) SubscribeAuditEvents(context.Context, func(context.Context, domain.AuditEvent) error) error {
	return nil
}

func (f *auditStreamFake) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Action)
	}
	return out
}

type metricsFake struct {
	mu            sync.Mutex
	lowConfidence int
	compiles      map[domain.IntegrityStatus]int
	blocked       int
}

func newMetricsFake() *metricsFake {
	return &metricsFake{compiles: make(map[domain.IntegrityStatus]int)}
}

func (f *metricsFake) LowConfidenceClassification(string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lowConfidence++
}

func (f *metricsFake) BinderCompiled(status domain.IntegrityStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.compiles[status]++
}

func (f *metricsFake) DeadlineBlocked(string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked++
}

// binderFake returns a canned artifact, optionally lying about the page count
// to exercise the integrity gate downstream.
type binderFake struct {
	enabled  bool
	artifact *domain.CompiledArtifact
	calls    int
}

func (f *binderFake) Enabled() bool { return f.enabled }

func (f *binderFake) Compile(_ context.Context, _ []domain.BinderSource, plan domain.AssemblyPlan) *domain.CompiledArtifact {
	f.calls++
	if f.artifact != nil {
		return f.artifact
	}
	bookmarks := make([]domain.Bookmark, 0, len(plan.TOC))
	for _, entry := range plan.TOC {
		bookmarks = append(bookmarks, domain.Bookmark{Title: entry.BookmarkTitle(), Page: entry.StartPage})
	}
	return &domain.CompiledArtifact{
		Bytes:           []byte("%PDF-fake"),
		PageCount:       plan.Pagination.TotalPages,
		Bookmarks:       bookmarks,
		IntegrityStatus: domain.IntegrityVerified,
	}
}

type exporterFake struct{}

func (exporterFake) Export(res *domain.PackageResult) ([]byte, error) {
	return []byte("checklist:" + res.MatterID), nil
}
