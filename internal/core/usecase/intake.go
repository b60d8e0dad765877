package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/casebinder/casebinder/internal/core/catalog"
	"github.com/casebinder/casebinder/internal/core/domain"
	"github.com/casebinder/casebinder/internal/core/engine"
	"github.com/casebinder/casebinder/internal/core/ports"
)

// IntakeUseCase classifies an upload batch and folds it into a matter. Files
// are processed in parallel; validation, sections and planning only run once
// the whole batch is classified.
type IntakeUseCase struct {
	repo       ports.MatterRepository
	storage    ports.ObjectStorage
	sniffer    ports.PayloadSniffer
	extractor  ports.TextExtractor
	classifier ports.Classifier
	audit      ports.AuditStream
	metrics    ports.EngineMetrics
	catalog    *catalog.Catalog

	minConfidence float64
	maxParallel   int
	now           func() time.Time
}

func NewIntakeUseCase(
	repo ports.MatterRepository,
	storage ports.ObjectStorage,
	sniffer ports.PayloadSniffer,
	extractor ports.TextExtractor,
	classifier ports.Classifier,
	audit ports.AuditStream,
	metrics ports.EngineMetrics,
	cat *catalog.Catalog,
	minConfidence float64,
	maxParallel int,
) *IntakeUseCase {
	if maxParallel < 1 {
		maxParallel = 4
	}
	return &IntakeUseCase{
		repo:          repo,
		storage:       storage,
		sniffer:       sniffer,
		extractor:     extractor,
		classifier:    classifier,
		audit:         audit,
		metrics:       metrics,
		catalog:       cat,
		minConfidence: minConfidence,
		maxParallel:   maxParallel,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (uc *IntakeUseCase) Intake(ctx context.Context, cmd domain.IntakeCommand) (*domain.IntakeResult, error) {
	if cmd.OwnerScope == "" {
		return nil, domain.WrapError(domain.ErrUnauthorized, "intake", fmt.Errorf("owner scope is required"))
	}
	if len(cmd.Files) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "intake", fmt.Errorf("no files supplied"))
	}

	profileID, err := uc.resolveProfile(cmd.Forum, cmd.ProfileID)
	if err != nil {
		return nil, err
	}
	ruleSet, err := uc.catalog.RuleSet(cmd.Forum, profileID)
	if err != nil {
		return nil, err
	}

	m, created, err := uc.loadOrCreateMatter(ctx, cmd, profileID)
	if err != nil {
		return nil, err
	}

	docs, err := uc.processBatch(ctx, m, cmd.Files)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	m.Documents = append(m.Documents, docs...)
	if cmd.FilingContext != nil {
		m.FilingContext = m.FilingContext.Merge(*cmd.FilingContext)
	}
	m.Audit = append(m.Audit, domain.AuditEntry{
		At:     now,
		Action: "intake",
		Detail: fmt.Sprintf("%d file(s) received", len(docs)),
	})
	m.UpdatedAt = now

	if created {
		if err := uc.repo.Create(ctx, m); err != nil {
			return nil, fmt.Errorf("create matter: %w", err)
		}
	} else if err := uc.repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("update matter: %w", err)
	}

	publishAudit(ctx, uc.audit, domain.AuditEvent{
		EventID:    uuid.NewString(),
		MatterID:   m.MatterID,
		OwnerScope: m.OwnerScope,
		Action:     "intake",
		Detail:     fmt.Sprintf("%d file(s) received", len(docs)),
		At:         now,
	})

	violations := engine.Validate(m.Documents, ruleSet)
	sections, err := engine.HydrateSections(ruleSet, engine.BuildSections(ruleSet), m.Documents)
	if err != nil {
		return nil, err
	}
	deadline := engine.EvaluateDeadline(m.FilingContext, ruleSet.Deadline, now)
	readiness := engine.EvaluateReadiness(violations, sections, deadline)

	result := &domain.IntakeResult{
		MatterID:  m.MatterID,
		Forum:     m.Forum,
		ProfileID: m.ProfileID,
		Files:     make([]domain.FileOutcome, 0, len(docs)),
		Readiness: readiness,
	}
	for _, d := range docs {
		result.Files = append(result.Files, domain.FileOutcome{
			FileID:         d.FileID,
			Filename:       d.OriginalFilename,
			Classification: d.Classification,
			Confidence:     d.Confidence,
			QualityStatus:  d.QualityStatus,
			PageCount:      d.PageCount,
			Issues:         d.Issues,
		})
	}
	return result, nil
}

func (uc *IntakeUseCase) resolveProfile(forum, profileID string) (string, error) {
	defaultProfile, err := uc.catalog.DefaultProfile(forum)
	if err != nil {
		return "", err
	}
	if profileID == "" {
		return defaultProfile, nil
	}
	if _, err := uc.catalog.RuleSet(forum, profileID); err != nil {
		return "", err
	}
	return profileID, nil
}

func (uc *IntakeUseCase) loadOrCreateMatter(ctx context.Context, cmd domain.IntakeCommand, profileID string) (*domain.Matter, bool, error) {
	now := uc.now()
	if cmd.MatterID == "" {
		return &domain.Matter{
			MatterID:   uuid.NewString(),
			OwnerScope: cmd.OwnerScope,
			Forum:      cmd.Forum,
			ProfileID:  profileID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}, true, nil
	}

	m, err := uc.repo.Get(ctx, cmd.MatterID, cmd.OwnerScope)
	if err != nil {
		return nil, false, err
	}
	if m.Forum != cmd.Forum {
		return nil, false, domain.WrapError(domain.ErrInvalidInput, "intake",
			fmt.Errorf("matter %s belongs to forum %q, not %q", m.MatterID, m.Forum, cmd.Forum))
	}
	// An explicit profile selection switches the matter's active profile.
	if cmd.ProfileID != "" && cmd.ProfileID != m.ProfileID {
		m.Audit = append(m.Audit, domain.AuditEntry{
			At:     now,
			Action: "profile_change",
			Detail: fmt.Sprintf("%s -> %s", m.ProfileID, cmd.ProfileID),
		})
		m.ProfileID = cmd.ProfileID
	}
	return m, false, nil
}

// processBatch runs per-file intake in parallel. Per-file input problems are
// recorded on the document, never returned as errors: one bad upload must
// not abort the rest of the batch.
func (uc *IntakeUseCase) processBatch(ctx context.Context, m *domain.Matter, files []domain.UploadFile) ([]domain.UploadedDocument, error) {
	docs := make([]domain.UploadedDocument, len(files))
	baseOrder := len(m.Documents)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.maxParallel)
	for i, f := range files {
		g.Go(func() error {
			doc, err := uc.processFile(gctx, m, f, baseOrder+i)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (uc *IntakeUseCase) processFile(ctx context.Context, m *domain.Matter, f domain.UploadFile, order int) (domain.UploadedDocument, error) {
	now := uc.now()
	doc := domain.UploadedDocument{
		FileID:             uuid.NewString(),
		OriginalFilename:   f.Filename,
		NormalizedFilename: sanitizeFilename(f.Filename),
		QualityStatus:      domain.QualityReady,
		UploadOrder:        order,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	kind, err := uc.sniffer.Sniff(f.Payload)
	if err != nil {
		doc.Signature = domain.SignatureUnknown
		doc.QualityStatus = domain.QualityFailed
		doc.Issues = append(doc.Issues, domain.Issue{
			Code:        "unsupported_file_type",
			Message:     fmt.Sprintf("byte signature of %q matches no supported type", f.Filename),
			Remediation: "Upload the document as PDF, PNG or JPEG.",
		})
		return doc, nil
	}
	doc.Signature = kind

	storageKey := fmt.Sprintf("%s/%s_%s", m.MatterID, doc.FileID, doc.NormalizedFilename)
	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(f.Payload)); err != nil {
		return doc, fmt.Errorf("save payload %s: %w", f.Filename, err)
	}
	doc.StoragePath = storageKey

	extraction, err := uc.extractor.Extract(ctx, f.Payload, kind)
	if err != nil {
		doc.QualityStatus = domain.QualityFailed
		doc.PageCount = 1
		doc.Issues = append(doc.Issues, domain.Issue{
			Code:        "unreadable_payload",
			Message:     fmt.Sprintf("could not read %q: %v", f.Filename, err),
			Remediation: "Re-export or re-scan the document and upload it again.",
		})
		return doc, nil
	}
	doc.PageCount = extraction.PageCount
	if doc.PageCount < 1 {
		doc.PageCount = 1
	}
	if extraction.OCRFallback {
		doc.Issues = append(doc.Issues, domain.Issue{
			Code:    "ocr_fallback",
			Message: "no embedded text; classification relied on the filename only",
		})
	}

	docType, confidence, err := uc.classifier.Classify(ctx, domain.ClassificationInput{
		Filename:  f.Filename,
		Text:      extraction.Text,
		Signature: kind,
	})
	if err != nil {
		doc.QualityStatus = domain.QualityNeedsReview
		doc.Issues = append(doc.Issues, domain.Issue{
			Code:        "classification_error",
			Message:     fmt.Sprintf("classification failed: %v", err),
			Remediation: "Assign the document type manually.",
		})
		return doc, nil
	}
	doc.Classification = docType
	doc.Confidence = confidence

	// Low-confidence classifications must fail safely: the file keeps its
	// slot candidacy but is flagged instead of auto-processed.
	if confidence < uc.minConfidence {
		doc.QualityStatus = domain.QualityNeedsReview
		doc.Issues = append(doc.Issues, domain.Issue{
			Code:        "low_classification_confidence",
			Message:     fmt.Sprintf("classified as %q with confidence %.2f below threshold %.2f", docType, confidence, uc.minConfidence),
			Remediation: "Confirm the suggested type or override the classification.",
		})
		uc.metrics.LowConfidenceClassification(m.Forum, m.ProfileID)
	}
	return doc, nil
}

func publishAudit(ctx context.Context, stream ports.AuditStream, ev domain.AuditEvent) {
	if stream == nil {
		return
	}
	if err := stream.PublishAuditEvent(ctx, ev); err != nil {
		slog.Warn("audit_publish_failed", "matter_id", ev.MatterID, "action", ev.Action, "error", err)
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
