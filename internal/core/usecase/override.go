package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/casebinder/casebinder/internal/core/catalog"
	"github.com/casebinder/casebinder/internal/core/domain"
	"github.com/casebinder/casebinder/internal/core/ports"
)

const mutationRetries = 3

// AmendUseCase applies audited matter mutations: classification overrides
// and filing-context updates. Every write is a compare-and-swap retried on
// conflict, never a read-modify-write gap.
type AmendUseCase struct {
	repo    ports.MatterRepository
	audit   ports.AuditStream
	catalog *catalog.Catalog
	now     func() time.Time
}

func NewAmendUseCase(repo ports.MatterRepository, audit ports.AuditStream, cat *catalog.Catalog) *AmendUseCase {
	return &AmendUseCase{
		repo:    repo,
		audit:   audit,
		catalog: cat,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// OverrideClassification re-validates the new type against the registry and
// records who-said-so via the mandatory reason. The override marks the
// document human-verified.
func (uc *AmendUseCase) OverrideClassification(ctx context.Context, ownerScope, matterID, fileID, newType, reason string) (*domain.Matter, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "override classification",
			fmt.Errorf("an override reason is required"))
	}
	docType, err := uc.catalog.Registry().Normalize(newType)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "override classification", err)
	}

	now := uc.now()
	var detail string
	m, err := uc.mutateMatter(ctx, ownerScope, matterID, func(m *domain.Matter) error {
		idx := m.DocumentIndex(fileID)
		if idx < 0 {
			return domain.WrapError(domain.ErrDocumentNotFound, "override classification",
				fmt.Errorf("file %s not on matter %s", fileID, matterID))
		}
		doc := &m.Documents[idx]
		detail = fmt.Sprintf("%s (%.2f) -> %s", doc.Classification, doc.Confidence, docType)
		doc.Classification = docType
		doc.Confidence = 1.0
		doc.QualityStatus = domain.QualityReady
		doc.Issues = nil
		doc.UpdatedAt = now

		m.Audit = append(m.Audit, domain.AuditEntry{
			At:     now,
			Action: "classification_override",
			FileID: fileID,
			Detail: detail,
			Reason: reason,
		})
		m.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishAudit(ctx, uc.audit, domain.AuditEvent{
		EventID:    uuid.NewString(),
		MatterID:   matterID,
		OwnerScope: ownerScope,
		Action:     "classification_override",
		FileID:     fileID,
		Detail:     detail,
		Reason:     reason,
		At:         now,
	})
	return m, nil
}

// UpdateFilingContext merges the supplied fields into the matter's filing
// context. A supplied deadline override reason is surfaced in the audit
// trail, never silently absorbed.
func (uc *AmendUseCase) UpdateFilingContext(ctx context.Context, ownerScope, matterID string, fc domain.FilingContext) (*domain.Matter, error) {
	now := uc.now()
	m, err := uc.mutateMatter(ctx, ownerScope, matterID, func(m *domain.Matter) error {
		m.FilingContext = m.FilingContext.Merge(fc)
		entry := domain.AuditEntry{
			At:     now,
			Action: "filing_context_update",
		}
		if fc.DeadlineOverrideReason != "" {
			entry.Action = "deadline_override"
			entry.Reason = fc.DeadlineOverrideReason
		}
		m.Audit = append(m.Audit, entry)
		m.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := "filing_context_update"
	if fc.DeadlineOverrideReason != "" {
		action = "deadline_override"
	}
	publishAudit(ctx, uc.audit, domain.AuditEvent{
		EventID:    uuid.NewString(),
		MatterID:   matterID,
		OwnerScope: ownerScope,
		Action:     action,
		Reason:     fc.DeadlineOverrideReason,
		At:         now,
	})
	return m, nil
}

// mutateMatter reloads, mutates and CAS-updates a matter, retrying on
// revision conflicts.
func (uc *AmendUseCase) mutateMatter(ctx context.Context, ownerScope, matterID string, mutate func(*domain.Matter) error) (*domain.Matter, error) {
	var lastErr error
	for attempt := 0; attempt < mutationRetries; attempt++ {
		m, err := uc.repo.Get(ctx, matterID, ownerScope)
		if err != nil {
			return nil, err
		}
		if err := mutate(m); err != nil {
			return nil, err
		}
		err = uc.repo.Update(ctx, m)
		if err == nil {
			return m, nil
		}
		if !domain.IsKind(err, domain.ErrConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
