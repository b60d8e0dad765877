package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/casebinder/casebinder/internal/core/catalog"
	"github.com/casebinder/casebinder/internal/core/domain"
	"github.com/casebinder/casebinder/internal/core/engine"
	"github.com/casebinder/casebinder/internal/core/ports"
)

// PackageUseCase computes the package view of a matter and gates binder
// downloads behind the readiness verdict. A binder failure never blocks the
// metadata response: the system must always answer "what is missing and
// why".
type PackageUseCase struct {
	repo     ports.MatterRepository
	storage  ports.ObjectStorage
	binder   ports.BinderCompiler
	exporter ports.ChecklistExporter
	audit    ports.AuditStream
	metrics  ports.EngineMetrics
	catalog  *catalog.Catalog
	now      func() time.Time
}

func NewPackageUseCase(
	repo ports.MatterRepository,
	storage ports.ObjectStorage,
	binder ports.BinderCompiler,
	exporter ports.ChecklistExporter,
	audit ports.AuditStream,
	metrics ports.EngineMetrics,
	cat *catalog.Catalog,
) *PackageUseCase {
	return &PackageUseCase{
		repo:     repo,
		storage:  storage,
		binder:   binder,
		exporter: exporter,
		audit:    audit,
		metrics:  metrics,
		catalog:  cat,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (uc *PackageUseCase) Package(ctx context.Context, ownerScope, matterID string) (*domain.PackageResult, error) {
	m, res, err := uc.buildPackage(ctx, ownerScope, matterID)
	if err != nil {
		return nil, err
	}

	if uc.binder != nil && uc.binder.Enabled() {
		artifact := uc.compile(ctx, m, res.Plan)
		res.Artifact = &domain.ArtifactMetadata{
			PageCount:       artifact.PageCount,
			Bookmarks:       artifact.Bookmarks,
			IntegrityStatus: artifact.IntegrityStatus,
			Detail:          artifact.Detail,
		}
	}
	return res, nil
}

func (uc *PackageUseCase) Readiness(ctx context.Context, ownerScope, matterID string) (*domain.ReadinessReport, error) {
	_, res, err := uc.buildPackage(ctx, ownerScope, matterID)
	if err != nil {
		return nil, err
	}
	return &domain.ReadinessReport{
		MatterID:  res.MatterID,
		Readiness: res.Readiness,
		Sections:  res.Sections,
		Deadline:  res.Deadline,
	}, nil
}

// DownloadBinder refuses unless the matter is ready and the compiled
// artifact verified against the assembly plan.
func (uc *PackageUseCase) DownloadBinder(ctx context.Context, ownerScope, matterID string) (*domain.CompiledArtifact, error) {
	if uc.binder == nil || !uc.binder.Enabled() {
		return nil, domain.WrapError(domain.ErrBinderUnavailable, "download binder",
			fmt.Errorf("binder compilation is disabled"))
	}

	m, res, err := uc.buildPackage(ctx, ownerScope, matterID)
	if err != nil {
		return nil, err
	}
	if !res.Readiness.IsReady {
		return nil, domain.WrapError(domain.ErrNotReady, "download binder",
			fmt.Errorf("matter is not ready: %d blocking issue(s)", len(res.Readiness.BlockingIssues)))
	}

	artifact := uc.compile(ctx, m, res.Plan)
	if artifact.IntegrityStatus != domain.IntegrityVerified {
		return nil, domain.WrapError(domain.ErrBinderUnavailable, "download binder",
			fmt.Errorf("binder integrity %s: %s", artifact.IntegrityStatus, artifact.Detail))
	}
	return artifact, nil
}

func (uc *PackageUseCase) Checklist(ctx context.Context, ownerScope, matterID string) ([]byte, error) {
	_, res, err := uc.buildPackage(ctx, ownerScope, matterID)
	if err != nil {
		return nil, err
	}
	out, err := uc.exporter.Export(res)
	if err != nil {
		return nil, fmt.Errorf("export checklist: %w", err)
	}
	return out, nil
}

func (uc *PackageUseCase) buildPackage(ctx context.Context, ownerScope, matterID string) (*domain.Matter, *domain.PackageResult, error) {
	if ownerScope == "" {
		return nil, nil, domain.WrapError(domain.ErrUnauthorized, "build package", fmt.Errorf("owner scope is required"))
	}
	m, err := uc.repo.Get(ctx, matterID, ownerScope)
	if err != nil {
		return nil, nil, err
	}

	ruleSet, err := uc.catalog.RuleSet(m.Forum, m.ProfileID)
	if err != nil {
		// The matter references a profile the loaded catalog no longer
		// carries; serving a guess instead would hide a config break.
		return nil, nil, domain.WrapError(domain.ErrConfiguration, "build package",
			fmt.Errorf("matter %s references unavailable profile %s/%s", m.MatterID, m.Forum, m.ProfileID))
	}

	violations := engine.Validate(m.Documents, ruleSet)
	sections, err := engine.HydrateSections(ruleSet, engine.BuildSections(ruleSet), m.Documents)
	if err != nil {
		return nil, nil, err
	}
	plan := engine.Plan(m.Documents, ruleSet)
	deadline := engine.EvaluateDeadline(m.FilingContext, ruleSet.Deadline, uc.now())
	if deadline.Status == domain.DeadlineBlocked {
		uc.metrics.DeadlineBlocked(m.Forum, m.ProfileID)
	}
	readiness := engine.EvaluateReadiness(violations, sections, deadline)

	return m, &domain.PackageResult{
		MatterID:  m.MatterID,
		Forum:     m.Forum,
		ProfileID: m.ProfileID,
		Violation: violations,
		Sections:  sections,
		Plan:      plan,
		Deadline:  deadline,
		Readiness: readiness,
	}, nil
}

// compile loads planned payloads and runs the binder generator. All failure
// modes collapse into the artifact's integrity state.
func (uc *PackageUseCase) compile(ctx context.Context, m *domain.Matter, plan domain.AssemblyPlan) *domain.CompiledArtifact {
	sources, err := uc.loadSources(ctx, m, plan)
	var artifact *domain.CompiledArtifact
	if err != nil {
		artifact = &domain.CompiledArtifact{
			IntegrityStatus: domain.IntegrityUnavailable,
			Detail:          err.Error(),
		}
	} else {
		artifact = uc.binder.Compile(ctx, sources, plan)
	}

	uc.metrics.BinderCompiled(artifact.IntegrityStatus)
	publishAudit(ctx, uc.audit, domain.AuditEvent{
		EventID:    uuid.NewString(),
		MatterID:   m.MatterID,
		OwnerScope: m.OwnerScope,
		Action:     "binder_compiled",
		Detail:     string(artifact.IntegrityStatus),
		At:         uc.now(),
	})
	return artifact
}

func (uc *PackageUseCase) loadSources(ctx context.Context, m *domain.Matter, plan domain.AssemblyPlan) ([]domain.BinderSource, error) {
	sources := make([]domain.BinderSource, 0, len(plan.TOC))
	for _, entry := range plan.TOC {
		idx := m.DocumentIndex(entry.FileID)
		if idx < 0 {
			return nil, fmt.Errorf("planned file %s not on matter", entry.FileID)
		}
		doc := m.Documents[idx]

		reader, err := uc.storage.Open(ctx, doc.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("open payload %s: %w", doc.StoragePath, err)
		}
		payload, err := io.ReadAll(reader)
		closeErr := reader.Close()
		if err != nil {
			return nil, fmt.Errorf("read payload %s: %w", doc.StoragePath, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("close payload %s: %w", doc.StoragePath, closeErr)
		}
		sources = append(sources, domain.BinderSource{
			FileID:    doc.FileID,
			Signature: doc.Signature,
			Payload:   payload,
		})
	}
	return sources, nil
}
