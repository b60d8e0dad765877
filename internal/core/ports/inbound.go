package ports

import (
	"context"

	"github.com/casebinder/casebinder/internal/core/domain"
)

// MatterIntake is the inbound contract for uploading a batch of files into a
// matter.
type MatterIntake interface {
	Intake(ctx context.Context, cmd domain.IntakeCommand) (*domain.IntakeResult, error)
}

// PackageBuilder is the inbound contract for package, readiness and binder
// operations on a matter.
type PackageBuilder interface {
	Package(ctx context.Context, ownerScope, matterID string) (*domain.PackageResult, error)
	Readiness(ctx context.Context, ownerScope, matterID string) (*domain.ReadinessReport, error)
	DownloadBinder(ctx context.Context, ownerScope, matterID string) (*domain.CompiledArtifact, error)
	Checklist(ctx context.Context, ownerScope, matterID string) ([]byte, error)
}

// MatterAmender is the inbound contract for audited matter mutations.
type MatterAmender interface {
	OverrideClassification(ctx context.Context, ownerScope, matterID, fileID, newType, reason string) (*domain.Matter, error)
	UpdateFilingContext(ctx context.Context, ownerScope, matterID string, fc domain.FilingContext) (*domain.Matter, error)
}
