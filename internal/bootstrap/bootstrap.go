// Package bootstrap wires configuration, the rule catalog and all adapters
// into the use cases both binaries share.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/casebinder/casebinder/internal/config"
	"github.com/casebinder/casebinder/internal/core/catalog"
	"github.com/casebinder/casebinder/internal/core/ports"
	"github.com/casebinder/casebinder/internal/core/usecase"
	binderpdfcpu "github.com/casebinder/casebinder/internal/infrastructure/binder/pdfcpu"
	"github.com/casebinder/casebinder/internal/infrastructure/classify/lexicon"
	"github.com/casebinder/casebinder/internal/infrastructure/export/xlsx"
	"github.com/casebinder/casebinder/internal/infrastructure/extractor/pdftext"
	natsqueue "github.com/casebinder/casebinder/internal/infrastructure/queue/nats"
	"github.com/casebinder/casebinder/internal/infrastructure/repository/postgres"
	"github.com/casebinder/casebinder/internal/infrastructure/resilience"
	"github.com/casebinder/casebinder/internal/infrastructure/sniff"
	"github.com/casebinder/casebinder/internal/infrastructure/storage/localfs"
	"github.com/casebinder/casebinder/internal/observability/metrics"
)

// fallbackType absorbs uploads no lexicon matches; it must stay registered
// in every shipped catalog.
const fallbackType = "supporting-document"

type App struct {
	Config  config.Config
	Catalog *catalog.Catalog

	Stream    *natsqueue.Stream
	AuditRepo ports.AuditRepository

	IntakeUC  ports.MatterIntake
	PackageUC ports.PackageBuilder
	AmendUC   ports.MatterAmender

	HTTPMetrics *metrics.HTTPMetrics

	db      *sql.DB
	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	cat, err := catalog.Load(cfg.CatalogPath, cfg.CatalogVersionConstraint)
	if err != nil {
		return nil, fmt.Errorf("load rule catalog: %w", err)
	}
	if !cat.Registry().Known(fallbackType) {
		return nil, fmt.Errorf("rule catalog does not register fallback type %q", fallbackType)
	}

	db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	matterRepo := postgres.NewMatterRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	exec := resilience.NewExecutor(resilience.DefaultConfig())
	stream, err := natsqueue.Connect(natsqueue.Options{
		URL:     cfg.NATSURL,
		Subject: cfg.NATSAuditSubject,
	}, exec)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init audit stream: %w", err)
	}

	httpMetrics := metrics.NewHTTPMetrics()
	engineMetrics := metrics.NewEngineMetrics(httpMetrics.Registry())

	sniffer := sniff.New()
	extractor := pdftext.New()
	classifier := lexicon.New(cat.Lexicons(), fallbackType)
	binder := binderpdfcpu.New(
		cfg.BinderEnabled,
		cfg.BinderMaxConcurrent,
		time.Duration(cfg.BinderTimeoutSeconds)*time.Second,
	)
	exporter := xlsx.New()

	intakeUC := usecase.NewIntakeUseCase(
		matterRepo, storage, sniffer, extractor, classifier,
		stream, engineMetrics, cat,
		cfg.MinClassificationConfidence, cfg.IntakeMaxParallel,
	)
	packageUC := usecase.NewPackageUseCase(
		matterRepo, storage, binder, exporter, stream, engineMetrics, cat,
	)
	amendUC := usecase.NewAmendUseCase(matterRepo, stream, cat)

	return &App{
		Config:  cfg,
		Catalog: cat,

		Stream:    stream,
		AuditRepo: auditRepo,

		IntakeUC:  intakeUC,
		PackageUC: packageUC,
		AmendUC:   amendUC,

		HTTPMetrics: httpMetrics,

		db: db,
		closeFn: func() {
			stream.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
