// Package pdfcpu implements the compiled binder generator: source payloads
// are normalized to PDF, merged in assembly-plan order, bookmarked to mirror
// the table of contents and stamped with running page markers. The output is
// only trusted after its own page count and bookmarks are re-derived and
// compared against the plan.
package pdfcpu

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfcpulib "github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/sync/semaphore"

	"github.com/casebinder/casebinder/internal/core/domain"
)

const stampDescription = "fontname:Helvetica, points:9, scale:1 abs, pos:bc, off:0 12, rot:0"

type Generator struct {
	enabled bool
	sem     *semaphore.Weighted
	timeout time.Duration
	conf    *model.Configuration

	// Build and verification seams, replaceable in tests.
	assemble      func(sources []domain.BinderSource, plan domain.AssemblyPlan) ([]byte, error)
	countPages    func(artifact []byte) (int, error)
	readBookmarks func(artifact []byte) ([]domain.Bookmark, error)
}

// New builds a generator bounding concurrent compilations and applying a
// wall-clock timeout per build.
func New(enabled bool, maxConcurrent int, timeout time.Duration) *Generator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	g := &Generator{
		enabled: enabled,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		timeout: timeout,
		conf:    conf,
	}
	g.assemble = g.assembleBinder
	g.countPages = g.derivePageCount
	g.readBookmarks = g.deriveBookmarks
	return g
}

func (g *Generator) Enabled() bool { return g.enabled }

// Compile never returns an error: every failure mode collapses into the
// artifact's integrity state so the metadata-only plan stays usable.
func (g *Generator) Compile(ctx context.Context, sources []domain.BinderSource, plan domain.AssemblyPlan) *domain.CompiledArtifact {
	if !g.enabled {
		return unavailable("binder compilation is disabled")
	}
	if len(sources) != len(plan.TOC) {
		return unavailable(fmt.Sprintf("plan lists %d documents, %d payloads supplied", len(plan.TOC), len(sources)))
	}
	if len(sources) == 0 {
		return unavailable("nothing to compile")
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return unavailable(fmt.Sprintf("acquire compile slot: %v", err))
	}
	defer g.sem.Release(1)

	type outcome struct {
		artifact []byte
		err      error
	}
	done := make(chan outcome, 1)
	go func() {
		artifact, err := g.assemble(sources, plan)
		done <- outcome{artifact: artifact, err: err}
	}()

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return unavailable(fmt.Sprintf("compilation aborted: %v", ctx.Err()))
	case <-timer.C:
		return unavailable(fmt.Sprintf("compilation exceeded %s", g.timeout))
	case res := <-done:
		if res.err != nil {
			return unavailable(res.err.Error())
		}
		return g.verify(res.artifact, plan)
	}
}

// verify is the integrity gate: page count and bookmark titles/anchors are
// re-derived from the produced bytes and compared against the plan. A binder
// whose own derived TOC disagrees with the plan is never served.
func (g *Generator) verify(artifact []byte, plan domain.AssemblyPlan) *domain.CompiledArtifact {
	pageCount, err := g.countPages(artifact)
	if err != nil {
		return unavailable(fmt.Sprintf("re-derive page count: %v", err))
	}
	bookmarks, err := g.readBookmarks(artifact)
	if err != nil {
		return unavailable(fmt.Sprintf("re-derive bookmarks: %v", err))
	}

	if detail := comparePlan(pageCount, bookmarks, plan); detail != "" {
		return &domain.CompiledArtifact{
			PageCount:       pageCount,
			Bookmarks:       bookmarks,
			IntegrityStatus: domain.IntegrityMismatched,
			Detail:          detail,
		}
	}
	return &domain.CompiledArtifact{
		Bytes:           artifact,
		PageCount:       pageCount,
		Bookmarks:       bookmarks,
		IntegrityStatus: domain.IntegrityVerified,
	}
}

func comparePlan(pageCount int, bookmarks []domain.Bookmark, plan domain.AssemblyPlan) string {
	if pageCount != plan.Pagination.TotalPages {
		return fmt.Sprintf("derived page count %d, plan expects %d", pageCount, plan.Pagination.TotalPages)
	}
	if len(bookmarks) != len(plan.TOC) {
		return fmt.Sprintf("derived %d bookmarks, plan expects %d", len(bookmarks), len(plan.TOC))
	}
	for i, entry := range plan.TOC {
		if bookmarks[i].Title != entry.BookmarkTitle() {
			return fmt.Sprintf("bookmark %d title %q, plan expects %q", i+1, bookmarks[i].Title, entry.BookmarkTitle())
		}
		if bookmarks[i].Page != entry.StartPage {
			return fmt.Sprintf("bookmark %q anchored at page %d, plan expects %d", bookmarks[i].Title, bookmarks[i].Page, entry.StartPage)
		}
	}
	return ""
}

func (g *Generator) assembleBinder(sources []domain.BinderSource, plan domain.AssemblyPlan) ([]byte, error) {
	normalized := make([]io.ReadSeeker, 0, len(sources))
	for _, src := range sources {
		pdfBytes, err := g.normalize(src)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, bytes.NewReader(pdfBytes))
	}

	var merged bytes.Buffer
	if err := api.MergeRaw(normalized, &merged, false, g.conf); err != nil {
		return nil, fmt.Errorf("merge documents: %w", err)
	}

	bms := make([]pdfcpulib.Bookmark, 0, len(plan.TOC))
	for _, entry := range plan.TOC {
		bms = append(bms, pdfcpulib.Bookmark{
			Title:    entry.BookmarkTitle(),
			PageFrom: entry.StartPage,
			PageThru: entry.EndPage,
		})
	}
	var bookmarked bytes.Buffer
	if err := api.AddBookmarks(bytes.NewReader(merged.Bytes()), &bookmarked, bms, true, g.conf); err != nil {
		return nil, fmt.Errorf("add bookmarks: %w", err)
	}

	wm, err := api.TextWatermark("Page %p of %P", stampDescription, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("build page stamp: %w", err)
	}
	var stamped bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(bookmarked.Bytes()), &stamped, nil, wm, g.conf); err != nil {
		return nil, fmt.Errorf("stamp pages: %w", err)
	}
	return stamped.Bytes(), nil
}

// normalize converts each source into a page-addressable PDF. Unsupported
// signatures fail the whole build rather than producing a partial binder.
func (g *Generator) normalize(src domain.BinderSource) ([]byte, error) {
	switch src.Signature {
	case domain.SignaturePDF:
		return src.Payload, nil
	case domain.SignaturePNG, domain.SignatureJPEG:
		var buf bytes.Buffer
		if err := api.ImportImages(nil, &buf, []io.Reader{bytes.NewReader(src.Payload)}, nil, g.conf); err != nil {
			return nil, fmt.Errorf("convert image %s to pdf: %w", src.FileID, err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported payload signature %q for %s", src.Signature, src.FileID)
	}
}

func (g *Generator) derivePageCount(artifact []byte) (int, error) {
	return api.PageCount(bytes.NewReader(artifact), g.conf)
}

func (g *Generator) deriveBookmarks(artifact []byte) ([]domain.Bookmark, error) {
	bms, err := api.Bookmarks(bytes.NewReader(artifact), g.conf)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Bookmark, 0, len(bms))
	for _, bm := range bms {
		out = append(out, domain.Bookmark{Title: bm.Title, Page: bm.PageFrom})
	}
	return out, nil
}

func unavailable(detail string) *domain.CompiledArtifact {
	return &domain.CompiledArtifact{
		IntegrityStatus: domain.IntegrityUnavailable,
		Detail:          detail,
	}
}
