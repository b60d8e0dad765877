package engine

import (
	"math"
	"sort"

	"github.com/casebinder/casebinder/internal/core/domain"
)

// unruledPriority places documents no rule references after every ruled
// document.
const unruledPriority = math.MaxInt32

// Plan orders the ready documents by rule priority (upload order as the
// stable tie-break) and computes the contiguous 1-indexed page map. The same
// inputs always produce the identical plan; this is the single source of
// truth the compiled binder must agree with.
func Plan(docs []domain.UploadedDocument, rs domain.RuleSet) domain.AssemblyPlan {
	priorities := typePriorities(rs)

	ordered := make([]domain.UploadedDocument, 0, len(docs))
	for _, d := range docs {
		if d.Ready() {
			ordered = append(ordered, d)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := docPriority(ordered[i], priorities), docPriority(ordered[j], priorities)
		if pi != pj {
			return pi < pj
		}
		return ordered[i].UploadOrder < ordered[j].UploadOrder
	})

	plan := domain.AssemblyPlan{TOC: make([]domain.TOCEntry, 0, len(ordered))}
	page := 0
	for i, d := range ordered {
		pages := d.PageCount
		if pages < 1 {
			pages = 1
		}
		entry := domain.TOCEntry{
			Position:     i + 1,
			DocumentType: d.Classification,
			FileID:       d.FileID,
			Filename:     d.NormalizedFilename,
			StartPage:    page + 1,
			EndPage:      page + pages,
		}
		page += pages
		plan.TOC = append(plan.TOC, entry)
	}
	plan.Pagination = domain.PaginationSummary{
		TotalDocuments: len(plan.TOC),
		TotalPages:     page,
	}
	return plan
}

// typePriorities maps each ruled document type to the lowest order priority
// of the rules that reference it.
func typePriorities(rs domain.RuleSet) map[domain.DocumentTypeID]int {
	out := make(map[domain.DocumentTypeID]int)
	for _, rule := range rs.Rules {
		for _, dt := range rule.AppliesTo {
			if prev, ok := out[dt]; !ok || rule.OrderPriority < prev {
				out[dt] = rule.OrderPriority
			}
		}
	}
	return out
}

func docPriority(d domain.UploadedDocument, priorities map[domain.DocumentTypeID]int) int {
	if p, ok := priorities[d.Classification]; ok {
		return p
	}
	return unruledPriority
}
