package engine

import (
	"fmt"

	"github.com/casebinder/casebinder/internal/core/domain"
)

func testRuleSet() domain.RuleSet {
	return domain.RuleSet{
		Forum:   "federal-court-jr",
		Profile: "leave",
		Default: true,
		Deadline: domain.DeadlineConfig{
			Basis:               domain.BasisDecision,
			Days:                15,
			ApproachingLeadDays: 5,
			Citation:            domain.SourceCitation{Reference: "IRPA s 72(2)(b)"},
		},
		Sections: []domain.SectionDefinition{
			{
				SectionID:     "originating",
				Title:         "Originating Documents",
				DocumentTypes: []domain.DocumentTypeID{"application-for-leave"},
			},
			{
				SectionID:     "decision",
				Title:         "Decision and Reasons",
				DocumentTypes: []domain.DocumentTypeID{"decision-under-review"},
			},
			{
				SectionID:     "translations",
				Title:         "Translations",
				DocumentTypes: []domain.DocumentTypeID{"translation", "translator-declaration"},
			},
		},
		Rules: []domain.CompilationRule{
			{
				RuleID:        "req-application",
				Scope:         domain.ScopeRequired,
				AppliesTo:     []domain.DocumentTypeID{"application-for-leave"},
				OrderPriority: 10,
				Pagination:    domain.PaginationContinuous,
				Citation:      domain.SourceCitation{Reference: "IRPA s 72(1)"},
				Remediation:   "File the application for leave.",
			},
			{
				RuleID:        "req-decision",
				Scope:         domain.ScopeRequired,
				AppliesTo:     []domain.DocumentTypeID{"decision-under-review"},
				OrderPriority: 20,
				Pagination:    domain.PaginationContinuous,
				Citation:      domain.SourceCitation{Reference: "SOR/93-22, r 10(2)(a)"},
			},
			{
				RuleID:    "cond-translation",
				Scope:     domain.ScopeConditional,
				AppliesTo: []domain.DocumentTypeID{"translation"},
				Trigger: &domain.TriggerCondition{
					AnyPresent: []domain.DocumentTypeID{"translation"},
				},
				OrderPriority: 30,
				Pagination:    domain.PaginationContinuous,
				Citation:      domain.SourceCitation{Reference: "SOR/98-106, r 93(1)"},
			},
			{
				RuleID:    "cond-translator-declaration",
				Scope:     domain.ScopeConditional,
				AppliesTo: []domain.DocumentTypeID{"translator-declaration"},
				Trigger: &domain.TriggerCondition{
					AnyPresent: []domain.DocumentTypeID{"translation"},
				},
				OrderPriority: 40,
				Pagination:    domain.PaginationContinuous,
				Citation:      domain.SourceCitation{Reference: "SOR/98-106, r 93(2)"},
				Remediation:   "Add the translator's declaration.",
			},
		},
	}
}

func testDoc(id string, dt domain.DocumentTypeID, status domain.QualityStatus, pages, order int) domain.UploadedDocument {
	return domain.UploadedDocument{
		FileID:             id,
		OriginalFilename:   id + ".pdf",
		NormalizedFilename: id + ".pdf",
		StoragePath:        fmt.Sprintf("matter-1/%s.pdf", id),
		Signature:          domain.SignaturePDF,
		Classification:     dt,
		Confidence:         0.9,
		QualityStatus:      status,
		PageCount:          pages,
		UploadOrder:        order,
	}
}

func readyBatch() []domain.UploadedDocument {
	return []domain.UploadedDocument{
		testDoc("f1", "application-for-leave", domain.QualityReady, 6, 0),
		testDoc("f2", "decision-under-review", domain.QualityReady, 3, 1),
	}
}

func violationByRule(violations []domain.Violation, ruleID string) (domain.Violation, bool) {
	for _, v := range violations {
		if v.RuleID == ruleID {
			return v, true
		}
	}
	return domain.Violation{}, false
}
