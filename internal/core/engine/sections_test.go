package engine

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"

	"github.com/casebinder/casebinder/internal/core/domain"
)

func hydrate(t *testing.T, docs []domain.UploadedDocument) []domain.RecordSection {
	t.Helper()
	rs := testRuleSet()
	sections, err := HydrateSections(rs, BuildSections(rs), docs)
	if err != nil {
		t.Fatalf("hydrate sections: %v", err)
	}
	return sections
}

func slotFor(t *testing.T, sections []domain.RecordSection, dt domain.DocumentTypeID) domain.SlotStatus {
	t.Helper()
	for _, s := range sections {
		for _, slot := range s.Slots {
			if slot.DocumentType == dt {
				return slot
			}
		}
	}
	t.Fatalf("no slot for document type %s", dt)
	return domain.SlotStatus{}
}

func TestHydrateSectionsCompleteMatter(t *testing.T) {
	sections := hydrate(t, readyBatch())

	for _, s := range sections {
		if s.SectionID == "translations" {
			if s.Status != domain.SectionComplete {
				t.Fatalf("untriggered translations section must read complete: %+v", s)
			}
			continue
		}
		if s.Status != domain.SectionComplete {
			t.Fatalf("section %s expected complete, got %s", s.SectionID, s.Status)
		}
	}

	slot := slotFor(t, sections, "translation")
	if slot.Status != domain.SlotNotRequired {
		t.Fatalf("untriggered conditional slot must be not_required, got %s", slot.Status)
	}
}

func TestHydrateSectionsMissingRequiredSlot(t *testing.T) {
	docs := []domain.UploadedDocument{
		testDoc("f1", "application-for-leave", domain.QualityReady, 6, 0),
	}
	sections := hydrate(t, docs)

	slot := slotFor(t, sections, "decision-under-review")
	if slot.Status != domain.SlotMissing {
		t.Fatalf("expected missing slot, got %s", slot.Status)
	}
	if slot.Reason == "" {
		t.Fatalf("missing slot must carry the rule and citation that demand it")
	}

	for _, s := range sections {
		if s.SectionID == "decision" && s.Status != domain.SectionMissing {
			t.Fatalf("section with missing slot must read missing, got %s", s.Status)
		}
	}
}

func TestHydrateSectionsPendingReviewSlot(t *testing.T) {
	docs := []domain.UploadedDocument{
		testDoc("f1", "application-for-leave", domain.QualityReady, 6, 0),
		testDoc("f2", "decision-under-review", domain.QualityNeedsReview, 3, 1),
	}
	sections := hydrate(t, docs)

	slot := slotFor(t, sections, "decision-under-review")
	if slot.Status != domain.SlotPendingReview {
		t.Fatalf("expected pending_review, got %s", slot.Status)
	}
}

func TestHydrateSectionsTriggeredConditionalSlot(t *testing.T) {
	docs := append(readyBatch(),
		testDoc("f3", "translation", domain.QualityReady, 2, 2),
	)
	sections := hydrate(t, docs)

	slot := slotFor(t, sections, "translator-declaration")
	if slot.Status != domain.SlotMissing {
		t.Fatalf("triggered unmet conditional slot must be missing, got %s", slot.Status)
	}
}

func TestHydrateSectionsRejectsUnmappedRuleType(t *testing.T) {
	rs := testRuleSet()
	// Simulate post-load corruption: drop the decision section.
	rs.Sections = rs.Sections[:1]

	_, err := HydrateSections(rs, BuildSections(rs), readyBatch())
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}

// Every document type a rule references lands in exactly one section slot,
// and each slot reports exactly one state, whatever the document set.
func TestSectionPartitionProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	rs := testRuleSet()

	ruleTypes := make(map[domain.DocumentTypeID]bool)
	for _, rule := range rs.Rules {
		for _, dt := range rule.AppliesTo {
			ruleTypes[dt] = true
		}
	}

	properties.Property("rule types map to exactly one slot", prop.ForAll(
		func(docs []domain.UploadedDocument) bool {
			sections, err := HydrateSections(rs, BuildSections(rs), docs)
			if err != nil {
				return false
			}
			slots := make(map[domain.DocumentTypeID]int)
			for _, s := range sections {
				for _, slot := range s.Slots {
					slots[slot.DocumentType]++
					switch slot.Status {
					case domain.SlotPresent, domain.SlotMissing,
						domain.SlotPendingReview, domain.SlotNotRequired:
					default:
						return false
					}
				}
			}
			for dt := range ruleTypes {
				if slots[dt] != 1 {
					return false
				}
			}
			return true
		},
		genPlanDocs(),
	))

	properties.Property("a section is missing iff one of its slots blocks or pends", prop.ForAll(
		func(docs []domain.UploadedDocument) bool {
			sections, err := HydrateSections(rs, BuildSections(rs), docs)
			if err != nil {
				return false
			}
			for _, s := range sections {
				var degraded bool
				for _, slot := range s.Slots {
					if slot.Status == domain.SlotMissing || slot.Status == domain.SlotPendingReview {
						degraded = true
					}
				}
				if degraded != (s.Status == domain.SectionMissing) {
					return false
				}
			}
			return true
		},
		genPlanDocs(),
	))

	properties.TestingRun(t)
}
