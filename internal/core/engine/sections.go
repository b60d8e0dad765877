package engine

import (
	"fmt"

	"github.com/casebinder/casebinder/internal/core/domain"
)

// BuildSections materializes the empty section skeleton for a rule set.
func BuildSections(rs domain.RuleSet) []domain.RecordSection {
	out := make([]domain.RecordSection, 0, len(rs.Sections))
	for _, def := range rs.Sections {
		types := make([]domain.DocumentTypeID, len(def.DocumentTypes))
		copy(types, def.DocumentTypes)
		out = append(out, domain.RecordSection{
			SectionID:     def.SectionID,
			Title:         def.Title,
			Instructions:  def.Instructions,
			DocumentTypes: types,
			Status:        domain.SectionComplete,
		})
	}
	return out
}

// HydrateSections computes per-slot completeness against the document set.
// The partition between rules and sections is checked at catalog load; a
// rule type with no section here means the catalog value was corrupted after
// load, which is a hard error rather than a silently dropped requirement.
func HydrateSections(rs domain.RuleSet, sections []domain.RecordSection, docs []domain.UploadedDocument) ([]domain.RecordSection, error) {
	present := presentTypes(docs)
	pending := pendingTypes(docs)

	sectioned := make(map[domain.DocumentTypeID]bool)
	for _, s := range sections {
		for _, dt := range s.DocumentTypes {
			sectioned[dt] = true
		}
	}

	demand := make(map[domain.DocumentTypeID]slotDemand)
	for _, rule := range rs.Rules {
		triggered := rule.Scope == domain.ScopeRequired || rule.Trigger.Holds(present)
		satisfied := triggered && hasAny(present, rule.AppliesTo)
		for _, dt := range rule.AppliesTo {
			if !sectioned[dt] {
				return nil, domain.WrapError(domain.ErrConfiguration, "hydrate sections",
					fmt.Errorf("rule %s type %q is not mapped to any section", rule.RuleID, dt))
			}
			d := demand[dt]
			d.scope = strongerScope(d.scope, rule.Scope)
			d.triggered = d.triggered || triggered
			d.ruleSatisfied = d.ruleSatisfied || satisfied
			if triggered && !satisfied {
				d.reason = fmt.Sprintf("required by %s (%s)", rule.RuleID, rule.Citation.Reference)
			}
			demand[dt] = d
		}
	}

	out := make([]domain.RecordSection, len(sections))
	for i, s := range sections {
		hydrated := s
		hydrated.Status = domain.SectionComplete
		hydrated.Slots = make([]domain.SlotStatus, 0, len(s.DocumentTypes))
		hydrated.MissingDocumentTypes = nil
		hydrated.MissingReasons = nil

		for _, dt := range s.DocumentTypes {
			slot := hydrateSlot(dt, demand[dt], present, pending)
			hydrated.Slots = append(hydrated.Slots, slot)
			if slot.Status == domain.SlotMissing || slot.Status == domain.SlotPendingReview {
				hydrated.Status = domain.SectionMissing
				hydrated.MissingDocumentTypes = append(hydrated.MissingDocumentTypes, dt)
				hydrated.MissingReasons = append(hydrated.MissingReasons, slot.Reason)
			}
		}
		out[i] = hydrated
	}
	return out, nil
}

type slotDemand struct {
	scope         domain.RuleScope
	triggered     bool
	ruleSatisfied bool
	reason        string
}

func hydrateSlot(dt domain.DocumentTypeID, d slotDemand, present, pending map[domain.DocumentTypeID]bool) domain.SlotStatus {
	slot := domain.SlotStatus{DocumentType: dt, RuleScope: d.scope}
	switch {
	case present[dt]:
		slot.Status = domain.SlotPresent
	case !d.triggered:
		slot.Status = domain.SlotNotRequired
		slot.Reason = "conditional rule not triggered"
	case d.ruleSatisfied:
		// Another type in the same rule already satisfies it.
		slot.Status = domain.SlotNotRequired
		slot.Reason = "rule satisfied by an alternative document type"
	case pending[dt]:
		slot.Status = domain.SlotPendingReview
		slot.Reason = "uploaded document is pending classification review"
	default:
		slot.Status = domain.SlotMissing
		slot.Reason = d.reason
	}
	return slot
}

func strongerScope(a, b domain.RuleScope) domain.RuleScope {
	if a == domain.ScopeRequired || b == domain.ScopeRequired {
		return domain.ScopeRequired
	}
	return domain.ScopeConditional
}
