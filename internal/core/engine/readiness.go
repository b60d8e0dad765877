package engine

import (
	"fmt"

	"github.com/casebinder/casebinder/internal/core/domain"
)

// EvaluateReadiness folds validator output, section completeness and the
// deadline state into the single verdict download decisions consume. Package
// builds may still run in advisory mode when not ready; only the download of
// a compiled binder is refused.
func EvaluateReadiness(violations []domain.Violation, sections []domain.RecordSection, deadline domain.DeadlineResult) domain.Readiness {
	r := domain.Readiness{
		IsReady:              true,
		MissingRequiredItems: []string{},
		BlockingIssues:       []string{},
		Warnings:             []string{},
	}

	for _, v := range violations {
		switch v.Severity {
		case domain.SeverityBlocking:
			r.IsReady = false
			r.BlockingIssues = append(r.BlockingIssues, v.Message)
		case domain.SeverityWarning:
			r.Warnings = append(r.Warnings, v.Message)
		}
	}

	for _, s := range sections {
		if s.Status != domain.SectionMissing {
			continue
		}
		for i, dt := range s.MissingDocumentTypes {
			reason := ""
			if i < len(s.MissingReasons) {
				reason = s.MissingReasons[i]
			}
			item := fmt.Sprintf("%s: %s", s.Title, dt)
			if reason != "" {
				item = fmt.Sprintf("%s (%s)", item, reason)
			}
			r.MissingRequiredItems = append(r.MissingRequiredItems, item)
		}
		if sectionBlocks(s) {
			r.IsReady = false
		}
	}

	switch deadline.Status {
	case domain.DeadlineBlocked:
		r.IsReady = false
		r.BlockingIssues = append(r.BlockingIssues, deadline.Reason)
	case domain.DeadlineApproaching:
		r.Warnings = append(r.Warnings, deadline.Reason)
	}
	if deadline.OverrideApplied {
		r.Warnings = append(r.Warnings, fmt.Sprintf("deadline override on record: %s", deadline.OverrideReason))
	}
	return r
}

// sectionBlocks reports whether a missing section should gate readiness: a
// truly missing required slot does, a slot that is only pending review is
// already covered by its blocking rule violation.
func sectionBlocks(s domain.RecordSection) bool {
	for _, slot := range s.Slots {
		if slot.Status == domain.SlotMissing {
			return true
		}
	}
	return false
}
