// Package engine implements the pure computations of the compilation
// pipeline: rule validation, record sections, assembly planning, deadline
// evaluation and the readiness verdict. Everything here is a function of its
// inputs; state lives with the caller.
package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/casebinder/casebinder/internal/core/domain"
)

const (
	CodeMissingRequired    = "missing_required_document"
	CodeMissingConditional = "missing_conditional_document"
	CodePendingReview      = "candidate_pending_review"
	CodeDuplicateDocuments = "duplicate_documents"
)

// Validate evaluates the classified document set against a rule set and
// returns ordered violations. Only ready documents satisfy rules; files in
// needs_review or failed states are deliberately excluded so a low-confidence
// classification can never silently complete a requirement.
func Validate(docs []domain.UploadedDocument, rs domain.RuleSet) []domain.Violation {
	present := presentTypes(docs)
	pending := pendingTypes(docs)

	rules := sortedRules(rs.Rules)
	violations := make([]domain.Violation, 0)

	for _, rule := range rules {
		if rule.Scope == domain.ScopeConditional && !rule.Trigger.Holds(present) {
			continue
		}

		satisfiers := readyMatches(docs, rule.AppliesTo)
		if len(satisfiers) > 0 {
			if len(satisfiers) > 1 {
				violations = append(violations, duplicateWarning(rule, satisfiers))
			}
			continue
		}

		violations = append(violations, unmetViolation(rule))
		if hasAny(pending, rule.AppliesTo) {
			violations = append(violations, pendingWarning(rule))
		}
	}
	return violations
}

// CanonicalSatisfiers maps each satisfied rule to the file id of its
// canonical satisfier: the highest-confidence ready document, upload order
// breaking ties. Remaining matches are duplicates; they never affect
// ordering.
func CanonicalSatisfiers(docs []domain.UploadedDocument, rs domain.RuleSet) map[string]string {
	out := make(map[string]string)
	for _, rule := range rs.Rules {
		matches := readyMatches(docs, rule.AppliesTo)
		if len(matches) == 0 {
			continue
		}
		out[rule.RuleID] = matches[0].FileID
	}
	return out
}

func presentTypes(docs []domain.UploadedDocument) map[domain.DocumentTypeID]bool {
	present := make(map[domain.DocumentTypeID]bool)
	for _, d := range docs {
		if d.Ready() && d.Classification != "" {
			present[d.Classification] = true
		}
	}
	return present
}

func pendingTypes(docs []domain.UploadedDocument) map[domain.DocumentTypeID]bool {
	pending := make(map[domain.DocumentTypeID]bool)
	for _, d := range docs {
		if d.QualityStatus == domain.QualityNeedsReview && d.Classification != "" {
			pending[d.Classification] = true
		}
	}
	return pending
}

// readyMatches returns the ready documents classified into any of the given
// types, best satisfier first.
func readyMatches(docs []domain.UploadedDocument, types []domain.DocumentTypeID) []domain.UploadedDocument {
	wanted := make(map[domain.DocumentTypeID]bool, len(types))
	for _, dt := range types {
		wanted[dt] = true
	}
	matches := make([]domain.UploadedDocument, 0, 2)
	for _, d := range docs {
		if d.Ready() && wanted[d.Classification] {
			matches = append(matches, d)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].UploadOrder < matches[j].UploadOrder
	})
	return matches
}

func sortedRules(rules []domain.CompilationRule) []domain.CompilationRule {
	out := make([]domain.CompilationRule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OrderPriority != out[j].OrderPriority {
			return out[i].OrderPriority < out[j].OrderPriority
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}

func hasAny(set map[domain.DocumentTypeID]bool, types []domain.DocumentTypeID) bool {
	for _, dt := range types {
		if set[dt] {
			return true
		}
	}
	return false
}

func unmetViolation(rule domain.CompilationRule) domain.Violation {
	code := CodeMissingRequired
	if rule.Scope == domain.ScopeConditional {
		code = CodeMissingConditional
	}
	remediation := rule.Remediation
	if remediation == "" {
		remediation = fmt.Sprintf("Upload one of: %s.", joinTypes(rule.AppliesTo))
	}
	return domain.Violation{
		Severity:    domain.SeverityBlocking,
		Code:        code,
		RuleID:      rule.RuleID,
		Message:     fmt.Sprintf("no document satisfies %s (%s)", rule.RuleID, joinTypes(rule.AppliesTo)),
		Remediation: remediation,
		Citation:    rule.Citation,
	}
}

func pendingWarning(rule domain.CompilationRule) domain.Violation {
	return domain.Violation{
		Severity:    domain.SeverityWarning,
		Code:        CodePendingReview,
		RuleID:      rule.RuleID,
		Message:     fmt.Sprintf("a document that may satisfy %s is pending classification review", rule.RuleID),
		Remediation: "Confirm or override the classification of the flagged upload.",
		Citation:    rule.Citation,
	}
}

func duplicateWarning(rule domain.CompilationRule, matches []domain.UploadedDocument) domain.Violation {
	names := make([]string, 0, len(matches)-1)
	for _, d := range matches[1:] {
		names = append(names, d.OriginalFilename)
	}
	return domain.Violation{
		Severity:    domain.SeverityWarning,
		Code:        CodeDuplicateDocuments,
		RuleID:      rule.RuleID,
		Message:     fmt.Sprintf("%s is satisfied more than once; duplicates: %s", rule.RuleID, strings.Join(names, ", ")),
		Remediation: "Remove or reclassify duplicate uploads if they were not intended.",
		Citation:    rule.Citation,
	}
}

func joinTypes(types []domain.DocumentTypeID) string {
	parts := make([]string, len(types))
	for i, dt := range types {
		parts[i] = string(dt)
	}
	return strings.Join(parts, ", ")
}
