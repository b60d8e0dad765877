package engine

import (
	"testing"

	"github.com/casebinder/casebinder/internal/core/domain"
)

func TestValidateCompleteSetHasNoViolations(t *testing.T) {
	violations := Validate(readyBatch(), testRuleSet())
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %+v", violations)
	}
}

func TestValidateMissingRequiredDocument(t *testing.T) {
	docs := []domain.UploadedDocument{
		testDoc("f1", "application-for-leave", domain.QualityReady, 6, 0),
	}

	violations := Validate(docs, testRuleSet())

	v, ok := violationByRule(violations, "req-decision")
	if !ok {
		t.Fatalf("expected a violation for req-decision, got %+v", violations)
	}
	if v.Severity != domain.SeverityBlocking {
		t.Fatalf("expected blocking severity, got %s", v.Severity)
	}
	if v.Code != CodeMissingRequired {
		t.Fatalf("expected code %s, got %s", CodeMissingRequired, v.Code)
	}
	if v.Citation.Reference != "SOR/93-22, r 10(2)(a)" {
		t.Fatalf("violation lost its citation: %+v", v)
	}
	if v.Remediation == "" {
		t.Fatalf("expected a remediation hint")
	}
}

func TestValidateUntriggeredConditionalIsSkipped(t *testing.T) {
	// No translation on the matter, so neither translation rule binds.
	violations := Validate(readyBatch(), testRuleSet())
	if _, ok := violationByRule(violations, "cond-translator-declaration"); ok {
		t.Fatalf("untriggered conditional rule must not produce a violation")
	}
}

func TestValidateTriggeredConditionalBinds(t *testing.T) {
	docs := append(readyBatch(),
		testDoc("f3", "translation", domain.QualityReady, 2, 2),
	)

	violations := Validate(docs, testRuleSet())

	v, ok := violationByRule(violations, "cond-translator-declaration")
	if !ok {
		t.Fatalf("translation present must trigger the declaration rule, got %+v", violations)
	}
	if v.Code != CodeMissingConditional {
		t.Fatalf("expected code %s, got %s", CodeMissingConditional, v.Code)
	}
	if v.Severity != domain.SeverityBlocking {
		t.Fatalf("triggered conditional must block, got %s", v.Severity)
	}
}

func TestValidatePendingReviewDoesNotSatisfy(t *testing.T) {
	docs := []domain.UploadedDocument{
		testDoc("f1", "application-for-leave", domain.QualityReady, 6, 0),
		testDoc("f2", "decision-under-review", domain.QualityNeedsReview, 3, 1),
	}

	violations := Validate(docs, testRuleSet())

	if _, ok := violationByRule(violations, "req-decision"); !ok {
		t.Fatalf("a pending-review document must not satisfy its rule")
	}
	var warned bool
	for _, v := range violations {
		if v.Code == CodePendingReview && v.RuleID == "req-decision" {
			warned = true
			if v.Severity != domain.SeverityWarning {
				t.Fatalf("pending-review note must be a warning, got %s", v.Severity)
			}
		}
	}
	if !warned {
		t.Fatalf("expected a pending-review warning alongside the blocking violation")
	}
}

func TestValidatePendingReviewDoesNotTrigger(t *testing.T) {
	// A needs_review translation must not activate the declaration rule.
	docs := append(readyBatch(),
		testDoc("f3", "translation", domain.QualityNeedsReview, 2, 2),
	)

	violations := Validate(docs, testRuleSet())
	if _, ok := violationByRule(violations, "cond-translator-declaration"); ok {
		t.Fatalf("pending-review documents must not trigger conditional rules")
	}
}

func TestValidateDuplicateSatisfiersWarn(t *testing.T) {
	docs := append(readyBatch(),
		testDoc("f3", "decision-under-review", domain.QualityReady, 3, 2),
	)

	violations := Validate(docs, testRuleSet())

	v, ok := violationByRule(violations, "req-decision")
	if !ok {
		t.Fatalf("expected a duplicate warning for req-decision, got %+v", violations)
	}
	if v.Code != CodeDuplicateDocuments || v.Severity != domain.SeverityWarning {
		t.Fatalf("duplicates must warn, not block: %+v", v)
	}
}

func TestCanonicalSatisfierPrefersConfidence(t *testing.T) {
	low := testDoc("f-low", "decision-under-review", domain.QualityReady, 3, 0)
	low.Confidence = 0.7
	high := testDoc("f-high", "decision-under-review", domain.QualityReady, 3, 1)
	high.Confidence = 0.95

	docs := []domain.UploadedDocument{
		testDoc("f1", "application-for-leave", domain.QualityReady, 6, 2),
		low, high,
	}

	satisfiers := CanonicalSatisfiers(docs, testRuleSet())
	if got := satisfiers["req-decision"]; got != "f-high" {
		t.Fatalf("expected the higher-confidence document to satisfy, got %s", got)
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	docs := append(readyBatch(),
		testDoc("f3", "translation", domain.QualityReady, 2, 2),
		testDoc("f4", "decision-under-review", domain.QualityNeedsReview, 1, 3),
	)
	rs := testRuleSet()

	first := Validate(docs, rs)
	for i := 0; i < 10; i++ {
		again := Validate(docs, rs)
		if len(again) != len(first) {
			t.Fatalf("run %d produced %d violations, first run %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("run %d differs at %d: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}
}
