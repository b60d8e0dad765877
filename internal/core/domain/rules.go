package domain

// RuleScope distinguishes unconditional requirements from requirements that
// only bind once a trigger condition holds over the present document set.
type RuleScope string

const (
	ScopeRequired    RuleScope = "required"
	ScopeConditional RuleScope = "conditional"
)

// PaginationPolicy is a closed enumeration; the catalog loader rejects
// anything else.
type PaginationPolicy string

const (
	PaginationContinuous  PaginationPolicy = "continuous"
	PaginationPerDocument PaginationPolicy = "per_document"
)

// SourceCitation points at the authority a rule derives from. Every rule
// must carry one.
type SourceCitation struct {
	Reference string `json:"reference" yaml:"reference"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
}

// TriggerCondition is the declarative trigger of a conditional rule,
// evaluated over the set of document types present and ready.
type TriggerCondition struct {
	AnyPresent  []DocumentTypeID `json:"any_present,omitempty" yaml:"any_present,omitempty"`
	AllPresent  []DocumentTypeID `json:"all_present,omitempty" yaml:"all_present,omitempty"`
	NonePresent []DocumentTypeID `json:"none_present,omitempty" yaml:"none_present,omitempty"`
}

// Empty reports whether no clause is set.
func (t TriggerCondition) Empty() bool {
	return len(t.AnyPresent) == 0 && len(t.AllPresent) == 0 && len(t.NonePresent) == 0
}

// Holds evaluates the trigger against the present type set. All configured
// clauses must pass.
func (t TriggerCondition) Holds(present map[DocumentTypeID]bool) bool {
	if len(t.AnyPresent) > 0 {
		hit := false
		for _, dt := range t.AnyPresent {
			if present[dt] {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	for _, dt := range t.AllPresent {
		if !present[dt] {
			return false
		}
	}
	for _, dt := range t.NonePresent {
		if present[dt] {
			return false
		}
	}
	return true
}

// Types returns every document type the trigger references.
func (t TriggerCondition) Types() []DocumentTypeID {
	out := make([]DocumentTypeID, 0, len(t.AnyPresent)+len(t.AllPresent)+len(t.NonePresent))
	out = append(out, t.AnyPresent...)
	out = append(out, t.AllPresent...)
	out = append(out, t.NonePresent...)
	return out
}

// CompilationRule is one declarative filing requirement. Immutable once
// loaded.
type CompilationRule struct {
	RuleID        string            `json:"rule_id"`
	Scope         RuleScope         `json:"scope"`
	AppliesTo     []DocumentTypeID  `json:"applicable_document_types"`
	Trigger       *TriggerCondition `json:"trigger_condition,omitempty"`
	OrderPriority int               `json:"order_priority"`
	Pagination    PaginationPolicy  `json:"pagination_policy"`
	Citation      SourceCitation    `json:"source_citation"`
	Remediation   string            `json:"remediation,omitempty"`
}

// SectionDefinition maps document types to one deterministic record-section
// slot. Across a rule set the sections partition the rule document types.
type SectionDefinition struct {
	SectionID     string           `json:"section_id"`
	Title         string           `json:"title"`
	Instructions  string           `json:"instructions,omitempty"`
	DocumentTypes []DocumentTypeID `json:"document_types"`
}

// DeadlineBasis names the filing-context date a deadline window counts from.
type DeadlineBasis string

const (
	BasisDecision DeadlineBasis = "decision"
	BasisHearing  DeadlineBasis = "hearing"
	BasisService  DeadlineBasis = "service"
)

// DeadlineConfig is jurisdiction-specific business data carried by the
// catalog, never hardcoded.
type DeadlineConfig struct {
	Basis               DeadlineBasis  `json:"basis"`
	Days                int            `json:"days"`
	ApproachingLeadDays int            `json:"approaching_lead_days"`
	Citation            SourceCitation `json:"source_citation"`
}

// RuleSet is the full requirement set for one (forum, profile) pair.
type RuleSet struct {
	Forum    string              `json:"forum"`
	Profile  string              `json:"profile"`
	Default  bool                `json:"default"`
	Deadline DeadlineConfig      `json:"deadline"`
	Sections []SectionDefinition `json:"sections"`
	Rules    []CompilationRule   `json:"rules"`
}

// Key identifies a rule set within a catalog.
func (rs RuleSet) Key() string {
	return rs.Forum + "/" + rs.Profile
}

type ViolationSeverity string

const (
	SeverityBlocking ViolationSeverity = "blocking"
	SeverityWarning  ViolationSeverity = "warning"
)

// Violation is an unmet or degraded rule. Violations are values, never
// errors; they travel alongside whatever partial plan is computable.
type Violation struct {
	Severity    ViolationSeverity `json:"severity"`
	Code        string            `json:"violation_code"`
	RuleID      string            `json:"rule_id"`
	Message     string            `json:"message"`
	Remediation string            `json:"remediation,omitempty"`
	Citation    SourceCitation    `json:"source_citation"`
}
