package domain

import "time"

type DeadlineStatus string

const (
	DeadlineOK          DeadlineStatus = "ok"
	DeadlineApproaching DeadlineStatus = "approaching"
	DeadlineBlocked     DeadlineStatus = "blocked"
)

// DeadlineResult is the outcome of evaluating one profile's filing window
// against the matter's filing context and today's date.
type DeadlineResult struct {
	Status          DeadlineStatus `json:"status"`
	Reason          string         `json:"reason"`
	Deadline        *time.Time     `json:"deadline,omitempty"`
	OverrideApplied bool           `json:"override_applied"`
	OverrideReason  string         `json:"override_reason,omitempty"`
	Citation        SourceCitation `json:"source_citation"`
}

// Readiness is the single pass/fail gate consumed by download decisions.
type Readiness struct {
	IsReady              bool     `json:"is_ready"`
	MissingRequiredItems []string `json:"missing_required_items"`
	BlockingIssues       []string `json:"blocking_issues"`
	Warnings             []string `json:"warnings"`
}
