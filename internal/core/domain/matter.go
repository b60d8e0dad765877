package domain

import "time"

// FilingContext holds the case dates and channel used by deadline
// evaluation. It is persisted per matter and survives classification
// overrides.
type FilingContext struct {
	SubmissionChannel      string     `json:"submission_channel,omitempty"`
	DecisionDate           *time.Time `json:"decision_date,omitempty"`
	HearingDate            *time.Time `json:"hearing_date,omitempty"`
	ServiceDate            *time.Time `json:"service_date,omitempty"`
	FilingDate             *time.Time `json:"filing_date,omitempty"`
	DeadlineOverrideReason string     `json:"deadline_override_reason,omitempty"`
}

// Merge overlays the non-zero fields of other onto a copy of fc. An empty
// override reason never clears a recorded one; clearing is an explicit
// amendment, not a side effect of an intake call.
func (fc FilingContext) Merge(other FilingContext) FilingContext {
	out := fc
	if other.SubmissionChannel != "" {
		out.SubmissionChannel = other.SubmissionChannel
	}
	if other.DecisionDate != nil {
		out.DecisionDate = other.DecisionDate
	}
	if other.HearingDate != nil {
		out.HearingDate = other.HearingDate
	}
	if other.ServiceDate != nil {
		out.ServiceDate = other.ServiceDate
	}
	if other.FilingDate != nil {
		out.FilingDate = other.FilingDate
	}
	if other.DeadlineOverrideReason != "" {
		out.DeadlineOverrideReason = other.DeadlineOverrideReason
	}
	return out
}

// AuditEntry records one mutation applied to a matter.
type AuditEntry struct {
	At     time.Time `json:"at"`
	Action string    `json:"action"`
	FileID string    `json:"file_id,omitempty"`
	Detail string    `json:"detail,omitempty"`
	Reason string    `json:"reason,omitempty"`
}

// Matter is the owning aggregate for one filing package. Documents are held
// by value in upload order; nothing below the matter points back at it.
type Matter struct {
	MatterID      string             `json:"matter_id"`
	OwnerScope    string             `json:"owner_scope"`
	Forum         string             `json:"forum"`
	ProfileID     string             `json:"profile_id"`
	Documents     []UploadedDocument `json:"documents"`
	FilingContext FilingContext      `json:"filing_context"`
	Audit         []AuditEntry       `json:"audit,omitempty"`
	Revision      int64              `json:"revision"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// DocumentIndex returns the slice index of the document with the given file
// id, or -1.
func (m *Matter) DocumentIndex(fileID string) int {
	for i := range m.Documents {
		if m.Documents[i].FileID == fileID {
			return i
		}
	}
	return -1
}

// AuditEvent is the externalized form of an audit entry published on the
// event stream and persisted by the audit worker.
type AuditEvent struct {
	EventID    string    `json:"event_id"`
	MatterID   string    `json:"matter_id"`
	OwnerScope string    `json:"owner_scope"`
	Action     string    `json:"action"`
	FileID     string    `json:"file_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	At         time.Time `json:"at"`
}
