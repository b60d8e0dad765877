package domain

type SlotState string

const (
	SlotPresent       SlotState = "present"
	SlotMissing       SlotState = "missing"
	SlotPendingReview SlotState = "pending_review"
	SlotNotRequired   SlotState = "not_required"
)

type SectionStatus string

const (
	SectionComplete SectionStatus = "complete"
	SectionMissing  SectionStatus = "missing"
)

// SlotStatus is the per-document-type completeness inside one section.
type SlotStatus struct {
	DocumentType DocumentTypeID `json:"document_type"`
	Status       SlotState      `json:"status"`
	RuleScope    RuleScope      `json:"rule_scope"`
	Reason       string         `json:"reason,omitempty"`
}

// RecordSection is derived from the rule set and hydrated against the
// document set on every package build. It is never persisted on its own.
type RecordSection struct {
	SectionID            string           `json:"section_id"`
	Title                string           `json:"title"`
	Instructions         string           `json:"instructions,omitempty"`
	DocumentTypes        []DocumentTypeID `json:"document_types"`
	Status               SectionStatus    `json:"section_status"`
	Slots                []SlotStatus     `json:"slot_statuses"`
	MissingDocumentTypes []DocumentTypeID `json:"missing_document_types,omitempty"`
	MissingReasons       []string         `json:"missing_reasons,omitempty"`
}
