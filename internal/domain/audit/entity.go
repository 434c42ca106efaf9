package audit

import "time"

// AuditRecord is one immutable trail entry. A record is written for every
// correction, approval, rejection and compliance export.
type AuditRecord struct {
	ID            string
	ActorID       string
	Action        Action
	TargetType    string // "punch", "time_bank_entry", "aej_export"
	TargetID      string
	BeforeValue   *string
	AfterValue    *string
	Justification *string
	CreatedAt     time.Time
}

type Action string

const (
	ActionApprove     Action = "approve"
	ActionReject      Action = "reject"
	ActionCorrect     Action = "correct"
	ActionCapExceeded Action = "time_bank_cap_exceeded"
	ActionFlagDay     Action = "flag_day_for_review"
	ActionExportAej   Action = "export_aej"
	ActionImportAfd   Action = "import_afd"
)

type AuditRecordResponse struct {
	ID            string  `json:"id"`
	ActorID       string  `json:"actor_id"`
	Action        string  `json:"action"`
	TargetType    string  `json:"target_type"`
	TargetID      string  `json:"target_id"`
	BeforeValue   *string `json:"before_value,omitempty"`
	AfterValue    *string `json:"after_value,omitempty"`
	Justification *string `json:"justification,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func ToResponse(r AuditRecord) AuditRecordResponse {
	return AuditRecordResponse{
		ID:            r.ID,
		ActorID:       r.ActorID,
		Action:        string(r.Action),
		TargetType:    r.TargetType,
		TargetID:      r.TargetID,
		BeforeValue:   r.BeforeValue,
		AfterValue:    r.AfterValue,
		Justification: r.Justification,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
	}
}
