package punch

import (
	"time"

	"github.com/pontoweb/ponto-backend-go/internal/pkg/validator"
)

// ========================================
// PUNCH DTOs
// ========================================

type RecordPunchRequest struct {
	EmployeeID string      `json:"employee_id"`
	Timestamp  string      `json:"timestamp"` // RFC3339
	Method     EntryMethod `json:"method"`
	DeviceInfo *string     `json:"device_info,omitempty"`
	Latitude   *float64    `json:"latitude,omitempty"`
	Longitude  *float64    `json:"longitude,omitempty"`
	Accuracy   *float64    `json:"accuracy,omitempty"`

	// Parsed by Validate.
	At time.Time `json:"-"`
}

func (r *RecordPunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if validator.IsEmpty(r.Timestamp) {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp is required",
		})
	} else if at, ok := validator.IsValidDateTime(r.Timestamp); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp must be a valid RFC3339 datetime",
		})
	} else {
		r.At = at.UTC()
	}

	if !r.Method.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "method",
			Message: "method must be one of: terminal_import, portaria671_device, mobile, web, manual",
		})
	}

	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if r.Longitude != nil && (*r.Longitude < -180 || *r.Longitude > 180) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ImportPunchRequest carries one AFD marcação record into the ingest path.
type ImportPunchRequest struct {
	EmployeeID   string
	At           time.Time
	DeviceSerial string
	Sequence     int64
	Checksum     string
}

type ApprovePunchRequest struct {
	PunchID string  `json:"-"`
	Actor   Actor   `json:"-"`
	Notes   *string `json:"notes,omitempty"`
}

func (r *ApprovePunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.PunchID) {
		errs = append(errs, validator.ValidationError{
			Field:   "punch_id",
			Message: "punch_id is required",
		})
	}
	if validator.IsEmpty(r.Actor.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "approver_id",
			Message: "approver identity is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RejectPunchRequest struct {
	PunchID string `json:"-"`
	Actor   Actor  `json:"-"`
	Notes   string `json:"notes"`
}

func (r *RejectPunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.PunchID) {
		errs = append(errs, validator.ValidationError{
			Field:   "punch_id",
			Message: "punch_id is required",
		})
	}
	if validator.IsEmpty(r.Actor.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "approver_id",
			Message: "approver identity is required",
		})
	}
	if validator.IsEmpty(r.Notes) {
		errs = append(errs, validator.ValidationError{
			Field:   "notes",
			Message: "rejection notes are required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CorrectPunchRequest struct {
	PunchID       string `json:"-"`
	Actor         Actor  `json:"-"`
	NewTime       string `json:"new_time"` // RFC3339
	Justification string `json:"justification"`

	At time.Time `json:"-"`
}

func (r *CorrectPunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.PunchID) {
		errs = append(errs, validator.ValidationError{
			Field:   "punch_id",
			Message: "punch_id is required",
		})
	}
	if validator.IsEmpty(r.Actor.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "actor_id",
			Message: "actor identity is required",
		})
	}
	if validator.IsEmpty(r.NewTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "new_time",
			Message: "new_time is required",
		})
	} else if at, ok := validator.IsValidDateTime(r.NewTime); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "new_time",
			Message: "new_time must be a valid RFC3339 datetime",
		})
	} else {
		r.At = at.UTC()
	}

	// The justification check is deliberately not a validation error: a
	// correction without one must surface as ErrMissingJustification so the
	// caller can route it to the policy violation path.

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PunchFilter struct {
	EmployeeID *string
	StartDate  *string
	EndDate    *string
	Status     *string
	Page       int
	Limit      int
	SortBy     string
	SortOrder  string
}

type PunchResponse struct {
	ID             string   `json:"id"`
	EmployeeID     string   `json:"employee_id"`
	Date           string   `json:"date"`
	Time           string   `json:"time"`
	Type           string   `json:"type"`
	Method         string   `json:"method"`
	Status         string   `json:"status"`
	ApprovalStatus string   `json:"approval_status"`
	IsEdited       bool     `json:"is_edited"`
	OriginalTime   *string  `json:"original_time,omitempty"`
	EditReason     *string  `json:"edit_reason,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	ComplianceTag  string   `json:"compliance_tag"`
	DeviceSerial   *string  `json:"device_serial,omitempty"`
	SourceSequence *int64   `json:"source_sequence,omitempty"`
}

func ToResponse(p Punch) PunchResponse {
	var original *string
	if p.OriginalTime != nil {
		s := p.OriginalTime.UTC().Format(time.RFC3339)
		original = &s
	}
	return PunchResponse{
		ID:             p.ID,
		EmployeeID:     p.EmployeeID,
		Date:           p.Date.Format("2006-01-02"),
		Time:           p.Time.UTC().Format(time.RFC3339),
		Type:           string(p.Type),
		Method:         string(p.Method),
		Status:         string(p.Status),
		ApprovalStatus: string(p.ApprovalStatus),
		IsEdited:       p.IsEdited,
		OriginalTime:   original,
		EditReason:     p.EditReason,
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
		ComplianceTag:  p.ComplianceTag,
		DeviceSerial:   p.DeviceSerial,
		SourceSequence: p.SourceSequence,
	}
}

type ListPunchesResponse struct {
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
	Punches    []PunchResponse `json:"punches"`
}
