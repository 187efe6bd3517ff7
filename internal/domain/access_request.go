package domain

import "time"

// Stage is one approval step in the fixed chain. The order of StageOrder is
// load-bearing: a later stage can only leave NOT_REACHED once every earlier
// stage is approved.
type Stage string

const (
	StageHOD        Stage = "HOD"
	StageDivisional Stage = "DIVISIONAL"
	StageICTDir     Stage = "ICT_DIRECTOR"
	StageHeadIT     Stage = "HEAD_IT"
	StageICTOfficer Stage = "ICT_OFFICER"
)

// StageOrder lists the approval stages in chain order.
var StageOrder = []Stage{StageHOD, StageDivisional, StageICTDir, StageHeadIT, StageICTOfficer}

type StageStatus string

const (
	StageStatusNotReached StageStatus = "NOT_REACHED"
	StageStatusPending    StageStatus = "PENDING"
	StageStatusApproved   StageStatus = "APPROVED"
	StageStatusRejected   StageStatus = "REJECTED"
)

// StageApproval carries the per-stage decision metadata. One instance exists
// per stage on every access request.
type StageApproval struct {
	Status       StageStatus `json:"status"`
	ApproverID   *int32      `json:"approver_id,omitempty"`
	ActedAt      *time.Time  `json:"acted_at,omitempty"`
	Comment      string      `json:"comment"`
	SignatureKey string      `json:"signature_key"`
}

type RequestType string

const (
	RequestTypeWellsoft RequestType = "WELLSOFT_ACCESS"
	RequestTypeJeeva    RequestType = "JEEVA_ACCESS"
	RequestTypeInternet RequestType = "INTERNET_ACCESS"
)

type AccessDuration string

const (
	AccessDurationPermanent AccessDuration = "PERMANENT"
	AccessDurationTemporary AccessDuration = "TEMPORARY"
)

type ImplementationStatus string

const (
	ImplementationUnassigned ImplementationStatus = "UNASSIGNED"
	ImplementationAssigned   ImplementationStatus = "ASSIGNED"
	ImplementationInProgress ImplementationStatus = "IN_PROGRESS"
	ImplementationCompleted  ImplementationStatus = "COMPLETED"
)

// RequestStatus is the aggregate lifecycle summary. It is a derived projection
// of the per-stage statuses plus the terminal markers and is never mutated
// independently; the stored column exists only so lists can filter cheaply.
type RequestStatus string

const (
	RequestStatusDraft                RequestStatus = "DRAFT"
	RequestStatusPending              RequestStatus = "PENDING"
	RequestStatusHODApproved          RequestStatus = "HOD_APPROVED"
	RequestStatusDivisionalApproved   RequestStatus = "DIVISIONAL_APPROVED"
	RequestStatusICTDirectorApproved  RequestStatus = "ICT_DIRECTOR_APPROVED"
	RequestStatusHeadITApproved       RequestStatus = "HEAD_IT_APPROVED"
	RequestStatusImplementationActive RequestStatus = "IMPLEMENTATION_IN_PROGRESS"
	RequestStatusCompleted            RequestStatus = "COMPLETED"
	RequestStatusRejected             RequestStatus = "REJECTED"
	RequestStatusCancelled            RequestStatus = "CANCELLED"
)

// AccessRequest is the combined access-request aggregate. Requester fields are
// snapshots captured at creation for audit; they do not follow later profile
// edits.
type AccessRequest struct {
	ID      int64 `json:"id"`
	Version int32 `json:"version"`

	RequesterID  int32  `json:"requester_id"`
	StaffName    string `json:"staff_name"`
	PFNumber     string `json:"pf_number"`
	PhoneNumber  string `json:"phone_number"`
	DepartmentID int32  `json:"department_id"`

	RequestTypes    []RequestType  `json:"request_types"`
	WellsoftModules []string       `json:"wellsoft_modules"`
	JeevaModules    []string       `json:"jeeva_modules"`
	AccessDuration  AccessDuration `json:"access_duration"`
	TemporaryUntil  *time.Time     `json:"temporary_until,omitempty"`
	Justification   string         `json:"justification"`
	SignatureKey    string         `json:"signature_key"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	HOD        StageApproval `json:"hod"`
	Divisional StageApproval `json:"divisional"`
	ICTDir     StageApproval `json:"ict_director"`
	HeadIT     StageApproval `json:"head_it"`
	ICTOfficer StageApproval `json:"ict_officer"`

	AssignedOfficerID   *int32               `json:"assigned_officer_id,omitempty"`
	AssignedAt          *time.Time           `json:"assigned_at,omitempty"`
	ImplementationNotes string               `json:"implementation_notes"`
	GrantedModules      []string             `json:"granted_modules"`
	Implementation      ImplementationStatus `json:"implementation_status"`

	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy    *int32     `json:"cancelled_by,omitempty"`
	ResubmissionOf *int64     `json:"resubmission_of,omitempty"`
	ResubmittedAs  *int64     `json:"resubmitted_as,omitempty"`

	Status    RequestStatus `json:"status"`
	CreatedOn time.Time     `json:"created_on"`
	UpdatedOn time.Time     `json:"updated_on"`
}

// StageApproval returns the mutable per-stage record for the given stage.
func (r *AccessRequest) StageApproval(s Stage) *StageApproval {
	switch s {
	case StageHOD:
		return &r.HOD
	case StageDivisional:
		return &r.Divisional
	case StageICTDir:
		return &r.ICTDir
	case StageHeadIT:
		return &r.HeadIT
	case StageICTOfficer:
		return &r.ICTOfficer
	}
	return nil
}

// HasRequestType reports whether the request asks for the given system.
func (r *AccessRequest) HasRequestType(t RequestType) bool {
	for _, rt := range r.RequestTypes {
		if rt == t {
			return true
		}
	}
	return false
}
