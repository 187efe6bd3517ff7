package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusICTReview BookingStatus = "ICT_REVIEW"
	BookingStatusApproved  BookingStatus = "APPROVED"
	BookingStatusRejected  BookingStatus = "REJECTED"
	BookingStatusIssued    BookingStatus = "ISSUED"
	BookingStatusReturned  BookingStatus = "RETURNED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// ICTApprovalStatus is the secondary ICT sub-status recorded alongside the
// booking status while the request sits with the ICT chain.
type ICTApprovalStatus string

const (
	ICTApprovalPending  ICTApprovalStatus = "PENDING"
	ICTApprovalApproved ICTApprovalStatus = "APPROVED"
	ICTApprovalRejected ICTApprovalStatus = "REJECTED"
)

// ConditionAssessment is recorded at device handover and again at return.
// Notes are free-form; the signature is an opaque storage key.
type ConditionAssessment struct {
	Notes        string     `json:"notes"`
	Functional   bool       `json:"functional"`
	Accessories  string     `json:"accessories"`
	SignatureKey string     `json:"signature_key"`
	RecordedBy   *int32     `json:"recorded_by,omitempty"`
	RecordedAt   *time.Time `json:"recorded_at,omitempty"`
}

// DeviceBooking is the device-booking aggregate. Two APPROVED or ISSUED
// bookings for one device must never overlap; the conflict check runs at
// approval time, inside the same transaction as the status flip.
type DeviceBooking struct {
	ID      int64 `json:"id"`
	Version int32 `json:"version"`

	RequesterID  int32  `json:"requester_id"`
	StaffName    string `json:"staff_name"`
	PhoneNumber  string `json:"phone_number"`
	DepartmentID int32  `json:"department_id"`

	DeviceID  int32     `json:"device_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Purpose   string    `json:"purpose"`

	Status          BookingStatus     `json:"status"`
	ICTApproval     ICTApprovalStatus `json:"ict_approval_status"`
	ApproverID      *int32            `json:"approver_id,omitempty"`
	ApprovedAt      *time.Time        `json:"approved_at,omitempty"`
	RejectionReason string            `json:"rejection_reason"`

	Issuing   ConditionAssessment `json:"issuing_assessment"`
	Receiving ConditionAssessment `json:"receiving_assessment"`

	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// Overlaps reports whether the booking's date range intersects [start, end].
// Ranges are inclusive on both ends.
func (b *DeviceBooking) Overlaps(start, end time.Time) bool {
	return !b.EndDate.Before(start) && !b.StartDate.After(end)
}
