package domain

import "time"

type SmsStatus string

const (
	SmsStatusQueued    SmsStatus = "QUEUED"
	SmsStatusSent      SmsStatus = "SENT"
	SmsStatusDelivered SmsStatus = "DELIVERED"
	SmsStatusFailed    SmsStatus = "FAILED"
)

// SmsRefType is the loose back-reference from an SMS row to the aggregate that
// caused it. It is deliberately not a foreign key: delivery reports from the
// gateway are correlated best-effort (provider reference first, then newest
// row by phone number), so the link stays informational.
type SmsRefType string

const (
	SmsRefAccessRequest SmsRefType = "ACCESS_REQUEST"
	SmsRefBooking       SmsRefType = "BOOKING"
)

type SmsMessage struct {
	ID             int64      `json:"id"`
	RecipientPhone string     `json:"recipient_phone"`
	Body           string     `json:"body"`
	ProviderRef    string     `json:"provider_ref"`
	RefType        SmsRefType `json:"ref_type"`
	RefID          int64      `json:"ref_id"`
	Status         SmsStatus  `json:"status"`
	FailReason     string     `json:"fail_reason"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	CreatedOn      time.Time  `json:"created_on"`
}
