package service

import (
	"context"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/workflow"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*domain.User, string, string, error) // user, access, refresh
	RefreshToken(ctx context.Context, refresh string) (string, string, error)
	ChangePassword(ctx context.Context, userID int32, oldPassword, newPassword string) error
}

type AccessRequestService interface {
	CreateDraft(ctx context.Context, req *domain.AccessRequest) (*domain.AccessRequest, error)
	Get(ctx context.Context, userID int32, id int64) (*domain.AccessRequest, error)
	ListMine(ctx context.Context, userID int32, status string, page, pageSize int32) ([]domain.AccessRequest, int32, error)
	ListPendingApprovals(ctx context.Context, userID int32, page, pageSize int32) ([]domain.AccessRequest, int32, error)
	// Act runs one workflow action against the request under a transaction
	// and returns the updated aggregate.
	Act(ctx context.Context, userID int32, id int64, action workflow.Action, p workflow.Payload) (*domain.AccessRequest, error)
	// Resubmit clones a rejected request into a fresh one starting at the
	// first stage. The rejected record is left untouched.
	Resubmit(ctx context.Context, userID int32, id int64, p workflow.Payload) (*domain.AccessRequest, error)
}

type BookingService interface {
	Create(ctx context.Context, b *domain.DeviceBooking) (*domain.DeviceBooking, error)
	Get(ctx context.Context, userID int32, id int64) (*domain.DeviceBooking, error)
	ListMine(ctx context.Context, userID int32, status string, page, pageSize int32) ([]domain.DeviceBooking, int32, error)
	ListByStatus(ctx context.Context, status string, page, pageSize int32) ([]domain.DeviceBooking, int32, error)
	Act(ctx context.Context, userID int32, id int64, action workflow.Action, p workflow.Payload) (*domain.DeviceBooking, error)
}

type DeviceService interface {
	Create(ctx context.Context, device *domain.Device) error
	Get(ctx context.Context, id int32) (*domain.Device, error)
	Update(ctx context.Context, device *domain.Device) error
	List(ctx context.Context, status string, page, pageSize int32) ([]domain.Device, int32, error)
}

type AdminService interface {
	CreateUser(ctx context.Context, user *domain.User, password string) error
	UpdateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id int32) (*domain.User, error)
	ListDepartmentMembers(ctx context.Context, departmentID int32) ([]domain.User, error)
	CreateDepartment(ctx context.Context, dept *domain.Department) error
	UpdateDepartment(ctx context.Context, dept *domain.Department) error
	ListDepartments(ctx context.Context) ([]domain.Department, error)
}

type NotificationService interface {
	List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID int32, id int64) error
}

type EmailService interface {
	SendActionRequired(ctx context.Context, email, name, subject, body string) error
	SendOutcome(ctx context.Context, email, name, subject, body string) error
}

type SmsService interface {
	// Queue records an outbound SMS and attempts immediate delivery through
	// the gateway. Delivery failures leave the row QUEUED for the sweeper.
	Queue(ctx context.Context, msg *domain.SmsMessage) error
	// HandleDeliveryReport correlates a gateway callback with a stored
	// message, by provider reference first and by phone number as fallback.
	HandleDeliveryReport(ctx context.Context, report DeliveryReport) error
	// ResendQueued retries delivery of one previously queued message.
	ResendQueued(ctx context.Context, msg *domain.SmsMessage) error
}

// DeliveryReport is the gateway's delivery callback payload.
type DeliveryReport struct {
	ProviderRef string `json:"message_id"`
	Phone       string `json:"phone"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
}
