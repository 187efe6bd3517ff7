package repository

import (
	"context"
	"database/sql"
	"time"

	"ict-access-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	ListByRole(ctx context.Context, role domain.RoleName) ([]domain.User, error)
	ListByDepartment(ctx context.Context, departmentID int32) ([]domain.User, error)
}

type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	GetByID(ctx context.Context, id int32) (*domain.Department, error)
	List(ctx context.Context) ([]domain.Department, error)
	Update(ctx context.Context, dept *domain.Department) error
	GetDivision(ctx context.Context, id int32) (*domain.Division, error)
}

type DeviceRepository interface {
	Create(ctx context.Context, device *domain.Device) error
	GetByID(ctx context.Context, id int32) (*domain.Device, error)
	Update(ctx context.Context, device *domain.Device) error
	List(ctx context.Context, status string, page, pageSize int32) ([]domain.Device, int32, error)
	// LockTx takes a row lock on the device. Booking approvals for different
	// bookings of the same device lock disjoint booking rows, so the overlap
	// check is only safe once all approvals of one device serialize here.
	LockTx(ctx context.Context, tx *sql.Tx, id int32) error
}

// AccessRequestRepository persists the access-request aggregate. Workflow
// writes go through the ForUpdate/UpdateTx pair inside one transaction: the
// row lock serializes transitions per aggregate, and UpdateTx additionally
// guards on the version the engine started from so a lost race surfaces as
// zero affected rows.
type AccessRequestRepository interface {
	Create(ctx context.Context, req *domain.AccessRequest) error
	CreateTx(ctx context.Context, tx *sql.Tx, req *domain.AccessRequest) error
	GetByID(ctx context.Context, id int64) (*domain.AccessRequest, error)
	GetByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.AccessRequest, error)
	UpdateTx(ctx context.Context, tx *sql.Tx, req *domain.AccessRequest) error
	ListByRequester(ctx context.Context, requesterID int32, status string, page, pageSize int32) ([]domain.AccessRequest, int32, error)
	// ListPendingForStage returns requests whose given stage is pending;
	// departmentID scopes the list for department-bound stages (0 = any).
	ListPendingForStage(ctx context.Context, stage domain.Stage, departmentID int32, page, pageSize int32) ([]domain.AccessRequest, int32, error)
	ListExpiredTemporary(ctx context.Context, asOf time.Time) ([]domain.AccessRequest, error)
}

type BookingRepository interface {
	Create(ctx context.Context, b *domain.DeviceBooking) error
	GetByID(ctx context.Context, id int64) (*domain.DeviceBooking, error)
	GetByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.DeviceBooking, error)
	UpdateTx(ctx context.Context, tx *sql.Tx, b *domain.DeviceBooking) error
	ListByRequester(ctx context.Context, requesterID int32, status string, page, pageSize int32) ([]domain.DeviceBooking, int32, error)
	ListByStatus(ctx context.Context, status string, page, pageSize int32) ([]domain.DeviceBooking, int32, error)
	// FindConflictingApprovedTx loads, under the caller's transaction, the
	// APPROVED and ISSUED bookings of a device that overlap the date range.
	// The caller must hold the device lock (DeviceRepository.LockTx) first;
	// without it a concurrent approval's flip is invisible to this query.
	FindConflictingApprovedTx(ctx context.Context, tx *sql.Tx, deviceID int32, start, end time.Time) ([]domain.DeviceBooking, error)
	ListOverdueIssued(ctx context.Context, asOf time.Time) ([]domain.DeviceBooking, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id int64, userID int32) error
}

type SmsRepository interface {
	Create(ctx context.Context, msg *domain.SmsMessage) error
	Update(ctx context.Context, msg *domain.SmsMessage) error
	GetByProviderRef(ctx context.Context, ref string) (*domain.SmsMessage, error)
	// GetLatestUndeliveredByPhone is the fallback correlation strategy for
	// delivery reports that arrive without a usable provider reference.
	GetLatestUndeliveredByPhone(ctx context.Context, phone string) (*domain.SmsMessage, error)
	ListQueuedBefore(ctx context.Context, cutoff time.Time) ([]domain.SmsMessage, error)
}
