package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/repository"
	"ict-access-backend/internal/workflow"
)

type bookingService struct {
	db         *sql.DB
	repo       repository.BookingRepository
	deviceRepo repository.DeviceRepository
	userRepo   repository.UserRepository
	engine     *workflow.Engine
	dispatcher *Dispatcher
}

func NewBookingService(
	db *sql.DB,
	repo repository.BookingRepository,
	deviceRepo repository.DeviceRepository,
	userRepo repository.UserRepository,
	engine *workflow.Engine,
	dispatcher *Dispatcher,
) BookingService {
	return &bookingService{
		db:         db,
		repo:       repo,
		deviceRepo: deviceRepo,
		userRepo:   userRepo,
		engine:     engine,
		dispatcher: dispatcher,
	}
}

// Create accepts a booking into PENDING without an availability check;
// overlap is only enforced when an officer approves. The requester's
// directory details are snapshotted at creation.
func (s *bookingService) Create(ctx context.Context, b *domain.DeviceBooking) (*domain.DeviceBooking, error) {
	user, err := s.userRepo.GetByID(ctx, b.RequesterID)
	if err != nil {
		return nil, err
	}
	device, err := s.deviceRepo.GetByID(ctx, b.DeviceID)
	if err != nil {
		return nil, err
	}
	if device.Status == domain.DeviceStatusRetired {
		return nil, &workflow.ValidationError{Field: "device_id", Reason: "device is retired"}
	}
	if b.EndDate.Before(b.StartDate) {
		return nil, &workflow.ValidationError{Field: "end_date", Reason: "end date must not be before start date"}
	}
	if b.Purpose == "" {
		return nil, &workflow.ValidationError{Field: "purpose", Reason: "required"}
	}

	now := time.Now()
	b.StaffName = user.Name
	if b.PhoneNumber == "" {
		b.PhoneNumber = user.PhoneNumber
	}
	b.DepartmentID = user.DepartmentID
	b.Status = domain.BookingStatusPending
	b.ICTApproval = domain.ICTApprovalPending
	b.CreatedOn = now
	b.UpdatedOn = now
	b.Version = 1

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	ev := &workflow.TransitionEvent{
		AggregateType: workflow.AggregateBooking,
		AggregateID:   b.ID,
		ToStatus:      string(b.Status),
		Action:        workflow.ActionSubmit,
		ActorID:       b.RequesterID,
		ActorRole:     workflow.ActorRequester,
		OccurredAt:    now,
	}
	s.dispatcher.DispatchBooking(ctx, ev, b)
	return b, nil
}

func (s *bookingService) Get(ctx context.Context, userID int32, id int64) (*domain.DeviceBooking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	actor := workflow.ResolveBooking(user, b)
	if actor.Role == workflow.ActorNone {
		return nil, &workflow.UnauthorizedActorError{UserID: userID, Reason: "no role on this booking"}
	}
	return b, nil
}

func (s *bookingService) ListMine(ctx context.Context, userID int32, status string, page, pageSize int32) ([]domain.DeviceBooking, int32, error) {
	return s.repo.ListByRequester(ctx, userID, status, page, pageSize)
}

func (s *bookingService) ListByStatus(ctx context.Context, status string, page, pageSize int32) ([]domain.DeviceBooking, int32, error) {
	return s.repo.ListByStatus(ctx, status, page, pageSize)
}

// Act runs one booking action under the booking's row lock. Approval also
// locks the device row before the conflict query: two approvals of different
// bookings for the same device lock disjoint booking rows, so only the device
// lock serializes them and lets the loser see the winner's committed flip.
func (s *bookingService) Act(ctx context.Context, userID int32, id int64, action workflow.Action, p workflow.Payload) (*domain.DeviceBooking, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	b, err := s.repo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	actor := workflow.ResolveBooking(user, b)
	if actor.Role == workflow.ActorNone {
		return nil, &workflow.UnauthorizedActorError{UserID: userID, Reason: "no role on this booking"}
	}

	var conflicts []domain.DeviceBooking
	if action == workflow.ActionApprove {
		if err := s.deviceRepo.LockTx(ctx, tx, b.DeviceID); err != nil {
			return nil, err
		}
		conflicts, err = s.repo.FindConflictingApprovedTx(ctx, tx, b.DeviceID, b.StartDate, b.EndDate)
		if err != nil {
			return nil, err
		}
	}

	ev, err := s.engine.AttemptBooking(b, actor, action, p, conflicts, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateTx(ctx, tx, b); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &workflow.StaleStateError{ExpectedVersion: b.Version - 1}
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.syncDeviceStatus(ctx, b)
	s.dispatcher.DispatchBooking(ctx, ev, b)
	return b, nil
}

// syncDeviceStatus mirrors the booking state onto the device record so the
// catalogue shows availability at a glance. Best-effort, the booking itself
// is the source of truth.
func (s *bookingService) syncDeviceStatus(ctx context.Context, b *domain.DeviceBooking) {
	var target domain.DeviceStatus
	switch b.Status {
	case domain.BookingStatusIssued:
		target = domain.DeviceStatusBooked
	case domain.BookingStatusReturned, domain.BookingStatusCompleted:
		target = domain.DeviceStatusAvailable
	default:
		return
	}
	device, err := s.deviceRepo.GetByID(ctx, b.DeviceID)
	if err != nil || device.Status == domain.DeviceStatusRetired || device.Status == domain.DeviceStatusMaintenance {
		return
	}
	device.Status = target
	_ = s.deviceRepo.Update(ctx, device)
}
