package service

import (
	"context"
	"fmt"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/logger"
	"ict-access-backend/internal/queue"
	"ict-access-backend/internal/repository"
	"ict-access-backend/internal/workflow"
)

// Dispatcher fans a committed workflow transition out to the notification
// channels. It runs after the transaction commits and is strictly
// best-effort: a failed channel is logged and never rolls the workflow back.
type Dispatcher struct {
	noteRepo  repository.NotificationRepository
	userRepo  repository.UserRepository
	deptRepo  repository.DepartmentRepository
	smsSvc    SmsService
	publisher *queue.Publisher
}

func NewDispatcher(
	noteRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	deptRepo repository.DepartmentRepository,
	smsSvc SmsService,
	publisher *queue.Publisher,
) *Dispatcher {
	return &Dispatcher{
		noteRepo:  noteRepo,
		userRepo:  userRepo,
		deptRepo:  deptRepo,
		smsSvc:    smsSvc,
		publisher: publisher,
	}
}

func (d *Dispatcher) DispatchAccessRequest(ctx context.Context, ev *workflow.TransitionEvent, req *domain.AccessRequest) {
	logger.WorkflowTransition(ev.AggregateType, ev.AggregateID, ev.FromStatus, ev.ToStatus, ev.ActorID)

	d.publish(ctx, ev, req.RequesterID, req.StaffName)

	// Requester always hears about a status change they did not cause.
	if ev.ActorID != req.RequesterID {
		d.notify(ctx, req.RequesterID, "Access request update",
			fmt.Sprintf("Your access request #%d is now %s", req.ID, req.Status),
			map[string]string{"type": "ACCESS_REQUEST", "request_id": fmt.Sprintf("%d", req.ID)})
	}

	// The owner of a newly pending stage gets an action-required note.
	for _, approverID := range d.pendingApprovers(ctx, req) {
		d.notify(ctx, approverID, "Approval required",
			fmt.Sprintf("Access request #%d from %s is awaiting your approval", req.ID, req.StaffName),
			map[string]string{"type": "ACCESS_REQUEST_PENDING", "request_id": fmt.Sprintf("%d", req.ID)})
	}

	if terminalRequestStatus(req.Status) && req.PhoneNumber != "" {
		sms := &domain.SmsMessage{
			RecipientPhone: req.PhoneNumber,
			Body:           fmt.Sprintf("Your ICT access request #%d is %s.", req.ID, req.Status),
			RefType:        domain.SmsRefAccessRequest,
			RefID:          req.ID,
		}
		if err := d.smsSvc.Queue(ctx, sms); err != nil {
			logger.Error("Failed to queue outcome SMS", "request_id", req.ID, "error", err)
		}
	}
}

func (d *Dispatcher) DispatchBooking(ctx context.Context, ev *workflow.TransitionEvent, b *domain.DeviceBooking) {
	logger.WorkflowTransition(ev.AggregateType, ev.AggregateID, ev.FromStatus, ev.ToStatus, ev.ActorID)

	d.publish(ctx, ev, b.RequesterID, b.StaffName)

	if ev.ActorID != b.RequesterID {
		d.notify(ctx, b.RequesterID, "Device booking update",
			fmt.Sprintf("Your device booking #%d is now %s", b.ID, b.Status),
			map[string]string{"type": "BOOKING", "booking_id": fmt.Sprintf("%d", b.ID)})
	}

	if b.Status == domain.BookingStatusPending || b.Status == domain.BookingStatusICTReview {
		for _, officer := range d.usersWithRole(ctx, domain.RoleICTOfficer) {
			d.notify(ctx, officer, "Booking awaiting review",
				fmt.Sprintf("Device booking #%d from %s needs ICT review", b.ID, b.StaffName),
				map[string]string{"type": "BOOKING_PENDING", "booking_id": fmt.Sprintf("%d", b.ID)})
		}
	}

	if (b.Status == domain.BookingStatusApproved || b.Status == domain.BookingStatusRejected) && b.PhoneNumber != "" {
		sms := &domain.SmsMessage{
			RecipientPhone: b.PhoneNumber,
			Body:           fmt.Sprintf("Your device booking #%d is %s.", b.ID, b.Status),
			RefType:        domain.SmsRefBooking,
			RefID:          b.ID,
		}
		if err := d.smsSvc.Queue(ctx, sms); err != nil {
			logger.Error("Failed to queue booking SMS", "booking_id", b.ID, "error", err)
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, ev *workflow.TransitionEvent, requesterID int32, requesterName string) {
	if d.publisher == nil {
		return
	}
	msg := queue.TransitionMessage{
		AggregateType: ev.AggregateType,
		AggregateID:   ev.AggregateID,
		FromStatus:    ev.FromStatus,
		ToStatus:      ev.ToStatus,
		Stage:         ev.Stage,
		Action:        string(ev.Action),
		ActorID:       ev.ActorID,
		ActorRole:     string(ev.ActorRole),
		RequesterID:   requesterID,
		RequesterName: requesterName,
		OccurredAt:    ev.OccurredAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if err := d.publisher.Publish(ctx, msg); err != nil {
		logger.Error("Failed to publish transition", "aggregate_id", ev.AggregateID, "error", err)
	}
}

func (d *Dispatcher) notify(ctx context.Context, userID int32, title, message string, attrs map[string]string) {
	note := &domain.Notification{
		UserID:     userID,
		Title:      title,
		Message:    message,
		Attributes: attrs,
	}
	if err := d.noteRepo.Create(ctx, note); err != nil {
		logger.Error("Failed to create notification", "user_id", userID, "error", err)
	}
}

// pendingApprovers returns the users who own the request's currently pending
// stage, if any.
func (d *Dispatcher) pendingApprovers(ctx context.Context, req *domain.AccessRequest) []int32 {
	for _, s := range domain.StageOrder {
		if req.StageApproval(s).Status != domain.StageStatusPending {
			continue
		}
		switch s {
		case domain.StageHOD:
			if dept, err := d.deptRepo.GetByID(ctx, req.DepartmentID); err == nil && dept.HeadUserID != nil {
				return []int32{*dept.HeadUserID}
			}
		case domain.StageDivisional:
			dept, err := d.deptRepo.GetByID(ctx, req.DepartmentID)
			if err != nil {
				return nil
			}
			if div, err := d.deptRepo.GetDivision(ctx, dept.DivisionID); err == nil && div.DirectorUserID != nil {
				return []int32{*div.DirectorUserID}
			}
		case domain.StageICTDir:
			return d.usersWithRole(ctx, domain.RoleICTDirector)
		case domain.StageHeadIT:
			return d.usersWithRole(ctx, domain.RoleHeadOfIT)
		case domain.StageICTOfficer:
			if req.AssignedOfficerID != nil {
				return []int32{*req.AssignedOfficerID}
			}
			return d.usersWithRole(ctx, domain.RoleHeadOfIT)
		}
		return nil
	}
	return nil
}

func (d *Dispatcher) usersWithRole(ctx context.Context, role domain.RoleName) []int32 {
	users, err := d.userRepo.ListByRole(ctx, role)
	if err != nil {
		logger.Error("Failed to list role holders", "role", string(role), "error", err)
		return nil
	}
	ids := make([]int32, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func terminalRequestStatus(s domain.RequestStatus) bool {
	return s == domain.RequestStatusCompleted ||
		s == domain.RequestStatusRejected ||
		s == domain.RequestStatusCancelled
}
