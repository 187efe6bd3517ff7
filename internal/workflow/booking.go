package workflow

import (
	"time"

	"ict-access-backend/internal/domain"
)

// AttemptBooking applies one action to a device booking. Conflicting bookings
// are passed in by the caller, pre-queried under the device row lock in the
// transaction that will persist the flip, so two overlapping approvals cannot
// race past each other.
func (e *Engine) AttemptBooking(b *domain.DeviceBooking, actor Actor, action Action, p Payload, conflicts []domain.DeviceBooking, now time.Time) (*TransitionEvent, error) {
	if p.ExpectedVersion != 0 && p.ExpectedVersion != b.Version {
		return nil, &StaleStateError{ExpectedVersion: p.ExpectedVersion, ActualVersion: b.Version}
	}
	from := b.Status

	var err error
	switch action {
	case ActionReview:
		err = e.reviewBooking(b, actor)
	case ActionApprove:
		err = e.approveBooking(b, actor, conflicts, now)
	case ActionReject:
		err = e.rejectBooking(b, actor, p, now)
	case ActionIssue:
		err = e.issueBooking(b, actor, p, now)
	case ActionReturn:
		err = e.returnBooking(b, actor, p, now)
	case ActionComplete:
		err = e.completeBooking(b, actor)
	case ActionCancel:
		err = e.cancelBooking(b, actor)
	default:
		return nil, &ValidationError{Field: "action", Reason: "unknown booking action " + string(action)}
	}
	if err != nil {
		return nil, err
	}

	b.UpdatedOn = now
	b.Version++

	return &TransitionEvent{
		AggregateType: AggregateBooking,
		AggregateID:   b.ID,
		FromStatus:    string(from),
		ToStatus:      string(b.Status),
		Action:        action,
		ActorID:       actor.UserID,
		ActorRole:     actor.Role,
		OccurredAt:    now,
	}, nil
}

func (e *Engine) checkBookingOfficer(actor Actor) error {
	if actor.Role != ActorICTOfficer && actor.Role != ActorAdmin {
		return &UnauthorizedActorError{UserID: actor.UserID, Reason: "booking handling requires an ICT officer"}
	}
	return nil
}

func bookingStageError(b *domain.DeviceBooking) error {
	return &InvalidStageError{Stage: "BOOKING", Status: domain.StageStatus(b.Status)}
}

func (e *Engine) reviewBooking(b *domain.DeviceBooking, actor Actor) error {
	if err := e.checkBookingOfficer(actor); err != nil {
		return err
	}
	if b.Status != domain.BookingStatusPending {
		return bookingStageError(b)
	}
	b.Status = domain.BookingStatusICTReview
	b.ICTApproval = domain.ICTApprovalPending
	return nil
}

// approveBooking re-checks availability against all other APPROVED and ISSUED
// bookings for the device. Pending requests are provisional, which is exactly
// why the conflict check is deferred to approval time.
func (e *Engine) approveBooking(b *domain.DeviceBooking, actor Actor, conflicts []domain.DeviceBooking, now time.Time) error {
	if err := e.checkBookingOfficer(actor); err != nil {
		return err
	}
	if b.Status != domain.BookingStatusICTReview {
		return bookingStageError(b)
	}
	var overlapping []int64
	for i := range conflicts {
		c := &conflicts[i]
		if c.ID == b.ID {
			continue
		}
		if (c.Status == domain.BookingStatusApproved || c.Status == domain.BookingStatusIssued) &&
			c.Overlaps(b.StartDate, b.EndDate) {
			overlapping = append(overlapping, c.ID)
		}
	}
	if len(overlapping) > 0 {
		return &ConflictError{DeviceID: b.DeviceID, ConflictIDs: overlapping}
	}
	b.Status = domain.BookingStatusApproved
	b.ICTApproval = domain.ICTApprovalApproved
	b.ApproverID = &actor.UserID
	b.ApprovedAt = &now
	return nil
}

func (e *Engine) rejectBooking(b *domain.DeviceBooking, actor Actor, p Payload, now time.Time) error {
	if err := e.checkBookingOfficer(actor); err != nil {
		return err
	}
	if b.Status != domain.BookingStatusPending && b.Status != domain.BookingStatusICTReview {
		return bookingStageError(b)
	}
	b.Status = domain.BookingStatusRejected
	b.ICTApproval = domain.ICTApprovalRejected
	b.ApproverID = &actor.UserID
	b.ApprovedAt = &now
	b.RejectionReason = p.Reason
	return nil
}

func (e *Engine) issueBooking(b *domain.DeviceBooking, actor Actor, p Payload, now time.Time) error {
	if err := e.checkBookingOfficer(actor); err != nil {
		return err
	}
	if b.Status != domain.BookingStatusApproved {
		return bookingStageError(b)
	}
	if p.Assessment == nil || p.Assessment.Notes == "" {
		return &ValidationError{Field: "issuing_assessment", Reason: "device condition must be recorded at handover"}
	}
	b.Issuing = *p.Assessment
	b.Issuing.RecordedBy = &actor.UserID
	b.Issuing.RecordedAt = &now
	b.Status = domain.BookingStatusIssued
	return nil
}

func (e *Engine) returnBooking(b *domain.DeviceBooking, actor Actor, p Payload, now time.Time) error {
	if err := e.checkBookingOfficer(actor); err != nil {
		return err
	}
	if b.Status != domain.BookingStatusIssued {
		return bookingStageError(b)
	}
	if p.Assessment == nil || p.Assessment.Notes == "" {
		return &ValidationError{Field: "receiving_assessment", Reason: "device condition must be recorded at return"}
	}
	b.Receiving = *p.Assessment
	b.Receiving.RecordedBy = &actor.UserID
	b.Receiving.RecordedAt = &now
	b.Status = domain.BookingStatusReturned
	return nil
}

func (e *Engine) completeBooking(b *domain.DeviceBooking, actor Actor) error {
	if err := e.checkBookingOfficer(actor); err != nil {
		return err
	}
	if b.Status != domain.BookingStatusReturned {
		return bookingStageError(b)
	}
	b.Status = domain.BookingStatusCompleted
	return nil
}

func (e *Engine) cancelBooking(b *domain.DeviceBooking, actor Actor) error {
	if actor.Role != ActorRequester && actor.Role != ActorAdmin {
		return &UnauthorizedActorError{UserID: actor.UserID, Reason: "only the requester or an admin can cancel a booking"}
	}
	if b.Status != domain.BookingStatusPending && b.Status != domain.BookingStatusICTReview {
		return bookingStageError(b)
	}
	b.Status = domain.BookingStatusCancelled
	return nil
}
