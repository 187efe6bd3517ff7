package workflow

import (
	"time"

	"ict-access-backend/internal/domain"
)

// TransitionEvent is emitted after every successful transition. The dispatcher
// consumes it outside the transactional boundary; the engine itself never
// talks to notification channels.
type TransitionEvent struct {
	AggregateType string    `json:"aggregate_type"`
	AggregateID   int64     `json:"aggregate_id"`
	FromStatus    string    `json:"from_status"`
	ToStatus      string    `json:"to_status"`
	Stage         string    `json:"stage,omitempty"`
	Action        Action    `json:"action"`
	ActorID       int32     `json:"actor_id"`
	ActorRole     ActorRole `json:"actor_role"`
	OccurredAt    time.Time `json:"occurred_at"`
}

const (
	AggregateAccessRequest = "ACCESS_REQUEST"
	AggregateBooking       = "BOOKING"
)

// Engine is the pure decision core. Given an aggregate, a resolved actor and
// an attempted action it either mutates the aggregate into its next state and
// reports the transition, or rejects the attempt with a typed error and leaves
// the aggregate untouched. It performs no I/O; the surrounding service owns
// loading, locking and saving.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Attempt applies one action to an access request. On success the aggregate's
// stage fields are updated, the derived status recomputed and the version
// bumped; on failure the request is left exactly as loaded.
func (e *Engine) Attempt(req *domain.AccessRequest, actor Actor, action Action, p Payload, now time.Time) (*TransitionEvent, error) {
	if p.ExpectedVersion != 0 && p.ExpectedVersion != req.Version {
		return nil, &StaleStateError{ExpectedVersion: p.ExpectedVersion, ActualVersion: req.Version}
	}
	from := DeriveStatus(req)

	var stage domain.Stage
	var err error
	switch action {
	case ActionSubmit:
		stage, err = e.submit(req, actor, p, now)
	case ActionApprove:
		stage, err = e.decide(req, actor, true, p, now)
	case ActionReject:
		stage, err = e.decide(req, actor, false, p, now)
	case ActionCancel:
		stage, err = e.cancel(req, actor, now)
	case ActionAssignOfficer:
		stage, err = e.assignOfficer(req, actor, p, now)
	case ActionRecordGrant:
		stage, err = e.recordGrant(req, actor, p, now)
	case ActionComplete:
		stage, err = e.complete(req, actor, p, now)
	default:
		return nil, &ValidationError{Field: "action", Reason: "unknown action " + string(action)}
	}
	if err != nil {
		return nil, err
	}

	req.Status = DeriveStatus(req)
	req.UpdatedOn = now
	req.Version++

	return &TransitionEvent{
		AggregateType: AggregateAccessRequest,
		AggregateID:   req.ID,
		FromStatus:    string(from),
		ToStatus:      string(req.Status),
		Stage:         string(stage),
		Action:        action,
		ActorID:       actor.UserID,
		ActorRole:     actor.Role,
		OccurredAt:    now,
	}, nil
}

func (e *Engine) submit(req *domain.AccessRequest, actor Actor, p Payload, now time.Time) (domain.Stage, error) {
	if actor.Role != ActorRequester {
		return "", &UnauthorizedActorError{UserID: actor.UserID, Reason: "only the requester can submit"}
	}
	if req.SubmittedAt != nil || req.CancelledAt != nil {
		return "", &InvalidStageError{Stage: domain.StageHOD, Status: req.HOD.Status}
	}
	if len(req.RequestTypes) == 0 {
		return "", &ValidationError{Field: "request_types", Reason: "at least one system must be requested"}
	}
	if req.Justification == "" {
		return "", &ValidationError{Field: "justification", Reason: "required"}
	}
	if req.SignatureKey == "" {
		return "", &ValidationError{Field: "signature_key", Reason: "requester signature is required"}
	}
	if req.AccessDuration == domain.AccessDurationTemporary {
		if req.TemporaryUntil == nil {
			return "", &ValidationError{Field: "temporary_until", Reason: "temporary access needs an expiry date"}
		}
		if !req.TemporaryUntil.After(now) {
			return "", &ValidationError{Field: "temporary_until", Reason: "expiry date must be in the future"}
		}
	}
	req.SubmittedAt = &now
	req.HOD.Status = domain.StageStatusPending
	return domain.StageHOD, nil
}

func (e *Engine) decide(req *domain.AccessRequest, actor Actor, approve bool, p Payload, now time.Time) (domain.Stage, error) {
	stage, ok := RoleStage(actor.Role)
	if !ok {
		return "", &UnauthorizedActorError{UserID: actor.UserID, Reason: "no approval role for this request"}
	}
	sa := req.StageApproval(stage)
	if req.CancelledAt != nil || sa.Status != domain.StageStatusPending {
		return "", &InvalidStageError{Stage: stage, Status: sa.Status}
	}
	if approve && stage == domain.StageICTOfficer {
		// The implementation stage does not approve directly: it completes
		// through grant recording so the provisioned systems are on record.
		return "", &ValidationError{Field: "action", Reason: "implementation stage completes via grant recording"}
	}

	sa.ApproverID = &actor.UserID
	sa.ActedAt = &now
	sa.Comment = p.Comment
	sa.SignatureKey = p.SignatureKey
	if approve {
		sa.Status = domain.StageStatusApproved
		for i, s := range domain.StageOrder {
			if s == stage && i+1 < len(domain.StageOrder) {
				req.StageApproval(domain.StageOrder[i+1]).Status = domain.StageStatusPending
			}
		}
	} else {
		sa.Status = domain.StageStatusRejected
		// Later stages stay NOT_REACHED; the record is frozen for approvals
		// and can only come back through resubmission.
	}
	return stage, nil
}

func (e *Engine) cancel(req *domain.AccessRequest, actor Actor, now time.Time) (domain.Stage, error) {
	if actor.Role != ActorRequester && actor.Role != ActorAdmin {
		return "", &UnauthorizedActorError{UserID: actor.UserID, Reason: "only the requester or an admin can cancel"}
	}
	st := DeriveStatus(req)
	if st != domain.RequestStatusDraft && st != domain.RequestStatusPending {
		// A request that progressed past the HOD stage, or already ended,
		// can no longer be cancelled.
		return "", &InvalidStageError{Stage: domain.StageHOD, Status: req.HOD.Status}
	}
	req.CancelledAt = &now
	req.CancelledBy = &actor.UserID
	return domain.StageHOD, nil
}

func (e *Engine) assignOfficer(req *domain.AccessRequest, actor Actor, p Payload, now time.Time) (domain.Stage, error) {
	if actor.Role != ActorHeadOfIT && actor.Role != ActorAdmin {
		return "", &UnauthorizedActorError{UserID: actor.UserID, Reason: "only the head of IT can assign implementation"}
	}
	if req.CancelledAt != nil || req.ICTOfficer.Status != domain.StageStatusPending {
		return "", &InvalidStageError{Stage: domain.StageICTOfficer, Status: req.ICTOfficer.Status}
	}
	if p.AssigneeID == nil {
		return "", &ValidationError{Field: "assignee_id", Reason: "required"}
	}
	if req.Implementation == domain.ImplementationInProgress {
		return "", &ValidationError{Field: "assignee_id", Reason: "implementation already in progress"}
	}
	req.AssignedOfficerID = p.AssigneeID
	req.AssignedAt = &now
	req.Implementation = domain.ImplementationAssigned
	return domain.StageICTOfficer, nil
}

func (e *Engine) recordGrant(req *domain.AccessRequest, actor Actor, p Payload, now time.Time) (domain.Stage, error) {
	if err := e.checkAssignedOfficer(req, actor); err != nil {
		return "", err
	}
	if len(p.GrantedModules) == 0 {
		return "", &ValidationError{Field: "granted_modules", Reason: "at least one provisioned system must be recorded"}
	}
	req.GrantedModules = mergeModules(req.GrantedModules, p.GrantedModules)
	if p.Notes != "" {
		req.ImplementationNotes = p.Notes
	}
	req.Implementation = domain.ImplementationInProgress
	return domain.StageICTOfficer, nil
}

func (e *Engine) complete(req *domain.AccessRequest, actor Actor, p Payload, now time.Time) (domain.Stage, error) {
	if err := e.checkAssignedOfficer(req, actor); err != nil {
		return "", err
	}
	if len(req.GrantedModules) == 0 {
		return "", &ValidationError{Field: "granted_modules", Reason: "cannot complete before recording the granted systems"}
	}
	sa := &req.ICTOfficer
	sa.Status = domain.StageStatusApproved
	sa.ApproverID = &actor.UserID
	sa.ActedAt = &now
	sa.Comment = p.Comment
	sa.SignatureKey = p.SignatureKey
	if p.Notes != "" {
		req.ImplementationNotes = p.Notes
	}
	req.Implementation = domain.ImplementationCompleted
	return domain.StageICTOfficer, nil
}

func (e *Engine) checkAssignedOfficer(req *domain.AccessRequest, actor Actor) error {
	if actor.Role != ActorICTOfficer {
		return &UnauthorizedActorError{UserID: actor.UserID, Reason: "only an ICT officer can record implementation"}
	}
	if req.CancelledAt != nil || req.ICTOfficer.Status != domain.StageStatusPending {
		return &InvalidStageError{Stage: domain.StageICTOfficer, Status: req.ICTOfficer.Status}
	}
	if req.AssignedOfficerID == nil || *req.AssignedOfficerID != actor.UserID {
		return &UnauthorizedActorError{UserID: actor.UserID, Reason: "implementation is assigned to a different officer"}
	}
	return nil
}

// Resubmit builds a fresh aggregate from a rejected one. The new record starts
// at the HOD stage and links back via ResubmissionOf; the caller stamps
// ResubmittedAs onto the old record under its row lock so a rejected request
// can only spawn one successor.
func (e *Engine) Resubmit(old *domain.AccessRequest, actor Actor, p Payload, now time.Time) (*domain.AccessRequest, *TransitionEvent, error) {
	if p.ExpectedVersion != 0 && p.ExpectedVersion != old.Version {
		return nil, nil, &StaleStateError{ExpectedVersion: p.ExpectedVersion, ActualVersion: old.Version}
	}
	if actor.Role != ActorRequester && actor.Role != ActorHOD {
		return nil, nil, &UnauthorizedActorError{UserID: actor.UserID, Reason: "only the requester or their HOD can resubmit"}
	}
	if old.ResubmittedAs != nil {
		stage, sa := rejectedStage(old)
		return nil, nil, &InvalidStageError{Stage: stage, Status: sa}
	}
	if DeriveStatus(old) != domain.RequestStatusRejected {
		stage, sa := firstUndecidedStage(old)
		return nil, nil, &InvalidStageError{Stage: stage, Status: sa}
	}

	fresh := &domain.AccessRequest{
		RequesterID:     old.RequesterID,
		StaffName:       old.StaffName,
		PFNumber:        old.PFNumber,
		PhoneNumber:     old.PhoneNumber,
		DepartmentID:    old.DepartmentID,
		RequestTypes:    append([]domain.RequestType(nil), old.RequestTypes...),
		WellsoftModules: append([]string(nil), old.WellsoftModules...),
		JeevaModules:    append([]string(nil), old.JeevaModules...),
		AccessDuration:  old.AccessDuration,
		TemporaryUntil:  old.TemporaryUntil,
		Justification:   old.Justification,
		SignatureKey:    old.SignatureKey,
		Implementation:  domain.ImplementationUnassigned,
		ResubmissionOf:  &old.ID,
		SubmittedAt:     &now,
		CreatedOn:       now,
		UpdatedOn:       now,
		Version:         1,
	}
	if p.Comment != "" {
		fresh.Justification = p.Comment
	}
	fresh.HOD.Status = domain.StageStatusPending
	fresh.Divisional.Status = domain.StageStatusNotReached
	fresh.ICTDir.Status = domain.StageStatusNotReached
	fresh.HeadIT.Status = domain.StageStatusNotReached
	fresh.ICTOfficer.Status = domain.StageStatusNotReached
	fresh.Status = DeriveStatus(fresh)

	return fresh, &TransitionEvent{
		AggregateType: AggregateAccessRequest,
		AggregateID:   old.ID,
		FromStatus:    string(domain.RequestStatusRejected),
		ToStatus:      string(fresh.Status),
		Stage:         string(domain.StageHOD),
		Action:        ActionSubmit,
		ActorID:       actor.UserID,
		ActorRole:     actor.Role,
		OccurredAt:    now,
	}, nil
}

func firstUndecidedStage(req *domain.AccessRequest) (domain.Stage, domain.StageStatus) {
	for _, s := range domain.StageOrder {
		st := req.StageApproval(s).Status
		if st == domain.StageStatusPending || st == domain.StageStatusNotReached {
			return s, st
		}
	}
	last := domain.StageOrder[len(domain.StageOrder)-1]
	return last, req.StageApproval(last).Status
}

func rejectedStage(req *domain.AccessRequest) (domain.Stage, domain.StageStatus) {
	for _, s := range domain.StageOrder {
		if req.StageApproval(s).Status == domain.StageStatusRejected {
			return s, domain.StageStatusRejected
		}
	}
	return domain.StageHOD, req.HOD.Status
}

func mergeModules(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	out := append([]string(nil), existing...)
	for _, m := range existing {
		seen[m] = true
	}
	for _, m := range incoming {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
