package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/logger"
	"ict-access-backend/internal/repository"
	"ict-access-backend/internal/workflow"
)

type accessRequestService struct {
	db         *sql.DB
	repo       repository.AccessRequestRepository
	userRepo   repository.UserRepository
	deptRepo   repository.DepartmentRepository
	engine     *workflow.Engine
	dispatcher *Dispatcher
}

func NewAccessRequestService(
	db *sql.DB,
	repo repository.AccessRequestRepository,
	userRepo repository.UserRepository,
	deptRepo repository.DepartmentRepository,
	engine *workflow.Engine,
	dispatcher *Dispatcher,
) AccessRequestService {
	return &accessRequestService{
		db:         db,
		repo:       repo,
		userRepo:   userRepo,
		deptRepo:   deptRepo,
		engine:     engine,
		dispatcher: dispatcher,
	}
}

// CreateDraft stores a new request in DRAFT with the requester's directory
// details snapshotted. Submission is a separate workflow action.
func (s *accessRequestService) CreateDraft(ctx context.Context, req *domain.AccessRequest) (*domain.AccessRequest, error) {
	user, err := s.userRepo.GetByID(ctx, req.RequesterID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	req.StaffName = user.Name
	req.PFNumber = user.PFNumber
	if req.PhoneNumber == "" {
		req.PhoneNumber = user.PhoneNumber
	}
	req.DepartmentID = user.DepartmentID
	req.HOD.Status = domain.StageStatusNotReached
	req.Divisional.Status = domain.StageStatusNotReached
	req.ICTDir.Status = domain.StageStatusNotReached
	req.HeadIT.Status = domain.StageStatusNotReached
	req.ICTOfficer.Status = domain.StageStatusNotReached
	req.Implementation = domain.ImplementationUnassigned
	req.SubmittedAt = nil
	req.CreatedOn = now
	req.UpdatedOn = now
	req.Version = 1
	req.Status = workflow.DeriveStatus(req)

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *accessRequestService) Get(ctx context.Context, userID int32, id int64) (*domain.AccessRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.ID == req.RequesterID || user.HasRole(domain.RoleAdmin) {
		return req, nil
	}
	dir, err := s.directoryFor(ctx, req)
	if err != nil {
		return nil, err
	}
	if _, ok := workflow.HeldStage(user, req, dir); ok {
		return req, nil
	}
	return nil, &workflow.UnauthorizedActorError{UserID: userID, Reason: "no role on this request"}
}

func (s *accessRequestService) ListMine(ctx context.Context, userID int32, status string, page, pageSize int32) ([]domain.AccessRequest, int32, error) {
	return s.repo.ListByRequester(ctx, userID, status, page, pageSize)
}

// ListPendingApprovals returns the requests whose pending stage matches the
// caller's approval role. HOD lists are scoped to the department the caller
// heads; the global ICT stages list hospital-wide. Listing is advisory only,
// acting is still re-authorized per request.
func (s *accessRequestService) ListPendingApprovals(ctx context.Context, userID int32, page, pageSize int32) ([]domain.AccessRequest, int32, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	switch {
	case user.HasRole(domain.RoleHeadOfIT):
		return s.repo.ListPendingForStage(ctx, domain.StageHeadIT, 0, page, pageSize)
	case user.HasRole(domain.RoleICTDirector):
		return s.repo.ListPendingForStage(ctx, domain.StageICTDir, 0, page, pageSize)
	case user.HasRole(domain.RoleICTOfficer):
		return s.repo.ListPendingForStage(ctx, domain.StageICTOfficer, 0, page, pageSize)
	case user.HasRole(domain.RoleDivisionalDirector):
		return s.repo.ListPendingForStage(ctx, domain.StageDivisional, 0, page, pageSize)
	case user.HasRole(domain.RoleHeadOfDepartment):
		deptID, err := s.headedDepartment(ctx, userID)
		if err != nil {
			return nil, 0, err
		}
		if deptID == 0 {
			return []domain.AccessRequest{}, 0, nil
		}
		return s.repo.ListPendingForStage(ctx, domain.StageHOD, deptID, page, pageSize)
	}
	return []domain.AccessRequest{}, 0, nil
}

// Act loads the request under a row lock, resolves the caller's role, lets
// the engine decide the transition and persists the result in the same
// transaction. The version guard in UpdateTx catches the write race the lock
// lets through across connections.
func (s *accessRequestService) Act(ctx context.Context, userID int32, id int64, action workflow.Action, p workflow.Payload) (*domain.AccessRequest, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	req, err := s.repo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	dir, err := s.directoryFor(ctx, req)
	if err != nil {
		return nil, err
	}

	actor := workflow.Resolve(user, req, dir)
	if actor.Role == workflow.ActorNone {
		if stage, ok := workflow.HeldStage(user, req, dir); ok {
			// Their stage, but it is not awaiting them anymore.
			return nil, &workflow.InvalidStageError{Stage: stage, Status: req.StageApproval(stage).Status}
		}
		return nil, &workflow.UnauthorizedActorError{UserID: userID, Reason: "no role on this request"}
	}

	ev, err := s.engine.Attempt(req, actor, action, p, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateTx(ctx, tx, req); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &workflow.StaleStateError{ExpectedVersion: req.Version - 1}
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.dispatcher.DispatchAccessRequest(ctx, ev, req)
	return req, nil
}

// Resubmit clones a rejected request into a fresh one. Allowed to the
// requester and to the HOD of the requester's department. The old record is
// row-locked and stamped with the successor's ID in the same transaction, so
// concurrent resubmits of one rejected record produce exactly one successor.
func (s *accessRequestService) Resubmit(ctx context.Context, userID int32, id int64, p workflow.Payload) (*domain.AccessRequest, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	old, err := s.repo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	dir, err := s.directoryFor(ctx, old)
	if err != nil {
		return nil, err
	}

	actor := workflow.Actor{UserID: userID, Role: workflow.ActorNone}
	switch {
	case user.ID == old.RequesterID:
		actor.Role = workflow.ActorRequester
	default:
		if stage, ok := workflow.HeldStage(user, old, dir); ok && stage == domain.StageHOD {
			actor.Role = workflow.ActorHOD
		}
	}

	fresh, ev, err := s.engine.Resubmit(old, actor, p, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateTx(ctx, tx, fresh); err != nil {
		return nil, err
	}

	old.ResubmittedAs = &fresh.ID
	old.UpdatedOn = time.Now()
	old.Version++
	if err := s.repo.UpdateTx(ctx, tx, old); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &workflow.StaleStateError{ExpectedVersion: old.Version - 1}
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	ev.AggregateID = fresh.ID
	s.dispatcher.DispatchAccessRequest(ctx, ev, fresh)
	logger.Info("Rejected request resubmitted", "old_id", old.ID, "new_id", fresh.ID, "actor_id", userID)
	return fresh, nil
}

// directoryFor pre-fetches the reference data the resolver needs about the
// request's department and division.
func (s *accessRequestService) directoryFor(ctx context.Context, req *domain.AccessRequest) (workflow.Directory, error) {
	var dir workflow.Directory
	dept, err := s.deptRepo.GetByID(ctx, req.DepartmentID)
	if err != nil {
		return dir, err
	}
	dir.DepartmentHeadID = dept.HeadUserID
	if dept.DivisionID != 0 {
		div, err := s.deptRepo.GetDivision(ctx, dept.DivisionID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return dir, err
			}
		} else {
			dir.DivisionDirectorID = div.DirectorUserID
		}
	}
	return dir, nil
}

func (s *accessRequestService) headedDepartment(ctx context.Context, userID int32) (int32, error) {
	depts, err := s.deptRepo.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, d := range depts {
		if d.HeadUserID != nil && *d.HeadUserID == userID {
			return d.ID, nil
		}
	}
	return 0, nil
}
