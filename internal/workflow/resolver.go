package workflow

import "ict-access-backend/internal/domain"

// Directory is the slice of reference data the resolver needs about one
// request: who heads the requester's department and who directs its division.
// Callers pre-fetch it so resolution stays a pure function over loaded state.
type Directory struct {
	DepartmentHeadID   *int32
	DivisionDirectorID *int32
}

// Resolve determines the single functional role the user holds with respect
// to this specific access request. A user who globally carries a role name
// still resolves to ActorNone unless the request's matching stage is pending
// and, for department-scoped stages, the request belongs to their department.
func Resolve(user *domain.User, req *domain.AccessRequest, dir Directory) Actor {
	if user.ID == req.RequesterID {
		return Actor{UserID: user.ID, Role: ActorRequester}
	}
	if stage, ok := HeldStage(user, req, dir); ok {
		if req.StageApproval(stage).Status == domain.StageStatusPending {
			return Actor{UserID: user.ID, Role: StageRole(stage)}
		}
	}
	if user.HasRole(domain.RoleAdmin) {
		return Actor{UserID: user.ID, Role: ActorAdmin}
	}
	return Actor{UserID: user.ID, Role: ActorNone}
}

// HeldStage returns the approval stage the user nominally owns for this
// request, regardless of whether that stage is currently pending. It lets the
// caller distinguish "not your request at all" from "your stage, but someone
// already acted" when Resolve returns ActorNone.
func HeldStage(user *domain.User, req *domain.AccessRequest, dir Directory) (domain.Stage, bool) {
	switch {
	case user.HasRole(domain.RoleHeadOfDepartment) &&
		dir.DepartmentHeadID != nil && *dir.DepartmentHeadID == user.ID:
		return domain.StageHOD, true
	case user.HasRole(domain.RoleDivisionalDirector) &&
		dir.DivisionDirectorID != nil && *dir.DivisionDirectorID == user.ID:
		return domain.StageDivisional, true
	case user.HasRole(domain.RoleICTDirector):
		return domain.StageICTDir, true
	case user.HasRole(domain.RoleHeadOfIT):
		return domain.StageHeadIT, true
	case user.HasRole(domain.RoleICTOfficer):
		// Once a specific officer is assigned, only they own the stage.
		if req.AssignedOfficerID != nil && *req.AssignedOfficerID != user.ID {
			return "", false
		}
		return domain.StageICTOfficer, true
	}
	return "", false
}

// ResolveBooking determines the user's functional role for a device booking.
// The booking chain is shorter: the requester, the ICT officers handling
// review/approval/handover, and admins.
func ResolveBooking(user *domain.User, b *domain.DeviceBooking) Actor {
	if user.ID == b.RequesterID {
		return Actor{UserID: user.ID, Role: ActorRequester}
	}
	if user.HasRole(domain.RoleICTOfficer) || user.HasRole(domain.RoleHeadOfIT) {
		return Actor{UserID: user.ID, Role: ActorICTOfficer}
	}
	if user.HasRole(domain.RoleAdmin) {
		return Actor{UserID: user.ID, Role: ActorAdmin}
	}
	return Actor{UserID: user.ID, Role: ActorNone}
}
