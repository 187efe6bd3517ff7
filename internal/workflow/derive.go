package workflow

import "ict-access-backend/internal/domain"

// DeriveStatus computes the aggregate lifecycle summary from the per-stage
// statuses and terminal markers. The aggregate status is a read-only
// projection: it is recomputed after every transition and never mutated on
// its own, so the per-stage fields remain the single source of truth.
func DeriveStatus(r *domain.AccessRequest) domain.RequestStatus {
	if r.CancelledAt != nil {
		return domain.RequestStatusCancelled
	}
	for _, s := range domain.StageOrder {
		if r.StageApproval(s).Status == domain.StageStatusRejected {
			return domain.RequestStatusRejected
		}
	}
	if r.SubmittedAt == nil {
		return domain.RequestStatusDraft
	}
	if r.ICTOfficer.Status == domain.StageStatusApproved &&
		r.Implementation == domain.ImplementationCompleted {
		return domain.RequestStatusCompleted
	}
	switch {
	case r.HOD.Status == domain.StageStatusPending:
		return domain.RequestStatusPending
	case r.Divisional.Status == domain.StageStatusPending:
		return domain.RequestStatusHODApproved
	case r.ICTDir.Status == domain.StageStatusPending:
		return domain.RequestStatusDivisionalApproved
	case r.HeadIT.Status == domain.StageStatusPending:
		return domain.RequestStatusICTDirectorApproved
	case r.ICTOfficer.Status == domain.StageStatusPending:
		if r.Implementation == domain.ImplementationAssigned ||
			r.Implementation == domain.ImplementationInProgress {
			return domain.RequestStatusImplementationActive
		}
		return domain.RequestStatusHeadITApproved
	}
	return domain.RequestStatusPending
}

// CheckStageOrdering verifies the structural invariant that a stage is only
// past NOT_REACHED when every earlier stage is approved. It is used by tests
// and by the engine as a guard against corrupted rows.
func CheckStageOrdering(r *domain.AccessRequest) bool {
	for i, s := range domain.StageOrder {
		if r.StageApproval(s).Status == domain.StageStatusNotReached {
			continue
		}
		for _, earlier := range domain.StageOrder[:i] {
			if r.StageApproval(earlier).Status != domain.StageStatusApproved {
				return false
			}
		}
	}
	return true
}
