package workflow

import "ict-access-backend/internal/domain"

// ActorRole is the single functional role a user holds with respect to one
// specific aggregate. It is resolved per request by Resolve; global role names
// from the directory are never compared ad hoc elsewhere.
type ActorRole string

const (
	ActorNone               ActorRole = ""
	ActorRequester          ActorRole = "REQUESTER"
	ActorHOD                ActorRole = "HOD"
	ActorDivisionalDirector ActorRole = "DIVISIONAL_DIRECTOR"
	ActorICTDirector        ActorRole = "ICT_DIRECTOR"
	ActorHeadOfIT           ActorRole = "HEAD_OF_IT"
	ActorICTOfficer         ActorRole = "ICT_OFFICER"
	ActorAdmin              ActorRole = "ADMIN"
)

// Actor couples the authenticated user with their resolved role.
type Actor struct {
	UserID int32
	Role   ActorRole
}

// StageRole maps an approval stage to the actor role allowed to decide it.
func StageRole(s domain.Stage) ActorRole {
	switch s {
	case domain.StageHOD:
		return ActorHOD
	case domain.StageDivisional:
		return ActorDivisionalDirector
	case domain.StageICTDir:
		return ActorICTDirector
	case domain.StageHeadIT:
		return ActorHeadOfIT
	case domain.StageICTOfficer:
		return ActorICTOfficer
	}
	return ActorNone
}

// RoleStage is the inverse of StageRole for approval roles.
func RoleStage(r ActorRole) (domain.Stage, bool) {
	switch r {
	case ActorHOD:
		return domain.StageHOD, true
	case ActorDivisionalDirector:
		return domain.StageDivisional, true
	case ActorICTDirector:
		return domain.StageICTDir, true
	case ActorHeadOfIT:
		return domain.StageHeadIT, true
	case ActorICTOfficer:
		return domain.StageICTOfficer, true
	}
	return "", false
}

// Action is a workflow verb attempted by a resolved actor.
type Action string

const (
	ActionSubmit        Action = "SUBMIT"
	ActionApprove       Action = "APPROVE"
	ActionReject        Action = "REJECT"
	ActionCancel        Action = "CANCEL"
	ActionAssignOfficer Action = "ASSIGN_OFFICER"
	ActionRecordGrant   Action = "RECORD_GRANT"
	ActionComplete      Action = "COMPLETE"

	// Booking-only verbs.
	ActionReview Action = "REVIEW"
	ActionIssue  Action = "ISSUE"
	ActionReturn Action = "RETURN"
)

// Payload carries the optional inputs of an action. ExpectedVersion, when
// non-zero, is the optimistic token the caller read; a mismatch fails with
// StaleStateError before any state is touched.
type Payload struct {
	ExpectedVersion int32
	Comment         string
	SignatureKey    string
	Reason          string

	// Implementation stage inputs.
	AssigneeID     *int32
	GrantedModules []string
	Notes          string

	// Booking handover inputs.
	Assessment *domain.ConditionAssessment
}
