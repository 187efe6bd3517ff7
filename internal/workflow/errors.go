package workflow

import (
	"fmt"

	"ict-access-backend/internal/domain"
)

// The engine reports every business-rule violation as one of the typed errors
// below and never panics for expected failures. Callers translate them to
// transport-level codes; none are retried automatically.

// UnauthorizedActorError: the acting user does not hold the role the current
// stage requires for this specific request.
type UnauthorizedActorError struct {
	UserID int32
	Reason string
}

func (e *UnauthorizedActorError) Error() string {
	return fmt.Sprintf("user %d is not the correct approver right now: %s", e.UserID, e.Reason)
}

// InvalidStageError: an action was attempted on a stage that is not currently
// pending (already decided, or not yet reached).
type InvalidStageError struct {
	Stage  domain.Stage
	Status domain.StageStatus
}

func (e *InvalidStageError) Error() string {
	return fmt.Sprintf("stage %s is not awaiting action (current status %s)", e.Stage, e.Status)
}

// StaleStateError: the aggregate changed between read and write. Someone
// already acted on this record; the caller should re-fetch before retrying.
type StaleStateError struct {
	ExpectedVersion int32
	ActualVersion   int32
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("stale state: expected version %d, found %d", e.ExpectedVersion, e.ActualVersion)
}

// ConflictError: the requested resource is unavailable, e.g. the device is
// already booked for an overlapping date range.
type ConflictError struct {
	DeviceID    int32
	ConflictIDs []int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("device %d has %d conflicting approved booking(s)", e.DeviceID, len(e.ConflictIDs))
}

// ValidationError: the action payload is malformed or incomplete.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
