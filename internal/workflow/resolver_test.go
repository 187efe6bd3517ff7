package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ict-access-backend/internal/domain"
)

func userWith(id int32, roles ...domain.RoleName) *domain.User {
	return &domain.User{ID: id, Roles: roles, Status: domain.UserStatusActive}
}

func TestResolve(t *testing.T) {
	hodID := int32(20)
	directorID := int32(21)
	dir := Directory{DepartmentHeadID: &hodID, DivisionDirectorID: &directorID}

	t.Run("RequesterPrecedence", func(t *testing.T) {
		req := submittedRequest()
		// The requester happens to also be an ICT officer; self-service
		// requests still resolve to requester.
		u := userWith(req.RequesterID, domain.RoleICTOfficer)
		actor := Resolve(u, req, dir)
		assert.Equal(t, ActorRequester, actor.Role)
	})

	t.Run("HODOnlyForOwnDepartment", func(t *testing.T) {
		req := submittedRequest()
		assert.Equal(t, ActorHOD, Resolve(userWith(hodID, domain.RoleHeadOfDepartment), req, dir).Role)

		otherDir := Directory{DepartmentHeadID: nil, DivisionDirectorID: &directorID}
		assert.Equal(t, ActorNone, Resolve(userWith(hodID, domain.RoleHeadOfDepartment), req, otherDir).Role)
	})

	t.Run("RoleWithoutPendingStageResolvesToNone", func(t *testing.T) {
		req := submittedRequest() // HOD pending, divisional NOT_REACHED
		actor := Resolve(userWith(directorID, domain.RoleDivisionalDirector), req, dir)
		assert.Equal(t, ActorNone, actor.Role)

		stage, ok := HeldStage(userWith(directorID, domain.RoleDivisionalDirector), req, dir)
		assert.True(t, ok)
		assert.Equal(t, domain.StageDivisional, stage)
	})

	t.Run("GlobalICTRolesNeedNoDirectoryLink", func(t *testing.T) {
		req := submittedRequest()
		approveThrough(t, req, domain.StageHOD, domain.StageDivisional)
		actor := Resolve(userWith(40, domain.RoleICTDirector), req, dir)
		assert.Equal(t, ActorICTDirector, actor.Role)
	})

	t.Run("AssignedOfficerExcludesOthers", func(t *testing.T) {
		req := submittedRequest()
		approveThrough(t, req, domain.StageHOD, domain.StageDivisional, domain.StageICTDir, domain.StageHeadIT)
		assigned := int32(30)
		req.AssignedOfficerID = &assigned

		assert.Equal(t, ActorICTOfficer, Resolve(userWith(assigned, domain.RoleICTOfficer), req, dir).Role)
		assert.Equal(t, ActorNone, Resolve(userWith(31, domain.RoleICTOfficer), req, dir).Role)
	})

	t.Run("AdminFallback", func(t *testing.T) {
		req := submittedRequest()
		actor := Resolve(userWith(99, domain.RoleAdmin), req, dir)
		assert.Equal(t, ActorAdmin, actor.Role)
	})

	t.Run("StaffResolvesToNone", func(t *testing.T) {
		req := submittedRequest()
		actor := Resolve(userWith(99, domain.RoleStaff), req, dir)
		assert.Equal(t, ActorNone, actor.Role)
	})
}

func TestResolveBooking(t *testing.T) {
	b := &domain.DeviceBooking{ID: 1, RequesterID: 7, Status: domain.BookingStatusPending}

	assert.Equal(t, ActorRequester, ResolveBooking(userWith(7, domain.RoleICTOfficer), b).Role)
	assert.Equal(t, ActorICTOfficer, ResolveBooking(userWith(30, domain.RoleICTOfficer), b).Role)
	assert.Equal(t, ActorICTOfficer, ResolveBooking(userWith(23, domain.RoleHeadOfIT), b).Role)
	assert.Equal(t, ActorAdmin, ResolveBooking(userWith(99, domain.RoleAdmin), b).Role)
	assert.Equal(t, ActorNone, ResolveBooking(userWith(50, domain.RoleStaff), b).Role)
}
