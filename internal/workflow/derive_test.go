package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ict-access-backend/internal/domain"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("Draft", func(t *testing.T) {
		req := draftRequest()
		assert.Equal(t, domain.RequestStatusDraft, DeriveStatus(req))
	})

	t.Run("PendingAtEachStage", func(t *testing.T) {
		cases := []struct {
			pending domain.Stage
			want    domain.RequestStatus
		}{
			{domain.StageHOD, domain.RequestStatusPending},
			{domain.StageDivisional, domain.RequestStatusHODApproved},
			{domain.StageICTDir, domain.RequestStatusDivisionalApproved},
			{domain.StageHeadIT, domain.RequestStatusICTDirectorApproved},
			{domain.StageICTOfficer, domain.RequestStatusHeadITApproved},
		}
		for _, tc := range cases {
			req := draftRequest()
			req.SubmittedAt = &now
			for _, s := range domain.StageOrder {
				if s == tc.pending {
					req.StageApproval(s).Status = domain.StageStatusPending
					break
				}
				req.StageApproval(s).Status = domain.StageStatusApproved
			}
			assert.Equal(t, tc.want, DeriveStatus(req), "pending stage %s", tc.pending)
		}
	})

	t.Run("ImplementationInProgress", func(t *testing.T) {
		req := draftRequest()
		req.SubmittedAt = &now
		for _, s := range domain.StageOrder[:4] {
			req.StageApproval(s).Status = domain.StageStatusApproved
		}
		req.ICTOfficer.Status = domain.StageStatusPending
		req.Implementation = domain.ImplementationAssigned
		assert.Equal(t, domain.RequestStatusImplementationActive, DeriveStatus(req))

		req.Implementation = domain.ImplementationInProgress
		assert.Equal(t, domain.RequestStatusImplementationActive, DeriveStatus(req))
	})

	t.Run("RejectionDominates", func(t *testing.T) {
		req := draftRequest()
		req.SubmittedAt = &now
		req.HOD.Status = domain.StageStatusApproved
		req.Divisional.Status = domain.StageStatusRejected
		assert.Equal(t, domain.RequestStatusRejected, DeriveStatus(req))
	})

	t.Run("CancellationDominatesEverything", func(t *testing.T) {
		req := draftRequest()
		req.SubmittedAt = &now
		req.HOD.Status = domain.StageStatusRejected
		req.CancelledAt = &now
		assert.Equal(t, domain.RequestStatusCancelled, DeriveStatus(req))
	})

	t.Run("Completed", func(t *testing.T) {
		req := draftRequest()
		req.SubmittedAt = &now
		for _, s := range domain.StageOrder {
			req.StageApproval(s).Status = domain.StageStatusApproved
		}
		req.Implementation = domain.ImplementationCompleted
		assert.Equal(t, domain.RequestStatusCompleted, DeriveStatus(req))
	})
}

func TestCheckStageOrdering(t *testing.T) {
	t.Run("ValidChains", func(t *testing.T) {
		req := draftRequest()
		assert.True(t, CheckStageOrdering(req))

		req.HOD.Status = domain.StageStatusPending
		assert.True(t, CheckStageOrdering(req))

		req.HOD.Status = domain.StageStatusApproved
		req.Divisional.Status = domain.StageStatusRejected
		assert.True(t, CheckStageOrdering(req))
	})

	t.Run("LaterStageReachedTooEarly", func(t *testing.T) {
		req := draftRequest()
		req.HOD.Status = domain.StageStatusPending
		req.ICTDir.Status = domain.StageStatusPending
		assert.False(t, CheckStageOrdering(req))
	})

	t.Run("DecisionAfterRejection", func(t *testing.T) {
		req := draftRequest()
		req.HOD.Status = domain.StageStatusRejected
		req.Divisional.Status = domain.StageStatusApproved
		assert.False(t, CheckStageOrdering(req))
	})
}
