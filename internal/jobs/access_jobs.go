package jobs

import (
	"context"
	"fmt"
	"time"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/logger"
)

// ExpireTemporaryAccess finds completed temporary access grants whose expiry
// date has passed and notifies the implementing officer to revoke them.
// Reminders repeat nightly until the access is actually revoked in the
// target systems.
func (jr *JobRunner) ExpireTemporaryAccess() {
	jr.runWithRecovery("ExpireTemporaryAccess", func() {
		ctx := context.Background()

		expired, err := jr.store.AccessRequestRepository.ListExpiredTemporary(ctx, time.Now())
		if err != nil {
			logger.Error("Failed to list expired temporary access", "error", err)
			return
		}

		for i := range expired {
			req := &expired[i]
			targets := jr.revocationTargets(ctx, req)
			for _, uid := range targets {
				note := &domain.Notification{
					UserID:  uid,
					Title:   "Temporary access expired",
					Message: fmt.Sprintf("Temporary access for %s (request #%d) expired on %s and must be revoked", req.StaffName, req.ID, req.TemporaryUntil.Format("2006-01-02")),
					Attributes: map[string]string{
						"type":       "ACCESS_EXPIRED",
						"request_id": fmt.Sprintf("%d", req.ID),
					},
				}
				if err := jr.store.NotificationRepository.Create(ctx, note); err != nil {
					logger.Error("Failed to create expiry notification", "request_id", req.ID, "error", err)
				}
			}
		}

		logger.Info("Processed expired temporary access", "count", len(expired))
	})
}

// revocationTargets prefers the officer who implemented the grant and falls
// back to the heads of IT.
func (jr *JobRunner) revocationTargets(ctx context.Context, req *domain.AccessRequest) []int32 {
	if req.AssignedOfficerID != nil {
		return []int32{*req.AssignedOfficerID}
	}
	heads, err := jr.store.UserRepository.ListByRole(ctx, domain.RoleHeadOfIT)
	if err != nil {
		logger.Error("Failed to list heads of IT", "error", err)
		return nil
	}
	ids := make([]int32, 0, len(heads))
	for _, u := range heads {
		ids = append(ids, u.ID)
	}
	return ids
}
