package jobs

import (
	"context"
	"time"

	"ict-access-backend/internal/logger"
)

// SweepStaleSms retries messages that never made it past QUEUED. The ten
// minute cutoff keeps the sweeper from racing a send still in flight.
func (jr *JobRunner) SweepStaleSms() {
	jr.runWithRecovery("SweepStaleSms", func() {
		ctx := context.Background()

		stale, err := jr.store.SmsRepository.ListQueuedBefore(ctx, time.Now().Add(-10*time.Minute))
		if err != nil {
			logger.Error("Failed to list stale SMS", "error", err)
			return
		}

		resent := 0
		for i := range stale {
			msg := &stale[i]
			if err := jr.services.Sms.ResendQueued(ctx, msg); err != nil {
				logger.Warn("SMS retry failed", "sms_id", msg.ID, "error", err)
				continue
			}
			resent++
		}

		logger.Info("Swept stale SMS queue", "stale", len(stale), "resent", resent)
	})
}
