package jobs

import (
	"context"
	"fmt"
	"time"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/logger"
)

// MarkOverdueBookings finds issued devices whose booking period ended without
// a recorded return and chases both the borrower and the ICT desk.
func (jr *JobRunner) MarkOverdueBookings() {
	jr.runWithRecovery("MarkOverdueBookings", func() {
		ctx := context.Background()

		overdue, err := jr.store.BookingRepository.ListOverdueIssued(ctx, time.Now())
		if err != nil {
			logger.Error("Failed to list overdue bookings", "error", err)
			return
		}

		officers, err := jr.store.UserRepository.ListByRole(ctx, domain.RoleICTOfficer)
		if err != nil {
			logger.Error("Failed to list ICT officers", "error", err)
		}

		for i := range overdue {
			b := &overdue[i]

			note := &domain.Notification{
				UserID:  b.RequesterID,
				Title:   "Device return overdue",
				Message: fmt.Sprintf("The device for booking #%d was due back on %s. Please return it to the ICT office.", b.ID, b.EndDate.Format("2006-01-02")),
				Attributes: map[string]string{
					"type":       "BOOKING_OVERDUE",
					"booking_id": fmt.Sprintf("%d", b.ID),
				},
			}
			if err := jr.store.NotificationRepository.Create(ctx, note); err != nil {
				logger.Error("Failed to create overdue notification", "booking_id", b.ID, "error", err)
			}

			if b.PhoneNumber != "" {
				sms := &domain.SmsMessage{
					RecipientPhone: b.PhoneNumber,
					Body:           fmt.Sprintf("Reminder: the device for booking #%d is overdue. Please return it to the ICT office.", b.ID),
					RefType:        domain.SmsRefBooking,
					RefID:          b.ID,
				}
				if err := jr.services.Sms.Queue(ctx, sms); err != nil {
					logger.Error("Failed to queue overdue SMS", "booking_id", b.ID, "error", err)
				}
			}

			for _, officer := range officers {
				officerNote := &domain.Notification{
					UserID:  officer.ID,
					Title:   "Overdue device",
					Message: fmt.Sprintf("Booking #%d (%s) is overdue since %s", b.ID, b.StaffName, b.EndDate.Format("2006-01-02")),
					Attributes: map[string]string{
						"type":       "BOOKING_OVERDUE",
						"booking_id": fmt.Sprintf("%d", b.ID),
					},
				}
				if err := jr.store.NotificationRepository.Create(ctx, officerNote); err != nil {
					logger.Error("Failed to create officer overdue notification", "booking_id", b.ID, "error", err)
				}
			}
		}

		logger.Info("Processed overdue bookings", "count", len(overdue))
	})
}
