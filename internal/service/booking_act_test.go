package service

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/repository/postgres"
	"ict-access-backend/internal/workflow"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingTxCols = []string{
	"id", "version", "requester_id", "staff_name", "phone_number", "department_id",
	"device_id", "start_date", "end_date", "purpose", "status", "ict_approval_status", "approver_id", "approved_at", "rejection_reason",
	"issuing_notes", "issuing_functional", "issuing_accessories", "issuing_signature_key", "issuing_recorded_by", "issuing_recorded_at",
	"receiving_notes", "receiving_functional", "receiving_accessories", "receiving_signature_key", "receiving_recorded_by", "receiving_recorded_at",
	"created_on", "updated_on",
}

func bookingTxRow(id int64, status domain.BookingStatus, start, end time.Time) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id, int32(2), int32(7), "Asha Mrema", "", int32(3),
		int32(5), start, end, "Outreach clinic", string(status), "PENDING", nil, nil, "",
		"", false, "", "", nil, nil,
		"", false, "", "", nil, nil,
		now, now,
	}
}

func officerRow() []driver.Value {
	return []driver.Value{
		int32(30), "Neema Kweka", "neema@hospital.go.tz", "+255700000030", "PF-2002", "x",
		int32(4), "{ICT_OFFICER}", "ACTIVE", "2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z",
	}
}

var userTxCols = []string{
	"id", "name", "email", "phone_number", "pf_number", "password_hash",
	"department_id", "roles", "status", "created_on", "updated_on",
}

// Two officers approving two different pending bookings for one device lock
// disjoint booking rows, so the approval transaction must also lock the
// device row before querying for conflicts.
func TestBookingService_ApprovalTransaction(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)

	newService := func(t *testing.T) (BookingService, sqlmock.Sqlmock) {
		t.Helper()
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })

		userRepo := postgres.NewUserRepository(db)
		deviceRepo := postgres.NewDeviceRepository(db)
		bookingRepo := postgres.NewBookingRepository(db)
		dispatcher := NewDispatcher(postgres.NewNotificationRepository(db), userRepo, postgres.NewDepartmentRepository(db), nil, nil)
		svc := NewBookingService(db, bookingRepo, deviceRepo, userRepo, workflow.NewEngine(), dispatcher)
		return svc, mock
	}

	t.Run("ApproveLocksDeviceBeforeConflictCheck", func(t *testing.T) {
		svc, mock := newService(t)

		mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
			WithArgs(int32(30)).
			WillReturnRows(sqlmock.NewRows(userTxCols).AddRow(officerRow()...))
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM device_bookings WHERE id = \\$1 FOR UPDATE").
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows(bookingTxCols).AddRow(bookingTxRow(9, domain.BookingStatusICTReview, start, end)...))
		mock.ExpectQuery("SELECT id FROM devices WHERE id = \\$1 FOR UPDATE").
			WithArgs(int32(5)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int32(5)))
		mock.ExpectQuery("SELECT (.+) FROM device_bookings WHERE device_id = \\$1").
			WithArgs(int32(5), string(domain.BookingStatusApproved), string(domain.BookingStatusIssued), start, end).
			WillReturnRows(sqlmock.NewRows(bookingTxCols))
		mock.ExpectExec("UPDATE device_bookings SET").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectQuery("INSERT INTO notifications").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

		b, err := svc.Act(context.Background(), 30, 9, workflow.ActionApprove, workflow.Payload{})
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusApproved, b.Status)
		require.NotNil(t, b.ApproverID)
		assert.Equal(t, int32(30), *b.ApproverID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ConflictAbortsWithoutWriting", func(t *testing.T) {
		svc, mock := newService(t)

		mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
			WithArgs(int32(30)).
			WillReturnRows(sqlmock.NewRows(userTxCols).AddRow(officerRow()...))
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM device_bookings WHERE id = \\$1 FOR UPDATE").
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows(bookingTxCols).AddRow(bookingTxRow(9, domain.BookingStatusICTReview, start, end)...))
		mock.ExpectQuery("SELECT id FROM devices WHERE id = \\$1 FOR UPDATE").
			WithArgs(int32(5)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int32(5)))
		mock.ExpectQuery("SELECT (.+) FROM device_bookings WHERE device_id = \\$1").
			WithArgs(int32(5), string(domain.BookingStatusApproved), string(domain.BookingStatusIssued), start, end).
			WillReturnRows(sqlmock.NewRows(bookingTxCols).AddRow(bookingTxRow(11, domain.BookingStatusApproved, start, end)...))
		mock.ExpectRollback()

		_, err := svc.Act(context.Background(), 30, 9, workflow.ActionApprove, workflow.Payload{})
		var cerr *workflow.ConflictError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, int32(5), cerr.DeviceID)
		assert.Equal(t, []int64{11}, cerr.ConflictIDs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	// Non-approval actions never touch the device row.
	t.Run("ReviewSkipsDeviceLock", func(t *testing.T) {
		svc, mock := newService(t)

		mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
			WithArgs(int32(30)).
			WillReturnRows(sqlmock.NewRows(userTxCols).AddRow(officerRow()...))
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM device_bookings WHERE id = \\$1 FOR UPDATE").
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows(bookingTxCols).AddRow(bookingTxRow(9, domain.BookingStatusPending, start, end)...))
		mock.ExpectExec("UPDATE device_bookings SET").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectQuery("INSERT INTO notifications").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
		mock.ExpectQuery("SELECT (.+) FROM users WHERE \\$1 = ANY\\(roles\\)").
			WillReturnRows(sqlmock.NewRows(userTxCols))

		b, err := svc.Act(context.Background(), 30, 9, workflow.ActionReview, workflow.Payload{})
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusICTReview, b.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
