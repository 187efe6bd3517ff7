package postgres_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingCols = []string{
	"id", "version", "requester_id", "staff_name", "phone_number", "department_id",
	"device_id", "start_date", "end_date", "purpose", "status", "ict_approval_status", "approver_id", "approved_at", "rejection_reason",
	"issuing_notes", "issuing_functional", "issuing_accessories", "issuing_signature_key", "issuing_recorded_by", "issuing_recorded_at",
	"receiving_notes", "receiving_functional", "receiving_accessories", "receiving_signature_key", "receiving_recorded_by", "receiving_recorded_at",
	"created_on", "updated_on",
}

func bookingRow(id int64, status domain.BookingStatus, start, end time.Time) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id, int32(1), int32(7), "Asha Mrema", "+255700000001", int32(3),
		int32(5), start, end, "Outreach clinic", string(status), "PENDING", nil, nil, "",
		"", false, "", "", nil, nil,
		"", false, "", "", nil, nil,
		now, now,
	}
}

func TestBookingRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewBookingRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		b := &domain.DeviceBooking{
			RequesterID: 7,
			StaffName:   "Asha Mrema",
			DeviceID:    5,
			StartDate:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC),
			Purpose:     "Outreach clinic",
			Status:      domain.BookingStatusPending,
			ICTApproval: domain.ICTApprovalPending,
		}

		mock.ExpectQuery("INSERT INTO device_bookings").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

		err := repo.Create(ctx, b)
		assert.NoError(t, err)
		assert.Equal(t, int64(9), b.ID)
		assert.Equal(t, int32(1), b.Version)
	})
}

func TestBookingRepository_UpdateTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewBookingRepository(db)
	ctx := context.Background()

	t.Run("VersionMismatchReturnsNoRows", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE device_bookings SET").
			WillReturnResult(sqlmock.NewResult(0, 0))

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		defer tx.Rollback()

		b := &domain.DeviceBooking{ID: 9, Version: 2, Status: domain.BookingStatusApproved}
		assert.ErrorIs(t, repo.UpdateTx(ctx, tx, b), sql.ErrNoRows)
	})
}

func TestBookingRepository_FindConflictingApprovedTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewBookingRepository(db)
	ctx := context.Background()

	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)

	t.Run("ReturnsOverlappingRows", func(t *testing.T) {
		mock.ExpectBegin()
		rows := sqlmock.NewRows(bookingCols).
			AddRow(bookingRow(11, domain.BookingStatusApproved, start, end)...).
			AddRow(bookingRow(12, domain.BookingStatusIssued, start.AddDate(0, 0, 3), end.AddDate(0, 0, 3))...)
		mock.ExpectQuery("SELECT (.+) FROM device_bookings").
			WithArgs(int32(5), string(domain.BookingStatusApproved), string(domain.BookingStatusIssued), start, end).
			WillReturnRows(rows)

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		defer tx.Rollback()

		conflicts, err := repo.FindConflictingApprovedTx(ctx, tx, 5, start, end)
		assert.NoError(t, err)
		require.Len(t, conflicts, 2)
		assert.Equal(t, int64(11), conflicts[0].ID)
		assert.Equal(t, domain.BookingStatusIssued, conflicts[1].Status)
	})

	t.Run("NoConflicts", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM device_bookings").
			WillReturnRows(sqlmock.NewRows(bookingCols))

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		defer tx.Rollback()

		conflicts, err := repo.FindConflictingApprovedTx(ctx, tx, 5, start, end)
		assert.NoError(t, err)
		assert.Empty(t, conflicts)
	})
}
