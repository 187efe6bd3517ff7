package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/repository"
)

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `id, version, requester_id, staff_name, phone_number, department_id,
	device_id, start_date, end_date, purpose, status, ict_approval_status, approver_id, approved_at, rejection_reason,
	issuing_notes, issuing_functional, issuing_accessories, issuing_signature_key, issuing_recorded_by, issuing_recorded_at,
	receiving_notes, receiving_functional, receiving_accessories, receiving_signature_key, receiving_recorded_by, receiving_recorded_at,
	created_on, updated_on`

func scanBooking(row interface{ Scan(...interface{}) error }) (*domain.DeviceBooking, error) {
	b := &domain.DeviceBooking{}
	err := row.Scan(
		&b.ID, &b.Version, &b.RequesterID, &b.StaffName, &b.PhoneNumber, &b.DepartmentID,
		&b.DeviceID, &b.StartDate, &b.EndDate, &b.Purpose, &b.Status, &b.ICTApproval, &b.ApproverID, &b.ApprovedAt, &b.RejectionReason,
		&b.Issuing.Notes, &b.Issuing.Functional, &b.Issuing.Accessories, &b.Issuing.SignatureKey, &b.Issuing.RecordedBy, &b.Issuing.RecordedAt,
		&b.Receiving.Notes, &b.Receiving.Functional, &b.Receiving.Accessories, &b.Receiving.SignatureKey, &b.Receiving.RecordedBy, &b.Receiving.RecordedAt,
		&b.CreatedOn, &b.UpdatedOn,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.DeviceBooking) error {
	now := time.Now()
	b.CreatedOn = now
	b.UpdatedOn = now
	if b.Version == 0 {
		b.Version = 1
	}
	query := `INSERT INTO device_bookings (version, requester_id, staff_name, phone_number, department_id,
		device_id, start_date, end_date, purpose, status, ict_approval_status, created_on, updated_on)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		b.Version, b.RequesterID, b.StaffName, b.PhoneNumber, b.DepartmentID,
		b.DeviceID, b.StartDate, b.EndDate, b.Purpose, b.Status, b.ICTApproval, b.CreatedOn, b.UpdatedOn,
	).Scan(&b.ID)
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*domain.DeviceBooking, error) {
	query := `SELECT ` + bookingColumns + ` FROM device_bookings WHERE id = $1`
	return scanBooking(r.db.QueryRowContext(ctx, query, id))
}

func (r *bookingRepository) GetByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.DeviceBooking, error) {
	query := `SELECT ` + bookingColumns + ` FROM device_bookings WHERE id = $1 FOR UPDATE`
	return scanBooking(tx.QueryRowContext(ctx, query, id))
}

func (r *bookingRepository) UpdateTx(ctx context.Context, tx *sql.Tx, b *domain.DeviceBooking) error {
	query := `UPDATE device_bookings SET version=$1, status=$2, ict_approval_status=$3, approver_id=$4, approved_at=$5, rejection_reason=$6,
		issuing_notes=$7, issuing_functional=$8, issuing_accessories=$9, issuing_signature_key=$10, issuing_recorded_by=$11, issuing_recorded_at=$12,
		receiving_notes=$13, receiving_functional=$14, receiving_accessories=$15, receiving_signature_key=$16, receiving_recorded_by=$17, receiving_recorded_at=$18,
		updated_on=$19
	WHERE id=$20 AND version=$21`
	res, err := tx.ExecContext(ctx, query,
		b.Version, b.Status, b.ICTApproval, b.ApproverID, b.ApprovedAt, b.RejectionReason,
		b.Issuing.Notes, b.Issuing.Functional, b.Issuing.Accessories, b.Issuing.SignatureKey, b.Issuing.RecordedBy, b.Issuing.RecordedAt,
		b.Receiving.Notes, b.Receiving.Functional, b.Receiving.Accessories, b.Receiving.SignatureKey, b.Receiving.RecordedBy, b.Receiving.RecordedAt,
		b.UpdatedOn,
		b.ID, b.Version-1,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindConflictingApprovedTx loads the device's APPROVED and ISSUED bookings
// overlapping [start, end] under the caller's transaction. The caller must
// already hold the device row lock; a plain SELECT does not block on another
// transaction's uncommitted flip, so without the lock two overlapping
// approvals in separate transactions would each see an empty result.
func (r *bookingRepository) FindConflictingApprovedTx(ctx context.Context, tx *sql.Tx, deviceID int32, start, end time.Time) ([]domain.DeviceBooking, error) {
	query := `SELECT ` + bookingColumns + ` FROM device_bookings
		WHERE device_id = $1 AND status IN ($2, $3) AND end_date >= $4 AND start_date <= $5`
	rows, err := tx.QueryContext(ctx, query, deviceID, domain.BookingStatusApproved, domain.BookingStatusIssued, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.DeviceBooking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) ListByRequester(ctx context.Context, requesterID int32, status string, page, pageSize int32) ([]domain.DeviceBooking, int32, error) {
	return r.list(ctx, "requester_id = $1", requesterID, status, page, pageSize)
}

func (r *bookingRepository) ListByStatus(ctx context.Context, status string, page, pageSize int32) ([]domain.DeviceBooking, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + bookingColumns + ` FROM device_bookings`
	args := []interface{}{}
	argIdx := 1
	if status != "" {
		query += fmt.Sprintf(" WHERE status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	var count int32
	countQuery := "SELECT count(*) FROM (" + query + ") as sub"
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)
	return r.queryList(ctx, query, args, count)
}

func (r *bookingRepository) ListOverdueIssued(ctx context.Context, asOf time.Time) ([]domain.DeviceBooking, error) {
	query := `SELECT ` + bookingColumns + ` FROM device_bookings WHERE status = $1 AND end_date < $2`
	rows, err := r.db.QueryContext(ctx, query, domain.BookingStatusIssued, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.DeviceBooking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) list(ctx context.Context, where string, arg interface{}, status string, page, pageSize int32) ([]domain.DeviceBooking, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + bookingColumns + ` FROM device_bookings WHERE ` + where
	args := []interface{}{arg}
	argIdx := 2
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	var count int32
	countQuery := "SELECT count(*) FROM (" + query + ") as sub"
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)
	return r.queryList(ctx, query, args, count)
}

func (r *bookingRepository) queryList(ctx context.Context, query string, args []interface{}, count int32) ([]domain.DeviceBooking, int32, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bookings []domain.DeviceBooking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, count, rows.Err()
}
