package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/repository"
)

type deviceRepository struct {
	db *sql.DB
}

func NewDeviceRepository(db *sql.DB) repository.DeviceRepository {
	return &deviceRepository{db: db}
}

func (r *deviceRepository) Create(ctx context.Context, device *domain.Device) error {
	query := `INSERT INTO devices (asset_tag, name, category, description, status, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	return r.db.QueryRowContext(ctx, query, device.AssetTag, device.Name, device.Category, device.Description, device.Status, time.Now()).Scan(&device.ID)
}

func (r *deviceRepository) GetByID(ctx context.Context, id int32) (*domain.Device, error) {
	d := &domain.Device{}
	query := `SELECT id, asset_tag, name, category, description, status, created_on, retired_on FROM devices WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.AssetTag, &d.Name, &d.Category, &d.Description, &d.Status, &d.CreatedOn, &d.RetiredOn)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// LockTx serializes booking approvals per device. Concurrent approvals of two
// different pending bookings lock disjoint booking rows, so each one also takes
// the device row lock before querying for conflicts; the loser blocks here and
// then sees the winner's committed flip.
func (r *deviceRepository) LockTx(ctx context.Context, tx *sql.Tx, id int32) error {
	var locked int32
	err := tx.QueryRowContext(ctx, `SELECT id FROM devices WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	return err
}

func (r *deviceRepository) Update(ctx context.Context, device *domain.Device) error {
	query := `UPDATE devices SET asset_tag=$1, name=$2, category=$3, description=$4, status=$5, retired_on=$6 WHERE id=$7`
	_, err := r.db.ExecContext(ctx, query, device.AssetTag, device.Name, device.Category, device.Description, device.Status, device.RetiredOn, device.ID)
	return err
}

func (r *deviceRepository) List(ctx context.Context, status string, page, pageSize int32) ([]domain.Device, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT id, asset_tag, name, category, description, status, created_on, retired_on FROM devices`
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

	query += fmt.Sprintf(" ORDER BY name LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.ID, &d.AssetTag, &d.Name, &d.Category, &d.Description, &d.Status, &d.CreatedOn, &d.RetiredOn); err != nil {
			return nil, 0, err
		}
		devices = append(devices, d)
	}
	return devices, count, rows.Err()
}
