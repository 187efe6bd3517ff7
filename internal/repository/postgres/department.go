package postgres

import (
	"context"
	"database/sql"
	"time"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/repository"
)

type departmentRepository struct {
	db *sql.DB
}

func NewDepartmentRepository(db *sql.DB) repository.DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	query := `INSERT INTO departments (name, code, division_id, head_user_id, created_on)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	return r.db.QueryRowContext(ctx, query, dept.Name, dept.Code, dept.DivisionID, dept.HeadUserID, time.Now()).Scan(&dept.ID)
}

func (r *departmentRepository) GetByID(ctx context.Context, id int32) (*domain.Department, error) {
	d := &domain.Department{}
	query := `SELECT id, name, code, division_id, head_user_id, created_on FROM departments WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.Name, &d.Code, &d.DivisionID, &d.HeadUserID, &d.CreatedOn)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	query := `SELECT id, name, code, division_id, head_user_id, created_on FROM departments ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var depts []domain.Department
	for rows.Next() {
		var d domain.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Code, &d.DivisionID, &d.HeadUserID, &d.CreatedOn); err != nil {
			return nil, err
		}
		depts = append(depts, d)
	}
	return depts, rows.Err()
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	query := `UPDATE departments SET name=$1, code=$2, division_id=$3, head_user_id=$4 WHERE id=$5`
	_, err := r.db.ExecContext(ctx, query, dept.Name, dept.Code, dept.DivisionID, dept.HeadUserID, dept.ID)
	return err
}

func (r *departmentRepository) GetDivision(ctx context.Context, id int32) (*domain.Division, error) {
	d := &domain.Division{}
	query := `SELECT id, name, director_user_id FROM divisions WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.Name, &d.DirectorUserID)
	if err != nil {
		return nil, err
	}
	return d, nil
}
