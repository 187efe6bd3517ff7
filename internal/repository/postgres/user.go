package postgres

import (
	"context"
	"database/sql"
	"time"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/repository"

	"github.com/lib/pq"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, phone_number, pf_number, password_hash, department_id, roles, status, created_on, updated_on`

func scanUser(row interface{ Scan(...interface{}) error }) (*domain.User, error) {
	u := &domain.User{}
	var roles pq.StringArray
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PhoneNumber, &u.PFNumber, &u.PasswordHash, &u.DepartmentID, &roles, &u.Status, &u.CreatedOn, &u.UpdatedOn)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		u.Roles = append(u.Roles, domain.RoleName(r))
	}
	return u, nil
}

func rolesArray(roles []domain.RoleName) pq.StringArray {
	out := make(pq.StringArray, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (name, email, phone_number, pf_number, password_hash, department_id, roles, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	return r.db.QueryRowContext(ctx, query, user.Name, user.Email, user.PhoneNumber, user.PFNumber, user.PasswordHash, user.DepartmentID, rolesArray(user.Roles), user.Status, time.Now(), time.Now()).Scan(&user.ID)
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `UPDATE users SET name=$1, email=$2, phone_number=$3, pf_number=$4, password_hash=$5, department_id=$6, roles=$7, status=$8, updated_on=$9 WHERE id=$10`
	_, err := r.db.ExecContext(ctx, query, user.Name, user.Email, user.PhoneNumber, user.PFNumber, user.PasswordHash, user.DepartmentID, rolesArray(user.Roles), user.Status, time.Now(), user.ID)
	return err
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.RoleName) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE $1 = ANY(roles) AND status = $2 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, string(role), domain.UserStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepository) ListByDepartment(ctx context.Context, departmentID int32) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE department_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
