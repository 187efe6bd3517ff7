package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/repository"
	"ict-access-backend/internal/workflow"
)

type adminService struct {
	userRepo repository.UserRepository
	deptRepo repository.DepartmentRepository
}

func NewAdminService(userRepo repository.UserRepository, deptRepo repository.DepartmentRepository) AdminService {
	return &adminService{userRepo: userRepo, deptRepo: deptRepo}
}

func (s *adminService) CreateUser(ctx context.Context, user *domain.User, password string) error {
	if user.Email == "" {
		return &workflow.ValidationError{Field: "email", Reason: "required"}
	}
	if len(password) < 8 {
		return &workflow.ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	if user.Status == "" {
		user.Status = domain.UserStatusActive
	}
	if len(user.Roles) == 0 {
		user.Roles = []domain.RoleName{domain.RoleStaff}
	}
	return s.userRepo.Create(ctx, user)
}

func (s *adminService) UpdateUser(ctx context.Context, user *domain.User) error {
	// Password changes go through AuthService; keep the stored hash.
	existing, err := s.userRepo.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}
	user.PasswordHash = existing.PasswordHash
	return s.userRepo.Update(ctx, user)
}

func (s *adminService) GetUser(ctx context.Context, id int32) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *adminService) ListDepartmentMembers(ctx context.Context, departmentID int32) ([]domain.User, error) {
	return s.userRepo.ListByDepartment(ctx, departmentID)
}

func (s *adminService) CreateDepartment(ctx context.Context, dept *domain.Department) error {
	if dept.Name == "" {
		return &workflow.ValidationError{Field: "name", Reason: "required"}
	}
	return s.deptRepo.Create(ctx, dept)
}

func (s *adminService) UpdateDepartment(ctx context.Context, dept *domain.Department) error {
	return s.deptRepo.Update(ctx, dept)
}

func (s *adminService) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	return s.deptRepo.List(ctx)
}
