package service

import (
	"context"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/repository"
	"ict-access-backend/internal/workflow"
)

type deviceService struct {
	repo repository.DeviceRepository
}

func NewDeviceService(repo repository.DeviceRepository) DeviceService {
	return &deviceService{repo: repo}
}

func (s *deviceService) Create(ctx context.Context, device *domain.Device) error {
	if device.AssetTag == "" {
		return &workflow.ValidationError{Field: "asset_tag", Reason: "required"}
	}
	if device.Name == "" {
		return &workflow.ValidationError{Field: "name", Reason: "required"}
	}
	if device.Status == "" {
		device.Status = domain.DeviceStatusAvailable
	}
	return s.repo.Create(ctx, device)
}

func (s *deviceService) Get(ctx context.Context, id int32) (*domain.Device, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *deviceService) Update(ctx context.Context, device *domain.Device) error {
	return s.repo.Update(ctx, device)
}

func (s *deviceService) List(ctx context.Context, status string, page, pageSize int32) ([]domain.Device, int32, error) {
	return s.repo.List(ctx, status, page, pageSize)
}
