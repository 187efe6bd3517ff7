package service

import (
	"context"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/repository"
)

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, userID, limit, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID int32, id int64) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}
