package postgres

import (
	"database/sql"

	"ict-access-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.DepartmentRepository
	repository.DeviceRepository
	repository.AccessRequestRepository
	repository.BookingRepository
	repository.NotificationRepository
	repository.SmsRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                      db,
		UserRepository:          NewUserRepository(db),
		DepartmentRepository:    NewDepartmentRepository(db),
		DeviceRepository:        NewDeviceRepository(db),
		AccessRequestRepository: NewAccessRequestRepository(db),
		BookingRepository:       NewBookingRepository(db),
		NotificationRepository:  NewNotificationRepository(db),
		SmsRepository:           NewSmsRepository(db),
	}
}

// DB exposes the underlying handle for services that open workflow
// transactions themselves.
func (s *Store) DB() *sql.DB {
	return s.db
}
