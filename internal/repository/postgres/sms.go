package postgres

import (
	"context"
	"database/sql"
	"time"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/repository"
)

type smsRepository struct {
	db *sql.DB
}

func NewSmsRepository(db *sql.DB) repository.SmsRepository {
	return &smsRepository{db: db}
}

const smsColumns = `id, recipient_phone, body, provider_ref, ref_type, ref_id, status, fail_reason, sent_at, delivered_at, created_on`

func scanSms(row interface{ Scan(...interface{}) error }) (*domain.SmsMessage, error) {
	m := &domain.SmsMessage{}
	err := row.Scan(&m.ID, &m.RecipientPhone, &m.Body, &m.ProviderRef, &m.RefType, &m.RefID, &m.Status, &m.FailReason, &m.SentAt, &m.DeliveredAt, &m.CreatedOn)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *smsRepository) Create(ctx context.Context, msg *domain.SmsMessage) error {
	msg.CreatedOn = time.Now()
	query := `INSERT INTO sms_messages (recipient_phone, body, provider_ref, ref_type, ref_id, status, fail_reason, sent_at, delivered_at, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	return r.db.QueryRowContext(ctx, query, msg.RecipientPhone, msg.Body, msg.ProviderRef, msg.RefType, msg.RefID, msg.Status, msg.FailReason, msg.SentAt, msg.DeliveredAt, msg.CreatedOn).Scan(&msg.ID)
}

func (r *smsRepository) Update(ctx context.Context, msg *domain.SmsMessage) error {
	query := `UPDATE sms_messages SET provider_ref=$1, status=$2, fail_reason=$3, sent_at=$4, delivered_at=$5 WHERE id=$6`
	_, err := r.db.ExecContext(ctx, query, msg.ProviderRef, msg.Status, msg.FailReason, msg.SentAt, msg.DeliveredAt, msg.ID)
	return err
}

func (r *smsRepository) GetByProviderRef(ctx context.Context, ref string) (*domain.SmsMessage, error) {
	query := `SELECT ` + smsColumns + ` FROM sms_messages WHERE provider_ref = $1 ORDER BY created_on DESC LIMIT 1`
	return scanSms(r.db.QueryRowContext(ctx, query, ref))
}

func (r *smsRepository) GetLatestUndeliveredByPhone(ctx context.Context, phone string) (*domain.SmsMessage, error) {
	query := `SELECT ` + smsColumns + ` FROM sms_messages
	          WHERE recipient_phone = $1 AND status IN ($2, $3)
	          ORDER BY created_on DESC LIMIT 1`
	return scanSms(r.db.QueryRowContext(ctx, query, phone, domain.SmsStatusQueued, domain.SmsStatusSent))
}

func (r *smsRepository) ListQueuedBefore(ctx context.Context, cutoff time.Time) ([]domain.SmsMessage, error) {
	query := `SELECT ` + smsColumns + ` FROM sms_messages WHERE status = $1 AND created_on < $2`
	rows, err := r.db.QueryContext(ctx, query, domain.SmsStatusQueued, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.SmsMessage
	for rows.Next() {
		m, err := scanSms(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}
