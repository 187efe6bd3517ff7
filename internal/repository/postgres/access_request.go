package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/repository"

	"github.com/lib/pq"
)

type accessRequestRepository struct {
	db *sql.DB
}

func NewAccessRequestRepository(db *sql.DB) repository.AccessRequestRepository {
	return &accessRequestRepository{db: db}
}

// The per-stage columns are flattened: five NOT_REACHED/PENDING/APPROVED/
// REJECTED status columns plus approver metadata per stage. The aggregate
// status column is a stored projection of those fields, recomputed before
// every write.
const accessRequestColumns = `id, version, requester_id, staff_name, pf_number, phone_number, department_id,
	request_types, wellsoft_modules, jeeva_modules, access_duration, temporary_until, justification, signature_key, submitted_at,
	hod_status, hod_approver_id, hod_acted_at, hod_comment, hod_signature_key,
	divisional_status, divisional_approver_id, divisional_acted_at, divisional_comment, divisional_signature_key,
	ict_director_status, ict_director_approver_id, ict_director_acted_at, ict_director_comment, ict_director_signature_key,
	head_it_status, head_it_approver_id, head_it_acted_at, head_it_comment, head_it_signature_key,
	ict_officer_status, ict_officer_approver_id, ict_officer_acted_at, ict_officer_comment, ict_officer_signature_key,
	assigned_officer_id, assigned_at, implementation_notes, granted_modules, implementation_status,
	cancelled_at, cancelled_by, resubmission_of, resubmitted_as, status, created_on, updated_on`

func scanAccessRequest(row interface{ Scan(...interface{}) error }) (*domain.AccessRequest, error) {
	req := &domain.AccessRequest{}
	var types, wellsoft, jeeva, granted pq.StringArray
	err := row.Scan(
		&req.ID, &req.Version, &req.RequesterID, &req.StaffName, &req.PFNumber, &req.PhoneNumber, &req.DepartmentID,
		&types, &wellsoft, &jeeva, &req.AccessDuration, &req.TemporaryUntil, &req.Justification, &req.SignatureKey, &req.SubmittedAt,
		&req.HOD.Status, &req.HOD.ApproverID, &req.HOD.ActedAt, &req.HOD.Comment, &req.HOD.SignatureKey,
		&req.Divisional.Status, &req.Divisional.ApproverID, &req.Divisional.ActedAt, &req.Divisional.Comment, &req.Divisional.SignatureKey,
		&req.ICTDir.Status, &req.ICTDir.ApproverID, &req.ICTDir.ActedAt, &req.ICTDir.Comment, &req.ICTDir.SignatureKey,
		&req.HeadIT.Status, &req.HeadIT.ApproverID, &req.HeadIT.ActedAt, &req.HeadIT.Comment, &req.HeadIT.SignatureKey,
		&req.ICTOfficer.Status, &req.ICTOfficer.ApproverID, &req.ICTOfficer.ActedAt, &req.ICTOfficer.Comment, &req.ICTOfficer.SignatureKey,
		&req.AssignedOfficerID, &req.AssignedAt, &req.ImplementationNotes, &granted, &req.Implementation,
		&req.CancelledAt, &req.CancelledBy, &req.ResubmissionOf, &req.ResubmittedAs, &req.Status, &req.CreatedOn, &req.UpdatedOn,
	)
	if err != nil {
		return nil, err
	}
	for _, t := range types {
		req.RequestTypes = append(req.RequestTypes, domain.RequestType(t))
	}
	req.WellsoftModules = []string(wellsoft)
	req.JeevaModules = []string(jeeva)
	req.GrantedModules = []string(granted)
	return req, nil
}

func requestTypesArray(types []domain.RequestType) pq.StringArray {
	out := make(pq.StringArray, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

func (r *accessRequestRepository) Create(ctx context.Context, req *domain.AccessRequest) error {
	return insertAccessRequest(ctx, r.db, req)
}

// CreateTx inserts under the caller's transaction; used by resubmission so the
// successor row and the old record's ResubmittedAs stamp commit atomically.
func (r *accessRequestRepository) CreateTx(ctx context.Context, tx *sql.Tx, req *domain.AccessRequest) error {
	return insertAccessRequest(ctx, tx, req)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func insertAccessRequest(ctx context.Context, q rowQuerier, req *domain.AccessRequest) error {
	now := time.Now()
	req.CreatedOn = now
	req.UpdatedOn = now
	if req.Version == 0 {
		req.Version = 1
	}
	query := `INSERT INTO access_requests (version, requester_id, staff_name, pf_number, phone_number, department_id,
		request_types, wellsoft_modules, jeeva_modules, access_duration, temporary_until, justification, signature_key, submitted_at,
		hod_status, divisional_status, ict_director_status, head_it_status, ict_officer_status,
		implementation_status, resubmission_of, status, created_on, updated_on)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	RETURNING id`
	return q.QueryRowContext(ctx, query,
		req.Version, req.RequesterID, req.StaffName, req.PFNumber, req.PhoneNumber, req.DepartmentID,
		requestTypesArray(req.RequestTypes), pq.StringArray(req.WellsoftModules), pq.StringArray(req.JeevaModules),
		req.AccessDuration, req.TemporaryUntil, req.Justification, req.SignatureKey, req.SubmittedAt,
		req.HOD.Status, req.Divisional.Status, req.ICTDir.Status, req.HeadIT.Status, req.ICTOfficer.Status,
		req.Implementation, req.ResubmissionOf, req.Status, req.CreatedOn, req.UpdatedOn,
	).Scan(&req.ID)
}

func (r *accessRequestRepository) GetByID(ctx context.Context, id int64) (*domain.AccessRequest, error) {
	query := `SELECT ` + accessRequestColumns + ` FROM access_requests WHERE id = $1`
	return scanAccessRequest(r.db.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate takes the row lock that serializes workflow transitions on
// one aggregate. Must run inside the transaction that will write the flip.
func (r *accessRequestRepository) GetByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.AccessRequest, error) {
	query := `SELECT ` + accessRequestColumns + ` FROM access_requests WHERE id = $1 FOR UPDATE`
	return scanAccessRequest(tx.QueryRowContext(ctx, query, id))
}

// UpdateTx writes the post-transition state. The engine has already bumped
// req.Version, so the guard matches the version the row was loaded at; zero
// affected rows means another transition won the race.
func (r *accessRequestRepository) UpdateTx(ctx context.Context, tx *sql.Tx, req *domain.AccessRequest) error {
	query := `UPDATE access_requests SET version=$1,
		hod_status=$2, hod_approver_id=$3, hod_acted_at=$4, hod_comment=$5, hod_signature_key=$6,
		divisional_status=$7, divisional_approver_id=$8, divisional_acted_at=$9, divisional_comment=$10, divisional_signature_key=$11,
		ict_director_status=$12, ict_director_approver_id=$13, ict_director_acted_at=$14, ict_director_comment=$15, ict_director_signature_key=$16,
		head_it_status=$17, head_it_approver_id=$18, head_it_acted_at=$19, head_it_comment=$20, head_it_signature_key=$21,
		ict_officer_status=$22, ict_officer_approver_id=$23, ict_officer_acted_at=$24, ict_officer_comment=$25, ict_officer_signature_key=$26,
		assigned_officer_id=$27, assigned_at=$28, implementation_notes=$29, granted_modules=$30, implementation_status=$31,
		cancelled_at=$32, cancelled_by=$33, resubmitted_as=$34, submitted_at=$35, status=$36, updated_on=$37
	WHERE id=$38 AND version=$39`
	res, err := tx.ExecContext(ctx, query,
		req.Version,
		req.HOD.Status, req.HOD.ApproverID, req.HOD.ActedAt, req.HOD.Comment, req.HOD.SignatureKey,
		req.Divisional.Status, req.Divisional.ApproverID, req.Divisional.ActedAt, req.Divisional.Comment, req.Divisional.SignatureKey,
		req.ICTDir.Status, req.ICTDir.ApproverID, req.ICTDir.ActedAt, req.ICTDir.Comment, req.ICTDir.SignatureKey,
		req.HeadIT.Status, req.HeadIT.ApproverID, req.HeadIT.ActedAt, req.HeadIT.Comment, req.HeadIT.SignatureKey,
		req.ICTOfficer.Status, req.ICTOfficer.ApproverID, req.ICTOfficer.ActedAt, req.ICTOfficer.Comment, req.ICTOfficer.SignatureKey,
		req.AssignedOfficerID, req.AssignedAt, req.ImplementationNotes, pq.StringArray(req.GrantedModules), req.Implementation,
		req.CancelledAt, req.CancelledBy, req.ResubmittedAs, req.SubmittedAt, req.Status, req.UpdatedOn,
		req.ID, req.Version-1,
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

func (r *accessRequestRepository) ListByRequester(ctx context.Context, requesterID int32, status string, page, pageSize int32) ([]domain.AccessRequest, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + accessRequestColumns + ` FROM access_requests WHERE requester_id = $1`
	args := []interface{}{requesterID}
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

func (r *accessRequestRepository) ListPendingForStage(ctx context.Context, stage domain.Stage, departmentID int32, page, pageSize int32) ([]domain.AccessRequest, int32, error) {
	col, ok := stageStatusColumn(stage)
	if !ok {
		return nil, 0, fmt.Errorf("unknown stage %q", stage)
	}
	offset := (page - 1) * pageSize
	// Cancellation freezes stage statuses as-is, so a request cancelled while
	// awaiting this stage would otherwise sit in the queue forever.
	query := `SELECT ` + accessRequestColumns + ` FROM access_requests WHERE ` + col + ` = $1 AND status <> $2`
	args := []interface{}{domain.StageStatusPending, domain.RequestStatusCancelled}
	argIdx := 3
	if departmentID != 0 {
		query += fmt.Sprintf(" AND department_id = $%d", argIdx)
		args = append(args, departmentID)
		argIdx++
	}

	var count int32
	countQuery := "SELECT count(*) FROM (" + query + ") as sub"
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY submitted_at ASC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	return r.queryList(ctx, query, args, count)
}

func (r *accessRequestRepository) ListExpiredTemporary(ctx context.Context, asOf time.Time) ([]domain.AccessRequest, error) {
	query := `SELECT ` + accessRequestColumns + ` FROM access_requests
		WHERE access_duration = $1 AND temporary_until < $2 AND status = $3`
	rows, err := r.db.QueryContext(ctx, query, domain.AccessDurationTemporary, asOf, domain.RequestStatusCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.AccessRequest
	for rows.Next() {
		req, err := scanAccessRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, *req)
	}
	return reqs, rows.Err()
}

func (r *accessRequestRepository) queryList(ctx context.Context, query string, args []interface{}, count int32) ([]domain.AccessRequest, int32, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reqs []domain.AccessRequest
	for rows.Next() {
		req, err := scanAccessRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		reqs = append(reqs, *req)
	}
	return reqs, count, rows.Err()
}

func stageStatusColumn(stage domain.Stage) (string, bool) {
	switch stage {
	case domain.StageHOD:
		return "hod_status", true
	case domain.StageDivisional:
		return "divisional_status", true
	case domain.StageICTDir:
		return "ict_director_status", true
	case domain.StageHeadIT:
		return "head_it_status", true
	case domain.StageICTOfficer:
		return "ict_officer_status", true
	}
	return "", false
}
