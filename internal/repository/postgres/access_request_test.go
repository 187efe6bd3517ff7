package postgres_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accessRequestCols = []string{
	"id", "version", "requester_id", "staff_name", "pf_number", "phone_number", "department_id",
	"request_types", "wellsoft_modules", "jeeva_modules", "access_duration", "temporary_until", "justification", "signature_key", "submitted_at",
	"hod_status", "hod_approver_id", "hod_acted_at", "hod_comment", "hod_signature_key",
	"divisional_status", "divisional_approver_id", "divisional_acted_at", "divisional_comment", "divisional_signature_key",
	"ict_director_status", "ict_director_approver_id", "ict_director_acted_at", "ict_director_comment", "ict_director_signature_key",
	"head_it_status", "head_it_approver_id", "head_it_acted_at", "head_it_comment", "head_it_signature_key",
	"ict_officer_status", "ict_officer_approver_id", "ict_officer_acted_at", "ict_officer_comment", "ict_officer_signature_key",
	"assigned_officer_id", "assigned_at", "implementation_notes", "granted_modules", "implementation_status",
	"cancelled_at", "cancelled_by", "resubmission_of", "resubmitted_as", "status", "created_on", "updated_on",
}

func accessRequestRow(id int64, status domain.RequestStatus) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id, int32(1), int32(7), "Asha Mrema", "PF-1001", "+255700000001", int32(3),
		"{WELLSOFT_ACCESS,INTERNET_ACCESS}", "{OPD,IPD}", "{}", "PERMANENT", nil, "New clinician workstation", "sig-key", now,
		"PENDING", nil, nil, "", "",
		"NOT_REACHED", nil, nil, "", "",
		"NOT_REACHED", nil, nil, "", "",
		"NOT_REACHED", nil, nil, "", "",
		"NOT_REACHED", nil, nil, "", "",
		nil, nil, "", "{}", "UNASSIGNED",
		nil, nil, nil, nil, string(status), now, now,
	}
}

func TestAccessRequestRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewAccessRequestRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		req := &domain.AccessRequest{
			RequesterID:     7,
			StaffName:       "Asha Mrema",
			PFNumber:        "PF-1001",
			PhoneNumber:     "+255700000001",
			DepartmentID:    3,
			RequestTypes:    []domain.RequestType{domain.RequestTypeWellsoft},
			WellsoftModules: []string{"OPD"},
			AccessDuration:  domain.AccessDurationPermanent,
			Justification:   "New clinician workstation",
			Status:          domain.RequestStatusDraft,
		}
		req.HOD.Status = domain.StageStatusNotReached
		req.Divisional.Status = domain.StageStatusNotReached
		req.ICTDir.Status = domain.StageStatusNotReached
		req.HeadIT.Status = domain.StageStatusNotReached
		req.ICTOfficer.Status = domain.StageStatusNotReached
		req.Implementation = domain.ImplementationUnassigned

		mock.ExpectQuery("INSERT INTO access_requests").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

		err := repo.Create(ctx, req)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), req.ID)
		assert.Equal(t, int32(1), req.Version)
		assert.False(t, req.CreatedOn.IsZero())
	})
}

func TestAccessRequestRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewAccessRequestRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(accessRequestCols).AddRow(accessRequestRow(42, domain.RequestStatusPending)...)
		mock.ExpectQuery("SELECT (.+) FROM access_requests WHERE id = \\$1").
			WithArgs(int64(42)).
			WillReturnRows(rows)

		req, err := repo.GetByID(ctx, 42)
		assert.NoError(t, err)
		require.NotNil(t, req)
		assert.Equal(t, int64(42), req.ID)
		assert.Equal(t, domain.RequestStatusPending, req.Status)
		assert.Equal(t, []domain.RequestType{domain.RequestTypeWellsoft, domain.RequestTypeInternet}, req.RequestTypes)
		assert.Equal(t, []string{"OPD", "IPD"}, req.WellsoftModules)
		assert.Equal(t, domain.StageStatusPending, req.HOD.Status)
		assert.Equal(t, domain.StageStatusNotReached, req.Divisional.Status)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM access_requests WHERE id = \\$1").
			WithArgs(int64(999)).
			WillReturnError(sql.ErrNoRows)

		req, err := repo.GetByID(ctx, 999)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, req)
	})
}

func TestAccessRequestRepository_GetByIDForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewAccessRequestRepository(db)
	ctx := context.Background()

	t.Run("LocksRowInsideTransaction", func(t *testing.T) {
		mock.ExpectBegin()
		rows := sqlmock.NewRows(accessRequestCols).AddRow(accessRequestRow(42, domain.RequestStatusPending)...)
		mock.ExpectQuery("SELECT (.+) FROM access_requests WHERE id = \\$1 FOR UPDATE").
			WithArgs(int64(42)).
			WillReturnRows(rows)

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		defer tx.Rollback()

		req, err := repo.GetByIDForUpdate(ctx, tx, 42)
		assert.NoError(t, err)
		require.NotNil(t, req)
		assert.Equal(t, int64(42), req.ID)
	})
}

func TestAccessRequestRepository_UpdateTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewAccessRequestRepository(db)
	ctx := context.Background()

	updated := func() *domain.AccessRequest {
		req := &domain.AccessRequest{ID: 42, Version: 3, Status: domain.RequestStatusHODApproved}
		req.UpdatedOn = time.Now()
		return req
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE access_requests SET").
			WillReturnResult(sqlmock.NewResult(0, 1))

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		defer tx.Rollback()

		assert.NoError(t, repo.UpdateTx(ctx, tx, updated()))
	})

	t.Run("VersionMismatchReturnsNoRows", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE access_requests SET").
			WillReturnResult(sqlmock.NewResult(0, 0))

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		defer tx.Rollback()

		assert.ErrorIs(t, repo.UpdateTx(ctx, tx, updated()), sql.ErrNoRows)
	})
}

func TestAccessRequestRepository_ListPendingForStage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewAccessRequestRepository(db)
	ctx := context.Background()

	t.Run("ScopedToDepartment", func(t *testing.T) {
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM").
			WithArgs(string(domain.StageStatusPending), string(domain.RequestStatusCancelled), int32(3)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		rows := sqlmock.NewRows(accessRequestCols).AddRow(accessRequestRow(42, domain.RequestStatusPending)...)
		mock.ExpectQuery("SELECT (.+) FROM access_requests WHERE hod_status = \\$1 AND status <> \\$2 AND department_id = \\$3").
			WithArgs(string(domain.StageStatusPending), string(domain.RequestStatusCancelled), int32(3), int32(20), int32(0)).
			WillReturnRows(rows)

		reqs, total, err := repo.ListPendingForStage(ctx, domain.StageHOD, 3, 1, 20)
		assert.NoError(t, err)
		assert.Equal(t, int32(1), total)
		require.Len(t, reqs, 1)
		assert.Equal(t, int64(42), reqs[0].ID)
	})

	// A request cancelled while awaiting a stage keeps that stage PENDING,
	// so the queue must also filter on the aggregate status.
	t.Run("ExcludesCancelledRequests", func(t *testing.T) {
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM").
			WithArgs(string(domain.StageStatusPending), string(domain.RequestStatusCancelled), int32(3)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT (.+) FROM access_requests WHERE hod_status = \\$1 AND status <> \\$2 AND department_id = \\$3").
			WithArgs(string(domain.StageStatusPending), string(domain.RequestStatusCancelled), int32(3), int32(20), int32(0)).
			WillReturnRows(sqlmock.NewRows(accessRequestCols))

		reqs, total, err := repo.ListPendingForStage(ctx, domain.StageHOD, 3, 1, 20)
		assert.NoError(t, err)
		assert.Equal(t, int32(0), total)
		assert.Empty(t, reqs)
	})

	t.Run("GlobalStageSkipsDepartmentFilter", func(t *testing.T) {
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM").
			WithArgs(string(domain.StageStatusPending), string(domain.RequestStatusCancelled)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT (.+) FROM access_requests WHERE ict_director_status = \\$1 AND status <> \\$2").
			WithArgs(string(domain.StageStatusPending), string(domain.RequestStatusCancelled), int32(20), int32(0)).
			WillReturnRows(sqlmock.NewRows(accessRequestCols))

		reqs, total, err := repo.ListPendingForStage(ctx, domain.StageICTDir, 0, 1, 20)
		assert.NoError(t, err)
		assert.Equal(t, int32(0), total)
		assert.Empty(t, reqs)
	})
}
