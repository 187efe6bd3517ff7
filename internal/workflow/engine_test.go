package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ict-access-backend/internal/domain"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func draftRequest() *domain.AccessRequest {
	return &domain.AccessRequest{
		ID:              101,
		Version:         1,
		RequesterID:     7,
		StaffName:       "Asha Mrema",
		PFNumber:        "PF-1234",
		PhoneNumber:     "+255700000001",
		DepartmentID:    3,
		RequestTypes:    []domain.RequestType{domain.RequestTypeWellsoft},
		WellsoftModules: []string{"OPD"},
		AccessDuration:  domain.AccessDurationPermanent,
		Justification:   "New OPD clerk needs patient registration",
		SignatureKey:    "abc123",
		Implementation:  domain.ImplementationUnassigned,
		HOD:             domain.StageApproval{Status: domain.StageStatusNotReached},
		Divisional:      domain.StageApproval{Status: domain.StageStatusNotReached},
		ICTDir:          domain.StageApproval{Status: domain.StageStatusNotReached},
		HeadIT:          domain.StageApproval{Status: domain.StageStatusNotReached},
		ICTOfficer:      domain.StageApproval{Status: domain.StageStatusNotReached},
		Status:          domain.RequestStatusDraft,
		CreatedOn:       testNow,
		UpdatedOn:       testNow,
	}
}

func submittedRequest() *domain.AccessRequest {
	req := draftRequest()
	engine := NewEngine()
	_, err := engine.Attempt(req, Actor{UserID: req.RequesterID, Role: ActorRequester}, ActionSubmit, Payload{}, testNow)
	if err != nil {
		panic(err)
	}
	return req
}

func approveThrough(t *testing.T, req *domain.AccessRequest, stages ...domain.Stage) {
	t.Helper()
	engine := NewEngine()
	approvers := map[domain.Stage]Actor{
		domain.StageHOD:        {UserID: 20, Role: ActorHOD},
		domain.StageDivisional: {UserID: 21, Role: ActorDivisionalDirector},
		domain.StageICTDir:     {UserID: 22, Role: ActorICTDirector},
		domain.StageHeadIT:     {UserID: 23, Role: ActorHeadOfIT},
	}
	for _, s := range stages {
		_, err := engine.Attempt(req, approvers[s], ActionApprove, Payload{SignatureKey: "sig-" + string(s)}, testNow)
		require.NoError(t, err)
	}
}

func TestEngine_Submit(t *testing.T) {
	engine := NewEngine()

	t.Run("Success", func(t *testing.T) {
		req := draftRequest()
		ev, err := engine.Attempt(req, Actor{UserID: 7, Role: ActorRequester}, ActionSubmit, Payload{}, testNow)
		require.NoError(t, err)

		assert.Equal(t, domain.StageStatusPending, req.HOD.Status)
		assert.Equal(t, domain.StageStatusNotReached, req.Divisional.Status)
		assert.Equal(t, domain.RequestStatusPending, req.Status)
		assert.Equal(t, int32(2), req.Version)
		assert.NotNil(t, req.SubmittedAt)
		assert.Equal(t, string(domain.RequestStatusDraft), ev.FromStatus)
		assert.Equal(t, string(domain.RequestStatusPending), ev.ToStatus)
	})

	t.Run("OnlyRequesterCanSubmit", func(t *testing.T) {
		req := draftRequest()
		_, err := engine.Attempt(req, Actor{UserID: 20, Role: ActorHOD}, ActionSubmit, Payload{}, testNow)
		assert.ErrorAs(t, err, new(*UnauthorizedActorError))
		assert.Equal(t, int32(1), req.Version)
	})

	t.Run("RequiresSystems", func(t *testing.T) {
		req := draftRequest()
		req.RequestTypes = nil
		_, err := engine.Attempt(req, Actor{UserID: 7, Role: ActorRequester}, ActionSubmit, Payload{}, testNow)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "request_types", verr.Field)
	})

	t.Run("RequiresSignature", func(t *testing.T) {
		req := draftRequest()
		req.SignatureKey = ""
		_, err := engine.Attempt(req, Actor{UserID: 7, Role: ActorRequester}, ActionSubmit, Payload{}, testNow)
		assert.ErrorAs(t, err, new(*ValidationError))
	})

	t.Run("TemporaryNeedsFutureExpiry", func(t *testing.T) {
		req := draftRequest()
		req.AccessDuration = domain.AccessDurationTemporary
		_, err := engine.Attempt(req, Actor{UserID: 7, Role: ActorRequester}, ActionSubmit, Payload{}, testNow)
		assert.ErrorAs(t, err, new(*ValidationError))

		past := testNow.Add(-time.Hour)
		req.TemporaryUntil = &past
		_, err = engine.Attempt(req, Actor{UserID: 7, Role: ActorRequester}, ActionSubmit, Payload{}, testNow)
		assert.ErrorAs(t, err, new(*ValidationError))

		future := testNow.AddDate(0, 1, 0)
		req.TemporaryUntil = &future
		_, err = engine.Attempt(req, Actor{UserID: 7, Role: ActorRequester}, ActionSubmit, Payload{}, testNow)
		assert.NoError(t, err)
	})

	t.Run("DoubleSubmitRejected", func(t *testing.T) {
		req := submittedRequest()
		_, err := engine.Attempt(req, Actor{UserID: 7, Role: ActorRequester}, ActionSubmit, Payload{}, testNow)
		assert.ErrorAs(t, err, new(*InvalidStageError))
	})

	t.Run("CancelledDraftCannotSubmit", func(t *testing.T) {
		req := draftRequest()
		_, err := engine.Attempt(req, Actor{UserID: 7, Role: ActorRequester}, ActionCancel, Payload{}, testNow)
		require.NoError(t, err)

		_, err = engine.Attempt(req, Actor{UserID: 7, Role: ActorRequester}, ActionSubmit, Payload{}, testNow)
		assert.ErrorAs(t, err, new(*InvalidStageError))
		assert.Equal(t, domain.RequestStatusCancelled, req.Status)
		assert.Equal(t, domain.StageStatusNotReached, req.HOD.Status)
		assert.Nil(t, req.SubmittedAt)
	})
}

func TestEngine_ApprovalChain(t *testing.T) {
	engine := NewEngine()

	t.Run("FullWalkToImplementation", func(t *testing.T) {
		req := submittedRequest()
		approveThrough(t, req, domain.StageHOD, domain.StageDivisional, domain.StageICTDir, domain.StageHeadIT)

		assert.Equal(t, domain.StageStatusPending, req.ICTOfficer.Status)
		assert.Equal(t, domain.RequestStatusHeadITApproved, req.Status)
		assert.True(t, CheckStageOrdering(req))

		officer := int32(30)
		_, err := engine.Attempt(req, Actor{UserID: 23, Role: ActorHeadOfIT}, ActionAssignOfficer, Payload{AssigneeID: &officer}, testNow)
		require.NoError(t, err)
		assert.Equal(t, domain.RequestStatusImplementationActive, req.Status)

		_, err = engine.Attempt(req, Actor{UserID: officer, Role: ActorICTOfficer}, ActionRecordGrant, Payload{GrantedModules: []string{"OPD"}}, testNow)
		require.NoError(t, err)

		ev, err := engine.Attempt(req, Actor{UserID: officer, Role: ActorICTOfficer}, ActionComplete, Payload{SignatureKey: "sig-officer"}, testNow)
		require.NoError(t, err)
		assert.Equal(t, domain.RequestStatusCompleted, req.Status)
		assert.Equal(t, string(domain.RequestStatusCompleted), ev.ToStatus)
		assert.True(t, CheckStageOrdering(req))
	})

	t.Run("StageRecordsApproverMetadata", func(t *testing.T) {
		req := submittedRequest()
		_, err := engine.Attempt(req, Actor{UserID: 20, Role: ActorHOD}, ActionApprove, Payload{Comment: "verified", SignatureKey: "hod-sig"}, testNow)
		require.NoError(t, err)

		require.NotNil(t, req.HOD.ApproverID)
		assert.Equal(t, int32(20), *req.HOD.ApproverID)
		assert.Equal(t, "verified", req.HOD.Comment)
		assert.Equal(t, "hod-sig", req.HOD.SignatureKey)
		assert.Equal(t, testNow, *req.HOD.ActedAt)
	})

	t.Run("SkippingStageRejected", func(t *testing.T) {
		req := submittedRequest()
		// ICT director tries to act while the HOD stage is still pending.
		_, err := engine.Attempt(req, Actor{UserID: 22, Role: ActorICTDirector}, ActionApprove, Payload{}, testNow)
		var serr *InvalidStageError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, domain.StageICTDir, serr.Stage)
		assert.Equal(t, domain.StageStatusNotReached, serr.Status)
	})

	t.Run("DoubleApproveRejected", func(t *testing.T) {
		req := submittedRequest()
		approveThrough(t, req, domain.StageHOD)
		_, err := engine.Attempt(req, Actor{UserID: 20, Role: ActorHOD}, ActionApprove, Payload{}, testNow)
		var serr *InvalidStageError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, domain.StageStatusApproved, serr.Status)
	})

	t.Run("OfficerCannotPlainApprove", func(t *testing.T) {
		req := submittedRequest()
		approveThrough(t, req, domain.StageHOD, domain.StageDivisional, domain.StageICTDir, domain.StageHeadIT)
		_, err := engine.Attempt(req, Actor{UserID: 30, Role: ActorICTOfficer}, ActionApprove, Payload{}, testNow)
		assert.ErrorAs(t, err, new(*ValidationError))
	})
}

func TestEngine_Rejection(t *testing.T) {
	engine := NewEngine()

	t.Run("RejectionIsTerminal", func(t *testing.T) {
		req := submittedRequest()
		approveThrough(t, req, domain.StageHOD)
		_, err := engine.Attempt(req, Actor{UserID: 21, Role: ActorDivisionalDirector}, ActionReject, Payload{Comment: "not justified"}, testNow)
		require.NoError(t, err)

		assert.Equal(t, domain.RequestStatusRejected, req.Status)
		assert.Equal(t, domain.StageStatusNotReached, req.ICTDir.Status)

		// No stage accepts further decisions on a rejected record.
		_, err = engine.Attempt(req, Actor{UserID: 22, Role: ActorICTDirector}, ActionApprove, Payload{}, testNow)
		assert.ErrorAs(t, err, new(*InvalidStageError))
		_, err = engine.Attempt(req, Actor{UserID: 21, Role: ActorDivisionalDirector}, ActionApprove, Payload{}, testNow)
		assert.ErrorAs(t, err, new(*InvalidStageError))
	})

	t.Run("RejectedRecordProtectedFromCancel", func(t *testing.T) {
		req := submittedRequest()
		_, err := engine.Attempt(req, Actor{UserID: 20, Role: ActorHOD}, ActionReject, Payload{}, testNow)
		require.NoError(t, err)
		_, err = engine.Attempt(req, Actor{UserID: 7, Role: ActorRequester}, ActionCancel, Payload{}, testNow)
		assert.ErrorAs(t, err, new(*InvalidStageError))
	})
}

func TestEngine_Cancel(t *testing.T) {
	engine := NewEngine()

	t.Run("RequesterCancelsWhilePending", func(t *testing.T) {
		req := submittedRequest()
		_, err := engine.Attempt(req, Actor{UserID: 7, Role: ActorRequester}, ActionCancel, Payload{}, testNow)
		require.NoError(t, err)
		assert.Equal(t, domain.RequestStatusCancelled, req.Status)
		require.NotNil(t, req.CancelledBy)
		assert.Equal(t, int32(7), *req.CancelledBy)
	})

	t.Run("TooLateAfterHODApproval", func(t *testing.T) {
		req := submittedRequest()
		approveThrough(t, req, domain.StageHOD)
		_, err := engine.Attempt(req, Actor{UserID: 7, Role: ActorRequester}, ActionCancel, Payload{}, testNow)
		assert.ErrorAs(t, err, new(*InvalidStageError))
	})

	t.Run("ApproverCannotCancel", func(t *testing.T) {
		req := submittedRequest()
		_, err := engine.Attempt(req, Actor{UserID: 20, Role: ActorHOD}, ActionCancel, Payload{}, testNow)
		assert.ErrorAs(t, err, new(*UnauthorizedActorError))
	})

	t.Run("CancelledRecordIsFrozen", func(t *testing.T) {
		req := submittedRequest()
		_, err := engine.Attempt(req, Actor{UserID: 7, Role: ActorRequester}, ActionCancel, Payload{}, testNow)
		require.NoError(t, err)
		_, err = engine.Attempt(req, Actor{UserID: 20, Role: ActorHOD}, ActionApprove, Payload{}, testNow)
		assert.ErrorAs(t, err, new(*InvalidStageError))
	})
}

func TestEngine_Implementation(t *testing.T) {
	engine := NewEngine()
	officer := int32(30)

	readyRequest := func(t *testing.T) *domain.AccessRequest {
		req := submittedRequest()
		approveThrough(t, req, domain.StageHOD, domain.StageDivisional, domain.StageICTDir, domain.StageHeadIT)
		_, err := engine.Attempt(req, Actor{UserID: 23, Role: ActorHeadOfIT}, ActionAssignOfficer, Payload{AssigneeID: &officer}, testNow)
		require.NoError(t, err)
		return req
	}

	t.Run("CompleteRequiresRecordedGrants", func(t *testing.T) {
		req := readyRequest(t)
		_, err := engine.Attempt(req, Actor{UserID: officer, Role: ActorICTOfficer}, ActionComplete, Payload{}, testNow)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "granted_modules", verr.Field)
	})

	t.Run("GrantRequiresModules", func(t *testing.T) {
		req := readyRequest(t)
		_, err := engine.Attempt(req, Actor{UserID: officer, Role: ActorICTOfficer}, ActionRecordGrant, Payload{}, testNow)
		assert.ErrorAs(t, err, new(*ValidationError))
	})

	t.Run("OnlyAssignedOfficerMayImplement", func(t *testing.T) {
		req := readyRequest(t)
		_, err := engine.Attempt(req, Actor{UserID: 31, Role: ActorICTOfficer}, ActionRecordGrant, Payload{GrantedModules: []string{"OPD"}}, testNow)
		assert.ErrorAs(t, err, new(*UnauthorizedActorError))
	})

	t.Run("GrantsMergeWithoutDuplicates", func(t *testing.T) {
		req := readyRequest(t)
		_, err := engine.Attempt(req, Actor{UserID: officer, Role: ActorICTOfficer}, ActionRecordGrant, Payload{GrantedModules: []string{"OPD", "IPD"}}, testNow)
		require.NoError(t, err)
		_, err = engine.Attempt(req, Actor{UserID: officer, Role: ActorICTOfficer}, ActionRecordGrant, Payload{GrantedModules: []string{"IPD", "LAB"}}, testNow)
		require.NoError(t, err)
		assert.Equal(t, []string{"OPD", "IPD", "LAB"}, req.GrantedModules)
	})

	t.Run("ReassignBlockedOnceInProgress", func(t *testing.T) {
		req := readyRequest(t)
		_, err := engine.Attempt(req, Actor{UserID: officer, Role: ActorICTOfficer}, ActionRecordGrant, Payload{GrantedModules: []string{"OPD"}}, testNow)
		require.NoError(t, err)

		other := int32(31)
		_, err = engine.Attempt(req, Actor{UserID: 23, Role: ActorHeadOfIT}, ActionAssignOfficer, Payload{AssigneeID: &other}, testNow)
		assert.ErrorAs(t, err, new(*ValidationError))
	})
}

func TestEngine_StaleVersion(t *testing.T) {
	engine := NewEngine()

	req := submittedRequest()
	loadedVersion := req.Version

	// First approver wins.
	_, err := engine.Attempt(req, Actor{UserID: 20, Role: ActorHOD}, ActionApprove, Payload{ExpectedVersion: loadedVersion}, testNow)
	require.NoError(t, err)

	// Second attempt still carries the version it loaded.
	_, err = engine.Attempt(req, Actor{UserID: 20, Role: ActorHOD}, ActionApprove, Payload{ExpectedVersion: loadedVersion}, testNow)
	var stale *StaleStateError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, loadedVersion, stale.ExpectedVersion)
	assert.Equal(t, req.Version, stale.ActualVersion)
}

func TestEngine_Resubmit(t *testing.T) {
	engine := NewEngine()

	rejected := func(t *testing.T) *domain.AccessRequest {
		req := submittedRequest()
		_, err := engine.Attempt(req, Actor{UserID: 20, Role: ActorHOD}, ActionReject, Payload{Comment: "missing detail"}, testNow)
		require.NoError(t, err)
		return req
	}

	t.Run("CreatesFreshLinkedRecord", func(t *testing.T) {
		old := rejected(t)
		oldVersion := old.Version

		fresh, ev, err := engine.Resubmit(old, Actor{UserID: old.RequesterID, Role: ActorRequester}, Payload{}, testNow)
		require.NoError(t, err)

		require.NotNil(t, fresh.ResubmissionOf)
		assert.Equal(t, old.ID, *fresh.ResubmissionOf)
		assert.Equal(t, domain.StageStatusPending, fresh.HOD.Status)
		assert.Equal(t, domain.StageStatusNotReached, fresh.ICTOfficer.Status)
		assert.Equal(t, int32(1), fresh.Version)
		assert.Equal(t, domain.RequestStatusPending, fresh.Status)
		assert.Equal(t, old.RequestTypes, fresh.RequestTypes)

		// The rejected record stays frozen.
		assert.Equal(t, domain.RequestStatusRejected, old.Status)
		assert.Equal(t, oldVersion, old.Version)
		assert.Equal(t, string(domain.RequestStatusRejected), ev.FromStatus)
	})

	t.Run("OnlyFromRejected", func(t *testing.T) {
		req := submittedRequest()
		_, _, err := engine.Resubmit(req, Actor{UserID: req.RequesterID, Role: ActorRequester}, Payload{}, testNow)
		assert.ErrorAs(t, err, new(*InvalidStageError))
	})

	t.Run("StrangerCannotResubmit", func(t *testing.T) {
		old := rejected(t)
		_, _, err := engine.Resubmit(old, Actor{UserID: 99, Role: ActorNone}, Payload{}, testNow)
		assert.ErrorAs(t, err, new(*UnauthorizedActorError))
	})

	t.Run("OnlyOneSuccessorAllowed", func(t *testing.T) {
		old := rejected(t)
		fresh, _, err := engine.Resubmit(old, Actor{UserID: old.RequesterID, Role: ActorRequester}, Payload{}, testNow)
		require.NoError(t, err)

		// The service stamps the link under the old record's row lock.
		fresh.ID = 202
		old.ResubmittedAs = &fresh.ID

		_, _, err = engine.Resubmit(old, Actor{UserID: old.RequesterID, Role: ActorRequester}, Payload{}, testNow)
		var serr *InvalidStageError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, domain.StageHOD, serr.Stage)
		assert.Equal(t, domain.StageStatusRejected, serr.Status)
	})
}

func TestEngine_OrderingInvariantHolds(t *testing.T) {
	// Walk every prefix of the chain and check the structural invariant at
	// each step.
	req := submittedRequest()
	assert.True(t, CheckStageOrdering(req))
	for _, s := range []domain.Stage{domain.StageHOD, domain.StageDivisional, domain.StageICTDir, domain.StageHeadIT} {
		approveThrough(t, req, s)
		assert.True(t, CheckStageOrdering(req), "after approving %s", s)
	}
}
