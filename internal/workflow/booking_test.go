package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ict-access-backend/internal/domain"
)

func pendingBooking() *domain.DeviceBooking {
	return &domain.DeviceBooking{
		ID:          201,
		Version:     1,
		RequesterID: 7,
		StaffName:   "Asha Mrema",
		DeviceID:    5,
		StartDate:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC),
		Purpose:     "Outreach clinic presentation",
		Status:      domain.BookingStatusPending,
		ICTApproval: domain.ICTApprovalPending,
	}
}

func reviewedBooking(t *testing.T) *domain.DeviceBooking {
	t.Helper()
	b := pendingBooking()
	engine := NewEngine()
	_, err := engine.AttemptBooking(b, Actor{UserID: 30, Role: ActorICTOfficer}, ActionReview, Payload{}, nil, testNow)
	require.NoError(t, err)
	return b
}

func officerActor() Actor { return Actor{UserID: 30, Role: ActorICTOfficer} }

func TestBooking_ReviewAndApprove(t *testing.T) {
	engine := NewEngine()

	t.Run("ReviewMovesToICTReview", func(t *testing.T) {
		b := pendingBooking()
		ev, err := engine.AttemptBooking(b, officerActor(), ActionReview, Payload{}, nil, testNow)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusICTReview, b.Status)
		assert.Equal(t, int32(2), b.Version)
		assert.Equal(t, string(domain.BookingStatusPending), ev.FromStatus)
	})

	t.Run("StaffCannotReview", func(t *testing.T) {
		b := pendingBooking()
		_, err := engine.AttemptBooking(b, Actor{UserID: 50, Role: ActorNone}, ActionReview, Payload{}, nil, testNow)
		assert.ErrorAs(t, err, new(*UnauthorizedActorError))
	})

	t.Run("ApproveWithoutConflicts", func(t *testing.T) {
		b := reviewedBooking(t)
		_, err := engine.AttemptBooking(b, officerActor(), ActionApprove, Payload{}, nil, testNow)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusApproved, b.Status)
		assert.Equal(t, domain.ICTApprovalApproved, b.ICTApproval)
		require.NotNil(t, b.ApproverID)
		assert.Equal(t, int32(30), *b.ApproverID)
	})

	t.Run("OverlappingApprovedBookingBlocks", func(t *testing.T) {
		b := reviewedBooking(t)
		conflicts := []domain.DeviceBooking{{
			ID:        300,
			DeviceID:  b.DeviceID,
			Status:    domain.BookingStatusApproved,
			StartDate: b.StartDate.AddDate(0, 0, 2),
			EndDate:   b.EndDate.AddDate(0, 0, 2),
		}}
		_, err := engine.AttemptBooking(b, officerActor(), ActionApprove, Payload{}, conflicts, testNow)
		var cerr *ConflictError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, []int64{300}, cerr.ConflictIDs)
		assert.Equal(t, domain.BookingStatusICTReview, b.Status)
	})

	t.Run("TouchingEndpointsStillConflict", func(t *testing.T) {
		b := reviewedBooking(t)
		conflicts := []domain.DeviceBooking{{
			ID:        301,
			DeviceID:  b.DeviceID,
			Status:    domain.BookingStatusIssued,
			StartDate: b.EndDate, // same day handback and pickup
			EndDate:   b.EndDate.AddDate(0, 0, 3),
		}}
		_, err := engine.AttemptBooking(b, officerActor(), ActionApprove, Payload{}, conflicts, testNow)
		assert.ErrorAs(t, err, new(*ConflictError))
	})

	t.Run("NonBlockingStatusesIgnored", func(t *testing.T) {
		b := reviewedBooking(t)
		conflicts := []domain.DeviceBooking{
			{ID: 302, Status: domain.BookingStatusPending, StartDate: b.StartDate, EndDate: b.EndDate},
			{ID: 303, Status: domain.BookingStatusRejected, StartDate: b.StartDate, EndDate: b.EndDate},
			{ID: 304, Status: domain.BookingStatusCompleted, StartDate: b.StartDate, EndDate: b.EndDate},
		}
		_, err := engine.AttemptBooking(b, officerActor(), ActionApprove, Payload{}, conflicts, testNow)
		assert.NoError(t, err)
	})

	t.Run("OwnRowInConflictSliceIgnored", func(t *testing.T) {
		b := reviewedBooking(t)
		conflicts := []domain.DeviceBooking{{
			ID:        b.ID,
			Status:    domain.BookingStatusApproved,
			StartDate: b.StartDate,
			EndDate:   b.EndDate,
		}}
		_, err := engine.AttemptBooking(b, officerActor(), ActionApprove, Payload{}, conflicts, testNow)
		assert.NoError(t, err)
	})

	t.Run("ApproveRequiresReviewFirst", func(t *testing.T) {
		b := pendingBooking()
		_, err := engine.AttemptBooking(b, officerActor(), ActionApprove, Payload{}, nil, testNow)
		assert.ErrorAs(t, err, new(*InvalidStageError))
	})
}

func TestBooking_HandoverChain(t *testing.T) {
	engine := NewEngine()

	approved := func(t *testing.T) *domain.DeviceBooking {
		b := reviewedBooking(t)
		_, err := engine.AttemptBooking(b, officerActor(), ActionApprove, Payload{}, nil, testNow)
		require.NoError(t, err)
		return b
	}

	t.Run("IssueRequiresConditionNotes", func(t *testing.T) {
		b := approved(t)
		_, err := engine.AttemptBooking(b, officerActor(), ActionIssue, Payload{}, nil, testNow)
		assert.ErrorAs(t, err, new(*ValidationError))

		_, err = engine.AttemptBooking(b, officerActor(), ActionIssue, Payload{
			Assessment: &domain.ConditionAssessment{Notes: "screen scratch bottom left", Functional: true},
		}, nil, testNow)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusIssued, b.Status)
		require.NotNil(t, b.Issuing.RecordedBy)
		assert.Equal(t, int32(30), *b.Issuing.RecordedBy)
	})

	t.Run("FullChainToCompleted", func(t *testing.T) {
		b := approved(t)
		_, err := engine.AttemptBooking(b, officerActor(), ActionIssue, Payload{
			Assessment: &domain.ConditionAssessment{Notes: "good condition", Functional: true, Accessories: "charger, bag"},
		}, nil, testNow)
		require.NoError(t, err)

		_, err = engine.AttemptBooking(b, officerActor(), ActionReturn, Payload{
			Assessment: &domain.ConditionAssessment{Notes: "returned complete", Functional: true, Accessories: "charger, bag"},
		}, nil, testNow)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusReturned, b.Status)

		_, err = engine.AttemptBooking(b, officerActor(), ActionComplete, Payload{}, nil, testNow)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCompleted, b.Status)
	})

	t.Run("ReturnBeforeIssueRejected", func(t *testing.T) {
		b := approved(t)
		_, err := engine.AttemptBooking(b, officerActor(), ActionReturn, Payload{
			Assessment: &domain.ConditionAssessment{Notes: "x"},
		}, nil, testNow)
		assert.ErrorAs(t, err, new(*InvalidStageError))
	})
}

func TestBooking_RejectAndCancel(t *testing.T) {
	engine := NewEngine()

	t.Run("RejectRecordsReason", func(t *testing.T) {
		b := reviewedBooking(t)
		_, err := engine.AttemptBooking(b, officerActor(), ActionReject, Payload{Reason: "device reserved for audit"}, nil, testNow)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusRejected, b.Status)
		assert.Equal(t, "device reserved for audit", b.RejectionReason)
	})

	t.Run("RequesterCancelsBeforeApproval", func(t *testing.T) {
		b := pendingBooking()
		_, err := engine.AttemptBooking(b, Actor{UserID: 7, Role: ActorRequester}, ActionCancel, Payload{}, nil, testNow)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, b.Status)
	})

	t.Run("CancelAfterApprovalRejected", func(t *testing.T) {
		b := reviewedBooking(t)
		_, err := engine.AttemptBooking(b, officerActor(), ActionApprove, Payload{}, nil, testNow)
		require.NoError(t, err)
		_, err = engine.AttemptBooking(b, Actor{UserID: 7, Role: ActorRequester}, ActionCancel, Payload{}, nil, testNow)
		assert.ErrorAs(t, err, new(*InvalidStageError))
	})

	t.Run("StaleVersionDetected", func(t *testing.T) {
		b := reviewedBooking(t)
		loaded := b.Version
		_, err := engine.AttemptBooking(b, officerActor(), ActionApprove, Payload{ExpectedVersion: loaded}, nil, testNow)
		require.NoError(t, err)
		_, err = engine.AttemptBooking(b, officerActor(), ActionReject, Payload{ExpectedVersion: loaded}, nil, testNow)
		assert.ErrorAs(t, err, new(*StaleStateError))
	})
}

func TestBookingOverlaps(t *testing.T) {
	b := pendingBooking()

	assert.True(t, b.Overlaps(b.StartDate, b.EndDate))
	assert.True(t, b.Overlaps(b.EndDate, b.EndDate.AddDate(0, 0, 5)))
	assert.True(t, b.Overlaps(b.StartDate.AddDate(0, 0, -5), b.StartDate))
	assert.False(t, b.Overlaps(b.EndDate.AddDate(0, 0, 1), b.EndDate.AddDate(0, 0, 5)))
	assert.False(t, b.Overlaps(b.StartDate.AddDate(0, 0, -5), b.StartDate.AddDate(0, 0, -1)))
}
