package http

import (
	"net/http"
	"time"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/service"
	"ict-access-backend/internal/workflow"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

type createBookingBody struct {
	DeviceID    int32     `json:"device_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Purpose     string    `json:"purpose"`
	PhoneNumber string    `json:"phone_number"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createBookingBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	b := &domain.DeviceBooking{
		RequesterID: userID(r),
		DeviceID:    body.DeviceID,
		StartDate:   body.StartDate,
		EndDate:     body.EndDate,
		Purpose:     body.Purpose,
		PhoneNumber: body.PhoneNumber,
	}
	created, err := h.svc.Create(r.Context(), b)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	b, err := h.svc.Get(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	items, total, err := h.svc.ListMine(r.Context(), userID(r), r.URL.Query().Get("status"), page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total})
}

// ListByStatus backs the ICT desk views (pending review, issued, overdue).
func (h *BookingHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	items, total, err := h.svc.ListByStatus(r.Context(), r.URL.Query().Get("status"), page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total})
}

type bookingActionBody struct {
	Action          workflow.Action             `json:"action"`
	ExpectedVersion int32                       `json:"expected_version"`
	Reason          string                      `json:"reason"`
	Assessment      *domain.ConditionAssessment `json:"assessment"`
}

func (h *BookingHandler) Act(w http.ResponseWriter, r *http.Request) {
	id, err := pathID64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var body bookingActionBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Action == "" {
		writeError(w, &workflow.ValidationError{Field: "action", Reason: "required"})
		return
	}
	p := workflow.Payload{
		ExpectedVersion: body.ExpectedVersion,
		Reason:          body.Reason,
		Assessment:      body.Assessment,
	}
	b, err := h.svc.Act(r.Context(), userID(r), id, body.Action, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
