package http

import (
	"net/http"
	"time"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/service"
	"ict-access-backend/internal/workflow"
)

type AccessRequestHandler struct {
	svc service.AccessRequestService
}

func NewAccessRequestHandler(svc service.AccessRequestService) *AccessRequestHandler {
	return &AccessRequestHandler{svc: svc}
}

type createAccessRequestBody struct {
	RequestTypes    []domain.RequestType  `json:"request_types"`
	WellsoftModules []string              `json:"wellsoft_modules"`
	JeevaModules    []string              `json:"jeeva_modules"`
	AccessDuration  domain.AccessDuration `json:"access_duration"`
	TemporaryUntil  *time.Time            `json:"temporary_until"`
	Justification   string                `json:"justification"`
	SignatureKey    string                `json:"signature_key"`
	PhoneNumber     string                `json:"phone_number"`
}

func (h *AccessRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createAccessRequestBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	req := &domain.AccessRequest{
		RequesterID:     userID(r),
		RequestTypes:    body.RequestTypes,
		WellsoftModules: body.WellsoftModules,
		JeevaModules:    body.JeevaModules,
		AccessDuration:  body.AccessDuration,
		TemporaryUntil:  body.TemporaryUntil,
		Justification:   body.Justification,
		SignatureKey:    body.SignatureKey,
		PhoneNumber:     body.PhoneNumber,
	}
	if req.AccessDuration == "" {
		req.AccessDuration = domain.AccessDurationPermanent
	}
	created, err := h.svc.CreateDraft(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *AccessRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	req, err := h.svc.Get(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type listResponse struct {
	Items any   `json:"items"`
	Total int32 `json:"total"`
}

func (h *AccessRequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	items, total, err := h.svc.ListMine(r.Context(), userID(r), r.URL.Query().Get("status"), page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total})
}

func (h *AccessRequestHandler) ListPendingApprovals(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	items, total, err := h.svc.ListPendingApprovals(r.Context(), userID(r), page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total})
}

type actionBody struct {
	Action          workflow.Action `json:"action"`
	ExpectedVersion int32           `json:"expected_version"`
	Comment         string          `json:"comment"`
	SignatureKey    string          `json:"signature_key"`
	Reason          string          `json:"reason"`
	AssigneeID      *int32          `json:"assignee_id"`
	GrantedModules  []string        `json:"granted_modules"`
	Notes           string          `json:"notes"`
}

// Act is the single workflow endpoint: submit, approve, reject, cancel,
// assign, record grants and complete all go through it, so the engine is the
// only place transition rules live.
func (h *AccessRequestHandler) Act(w http.ResponseWriter, r *http.Request) {
	id, err := pathID64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var body actionBody
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
		Comment:         body.Comment,
		SignatureKey:    body.SignatureKey,
		Reason:          body.Reason,
		AssigneeID:      body.AssigneeID,
		GrantedModules:  body.GrantedModules,
		Notes:           body.Notes,
	}
	req, err := h.svc.Act(r.Context(), userID(r), id, body.Action, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type resubmitBody struct {
	ExpectedVersion int32  `json:"expected_version"`
	Justification   string `json:"justification"`
}

func (h *AccessRequestHandler) Resubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var body resubmitBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	fresh, err := h.svc.Resubmit(r.Context(), userID(r), id, workflow.Payload{
		ExpectedVersion: body.ExpectedVersion,
		Comment:         body.Justification,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fresh)
}
