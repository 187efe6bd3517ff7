package http

import (
	"net/http"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/service"
)

type DeviceHandler struct {
	svc service.DeviceService
}

func NewDeviceHandler(svc service.DeviceService) *DeviceHandler {
	return &DeviceHandler{svc: svc}
}

func (h *DeviceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var device domain.Device
	if err := decodeBody(r, &device); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.Create(r.Context(), &device); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, device)
}

func (h *DeviceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID32(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	device, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

func (h *DeviceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID32(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var device domain.Device
	if err := decodeBody(r, &device); err != nil {
		writeError(w, err)
		return
	}
	device.ID = id
	if err := h.svc.Update(r.Context(), &device); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	items, total, err := h.svc.List(r.Context(), r.URL.Query().Get("status"), page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total})
}
