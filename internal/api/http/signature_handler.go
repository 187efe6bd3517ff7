package http

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"ict-access-backend/internal/storage"
	"ict-access-backend/internal/workflow"
)

// SignatureHandler stores and serves the handwritten signature images that
// accompany approvals and device handovers. Uploads return the opaque
// storage key the client then references in workflow payloads.
type SignatureHandler struct {
	store       storage.Storage
	maxFileSize int64
}

func NewSignatureHandler(store storage.Storage, maxFileSizeMB int64) *SignatureHandler {
	if maxFileSizeMB <= 0 {
		maxFileSizeMB = 5
	}
	return &SignatureHandler{store: store, maxFileSize: maxFileSizeMB << 20}
}

func (h *SignatureHandler) Upload(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if contentType != "image/png" && contentType != "image/jpeg" {
		writeError(w, &workflow.ValidationError{Field: "content_type", Reason: "signature must be image/png or image/jpeg"})
		return
	}
	body := http.MaxBytesReader(w, r.Body, h.maxFileSize)
	key, err := h.store.Save(r.Context(), body, contentType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"signature_key": key})
}

func (h *SignatureHandler) Download(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	file, err := h.store.Open(r.Context(), key)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "signature not found", Code: "NOT_FOUND"})
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = io.Copy(w, file)
}
