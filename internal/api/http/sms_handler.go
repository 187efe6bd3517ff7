package http

import (
	"crypto/subtle"
	"net/http"

	"ict-access-backend/internal/service"
)

// SmsWebhookHandler receives delivery reports from the SMS gateway. The
// gateway authenticates with a shared key header instead of a user token.
type SmsWebhookHandler struct {
	svc    service.SmsService
	apiKey string
}

func NewSmsWebhookHandler(svc service.SmsService, apiKey string) *SmsWebhookHandler {
	return &SmsWebhookHandler{svc: svc, apiKey: apiKey}
}

func (h *SmsWebhookHandler) DeliveryReport(w http.ResponseWriter, r *http.Request) {
	if h.apiKey != "" {
		got := r.Header.Get("X-Api-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.apiKey)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid gateway key", Code: "UNAUTHENTICATED"})
			return
		}
	}
	var report service.DeliveryReport
	if err := decodeBody(r, &report); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.HandleDeliveryReport(r.Context(), report); err != nil {
		writeError(w, err)
		return
	}
	// Always 200 on a processed report; an unmatched one was already
	// logged and dropped inside the service.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
