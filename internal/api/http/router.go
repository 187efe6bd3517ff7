package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/security"
)

// Handlers bundles the constructed handler set for route registration.
type Handlers struct {
	Auth          *AuthHandler
	AccessRequest *AccessRequestHandler
	Booking       *BookingHandler
	Device        *DeviceHandler
	Admin         *AdminHandler
	Notification  *NotificationHandler
	SmsWebhook    *SmsWebhookHandler
	Signature     *SignatureHandler
}

// NewRouter wires the full REST surface. Workflow endpoints sit behind the
// auth middleware only; fine-grained authorization happens in the services
// against the specific aggregate. RequireRole guards the purely
// administrative surfaces.
func NewRouter(h Handlers, tokens security.TokenManager) *mux.Router {
	r := mux.NewRouter()
	r.Use(LoggingMiddleware)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	// Unauthenticated surface.
	r.HandleFunc("/api/v1/auth/login", h.Auth.Login).Methods("POST")
	r.HandleFunc("/api/v1/auth/refresh", h.Auth.Refresh).Methods("POST")
	r.HandleFunc("/api/v1/webhooks/sms/delivery", h.SmsWebhook.DeliveryReport).Methods("POST")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(AuthMiddleware(tokens))

	api.HandleFunc("/auth/password", h.Auth.ChangePassword).Methods("POST")

	// Access request workflow.
	api.HandleFunc("/access-requests", h.AccessRequest.Create).Methods("POST")
	api.HandleFunc("/access-requests", h.AccessRequest.ListMine).Methods("GET")
	api.HandleFunc("/access-requests/{id}", h.AccessRequest.Get).Methods("GET")
	api.HandleFunc("/access-requests/{id}/actions", h.AccessRequest.Act).Methods("POST")
	api.HandleFunc("/access-requests/{id}/resubmit", h.AccessRequest.Resubmit).Methods("POST")
	api.HandleFunc("/approvals/access-requests", h.AccessRequest.ListPendingApprovals).Methods("GET")

	// Device bookings.
	api.HandleFunc("/bookings", h.Booking.Create).Methods("POST")
	api.HandleFunc("/bookings", h.Booking.ListMine).Methods("GET")
	api.HandleFunc("/bookings/{id}", h.Booking.Get).Methods("GET")
	api.HandleFunc("/bookings/{id}/actions", h.Booking.Act).Methods("POST")

	ictDesk := RequireRole(
		string(domain.RoleICTOfficer),
		string(domain.RoleHeadOfIT),
		string(domain.RoleAdmin),
	)
	api.Handle("/bookings-queue", ictDesk(http.HandlerFunc(h.Booking.ListByStatus))).Methods("GET")

	// Device catalogue: browsing is open, management is ICT-only.
	api.HandleFunc("/devices", h.Device.List).Methods("GET")
	api.HandleFunc("/devices/{id}", h.Device.Get).Methods("GET")
	api.Handle("/devices", ictDesk(http.HandlerFunc(h.Device.Create))).Methods("POST")
	api.Handle("/devices/{id}", ictDesk(http.HandlerFunc(h.Device.Update))).Methods("PUT")

	// Notifications.
	api.HandleFunc("/notifications", h.Notification.List).Methods("GET")
	api.HandleFunc("/notifications/{id}/read", h.Notification.MarkAsRead).Methods("POST")

	// Signatures.
	api.HandleFunc("/signatures", h.Signature.Upload).Methods("POST")
	api.HandleFunc("/signatures/{key}", h.Signature.Download).Methods("GET")

	// Directory reference data is readable by any signed-in user.
	api.HandleFunc("/departments", h.Admin.ListDepartments).Methods("GET")

	adminOnly := RequireRole(string(domain.RoleAdmin))
	api.Handle("/users", adminOnly(http.HandlerFunc(h.Admin.CreateUser))).Methods("POST")
	api.Handle("/users/{id}", adminOnly(http.HandlerFunc(h.Admin.GetUser))).Methods("GET")
	api.Handle("/users/{id}", adminOnly(http.HandlerFunc(h.Admin.UpdateUser))).Methods("PUT")
	api.Handle("/departments", adminOnly(http.HandlerFunc(h.Admin.CreateDepartment))).Methods("POST")
	api.Handle("/departments/{id}", adminOnly(http.HandlerFunc(h.Admin.UpdateDepartment))).Methods("PUT")
	api.Handle("/departments/{id}/members", adminOnly(http.HandlerFunc(h.Admin.ListDepartmentMembers))).Methods("GET")

	return r
}
