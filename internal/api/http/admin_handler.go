package http

import (
	"net/http"

	"ict-access-backend/internal/domain"
	"ict-access-backend/internal/service"
)

type AdminHandler struct {
	svc service.AdminService
}

func NewAdminHandler(svc service.AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

type createUserBody struct {
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	PhoneNumber  string            `json:"phone_number"`
	PFNumber     string            `json:"pf_number"`
	DepartmentID int32             `json:"department_id"`
	Roles        []domain.RoleName `json:"roles"`
	Password     string            `json:"password"`
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var body createUserBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	user := &domain.User{
		Name:         body.Name,
		Email:        body.Email,
		PhoneNumber:  body.PhoneNumber,
		PFNumber:     body.PFNumber,
		DepartmentID: body.DepartmentID,
		Roles:        body.Roles,
	}
	if err := h.svc.CreateUser(r.Context(), user, body.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID32(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := h.svc.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID32(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var user domain.User
	if err := decodeBody(r, &user); err != nil {
		writeError(w, err)
		return
	}
	user.ID = id
	if err := h.svc.UpdateUser(r.Context(), &user); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) ListDepartmentMembers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID32(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	users, err := h.svc.ListDepartmentMembers(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var dept domain.Department
	if err := decodeBody(r, &dept); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.CreateDepartment(r.Context(), &dept); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dept)
}

func (h *AdminHandler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID32(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var dept domain.Department
	if err := decodeBody(r, &dept); err != nil {
		writeError(w, err)
		return
	}
	dept.ID = id
	if err := h.svc.UpdateDepartment(r.Context(), &dept); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dept)
}

func (h *AdminHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := h.svc.ListDepartments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, depts)
}
