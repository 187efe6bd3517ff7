package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"ict-access-backend/internal/workflow"
)

func pathID64(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &workflow.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return id, nil
}

func pathID32(r *http.Request, name string) (int32, error) {
	id, err := pathID64(r, name)
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}

// pagination reads page/page_size query params with sane bounds.
func pagination(r *http.Request) (page, pageSize int32) {
	page = 1
	pageSize = 20
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = int32(v)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 && v <= 100 {
		pageSize = int32(v)
	}
	return page, pageSize
}
