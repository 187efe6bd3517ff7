package domain

// Department is static reference data. HeadUserID identifies the HOD used by
// the workflow resolver when deciding who may act on the first approval stage.
type Department struct {
	ID         int32  `json:"id"`
	Name       string `json:"name"`
	Code       string `json:"code"`
	DivisionID int32  `json:"division_id"`
	HeadUserID *int32 `json:"head_user_id,omitempty"`
	CreatedOn  string `json:"created_on"`
}

// Division groups departments under one divisional director.
type Division struct {
	ID             int32  `json:"id"`
	Name           string `json:"name"`
	DirectorUserID *int32 `json:"director_user_id,omitempty"`
}
