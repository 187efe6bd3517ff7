package domain

type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
	UserStatusRetired   UserStatus = "RETIRED"
)

// RoleName is a directory-level role assignment. Holding a role globally does
// not by itself authorize a workflow action; the workflow resolver also checks
// the role against the specific request being acted on.
type RoleName string

const (
	RoleStaff              RoleName = "STAFF"
	RoleHeadOfDepartment   RoleName = "HEAD_OF_DEPARTMENT"
	RoleDivisionalDirector RoleName = "DIVISIONAL_DIRECTOR"
	RoleICTDirector        RoleName = "ICT_DIRECTOR"
	RoleHeadOfIT           RoleName = "HEAD_OF_IT"
	RoleICTOfficer         RoleName = "ICT_OFFICER"
	RoleAdmin              RoleName = "ADMIN"
)

type User struct {
	ID           int32      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PhoneNumber  string     `json:"phone_number"`
	PFNumber     string     `json:"pf_number"`
	PasswordHash string     `json:"-"`
	DepartmentID int32      `json:"department_id"`
	Roles        []RoleName `json:"roles"`
	Status       UserStatus `json:"status"`
	CreatedOn    string     `json:"created_on"`
	UpdatedOn    string     `json:"updated_on"`
}

func (u *User) HasRole(role RoleName) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
