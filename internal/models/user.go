package models

// UserRole represents the roles carried by operator tokens.
type UserRole string

const (
	RoleOwner   UserRole = "OWNER"
	RoleStaff   UserRole = "STAFF"
	RoleTeacher UserRole = "TEACHER"
)

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Valid reports whether the role is known.
func (r UserRole) Valid() bool {
	return r == RoleOwner || r == RoleStaff || r == RoleTeacher
}
