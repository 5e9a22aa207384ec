package model

import "fmt"

// Role is the closed set of caller roles resolved by the identity layer.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleLecturer Role = "lecturer"
	RoleStudent  Role = "student"
)

// ParseRole converts a wire string into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleLecturer, RoleStudent:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// CanManageExams reports whether the role may author exams and grade
// responses. Students may only take exams.
func (r Role) CanManageExams() bool {
	return r == RoleAdmin || r == RoleLecturer
}
