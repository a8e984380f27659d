package enums

import "fmt"

// Role classifies a buyer for pricing purposes. Values match the labels
// stored in variant role-price maps.
type Role string

const (
	RolePlayer       Role = "PLAYER"
	RoleStudent      Role = "STUDENT"
	RoleStaffFaculty Role = "STAFF_FACULTY"
	RoleAlumni       Role = "ALUMNI"
	RoleOthers       Role = "OTHERS"
)

var validRoles = []Role{
	RolePlayer,
	RoleStudent,
	RoleStaffFaculty,
	RoleAlumni,
	RoleOthers,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
