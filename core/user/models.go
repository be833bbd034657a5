package user

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradeportal/core"
)

// Roles
const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
	RoleAdmin   Role = "ADMIN"
)

var (
	AllRoles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

	ErrInvalidRole = errors.New("invalid role")

	roleLabels = map[Role]string{
		RoleStudent: "Student",
		RoleTeacher: "Teacher",
		RoleAdmin:   "Admin",
	}
)

type Role string

// ParseRole returns the Role named by `s` or ErrInvalidRole.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.Valid() {
		return "", ErrInvalidRole
	}
	return role, nil
}

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

func (r Role) Label() string {
	if label, ok := roleLabels[r]; ok {
		return label
	}
	return string(r)
}

func (r Role) String() string { return string(r) }

// User is the client copy of a backend user; optional fields are nil when the backend omits them.
type User struct {
	ID        int     `json:"id"`
	Username  string  `json:"username"`
	RealName  string  `json:"realName"`
	Role      Role    `json:"role"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	StudentID *string `json:"studentId,omitempty"`
	IsActive  bool    `json:"isActive"`
}

func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsStudent() bool { return u.Role == RoleStudent }

// EmailValue returns the email or "" when absent.
func (u User) EmailValue() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username  string  `json:"username" validate:"required"`
	Password  string  `json:"password" validate:"required"`
	RealName  string  `json:"realName" validate:"required"`
	Role      Role    `json:"role" validate:"required,role"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty"`
	StudentID *string `json:"studentId,omitempty"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Username = core.CleanString(nu.Username)
	nu.RealName = core.CleanString(nu.RealName)
	nu.Email = cleanOptional(nu.Email, true /* lower */)
	nu.Phone = cleanOptional(nu.Phone)
	nu.StudentID = cleanOptional(nu.StudentID)
	return validate.Struct(nu)
}

// Registration is the self sign-up form; new accounts are students pending email verification.
// Only presence and the password confirmation are checked, see PasswordAdvice for the policy.
type Registration struct {
	Username        string `json:"username" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	RealName        string `json:"realName" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (r *Registration) Validate(validate *validator.Validate) error {
	r.Username = core.CleanString(r.Username)
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.RealName = core.CleanString(r.RealName)
	return validate.Struct(r)
}

type UpdateStatus struct {
	IsActive bool `json:"isActive"`
}

type Counts struct {
	Total  int
	Active int
	Admins int
}

// Count tallies total, active and admin users.
func Count(users []User) Counts {
	c := Counts{Total: len(users)}
	for _, u := range users {
		if u.IsActive {
			c.Active++
		}
		if u.IsAdmin() {
			c.Admins++
		}
	}
	return c
}

// Filter does a case-insensitive match of `term` on one of User.Username, User.RealName or User.Email.
func Filter(users []User, term string) []User {
	filtered := make([]User, 0, len(users))
	for _, u := range users {
		if core.MatchesAny(term, u.Username, u.RealName, u.EmailValue()) {
			filtered = append(filtered, u)
		}
	}
	return filtered
}

func cleanOptional(s *string, lower ...bool) *string {
	if s == nil {
		return nil
	}
	cleaned := core.CleanString(*s, lower...)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
