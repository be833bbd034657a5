package auth

import (
	"github.com/trezcool/gradeportal/core/session"
	"github.com/trezcool/gradeportal/core/user"
)

// Paths
const (
	PathRoot           = "/"
	PathLogin          = "/login"
	PathLogout         = "/logout"
	PathVerifyEmail    = "/verify-email"
	PathDashboard      = "/dashboard"
	PathGrades         = "/grades"
	PathTeacherCourses = "/teacher/courses"
	PathGradeEntry     = "/teacher/grade-entry"
	PathUserManagement = "/admin/user-management"
)

type Requirement struct {
	public bool
	role   user.Role
}

var (
	Public  = Requirement{public: true}
	AnyRole = Requirement{}
)

func RequireRole(role user.Role) Requirement { return Requirement{role: role} }

func (req Requirement) IsPublic() bool { return req.public }

// Role returns the required role; empty when any role is accepted.
func (req Requirement) Role() user.Role { return req.role }

type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	Forbid
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	default:
		return "forbid"
	}
}

// Authorize decides whether `sess` may open a page with `req`.
// Anonymous users go to the login page; logged-in users with the wrong role are forbidden.
func Authorize(sess *session.Session, req Requirement) Decision {
	if req.public {
		return Allow
	}
	if sess == nil {
		return RedirectLogin
	}
	if req.role != "" && sess.Role != req.role {
		return Forbid
	}
	return Allow
}

// HomeRoute returns where `role` lands after logging in.
func HomeRoute(role user.Role) string {
	switch role {
	case user.RoleTeacher:
		return PathGradeEntry
	case user.RoleAdmin:
		return PathUserManagement
	default:
		return PathDashboard
	}
}

type Route struct {
	Path        string
	Title       string
	Requirement Requirement
	InNav       bool
}

var Routes = []Route{
	{Path: PathLogin, Title: "Login", Requirement: Public},
	{Path: PathVerifyEmail, Title: "Verify email", Requirement: Public},
	{Path: PathDashboard, Title: "Dashboard", Requirement: AnyRole, InNav: true},
	{Path: PathGrades, Title: "Grades", Requirement: AnyRole, InNav: true},
	{Path: PathTeacherCourses, Title: "Courses", Requirement: RequireRole(user.RoleTeacher), InNav: true},
	{Path: PathGradeEntry, Title: "Grade entry", Requirement: RequireRole(user.RoleTeacher), InNav: true},
	{Path: PathUserManagement, Title: "User management", Requirement: RequireRole(user.RoleAdmin), InNav: true},
}

// RouteFor returns the Route registered at `path`.
func RouteFor(path string) (Route, bool) {
	for _, r := range Routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Nav returns the navigation entries `sess` is allowed to open.
func Nav(sess *session.Session) []Route {
	nav := make([]Route, 0, len(Routes))
	for _, r := range Routes {
		if r.InNav && Authorize(sess, r.Requirement) == Allow {
			nav = append(nav, r)
		}
	}
	return nav
}
