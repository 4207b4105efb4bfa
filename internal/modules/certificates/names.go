package certificates

import (
	"strings"

	"github.com/yungbote/neurobridge-certificates/internal/domain/user"
)

// Printed when nothing better is known. A certificate carrying any of these
// is refused.
const (
	DefaultInstructorName = "Instructor"
	DefaultStudentName    = "Estudiante"
	DefaultCourseTitle    = "Curso"
)

// displayName walks displayName, first+last, username and finally the role
// default.
func displayName(u *user.User, fallback string) string {
	if u == nil {
		return fallback
	}
	if name := collapseSpaces(u.DisplayName); name != "" {
		return name
	}
	if name := collapseSpaces(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	if name := collapseSpaces(u.Username); name != "" {
		return name
	}
	return fallback
}

func courseTitle(title string) string {
	if t := collapseSpaces(title); t != "" {
		return t
	}
	return DefaultCourseTitle
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
