package session

import (
	"strings"

	"github.com/trezcool/placement/core/user"
)

const LoginPath = "/login"

// Decision is what navigation should do with a request for a path.
type Decision struct {
	Allow    bool
	Loading  bool
	Redirect string
}

// RequiredRole returns the role a path is reserved to. API paths under /v1
// follow the same rule as the pages.
func RequiredRole(path string) (user.Role, bool) {
	p := strings.TrimPrefix(path, "/v1")
	for _, role := range user.AllRoles {
		home := role.Home()
		if p == home || strings.HasPrefix(p, home+"/") {
			return role, true
		}
	}
	return "", false
}

// Gate decides whether st may reach path. Access that is not allowed is
// redirected, never refused.
func Gate(st State, path string) Decision {
	if st.Status == Unresolved {
		return Decision{Loading: true}
	}
	role := st.Role()

	switch {
	case path == "" || path == "/":
		if role == "" {
			return Decision{Redirect: LoginPath}
		}
		return Decision{Redirect: role.Home()}
	case path == LoginPath:
		if role != "" {
			return Decision{Redirect: role.Home()}
		}
		return Decision{Allow: true}
	}

	required, protected := RequiredRole(path)
	switch {
	case !protected:
		return Decision{Allow: true}
	case role == "":
		return Decision{Redirect: LoginPath}
	case role != required:
		return Decision{Redirect: role.Home()}
	default:
		return Decision{Allow: true}
	}
}
