package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/placement/core/user"
)

func TestRequiredRole(t *testing.T) {
	tests := []struct {
		path      string
		wantRole  user.Role
		protected bool
	}{
		{path: "/student", wantRole: user.RoleStudent, protected: true},
		{path: "/student/reminders", wantRole: user.RoleStudent, protected: true},
		{path: "/v1/student/chat", wantRole: user.RoleStudent, protected: true},
		{path: "/admin", wantRole: user.RoleAdmin, protected: true},
		{path: "/v1/admin/opportunities/3", wantRole: user.RoleAdmin, protected: true},
		{path: "/students", protected: false},
		{path: "/login", protected: false},
		{path: "/v1/session", protected: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			role, protected := RequiredRole(tt.path)
			assert.Equal(t, tt.protected, protected)
			assert.Equal(t, tt.wantRole, role)
		})
	}
}

func TestGate(t *testing.T) {
	student := &user.User{ID: "s1", Role: user.RoleStudent}
	admin := &user.User{ID: "a1", Role: user.RoleAdmin}

	unresolved := State{Status: Unresolved, IsLoading: true}
	anonymous := State{Status: Anonymous}
	asStudent := State{Status: Authenticated, User: student}
	asAdmin := State{Status: Authenticated, User: admin}

	tests := []struct {
		name  string
		state State
		path  string
		want  Decision
	}{
		{name: "unresolved waits", state: unresolved, path: "/admin", want: Decision{Loading: true}},
		{name: "anonymous root", state: anonymous, path: "/", want: Decision{Redirect: "/login"}},
		{name: "student root", state: asStudent, path: "/", want: Decision{Redirect: "/student"}},
		{name: "admin root", state: asAdmin, path: "/", want: Decision{Redirect: "/admin"}},
		{name: "anonymous login page", state: anonymous, path: "/login", want: Decision{Allow: true}},
		{name: "signed-in login page", state: asAdmin, path: "/login", want: Decision{Redirect: "/admin"}},
		{name: "anonymous on admin", state: anonymous, path: "/admin", want: Decision{Redirect: "/login"}},
		{name: "anonymous on student page", state: anonymous, path: "/student/chat", want: Decision{Redirect: "/login"}},
		{name: "student on admin", state: asStudent, path: "/admin", want: Decision{Redirect: "/student"}},
		{name: "admin on student api", state: asAdmin, path: "/v1/student/reminders", want: Decision{Redirect: "/admin"}},
		{name: "student on own page", state: asStudent, path: "/student/reminders", want: Decision{Allow: true}},
		{name: "admin on own page", state: asAdmin, path: "/admin/opportunities", want: Decision{Allow: true}},
		{name: "public path", state: anonymous, path: "/v1/session", want: Decision{Allow: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Gate(tt.state, tt.path))
		})
	}
}
