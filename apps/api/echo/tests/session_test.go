package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/placement/apps/api/echo"
	"github.com/trezcool/placement/core/user"
)

func Test_gate_anonymous(t *testing.T) {
	a := setup(t)

	runHTTPTests(t, a, []httpTest{
		{name: "root", method: http.MethodGet, path: "/", wantCode: http.StatusSeeOther, wantLocation: "/login"},
		{name: "student page", method: http.MethodGet, path: "/student", wantCode: http.StatusSeeOther, wantLocation: "/login"},
		{name: "admin api", method: http.MethodGet, path: "/v1/admin/reminders", wantCode: http.StatusSeeOther, wantLocation: "/login"},
		{name: "student api write", method: http.MethodPost, path: "/v1/student/reminders", body: []byte(`{"title":"x"}`), wantCode: http.StatusSeeOther, wantLocation: "/login"},
		{name: "trailing slash", method: http.MethodGet, path: "/student/", wantCode: http.StatusSeeOther, wantLocation: "/login"},
		{
			name:     "login page",
			method:   http.MethodGet,
			path:     "/login",
			wantCode: http.StatusOK,
			wantData: []byte(`{"providers":["google","microsoft"],"roles":["student","admin"]}`),
		},
		{
			name:     "current session",
			method:   http.MethodGet,
			path:     "/v1/session",
			wantCode: http.StatusOK,
			wantData: []byte(`{"status":"anonymous","is_loading":false}`),
		},
	})
}

func Test_gate_roles(t *testing.T) {
	a := setup(t)
	a.loginAs(t, user.RoleStudent)

	runHTTPTests(t, a, []httpTest{
		{name: "root goes home", method: http.MethodGet, path: "/", wantCode: http.StatusSeeOther, wantLocation: "/student"},
		{name: "login goes home", method: http.MethodGet, path: "/login", wantCode: http.StatusSeeOther, wantLocation: "/student"},
		{name: "admin page", method: http.MethodGet, path: "/admin", wantCode: http.StatusSeeOther, wantLocation: "/student"},
		{name: "admin api", method: http.MethodDelete, path: "/v1/admin/opportunities/1", wantCode: http.StatusSeeOther, wantLocation: "/student"},
		{name: "own api", method: http.MethodGet, path: "/v1/student/reminders", wantCode: http.StatusOK, wantData: []byte(`[]`)},
	})

	_, err := a.opportunities.Get(context.Background(), 1)
	assert.NoError(t, err, "redirected requests change nothing")
}

func Test_gate_unresolved(t *testing.T) {
	a := setup(t)
	a.session.Close()

	rec := a.do(http.MethodGet, "/student")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	var resp SessionResponse
	unmarshall(t, rec, &resp)
	assert.Equal(t, "unresolved", resp.Status)
}

func Test_sessionApi_login(t *testing.T) {
	tests := []struct {
		httpTest
		wantStatus string
		wantHome   string
	}{
		{
			httpTest: httpTest{
				name:     "student",
				method:   http.MethodPost,
				path:     "/v1/session/login",
				body:     []byte(`{"email":"Student@Example.com","password":"x","role":"student"}`),
				wantCode: http.StatusOK,
			},
			wantStatus: "authenticated",
			wantHome:   "/student",
		},
		{
			httpTest: httpTest{
				name:     "wrong role",
				method:   http.MethodPost,
				path:     "/v1/session/login",
				body:     []byte(`{"email":"student@example.com","password":"x","role":"admin"}`),
				wantCode: http.StatusUnauthorized,
				wantData: marshallObj(t, httpErr{Error: "Invalid email or password"}),
			},
		},
		{
			httpTest: httpTest{
				name:     "unknown account",
				method:   http.MethodPost,
				path:     "/v1/session/login",
				body:     []byte(`{"email":"nobody@example.com","password":"x","role":"student"}`),
				wantCode: http.StatusUnauthorized,
				wantData: marshallObj(t, httpErr{Error: "Invalid email or password"}),
			},
		},
		{
			httpTest: httpTest{
				name:     "bad payload",
				method:   http.MethodPost,
				path:     "/v1/session/login",
				body:     []byte(`{"email":"nope","role":"recruiter"}`),
				wantCode: http.StatusBadRequest,
			},
		},
		{
			httpTest: httpTest{
				name:     "provider",
				method:   http.MethodPost,
				path:     "/v1/session/login/microsoft",
				body:     []byte(`{"role":"admin"}`),
				wantCode: http.StatusOK,
			},
			wantStatus: "authenticated",
			wantHome:   "/admin",
		},
		{
			httpTest: httpTest{
				name:     "unknown provider",
				method:   http.MethodPost,
				path:     "/v1/session/login/github",
				body:     []byte(`{"role":"admin"}`),
				wantCode: http.StatusBadRequest,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := setup(t)
			req, rec := newRequest(tt.method, tt.path, tt.body)
			a.ServeHTTP(rec, req)
			checkCodeAndData(t, tt.httpTest, rec)

			if tt.wantStatus == "" {
				assert.Equal(t, "anonymous", a.session.Current().Status.String())
				return
			}
			var resp SessionResponse
			unmarshall(t, rec, &resp)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantHome, resp.Home)
			if assert.NotNil(t, resp.User) {
				assert.NotEmpty(t, resp.User.ID)
			}
		})
	}
}

func Test_sessionApi_logout(t *testing.T) {
	a := setup(t)
	a.loginAs(t, user.RoleAdmin)

	rec := a.do(http.MethodPost, "/v1/session/logout")
	assert.Equal(t, http.StatusOK, rec.Code)
	var resp SessionResponse
	unmarshall(t, rec, &resp)
	assert.Equal(t, "anonymous", resp.Status)

	rec = a.do(http.MethodGet, "/admin")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = a.do(http.MethodPost, "/v1/session/logout")
	assert.Equal(t, http.StatusOK, rec.Code, "logging out twice is fine")
}
