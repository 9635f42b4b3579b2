package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/placement/apps/api/echo"
	"github.com/trezcool/placement/core/chat"
	"github.com/trezcool/placement/core/opportunity"
	"github.com/trezcool/placement/core/user"
)

func Test_adminApi_broadcasts(t *testing.T) {
	a := setup(t)
	a.loginAs(t, user.RoleAdmin)

	runHTTPTests(t, a, []httpTest{
		{
			name:     "add",
			method:   http.MethodPost,
			path:     "/v1/admin/reminders",
			body:     []byte(`{"title":"Career fair","deadline":"2025-04-22"}`),
			wantCode: http.StatusCreated,
			wantData: []byte(`{"id":1,"title":"Career fair","deadline":"2025-04-22","is_completed":false,"origin":"admin-broadcast"}`),
		},
		{
			name:     "bad deadline",
			method:   http.MethodPost,
			path:     "/v1/admin/reminders",
			body:     []byte(`{"title":"Career fair","deadline":"next week"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "update",
			method:   http.MethodPut,
			path:     "/v1/admin/reminders/1",
			body:     []byte(`{"title":"Spring career fair","deadline":"2025-04-23"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"id":1,"title":"Spring career fair","deadline":"2025-04-23","is_completed":false,"origin":"admin-broadcast"}`),
		},
		{name: "update unknown", method: http.MethodPut, path: "/v1/admin/reminders/7", body: []byte(`{"title":"x"}`), wantCode: http.StatusNotFound},
		{name: "toggle", method: http.MethodPost, path: "/v1/admin/reminders/1/toggle", wantCode: http.StatusOK},
		{name: "delete", method: http.MethodDelete, path: "/v1/admin/reminders/1", wantCode: http.StatusNoContent},
		{name: "list", method: http.MethodGet, path: "/v1/admin/reminders", wantCode: http.StatusOK, wantData: []byte(`[]`)},
	})
}

func Test_adminApi_opportunities(t *testing.T) {
	a := setup(t)
	a.loginAs(t, user.RoleAdmin)

	input := opportunity.Input{
		Title:       "Data Analyst Intern",
		Company:     "Acme Analytics",
		Location:    "Remote",
		Description: "Work with the data team.",
		Type:        opportunity.TypeInternship,
		Salary:      "$25 per hour",
		Skills:      []string{"SQL", "Python"},
		Deadline:    "2025-06-01",
	}

	rec := a.do(http.MethodPost, "/v1/admin/opportunities", marshallObj(t, input))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var opp opportunity.Opportunity
	unmarshall(t, rec, &opp)
	assert.Equal(t, 6, opp.ID)
	assert.Equal(t, opportunity.LogoURL("Acme Analytics"), opp.Logo)

	missing := input
	missing.Salary = ""
	noSkills := input
	noSkills.Skills = nil

	runHTTPTests(t, a, []httpTest{
		{name: "missing field", method: http.MethodPost, path: "/v1/admin/opportunities", body: marshallObj(t, missing), wantCode: http.StatusBadRequest},
		{
			name:     "no skills",
			method:   http.MethodPost,
			path:     "/v1/admin/opportunities",
			body:     marshallObj(t, noSkills),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"error":"Please add at least one skill","fields":{"skills":"add at least one skill"}}`),
		},
		{name: "retrieve", method: http.MethodGet, path: "/v1/admin/opportunities/6", wantCode: http.StatusOK, wantData: marshallObj(t, opp)},
		{name: "retrieve unknown", method: http.MethodGet, path: "/v1/admin/opportunities/60", wantCode: http.StatusNotFound},
		{name: "update unknown", method: http.MethodPut, path: "/v1/admin/opportunities/60", body: marshallObj(t, input), wantCode: http.StatusNotFound},
		{name: "delete", method: http.MethodDelete, path: "/v1/admin/opportunities/2", wantCode: http.StatusNoContent},
		{name: "delete again", method: http.MethodDelete, path: "/v1/admin/opportunities/2", wantCode: http.StatusNotFound},
	})

	rec = a.do(http.MethodGet, "/v1/admin/opportunities?type=internship&ordering=company")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []opportunity.Opportunity
	unmarshall(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "Data Analyst Intern", items[0].Title)

	rec = a.do(http.MethodGet, "/admin")
	require.Equal(t, http.StatusOK, rec.Code)
	var dash AdminDashboard
	unmarshall(t, rec, &dash)
	assert.Len(t, dash.Opportunities, 5)
	assert.Equal(t, 3, dash.Conversations)
}

func Test_adminApi_conversations(t *testing.T) {
	a := setup(t)
	a.loginAs(t, user.RoleAdmin)

	rec := a.do(http.MethodGet, "/v1/admin/conversations?search=jo")
	require.Equal(t, http.StatusOK, rec.Code)
	var convs []chat.Conversation
	unmarshall(t, rec, &convs)
	require.Len(t, convs, 2)
	assert.Equal(t, "John Student", convs[0].Name)

	rec = a.do(http.MethodPost, "/v1/admin/conversations/s2/messages", []byte(`{"text":"Happy to help!"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp SendResponse
	unmarshall(t, rec, &resp)
	require.NotNil(t, resp.Message)
	assert.Equal(t, 2, resp.Message.ID)
	assert.Equal(t, "Admin User", resp.Message.DisplayName)

	runHTTPTests(t, a, []httpTest{
		{name: "blank", method: http.MethodPost, path: "/v1/admin/conversations/s2/messages", body: []byte(`{"text":" "}`), wantCode: http.StatusOK, wantData: []byte(`{"sent":false}`)},
		{name: "unknown student", method: http.MethodPost, path: "/v1/admin/conversations/s9/messages", body: []byte(`{"text":"hi"}`), wantCode: http.StatusNotFound},
		{name: "unknown conversation", method: http.MethodGet, path: "/v1/admin/conversations/s9", wantCode: http.StatusNotFound},
	})

	conv, err := a.chat.Conversation(context.Background(), "s2")
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 2)
}
