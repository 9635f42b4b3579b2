package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/trezcool/placement/apps/api/echo"
	"github.com/trezcool/placement/core/chat"
	"github.com/trezcool/placement/core/opportunity"
	"github.com/trezcool/placement/core/reminder"
	"github.com/trezcool/placement/core/resume"
	"github.com/trezcool/placement/core/session"
	"github.com/trezcool/placement/core/settings"
	"github.com/trezcool/placement/core/user"
	testutil "github.com/trezcool/placement/tests"
)

type app struct {
	*Server
	env           *testutil.Env
	session       *session.Manager
	reminders     *reminder.Service
	opportunities *opportunity.Service
	chat          *chat.Service
}

func setup(t *testing.T) *app {
	t.Helper()
	env := testutil.NewEnv(t)
	ctx := context.Background()

	mgr := session.NewManager(session.Options{
		KV:       env.KV,
		Users:    env.Users,
		IDP:      session.NewMockIdentityProvider(env.Conf.Session.FederationKey, env.Conf.Session.FederationExpires, env.Conf.AppName),
		Sleeper:  env.Sched,
		Logger:   env.Logger,
		Notifier: env.Notifier,
	})
	mgr.Init(ctx)

	reminders := reminder.NewService(reminder.Options{
		KV: env.KV, Clock: env.Sched, Validate: env.Validate, Translator: env.Translator, Logger: env.Logger, Notifier: env.Notifier,
	})
	chatSvc := chat.NewService(chat.Options{
		KV: env.KV, Scheduler: env.Sched, Conf: env.Conf.Chat, Logger: env.Logger, Notifier: env.Notifier,
	})
	opps := opportunity.NewService(opportunity.Options{
		KV: env.KV, Validate: env.Validate, Translator: env.Translator, Logger: env.Logger, Notifier: env.Notifier,
	})
	settingsSvc := settings.NewService(settings.Options{
		KV: env.KV, Session: mgr, Users: env.Users, Validate: env.Validate, Translator: env.Translator, Logger: env.Logger, Notifier: env.Notifier,
	})
	resumeSvc := resume.NewService(resume.Options{
		KV: env.KV, Settings: settingsSvc, Logger: env.Logger, Notifier: env.Notifier,
	})

	_, err := opps.Seed(ctx)
	require.NoError(t, err)
	_, err = chatSvc.SeedInbox(ctx)
	require.NoError(t, err)

	srv := NewServer(Options{
		Conf:          env.Conf,
		Logger:        env.Logger,
		Validate:      env.Validate,
		Translator:    env.Translator,
		Session:       mgr,
		Reminders:     reminders,
		Chat:          chatSvc,
		Opportunities: opps,
		Settings:      settingsSvc,
		Resume:        resumeSvc,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return &app{Server: srv, env: env, session: mgr, reminders: reminders, opportunities: opps, chat: chatSvc}
}

// loginAs signs the demo account holding role in.
func (a *app) loginAs(t *testing.T, role user.Role) user.User {
	t.Helper()
	usr, err := a.session.LoginWithProvider(context.Background(), session.ProviderGoogle, role)
	require.NoError(t, err)
	return usr
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name         string
	method       string
	path         string
	body         []byte
	wantCode     int
	wantData     []byte
	wantLocation string
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func (a *app) do(method, path string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newRequest(method, path, data...)
	a.ServeHTTP(rec, req)
	return rec
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func unmarshall(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshall() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantLocation != "" {
		if loc := rec.Header().Get("Location"); loc != tt.wantLocation {
			t.Errorf("failed! location = %q; wantLocation %q", loc, tt.wantLocation)
		}
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, a *app, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			a.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
