package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/chat"
	"github.com/trezcool/placement/core/opportunity"
	"github.com/trezcool/placement/core/reminder"
	"github.com/trezcool/placement/core/resume"
	"github.com/trezcool/placement/core/session"
	"github.com/trezcool/placement/core/settings"
	notifysvc "github.com/trezcool/placement/services/notify"
)

type (
	Options struct {
		Conf          *core.Config
		Logger        core.Logger
		Validate      *validator.Validate
		Translator    ut.Translator
		Session       *session.Manager
		Reminders     *reminder.Service
		Chat          *chat.Service
		Opportunities *opportunity.Service
		Settings      *settings.Service
		Resume        *resume.Service
		// Hub is optional; without it /v1/events is not served.
		Hub *notifysvc.Hub
	}

	Server struct {
		opts    Options
		app     *echo.Echo
		threads *chatThreads
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(opts Options) *Server {
	s := &Server{
		opts:    opts,
		app:     echo.New(),
		threads: newChatThreads(opts.Chat),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(gateMiddleware(s.opts.Session))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	if s.opts.Hub != nil {
		v1.GET("/events", s.events)
	}

	registerSessionAPI(s.app, v1, s.opts.Session, s.threads, s.opts.Validate, s.opts.Translator)
	registerStudentAPI(s.app, v1, s.opts.Reminders, s.opts.Opportunities, s.opts.Resume, s.opts.Settings, s.threads)
	registerAdminAPI(s.app, v1, s.opts.Reminders, s.opts.Opportunities, s.opts.Chat, s.opts.Settings)
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	if err := s.app.Start(s.opts.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "serving api")
	}
	return nil
}

// Shutdown cancels pending chat replies and stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.threads.closeAll()
	return s.app.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// home is a fallback: the gate redirects `/` for every resolved session.
func (s *Server) home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, newSessionResponse(s.opts.Session.Current()))
}

func (s *Server) events(ctx echo.Context) error {
	return s.opts.Hub.ServeWS(ctx.Response(), ctx.Request())
}
