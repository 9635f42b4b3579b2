package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/session"
	"github.com/trezcool/placement/core/user"
)

type (
	LoginRequest struct {
		Email    string    `json:"email" validate:"required,email"`
		Password string    `json:"password"`
		Role     user.Role `json:"role" validate:"required,oneof=student admin"`
	}

	ProviderLoginRequest struct {
		Role user.Role `json:"role" validate:"required,oneof=student admin"`
	}

	SessionResponse struct {
		Status    string     `json:"status"`
		User      *user.User `json:"user,omitempty"`
		IsLoading bool       `json:"is_loading"`
		Error     string     `json:"error,omitempty"`
		Home      string     `json:"home,omitempty"`
	}

	LoginPageResponse struct {
		Providers []string    `json:"providers"`
		Roles     []user.Role `json:"roles"`
	}
)

func (r LoginRequest) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.ValidateStruct(validate, translator, r, "invalid login request")
}

func (r ProviderLoginRequest) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.ValidateStruct(validate, translator, r, "invalid login request")
}

func newSessionResponse(st session.State) SessionResponse {
	resp := SessionResponse{
		Status:    st.Status.String(),
		User:      st.User,
		IsLoading: st.IsLoading,
		Error:     st.Error,
	}
	if role := st.Role(); role != "" {
		resp.Home = role.Home()
	}
	return resp
}

type sessionApi struct {
	mgr        *session.Manager
	threads    *chatThreads
	validate   *validator.Validate
	translator ut.Translator
}

func registerSessionAPI(
	root *echo.Echo,
	g *echo.Group,
	mgr *session.Manager,
	threads *chatThreads,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := sessionApi{
		mgr:        mgr,
		threads:    threads,
		validate:   validate,
		translator: translator,
	}

	root.GET(session.LoginPath, api.loginPage)

	sg := g.Group("/session")
	sg.GET("", api.current)
	sg.POST("/login", api.login)
	sg.POST("/login/:provider", api.loginWithProvider)
	sg.POST("/logout", api.logout)
}

// Handlers

func (api *sessionApi) loginPage(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, LoginPageResponse{
		Providers: []string{session.ProviderGoogle, session.ProviderMicrosoft},
		Roles:     user.AllRoles,
	})
}

func (api *sessionApi) current(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, newSessionResponse(api.mgr.Current()))
}

// failed turns a login failure into a 401 carrying the session's error message.
func (api *sessionApi) failed(err error) error {
	if errors.Cause(err) == session.ErrInvalidCredentials {
		return echo.NewHTTPError(http.StatusUnauthorized, api.mgr.Current().Error)
	}
	return err
}

func (api *sessionApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	if _, err := api.mgr.Login(ctx.Request().Context(), data.Email, data.Password, data.Role); err != nil {
		return api.failed(err)
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(api.mgr.Current()))
}

func (api *sessionApi) loginWithProvider(ctx echo.Context) error {
	var data ProviderLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProviderLoginRequest")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	if _, err := api.mgr.LoginWithProvider(ctx.Request().Context(), ctx.Param("provider"), data.Role); err != nil {
		return api.failed(err)
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(api.mgr.Current()))
}

func (api *sessionApi) logout(ctx echo.Context) error {
	if usr, err := getContextUser(ctx); err == nil {
		api.threads.close(usr.ID)
	}
	api.mgr.Logout(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, newSessionResponse(api.mgr.Current()))
}
