package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/placement/core/session"
	"github.com/trezcool/placement/core/user"
)

const contextUserKey = "user"

// gateMiddleware applies session.Gate to every request. Requests the session
// may not make are redirected with 303 See Other.
func gateMiddleware(mgr *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			st := mgr.Current()
			decision := session.Gate(st, ctx.Request().URL.Path)
			switch {
			case decision.Loading:
				ctx.Response().Header().Set("Retry-After", "1")
				return ctx.JSON(http.StatusAccepted, newSessionResponse(st))
			case decision.Redirect != "":
				return ctx.Redirect(http.StatusSeeOther, decision.Redirect)
			}
			if st.User != nil {
				ctx.Set(contextUserKey, *st.User)
			}
			return next(ctx)
		}
	}
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}
