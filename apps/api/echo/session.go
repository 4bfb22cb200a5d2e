package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edupro/schoolportal/core"
	"github.com/edupro/schoolportal/core/session"
)

var (
	contextSessionKey = "session"

	errSessNotFoundInCtx = errors.New("session object not found in echo.Context")
)

// sessionMiddleware is the hosting layer supplying the opaque session
// identifier: it reads the session cookie, loads (or creates) the session
// and makes it available to handlers via the echo.Context.
func sessionMiddleware(conf *core.Config, store session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			var sess *session.Session

			if cookie, err := ctx.Cookie(conf.Session.CookieName); err == nil && cookie.Value != "" {
				sess, err = store.GetSession(ctx.Request().Context(), cookie.Value)
				if err != nil && errors.Cause(err) != session.ErrNotFound {
					return errors.Wrap(err, "loading session")
				}
			}

			if sess == nil {
				sess = session.New()
				if err := store.SaveSession(ctx.Request().Context(), sess); err != nil {
					return errors.Wrap(err, "creating session")
				}
				ctx.SetCookie(&http.Cookie{
					Name:     conf.Session.CookieName,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

func getContextSession(ctx echo.Context) (*session.Session, error) {
	sess, ok := ctx.Get(contextSessionKey).(*session.Session)
	if !ok {
		return nil, errSessNotFoundInCtx
	}
	return sess, nil
}
