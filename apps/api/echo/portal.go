package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edupro/schoolportal/core"
	"github.com/edupro/schoolportal/core/payment"
	"github.com/edupro/schoolportal/core/session"
	"github.com/edupro/schoolportal/core/signup"
)

type portalApi struct {
	svc      *signup.Service
	sessions session.Store
}

func registerPortalAPI(g *echo.Group, sessionMW echo.MiddlewareFunc, svc *signup.Service, sessions session.Store) {
	api := portalApi{
		svc:      svc,
		sessions: sessions,
	}

	pg := g.Group("", sessionMW)

	pg.GET("/nav", api.nav)
	pg.POST("/nav", api.transition)
	pg.POST("/signup", api.signUp)
	pg.GET("/signup/return", api.completeSignup)
	pg.GET("/signup/cancel", api.cancelSignup)
	pg.POST("/signin", api.signIn)
	pg.POST("/logout", api.logout)
}

// Handlers

func (api *portalApi) nav(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	return ctx.JSON(http.StatusOK, newNavResponse(sess))
}

func (api *portalApi) transition(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var data TransitionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TransitionRequest")
	}

	if err := session.Transition(sess, session.Screen(data.Target)); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "target", Error: err.Error()})
	}
	if err := api.sessions.SaveSession(ctx.Request().Context(), sess); err != nil {
		return errors.Wrap(err, "saving session")
	}

	return ctx.JSON(http.StatusOK, newNavResponse(sess))
}

func (api *portalApi) signUp(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var data signup.NewSignup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSignup")
	}

	intent, err := api.svc.Start(ctx.Request().Context(), sess, data)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, SignupResponse{
		IntentID:    intent.ID,
		ApprovalURL: intent.ApprovalURL,
	})
}

func (api *portalApi) completeSignup(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	// PayPal return redirect params
	intentID := ctx.QueryParam("paymentId")
	payerID := ctx.QueryParam("PayerID")

	acct, intent, err := api.svc.Complete(ctx.Request().Context(), sess, intentID, payerID)
	if err != nil {
		return err
	}

	res := PaymentOutcomeResponse{Status: string(intent.Status), Screen: string(sess.CurrentScreen())}
	if intent.Status == payment.StatusApproved {
		res.Account = &acct
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *portalApi) cancelSignup(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	if err := api.svc.Cancel(ctx.Request().Context(), sess, ctx.QueryParam("paymentId")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, PaymentOutcomeResponse{
		Status: string(payment.StatusCancelled),
		Screen: string(sess.CurrentScreen()),
	})
}

func (api *portalApi) signIn(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var data signup.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}

	acct, err := api.svc.SignIn(ctx.Request().Context(), sess, data)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, SignInResponse{
		SchoolName: acct.SchoolName,
		Screen:     string(sess.CurrentScreen()),
	})
}

func (api *portalApi) logout(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	if err := api.svc.Logout(ctx.Request().Context(), sess); err != nil {
		return errors.Wrap(err, "logging out")
	}
	return ctx.NoContent(http.StatusNoContent)
}
