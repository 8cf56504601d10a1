package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/csnedu/appointments/core"
	"github.com/csnedu/appointments/core/session"
	"github.com/csnedu/appointments/core/student"
)

var (
	msgSignupSuccess      = "Sign up successful! Welcome to CSN."
	msgInvalidCredentials = "Invalid username or password."
	msgLoggedOut          = "You have been logged out."
)

type studentApi struct {
	svc        student.Service
	sessions   session.Store
	conf       *core.Config
	logger     core.Logger
	translator ut.Translator
	metrics    *Metrics
	renderer   *templateRenderer
}

func registerStudentAPI(g *echo.Group, deps ServerDeps, renderer *templateRenderer, limiter *rateLimiter) {
	api := studentApi{
		svc:        deps.StudentSvc,
		sessions:   deps.Sessions,
		conf:       deps.Conf,
		logger:     deps.Logger,
		translator: deps.Translator,
		metrics:    deps.Metrics,
		renderer:   renderer,
	}

	g.GET("/signup", api.signupForm)
	g.POST("/signup", api.signup, limiter.middleware(api.tooManyAttempts("signup", "Sign up", api.metrics.Signups)))
	g.GET("/login", api.loginForm)
	g.POST("/login", api.login, limiter.middleware(api.tooManyAttempts("login", "Log in", api.metrics.Logins)))
	g.POST("/logout", api.logout)
}

// Handlers

func (api *studentApi) signupForm(ctx echo.Context) error {
	return api.renderer.page(ctx, http.StatusOK, "signup", page{Title: "Sign up", Form: student.NewStudent{}})
}

func (api *studentApi) signup(ctx echo.Context) error {
	sess, _ := getSession(ctx)
	sess.ClearMessages()

	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}

	if _, err := api.svc.Signup(ctx.Request().Context(), data); err != nil {
		code := http.StatusBadRequest
		msgs, ok := core.ValidationMessages(err, api.translator)
		if ok {
			api.metrics.Signups.WithLabelValues(resultInvalid).Inc()
		} else {
			internalError(ctx, api.logger, err, "signing up student")
			api.metrics.Signups.WithLabelValues(resultError).Inc()
			code, msgs = http.StatusInternalServerError, []string{core.InternalErrorMessage}
		}
		data.Password = ""
		return api.renderer.page(ctx, code, "signup", page{Title: "Sign up", Messages: msgs, Form: data})
	}

	api.metrics.Signups.WithLabelValues(resultSuccess).Inc()
	sess.SetSuccess(msgSignupSuccess)
	return ctx.Redirect(http.StatusSeeOther, "/")
}

func (api *studentApi) loginForm(ctx echo.Context) error {
	if sess, ok := getSession(ctx); ok && sess.IsAuthenticated() {
		return ctx.Redirect(http.StatusSeeOther, "/dashboard")
	}
	return api.renderer.page(ctx, http.StatusOK, "login", page{Title: "Log in", Form: student.LoginRequest{}})
}

func (api *studentApi) login(ctx echo.Context) error {
	sess, _ := getSession(ctx)
	sess.ClearMessages()

	var data student.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}

	reqCtx := ctx.Request().Context()
	st, err := api.svc.Authenticate(reqCtx, data.Username, data.Password)
	if err != nil {
		code, msg := http.StatusUnauthorized, msgInvalidCredentials
		if errors.Cause(err) == student.ErrInvalidCredentials {
			api.metrics.Logins.WithLabelValues(resultInvalid).Inc()
		} else {
			internalError(ctx, api.logger, err, "authenticating student")
			api.metrics.Logins.WithLabelValues(resultError).Inc()
			code, msg = http.StatusInternalServerError, core.InternalErrorMessage
		}
		data.Password = ""
		return api.renderer.page(ctx, code, "login", page{Title: "Log in", Messages: []string{msg}, Form: data})
	}

	// new ID for the authenticated session
	if oldID := sess.Login(st.ID); oldID != "" {
		if err = api.sessions.Delete(reqCtx, oldID); err != nil {
			return errors.Wrap(err, "deleting anonymous session")
		}
	}
	api.metrics.Logins.WithLabelValues(resultSuccess).Inc()
	return ctx.Redirect(http.StatusSeeOther, "/dashboard")
}

func (api *studentApi) logout(ctx echo.Context) error {
	if sess, ok := getSession(ctx); ok {
		if err := api.sessions.Delete(ctx.Request().Context(), sess.ID); err != nil {
			return errors.Wrap(err, "deleting session")
		}
	}
	sess := session.New(api.conf.Session.TTL)
	sess.SetSuccess(msgLoggedOut)
	ctx.Set(contextSessionKey, sess)
	return ctx.Redirect(http.StatusSeeOther, "/")
}

// tooManyAttempts renders the form page with a 429 status.
func (api *studentApi) tooManyAttempts(tmpl, title string, counter *prometheus.CounterVec) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		counter.WithLabelValues(resultLimited).Inc()
		var form interface{} = student.LoginRequest{}
		if tmpl == "signup" {
			form = student.NewStudent{}
		}
		return api.renderer.page(ctx, http.StatusTooManyRequests, tmpl, page{
			Title:    title,
			Messages: []string{msgTooManyAttempts},
			Form:     form,
		})
	}
}
