package echoapi

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/csnedu/appointments/core"
	"github.com/csnedu/appointments/core/session"
	"github.com/csnedu/appointments/core/student"
)

var (
	contextSessionKey = "session"
	contextStudentKey = "student"

	msgLoginRequired = "You must be logged in to book an appointment."
)

// signSessionID returns the cookie value carrying the session ID: an HS256-signed JWT.
func signSessionID(conf *core.Config, s *session.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    conf.AppName,
		Subject:   s.ID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(conf.SecretKey))
	return ss, errors.Wrap(err, "signing session token")
}

func parseSessionID(conf *core.Config, token string) (string, error) {
	claims := new(jwt.RegisteredClaims)
	_, err := jwt.ParseWithClaims(
		token, claims,
		func(*jwt.Token) (interface{}, error) { return []byte(conf.SecretKey), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(conf.AppName),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// loadSession returns the session referenced by the request cookie, or a new one.
func loadSession(ctx echo.Context, store session.Store, conf *core.Config) (s *session.Session, stored bool, err error) {
	cookie, cErr := ctx.Cookie(conf.Session.CookieName)
	if cErr != nil || cookie.Value == "" {
		return session.New(conf.Session.TTL), false, nil
	}
	id, pErr := parseSessionID(conf, cookie.Value)
	if pErr != nil {
		return session.New(conf.Session.TTL), false, nil
	}

	s, err = store.Get(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == session.ErrNotFound {
			return session.New(conf.Session.TTL), false, nil
		}
		return nil, false, errors.Wrap(err, "loading session")
	}
	s.Touch(conf.Session.TTL)
	return s, true, nil
}

func setSessionCookie(ctx echo.Context, conf *core.Config, s *session.Session) error {
	token, err := signSessionID(conf, s)
	if err != nil {
		return err
	}
	ctx.SetCookie(&http.Cookie{
		Name:     conf.Session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   conf.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// sessionMiddleware stores the request's *session.Session in the echo.Context
// and persists it right before the response headers are written.
// New sessions holding nothing are neither stored nor sent.
func sessionMiddleware(store session.Store, conf *core.Config, logger core.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			s, stored, err := loadSession(ctx, store, conf)
			if err != nil {
				return err
			}
			ctx.Set(contextSessionKey, s)

			ctx.Response().Before(func() {
				// handlers may replace the session (logout)
				s, ok := getSession(ctx)
				if !ok || !s.Modified() {
					return
				}
				if !stored && !s.IsAuthenticated() && len(s.Messages) == 0 && s.Success == "" {
					return
				}
				if err := store.Save(ctx.Request().Context(), s); err != nil {
					logger.Error("saving session", errors.Wrap(err, "saving session"))
					return
				}
				if err := setSessionCookie(ctx, conf, s); err != nil {
					logger.Error("setting session cookie", err)
				}
			})
			return next(ctx)
		}
	}
}

func getSession(ctx echo.Context) (*session.Session, bool) {
	s, ok := ctx.Get(contextSessionKey).(*session.Session)
	return s, ok && s != nil
}

func getContextStudent(ctx echo.Context) (student.Student, bool) {
	st, ok := ctx.Get(contextStudentKey).(student.Student)
	return st, ok
}

// loadContextStudent loads the logged in student, if any, into the echo.Context.
func loadContextStudent(ctx echo.Context, svc student.Service) (student.Student, bool, error) {
	if st, ok := getContextStudent(ctx); ok {
		return st, true, nil
	}
	s, ok := getSession(ctx)
	if !ok || !s.IsAuthenticated() {
		return student.Student{}, false, nil
	}

	st, err := svc.GetByID(ctx.Request().Context(), s.StudentID)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound { // deleted meanwhile
			s.Logout()
			return student.Student{}, false, nil
		}
		return student.Student{}, false, errors.Wrap(err, "finding student by ID")
	}
	ctx.Set(contextStudentKey, st)
	return st, true, nil
}

// requireLogin redirects anonymous visitors to the login page.
func requireLogin(svc student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			_, ok, err := loadContextStudent(ctx, svc)
			if err != nil {
				return err
			}
			if !ok {
				if s, sOk := getSession(ctx); sOk {
					s.AddMessages(msgLoginRequired)
				}
				return ctx.Redirect(http.StatusSeeOther, "/login")
			}
			return next(ctx)
		}
	}
}
