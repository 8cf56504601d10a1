package tests

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	. "github.com/csnedu/appointments/apps/api/echo"
	"github.com/csnedu/appointments/core"
	"github.com/csnedu/appointments/core/booking"
	"github.com/csnedu/appointments/core/student"
	emailsvc "github.com/csnedu/appointments/services/email"
	logsvc "github.com/csnedu/appointments/services/logger"
	inmemsession "github.com/csnedu/appointments/storage/session/inmem"
	sqlxrepos "github.com/csnedu/appointments/storage/database/sqlx"
	"github.com/csnedu/appointments/tests"
)

type testApp struct {
	Server
	db      *sqlx.DB
	mailSvc *emailsvc.ConsoleServiceMock
	metrics *Metrics
}

func setup(t *testing.T, confs ...func(conf *core.Config)) testApp {
	t.Helper()

	conf := core.NewTestConfig()
	for _, fn := range confs {
		fn(conf)
	}
	logger := logsvc.NewRollbarLogger(io.Discard, "API", conf)

	// set up DB & repos
	db := testutil.PrepareDB(t)
	testutil.SeedReferenceData(t, db)
	stRepo := sqlxrepos.NewStudentRepository(db)
	bkRepo := sqlxrepos.NewBookingRepository(db)

	// set up services
	validate, translator := testutil.NewValidator()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	metrics := NewMetrics()

	app, err := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		DB:         db,
		StudentSvc: student.NewService(db, stRepo, validate, mailSvc),
		BookingSvc: booking.NewService(db, bkRepo, validate, mailSvc),
		Sessions:   inmemsession.NewStore(),
		Metrics:    metrics,
		Translator: translator,
	})
	require.NoError(t, err, "NewServer()")

	return testApp{Server: app, db: db, mailSvc: mailSvc, metrics: metrics}
}

// client carries the cookies set by the app between requests, like a browser.
type client struct {
	app     http.Handler
	cookies map[string]*http.Cookie
}

func newClient(app http.Handler) *client {
	return &client{app: app, cookies: make(map[string]*http.Cookie)}
}

func (c *client) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	c.app.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		c.cookies[cookie.Name] = cookie
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, path, nil)
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, path, form)
}

func (c *client) login(t *testing.T, username, password string) {
	t.Helper()

	rec := c.post("/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(t, http.StatusSeeOther, rec.Code, "login(): %s", rec.Body.String())
	require.Equal(t, "/dashboard", rec.Header().Get("Location"), "login()")
}

func signupForm() url.Values {
	return url.Values{
		"first_name": {"John"},
		"last_name":  {"Doe"},
		"email":      {"1234567890@student.csn.edu"},
		"username":   {"john7890"},
		"password":   {"1234567890"},
	}
}

func bookingForm(exam, location, date string) url.Values {
	return url.Values{
		"exams":    {exam},
		"location": {location},
		"date":     {date},
		"time":     {"10:30"},
	}
}

func checkRedirect(t *testing.T, rec *httptest.ResponseRecorder, wantLocation string) {
	t.Helper()

	require.Equal(t, http.StatusSeeOther, rec.Code, "body: %s", rec.Body.String())
	require.Equal(t, wantLocation, rec.Header().Get("Location"))
}
