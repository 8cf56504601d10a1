package tests

import (
	"net/http"
	"net/url"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csnedu/appointments/core"
	"github.com/csnedu/appointments/tests"
)

func Test_studentApi_signup(t *testing.T) {
	app := setup(t)

	tests := []struct {
		name     string
		form     func(f url.Values)
		wantCode int
		wantMsgs []string
	}{
		{
			name:     "invalid name",
			form:     func(f url.Values) { f.Set("first_name", "J0hn"); f.Set("username", "j0hn7890") },
			wantCode: http.StatusBadRequest,
			wantMsgs: []string{"First name must only contain letters A-Z"},
		},
		{
			name:     "invalid email",
			form:     func(f url.Values) { f.Set("email", "john@gmail.com") },
			wantCode: http.StatusBadRequest,
			wantMsgs: []string{"Email must be NSHE#@student.csn.edu", "Password must be your 10-digit NSHE number"},
		},
		{
			name:     "invalid username",
			form:     func(f url.Values) { f.Set("username", "johndoe") },
			wantCode: http.StatusBadRequest,
			wantMsgs: []string{"Username must be first name and last four of NSHE number"},
		},
		{
			name:     "uppercase username",
			form:     func(f url.Values) { f.Set("username", "JOHN7890") },
			wantCode: http.StatusBadRequest,
			wantMsgs: []string{"Username must be first name and last four of NSHE number"},
		},
		{
			name:     "uppercase email",
			form:     func(f url.Values) { f.Set("email", "1234567890@STUDENT.CSN.EDU") },
			wantCode: http.StatusBadRequest,
			wantMsgs: []string{"Email must be NSHE#@student.csn.edu"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := signupForm()
			tt.form(form)

			rec := newClient(app).post("/signup", form)
			require.Equal(t, tt.wantCode, rec.Code)
			for _, msg := range tt.wantMsgs {
				assert.Contains(t, rec.Body.String(), msg)
			}
		})
	}
	assert.Equal(t, 0, testutil.CountRows(t, app.db, "students"), "nothing persisted")

	t.Run("success", func(t *testing.T) {
		c := newClient(app)
		checkRedirect(t, c.post("/signup", signupForm()), "/")
		assert.Equal(t, 1, testutil.CountRows(t, app.db, "students"))
		assert.Equal(t, 1, testutil.CountRows(t, app.db, "authentication"))
		assert.Len(t, app.mailSvc.SentMessages(), 1, "welcome mail")

		// the notice is shown once
		rec := c.get("/")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Sign up successful! Welcome to CSN.")
		assert.NotContains(t, c.get("/").Body.String(), "Sign up successful!")
	})

	t.Run("duplicate", func(t *testing.T) {
		rec := newClient(app).post("/signup", signupForm())
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "An account with this email already exists")
		assert.Equal(t, 1, testutil.CountRows(t, app.db, "students"))
	})

	assert.Equal(t, float64(1), promtest.ToFloat64(app.metrics.Signups.WithLabelValues("success")))
	assert.Equal(t, float64(6), promtest.ToFloat64(app.metrics.Signups.WithLabelValues("invalid")))
}

func Test_studentApi_login(t *testing.T) {
	app := setup(t)
	testutil.CreateStudent(t, app.db, "John Doe", "1234567890@student.csn.edu", "john7890", "1234567890")

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "unknown username", username: "jane7890", password: "1234567890"},
		{name: "wrong password", username: "john7890", password: "0000000000"},
		{name: "empty", username: "", password: ""},
		{name: "mixed case username", username: "John7890", password: "1234567890"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newClient(app).post("/login", url.Values{"username": {tt.username}, "password": {tt.password}})
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "Invalid username or password.")
		})
	}

	t.Run("success", func(t *testing.T) {
		c := newClient(app)
		c.login(t, "john7890", "1234567890")

		rec := c.get("/dashboard")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Hello John Doe")

		// already logged in
		checkRedirect(t, c.get("/login"), "/dashboard")
	})

	t.Run("session rotated", func(t *testing.T) {
		c := newClient(app)
		c.get("/dashboard") // anonymous session holding the login notice
		anonymous := *c.cookies["csn_session"]

		c.login(t, "john7890", "1234567890")
		require.NotEqual(t, anonymous.Value, c.cookies["csn_session"].Value)

		// the anonymous session is gone
		c.cookies["csn_session"] = &anonymous
		checkRedirect(t, c.get("/dashboard"), "/login")
	})

	t.Run("logout", func(t *testing.T) {
		c := newClient(app)
		c.login(t, "john7890", "1234567890")

		checkRedirect(t, c.post("/logout", url.Values{}), "/")
		assert.Contains(t, c.get("/").Body.String(), "You have been logged out.")
		checkRedirect(t, c.get("/dashboard"), "/login")
	})

	t.Run("tampered cookie", func(t *testing.T) {
		c := newClient(app)
		c.cookies["csn_session"] = &http.Cookie{Name: "csn_session", Value: "not-a-token"}
		checkRedirect(t, c.get("/dashboard"), "/login")
	})
}

func Test_studentApi_rateLimit(t *testing.T) {
	app := setup(t, func(conf *core.Config) { conf.Server.RateLimitPerMinute = 2 })
	c := newClient(app)
	form := url.Values{"username": {"john7890"}, "password": {"0000000000"}}

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusUnauthorized, c.post("/login", form).Code)
	}
	rec := c.post("/login", form)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many attempts.")

	// the forms are not limited
	assert.Equal(t, http.StatusOK, c.get("/login").Code)
	assert.Equal(t, float64(1), promtest.ToFloat64(app.metrics.Logins.WithLabelValues("rate_limited")))
}
