package tests

import (
	"net/http"
	"strings"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csnedu/appointments/core/booking"
	"github.com/csnedu/appointments/tests"
)

func Test_bookingApi_loginRequired(t *testing.T) {
	app := setup(t)

	for _, path := range []string{"/dashboard", "/appointment"} {
		t.Run(path, func(t *testing.T) {
			c := newClient(app)
			checkRedirect(t, c.get(path), "/login")
			assert.Contains(t, c.get("/login").Body.String(), "You must be logged in to book an appointment.")
		})
	}

	t.Run("POST /appointment", func(t *testing.T) {
		checkRedirect(t, newClient(app).post("/appointment", bookingForm("CS 202", "Henderson", "2099-01-01")), "/login")
		assert.Zero(t, testutil.CountRows(t, app.db, "registrations"))
	})
}

func Test_bookingApi_appointmentForm(t *testing.T) {
	app := setup(t)
	testutil.CreateStudent(t, app.db, "John Doe", "1234567890@student.csn.edu", "john7890", "1234567890")
	c := newClient(app)
	c.login(t, "john7890", "1234567890")

	rec := c.get("/appointment")
	require.Equal(t, http.StatusOK, rec.Code)
	for _, loc := range booking.ReferenceLocations {
		assert.Contains(t, rec.Body.String(), loc.Name)
	}
	for _, exam := range booking.ReferenceExams {
		assert.Contains(t, rec.Body.String(), exam)
	}
}

func Test_bookingApi_book(t *testing.T) {
	app := setup(t)
	testutil.CreateStudent(t, app.db, "John Doe", "1234567890@student.csn.edu", "john7890", "1234567890")
	c := newClient(app)
	c.login(t, "john7890", "1234567890")

	nextWeek := time.Now().AddDate(0, 0, 7).Format(booking.DateLayout)

	tests := []struct {
		name     string
		exam     string
		location string
		date     string
		wantMsg  string
	}{
		{name: "unknown exam", exam: "CS 999", location: "Henderson", date: nextWeek, wantMsg: "Invalid exam or location selected."},
		{name: "unknown location", exam: "CS 202", location: "Reno", date: nextWeek, wantMsg: "Invalid exam or location selected."},
		{name: "past date", exam: "CS 202", location: "Henderson", date: "2001-01-01", wantMsg: "Date cannot be in the past"},
		{name: "missing exam", exam: "", location: "Henderson", date: nextWeek, wantMsg: "Exam is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.post("/appointment", bookingForm(tt.exam, tt.location, tt.date))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
		})
	}
	require.Zero(t, testutil.CountRows(t, app.db, "registrations"))

	t.Run("success", func(t *testing.T) {
		checkRedirect(t, c.post("/appointment", bookingForm("CS 202", "Henderson", nextWeek)), "/dashboard")
		assert.Equal(t, 1, testutil.CountRows(t, app.db, "registrations"))

		rec := c.get("/dashboard")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Appointment successfully booked!")
		assert.Contains(t, body, "CS 202")
		assert.Contains(t, body, nextWeek)
		assert.Contains(t, body, "700 College Dr., Henderson, NV 89002")

		sent := app.mailSvc.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "booking_confirmed", sent[0].TemplateName)
	})

	t.Run("already registered", func(t *testing.T) {
		checkRedirect(t, c.post("/appointment", bookingForm("CS 202", "West Charleston", nextWeek)), "/cancellation")
		assert.Equal(t, 1, testutil.CountRows(t, app.db, "registrations"))

		rec := c.get("/cancellation")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "You are already registered for this exam.")
		assert.Contains(t, rec.Body.String(), "CS 202")
	})

	t.Run("dashboard ordering", func(t *testing.T) {
		checkRedirect(t, c.post("/appointment", bookingForm("ACC 201", "Henderson", nextWeek)), "/dashboard")

		body := c.get("/dashboard?ordering=-exam").Body.String()
		require.Contains(t, body, "ACC 201")
		assert.Less(t, strings.Index(body, "<td>CS 202</td>"), strings.Index(body, "<td>ACC 201</td>"))

		body = c.get("/dashboard?ordering=exam").Body.String()
		assert.Less(t, strings.Index(body, "<td>ACC 201</td>"), strings.Index(body, "<td>CS 202</td>"))
	})

	assert.Equal(t, float64(2), promtest.ToFloat64(app.metrics.Bookings.WithLabelValues("success")))
	assert.Equal(t, float64(1), promtest.ToFloat64(app.metrics.Bookings.WithLabelValues("conflict")))
	assert.Equal(t, float64(4), promtest.ToFloat64(app.metrics.Bookings.WithLabelValues("invalid")))
}

func Test_bookingApi_cancellation(t *testing.T) {
	app := setup(t)

	rec := newClient(app).get("/cancellation")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cancellation")
	assert.NotContains(t, rec.Body.String(), "Your appointments")
}
