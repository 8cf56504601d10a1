package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/csnedu/appointments/core"
	"github.com/csnedu/appointments/core/booking"
	"github.com/csnedu/appointments/core/student"
)

var (
	msgBooked            = "Appointment successfully booked!"
	msgAlreadyRegistered = "You are already registered for this exam."
	msgInvalidSelection  = "Invalid exam or location selected."
)

type bookingApi struct {
	svc        booking.Service
	studentSvc student.Service
	logger     core.Logger
	translator ut.Translator
	metrics    *Metrics
	renderer   *templateRenderer
}

// appointmentForm is the data of the booking page.
type appointmentForm struct {
	booking.Options
	booking.NewRegistration
}

func registerBookingAPI(g *echo.Group, auth echo.MiddlewareFunc, deps ServerDeps, renderer *templateRenderer) {
	api := bookingApi{
		svc:        deps.BookingSvc,
		studentSvc: deps.StudentSvc,
		logger:     deps.Logger,
		translator: deps.Translator,
		metrics:    deps.Metrics,
		renderer:   renderer,
	}

	// authed endpoints
	g.GET("/dashboard", api.dashboard, auth)
	g.GET("/appointment", api.appointmentForm, auth)
	g.POST("/appointment", api.book, auth)

	g.GET("/cancellation", api.cancellation)
}

// Handlers

func (api *bookingApi) dashboard(ctx echo.Context) error {
	st, _ := getContextStudent(ctx)

	regs, err := api.svc.StudentRegistrations(ctx.Request().Context(), st.ID, bindOrdering(ctx)...)
	if err != nil {
		return errors.Wrap(err, "querying student registrations")
	}
	return api.renderer.page(ctx, http.StatusOK, "dashboard", page{Title: "Dashboard", Data: regs})
}

func (api *bookingApi) renderForm(ctx echo.Context, code int, data booking.NewRegistration, msgs ...string) error {
	opts, err := api.svc.Options(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading booking options")
	}
	return api.renderer.page(ctx, code, "appointment", page{
		Title:    "Book an appointment",
		Messages: msgs,
		Form:     appointmentForm{Options: opts, NewRegistration: data},
	})
}

func (api *bookingApi) appointmentForm(ctx echo.Context) error {
	return api.renderForm(ctx, http.StatusOK, booking.NewRegistration{})
}

func (api *bookingApi) book(ctx echo.Context) error {
	sess, _ := getSession(ctx)
	sess.ClearMessages()
	st, _ := getContextStudent(ctx)

	var data booking.NewRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRegistration")
	}

	_, err := api.svc.Book(ctx.Request().Context(), st, data)
	if err == nil {
		api.metrics.Bookings.WithLabelValues(resultSuccess).Inc()
		sess.SetSuccess(msgBooked)
		return ctx.Redirect(http.StatusSeeOther, "/dashboard")
	}

	switch errors.Cause(err) {
	case booking.ErrAlreadyRegistered:
		api.metrics.Bookings.WithLabelValues(resultConflict).Inc()
		sess.AddMessages(msgAlreadyRegistered)
		return ctx.Redirect(http.StatusSeeOther, "/cancellation")
	case booking.ErrInvalidSelection:
		api.metrics.Bookings.WithLabelValues(resultInvalid).Inc()
		return api.renderForm(ctx, http.StatusBadRequest, data, msgInvalidSelection)
	}

	if msgs, ok := core.ValidationMessages(err, api.translator); ok {
		api.metrics.Bookings.WithLabelValues(resultInvalid).Inc()
		return api.renderForm(ctx, http.StatusBadRequest, data, msgs...)
	}

	internalError(ctx, api.logger, err, "booking exam")
	api.metrics.Bookings.WithLabelValues(resultError).Inc()
	return api.renderForm(ctx, http.StatusInternalServerError, data, core.InternalErrorMessage)
}

// cancellation shows the pending notices, and the registrations of logged in students.
func (api *bookingApi) cancellation(ctx echo.Context) error {
	st, ok, err := loadContextStudent(ctx, api.studentSvc)
	if err != nil {
		return err
	}

	var regs []booking.RegistrationDetail
	if ok {
		if regs, err = api.svc.StudentRegistrations(ctx.Request().Context(), st.ID); err != nil {
			return errors.Wrap(err, "querying student registrations")
		}
	}
	return api.renderer.page(ctx, http.StatusOK, "cancellation", page{Title: "Cancellation", Data: regs})
}
