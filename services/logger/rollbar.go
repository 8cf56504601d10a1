package logsvc

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"github.com/rs/zerolog"

	"github.com/csnedu/appointments/core"
	"github.com/csnedu/appointments/core/student"
)

// RollbarLogger writes structured logs with zerolog and reports them to Rollbar when enabled.
type RollbarLogger struct {
	zl zerolog.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger returns a logger writing to out, tagged with component (API, DB, ADMIN...).
// Output is human-readable in debug mode, JSON otherwise.
func NewRollbarLogger(out io.Writer, component string, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)

	level := zerolog.InfoLevel
	if conf.Debug {
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
	return &RollbarLogger{zl: zl}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled && rollbar.Token() != "")
}

// expected fmt: msg | error, map[string]interface{}, student.Student
func (l *RollbarLogger) log(ev *zerolog.Event, report func(...interface{}), msg string, args []interface{}) {
	var personSet bool
	reportArgs := make([]interface{}, 0, len(args)+2)
	reportArgs = append(reportArgs, msg)

	for _, arg := range args {
		switch a := arg.(type) {
		case student.Student:
			// only set one Student
			if !personSet && a.ID > 0 {
				ev = ev.Int("student_id", a.ID)
				reportArgs = append(reportArgs, rollbar.NewPersonContext(context.Background(), &rollbar.Person{
					Id:       strconv.Itoa(a.ID),
					Username: a.Name,
					Email:    a.Email,
				}))
				personSet = true
			}
		case error:
			ev = ev.Err(a)
			reportArgs = append(reportArgs, a)
		case map[string]interface{}:
			ev = ev.Fields(a)
			reportArgs = append(reportArgs, a)
		default:
			ev = ev.Interface("arg", a)
		}
	}

	report(reportArgs...)
	ev.Msg(msg)
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.log(l.zl.Debug(), rollbar.Debug, msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.log(l.zl.Info(), rollbar.Info, msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log(l.zl.Warn(), rollbar.Warning, msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.log(l.zl.Error(), rollbar.Error, msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(l.zl.WithLevel(zerolog.FatalLevel), rollbar.Critical, msg, args)
	rollbar.Wait()
	l.zl.Fatal().Msg("exiting")
}
