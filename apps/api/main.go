package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	echoapi "github.com/csnedu/appointments/apps/api/echo"
	"github.com/csnedu/appointments/core"
	"github.com/csnedu/appointments/core/booking"
	"github.com/csnedu/appointments/core/session"
	"github.com/csnedu/appointments/core/student"
	emailsvc "github.com/csnedu/appointments/services/email"
	logsvc "github.com/csnedu/appointments/services/logger"
	"github.com/csnedu/appointments/storage/database"
	sqlxrepos "github.com/csnedu/appointments/storage/database/sqlx"
	inmemsession "github.com/csnedu/appointments/storage/session/inmem"
	redissession "github.com/csnedu/appointments/storage/session/redis"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(os.Stdout, "API", conf)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(os.Stdout, "DB", conf)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		dbLogger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()
	dbLogger.Info("Database ready", map[string]interface{}{"engine": conf.Database.Engine})

	// set up session store
	sessions, closeSessions, err := setUpSessions(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up session store: %v", err), err)
	}
	defer closeSessions()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	booking.InitValidators(validate, translator)

	studentSvc := student.NewService(db, sqlxrepos.NewStudentRepository(db), validate, mailSvc)
	bookingSvc := booking.NewService(db, sqlxrepos.NewBookingRepository(db), validate, mailSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : %s", conf))
	defer logger.Info("Application stopped")

	if err = core.ParseEmailTemplates(); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	if conf.Server.SeedOnStart {
		res, err := bookingSvc.SeedReferenceData(context.Background())
		if err != nil {
			dbLogger.Fatal(fmt.Sprintf("seeding reference data: %v", err), err)
		}
		dbLogger.Info("Reference data seeded", map[string]interface{}{"locations": res.Locations, "exams": res.Exams})
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	if conf.Server.DebugAddress != "" {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	server, err := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			DB:         db,
			StudentSvc: studentSvc,
			BookingSvc: bookingSvc,
			Sessions:   sessions,
			Translator: translator,
		},
	)
	if err != nil {
		logger.Fatal(fmt.Sprintf("creating server: %v", err), err)
	}

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func setUpSessions(conf *core.Config) (session.Store, func(), error) {
	switch conf.Session.Store {
	case "memory":
		return inmemsession.NewStore(), func() {}, nil
	case "redis":
		client := redissession.NewClient(conf)
		return redissession.NewStore(client), func() { _ = client.Close() }, nil
	default:
		return nil, nil, errors.Errorf("unknown session store %q", conf.Session.Store)
	}
}
