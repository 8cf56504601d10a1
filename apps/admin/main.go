package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/csnedu/appointments/core"
	"github.com/csnedu/appointments/core/booking"
	"github.com/csnedu/appointments/core/student"
	emailsvc "github.com/csnedu/appointments/services/email"
	logsvc "github.com/csnedu/appointments/services/logger"
	"github.com/csnedu/appointments/storage/database"
	sqlxrepos "github.com/csnedu/appointments/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(os.Stdout, "ADMIN", conf)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// set up services
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	booking.InitValidators(validate, translator)

	mailSvc := emailsvc.NewConsoleService(conf, logger)

	// start CLI
	cli := commandLine{
		db:         db,
		studentSvc: student.NewService(db, sqlxrepos.NewStudentRepository(db), validate, mailSvc),
		bookingSvc: booking.NewService(db, sqlxrepos.NewBookingRepository(db), validate, mailSvc),
		translator: translator,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %s", err), err)
		}
		os.Exit(1)
	}
}
