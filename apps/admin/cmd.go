package main

import (
	"flag"
	"fmt"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/csnedu/appointments/core/booking"
	"github.com/csnedu/appointments/core/student"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB
	studentSvc student.Service
	bookingSvc booking.Service
	translator ut.Translator
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, version, ...)")
	fmt.Println("  seed - insert the missing exam locations & exams")
	fmt.Println("  addstudent -first FIRST -last LAST -email NSHE#@" + student.EmailDomain + " - sign up a student")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addStudentCmd := flag.NewFlagSet("addstudent", flag.ContinueOnError)
	addStudentFirst := addStudentCmd.String("first", "", "The student's first name.")
	addStudentLast := addStudentCmd.String("last", "", "The student's last name.")
	addStudentEmail := addStudentCmd.String("email", "", "The student's NSHE email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "seed":
		return cli.seed()
	case "addstudent":
		if err := addStudentCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addStudentFirst == "" || *addStudentLast == "" || *addStudentEmail == "" {
			addStudentCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password (NSHE number):")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addStudentCmd.Usage()
			return errHelp
		}
		return cli.addStudent(*addStudentFirst, *addStudentLast, *addStudentEmail, string(pwd))
	default:
		cli.printUsage()
		return errHelp
	}
}
