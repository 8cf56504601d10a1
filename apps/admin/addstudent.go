package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/csnedu/appointments/core"
	"github.com/csnedu/appointments/core/student"
)

// addStudent signs up a student. The username is derived from the first name & email.
func (cli *commandLine) addStudent(firstName, lastName, email, pwd string) error {
	ns := student.NewStudent{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  pwd,
	}
	ns.Clean()
	ns.Username = student.GenerateUsername(ns.FirstName, ns.Email)

	st, err := cli.studentSvc.Signup(context.Background(), ns)
	if err != nil {
		if msgs, ok := core.ValidationMessages(err, cli.translator); ok {
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	fmt.Printf("student #%d created, username: %s\n", st.ID, ns.Username)
	return nil
}
