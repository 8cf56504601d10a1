package student

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/csnedu/appointments/core"
)

type Student struct {
	ID    int    `db:"student_id" json:"id"`
	Name  string `db:"student_name" json:"name"`
	Email string `db:"email" json:"email"`
}

// Credential is the one-to-one login record of a Student.
type Credential struct {
	StudentID    int    `db:"student_id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
}

func (c *Credential) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.PasswordHash = string(hash)
	return nil
}

func (c *Credential) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(pwd))
}

// NewStudent contains information needed to sign up a new Student.
type NewStudent struct {
	FirstName string `form:"first_name" label:"First name" validate:"csnname"`
	LastName  string `form:"last_name" label:"Last name" validate:"csnname"`
	Email     string `form:"email" label:"Email" validate:"nshe_email"`
	Username  string `form:"username" label:"Username"`
	Password  string `form:"password" label:"Password"`
}

func (ns NewStudent) FullName() string {
	return strings.TrimSpace(ns.FirstName + " " + ns.LastName)
}

func (ns *NewStudent) Clean() {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Email = core.CleanString(ns.Email)
	ns.Username = core.CleanString(ns.Username)
}

// Validate runs every signup rule and reports all failures at once.
func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Clean()
	return validate.Struct(ns)
}

type LoginRequest struct {
	Username string `form:"username"`
	Password string `form:"password"`
}
