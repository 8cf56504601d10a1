package student

import (
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/csnedu/appointments/core"
)

const (
	nsheLen = 10 // digits in an NSHE number

	// EmailDomain is the institutional email domain of students.
	EmailDomain = "student.csn.edu"
)

var (
	nameRegex  = regexp.MustCompile(`^[a-zA-Z]+$`)
	emailRegex = regexp.MustCompile(`^[0-9]{10}@student\.csn\.edu$`)

	// custom validation tags & texts
	csnNameTag  = "csnname"
	csnNameText = "{0} must only contain letters A-Z"

	nsheEmailTag  = "nshe_email"
	nsheEmailText = "Email must be NSHE#@" + EmailDomain

	csnUsernameTag  = "csn_username"
	csnUsernameText = "Username must be first name and last four of NSHE number"

	nshePasswordTag  = "nshe_password"
	nshePasswordText = "Password must be your 10-digit NSHE number"
)

// IsValidName reports whether s is made of one or more ASCII letters.
func IsValidName(s string) bool {
	return nameRegex.MatchString(s)
}

// IsValidEmail reports whether e is an NSHE number followed by @student.csn.edu.
func IsValidEmail(e string) bool {
	return emailRegex.MatchString(e)
}

// GenerateUsername derives the username of a student: the lowercased first name
// followed by the last four digits of the NSHE number (email[6:10]).
// The email must have been validated first, a malformed one yields a meaningless username.
func GenerateUsername(firstName, email string) string {
	return strings.ToLower(firstName) + substr(email, nsheLen-4, nsheLen)
}

// IsValidUsername reports whether u is exactly the username generated from firstName & email.
func IsValidUsername(u, firstName, email string) bool {
	return u == GenerateUsername(firstName, email)
}

// IsValidPassword reports whether p is the NSHE number of email.
func IsValidPassword(p, email string) bool {
	return p == substr(email, 0, nsheLen)
}

// substr is s[from:to] clamped to the bounds of s.
func substr(s string, from, to int) string {
	if to > len(s) {
		to = len(s)
	}
	if from >= to {
		return ""
	}
	return s[from:to]
}

// InitValidators registers the signup rules on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(csnNameTag, csnNameValidation)
	core.RegisterCustomTranslation(validate, translator, csnNameTag, csnNameText)

	_ = validate.RegisterValidation(nsheEmailTag, nsheEmailValidation)
	core.RegisterCustomTranslation(validate, translator, nsheEmailTag, nsheEmailText)

	validate.RegisterStructValidation(newStudentStructValidation, NewStudent{})
	core.RegisterCustomTranslation(validate, translator, csnUsernameTag, csnUsernameText)
	core.RegisterCustomTranslation(validate, translator, nshePasswordTag, nshePasswordText)
}

// Custom Validators

func csnNameValidation(fl validator.FieldLevel) bool {
	return IsValidName(fl.Field().String())
}

func nsheEmailValidation(fl validator.FieldLevel) bool {
	return IsValidEmail(fl.Field().String())
}

// newStudentStructValidation checks the fields derived from the email.
// Runs after the field validations, so its errors come last.
func newStudentStructValidation(sl validator.StructLevel) {
	ns, ok := sl.Current().Interface().(NewStudent)
	if !ok {
		return
	}
	// the username is only checked against a well-formed email
	if IsValidEmail(ns.Email) && !IsValidUsername(ns.Username, ns.FirstName, ns.Email) {
		sl.ReportError(ns.Username, "Username", "Username", csnUsernameTag, "")
	}
	if !IsValidPassword(ns.Password, ns.Email) {
		sl.ReportError(ns.Password, "Password", "Password", nshePasswordTag, "")
	}
}
