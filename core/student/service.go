package student

import (
	"context"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/csnedu/appointments/core"
)

var (
	// errors
	ErrNotFound           = errors.New("student not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrEmailExists        = errors.New("a student with this email already exists")
	ErrUsernameExists     = errors.New("a student with this username already exists")

	emailExistsText    = "An account with this email already exists"
	usernameExistsText = "This username is already taken"

	// compared against when the username is unknown, so both failures cost one bcrypt comparison
	dummyHash, _ = bcrypt.GenerateFromPassword([]byte("0000000000"), bcrypt.DefaultCost)
)

type (
	Repository interface {
		// CheckUniqueness returns ErrUsernameExists | ErrEmailExists when taken.
		CheckUniqueness(ctx context.Context, username, email string, exec ...core.DBExecutor) error
		CreateStudent(ctx context.Context, st Student, exec ...core.DBExecutor) (Student, error)
		CreateCredential(ctx context.Context, cred Credential, exec ...core.DBExecutor) error
		GetStudent(ctx context.Context, id int, exec ...core.DBExecutor) (Student, error)
		GetCredential(ctx context.Context, username string, exec ...core.DBExecutor) (Credential, error)
	}

	Service interface {
		// Signup validates ns and creates the Student and its Credential atomically.
		Signup(ctx context.Context, ns NewStudent) (Student, error)
		// Authenticate returns ErrInvalidCredentials for unknown usernames and wrong passwords alike.
		Authenticate(ctx context.Context, username, password string) (Student, error)
		GetByID(ctx context.Context, id int) (Student, error)
	}

	service struct {
		db       core.DB
		repo     Repository
		validate *validator.Validate
		mailSvc  core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, validate *validator.Validate, mailSvc core.EmailService) Service {
	return &service{
		db:       db,
		repo:     repo,
		validate: validate,
		mailSvc:  mailSvc,
	}
}

func (svc *service) checkUniqueness(ctx context.Context, uname, email string, exec core.DBExecutor) error {
	err := svc.repo.CheckUniqueness(ctx, uname, email, exec)
	return uniquenessError(err)
}

func uniquenessError(err error) error {
	switch errors.Cause(err) {
	case nil:
		return nil
	case ErrEmailExists:
		return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: emailExistsText})
	case ErrUsernameExists:
		return core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: usernameExistsText})
	default:
		return err
	}
}

func (svc *service) Signup(ctx context.Context, ns NewStudent) (Student, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Student{}, err
	}

	cred := Credential{Username: ns.Username}
	if err := cred.SetPassword(ns.Password); err != nil {
		return Student{}, errors.Wrap(err, "hashing password")
	}

	var st Student
	err := core.RunInTx(ctx, svc.db, nil, func(tx core.DBTransactor) error {
		if err := svc.checkUniqueness(ctx, ns.Username, ns.Email, tx); err != nil {
			return err
		}

		var err error
		st, err = svc.repo.CreateStudent(ctx, Student{Name: ns.FullName(), Email: ns.Email}, tx)
		if err != nil {
			return uniquenessError(err)
		}

		cred.StudentID = st.ID
		return uniquenessError(svc.repo.CreateCredential(ctx, cred, tx))
	})
	if err != nil {
		return Student{}, errors.Wrap(err, "signing up student")
	}

	svc.sendWelcomeMail(st, cred.Username)
	return st, nil
}

func (svc *service) Authenticate(ctx context.Context, username, password string) (Student, error) {
	// usernames match exactly, case included
	cred, err := svc.repo.GetCredential(ctx, core.CleanString(username))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return Student{}, ErrInvalidCredentials
		}
		return Student{}, errors.Wrap(err, "finding credential by username")
	}
	if err = cred.CheckPassword(password); err != nil {
		return Student{}, ErrInvalidCredentials
	}

	st, err := svc.repo.GetStudent(ctx, cred.StudentID)
	if err != nil {
		return Student{}, errors.Wrap(err, "finding student by ID")
	}
	return st, nil
}

func (svc *service) GetByID(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *service) sendWelcomeMail(st Student, username string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: st.Name, Address: st.Email}},
		Subject:      "Welcome to CSN",
		TemplateName: "welcome",
		TemplateData: struct {
			Student  Student
			Username string
		}{st, username},
	})
}
