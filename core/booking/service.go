package booking

import (
	"context"
	"database/sql"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/csnedu/appointments/core"
	"github.com/csnedu/appointments/core/student"
)

var (
	// errors
	ErrExamNotFound      = errors.New("exam not found")
	ErrLocationNotFound  = errors.New("exam location not found")
	ErrInvalidSelection  = errors.New("invalid exam or location selected")
	ErrAlreadyRegistered = errors.New("already registered for this exam")

	bookingTxOptions = &sql.TxOptions{Isolation: sql.LevelReadCommitted}
)

type (
	Repository interface {
		QueryExams(ctx context.Context, exec ...core.DBExecutor) ([]Exam, error)
		QueryLocations(ctx context.Context, exec ...core.DBExecutor) ([]Location, error)
		GetExamByName(ctx context.Context, name string, exec ...core.DBExecutor) (Exam, error)
		GetLocationByName(ctx context.Context, name string, exec ...core.DBExecutor) (Location, error)
		CountRegistrations(ctx context.Context, studentID, examID int, exec ...core.DBExecutor) (int, error)
		// CreateRegistration returns ErrAlreadyRegistered when the (student, exam) pair exists.
		CreateRegistration(ctx context.Context, reg Registration, exec ...core.DBExecutor) error
		QueryStudentRegistrations(ctx context.Context, studentID int, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]RegistrationDetail, error)
		// CreateExamIfNotExist & CreateLocationIfNotExist report whether a row was created.
		CreateExamIfNotExist(ctx context.Context, name string, exec ...core.DBExecutor) (bool, error)
		CreateLocationIfNotExist(ctx context.Context, loc Location, exec ...core.DBExecutor) (bool, error)
	}

	Service interface {
		Options(ctx context.Context) (Options, error)
		// Book registers st for an exam. The duplicate check and the insert share one transaction.
		Book(ctx context.Context, st student.Student, nr NewRegistration) (RegistrationDetail, error)
		StudentRegistrations(ctx context.Context, studentID int, ordering ...core.DBOrdering) ([]RegistrationDetail, error)
		SeedReferenceData(ctx context.Context) (SeedResult, error)
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

func (svc *service) Options(ctx context.Context) (Options, error) {
	locations, err := svc.repo.QueryLocations(ctx)
	if err != nil {
		return Options{}, errors.Wrap(err, "querying locations")
	}
	exams, err := svc.repo.QueryExams(ctx)
	if err != nil {
		return Options{}, errors.Wrap(err, "querying exams")
	}
	return Options{Exams: exams, Locations: locations}, nil
}

// selectionError maps unknown exam & location names to ErrInvalidSelection.
func selectionError(err error, msg string) error {
	switch errors.Cause(err) {
	case ErrExamNotFound, ErrLocationNotFound:
		return ErrInvalidSelection
	default:
		return errors.Wrap(err, msg)
	}
}

func (svc *service) Book(ctx context.Context, st student.Student, nr NewRegistration) (RegistrationDetail, error) {
	if err := nr.Validate(svc.validate); err != nil {
		return RegistrationDetail{}, err
	}

	var reg RegistrationDetail
	err := core.RunInTx(ctx, svc.db, bookingTxOptions, func(tx core.DBTransactor) error {
		loc, err := svc.repo.GetLocationByName(ctx, nr.Location, tx)
		if err != nil {
			return selectionError(err, "finding location by name")
		}
		exam, err := svc.repo.GetExamByName(ctx, nr.Exam, tx)
		if err != nil {
			return selectionError(err, "finding exam by name")
		}

		count, err := svc.repo.CountRegistrations(ctx, st.ID, exam.ID, tx)
		if err != nil {
			return errors.Wrap(err, "counting registrations")
		}
		if count > 0 {
			return ErrAlreadyRegistered
		}

		reg = RegistrationDetail{
			Registration: Registration{
				StudentID:  st.ID,
				ExamID:     exam.ID,
				Date:       nr.Date,
				Time:       nr.Time,
				LocationID: loc.ID,
			},
			ExamName:     exam.Name,
			LocationName: loc.Name,
			Address:      loc.Address,
		}
		return svc.repo.CreateRegistration(ctx, reg.Registration, tx)
	})
	if err != nil {
		return RegistrationDetail{}, errors.Wrap(err, "booking exam")
	}

	svc.sendConfirmationMail(st, reg)
	return reg, nil
}

func (svc *service) StudentRegistrations(ctx context.Context, studentID int, ordering ...core.DBOrdering) ([]RegistrationDetail, error) {
	regs, err := svc.repo.QueryStudentRegistrations(ctx, studentID, ordering)
	return regs, errors.Wrap(err, "querying student registrations")
}

func (svc *service) sendConfirmationMail(st student.Student, reg RegistrationDetail) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: st.Name, Address: st.Email}},
		Subject:      "Exam appointment confirmed",
		TemplateName: "booking_confirmed",
		TemplateData: struct {
			Student      student.Student
			Registration RegistrationDetail
		}{st, reg},
	})
}
