package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/csnedu/appointments/core"
	"github.com/csnedu/appointments/core/booking"
)

var (
	// ordering fields accepted from clients -> columns
	registrationOrderings = map[string]string{
		"date":     "r.exam_date",
		"time":     "r.exam_time",
		"exam":     "e.exam_name",
		"location": "l.location_name",
		"created":  "r.created_at",
	}
	defaultRegistrationOrdering = "r.exam_date ASC, r.exam_time ASC"
)

type bookingRepository struct {
	exec core.DBExecutor
}

var _ booking.Repository = (*bookingRepository)(nil) // interface compliance check

func NewBookingRepository(exec core.DBExecutor) *bookingRepository {
	return &bookingRepository{exec: exec}
}

func (repo bookingRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo bookingRepository) QueryExams(ctx context.Context, exec ...core.DBExecutor) ([]booking.Exam, error) {
	ex := repo.getExec(exec)
	exams := make([]booking.Exam, 0)
	err := sqlx.SelectContext(ctx, ex, &exams, `SELECT exam_id, exam_name FROM exams ORDER BY exam_id`)
	return exams, errors.Wrap(err, "selecting exams")
}

func (repo bookingRepository) QueryLocations(ctx context.Context, exec ...core.DBExecutor) ([]booking.Location, error) {
	ex := repo.getExec(exec)
	locations := make([]booking.Location, 0)
	err := sqlx.SelectContext(ctx, ex, &locations,
		`SELECT exam_location_id, location_name, address FROM exam_locations ORDER BY exam_location_id`)
	return locations, errors.Wrap(err, "selecting locations")
}

func (repo bookingRepository) GetExamByName(ctx context.Context, name string, exec ...core.DBExecutor) (booking.Exam, error) {
	ex := repo.getExec(exec)
	q := ex.Rebind(`SELECT exam_id, exam_name FROM exams WHERE exam_name = ?`)

	var exam booking.Exam
	if err := sqlx.GetContext(ctx, ex, &exam, q, name); err != nil {
		return booking.Exam{}, trapNoRowsErr(err, booking.ErrExamNotFound, "selecting exam")
	}
	return exam, nil
}

func (repo bookingRepository) GetLocationByName(ctx context.Context, name string, exec ...core.DBExecutor) (booking.Location, error) {
	ex := repo.getExec(exec)
	q := ex.Rebind(`SELECT exam_location_id, location_name, address FROM exam_locations WHERE location_name = ?`)

	var loc booking.Location
	if err := sqlx.GetContext(ctx, ex, &loc, q, name); err != nil {
		return booking.Location{}, trapNoRowsErr(err, booking.ErrLocationNotFound, "selecting location")
	}
	return loc, nil
}

func (repo bookingRepository) CountRegistrations(ctx context.Context, studentID, examID int, exec ...core.DBExecutor) (int, error) {
	ex := repo.getExec(exec)
	q := ex.Rebind(`SELECT COUNT(*) FROM registrations WHERE student_id = ? AND exam_id = ?`)

	var n int
	err := sqlx.GetContext(ctx, ex, &n, q, studentID, examID)
	return n, errors.Wrap(err, "counting registrations")
}

func (repo bookingRepository) CreateRegistration(ctx context.Context, reg booking.Registration, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	q := ex.Rebind(`INSERT INTO registrations (student_id, exam_id, exam_date, exam_time, exam_location_id)
		VALUES (?, ?, ?, ?, ?)`)

	if _, err := ex.ExecContext(ctx, q, reg.StudentID, reg.ExamID, reg.Date, reg.Time, reg.LocationID); err != nil {
		if IsUniqueViolation(err) {
			return booking.ErrAlreadyRegistered
		}
		return errors.Wrap(err, "inserting registration")
	}
	return nil
}

func orderBy(ordering []core.DBOrdering) string {
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if col, ok := registrationOrderings[ord.Field]; ok {
			orderList = append(orderList, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	if len(orderList) == 0 {
		return defaultRegistrationOrdering
	}
	return strings.Join(orderList, ", ")
}

func (repo bookingRepository) QueryStudentRegistrations(
	ctx context.Context,
	studentID int,
	ordering []core.DBOrdering,
	exec ...core.DBExecutor,
) ([]booking.RegistrationDetail, error) {
	ex := repo.getExec(exec)
	q := ex.Rebind(`
		SELECT r.student_id, r.exam_id, r.exam_date, r.exam_time, r.exam_location_id,
		       e.exam_name, l.location_name, l.address
		FROM registrations r
		JOIN exams e ON e.exam_id = r.exam_id
		JOIN exam_locations l ON l.exam_location_id = r.exam_location_id
		WHERE r.student_id = ?
		ORDER BY ` + orderBy(ordering))

	regs := make([]booking.RegistrationDetail, 0)
	err := sqlx.SelectContext(ctx, ex, &regs, q, studentID)
	return regs, errors.Wrap(err, "selecting registrations")
}

func (repo bookingRepository) CreateExamIfNotExist(ctx context.Context, name string, exec ...core.DBExecutor) (bool, error) {
	ex := repo.getExec(exec)
	q := ex.Rebind(`INSERT INTO exams (exam_name) VALUES (?) ON CONFLICT (exam_name) DO NOTHING`)

	res, err := ex.ExecContext(ctx, q, name)
	if err != nil {
		return false, errors.Wrap(err, "inserting exam")
	}
	n, err := res.RowsAffected()
	return n > 0, errors.Wrap(err, "inserting exam")
}

func (repo bookingRepository) CreateLocationIfNotExist(ctx context.Context, loc booking.Location, exec ...core.DBExecutor) (bool, error) {
	ex := repo.getExec(exec)
	q := ex.Rebind(`INSERT INTO exam_locations (location_name, address) VALUES (?, ?) ON CONFLICT (location_name) DO NOTHING`)

	res, err := ex.ExecContext(ctx, q, loc.Name, loc.Address)
	if err != nil {
		return false, errors.Wrap(err, "inserting location")
	}
	n, err := res.RowsAffected()
	return n > 0, errors.Wrap(err, "inserting location")
}
