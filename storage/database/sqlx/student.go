package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/csnedu/appointments/core"
	"github.com/csnedu/appointments/core/student"
)

type studentRepository struct {
	exec core.DBExecutor
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{exec: exec}
}

func (repo studentRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo studentRepository) count(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, exec, &n, exec.Rebind(query), args...)
	return n, err
}

func (repo studentRepository) CheckUniqueness(ctx context.Context, username, email string, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)

	n, err := repo.count(ctx, ex, `SELECT COUNT(*) FROM students WHERE email = ?`, email)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if n > 0 {
		return student.ErrEmailExists
	}

	n, err = repo.count(ctx, ex, `SELECT COUNT(*) FROM authentication WHERE username = ?`, username)
	if err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if n > 0 {
		return student.ErrUsernameExists
	}
	return nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, st student.Student, exec ...core.DBExecutor) (student.Student, error) {
	ex := repo.getExec(exec)
	q := ex.Rebind(`INSERT INTO students (student_name, email) VALUES (?, ?) RETURNING student_id`)

	if err := sqlx.GetContext(ctx, ex, &st.ID, q, st.Name, st.Email); err != nil {
		if IsUniqueViolation(err) {
			return student.Student{}, student.ErrEmailExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return st, nil
}

func (repo studentRepository) CreateCredential(ctx context.Context, cred student.Credential, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	q := ex.Rebind(`INSERT INTO authentication (student_id, username, password_hash) VALUES (?, ?, ?)`)

	if _, err := ex.ExecContext(ctx, q, cred.StudentID, cred.Username, cred.PasswordHash); err != nil {
		if IsUniqueViolation(err) {
			return student.ErrUsernameExists
		}
		return errors.Wrap(err, "inserting credential")
	}
	return nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id int, exec ...core.DBExecutor) (student.Student, error) {
	ex := repo.getExec(exec)
	q := ex.Rebind(`SELECT student_id, student_name, email FROM students WHERE student_id = ?`)

	var st student.Student
	if err := sqlx.GetContext(ctx, ex, &st, q, id); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "selecting student")
	}
	return st, nil
}

func (repo studentRepository) GetCredential(ctx context.Context, username string, exec ...core.DBExecutor) (student.Credential, error) {
	ex := repo.getExec(exec)
	q := ex.Rebind(`SELECT student_id, username, password_hash FROM authentication WHERE username = ?`)

	var cred student.Credential
	if err := sqlx.GetContext(ctx, ex, &cred, q, username); err != nil {
		return student.Credential{}, trapNoRowsErr(err, student.ErrNotFound, "selecting credential")
	}
	return cred, nil
}
