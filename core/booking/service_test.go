package booking_test

import (
	"context"
	"sync"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csnedu/appointments/core"
	"github.com/csnedu/appointments/core/booking"
	"github.com/csnedu/appointments/core/student"
	emailsvc "github.com/csnedu/appointments/services/email"
	sqlxrepos "github.com/csnedu/appointments/storage/database/sqlx"
	"github.com/csnedu/appointments/tests"
)

const futureDate = "2099-03-14"

type fixture struct {
	svc        booking.Service
	mailSvc    *emailsvc.ConsoleServiceMock
	translator ut.Translator
	st         student.Student
}

func setup(t *testing.T, seed bool) (fixture, func(table string) int) {
	return setupDB(t, testutil.PrepareDB(t), seed)
}

func setupDB(t *testing.T, db *sqlx.DB, seed bool) (fixture, func(table string) int) {
	if seed {
		testutil.SeedReferenceData(t, db)
	}
	mailSvc := emailsvc.NewConsoleServiceMock(core.NewTestConfig())
	validate, translator := testutil.NewValidator()
	f := fixture{
		svc:        booking.NewService(db, sqlxrepos.NewBookingRepository(db), validate, mailSvc),
		mailSvc:    mailSvc,
		translator: translator,
		st:         testutil.CreateStudent(t, db, "John Doe", "1234567890@student.csn.edu", "john7890", "1234567890"),
	}
	return f, func(table string) int { return testutil.CountRows(t, db, table) }
}

func TestService_SeedReferenceData(t *testing.T) {
	ctx := context.Background()
	f, count := setup(t, false)

	res, err := f.svc.SeedReferenceData(ctx)
	require.NoError(t, err)
	assert.Equal(t, booking.SeedResult{Locations: 3, Exams: 6}, res)

	// idempotent
	res, err = f.svc.SeedReferenceData(ctx)
	require.NoError(t, err)
	assert.Equal(t, booking.SeedResult{}, res)
	assert.Equal(t, 3, count("exam_locations"))
	assert.Equal(t, 6, count("exams"))

	opts, err := f.svc.Options(ctx)
	require.NoError(t, err)
	require.Len(t, opts.Locations, 3)
	require.Len(t, opts.Exams, 6)
	assert.Equal(t, "West Charleston", opts.Locations[0].Name)
	assert.Equal(t, "PHIL 114", opts.Exams[0].Name)
}

func TestService_Book(t *testing.T) {
	ctx := context.Background()
	f, count := setup(t, true)

	tests := []struct {
		name    string
		nr      booking.NewRegistration
		wantErr error
	}{
		{
			name:    "unknown location",
			nr:      booking.NewRegistration{Location: "Summerlin", Exam: "CS 202", Date: futureDate, Time: "10:00"},
			wantErr: booking.ErrInvalidSelection,
		},
		{
			name:    "unknown exam",
			nr:      booking.NewRegistration{Location: "Henderson", Exam: "CS 999", Date: futureDate, Time: "10:00"},
			wantErr: booking.ErrInvalidSelection,
		},
		{
			name: "book",
			nr:   booking.NewRegistration{Location: "Henderson", Exam: "CS 202", Date: futureDate, Time: "10:00"},
		},
		{
			name:    "book again (other slot)",
			nr:      booking.NewRegistration{Location: "West Charleston", Exam: "CS 202", Date: "2099-04-01", Time: "13:00"},
			wantErr: booking.ErrAlreadyRegistered,
		},
		{
			name: "book another exam",
			nr:   booking.NewRegistration{Location: "West Charleston", Exam: "MATH 181", Date: futureDate, Time: "08:15"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := f.svc.Book(ctx, f.st, tt.nr)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, f.st.ID, reg.StudentID)
			assert.Equal(t, tt.nr.Exam, reg.ExamName)
			assert.Equal(t, tt.nr.Location, reg.LocationName)
		})
	}

	assert.Equal(t, 2, count("registrations"))

	regs, err := f.svc.StudentRegistrations(ctx, f.st.ID)
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.Equal(t, "MATH 181", regs[0].ExamName) // 08:15 before 10:00
	assert.Equal(t, "CS 202", regs[1].ExamName)
	assert.Equal(t, "700 College Dr., Henderson, NV 89002", regs[1].Address)

	regs, err = f.svc.StudentRegistrations(ctx, f.st.ID, core.DBOrdering{Field: "exam", Ascending: true})
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.Equal(t, "CS 202", regs[0].ExamName)

	sent := f.mailSvc.SentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "booking_confirmed", sent[0].TemplateName)
	assert.Contains(t, sent[0].TextContent, "CS 202")
}

func TestService_Book_validation(t *testing.T) {
	ctx := context.Background()
	f, count := setup(t, true)

	_, err := f.svc.Book(ctx, f.st, booking.NewRegistration{Location: "Henderson", Exam: "CS 202", Date: "2001-01-01", Time: "10:00"})
	msgs, ok := core.ValidationMessages(err, f.translator)
	require.True(t, ok, "not a validation error: %v", err)
	assert.Equal(t, []string{"Date cannot be in the past"}, msgs)
	assert.Zero(t, count("registrations"))
}

func TestService_Book_concurrent(t *testing.T) {
	ctx := context.Background()
	f, count := setupDB(t, testutil.PrepareFileDB(t, 10), true)
	nr := booking.NewRegistration{Location: "Henderson", Exam: "PSY 101", Date: futureDate, Time: "10:00"}

	const n = 16
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Book(ctx, f.st, nr)
		}(i)
	}
	wg.Wait()

	var booked int
	for _, err := range errs {
		if err == nil {
			booked++
			continue
		}
		assert.Equal(t, booking.ErrAlreadyRegistered, errors.Cause(err))
	}
	assert.Equal(t, 1, booked)
	assert.Equal(t, 1, count("registrations"))
}
