package booking

import (
	"github.com/go-playground/validator/v10"

	"github.com/csnedu/appointments/core"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Exam struct {
	ID   int    `db:"exam_id" json:"id"`
	Name string `db:"exam_name" json:"name"`
}

type Location struct {
	ID      int    `db:"exam_location_id" json:"id"`
	Name    string `db:"location_name" json:"name"`
	Address string `db:"address" json:"address"`
}

// Registration is a student's booking of an exam. At most one per (StudentID, ExamID).
type Registration struct {
	StudentID  int    `db:"student_id" json:"student_id"`
	ExamID     int    `db:"exam_id" json:"exam_id"`
	Date       string `db:"exam_date" json:"date"` // YYYY-MM-DD
	Time       string `db:"exam_time" json:"time"` // HH:MM
	LocationID int    `db:"exam_location_id" json:"location_id"`
}

// RegistrationDetail is a Registration with the names of its exam and location.
type RegistrationDetail struct {
	Registration
	ExamName     string `db:"exam_name" json:"exam_name"`
	LocationName string `db:"location_name" json:"location_name"`
	Address      string `db:"address" json:"address"`
}

// Options are the choices offered by the booking form.
type Options struct {
	Exams     []Exam
	Locations []Location
}

// NewRegistration contains the booking form submission.
type NewRegistration struct {
	Location string `form:"location" label:"Location" validate:"required"`
	Exam     string `form:"exams" label:"Exam" validate:"required"`
	Date     string `form:"date" label:"Date" validate:"required,datetime=2006-01-02,notpast"`
	Time     string `form:"time" label:"Time" validate:"required,datetime=15:04"`
}

func (nr *NewRegistration) Validate(validate *validator.Validate) error {
	nr.Location = core.CleanString(nr.Location)
	nr.Exam = core.CleanString(nr.Exam)
	nr.Date = core.CleanString(nr.Date)
	nr.Time = core.CleanString(nr.Time)
	return validate.Struct(nr)
}

type SeedResult struct {
	Locations int // created
	Exams     int // created
}
