package booking

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csnedu/appointments/core"
)

func TestNewRegistration_Validate(t *testing.T) {
	nowFunc = func() time.Time { return time.Date(2024, 5, 10, 23, 30, 0, 0, time.UTC) }
	defer func() { nowFunc = time.Now }() // reset

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	valid := NewRegistration{Location: "Henderson", Exam: "CS 202", Date: "2024-05-10", Time: "09:30"}

	tests := []struct {
		name     string
		data     func(nr *NewRegistration)
		wantMsgs []string
	}{
		{name: "valid (today)", data: func(nr *NewRegistration) {}},
		{name: "valid (future)", data: func(nr *NewRegistration) { nr.Date = "2025-01-01" }},
		{name: "valid (spaces)", data: func(nr *NewRegistration) { nr.Exam = " CS 202 "; nr.Time = " 14:00" }},
		{
			name:     "empty",
			data:     func(nr *NewRegistration) { *nr = NewRegistration{} },
			wantMsgs: []string{"Location is required", "Exam is required", "Date is required", "Time is required"},
		},
		{name: "past date", data: func(nr *NewRegistration) { nr.Date = "2024-05-09" }, wantMsgs: []string{"Date cannot be in the past"}},
		{name: "bad date", data: func(nr *NewRegistration) { nr.Date = "05/11/2024" }, wantMsgs: []string{"Date is not valid"}},
		{name: "bad time", data: func(nr *NewRegistration) { nr.Time = "9h30" }, wantMsgs: []string{"Time is not valid"}},
		{name: "out of range time", data: func(nr *NewRegistration) { nr.Time = "25:00" }, wantMsgs: []string{"Time is not valid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nr := valid
			tt.data(&nr)

			err := nr.Validate(validate)
			if tt.wantMsgs == nil {
				assert.NoError(t, err)
				return
			}
			msgs, ok := core.ValidationMessages(err, translator)
			require.True(t, ok, "not a validation error: %v", err)
			assert.Equal(t, tt.wantMsgs, msgs)
		})
	}
}
