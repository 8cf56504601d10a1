package logsvc

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csnedu/appointments/core"
	"github.com/csnedu/appointments/core/student"
)

func TestRollbarLogger(t *testing.T) {
	conf := core.NewTestConfig()
	var buf bytes.Buffer
	logger := NewRollbarLogger(&buf, "TEST", conf)
	logger.Enable(false)

	st := student.Student{ID: 3, Name: "John Doe", Email: "1234567890@student.csn.edu"}
	logger.Error("booking failed", errors.New("boom"), st, map[string]interface{}{"exam": "CS 202"})
	logger.Debug("hidden") // below the level outside debug mode

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "booking failed", entry["message"])
	assert.Equal(t, "TEST", entry["component"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, float64(3), entry["student_id"])
	assert.Equal(t, "CS 202", entry["exam"])
}
