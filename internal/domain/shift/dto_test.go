package shift

import (
	"testing"

	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateShiftRequest_Validate(t *testing.T) {
	valid := CreateShiftRequest{Name: "General", StartTime: "09:00", EndTime: "18:00", DefaultGraceMinutes: intPtr(10)}
	assert.NoError(t, valid.Validate())

	invalid := CreateShiftRequest{Name: " ", StartTime: "9am", EndTime: "18:00", DefaultGraceMinutes: intPtr(-1)}
	err := invalid.Validate()
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := verrs.ToMap()
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "start_time")
	assert.Contains(t, fields, "default_grace_minutes")

	missingGrace := CreateShiftRequest{Name: "General", StartTime: "09:00", EndTime: "18:00"}
	assert.Error(t, missingGrace.Validate())
}

func TestCreateAssignmentRequest_Validate(t *testing.T) {
	req := CreateAssignmentRequest{EmployeeID: "e1", ShiftID: "s1", FromDate: "2024-03-10", ToDate: strPtr("2024-03-01")}
	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "to_date")

	req.ToDate = strPtr("2024-03-10")
	assert.NoError(t, req.Validate())

	req.ToDate = nil
	assert.NoError(t, req.Validate())
}

func TestUpdateShiftRequest_ChangesTimes(t *testing.T) {
	current := generalShift()
	assert.False(t, (&UpdateShiftRequest{StartTime: strPtr("09:00")}).ChangesTimes(current))
	assert.True(t, (&UpdateShiftRequest{EndTime: strPtr("17:00")}).ChangesTimes(current))
	assert.False(t, (&UpdateShiftRequest{DefaultGraceMinutes: intPtr(5)}).ChangesTimes(current))
}
