package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeFromAnswer(t *testing.T) {
	tests := []struct {
		answer   string
		expected Mode
	}{
		{"now", ModeImmediate},
		{"NOW\n", ModeImmediate},
		{"  Now  ", ModeImmediate},
		{"", ModeOffline},
		{"\n", ModeOffline},
		{"later", ModeOffline},
		{"nowish", ModeOffline},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ModeFromAnswer(tt.answer), "answer %q", tt.answer)
	}
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("Offline")
	require.NoError(t, err)
	assert.Equal(t, ModeOffline, mode)

	mode, err = ParseMode("immediate")
	require.NoError(t, err)
	assert.Equal(t, ModeImmediate, mode)

	_, err = ParseMode("tomorrow")
	assert.ErrorContains(t, err, "invalid update mode")
}

func TestOperationError_Error(t *testing.T) {
	withCode := &OperationError{Backend: "DNF5", Step: "apply", Code: 1}
	assert.Equal(t, "DNF5 apply failed (exit code 1)", withCode.Error())

	withSignal := &OperationError{Backend: "Flatpak", Step: "apply", Code: -1, Signal: "killed"}
	assert.Equal(t, "Flatpak apply failed (terminated by signal killed)", withSignal.Error())

	timedOut := &OperationError{Backend: "DNF5", Step: "check", Code: -1, Signal: "killed", Cause: ErrTimeout}
	assert.True(t, errors.Is(timedOut, ErrTimeout))
	assert.Contains(t, timedOut.Error(), "timed out")
}

func TestResult_Predicates(t *testing.T) {
	assert.False(t, Result{Status: StatusNotInstalled}.Ran())
	assert.True(t, Result{Status: StatusNoUpdatesAvailable}.Ran())
	assert.True(t, Result{Status: StatusOperationFailed}.Failed())
	assert.False(t, Result{Status: StatusUpdatesApplied}.Failed())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "updates-available", StatusUpdatesAvailable.String())
	assert.Equal(t, "status(42)", Status(42).String())
	assert.Equal(t, "required", RebootRequired.String())
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "timeout", Message: "must not be negative"},
		{Field: "default-mode", Message: "invalid"},
	}

	msg := errs.Error()
	assert.Contains(t, msg, "configuration validation failed")
	assert.Contains(t, msg, "  - timeout: must not be negative\n")
	assert.Contains(t, msg, "  - default-mode: invalid\n")
	assert.Empty(t, ValidationErrors{}.Error())
}
