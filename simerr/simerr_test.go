package simerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationError(t *testing.T) {
	cause := errors.New("boom")
	e := &ConfigurationError{Field: "wcet", Message: "must be positive", Cause: cause}
	assert.Equal(t, "wcet: must be positive", e.Error())
	assert.ErrorIs(t, e, cause)

	e2 := &ConfigurationError{Message: "no field"}
	assert.Equal(t, "no field", e2.Error())
}

func TestProtocolViolation(t *testing.T) {
	e := &ProtocolViolation{Component: "sched", Message: "returned unknown job"}
	assert.Contains(t, e.Error(), "sched")
	assert.Contains(t, e.Error(), "returned unknown job")
}

func TestDeadlineOverrun(t *testing.T) {
	e := &DeadlineOverrun{TaskName: "T1", JobID: 3, Deadline: 100, At: 150}
	assert.Contains(t, e.Error(), "T1")
	assert.Contains(t, e.Error(), "3")
}

func TestModeSwitch(t *testing.T) {
	e := &ModeSwitch{From: "LO", To: "HI", At: 42}
	assert.Equal(t, "mode switch LO -> HI at 42", e.Error())
}
