package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-mcsim/sim"
	"github.com/joeycumines/go-mcsim/task"
)

func validConfig() Config {
	return Config{
		Tasks: []sim.TaskConfig{
			{Config: task.Config{Name: "T1", PeriodMs: 10, DeadlineMs: 10, WCETMs: 3}, ETM: "wcet"},
		},
		Processors:  []sim.ProcessorConfig{{Name: "cpu0", Speed: 1}},
		Scheduler:   "edf",
		HorizonMs:   40,
		CyclesPerMs: 1000,
	}
}

func TestValidate_Valid(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestValidate_NoTasks(t *testing.T) {
	cfg := validConfig()
	cfg.Tasks = nil
	assert.Error(t, Validate(cfg))
}

func TestValidate_NoProcessors(t *testing.T) {
	cfg := validConfig()
	cfg.Processors = nil
	assert.Error(t, Validate(cfg))
}

func TestValidate_BadCyclesPerMs(t *testing.T) {
	cfg := validConfig()
	cfg.CyclesPerMs = 0
	assert.Error(t, Validate(cfg))
}

func TestValidate_BadHorizon(t *testing.T) {
	cfg := validConfig()
	cfg.HorizonMs = -1
	assert.Error(t, Validate(cfg))
}

func TestValidate_UnknownScheduler(t *testing.T) {
	cfg := validConfig()
	cfg.Scheduler = "rate-monotonic"
	assert.Error(t, Validate(cfg))
}

func TestValidate_UnknownETM(t *testing.T) {
	cfg := validConfig()
	cfg.Tasks[0].ETM = "made-up"
	assert.Error(t, Validate(cfg))
}

func TestValidate_ProcIndexOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Tasks[0].ProcIndex = 5
	assert.Error(t, Validate(cfg))
}
