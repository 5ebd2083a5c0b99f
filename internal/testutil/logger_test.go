package testutil

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTB struct {
	testing.TB
	lines []string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Log(args ...any) { r.lines = append(r.lines, fmt.Sprint(args...)) }

func TestNewTestLoggerAt_FiltersByLevel(t *testing.T) {
	rec := &recordingTB{TB: t}
	logger := NewTestLoggerAt(rec, slog.LevelInfo)
	logger.Debug("reduction step", "iteration", 1)
	logger.Info("reduction finished", "ode_steps", 2)

	require.Len(t, rec.lines, 1)
	assert.Contains(t, rec.lines[0], "msg=\"reduction finished\"")
	assert.Contains(t, rec.lines[0], "ode_steps=2")
	assert.NotContains(t, rec.lines[0], "\n")
}

func TestNewTestLogger_Debug(t *testing.T) {
	rec := &recordingTB{TB: t}
	NewTestLogger(rec).Debug("reduction step")
	assert.Len(t, rec.lines, 1)
}
