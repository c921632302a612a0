package logging

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  log.Level
	}{
		{"debug", log.DebugLevel},
		{"info", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"ERROR", log.ErrorLevel},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseLevelInvalid(t *testing.T) {
	_, err := ParseLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestInitSetsLevel(t *testing.T) {
	require.NoError(t, Init(Config{Level: "debug"}))
	assert.Equal(t, log.DebugLevel, Get("test").GetLevel())

	require.NoError(t, Init(Config{Level: "info", Quiet: true}))
	assert.Equal(t, log.ErrorLevel, Get("test").GetLevel())
}

func TestInitInvalidLevel(t *testing.T) {
	assert.Error(t, Init(Config{Level: "nope"}))
}

func TestGetCachesLoggers(t *testing.T) {
	a := Get("walker")
	b := Get("walker")
	assert.Same(t, a, b)
}
