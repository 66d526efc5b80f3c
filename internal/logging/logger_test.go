package logging_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driveturbo/transcriber/internal/logging"
)

func TestLoggerWritesToRing(t *testing.T) {
	logger := logging.NewTest()
	logger.Info("pipeline started", "session", "abc")

	lines := logger.Ring().Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "pipeline started")
	assert.Contains(t, lines[0], "abc")
}

func TestWithSharesRing(t *testing.T) {
	logger := logging.NewTest()
	logger.With("component", "speech").Info("recognize")

	lines := logger.Ring().Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "speech")
}

func TestRingRetention(t *testing.T) {
	ring := logging.NewRing(3)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		ring.Write([]byte(s))
	}

	lines := ring.Lines()
	assert.Equal(t, []string{"c", "d", "e"}, lines)
}

func TestRingSubscribe(t *testing.T) {
	ring := logging.NewRing(10)

	ch, cancel := ring.Subscribe()
	ring.Write([]byte("live line\n"))

	select {
	case line := <-ch:
		assert.True(t, strings.HasPrefix(line, "live line"))
	default:
		t.Fatal("expected a line on the subscription channel")
	}

	cancel()
	ring.Write([]byte("after cancel\n"))
	select {
	case <-ch:
		t.Fatal("canceled subscription must not receive lines")
	default:
	}
}
