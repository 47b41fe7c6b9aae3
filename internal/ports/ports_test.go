package ports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopProgressSinkDoesNothing(t *testing.T) {
	assert.NotPanics(t, func() {
		NoopProgressSink{}.Report(Progress{Phase: PhaseSyncing})
	})
}

func TestNoopLoggerDoesNothing(t *testing.T) {
	assert.NotPanics(t, func() {
		l := NoopLogger{}
		l.Debug("x")
		l.Info("x", "k", "v")
		l.Warn("x")
		l.Error("x")
	})
}
