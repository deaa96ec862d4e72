package logging_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rcarvalho-pb/billing_system-go/internal/infra/logging"
)

func TestZapLogger_ShouldCarryFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := logging.NewZapLoggerFrom(zap.New(core))

	logger.Info("transaction scheduled", map[string]any{
		"invoice-guid": "IV1",
	})
	logger.Error("invoice update rejected", map[string]any{
		"error": errors.New("boom"),
	})

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, "transaction scheduled", entries[0].Message)
	assert.Equal(t, "IV1", entries[0].ContextMap()["invoice-guid"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestNewZapLogger_RejectsUnknownLevel(t *testing.T) {
	_, err := logging.NewZapLogger("development", "loud")
	assert.Error(t, err)
}
