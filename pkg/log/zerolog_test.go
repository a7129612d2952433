package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymetrics/calfit/pkg/log"
)

func TestZerologProvider_StructuredFields(t *testing.T) {
	var buf bytes.Buffer
	provider := log.NewZerologProviderTo(&buf, log.LevelInfo)

	logger := provider.GetLoggerWithName("svm")
	logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, 800,
	)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "svm", record[log.ComponentKey])
	assert.Equal(t, "fit", record[log.OperationKey])
	assert.Equal(t, float64(800), record[log.SamplesKey])
	assert.Equal(t, "Training started", record["message"])
}

func TestZerologProvider_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	provider := log.NewZerologProviderTo(&buf, log.LevelWarn)

	logger := provider.GetLogger()
	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.NotZero(t, buf.Len())

	assert.False(t, logger.Enabled(context.Background(), log.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), log.LevelError))
}

func TestZerologLogger_With(t *testing.T) {
	var buf bytes.Buffer
	provider := log.NewZerologProviderTo(&buf, log.LevelInfo)

	logger := provider.GetLogger().With(log.ModelNameKey, "SVR")
	logger.Info("fit done")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "SVR", record[log.ModelNameKey])
}

func TestToLogLevel(t *testing.T) {
	assert.Equal(t, log.LevelDebug, log.ToLogLevel("debug"))
	assert.Equal(t, log.LevelInfo, log.ToLogLevel("info"))
	assert.Equal(t, log.LevelWarn, log.ToLogLevel("warn"))
	assert.Equal(t, log.LevelError, log.ToLogLevel("error"))
	assert.Equal(t, log.LevelInfo, log.ToLogLevel("bogus"))
}
