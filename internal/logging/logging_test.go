package logging

import (
	"context"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuild(t *testing.T) {
	assert := assert_.New(t)

	logger, err := Build(Options{})
	assert.NoError(err)
	assert.False(logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(logger.Core().Enabled(zapcore.InfoLevel))

	logger, err = Build(Options{Debug: true, JSON: true})
	assert.NoError(err)
	assert.True(logger.Core().Enabled(zapcore.DebugLevel))
}

func TestLogger_Context(t *testing.T) {
	assert := assert_.New(t)

	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	assert.Equal(zap.L(), Logger(context.Background()))

	ctx := WithLogger(context.Background(), logger)
	Logger(ctx).Info("hello")
	assert.Equal(1, logs.FilterMessage("hello").Len())
}

func TestInstall(t *testing.T) {
	assert := assert_.New(t)

	core, logs := observer.New(zapcore.InfoLevel)
	restore := Install(zap.New(core))
	zap.S().Named("test").Infow("installed", "key", "value")
	restore()
	zap.S().Info("after restore")

	entries := logs.All()
	if assert.Len(entries, 1) {
		assert.Equal("installed", entries[0].Message)
		assert.Equal("test", entries[0].LoggerName)
		assert.Equal("value", entries[0].ContextMap()["key"])
	}
}
