package app

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Natan-Asrat/digital-attendance-backend/pkg/logger"
)

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(logger.Replace(nil))

	require.NoError(t, ConfigureLogging(LogConfig{Level: "debug", Format: "console"}))
	require.True(t, logger.Logger().Core().Enabled(zap.DebugLevel))

	require.NoError(t, ConfigureLogging(LogConfig{}))
	require.Error(t, ConfigureLogging(LogConfig{Format: "logfmt"}))
}
