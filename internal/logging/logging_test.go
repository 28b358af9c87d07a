package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/agusespa/securecode/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LoggingConfig
		verbose   bool
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{"defaults", config.LoggingConfig{}, false, zapcore.InfoLevel, false},
		{"json warn", config.LoggingConfig{Level: "warn", Format: "json"}, false, zapcore.WarnLevel, false},
		{"console", config.LoggingConfig{Level: "error", Format: "console"}, false, zapcore.ErrorLevel, false},
		{"verbose wins", config.LoggingConfig{Level: "error"}, true, zapcore.DebugLevel, false},
		{"bad level", config.LoggingConfig{Level: "loud"}, false, 0, true},
		{"bad format", config.LoggingConfig{Format: "xml"}, false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg, tt.verbose)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.wantLevel))
			if tt.wantLevel > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.wantLevel-1))
			}
		})
	}
}
