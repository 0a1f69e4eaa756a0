package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/sentiment/sentiment"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "config.json", cfg.ConfigPath)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("MODEL_PATH", "/models/model.onnx")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/models/model.onnx", cfg.ModelPath)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port not numeric", "PORT", "http"},
		{"port out of range", "PORT", "70000"},
		{"log level", "LOG_LEVEL", "verbose"},
		{"log format", "LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestApplyModelOverrides(t *testing.T) {
	model := sentiment.Config{Model: sentiment.ModelConfig{Path: "a.json", ModelID: "a"}}

	(&Config{}).ApplyModelOverrides(&model)
	assert.Equal(t, "a.json", model.Model.Path)

	(&Config{ModelPath: "b.onnx", OrtLibraryPath: "/lib/ort.so"}).ApplyModelOverrides(&model)
	assert.Equal(t, "b.onnx", model.Model.Path)
	assert.Empty(t, model.Model.ModelID)
	assert.Equal(t, "/lib/ort.so", model.Model.OrtDLL)
}
