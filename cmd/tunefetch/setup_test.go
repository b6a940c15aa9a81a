package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorHandler(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(NewColorHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo}))

	logger.Debug("hidden")
	assert.Empty(t, out.String())

	logger.Error("Download failed", "video", "abc123")
	line := out.String()

	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, "\033[0;31mERROR")
	assert.Contains(t, line, "Download failed")
	assert.Contains(t, line, `{"video":"abc123"}`)
}

func TestColorHandlerSource(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(NewColorHandler(&out, &slog.HandlerOptions{AddSource: true}))

	logger.Info("Server started")

	assert.Contains(t, out.String(), `"source":"./setup_test.go:`)
}
