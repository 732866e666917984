package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := newLogger(&buf, "auto", "warn")
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	// a buffer is no terminal, so auto means json
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.NotContains(t, buf.String(), "hidden")

	buf.Reset()
	logger, err = newLogger(&buf, "text", "debug")
	require.NoError(t, err)
	logger.Debug("details", "k", 2)
	assert.Contains(t, buf.String(), "msg=details k=2")

	_, err = newLogger(&buf, "json", "loud")
	assert.Error(t, err)
	_, err = newLogger(&buf, "xml", "info")
	assert.Error(t, err)
}
