package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/rcornwell/cherimips/util/logger"
)

func TestHandleWritesFormattedLineToFile(t *testing.T) {
	var out bytes.Buffer
	debug := false
	h := logger.NewHandler(&out, nil, nil, &debug)
	log := slog.New(h)

	log.Info("hart started", "pc", "0x1000")
	require.Contains(t, out.String(), "hart started")
	require.Contains(t, out.String(), "0x1000")
}

func TestHandleEchoesToStderrOnlyWhenDebugSet(t *testing.T) {
	var out, stderr bytes.Buffer
	debug := false
	h := logger.NewHandler(&out, &stderr, nil, &debug)
	log := slog.New(h)

	log.Debug("quiet")
	require.Empty(t, stderr.String())

	h.SetDebug(boolPtr(true))
	log.Debug("loud")
	require.Contains(t, stderr.String(), "loud")
}

func TestOpenLogFileUsesProvidedFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	f, err := logger.OpenLogFile(fs, "/var/log/cherimips.log")
	require.NoError(t, err)
	defer f.Close()

	_, err = f.WriteString("hello\n")
	require.NoError(t, err)

	exists, err := afero.Exists(fs, "/var/log/cherimips.log")
	require.NoError(t, err)
	require.True(t, exists)
}

func boolPtr(b bool) *bool { return &b }
