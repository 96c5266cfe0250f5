package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LevelInfo)
	l.Debug("hidden %d", 1)
	l.Info("hello %s", "world")
	l.Error("boom")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO] hello world")
	assert.Contains(t, out, "[EROR] boom")
}

func TestNilLoggerDiscards(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info("nothing")
		l.Close()
	})
}

func TestDailyFile(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, LevelDebug)
	require.NoError(t, err)
	l.out = &bytes.Buffer{}
	day := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	l.now = func() time.Time { return day }
	l.Warn("first")
	day = day.Add(2 * time.Minute)
	l.Warn("second")
	l.Close()

	b, err := os.ReadFile(filepath.Join(dir, "logs", "2024-03-01.log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "2024/03/01 23:59:00 [WARN] first")
	b, err = os.ReadFile(filepath.Join(dir, "logs", "2024-03-02.log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "[WARN] second")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLevel("loud"))
}
