// Package logger writes leveled, timestamped lines to stdout (colored) and,
// when a directory is configured, to one file per day.
package logger

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps "debug", "info", "warn" and "error" to a Level. Anything
// else is LevelInfo.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

// Logger is safe for concurrent use. A nil *Logger discards everything.
type Logger struct {
	mu         sync.Mutex
	min        Level
	out        io.Writer
	dir        string
	file       *os.File
	currentDay string
	now        func() time.Time
}

// New logs to stdout and, if dir is not empty, to dir/logs/YYYY-MM-DD.log.
// A dir that already ends in "logs" is used as-is.
func New(dir string, min Level) (*Logger, error) {
	l := &Logger{min: min, out: os.Stdout, now: time.Now}
	if dir == "" {
		return l, nil
	}
	resolved := dir
	if path.Base(filepath.ToSlash(dir)) != "logs" {
		resolved = filepath.Join(dir, "logs")
	}
	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return nil, err
	}
	l.dir = resolved
	if err := l.rotateLocked(l.now()); err != nil {
		return nil, err
	}
	return l, nil
}

// NewWriter logs to w only, without colors.
func NewWriter(w io.Writer, min Level) *Logger {
	return &Logger{min: min, out: w, now: time.Now}
}

func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
	l.dir = ""
}

func (l *Logger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.log(LevelError, format, args...) }

func (l *Logger) log(lvl Level, format string, args ...any) {
	if l == nil || lvl < l.min {
		return
	}
	nowTime := l.now()
	now := nowTime.Format("2006/01/02 15:04:05")
	msg := fmt.Sprintf(format, args...)
	var label, colorStart string
	switch lvl {
	case LevelDebug:
		colorStart = "\033[36m" // Cyan
		label = "[DEBG] "
	case LevelInfo:
		colorStart = "\033[32m" // Green
		label = "[INFO] "
	case LevelWarn:
		colorStart = "\033[33m" // Yellow
		label = "[WARN] "
	case LevelError:
		colorStart = "\033[31m" // Red
		label = "[EROR] "
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.dir != "" {
		if err := l.rotateLocked(nowTime); err == nil && l.file != nil {
			_, _ = fmt.Fprintf(l.file, "%s %s%s\n", now, label, msg)
		}
	}
	if l.out == os.Stdout {
		fmt.Fprintf(l.out, "%s %s%s\033[0m%s\n", now, colorStart, label, msg)
		return
	}
	fmt.Fprintf(l.out, "%s %s%s\n", now, label, msg)
}

func (l *Logger) rotateLocked(t time.Time) error {
	day := t.Format("2006-01-02")
	if l.file != nil && l.currentDay == day {
		return nil
	}
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
	filePath := filepath.Join(l.dir, day+".log")
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	l.file = f
	l.currentDay = day
	return nil
}
