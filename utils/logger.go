package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// Level is the minimum severity a Logger writes.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger provides leveled, timestamped logging throughout the application.
// It also satisfies resty's Logger interface through Errorf, Warnf and Debugf.
type Logger struct {
	level Level
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
	debug *log.Logger
}

// NewLogger creates a Logger writing info/warn/debug to stdout and errors to
// stderr. Debug lines are only written when verbose is set.
func NewLogger(verbose bool) *Logger {
	level := LevelInfo
	if verbose {
		level = LevelDebug
	}
	return NewLoggerTo(os.Stdout, os.Stderr, level)
}

// NewLoggerTo creates a Logger with explicit writers and minimum level.
func NewLoggerTo(out, errOut io.Writer, level Level) *Logger {
	flags := 0
	return &Logger{
		level: level,
		info:  log.New(out, "", flags),
		warn:  log.New(out, "", flags),
		err:   log.New(errOut, "", flags),
		debug: log.New(out, "", flags),
	}
}

// NewNopLogger discards everything.
func NewNopLogger() *Logger {
	return NewLoggerTo(io.Discard, io.Discard, LevelError+1)
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) Info(format string, args ...any) {
	if l.level > LevelInfo {
		return
	}
	l.info.Printf(fmt.Sprintf("[%s] \033[32mINFO\033[0m  %s\n", l.timestamp(), format), args...)
}

func (l *Logger) Warn(format string, args ...any) {
	if l.level > LevelWarn {
		return
	}
	l.warn.Printf(fmt.Sprintf("[%s] \033[33mWARN\033[0m  %s\n", l.timestamp(), format), args...)
}

func (l *Logger) Error(format string, args ...any) {
	if l.level > LevelError {
		return
	}
	l.err.Printf(fmt.Sprintf("[%s] \033[31mERROR\033[0m %s\n", l.timestamp(), format), args...)
}

func (l *Logger) Debug(format string, args ...any) {
	if l.level > LevelDebug {
		return
	}
	l.debug.Printf(fmt.Sprintf("[%s] \033[36mDEBUG\033[0m %s\n", l.timestamp(), format), args...)
}

func (l *Logger) Errorf(format string, args ...any) { l.Error(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.Warn(format, args...) }
func (l *Logger) Debugf(format string, args ...any) { l.Debug(format, args...) }
