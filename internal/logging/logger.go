package logging

import (
	"log"
	"os"
)

// Level represents logging verbosity.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// Logger provides leveled, hierarchical logging on top of the standard
// library logger. A nil *Logger is a valid no-op sink, so components may
// carry an optional logger without guarding every call site.
type Logger struct {
	level Level
	name  string
}

// New creates a logger with the specified level.
func New(level Level) *Logger {
	return &Logger{level: level}
}

// NewDefault creates a logger whose level is taken from the LOG_LEVEL
// environment variable, falling back to INFO.
func NewDefault() *Logger {
	level := LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "ERROR":
		level = LevelError
	case "WARN":
		level = LevelWarn
	case "INFO":
		level = LevelInfo
	case "DEBUG":
		level = LevelDebug
	}
	return &Logger{level: level}
}

// Child returns a logger scoped with a dotted name suffix, e.g.
// log.Child("analysis.srm_diag").
func (l *Logger) Child(name string) *Logger {
	if l == nil {
		return nil
	}
	child := &Logger{level: l.level, name: name}
	if l.name != "" {
		child.name = l.name + "." + name
	}
	return child
}

func (l *Logger) Error(format string, args ...interface{}) { l.emit(LevelError, "ERROR", format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.emit(LevelWarn, "WARN", format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.emit(LevelInfo, "INFO", format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.emit(LevelDebug, "DEBUG", format, args...) }

func (l *Logger) emit(level Level, tag, format string, args ...interface{}) {
	if l == nil || l.level < level {
		return
	}
	prefix := "[" + tag + "] "
	if l.name != "" {
		prefix += l.name + ": "
	}
	log.Printf(prefix+format, args...)
}
