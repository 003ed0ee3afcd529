package logger

import (
	"fmt"
	"log"
	"strings"
)

// Level filters the leveled helpers below.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var level = LevelInfo

// ParseLevel maps "DEBUG", "INFO", "WARN" or "ERROR" (any case) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "", "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// SetLevel sets the global level. Call it once at startup.
func SetLevel(l Level) { level = l }

// Enabled reports whether messages at l are written.
func Enabled(l Level) bool { return l >= level }

// Debugf logs at DEBUG.
func Debugf(format string, v ...any) {
	if Enabled(LevelDebug) {
		log.Printf("[DEBUG] "+format, v...)
	}
}

// Infof logs at INFO.
func Infof(format string, v ...any) {
	if Enabled(LevelInfo) {
		log.Printf("[INFO] "+format, v...)
	}
}

// Warnf logs at WARN.
func Warnf(format string, v ...any) {
	if Enabled(LevelWarn) {
		log.Printf("[WARN] "+format, v...)
	}
}

// Errorf logs at ERROR.
func Errorf(format string, v ...any) {
	if Enabled(LevelError) {
		log.Printf("[ERROR] "+format, v...)
	}
}
