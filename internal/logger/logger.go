package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var Logger = slog.Default()

// Init installs the process logger from DEBUG and LOG_FORMAT.
func Init() {
	Setup(os.Getenv("DEBUG") == "true", os.Getenv("LOG_FORMAT"))
}

// Setup replaces the process logger, e.g. once .env values are known.
func Setup(debug bool, format string) {
	Logger = New(os.Stdout, debug, format)
	slog.SetDefault(Logger)
}

// New builds a text logger, or a JSON one when format is "json".
func New(w io.Writer, debug bool, format string) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}
