// Package log provides the agent loop's structured debug logging: a
// rotating file sink enabled by CODEPILOT_DEBUG, plus an optional
// CODEPILOT_DEV_DIR dump of every request/response pair for offline replay.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger      *zap.Logger
	enabled     bool
	initialized bool
	mu          sync.Mutex
	turnCount   int

	devDir     string
	devEnabled bool
)

// Init wires up the logger from CODEPILOT_DEBUG and CODEPILOT_DEV_DIR. Safe
// to call more than once; only the first call takes effect.
func Init() error {
	mu.Lock()
	defer mu.Unlock()

	if initialized {
		return nil
	}
	initialized = true

	if dir := os.Getenv("CODEPILOT_DEV_DIR"); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create CODEPILOT_DEV_DIR: %w", err)
		}
		devDir = dir
		devEnabled = true
	}

	if os.Getenv("CODEPILOT_DEBUG") != "1" {
		logger = zap.NewNop()
		return nil
	}
	enabled = true

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	logDir := filepath.Join(homeDir, ".codepilot")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return err
	}

	writeSyncer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, "debug.log"),
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	})

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "T",
		MessageKey:     "M",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), writeSyncer, zapcore.DebugLevel)
	logger = zap.New(core, zap.AddCaller())
	logger.Info("debug logging started")
	return nil
}

// IsEnabled reports whether CODEPILOT_DEBUG logging is active.
func IsEnabled() bool { return enabled }

// Logger returns the underlying zap logger, or a no-op logger before Init.
func Logger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Sync flushes any buffered log entries.
func Sync() error {
	if logger != nil {
		return logger.Sync()
	}
	return nil
}

// NextTurn increments and returns the conversation turn counter, used to
// name dev-dir dump files and correlate log lines to a turn.
func NextTurn() int {
	mu.Lock()
	defer mu.Unlock()
	turnCount++
	return turnCount
}

// CurrentTurn returns the current turn number without advancing it.
func CurrentTurn() int {
	mu.Lock()
	defer mu.Unlock()
	return turnCount
}

// TurnPrefix formats a turn number for file naming, e.g. "turn-005".
func TurnPrefix(turn int) string {
	return fmt.Sprintf("turn-%03d", turn)
}

// LogStreamDone logs SSE stream completion stats.
func LogStreamDone(duration time.Duration, events int) {
	if !enabled {
		return
	}
	logger.Info(fmt.Sprintf("[stream] done duration=%s events=%d", duration.Round(time.Millisecond), events))
}

// LogTool logs one tool execution with timing.
func LogTool(name, id string, durationMs int64, success bool) {
	if !enabled {
		return
	}
	status := "ok"
	if !success {
		status = "error"
	}
	logger.Info(fmt.Sprintf("[tool] %s id=%s %dms %s", name, id, durationMs, status))
}
