// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Lsoni680/ai-chatbot-new/internal/config"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup applies level, format and the optional rotating file to the global logger.
// The returned closer releases the log file and is never nil.
func Setup(cfg config.LoggingConfig) (io.Closer, error) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var console io.Writer = os.Stderr
	if cfg.Format == "console" || os.Getenv("ENV") != "production" {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	if cfg.File == "" {
		log.Logger = zerolog.New(console).With().Timestamp().Logger()
		return nopCloser{}, nil
	}

	rotator, err := NewRotatingFile(cfg.File, cfg.MaxAge, cfg.RotationTime)
	if err != nil {
		return nil, err
	}

	// The file always receives JSON lines
	out := zerolog.MultiLevelWriter(console, rotator)
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	return rotator, nil
}

// NewRotatingFile opens a time-rotated log file. Rotated files are named
// <path>.YYYYMMDD and path itself links to the current one.
func NewRotatingFile(path string, maxAge, rotationTime time.Duration) (*rotatelogs.RotateLogs, error) {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	if rotationTime <= 0 {
		rotationTime = 24 * time.Hour
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	rotator, err := rotatelogs.New(
		path+".%Y%m%d",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(rotationTime),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return rotator, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
