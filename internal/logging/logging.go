// Package logging builds the daemon's structured logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/1broseidon/taskleash/internal/config"
)

// Open returns a text slog logger at the configured level. With
// logging.file set it appends to that file (created 0600) and the returned
// close func releases it; otherwise it writes to fallback.
func Open(cfg *config.Config, fallback io.Writer) (*slog.Logger, func() error, error) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	if cfg.Logging.File == "" {
		return slog.New(slog.NewTextHandler(fallback, opts)), func() error { return nil }, nil
	}

	dir := filepath.Dir(cfg.Logging.File)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, opts)), f.Close, nil
}
