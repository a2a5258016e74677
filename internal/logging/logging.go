// Package logging configures the zerolog logger: human-readable console
// output plus an append-only log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup builds the run logger. When logFile is non-empty, every event is
// also appended there in JSON form; the returned closer owns the file
// handle. The run_id field ties all lines of one invocation together.
func Setup(level, logFile, runID string) (zerolog.Logger, io.Closer, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("parse log level %q: %w", level, err)
		}
		lvl = parsed
	}

	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}

	var writer io.Writer = console
	var closer io.Closer
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
		}
		writer = zerolog.MultiLevelWriter(console, f)
		closer = f
	}

	logger := zerolog.New(writer).Level(lvl).With().
		Timestamp().
		Str("service", "ytaudio").
		Str("run_id", runID).
		Logger()

	return logger, closer, nil
}
