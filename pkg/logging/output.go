package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
)

// OutputOptions describes where and how records are written.
type OutputOptions struct {
	Level  string
	Format string // text or json
	// Output is "stdout", "stderr" or a file path. Files are rotated.
	Output     string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// OpenWriter resolves the output destination. File destinations are wrapped
// in a rotating lumberjack writer which the caller must Close.
func OpenWriter(o OutputOptions) io.WriteCloser {
	switch strings.ToLower(o.Output) {
	case "", "stderr":
		return nopCloser{os.Stderr}
	case "stdout":
		return nopCloser{os.Stdout}
	}
	return &lumberjack.Logger{
		Filename:   o.Output,
		MaxSize:    o.MaxSizeMB,
		MaxBackups: o.MaxBackups,
		MaxAge:     o.MaxAgeDays,
		Compress:   o.Compress,
	}
}

// Open builds a Logger for the given options. The returned closer releases
// the output file, if any.
func Open(o OutputOptions) (*Logger, io.Closer, error) {
	level, err := ParseLevel(o.Level)
	if err != nil {
		return nil, nil, err
	}
	w := OpenWriter(o)
	switch strings.ToLower(o.Format) {
	case "", "text":
		return NewTextLogger(w, level), w, nil
	case "json":
		return NewJSONLogger(w, level), w, nil
	}
	_ = w.Close()
	return nil, nil, fmt.Errorf("unknown log format %q", o.Format)
}
