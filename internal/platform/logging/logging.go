package logging

import (
	"io"
	"os"

	hclog "github.com/hashicorp/go-hclog"
)

// New builds the process logger. Unknown levels fall back to info.
func New(name, level string, out io.Writer) hclog.Logger {
	return hclog.New(options(name, level, out))
}

// NewPluginChild logs JSON to stderr, which go-plugin parses and re-emits
// through the parent's logger.
func NewPluginChild(name, level string) hclog.Logger {
	opts := options(name, level, os.Stderr)
	opts.JSONFormat = true
	return hclog.New(opts)
}

func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}

func options(name, level string, out io.Writer) *hclog.LoggerOptions {
	if out == nil {
		out = os.Stderr
	}
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Info
	}
	return &hclog.LoggerOptions{
		Name:   name,
		Level:  lvl,
		Output: out,
	}
}
