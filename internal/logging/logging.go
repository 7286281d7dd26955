// Package logging builds the structured loggers used by every component.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// Options selects the logger's verbosity and destination.
type Options struct {
	// Name prefixes every line.
	Name string
	// Level is a level name understood by hclog; empty means warn.
	Level string
	// Verbose forces debug output and wins over Quiet.
	Verbose bool
	// Quiet limits output to errors.
	Quiet bool
	// Output defaults to stderr.
	Output io.Writer
}

// New creates the root logger. Components derive theirs with Named.
func New(opts Options) hclog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	name := opts.Name
	if name == "" {
		name = "deskprefs"
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Output: out,
		Level:  Level(opts),
	})
}

// Level resolves the effective level of opts.
func Level(opts Options) hclog.Level {
	switch {
	case opts.Verbose:
		return hclog.Debug
	case opts.Quiet:
		return hclog.Error
	}
	if lvl := hclog.LevelFromString(opts.Level); lvl != hclog.NoLevel {
		return lvl
	}
	return hclog.Warn
}
