package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/vango-dev/inactive/internal/config"
	"github.com/vango-dev/inactive/internal/errors"
)

// loadProject loads the project configuration and installs the default
// logger it asks for.
func loadProject(g *globals) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.dir != "" {
		cfg, err = config.Load(g.dir)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	switch {
	case g.verbose:
		level = "debug"
	case g.logLevel != "":
		level = g.logLevel
	}

	logger, err := newLogger(stderr, level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cfg, nil
}

// newLogger returns a text or JSON slog logger writing to w.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, errors.New("E123").WithDetailf("unknown log level %q", level)
		}
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, errors.New("E120").WithDetailf("unknown log format %q", format)
	}
}
