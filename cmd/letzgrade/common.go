package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/letzgrade/letzgrade/pkg/config"
	"github.com/letzgrade/letzgrade/pkg/grades"
	"github.com/letzgrade/letzgrade/pkg/surface"
)

// loadConfig finds .letzgrade/config.yaml from the working directory up.
// A broken config is reported and replaced by the defaults.
func loadConfig(stderr io.Writer) *config.Config {
	cwd, err := os.Getwd()
	if err != nil {
		return config.DefaultConfig()
	}
	cfgFile := config.FindConfigFile(cwd)
	if cfgFile == "" {
		return config.DefaultConfig()
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: failed to load config: %v\n", err)
		return config.DefaultConfig()
	}
	return cfg
}

// parseEntries turns "score:weight" arguments into entries.
func parseEntries(args []string, mode grades.WeightMode, scale grades.Scale) ([]grades.Entry, error) {
	entries := make([]grades.Entry, 0, len(args))
	for _, arg := range args {
		score, weight, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, fmt.Errorf("entry %q: want score:weight", arg)
		}
		e, err := grades.ParseEntry(score, weight, mode, scale)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", arg, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// newRenderer returns the renderer for format, colouring text output
// against scale.
func newRenderer(format string, scale grades.Scale) (surface.Renderer, error) {
	r, err := surface.New(format)
	if err != nil {
		return nil, err
	}
	if tr, ok := r.(*surface.TerminalRenderer); ok {
		tr.Scale = scale
	}
	return r, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
