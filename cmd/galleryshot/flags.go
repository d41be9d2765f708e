package main

import (
	"errors"
	"fmt"

	"github.com/root4loot/galleryshot/pkg/capture"
)

var errMissingValue = errors.New("missing value")

// cliOptions holds what was given on the command line.
type cliOptions struct {
	Targets    []capture.Target
	URLsFile   string
	FullPage   bool
	Device     string
	OutputDir  string // absolute
	ConfigFile string
	Driver     string
	Imprint    bool
	Debug      bool
	Silence    bool
	Help       bool
	Version    bool
}

// parseArgs walks the tokens after the program name. Unknown tokens are
// ignored, --help stops parsing right away, and a flag missing its value is
// an error.
func parseArgs(args []string) (*cliOptions, error) {
	opts := &cliOptions{}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		value := func() (string, error) {
			if i+1 >= len(args) {
				return "", fmt.Errorf("%w for %s", errMissingValue, arg)
			}
			i++
			return args[i], nil
		}

		var err error
		switch arg {
		case "--url":
			var u string
			if u, err = value(); err == nil {
				opts.Targets = append(opts.Targets, capture.NewTarget(u))
			}
		case "--urls-file":
			opts.URLsFile, err = value()
		case "--full-page":
			opts.FullPage = true
		case "--device":
			opts.Device, err = value()
		case "--output":
			var dir string
			if dir, err = value(); err == nil {
				opts.OutputDir = capture.AbsPath(dir)
			}
		case "--config":
			opts.ConfigFile, err = value()
		case "--driver":
			opts.Driver, err = value()
		case "--imprint":
			opts.Imprint = true
		case "--debug":
			opts.Debug = true
		case "--silence":
			opts.Silence = true
		case "--version":
			opts.Version = true
		case "--help", "-h":
			opts.Help = true
			return opts, nil
		}

		if err != nil {
			return nil, err
		}
	}

	return opts, nil
}

// showProgress reports whether the spinner may draw on stderr. Debug logging
// writes there between spinner frames, so the two are exclusive.
func (c *cliOptions) showProgress() bool {
	return !c.Silence && !c.Debug
}

// captureOptions layers the config file (if any) and the command line over
// the defaults.
func (c *cliOptions) captureOptions() (capture.Options, error) {
	options := capture.NewOptions()
	if c.ConfigFile != "" {
		var err error
		if options, err = capture.LoadOptions(c.ConfigFile); err != nil {
			return options, err
		}
	}

	if c.FullPage {
		options.FullPage = true
	}
	if c.Device != "" {
		options.Device = c.Device
	}
	if c.OutputDir != "" {
		options.OutputDir = c.OutputDir
	}
	if c.Driver != "" {
		options.Driver = c.Driver
	}
	if c.Imprint {
		options.Imprint = true
	}

	return options, options.Validate()
}
