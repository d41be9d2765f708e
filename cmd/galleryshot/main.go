package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/root4loot/galleryshot/pkg/browser"
	"github.com/root4loot/galleryshot/pkg/capture"
	"github.com/root4loot/galleryshot/pkg/report"
)

const (
	author  = "@danielantonsen"
	version = "0.1.0"
	usage   = `USAGE:
  galleryshot [options]

INPUT:
  --url <url>                    URL to capture (repeatable)
  --urls-file <path>             file with URLs to capture (one per line, # for comments)
                                 Without any URL, http://localhost:3000 is captured.

CONFIGURATIONS:
  --full-page                    capture the full scrollable page                        (Default: false)
  --device <name>                emulate a named device (e.g. "iPhone 13", "iPad Pro")
  --driver <rod|chromedp>        browser automation driver                               (Default: rod)
  --config <path>                YAML file with default settings

OUTPUT:
  --output <dir>                 output directory                                        (Default: ./screenshots)
  --imprint                      add the URL origin below each image                     (Default: false)
  --debug                        enable debug logging
  --silence                      only log errors
  --version                      display version
  --help                         display this help
`
)

const (
	exitOK = iota
	exitFailure
	exitUsage
)

// cli carries the process-level dependencies of a run.
type cli struct {
	newLauncher func(driver string) browser.Launcher
	now         func() time.Time
	stdout      io.Writer
	stderr      io.Writer
}

func main() {
	c := &cli{
		newLauncher: newLauncher,
		now:         time.Now,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}
	os.Exit(c.run(context.Background(), os.Args[1:]))
}

func newLauncher(driver string) browser.Launcher {
	if driver == capture.DriverChromedp {
		return browser.ChromedpLauncher{}
	}
	return browser.RodLauncher{}
}

func (c *cli) run(ctx context.Context, args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n\n%s", err, usage)
		return exitUsage
	}

	if opts.Help {
		fmt.Fprint(c.stdout, usage)
		return exitOK
	}
	if opts.Version {
		fmt.Fprintf(c.stdout, "galleryshot %s by %s\n", version, author)
		return exitOK
	}

	log := newLogger(c.stderr, opts)

	options, err := opts.captureOptions()
	if err != nil {
		log.Errorf("Configuration error: %v", err)
		return exitFailure
	}

	targets, err := capture.ResolveTargets(opts.Targets, opts.URLsFile, options.DefaultTargets)
	if err != nil {
		if errors.Is(err, capture.ErrURLsFileNotFound) {
			log.Errorf("URLs file not found: %s", capture.AbsPath(opts.URLsFile))
		} else {
			log.Errorf("Error reading URLs file: %v", err)
		}
		return exitFailure
	}

	log.Infof("Capturing %d URL(s) into %s", len(targets), options.OutputDir)
	log.Debugf("Driver: %s, viewport: %s, full page: %t", options.Driver, options.Viewport, options.FullPage)

	capturer := capture.NewCapturer(options, c.newLauncher(options.Driver))
	capturer.Logger = log
	capturer.Now = c.now
	if opts.showProgress() {
		if p := newProgress(c.stderr); p != nil {
			capturer.Progress = p
		}
	}

	results, err := capturer.Run(ctx, targets)
	if err != nil {
		var deviceErr *capture.UnknownDeviceError
		if errors.As(err, &deviceErr) {
			log.Errorf("Unknown device: %s", deviceErr.Name)
			fmt.Fprintf(c.stderr, "Available devices: %s\n", strings.Join(deviceErr.Available, ", "))
			return exitFailure
		}
		log.Errorf("Fatal error: %v", err)
		return exitFailure
	}

	captures := make([]report.Capture, 0, len(results))
	for _, r := range results {
		captures = append(captures, report.Capture{URL: r.URL, Name: r.Name, Filename: r.Filename})
	}

	generated := c.now()

	if len(captures) > 0 {
		path, err := report.WriteIndex(options.OutputDir, captures, generated)
		if err != nil {
			log.Errorf("Error writing index: %v", err)
			return exitFailure
		}
		log.Infof("Gallery: %s", path)
	} else {
		log.Warn("No screenshots captured")
	}

	summary := report.NewSummary(generated, len(targets), options.OutputDir, captures)
	path, err := report.WriteSummary(options.OutputDir, summary)
	if err != nil {
		log.Errorf("Error writing summary: %v", err)
		return exitFailure
	}
	log.Debugf("Summary: %s", path)

	log.Infof("Done: %d/%d captured", summary.Successful, summary.Total)
	return exitOK
}

func newLogger(w io.Writer, opts *cliOptions) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	switch {
	case opts.Silence:
		log.SetLevel(logrus.ErrorLevel)
	case opts.Debug:
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}
