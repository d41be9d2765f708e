// Package capture runs a screenshot session: it opens one browser page and
// captures a list of targets into an output directory, one after the other.
package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/root4loot/galleryshot/pkg/browser"
)

// RunTimestampLayout is the filesystem-safe, second-granularity stamp shared
// by every file of a run.
const RunTimestampLayout = "2006-01-02T15-04-05"

// Result describes a successful capture.
type Result struct {
	URL      string
	Name     string
	Filename string // relative to the output directory
	FilePath string
}

// Progress receives per-target notifications.
type Progress interface {
	Start(index, total int, url string)
	Done(url string, err error)
}

// Capturer captures targets with a browser.
type Capturer struct {
	Options  Options
	Launcher browser.Launcher
	Logger   logrus.FieldLogger // defaults to the logrus standard logger
	Progress Progress           // optional
	Now      func() time.Time   // defaults to time.Now
}

// NewCapturer creates a Capturer with the provided options.
func NewCapturer(options Options, launcher browser.Launcher) *Capturer {
	return &Capturer{
		Options:  options,
		Launcher: launcher,
	}
}

// Run captures every target and returns the ones that succeeded, in order.
// Per-target failures are logged and skipped. A returned error means the
// session itself could not be set up.
func (c *Capturer) Run(ctx context.Context, targets []Target) ([]Result, error) {
	log := c.logger()
	opts := c.Options

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating output directory: %w", err)
	}

	b, err := c.Launcher.Launch(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := b.Close(); cerr != nil {
			log.Warnf("Error closing browser: %v", cerr)
		}
	}()

	contextOptions := browser.ContextOptions{
		Viewport:          opts.Viewport,
		IgnoreHTTPSErrors: true,
	}

	if opts.Device != "" {
		device, ok := browser.LookupDevice(opts.Device)
		if !ok {
			return nil, &UnknownDeviceError{Name: opts.Device, Available: browser.DeviceNames()}
		}
		contextOptions = contextOptions.WithDevice(device)
		log.Infof("Emulating %s (%s)", device.Name, device.Viewport)
	}

	bctx, err := b.NewContext(ctx, contextOptions)
	if err != nil {
		return nil, err
	}
	page, err := bctx.NewPage(ctx)
	if err != nil {
		return nil, err
	}

	stamp := c.now().UTC().Format(RunTimestampLayout)

	var results []Result

	for i, target := range targets {
		if c.Progress != nil {
			c.Progress.Start(i, len(targets), target.URL)
		}

		result, err := c.captureTarget(ctx, page, target, stamp)

		if c.Progress != nil {
			c.Progress.Done(target.URL, err)
		}

		if err != nil {
			logCaptureError(log, target.URL, err)
			continue
		}

		log.WithField("url", target.URL).Infof("Saved %s", result.Filename)
		results = append(results, result)
	}

	return results, nil
}

func (c *Capturer) captureTarget(ctx context.Context, page browser.Page, target Target, stamp string) (Result, error) {
	opts := c.Options
	c.logger().Debugf("Attempting capture on %s", target.URL)

	if err := page.Goto(ctx, target.URL, opts.Timeout); err != nil {
		return Result{}, err
	}

	if err := sleep(ctx, opts.WaitAfterLoad); err != nil {
		return Result{}, err
	}

	img, err := page.Screenshot(ctx, opts.screenshotOptions())
	if err != nil {
		return Result{}, err
	}

	if opts.Imprint {
		origin, err := Origin(target.URL)
		if err != nil {
			return Result{}, err
		}
		img, err = Imprint(img, origin, opts.Format, opts.Quality)
		if err != nil {
			return Result{}, err
		}
	}

	filename := Filename(target.Name, stamp, opts.Format)
	filePath := filepath.Join(opts.OutputDir, filename)

	if err := os.WriteFile(filePath, img, 0o644); err != nil {
		return Result{}, fmt.Errorf("error saving screenshot: %w", err)
	}

	return Result{
		URL:      target.URL,
		Name:     target.Name,
		Filename: filename,
		FilePath: filePath,
	}, nil
}

// Filename is <name>_<stamp>.<ext>.
func Filename(name, stamp, ext string) string {
	return fmt.Sprintf("%s_%s.%s", name, stamp, ext)
}

func logCaptureError(log logrus.FieldLogger, url string, err error) {
	entry := log.WithField("url", url)
	switch {
	case IsDNSError(err):
		entry.Errorf("Error capturing %s: DNS lookup failed", url)
	case IsTimeoutError(err):
		entry.Errorf("Error capturing %s: timed out (%s)", url, RootCause(err))
	default:
		entry.Errorf("Error capturing %s: %s", url, RootCause(err))
	}
	entry.Debugf("Full error: %v", err)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Capturer) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

func (c *Capturer) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
