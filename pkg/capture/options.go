package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/root4loot/galleryshot/pkg/browser"
)

// Browser drivers.
const (
	DriverRod      = "rod"
	DriverChromedp = "chromedp"
)

// Options contains the settings of a capture run.
type Options struct {
	DefaultTargets []Target         `yaml:"default_urls"`    // used when no URL was given
	OutputDir      string           `yaml:"output_dir"`      // where images, index and summary go
	Viewport       browser.Viewport `yaml:"viewport"`        // base viewport, replaced by a device's
	FullPage       bool             `yaml:"full_page"`       // capture the whole scrollable page
	Device         string           `yaml:"device"`          // device profile to emulate
	Format         string           `yaml:"format"`          // png or jpeg
	Quality        int              `yaml:"quality"`         // jpeg only (1-100)
	Timeout        time.Duration    `yaml:"timeout"`         // navigation timeout
	WaitAfterLoad  time.Duration    `yaml:"wait_after_load"` // settle time after the network is idle
	Imprint        bool             `yaml:"imprint"`         // stamp the origin under each image
	Driver         string           `yaml:"driver"`          // rod or chromedp
}

// NewOptions returns an Options struct initialized with default values.
func NewOptions() Options {
	return Options{
		DefaultTargets: []Target{{URL: "http://localhost:3000", Name: "home"}},
		OutputDir:      AbsPath("screenshots"),
		Viewport:       browser.Viewport{Width: 1280, Height: 720},
		FullPage:       false,
		Format:         browser.FormatPNG,
		Quality:        90,
		Timeout:        30 * time.Second,
		WaitAfterLoad:  time.Second,
		Driver:         DriverRod,
	}
}

// LoadOptions reads a YAML file over the defaults.
func LoadOptions(path string) (Options, error) {
	options := NewOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		return options, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &options); err != nil {
		return options, fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	options.OutputDir = AbsPath(options.OutputDir)
	for i, t := range options.DefaultTargets {
		if t.Name == "" {
			options.DefaultTargets[i].Name = Slugify(t.URL)
		}
	}

	return options, nil
}

// Validate normalizes the image format and checks every field.
func (o *Options) Validate() error {
	if o.Format == "jpg" {
		o.Format = browser.FormatJPEG
	}

	switch {
	case o.Format != browser.FormatPNG && o.Format != browser.FormatJPEG:
		return fmt.Errorf("%w: unsupported format %q (supported: png, jpeg)", ErrInvalidOptions, o.Format)
	case o.Quality < 1 || o.Quality > 100:
		return fmt.Errorf("%w: quality must be between 1 and 100, got %d", ErrInvalidOptions, o.Quality)
	case o.Viewport.Width <= 0 || o.Viewport.Height <= 0:
		return fmt.Errorf("%w: invalid viewport %s", ErrInvalidOptions, o.Viewport)
	case o.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidOptions)
	case o.WaitAfterLoad < 0:
		return fmt.Errorf("%w: wait_after_load must not be negative", ErrInvalidOptions)
	case o.Driver != DriverRod && o.Driver != DriverChromedp:
		return fmt.Errorf("%w: unknown driver %q (supported: rod, chromedp)", ErrInvalidOptions, o.Driver)
	case o.OutputDir == "":
		return fmt.Errorf("%w: output directory is empty", ErrInvalidOptions)
	}

	return nil
}

func (o Options) screenshotOptions() browser.ScreenshotOptions {
	opts := browser.ScreenshotOptions{FullPage: o.FullPage, Format: o.Format}
	if o.Format == browser.FormatJPEG {
		opts.Quality = o.Quality
	}
	return opts
}

// AbsPath resolves path against the working directory, leaving it as is if
// that fails.
func AbsPath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
