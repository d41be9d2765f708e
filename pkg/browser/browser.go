// Package browser is the narrow capability surface the capture run needs from
// a browser-automation library: launch a browser, open a context and a page,
// navigate and take screenshots. Two drivers are provided, go-rod (default)
// and chromedp.
package browser

import (
	"context"
	"fmt"
	"time"
)

// Launcher starts a browser.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// Browser is a running browser instance.
type Browser interface {
	NewContext(ctx context.Context, opts ContextOptions) (Context, error)
	Close() error
}

// Context is an isolated browsing context with its own emulation settings.
type Context interface {
	NewPage(ctx context.Context) (Page, error)
}

// Page is a single tab.
type Page interface {
	// Goto navigates to url and waits until the network is idle or timeout
	// elapses. Hitting the timeout is an error.
	Goto(ctx context.Context, url string, timeout time.Duration) error
	Screenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error)
}

// Viewport is a width x height in CSS pixels.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func (v Viewport) String() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// ContextOptions configures a browsing context.
type ContextOptions struct {
	Viewport          Viewport
	IgnoreHTTPSErrors bool
	DeviceScaleFactor float64 // 0 means 1
	UserAgent         string  // empty keeps the browser default
	IsMobile          bool
	HasTouch          bool
}

// WithDevice returns a copy of o with the device profile merged over it.
func (o ContextOptions) WithDevice(d Device) ContextOptions {
	o.Viewport = d.Viewport
	o.DeviceScaleFactor = d.DeviceScaleFactor
	o.UserAgent = d.UserAgent
	o.IsMobile = d.IsMobile
	o.HasTouch = d.HasTouch
	return o
}

func (o ContextOptions) scale() float64 {
	if o.DeviceScaleFactor <= 0 {
		return 1
	}
	return o.DeviceScaleFactor
}

// Image formats understood by ScreenshotOptions.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// ScreenshotOptions controls a single capture.
type ScreenshotOptions struct {
	FullPage bool
	Format   string // FormatPNG or FormatJPEG
	Quality  int    // JPEG only, 1-100
}

func (o ScreenshotOptions) jpeg() bool {
	return o.Format == FormatJPEG
}
