package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// RodLauncher starts a local headless Chrome through go-rod.
type RodLauncher struct {
	// Bin is the browser executable. Empty means the first Chrome found on
	// the system, falling back to rod's managed download.
	Bin string
}

// Launch starts the browser and connects to it.
func (r RodLauncher) Launch(ctx context.Context) (Browser, error) {
	l := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(true)

	bin := r.Bin
	if bin == "" {
		bin, _ = launcher.LookPath()
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("error launching browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("error connecting to browser: %w", err)
	}

	return &rodBrowser{browser: b, launcher: l}, nil
}

type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewContext opens an incognito browser context.
func (b *rodBrowser) NewContext(ctx context.Context, opts ContextOptions) (Context, error) {
	incognito, err := b.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("error creating browser context: %w", err)
	}

	if opts.IgnoreHTTPSErrors {
		if err := incognito.IgnoreCertErrors(true); err != nil {
			return nil, fmt.Errorf("error ignoring certificate errors: %w", err)
		}
	}

	return &rodContext{browser: incognito, opts: opts}, nil
}

func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Cleanup()
	return err
}

type rodContext struct {
	browser *rod.Browser
	opts    ContextOptions
}

func (c *rodContext) NewPage(ctx context.Context) (Page, error) {
	page, err := c.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("error opening page: %w", err)
	}

	// A user agent means a device profile: let rod apply metrics, touch and UA together.
	if c.opts.UserAgent != "" {
		err = page.Emulate(toRod(c.opts))
	} else {
		err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             c.opts.Viewport.Width,
			Height:            c.opts.Viewport.Height,
			DeviceScaleFactor: c.opts.scale(),
			Mobile:            c.opts.IsMobile,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("error setting viewport: %w", err)
	}

	if err := (proto.PageSetLifecycleEventsEnabled{Enabled: true}).Call(page); err != nil {
		return nil, fmt.Errorf("error enabling lifecycle events: %w", err)
	}

	return &rodPage{page: page}, nil
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	page := p.page.Context(ctx).Timeout(timeout)
	defer page.CancelTimeout()

	_ = page.StopLoading()

	// Only the idle event of this navigation's loader counts. The subscription
	// buffers events until wait runs, after loaderID is known.
	var loaderID proto.NetworkLoaderID
	wait := page.EachEvent(func(e *proto.PageLifecycleEvent) bool {
		return e.Name == proto.PageLifecycleEventNameNetworkIdle && e.LoaderID == loaderID
	})

	res, err := proto.PageNavigate{URL: url}.Call(page)
	if err != nil {
		if ctxErr := page.GetContext().Err(); ctxErr != nil {
			return fmt.Errorf("%s timed out after %v: %w", url, timeout, ctxErr)
		}
		return fmt.Errorf("error navigating to %s: %w", url, err)
	}
	if res.ErrorText != "" {
		return fmt.Errorf("error navigating to %s: %w", url, errors.New(res.ErrorText))
	}

	// same-document navigations have no loader and no lifecycle events
	if res.LoaderID == "" {
		return nil
	}
	loaderID = res.LoaderID
	wait()

	// wait returns quietly when the context ends, so check why it returned
	if err := page.GetContext().Err(); err != nil {
		return fmt.Errorf("%s timed out after %v: %w", url, timeout, err)
	}
	return nil
}

func (p *rodPage) Screenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error) {
	req := &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng}
	if opts.jpeg() {
		req.Format = proto.PageCaptureScreenshotFormatJpeg
		req.Quality = gson.Int(opts.Quality)
	}

	img, err := p.page.Context(ctx).Screenshot(opts.FullPage, req)
	if err != nil {
		return nil, fmt.Errorf("error capturing screenshot: %w", err)
	}
	return img, nil
}
