package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/security"
	"github.com/chromedp/chromedp"
)

// ChromedpLauncher starts a local headless Chrome through chromedp.
type ChromedpLauncher struct {
	ExecPath string // empty lets chromedp search the usual locations
}

// Launch starts the browser process and its first tab.
func (c ChromedpLauncher) Launch(ctx context.Context) (Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], c.flags()...)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// The first Run on a fresh context starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("error launching browser: %w", err)
	}

	return &chromedpBrowser{ctx: browserCtx, cancelAlloc: cancelAlloc}, nil
}

func (c ChromedpLauncher) flags() []chromedp.ExecAllocatorOption {
	flags := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", true),
		chromedp.NoSandbox,
	}
	if c.ExecPath != "" {
		flags = append(flags, chromedp.ExecPath(c.ExecPath))
	}
	return flags
}

type chromedpBrowser struct {
	ctx         context.Context
	cancelAlloc context.CancelFunc

	mu   sync.Mutex
	tabs []context.CancelFunc
}

// NewContext records the options. chromedp applies emulation per tab, so
// the work happens in NewPage.
func (b *chromedpBrowser) NewContext(ctx context.Context, opts ContextOptions) (Context, error) {
	return &chromedpContext{browser: b, opts: opts}, nil
}

func (b *chromedpBrowser) Close() error {
	b.mu.Lock()
	for _, cancel := range b.tabs {
		cancel()
	}
	b.tabs = nil
	b.mu.Unlock()

	err := chromedp.Cancel(b.ctx)
	b.cancelAlloc()
	return err
}

type chromedpContext struct {
	browser *chromedpBrowser
	opts    ContextOptions
}

func (c *chromedpContext) NewPage(ctx context.Context) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(c.browser.ctx)

	var tasks chromedp.Tasks
	if c.opts.IgnoreHTTPSErrors {
		tasks = append(tasks, security.SetIgnoreCertificateErrors(true))
	}

	emulate := []chromedp.EmulateViewportOption{chromedp.EmulateScale(c.opts.scale())}
	if c.opts.IsMobile {
		emulate = append(emulate, chromedp.EmulateMobile)
	}
	if c.opts.HasTouch {
		emulate = append(emulate, chromedp.EmulateTouch)
	}
	tasks = append(tasks, chromedp.EmulateViewport(int64(c.opts.Viewport.Width), int64(c.opts.Viewport.Height), emulate...))

	if c.opts.UserAgent != "" {
		tasks = append(tasks, emulation.SetUserAgentOverride(c.opts.UserAgent))
	}
	tasks = append(tasks, page.SetLifecycleEventsEnabled(true))

	if err := chromedp.Run(tabCtx, tasks); err != nil {
		cancel()
		return nil, fmt.Errorf("error opening page: %w", err)
	}

	c.browser.mu.Lock()
	c.browser.tabs = append(c.browser.tabs, cancel)
	c.browser.mu.Unlock()

	return &chromedpPage{ctx: tabCtx}, nil
}

type chromedpPage struct {
	ctx context.Context
}

func (p *chromedpPage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	tctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	// loader IDs of networkIdle events, matched against this navigation below
	idle := make(chan cdp.LoaderID, 16)
	chromedp.ListenTarget(tctx, func(ev interface{}) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
			select {
			case idle <- e.LoaderID:
			default:
			}
		}
	})

	var loaderID cdp.LoaderID
	navigate := chromedp.ActionFunc(func(ctx context.Context) error {
		_, id, errorText, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		if errorText != "" {
			return errors.New(errorText)
		}
		loaderID = id
		return nil
	})

	if err := chromedp.Run(tctx, navigate); err != nil {
		if tctx.Err() != nil && ctx.Err() == nil {
			return fmt.Errorf("%s timed out after %v: %w", url, timeout, tctx.Err())
		}
		return fmt.Errorf("error navigating to %s: %w", url, err)
	}

	// same-document navigations have no loader and no lifecycle events
	if loaderID == "" {
		return nil
	}

	for {
		select {
		case id := <-idle:
			if id == loaderID {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		case <-tctx.Done():
			return fmt.Errorf("%s timed out after %v: %w", url, timeout, tctx.Err())
		}
	}
}

func (p *chromedpPage) Screenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error) {
	var buf []byte

	var action chromedp.Action
	if opts.FullPage {
		// FullScreenshot encodes PNG at quality 100 and JPEG below it.
		quality := 100
		if opts.jpeg() {
			quality = min(opts.Quality, 99)
		}
		action = chromedp.FullScreenshot(&buf, quality)
	} else {
		action = chromedp.ActionFunc(func(ctx context.Context) (err error) {
			params := page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatPng)
			if opts.jpeg() {
				params = params.WithFormat(page.CaptureScreenshotFormatJpeg).WithQuality(int64(opts.Quality))
			}
			buf, err = params.Do(ctx)
			return err
		})
	}

	if err := chromedp.Run(p.ctx, action); err != nil {
		return nil, fmt.Errorf("error capturing screenshot: %w", err)
	}
	return buf, nil
}
