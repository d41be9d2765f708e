// Package browsertest provides an in-memory browser.Launcher for tests.
package browsertest

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"time"

	"github.com/root4loot/galleryshot/pkg/browser"
)

// Launcher is a fake browser.Launcher. Pages fail navigation for any URL
// listed in Fail and return a small solid image otherwise. It records every
// call so tests can check resource lifetimes.
type Launcher struct {
	Fail        map[string]error // URL -> error returned by Goto
	LaunchErr   error
	ScreenshotW int // image size, defaults to 4x3
	ScreenshotH int

	mu          sync.Mutex
	Launches    int
	Closes      int
	Contexts    []browser.ContextOptions
	PagesOpened int
	Visited     []string
	Shots       []browser.ScreenshotOptions
}

// ErrTimeout is a convenience error that looks like a navigation timeout.
var ErrTimeout = errors.New("navigation timed out: context deadline exceeded")

func (l *Launcher) Launch(ctx context.Context) (browser.Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Launches++
	if l.LaunchErr != nil {
		return nil, l.LaunchErr
	}
	return &fakeBrowser{l: l}, nil
}

type fakeBrowser struct{ l *Launcher }

func (b *fakeBrowser) NewContext(ctx context.Context, opts browser.ContextOptions) (browser.Context, error) {
	b.l.mu.Lock()
	defer b.l.mu.Unlock()
	b.l.Contexts = append(b.l.Contexts, opts)
	return &fakeContext{l: b.l}, nil
}

func (b *fakeBrowser) Close() error {
	b.l.mu.Lock()
	defer b.l.mu.Unlock()
	b.l.Closes++
	return nil
}

type fakeContext struct{ l *Launcher }

func (c *fakeContext) NewPage(ctx context.Context) (browser.Page, error) {
	c.l.mu.Lock()
	defer c.l.mu.Unlock()
	c.l.PagesOpened++
	return &fakePage{l: c.l}, nil
}

type fakePage struct{ l *Launcher }

func (p *fakePage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	p.l.mu.Lock()
	defer p.l.mu.Unlock()
	p.l.Visited = append(p.l.Visited, url)
	if err, ok := p.l.Fail[url]; ok {
		return err
	}
	return nil
}

func (p *fakePage) Screenshot(ctx context.Context, opts browser.ScreenshotOptions) ([]byte, error) {
	p.l.mu.Lock()
	p.l.Shots = append(p.l.Shots, opts)
	w, h := p.l.ScreenshotW, p.l.ScreenshotH
	p.l.mu.Unlock()

	if w == 0 || h == 0 {
		w, h = 4, 3
	}
	return Image(w, h, opts.Format)
}

// Image encodes a solid grey w x h image in the given format.
func Image(w, h int, format string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.Gray{Y: 0x80})
		}
	}

	var buf bytes.Buffer
	var err error
	if format == browser.FormatJPEG {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	} else {
		err = png.Encode(&buf, img)
	}
	return buf.Bytes(), err
}
