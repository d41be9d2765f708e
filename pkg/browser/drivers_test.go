package browser_test

import (
	"bytes"
	"context"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/root4loot/galleryshot/pkg/browser"
	"github.com/root4loot/galleryshot/pkg/capture"
)

const (
	fastPage    = `<!DOCTYPE html><html><body><h1>ready</h1></body></html>`
	hangingPage = `<!DOCTYPE html><html><body><img src="/slow.png"></body></html>`
)

// browserBin returns a local Chrome or skips the test.
func browserBin(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("no browser found")
	}
	return bin
}

// newSite serves a fast page on / and a page whose image never loads on /hang.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(fastPage))
	})
	mux.HandleFunc("/hang", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(hangingPage))
	})
	mux.HandleFunc("/slow.png", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })
	return srv
}

func openPage(t *testing.T, l browser.Launcher) browser.Page {
	t.Helper()
	ctx := context.Background()

	b, err := l.Launch(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, b.Close()) })

	bctx, err := b.NewContext(ctx, browser.ContextOptions{
		Viewport:          browser.Viewport{Width: 400, Height: 300},
		IgnoreHTTPSErrors: true,
	})
	require.NoError(t, err)

	page, err := bctx.NewPage(ctx)
	require.NoError(t, err)
	return page
}

func testDriver(t *testing.T, l browser.Launcher) {
	srv := newSite(t)
	page := openPage(t, l)
	ctx := context.Background()

	t.Run("fast page", func(t *testing.T) {
		start := time.Now()
		require.NoError(t, page.Goto(ctx, srv.URL+"/", 10*time.Second))
		assert.Less(t, time.Since(start), 10*time.Second)
	})

	t.Run("hanging subresource times out", func(t *testing.T) {
		start := time.Now()
		err := page.Goto(ctx, srv.URL+"/hang", 2*time.Second)
		require.Error(t, err)
		assert.True(t, capture.IsTimeoutError(err), "got %v", err)
		assert.Less(t, time.Since(start), 6*time.Second)
	})

	t.Run("idle from an earlier page does not end the wait", func(t *testing.T) {
		require.NoError(t, page.Goto(ctx, srv.URL+"/", 10*time.Second))
		err := page.Goto(ctx, srv.URL+"/hang", 2*time.Second)
		assert.True(t, capture.IsTimeoutError(err), "got %v", err)
	})

	t.Run("unresolvable host", func(t *testing.T) {
		err := page.Goto(ctx, "http://galleryshot.invalid/", 10*time.Second)
		require.Error(t, err)
	})

	t.Run("jpeg screenshot", func(t *testing.T) {
		require.NoError(t, page.Goto(ctx, srv.URL+"/", 10*time.Second))

		img, err := page.Screenshot(ctx, browser.ScreenshotOptions{Format: browser.FormatJPEG, Quality: 80})
		require.NoError(t, err)

		cfg, err := jpeg.DecodeConfig(bytes.NewReader(img))
		require.NoError(t, err)
		assert.Equal(t, 400, cfg.Width)
		assert.Equal(t, 300, cfg.Height)
	})

	t.Run("full page png", func(t *testing.T) {
		img, err := page.Screenshot(ctx, browser.ScreenshotOptions{FullPage: true, Format: browser.FormatPNG})
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))
	})
}
