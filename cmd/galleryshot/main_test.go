package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/root4loot/galleryshot/pkg/browser"
	"github.com/root4loot/galleryshot/pkg/browser/browsertest"
	"github.com/root4loot/galleryshot/pkg/capture"
	"github.com/root4loot/galleryshot/pkg/report"
)

var runStart = time.Date(2026, 10, 16, 12, 30, 45, 0, time.UTC)

type harness struct {
	cli     *cli
	fake    *browsertest.Launcher
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	drivers []string
	config  string
	output  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()
	config := filepath.Join(dir, "galleryshot.yaml")
	require.NoError(t, os.WriteFile(config, []byte("wait_after_load: 0s\n"), 0o644))

	h := &harness{
		fake:   &browsertest.Launcher{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		config: config,
		output: filepath.Join(dir, "shots"),
	}
	now := runStart
	h.cli = &cli{
		newLauncher: func(driver string) browser.Launcher {
			h.drivers = append(h.drivers, driver)
			return h.fake
		},
		now:    func() time.Time { return now },
		stdout: h.stdout,
		stderr: h.stderr,
	}
	return h
}

func (h *harness) run(args ...string) int {
	args = append([]string{"--config", h.config, "--output", h.output}, args...)
	return h.cli.run(context.Background(), args)
}

func (h *harness) summary(t *testing.T) report.Summary {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(h.output, report.SummaryFile))
	require.NoError(t, err)

	var s report.Summary
	require.NoError(t, json.Unmarshal(data, &s))
	return s
}

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{
		"--url", "https://a.example",
		"--bogus",
		"--full-page",
		"--url", "https://b.example",
		"--device", "iPhone 13",
		"--urls-file", "urls.txt",
		"--output", "out",
		"--driver", "chromedp",
		"--imprint",
		"--debug",
	})
	require.NoError(t, err)

	assert.Equal(t, []capture.Target{
		{URL: "https://a.example", Name: "a-example"},
		{URL: "https://b.example", Name: "b-example"},
	}, opts.Targets)
	assert.True(t, opts.FullPage)
	assert.Equal(t, "iPhone 13", opts.Device)
	assert.Equal(t, "urls.txt", opts.URLsFile)
	assert.Equal(t, capture.AbsPath("out"), opts.OutputDir)
	assert.True(t, filepath.IsAbs(opts.OutputDir))
	assert.Equal(t, "chromedp", opts.Driver)
	assert.True(t, opts.Imprint)
	assert.True(t, opts.Debug)
	assert.False(t, opts.Help)
}

func TestParseArgsMissingValue(t *testing.T) {
	for _, flag := range []string{"--url", "--urls-file", "--device", "--output", "--config", "--driver"} {
		t.Run(flag, func(t *testing.T) {
			_, err := parseArgs([]string{"--full-page", flag})
			assert.ErrorIs(t, err, errMissingValue)
			assert.ErrorContains(t, err, flag)
		})
	}
}

func TestParseArgsHelpStopsParsing(t *testing.T) {
	opts, err := parseArgs([]string{"--full-page", "--help", "--url"})
	require.NoError(t, err)
	assert.True(t, opts.Help)
	assert.True(t, opts.FullPage)
	assert.Empty(t, opts.Targets)
}

func TestParseArgsConsumesValues(t *testing.T) {
	// a value that looks like a flag is still a value
	opts, err := parseArgs([]string{"--device", "--full-page"})
	require.NoError(t, err)
	assert.Equal(t, "--full-page", opts.Device)
	assert.False(t, opts.FullPage)
}

func TestShowProgress(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{nil, true},
		{[]string{"--debug"}, false},
		{[]string{"--silence"}, false},
		{[]string{"--debug", "--silence"}, false},
	}

	for _, tt := range tests {
		opts, err := parseArgs(tt.args)
		require.NoError(t, err)
		assert.Equal(t, tt.want, opts.showProgress(), "args %v", tt.args)
	}
}

func TestRunHelp(t *testing.T) {
	h := newHarness(t)

	code := h.cli.run(context.Background(), []string{"--url", "https://a.example", "--help"})
	assert.Equal(t, exitOK, code)
	assert.Contains(t, h.stdout.String(), "USAGE:")
	assert.Equal(t, 0, h.fake.Launches)
}

func TestRunVersion(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, exitOK, h.cli.run(context.Background(), []string{"--version"}))
	assert.Contains(t, h.stdout.String(), version)
}

func TestRunMissingValue(t *testing.T) {
	h := newHarness(t)

	code := h.cli.run(context.Background(), []string{"--url"})
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, h.stderr.String(), "missing value for --url")
	assert.Equal(t, 0, h.fake.Launches)
}

func TestRunMissingURLsFile(t *testing.T) {
	h := newHarness(t)
	missing := filepath.Join(t.TempDir(), "missing.txt")

	code := h.run("--url", "https://a.example", "--urls-file", missing)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, h.stderr.String(), "URLs file not found")
	assert.Contains(t, h.stderr.String(), missing)
	assert.Equal(t, 0, h.fake.Launches)
	assert.NoFileExists(t, filepath.Join(h.output, report.SummaryFile))
}

func TestRunInvalidDriver(t *testing.T) {
	h := newHarness(t)

	code := h.run("--driver", "selenium")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, h.stderr.String(), "Configuration error")
	assert.Equal(t, 0, h.fake.Launches)
}

func TestRunUnknownDevice(t *testing.T) {
	h := newHarness(t)

	code := h.run("--url", "https://a.example", "--device", "Nokia 3310")
	assert.Equal(t, exitFailure, code)

	out := h.stderr.String()
	assert.Contains(t, out, "Unknown device: Nokia 3310")
	assert.Contains(t, out, "Available devices:")
	assert.Contains(t, out, "iPhone 13")

	assert.Equal(t, 1, h.fake.Launches)
	assert.Equal(t, 1, h.fake.Closes)
	assert.Equal(t, 0, h.fake.PagesOpened)
	assert.NoFileExists(t, filepath.Join(h.output, report.SummaryFile))
}

func TestRunPartialFailure(t *testing.T) {
	h := newHarness(t)
	h.fake.Fail = map[string]error{
		"https://b.example": errors.New("net::ERR_CONNECTION_REFUSED"),
	}

	code := h.run(
		"--url", "https://a.example",
		"--url", "https://b.example",
		"--url", "https://c.example",
	)
	require.Equal(t, exitOK, code)

	assert.Equal(t, []string{"https://a.example", "https://b.example", "https://c.example"}, h.fake.Visited)
	assert.Equal(t, 1, h.fake.Launches)
	assert.Equal(t, 1, h.fake.Closes)
	assert.Equal(t, 1, h.fake.PagesOpened)
	assert.Contains(t, h.stderr.String(), "Error capturing https://b.example")

	s := h.summary(t)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Successful)
	assert.Equal(t, h.output, s.OutputDir)
	assert.Equal(t, "2026-10-16T12:30:45.000Z", s.Timestamp)
	assert.Equal(t, []report.Capture{
		{URL: "https://a.example", Name: "a-example", Filename: "a-example_2026-10-16T12-30-45.png"},
		{URL: "https://c.example", Name: "c-example", Filename: "c-example_2026-10-16T12-30-45.png"},
	}, s.Captures)

	index, err := os.ReadFile(filepath.Join(h.output, report.IndexFile))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(index), `<div class="card">`))

	for _, c := range s.Captures {
		assert.FileExists(t, filepath.Join(h.output, c.Filename))
	}
	assert.NoFileExists(t, filepath.Join(h.output, "b-example_2026-10-16T12-30-45.png"))
}

func TestRunAllFail(t *testing.T) {
	h := newHarness(t)
	h.fake.Fail = map[string]error{"https://a.example": browsertest.ErrTimeout}

	code := h.run("--url", "https://a.example")
	assert.Equal(t, exitOK, code)

	s := h.summary(t)
	assert.Equal(t, 1, s.Total)
	assert.Equal(t, 0, s.Successful)
	assert.Empty(t, s.Captures)
	assert.NoFileExists(t, filepath.Join(h.output, report.IndexFile))
	assert.Equal(t, 1, h.fake.Closes)
}

func TestRunDefaultTarget(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, exitOK, h.run())

	assert.Equal(t, []string{"http://localhost:3000"}, h.fake.Visited)
	assert.FileExists(t, filepath.Join(h.output, "home_2026-10-16T12-30-45.png"))
	assert.Equal(t, []string{capture.DriverRod}, h.drivers)
}

func TestRunURLsFileAfterExplicit(t *testing.T) {
	h := newHarness(t)
	file := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(file, []byte("# pages\nhttps://b.example\n\nhttps://c.example\n"), 0o644))

	require.Equal(t, exitOK, h.run("--urls-file", file, "--url", "https://a.example"))
	assert.Equal(t, []string{"https://a.example", "https://b.example", "https://c.example"}, h.fake.Visited)
}

func TestRunDeviceAndFullPage(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, exitOK, h.run("--url", "https://a.example", "--device", "iPhone 13", "--full-page"))

	require.Len(t, h.fake.Contexts, 1)
	assert.Equal(t, browser.Viewport{Width: 390, Height: 664}, h.fake.Contexts[0].Viewport)
	assert.True(t, h.fake.Contexts[0].IsMobile)
	assert.True(t, h.fake.Contexts[0].IgnoreHTTPSErrors)

	require.Len(t, h.fake.Shots, 1)
	assert.True(t, h.fake.Shots[0].FullPage)
}

func TestRunTwiceKeepsImages(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, exitOK, h.run("--url", "https://a.example", "--url", "https://b.example"))

	later := runStart.Add(2 * time.Second)
	h.cli.now = func() time.Time { return later }
	require.Equal(t, exitOK, h.run("--url", "https://a.example"))

	assert.FileExists(t, filepath.Join(h.output, "a-example_2026-10-16T12-30-45.png"))
	assert.FileExists(t, filepath.Join(h.output, "b-example_2026-10-16T12-30-45.png"))
	assert.FileExists(t, filepath.Join(h.output, "a-example_2026-10-16T12-30-47.png"))

	// index and summary describe the latest run only
	s := h.summary(t)
	assert.Equal(t, 1, s.Total)
	assert.Equal(t, "2026-10-16T12:30:47.000Z", s.Timestamp)

	index, err := os.ReadFile(filepath.Join(h.output, report.IndexFile))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(index), `<div class="card">`))
	assert.NotContains(t, string(index), "b-example")
}

func TestRunSilence(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, exitOK, h.run("--url", "https://a.example", "--silence"))
	assert.Empty(t, h.stderr.String())
}
