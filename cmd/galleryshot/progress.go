package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

type spinnerProgress struct {
	s *spinner.Spinner
}

// newProgress returns a spinner on w, or nil when w is not a terminal.
func newProgress(w io.Writer) *spinnerProgress {
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return nil
	}
	return &spinnerProgress{
		s: spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w)),
	}
}

func (p *spinnerProgress) Start(index, total int, url string) {
	p.s.Suffix = fmt.Sprintf(" [%d/%d] %s", index+1, total, url)
	p.s.Start()
}

func (p *spinnerProgress) Done(url string, err error) {
	p.s.Stop()
}
