package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	tagver "github.com/bcomnes/tagver/pkg"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// stderrIsTerminal is evaluated once; the spinner only draws on a terminal.
var stderrIsTerminal = sync.OnceValue(func() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
})

// spinner draws a one-line progress indicator on stderr while versions
// are being resolved. A nil spinner ignores every call.
type spinner struct {
	w     io.Writer
	mu    sync.Mutex
	label string
	frame int
	done  chan struct{}
	wg    sync.WaitGroup
}

// newSpinner returns nil unless enabled and f is a terminal.
func newSpinner(f *os.File, enabled bool) *spinner {
	if !enabled || f != os.Stderr || !stderrIsTerminal() {
		return nil
	}
	return &spinner{w: f, label: "resolving"}
}

func (s *spinner) Start() {
	if s == nil {
		return
	}
	s.done = make(chan struct{})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.draw()
			}
		}
	}()
}

// Update records the latest progress event. It is safe for concurrent use
// and matches tagver.ProgressFunc.
func (s *spinner) Update(ev tagver.ProgressEvent) {
	if s == nil {
		return
	}
	label := string(ev.Stage)
	switch {
	case ev.Total > 0:
		label = fmt.Sprintf("%s %d/%d", ev.Stage, ev.Done, ev.Total)
	case ev.Done > 0:
		label = fmt.Sprintf("%s %d", ev.Stage, ev.Done)
	}
	s.mu.Lock()
	s.label = label
	s.mu.Unlock()
}

func (s *spinner) draw() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r\033[K%s %s", spinnerFrames[s.frame%len(spinnerFrames)], s.label)
	s.frame++
}

// Stop halts the animation and clears the line.
func (s *spinner) Stop() {
	if s == nil || s.done == nil {
		return
	}
	close(s.done)
	s.wg.Wait()
	s.done = nil
	fmt.Fprint(s.w, "\r\033[K")
}
