package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// Spinner animates a status line on stderr while a batch runs. It stops
// on [Spinner.Stop] or when its context ends, whichever comes first.
type Spinner struct {
	label string
	out   io.Writer
	anim  spinner.Spinner

	ctx    context.Context
	cancel context.CancelFunc
	exited chan struct{}

	stopOnce sync.Once
	writeMu  sync.Mutex
}

func newSpinner(label string) *Spinner {
	return newSpinnerWithContext(context.Background(), label)
}

func newSpinnerWithContext(parent context.Context, label string) *Spinner {
	ctx, cancel := context.WithCancel(parent)
	return &Spinner{
		label:  label,
		out:    os.Stderr,
		anim:   spinner.MiniDot,
		ctx:    ctx,
		cancel: cancel,
		exited: make(chan struct{}),
	}
}

// Start runs the animation in the background.
func (s *Spinner) Start() {
	go s.animate()
}

func (s *Spinner) animate() {
	defer close(s.exited)
	tick := time.NewTicker(s.anim.FPS)
	defer tick.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-s.ctx.Done():
			s.clear()
			return
		case <-tick.C:
			s.draw(s.anim.Frames[frame%len(s.anim.Frames)])
		}
	}
}

func (s *Spinner) draw(frame string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.label))
}

func (s *Spinner) clear() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", len(s.label)+4))
}

// Stop ends the animation and waits for the line to be cleared. It may be
// called more than once.
func (s *Spinner) Stop() {
	s.stopOnce.Do(s.cancel)
	<-s.exited
}

// Cancelled reports whether the spinner has stopped.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}
