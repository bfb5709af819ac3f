package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// phases are the spinner frames: a moon going round.
var phases = []string{"◐", "◓", "◑", "◒"}

const spinnerInterval = 120 * time.Millisecond

// spinner animates a status line while a long stage (layout computation,
// tree rendering, cache invalidation) runs. The stage label can change
// without restarting the animation, and the line shows the elapsed time.
type spinner struct {
	out     io.Writer
	parent  context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once
	start   time.Time

	mu    sync.Mutex
	stage string
	width int // widest line drawn so far, for clearing
}

// startSpinner draws stage on out until the spinner stops or ctx ends.
func startSpinner(ctx context.Context, out io.Writer, stage string) *spinner {
	sctx, cancel := context.WithCancel(ctx)
	s := &spinner{
		out:     out,
		parent:  ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
		start:   time.Now(),
		stage:   stage,
	}
	go s.run(sctx)
	return s
}

func (s *spinner) run(ctx context.Context) {
	defer close(s.stopped)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		s.draw(phases[i%len(phases)])
		select {
		case <-ctx.Done():
			s.clear()
			return
		case <-ticker.C:
		}
	}
}

func (s *spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	took := formatElapsed(time.Since(s.start))
	if n := len([]rune(frame + " " + s.stage + " " + took)); n > s.width {
		s.width = n
	}
	fmt.Fprintf(s.out, "\r%s %s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.stage), StyleDim.Render(took))
}

func (s *spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.width))
}

// Stage relabels the running spinner.
func (s *spinner) Stage(stage string) {
	s.mu.Lock()
	s.stage = stage
	s.mu.Unlock()
}

// Stop ends the animation, clears the line and returns the elapsed time.
// Safe to call more than once.
func (s *spinner) Stop() time.Duration {
	s.once.Do(s.cancel)
	<-s.stopped
	return time.Since(s.start)
}

// Finish stops the spinner and reports success with the elapsed time,
// e.g. "Computed scientific layout of sol (4ms)".
func (s *spinner) Finish(format string, args ...any) {
	d := s.Stop()
	printSuccess("%s %s", fmt.Sprintf(format, args...), StyleDim.Render(formatElapsed(d)))
}

// Fail stops the spinner and reports msg as an error.
func (s *spinner) Fail(msg string) {
	s.Stop()
	printError("%s", msg)
}

// Interrupted reports whether the command's context ended before the stage
// finished.
func (s *spinner) Interrupted() bool {
	return s.parent.Err() != nil
}

func formatElapsed(d time.Duration) string {
	return "(" + d.Round(time.Millisecond).String() + ")"
}
