// Package progress renders step-by-step progress for the terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	colorGreen = lipgloss.Color("#98C379")
	colorRed   = lipgloss.Color("#E06C75")
	colorCyan  = lipgloss.Color("#56B6C2")
	colorMuted = lipgloss.Color("#636B78")

	successStyle = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	frameStyle   = lipgloss.NewStyle().Foreground(colorCyan)
	pendingStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

const clearLine = "\r\033[K"

// Spinner is a single-line progress indicator. On a terminal it animates
// while a step runs; otherwise it prints one line per state change.
type Spinner struct {
	mu      sync.Mutex
	out     io.Writer
	animate bool
	frames  spinner.Spinner

	stop chan struct{}
	done chan struct{}
}

// New returns a spinner writing to out. Animation is enabled only when out is
// a terminal.
func New(out io.Writer) *Spinner {
	return &Spinner{
		out:     out,
		animate: isTerminal(out),
		frames:  spinner.Dot,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Start begins a new step, ending any step still in progress.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.halt()

	if !s.animate {
		fmt.Fprintf(s.out, "%s %s\n", pendingStyle.Render("-"), message)
		return
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.spin(message, s.stop, s.done)
}

// Succeed ends the current step with a success mark.
func (s *Spinner) Succeed(message string) {
	s.finish(successStyle.Render("✔"), message)
}

// Fail ends the current step with a failure mark.
func (s *Spinner) Fail(message string) {
	s.finish(failStyle.Render("✖"), message)
}

func (s *Spinner) finish(mark, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.halt()
	fmt.Fprintf(s.out, "%s %s\n", mark, message)
}

// halt stops the animation goroutine and clears its line. Callers hold mu.
func (s *Spinner) halt() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop, s.done = nil, nil
	fmt.Fprint(s.out, clearLine)
}

func (s *Spinner) spin(message string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.frames.FPS)
	defer ticker.Stop()

	for i := 0; ; i++ {
		frame := s.frames.Frames[i%len(s.frames.Frames)]
		fmt.Fprintf(s.out, "%s%s %s", clearLine, frameStyle.Render(frame), message)

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}
