// Package spinner draws a one-line progress indicator while the scanner or
// the model is working.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var frameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

type Spinner struct {
	out     io.Writer
	chars   []string
	delay   time.Duration
	message string
	active  bool
	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
}

// New returns a spinner writing to stderr.
func New(message string) *Spinner {
	return NewWithWriter(os.Stderr, message)
}

func NewWithWriter(out io.Writer, message string) *Spinner {
	return &Spinner{
		out:     out,
		chars:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		delay:   100 * time.Millisecond,
		message: message,
	}
}

func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(s.stop, s.done)
}

func (s *Spinner) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.delay)
	defer ticker.Stop()

	i := 0
	for {
		s.mu.Lock()
		fmt.Fprintf(s.out, "\r%s %s", frameStyle.Render(s.chars[i%len(s.chars)]), s.message)
		s.mu.Unlock()
		i++

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// Stop halts the animation, waits for it to finish and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done

	s.mu.Lock()
	fmt.Fprint(s.out, "\r"+strings.Repeat(" ", len(s.message)+10)+"\r")
	s.mu.Unlock()
}

func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Active reports whether the spinner is running.
func (s *Spinner) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
