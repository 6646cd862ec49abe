package ui

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Spinner shows an animated activity indicator on stderr while the agent is
// waiting on the model or on tools. Start and Stop tolerate repeated calls,
// and every method degrades to a no-op when stderr is not a terminal.
type Spinner struct {
	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
	tty     bool
}

// NewSpinner creates a spinner. Animation is disabled when stderr is piped.
func NewSpinner() *Spinner {
	tty := true
	if fileInfo, _ := os.Stderr.Stat(); (fileInfo.Mode() & os.ModeCharDevice) == 0 {
		tty = false
	}
	if os.Getenv("NO_COLOR") != "" {
		tty = false
	}
	return &Spinner{tty: tty}
}

// Start begins the animation with the given message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program != nil {
		s.program.Send(setMessageMsg(message))
		return
	}
	if !s.tty {
		fmt.Fprintln(os.Stderr, message+"...")
		return
	}

	model := newSpinnerModel(message)
	s.program = tea.NewProgram(model,
		tea.WithOutput(os.Stderr),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	s.done = make(chan struct{})
	go func(p *tea.Program, done chan struct{}) {
		_, _ = p.Run()
		close(done)
	}(s.program, s.done)
}

// SetMessage updates the message of a running spinner.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program != nil {
		s.program.Send(setMessageMsg(message))
	} else if !s.tty {
		fmt.Fprintln(os.Stderr, message+"...")
	}
}

// Stop ends the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program == nil {
		return
	}
	s.program.Send(stopMsg{})
	<-s.done
	s.program = nil
	s.done = nil
}

type setMessageMsg string

type stopMsg struct{}

type spinnerModel struct {
	spinner spinner.Model
	message string
}

func newSpinnerModel(message string) spinnerModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = infoStyle
	return spinnerModel{spinner: sp, message: message}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case setMessageMsg:
		m.message = string(msg)
		return m, nil
	case stopMsg:
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	return m.spinner.View() + " " + m.message
}
