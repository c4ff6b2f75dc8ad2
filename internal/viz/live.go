package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/elens/internal/particles"
)

const (
	canvasWidth     = 48
	canvasHeight    = 20
	historyCapacity = 600
	maxScatter      = 4000
)

// Frame is a snapshot of the beam after a turn.
type Frame struct {
	Turn, Turns  int
	Alive, Total int
	MeanX, MeanY float64
	X, Y         []float64
}

// Observer is a tracking observer that sends a Frame every Every turns
// and on the last turn. Sends never block; a frame the model is not ready
// for is dropped, except for the final one.
type Observer struct {
	frames chan<- Frame
	turns  int
	every  int
}

func NewObserver(frames chan<- Frame, turns, every int) *Observer {
	if every < 1 {
		every = 1
	}
	return &Observer{frames: frames, turns: turns, every: every}
}

func (o *Observer) OnTurn(turn int, p *particles.Particles) {
	last := turn == o.turns
	if turn%o.every != 0 && !last {
		return
	}
	f := snapshot(p, turn, o.turns)
	if last {
		o.frames <- f
		return
	}
	select {
	case o.frames <- f:
	default:
	}
}

// snapshot copies at most maxScatter surviving particles, evenly strided.
func snapshot(p *particles.Particles, turn, turns int) Frame {
	f := Frame{Turn: turn, Turns: turns, Total: p.Len()}
	stride := p.Len()/maxScatter + 1
	var sx, sy float64
	for i := 0; i < p.Len(); i++ {
		if !p.Alive(i) {
			continue
		}
		f.Alive++
		sx += p.X[i]
		sy += p.Y[i]
		if i%stride == 0 {
			f.X = append(f.X, p.X[i])
			f.Y = append(f.Y, p.Y[i])
		}
	}
	if f.Alive > 0 {
		f.MeanX = sx / float64(f.Alive)
		f.MeanY = sy / float64(f.Alive)
	}
	return f
}

// Overlay describes the electron beam drawn under the particles.
type Overlay struct {
	XCenter, YCenter float64
	Radii            []float64
}

type frameMsg Frame

type doneMsg struct{ err error }

// Model shows a tracking run while it progresses.
type Model struct {
	title    string
	frames   <-chan Frame
	done     <-chan error
	stop     func()
	view     Viewport
	overlay  Overlay
	canvas   *Canvas
	last     Frame
	history  []float64
	finished bool
	err      error
	showHelp bool
}

// NewModel returns a model reading frames until done delivers the run's
// result. stop is called when the user quits early.
func NewModel(title string, frames <-chan Frame, done <-chan error, stop func(), view Viewport, overlay Overlay) Model {
	if stop == nil {
		stop = func() {}
	}
	return Model{
		title:   title,
		frames:  frames,
		done:    done,
		stop:    stop,
		view:    view,
		overlay: overlay,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		history: make([]float64, 0, historyCapacity),
	}
}

func waitFrame(frames <-chan Frame) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-frames
		if !ok {
			return nil
		}
		return frameMsg(f)
	}
}

func waitDone(done <-chan error) tea.Cmd {
	return func() tea.Msg { return doneMsg{err: <-done} }
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitFrame(m.frames), waitDone(m.done))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.stop()
			return m, tea.Quit
		case "?":
			m.showHelp = !m.showHelp
		}
	case frameMsg:
		m.last = Frame(msg)
		m.history = append(m.history, m.last.MeanX)
		if len(m.history) > historyCapacity {
			m.history = m.history[len(m.history)-historyCapacity:]
		}
		return m, waitFrame(m.frames)
	case doneMsg:
		m.finished = true
		m.err = msg.err
	}
	return m, nil
}

// Finished reports whether the run has ended and with which error.
func (m Model) Finished() (bool, error) { return m.finished, m.err }

func (m Model) draw() {
	m.canvas.Clear()
	for _, r := range m.overlay.Radii {
		m.canvas.Circle(m.view, m.overlay.XCenter, m.overlay.YCenter, r)
	}
	m.canvas.Scatter(m.view, m.last.X, m.last.Y)
}

func (m Model) View() string {
	m.draw()

	status := StatusRunning.Render("TRACKING")
	switch {
	case m.finished && m.err != nil:
		status = StatusFailed.Render("STOPPED: " + m.err.Error())
	case m.finished:
		status = StatusDone.Render("DONE")
	}

	var s strings.Builder
	s.WriteString(Title.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(status + "\n\n")

	fraction := 0.0
	if m.last.Turns > 0 {
		fraction = float64(m.last.Turn) / float64(m.last.Turns)
	}
	s.WriteString(ProgressBar(fraction, 30) + "\n\n")
	s.WriteString(MetricLabel.Render("Turn") + MetricValue.Render(fmt.Sprintf("%d / %d", m.last.Turn, m.last.Turns)) + "\n")
	s.WriteString(MetricLabel.Render("Alive") + MetricValue.Render(fmt.Sprintf("%d / %d", m.last.Alive, m.last.Total)) + "\n")
	s.WriteString(MetricLabel.Render("<x>") + MetricValue.Render(fmt.Sprintf("%.4e m", m.last.MeanX)) + "\n")
	s.WriteString(MetricLabel.Render("<y>") + MetricValue.Render(fmt.Sprintf("%.4e m", m.last.MeanY)) + "\n")

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("<x> per frame"))
		s.WriteString("\n" + chart + "\n")
	}

	s.WriteString("\n" + KeyHint.Render("q: quit  ?: help"))
	if m.showHelp {
		s.WriteString("\n" + Subtle.Render("quitting stops the tracker after the current element"))
	}

	canvasView := Panel.Render(m.canvas.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, Panel.Render(s.String()))
}

// Session runs a tracking job in the background and feeds a Model. The
// model gets its own copy of the result, so Wait returns even when the
// model has already exited and its pending commands are still blocked.
type Session struct {
	Frames chan Frame
	ui     chan error
	done   chan struct{}
	err    error
}

func NewSession() *Session {
	return &Session{
		Frames: make(chan Frame, 1),
		ui:     make(chan error, 1),
		done:   make(chan struct{}),
	}
}

// Start runs fn on a new goroutine. It must be called once.
func (s *Session) Start(fn func() error) {
	go func() {
		s.err = fn()
		s.ui <- s.err
		close(s.done)
	}()
}

// Model returns a live view of the session. stop is called when the user
// quits early.
func (s *Session) Model(title string, stop func(), view Viewport, overlay Overlay) Model {
	return NewModel(title, s.Frames, s.ui, stop, view, overlay)
}

// Wait blocks until the job returns and reports its error. Frames the
// model no longer reads are discarded so the job cannot block on them.
func (s *Session) Wait() error {
	for {
		select {
		case <-s.done:
			return s.err
		case <-s.Frames:
		}
	}
}

// Run drives m in the alternate screen until the run ends or the user
// quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
