package display

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	consolePrefix = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#b0b0c3"))
	consoleLabel = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ffaa"))
	consoleNeutral = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8888aa"))
)

// Console prints the detected sign as one line per change.
// Neutral resets arrive every frame without a sign, so repeats are collapsed.
type Console struct {
	w       io.Writer
	mu      sync.Mutex
	current string
	started bool
}

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// ShowLabel implements Labels. Every announcement is printed, including a
// repeat of the previous one.
func (c *Console) ShowLabel(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = text
	c.started = true
	c.print(consoleLabel.Render(text))
}

// ShowNeutral implements Labels.
func (c *Console) ShowNeutral() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started && c.current == Neutral {
		return
	}
	c.current = Neutral
	c.started = true
	c.print(consoleNeutral.Render(Neutral))
}

// Current returns the text last shown.
func (c *Console) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Console) print(rendered string) {
	_, _ = fmt.Fprintln(c.w, consolePrefix.Render("Detected:"), rendered)
}
