// Package display defines the sinks that present recognized signs and the
// live preview to the user.
package display

import (
	"sync"

	"gocv.io/x/gocv"
)

// Neutral is the placeholder shown while no sign is recognized.
const Neutral = "—"

// Labels presents the current sign text.
type Labels interface {
	// ShowLabel presents an announced sign.
	ShowLabel(text string)
	// ShowNeutral resets the presentation to the Neutral placeholder.
	ShowNeutral()
}

// Preview presents processed camera frames.
type Preview interface {
	// ShowFrame is called once per processed frame. Implementations must
	// not retain frame after returning.
	ShowFrame(frame *gocv.Mat)
}

// Fanout forwards every call to all registered sinks in order.
type Fanout struct {
	mu       sync.RWMutex
	labels   []Labels
	previews []Preview
}

// NewFanout creates an empty Fanout.
func NewFanout() *Fanout {
	return &Fanout{}
}

// AddLabels registers a label sink. Nil sinks are ignored.
func (f *Fanout) AddLabels(l Labels) {
	if l == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.labels = append(f.labels, l)
}

// AddPreview registers a preview sink. Nil sinks are ignored.
func (f *Fanout) AddPreview(p Preview) {
	if p == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previews = append(f.previews, p)
}

// ShowLabel implements Labels.
func (f *Fanout) ShowLabel(text string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, l := range f.labels {
		l.ShowLabel(text)
	}
}

// ShowNeutral implements Labels.
func (f *Fanout) ShowNeutral() {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, l := range f.labels {
		l.ShowNeutral()
	}
}

// ShowFrame implements Preview.
func (f *Fanout) ShowFrame(frame *gocv.Mat) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, p := range f.previews {
		p.ShowFrame(frame)
	}
}
