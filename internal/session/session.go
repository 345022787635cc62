// Package session runs camera sessions: capture, hand detection,
// classification and announcement on one worker goroutine.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/echocat/slf4g"
	"github.com/google/uuid"

	"github.com/ayusman/signvoice/internal/announce"
	"github.com/ayusman/signvoice/internal/capture"
	"github.com/ayusman/signvoice/internal/detector"
	"github.com/ayusman/signvoice/internal/display"
)

// State is the lifecycle state of the controller.
type State string

const (
	StateStopped  State = "stopped"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// Stop reasons recorded in the journal.
const (
	ReasonRequested = "requested"
	ReasonCamera    = "camera"
)

// Journal records session lifecycles. Errors are logged, not propagated.
type Journal interface {
	SessionStarted(id string, at time.Time) error
	SessionStopped(id string, at time.Time, reason string) error
}

// Config wires a Controller to its collaborators.
type Config struct {
	Camera    capture.Camera
	Detector  detector.Detector
	Announcer *announce.Announcer
	// Preview receives every processed frame. Optional.
	Preview display.Preview
	// Overlay draws the detected hand skeleton before previewing.
	Overlay bool
	// Journal is optional.
	Journal Journal
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Controller starts and stops camera sessions. At most one worker runs at
// a time.
type Controller struct {
	config Config

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	lastDone chan struct{}
	stopping bool
	id       string

	listenersMu sync.Mutex
	listeners   []func(State)

	frames atomic.Int64
}

// New creates a stopped Controller.
func New(config Config) *Controller {
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &Controller{config: config}
}

// OnStateChange registers fn for state transitions. Callbacks run on the
// goroutine causing the transition, must not block and must not register
// further callbacks.
func (c *Controller) OnStateChange(fn func(State)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Start opens the camera and launches the worker. It is a no-op while a
// worker is running or still stopping.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.done != nil {
		c.mu.Unlock()
		return nil
	}

	if err := c.config.Camera.Open(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("start session: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.lastDone = done
	c.stopping = false
	c.id = id
	c.mu.Unlock()

	log.With("session", id).Info("Camera session started.")
	c.notify()
	if j := c.config.Journal; j != nil {
		if err := j.SessionStarted(id, c.config.Clock()); err != nil {
			log.WithError(err).Warn("Cannot record session start.")
		}
	}

	go c.run(ctx, id, done)
	return nil
}

// Stop asks the worker to finish. It returns immediately; the worker
// exits after the frame it is processing.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.cancel == nil || c.stopping {
		c.mu.Unlock()
		return
	}
	c.stopping = true
	c.cancel()
	c.mu.Unlock()

	c.notify()
}

// Shutdown stops the session and waits up to grace for the worker to
// exit. It reports whether the worker finished in time.
func (c *Controller) Shutdown(grace time.Duration) bool {
	c.Stop()

	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return true
	}

	select {
	case <-done:
		return true
	case <-time.After(grace):
		log.With("grace", grace).Warn("Camera session did not stop within grace period.")
		return false
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.done == nil:
		return StateStopped
	case c.stopping:
		return StateStopping
	default:
		return StateRunning
	}
}

// Running reports whether a session is active and not stopping.
func (c *Controller) Running() bool {
	return c.State() == StateRunning
}

// SessionID returns the id of the current or last session.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Done returns a channel closed when the current or most recent worker
// exits, or nil when no session was ever started.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastDone
}

// Frames returns the number of frames processed since creation.
func (c *Controller) Frames() int64 {
	return c.frames.Load()
}

func (c *Controller) finish(id string, done chan struct{}, reason string) {
	defer close(done)

	if err := c.config.Camera.Close(); err != nil {
		log.WithError(err).Warn("Error closing camera.")
	}
	if j := c.config.Journal; j != nil {
		if err := j.SessionStopped(id, c.config.Clock(), reason); err != nil {
			log.WithError(err).Warn("Cannot record session stop.")
		}
	}

	c.mu.Lock()
	c.cancel = nil
	c.done = nil
	c.stopping = false
	c.mu.Unlock()

	log.With("session", id).
		With("reason", reason).
		Info("Camera session stopped.")
	c.notify()
}

// notify delivers the state as of now. Deliveries are serialized, so the
// last callback always sees the latest state even when transitions race.
func (c *Controller) notify() {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()

	s := c.State()
	for _, fn := range c.listeners {
		fn(s)
	}
}
