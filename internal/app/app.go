// Package app wires the signvoice components into one application.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	log "github.com/echocat/slf4g"

	"github.com/ayusman/signvoice/internal/announce"
	"github.com/ayusman/signvoice/internal/capture"
	"github.com/ayusman/signvoice/internal/config"
	"github.com/ayusman/signvoice/internal/detector"
	"github.com/ayusman/signvoice/internal/display"
	"github.com/ayusman/signvoice/internal/publish"
	"github.com/ayusman/signvoice/internal/server"
	"github.com/ayusman/signvoice/internal/session"
	"github.com/ayusman/signvoice/internal/speech"
	"github.com/ayusman/signvoice/internal/store"
)

const speechDrainTimeout = 2 * time.Second

// Options replaces components that are otherwise built from the
// configuration. All fields are optional.
type Options struct {
	Camera   capture.Camera
	Detector detector.Detector
	// Engine is used instead of the configured synthesizer command.
	Engine speech.Engine
	// Console receives a "Detected: X" line per label change.
	Console io.Writer
	// Listeners are notified after every announcement.
	Listeners []announce.Listener
	Clock     func() time.Time
}

// App is the main application that owns every long-lived component.
type App struct {
	config config.Config

	display   *display.Fanout
	frames    *display.FrameBuffer
	hub       *server.Hub
	detector  detector.Detector
	speech    *speech.Service
	announcer *announce.Announcer
	session   *session.Controller
	store     *store.Store
	publisher *publish.Publisher
	server    *server.Server

	modeMu        sync.Mutex
	modeListeners []func(announce.Mode)
}

// New creates a new App from cfg. Optional features that fail to
// initialize are logged and left out; only a broken journal is fatal.
func New(cfg config.Config, opts Options) (*App, error) {
	a := &App{
		config:  cfg,
		display: display.NewFanout(),
		frames:  display.NewFrameBuffer(),
		hub:     server.NewHub(),
	}

	if opts.Console != nil {
		a.display.AddLabels(display.NewConsole(opts.Console))
	}
	a.display.AddLabels(a.hub)
	a.display.AddPreview(a.frames)
	a.hub.SetMode(cfg.Mode())

	a.detector = opts.Detector
	if a.detector == nil {
		a.detector = newDetector(cfg.DetectorConfig())
	}

	engine := opts.Engine
	if engine == nil {
		ce, err := speech.NewCommandEngine(cfg.SpeechConfig())
		if err != nil {
			log.WithError(err).Warn("No speech synthesizer available, announcements are shown only.")
		} else {
			log.With("engine", ce.Name()).With("rate", ce.Rate()).Info("Using speech synthesizer.")
			engine = ce
		}
	}
	if engine != nil {
		a.speech = speech.NewService(engine, cfg.Speech.QueueSize)
	}

	listeners := append([]announce.Listener(nil), opts.Listeners...)
	var journal session.Journal

	if cfg.History.Path != "" {
		st, err := store.New(cfg.History.Path)
		if err != nil {
			a.closeDetector()
			a.closeSpeech()
			return nil, fmt.Errorf("open history journal: %w", err)
		}
		a.store = st
		journal = st.Sessions()
		log.With("path", cfg.History.Path).Info("Recording announcement history.")
	}

	camera := opts.Camera
	if camera == nil {
		camera = capture.NewCamera(cfg.CaptureConfig())
	}

	a.announcer = announce.New(announce.Config{
		Cooldown: cfg.Announce.Cooldown,
		Mode:     cfg.Mode(),
		Phrases:  cfg.Phrases(),
		Display:  a.display,
		Speaker:  a.speaker(),
	})

	a.session = session.New(session.Config{
		Camera:    camera,
		Detector:  a.detector,
		Announcer: a.announcer,
		Preview:   a.display,
		Overlay:   cfg.Overlay,
		Journal:   journal,
		Clock:     opts.Clock,
	})
	a.session.OnStateChange(a.hub.SetState)

	if a.store != nil {
		listeners = append(listeners, store.NewRecorder(a.store.Announcements(), a.session.SessionID))
	}

	if cfg.MQTT.Broker != "" {
		p, err := publish.Connect(cfg.PublishConfig(), a.session.SessionID)
		if err != nil {
			log.WithError(err).Warn("MQTT publishing disabled.")
		} else {
			a.publisher = p
			listeners = append(listeners, p)
		}
	}

	for _, l := range listeners {
		a.announcer.AddListener(l)
	}

	if cfg.Server.Addr != "" {
		sc := server.Config{
			Session: a.session,
			Mode:    a,
			Frames:  a.frames,
			Events:  a.hub,
		}
		if a.store != nil {
			sc.History = a.store.Announcements()
		}
		a.server = server.New(sc)
	}

	return a, nil
}

// speaker returns the speech service as an announce.Speaker, or nil. A
// nil *speech.Service must not become a non-nil interface.
func (a *App) speaker() announce.Speaker {
	if a.speech == nil {
		return nil
	}
	return a.speech
}

func newDetector(cfg detector.Config) detector.Detector {
	// Try MediaPipe first, fall back to mock detector
	mp, err := detector.NewMediaPipeDetector(cfg)
	if err == nil {
		log.Info("Using MediaPipe hand detection.")
		return mp
	}
	log.WithError(err).Warn("MediaPipe not available, using mock detector. No signs will be recognized.")
	return detector.NewMockDetector()
}

// AddLabels registers another label sink, e.g. the tray.
func (a *App) AddLabels(l display.Labels) {
	a.display.AddLabels(l)
}

// AddPreview registers another sink for processed frames.
func (a *App) AddPreview(p display.Preview) {
	a.display.AddPreview(p)
}

// OnStateChange registers a session state callback.
func (a *App) OnStateChange(fn func(session.State)) {
	a.session.OnStateChange(fn)
}

// Start starts a session. It is a no-op while one is active.
func (a *App) Start() error {
	return a.session.Start()
}

// Stop requests the active session to stop.
func (a *App) Stop() {
	a.session.Stop()
}

// Mode returns the announce mode.
func (a *App) Mode() announce.Mode {
	return a.announcer.Mode()
}

// OnModeChange registers a callback run after every mode switch.
func (a *App) OnModeChange(fn func(announce.Mode)) {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	a.modeListeners = append(a.modeListeners, fn)
}

// SetMode switches the announce mode and publishes the change.
func (a *App) SetMode(m announce.Mode) error {
	if err := a.announcer.SetMode(m); err != nil {
		return err
	}
	a.hub.SetMode(m)

	a.modeMu.Lock()
	listeners := append(([]func(announce.Mode))(nil), a.modeListeners...)
	a.modeMu.Unlock()
	for _, fn := range listeners {
		fn(m)
	}
	return nil
}

// Session returns the session controller.
func (a *App) Session() *session.Controller {
	return a.session
}

// Announcer returns the announcer.
func (a *App) Announcer() *announce.Announcer {
	return a.announcer
}

// Frames returns the preview frame buffer.
func (a *App) Frames() *display.FrameBuffer {
	return a.frames
}

// Store returns the history journal, or nil when disabled.
func (a *App) Store() *store.Store {
	return a.store
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}

// PreviewURL returns the browser URL of the preview page, or "" when the
// server is disabled.
func (a *App) PreviewURL() string {
	if a.server == nil {
		return ""
	}
	host, port, err := net.SplitHostPort(a.config.Server.Addr)
	if err != nil {
		return ""
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

// Handler returns the HTTP handler, or nil when the server is disabled.
func (a *App) Handler() http.Handler {
	if a.server == nil {
		return nil
	}
	return a.server
}

// Serve runs the HTTP server until ctx is done. It returns immediately
// when the server is disabled.
func (a *App) Serve(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Run(ctx, a.config.Server.Addr)
}

// Close stops the session, waiting up to the shutdown grace for the
// worker, then drains speech and releases every component.
func (a *App) Close() error {
	if !a.session.Shutdown(a.config.ShutdownGrace) {
		log.With("grace", a.config.ShutdownGrace).Warn("Session worker did not stop within grace period.")
	}

	var errs []error
	errs = append(errs, a.closeSpeech())
	errs = append(errs, a.closeDetector())
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	a.hub.Close()

	return errors.Join(errs...)
}

func (a *App) closeSpeech() error {
	if a.speech == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), speechDrainTimeout)
	defer cancel()
	return a.speech.Close(ctx)
}

func (a *App) closeDetector() error {
	if a.detector == nil {
		return nil
	}
	return a.detector.Close()
}
