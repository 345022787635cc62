// Package announce turns per-frame sign classifications into announcements.
//
// An Announcer is fed one classification per processed frame. It suppresses
// repeats of the last announced gloss for a cooldown period, resets the
// display whenever no sign is seen, and routes accepted glosses to the
// display and, in voice mode, to the speaker.
package announce

import (
	"sync"
	"time"

	log "github.com/echocat/slf4g"

	"github.com/ayusman/signvoice/internal/display"
	"github.com/ayusman/signvoice/internal/sign"
)

// DefaultCooldown is the minimum time before the same gloss is announced again.
const DefaultCooldown = time.Second

// Speaker accepts utterances without blocking on playback.
type Speaker interface {
	Say(text string) error
}

// Announcement describes one emitted gloss.
type Announcement struct {
	Gloss  sign.Gloss
	Text   string
	Mode   Mode
	Spoken bool
	At     time.Time
}

// Listener is notified after every announcement.
type Listener interface {
	Announced(Announcement)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Announcement)

// Announced implements Listener.
func (f ListenerFunc) Announced(a Announcement) { f(a) }

// Decision is the outcome of one observation.
type Decision struct {
	// Emit is set when the gloss was announced.
	Emit bool
	// Gloss is the announced gloss, or None.
	Gloss sign.Gloss
	// Neutral is set when the display was reset because no sign was seen.
	Neutral bool
}

// Config configures an Announcer.
type Config struct {
	// Cooldown defaults to DefaultCooldown.
	Cooldown time.Duration
	// Mode defaults to ModeVoice, also when it is not a valid mode.
	Mode Mode
	// Phrases maps glosses to the text shown and spoken. Missing glosses
	// use the gloss name.
	Phrases map[sign.Gloss]string
	// Display receives every announcement and every neutral reset.
	Display display.Labels
	// Speaker receives announcements in voice mode.
	Speaker   Speaker
	Listeners []Listener
}

// Announcer applies the debounce policy. It is safe for concurrent use,
// though one camera session feeds it from a single goroutine.
type Announcer struct {
	cooldown time.Duration
	phrases  map[sign.Gloss]string
	display  display.Labels
	speaker  Speaker

	mu        sync.Mutex
	mode      Mode
	listeners []Listener
	last      sign.Gloss
	lastAt    time.Time
}

// New creates an Announcer.
func New(cfg Config) *Announcer {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if m, err := ParseMode(string(cfg.Mode)); err == nil {
		cfg.Mode = m
	} else {
		cfg.Mode = ModeVoice
	}

	phrases := make(map[sign.Gloss]string, len(cfg.Phrases))
	for g, p := range cfg.Phrases {
		phrases[g] = p
	}

	return &Announcer{
		cooldown:  cfg.Cooldown,
		phrases:   phrases,
		display:   cfg.Display,
		speaker:   cfg.Speaker,
		mode:      cfg.Mode,
		listeners: append([]Listener(nil), cfg.Listeners...),
	}
}

// Observe feeds the classification of one frame taken at now.
//
// A gloss is announced when it differs from the last announced gloss or
// when the cooldown has elapsed since the last announcement. No gloss
// resets the display and leaves the last announced gloss untouched.
func (a *Announcer) Observe(g sign.Gloss, now time.Time) Decision {
	if g == sign.None {
		if a.display != nil {
			a.display.ShowNeutral()
		}
		return Decision{Neutral: true}
	}

	a.mu.Lock()
	if g == a.last && now.Sub(a.lastAt) < a.cooldown {
		a.mu.Unlock()
		return Decision{Gloss: sign.None}
	}
	a.last = g
	a.lastAt = now
	mode := a.mode
	listeners := a.listeners
	a.mu.Unlock()

	an := Announcement{
		Gloss: g,
		Text:  a.Phrase(g),
		Mode:  mode,
		At:    now,
	}
	a.route(&an)

	for _, l := range listeners {
		l.Announced(an)
	}

	return Decision{Emit: true, Gloss: g}
}

func (a *Announcer) route(an *Announcement) {
	log.With("gloss", an.Gloss).
		With("mode", an.Mode).
		Info("Sign announced.")

	if a.display != nil {
		a.display.ShowLabel(an.Text)
	}

	if !an.Mode.Speaks() || a.speaker == nil {
		return
	}
	if err := a.speaker.Say(an.Text); err != nil {
		log.WithError(err).
			With("gloss", an.Gloss).
			Warn("Cannot queue announcement for speech.")
		return
	}
	an.Spoken = true
}

// Phrase returns the text used for g.
func (a *Announcer) Phrase(g sign.Gloss) string {
	if p, ok := a.phrases[g]; ok && p != "" {
		return p
	}
	return string(g)
}

// Mode returns the current output mode.
func (a *Announcer) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// SetMode switches the output mode; it takes effect with the next announcement.
func (a *Announcer) SetMode(m Mode) error {
	m, err := ParseMode(string(m))
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != m {
		log.With("mode", m).Info("Announce mode changed.")
	}
	a.mode = m
	return nil
}

// Last returns the last announced gloss and when it was announced.
func (a *Announcer) Last() (sign.Gloss, time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last, a.lastAt
}

// Cooldown returns the repeat suppression window.
func (a *Announcer) Cooldown() time.Duration {
	return a.cooldown
}

// AddListener registers l for subsequent announcements.
func (a *Announcer) AddListener(l Listener) {
	if l == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, l)
}
