// Package tray provides the system tray controls for signvoice: start and
// stop a session, switch the announce mode and show the detected label.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/signvoice/internal/announce"
	"github.com/ayusman/signvoice/internal/display"
	"github.com/ayusman/signvoice/internal/session"
)

// Tray represents the system tray application.
type Tray struct {
	onStart   func()
	onStop    func()
	onMode    func(announce.Mode)
	onPreview func()
	onQuit    func()
	mu        sync.RWMutex

	state session.State
	mode  announce.Mode
	label string

	// Menu items stored for later updates
	menuStart   *systray.MenuItem
	menuStop    *systray.MenuItem
	menuVoice   *systray.MenuItem
	menuText    *systray.MenuItem
	menuLabel   *systray.MenuItem
	menuPreview *systray.MenuItem
}

var _ display.Labels = (*Tray)(nil)

// New creates a new Tray showing a stopped session in the given mode.
func New(mode announce.Mode) *Tray {
	return &Tray{
		state: session.StateStopped,
		mode:  mode,
		label: display.Neutral,
	}
}

// OnStart sets the callback for the Start menu item.
func (t *Tray) OnStart(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStart = fn
}

// OnStop sets the callback for the Stop menu item.
func (t *Tray) OnStop(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStop = fn
}

// OnMode sets the callback for the Voice and Text menu items.
func (t *Tray) OnMode(fn func(announce.Mode)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMode = fn
}

// OnPreview sets the callback for the Open preview item. Without one the
// item is hidden.
func (t *Tray) OnPreview(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPreview = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("SignVoice")
	systray.SetTooltip("SignVoice sign language announcer")

	t.mu.Lock()
	t.menuStart = systray.AddMenuItem("Start", "Start camera session")
	t.menuStop = systray.AddMenuItem("Stop", "Stop camera session")
	systray.AddSeparator()

	t.menuVoice = systray.AddMenuItemCheckbox("Voice", "Show and speak announcements", false)
	t.menuText = systray.AddMenuItemCheckbox("Text", "Only show announcements", false)
	systray.AddSeparator()

	t.menuLabel = systray.AddMenuItem(labelTitle(t.label), "Last detected sign")
	t.menuLabel.Disable()
	systray.AddSeparator()

	t.menuPreview = systray.AddMenuItem("Open preview...", "Open live preview in browser")
	if t.onPreview == nil {
		t.menuPreview.Hide()
	}
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit SignVoice")

	t.refreshLocked()
	t.mu.Unlock()

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuStart.ClickedCh:
				t.handleStart()
			case <-t.menuStop.ClickedCh:
				t.handleStop()
			case <-t.menuVoice.ClickedCh:
				t.handleMode(announce.ModeVoice)
			case <-t.menuText.ClickedCh:
				t.handleMode(announce.ModeText)
			case <-t.menuPreview.ClickedCh:
				t.handlePreview()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

func (t *Tray) handleStart() {
	t.mu.RLock()
	callback := t.onStart
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleStop() {
	t.mu.RLock()
	callback := t.onStop
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleMode(m announce.Mode) {
	t.mu.Lock()
	t.mode = m
	t.refreshLocked()
	callback := t.onMode
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(m)
	}
}

func (t *Tray) handlePreview() {
	t.mu.RLock()
	callback := t.onPreview
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetState enables Start only while stopped and Stop only while running.
func (t *Tray) SetState(s session.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
	t.refreshLocked()
}

// SetMode checks the menu item for m.
func (t *Tray) SetMode(m announce.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mode = m
	t.refreshLocked()
}

// ShowLabel implements display.Labels.
func (t *Tray) ShowLabel(text string) {
	t.setLabel(text)
}

// ShowNeutral implements display.Labels.
func (t *Tray) ShowNeutral() {
	t.setLabel(display.Neutral)
}

func (t *Tray) setLabel(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.label == text {
		return
	}
	t.label = text
	if t.menuLabel != nil {
		t.menuLabel.SetTitle(labelTitle(text))
	}
}

// State returns the session state the menu shows.
func (t *Tray) State() session.State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Mode returns the checked mode.
func (t *Tray) Mode() announce.Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

// Label returns the label the menu shows.
func (t *Tray) Label() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.label
}

// CanStart reports whether the Start item is enabled.
func (t *Tray) CanStart() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state == session.StateStopped
}

// CanStop reports whether the Stop item is enabled.
func (t *Tray) CanStop() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state == session.StateRunning
}

// refreshLocked syncs menu items with state and mode. Caller holds t.mu.
func (t *Tray) refreshLocked() {
	if t.menuStart == nil {
		return
	}
	setEnabled(t.menuStart, t.state == session.StateStopped)
	setEnabled(t.menuStop, t.state == session.StateRunning)
	setChecked(t.menuVoice, t.mode == announce.ModeVoice)
	setChecked(t.menuText, t.mode == announce.ModeText)
}

func setEnabled(item *systray.MenuItem, enabled bool) {
	if enabled {
		item.Enable()
	} else {
		item.Disable()
	}
}

func setChecked(item *systray.MenuItem, checked bool) {
	if checked {
		item.Check()
	} else {
		item.Uncheck()
	}
}

func labelTitle(text string) string {
	return "Detected: " + text
}
