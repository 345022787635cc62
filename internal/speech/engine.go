// Package speech provides the process-wide text-to-speech service.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Engine synthesizes one utterance and returns when playback has finished.
// Engines are not required to be safe for concurrent use.
type Engine interface {
	Speak(ctx context.Context, text string) error
	Close() error
	Name() string
}

// ErrNoSynthesizer is returned when no speech command could be found.
var ErrNoSynthesizer = errors.New("no speech synthesizer found")

// Default engine settings.
const (
	DefaultRate    = 150
	DefaultTimeout = 10 * time.Second
)

// CommandConfig configures a CommandEngine.
type CommandConfig struct {
	// Command is the synthesizer executable. Empty selects a platform default.
	Command string
	// Args are passed before the rate option and the text. Each occurrence
	// of {rate} is replaced with the rate.
	Args []string
	// Rate is the playback rate in words per minute.
	Rate int
	// Timeout bounds a single utterance.
	Timeout time.Duration
}

// CommandEngine speaks by running an external synthesizer per utterance.
type CommandEngine struct {
	path    string
	args    []string
	rate    int
	timeout time.Duration
}

// rateFlags are the rate options of the synthesizers we know about.
var rateFlags = map[string][]string{
	"espeak":    {"-s", "{rate}"},
	"espeak-ng": {"-s", "{rate}"},
	"say":       {"-r", "{rate}"},
	"spd-say":   {"-w", "-r", "{spdrate}"},
}

// NewCommandEngine resolves the synthesizer command and returns an engine.
func NewCommandEngine(cfg CommandConfig) (*CommandEngine, error) {
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	name := cfg.Command
	if name == "" {
		name = defaultCommand()
	}
	if name == "" {
		return nil, ErrNoSynthesizer
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("speech command %q: %w", name, err)
	}

	args := cfg.Args
	if len(args) == 0 {
		args = rateFlags[baseName(name)]
	}

	return &CommandEngine{
		path:    path,
		args:    expandArgs(args, cfg.Rate),
		rate:    cfg.Rate,
		timeout: cfg.Timeout,
	}, nil
}

// Speak runs the synthesizer and waits for it to exit.
func (e *CommandEngine) Speak(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := append(append([]string{}, e.args...), text)
	cmd := exec.CommandContext(ctx, e.path, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("speech timeout after %s", e.timeout)
	}
	if err != nil {
		if s := strings.TrimSpace(stderr.String()); s != "" {
			return fmt.Errorf("speech command failed: %w, stderr: %s", err, s)
		}
		return fmt.Errorf("speech command failed: %w", err)
	}
	return nil
}

// Close is a no-op; every utterance runs its own process.
func (e *CommandEngine) Close() error {
	return nil
}

// Name returns the synthesizer executable name.
func (e *CommandEngine) Name() string {
	return baseName(e.path)
}

// Rate returns the configured words per minute.
func (e *CommandEngine) Rate() int {
	return e.rate
}

func defaultCommand() string {
	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{"say"}
	default:
		candidates = []string{"espeak-ng", "espeak", "spd-say"}
	}
	for _, c := range candidates {
		if _, err := exec.LookPath(c); err == nil {
			return c
		}
	}
	return ""
}

// expandArgs substitutes {rate} with words per minute and {spdrate} with
// the -100..100 scale used by speech-dispatcher, where 0 is about 180 wpm.
func expandArgs(args []string, rate int) []string {
	spd := (rate - 180) * 100 / 180
	if spd < -100 {
		spd = -100
	} else if spd > 100 {
		spd = 100
	}

	out := make([]string, len(args))
	for i, a := range args {
		a = strings.ReplaceAll(a, "{rate}", strconv.Itoa(rate))
		out[i] = strings.ReplaceAll(a, "{spdrate}", strconv.Itoa(spd))
	}
	return out
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	return strings.TrimSuffix(path, ".exe")
}
