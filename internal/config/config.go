// Package config loads and validates the signvoice configuration file.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"dario.cat/mergo"

	"github.com/ayusman/signvoice/internal/announce"
	"github.com/ayusman/signvoice/internal/capture"
	"github.com/ayusman/signvoice/internal/detector"
	"github.com/ayusman/signvoice/internal/publish"
	"github.com/ayusman/signvoice/internal/sign"
	"github.com/ayusman/signvoice/internal/speech"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// ErrInvalidMode is returned for an unknown announce mode.
var ErrInvalidMode = announce.ErrInvalidMode

// Config is the complete signvoice configuration.
type Config struct {
	Camera        Camera        `yaml:"camera"`
	Detector      Detector      `yaml:"detector"`
	Announce      Announce      `yaml:"announce"`
	Speech        Speech        `yaml:"speech"`
	Overlay       bool          `yaml:"overlay"`
	Server        Server        `yaml:"server"`
	History       History       `yaml:"history"`
	MQTT          MQTT          `yaml:"mqtt"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`
	Log           Log           `yaml:"log"`
}

type Camera struct {
	Device int  `yaml:"device"`
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	FPS    int  `yaml:"fps"`
	Mirror bool `yaml:"mirror"`
}

type Detector struct {
	MaxHands              int           `yaml:"max_hands"`
	MinConfidence         float64       `yaml:"min_confidence"`
	MinTrackingConfidence float64       `yaml:"min_tracking_confidence"`
	IdleTimeout           time.Duration `yaml:"idle_timeout"`
	// Python and Script are discovered when empty.
	Python string `yaml:"python,omitempty"`
	Script string `yaml:"script,omitempty"`
}

type Announce struct {
	Mode     string            `yaml:"mode"`
	Cooldown time.Duration     `yaml:"cooldown"`
	Phrases  map[string]string `yaml:"phrases"`
}

type Speech struct {
	// Command is discovered when empty.
	Command   string        `yaml:"command,omitempty"`
	Args      []string      `yaml:"args,omitempty"`
	Rate      int           `yaml:"rate"`
	QueueSize int           `yaml:"queue_size"`
	Timeout   time.Duration `yaml:"timeout"`
}

type Server struct {
	// Addr is the listen address. Empty disables the server.
	Addr string `yaml:"addr"`
}

type History struct {
	// Path of the sqlite journal. Empty disables it.
	Path string `yaml:"path"`
}

type MQTT struct {
	// Broker URL, e.g. tcp://localhost:1883. Empty disables publishing.
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	QoS      int    `yaml:"qos"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	dc := detector.DefaultConfig()
	return Config{
		Camera: Camera{
			Device: 0,
			Width:  640,
			Height: 480,
			FPS:    capture.DefaultFPS,
			Mirror: true,
		},
		Detector: Detector{
			MaxHands:              dc.MaxHands,
			MinConfidence:         dc.MinConfidence,
			MinTrackingConfidence: dc.MinTrackingConf,
			IdleTimeout:           dc.IdleTimeout,
		},
		Announce: Announce{
			Mode:     string(announce.ModeVoice),
			Cooldown: announce.DefaultCooldown,
			Phrases: map[string]string{
				string(sign.Hello):   "Hello",
				string(sign.Goodbye): "Goodbye",
				string(sign.OK):      "OK",
			},
		},
		Speech: Speech{
			Rate:      speech.DefaultRate,
			QueueSize: speech.DefaultQueueSize,
			Timeout:   speech.DefaultTimeout,
		},
		Overlay:       true,
		Server:        Server{Addr: "127.0.0.1:8080"},
		MQTT:          MQTT{Topic: publish.DefaultTopic},
		ShutdownGrace: 200 * time.Millisecond,
		Log:           Log{Level: "info", Format: "text"},
	}
}

// DefaultDir returns ~/.signvoice.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".signvoice"
	}
	return filepath.Join(home, ".signvoice")
}

// DefaultPath returns ~/.signvoice/config.yaml.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Merge overlays every non-zero field of overrides onto c.
func (c *Config) Merge(overrides Config) error {
	return mergo.Merge(c, overrides, mergo.WithOverride)
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Camera.Device >= 0, "camera.device must not be negative")
	check(c.Camera.Width > 0 && c.Camera.Height > 0, "camera.width and camera.height must be positive")
	check(c.Camera.FPS > 0, "camera.fps must be positive")

	check(c.Detector.MaxHands >= 1, "detector.max_hands must be at least 1")
	check(inUnit(c.Detector.MinConfidence), "detector.min_confidence must be within [0,1]")
	check(inUnit(c.Detector.MinTrackingConfidence), "detector.min_tracking_confidence must be within [0,1]")
	check(c.Detector.IdleTimeout > 0, "detector.idle_timeout must be positive")

	if _, err := announce.ParseMode(c.Announce.Mode); err != nil {
		errs = append(errs, fmt.Errorf("announce.mode: %w", err))
	}
	check(c.Announce.Cooldown > 0, "announce.cooldown must be positive")
	for k := range c.Announce.Phrases {
		check(sign.Gloss(strings.ToUpper(k)).Valid(), "announce.phrases: unknown sign %q", k)
	}

	check(c.Speech.Rate > 0, "speech.rate must be positive")
	check(c.Speech.QueueSize > 0, "speech.queue_size must be positive")
	check(c.Speech.Timeout > 0, "speech.timeout must be positive")

	check(c.MQTT.QoS >= 0 && c.MQTT.QoS <= 2, "mqtt.qos must be 0, 1 or 2")
	check(c.ShutdownGrace >= 0, "shutdown_grace must not be negative")

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Mode returns the parsed announce mode. Call Validate first.
func (c *Config) Mode() announce.Mode {
	m, err := announce.ParseMode(c.Announce.Mode)
	if err != nil {
		return announce.ModeVoice
	}
	return m
}

// Phrases returns the phrase table keyed by gloss.
func (c *Config) Phrases() map[sign.Gloss]string {
	out := make(map[sign.Gloss]string, len(c.Announce.Phrases))
	for k, v := range normalizePhrases(c.Announce.Phrases) {
		out[sign.Gloss(k)] = v
	}
	return out
}

// normalizePhrases merges tables in order with upper-cased keys. Later
// tables win; keys that collide within one table resolve in sorted order.
func normalizePhrases(tables ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, t := range tables {
		for _, k := range slices.Sorted(maps.Keys(t)) {
			out[strings.ToUpper(k)] = t[k]
		}
	}
	return out
}

// CaptureConfig converts the camera section.
func (c *Config) CaptureConfig() capture.Config {
	return capture.Config{
		DeviceID: c.Camera.Device,
		Width:    c.Camera.Width,
		Height:   c.Camera.Height,
		FPS:      c.Camera.FPS,
		Mirror:   c.Camera.Mirror,
	}
}

// DetectorConfig converts the detector section.
func (c *Config) DetectorConfig() detector.Config {
	return detector.Config{
		MaxHands:        c.Detector.MaxHands,
		MinConfidence:   c.Detector.MinConfidence,
		MinTrackingConf: c.Detector.MinTrackingConfidence,
		Python:          c.Detector.Python,
		Script:          c.Detector.Script,
		IdleTimeout:     c.Detector.IdleTimeout,
	}
}

// SpeechConfig converts the speech section.
func (c *Config) SpeechConfig() speech.CommandConfig {
	return speech.CommandConfig{
		Command: c.Speech.Command,
		Args:    c.Speech.Args,
		Rate:    c.Speech.Rate,
		Timeout: c.Speech.Timeout,
	}
}

// PublishConfig converts the mqtt section.
func (c *Config) PublishConfig() publish.Config {
	return publish.Config{
		Broker:   c.MQTT.Broker,
		Topic:    c.MQTT.Topic,
		ClientID: c.MQTT.ClientID,
		Username: c.MQTT.Username,
		Password: c.MQTT.Password,
		QoS:      byte(c.MQTT.QoS),
	}
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
