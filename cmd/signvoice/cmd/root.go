// Package cmd contains all CLI commands for signvoice.
package cmd

import (
	"fmt"
	"strings"

	log "github.com/echocat/slf4g"
	"github.com/echocat/slf4g/native"
	"github.com/echocat/slf4g/native/facade/value"
	"github.com/echocat/slf4g/native/formatter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ayusman/signvoice/internal/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "signvoice",
	Short: "Recognize hand signs from the webcam and announce them",
	Long: `signvoice watches the webcam for a small vocabulary of static hand signs
and announces each recognized sign on screen and, in voice mode, through a
speech synthesizer.

Recognized signs:
  - HELLO   open hand, thumb folded
  - GOODBYE closed fist
  - OK      thumb, index and pinky extended

Running 'signvoice' without arguments starts the tray application. Use
--headless to run without a tray; the session then starts immediately.`,
	SilenceUsage: true,
	RunE:         runApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		log.WithError(err).Error("signvoice failed.")
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.signvoice/config.yaml)")
	pf.String("log.level", "", "log level: trace, debug, info, warn, error")
	pf.String("log.format", "", "log format: text or json")

	f := rootCmd.Flags()
	f.Bool("headless", false, "run without tray and start the session immediately")
	f.Int("camera", 0, "camera device index")
	f.String("mode", "", "announce mode: voice or text")
	f.Duration("cooldown", 0, "minimum time before the same sign is announced again")
	f.String("addr", "", "HTTP listen address for preview and control API")
	f.String("history", "", "sqlite file to journal sessions and announcements")
	f.String("mqtt.broker", "", "MQTT broker URL to publish announcements to")
	f.String("mqtt.topic", "", "MQTT topic for announcements")
	f.String("speech.command", "", "speech synthesizer executable")
	f.Int("speech.rate", 0, "speech rate in words per minute")
	f.String("detector.script", "", "path to the MediaPipe hand service script")
	f.Bool("no-mirror", false, "do not mirror the camera image")
	f.Bool("no-overlay", false, "do not draw the hand skeleton on the preview")

	viper.BindPFlags(f)
	viper.BindPFlags(pf)
}

// initConfig reads ENV variables if set.
func initConfig() {
	if cfgFile == "" {
		cfgFile = config.DefaultPath()
	}

	viper.SetEnvPrefix("SIGNVOICE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// loadConfig reads the config file over the defaults and applies flag and
// environment overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile, true)
	if err != nil {
		return config.Config{}, err
	}

	overrides := config.Config{
		Detector: config.Detector{Script: viper.GetString("detector.script")},
		Announce: config.Announce{
			Mode:     viper.GetString("mode"),
			Cooldown: viper.GetDuration("cooldown"),
		},
		Speech: config.Speech{
			Command: viper.GetString("speech.command"),
			Rate:    viper.GetInt("speech.rate"),
		},
		Server:  config.Server{Addr: viper.GetString("addr")},
		History: config.History{Path: viper.GetString("history")},
		MQTT: config.MQTT{
			Broker: viper.GetString("mqtt.broker"),
			Topic:  viper.GetString("mqtt.topic"),
		},
		Log: config.Log{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		},
	}
	if err := cfg.Merge(overrides); err != nil {
		return config.Config{}, fmt.Errorf("merge overrides: %w", err)
	}

	// Merge skips zero values, so device 0 is applied only when given.
	if viper.IsSet("camera") {
		cfg.Camera.Device = viper.GetInt("camera")
	}
	if viper.GetBool("no-mirror") {
		cfg.Camera.Mirror = false
	}
	if viper.GetBool("no-overlay") {
		cfg.Overlay = false
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// setupLogging applies level and format to the native slf4g provider.
func setupLogging(level, format string) error {
	lv := value.NewProvider(native.DefaultProvider)
	codec := value.MappingFormatterCodec{
		"text": formatter.NewText(),
		"json": formatter.NewJson(),
	}
	lv.Consumer.Formatter.Codec = codec

	if level != "" {
		if err := lv.Level.Set(level); err != nil {
			return fmt.Errorf("log level %q: %w", level, err)
		}
	}
	format = strings.ToLower(format)
	if format == "" {
		format = "text"
	}
	if _, ok := codec[format]; !ok {
		return fmt.Errorf("unknown log format %q", format)
	}
	if err := lv.Consumer.Formatter.Set(format); err != nil {
		return fmt.Errorf("log format %q: %w", format, err)
	}
	return nil
}
