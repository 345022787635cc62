package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/echocat/slf4g"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ayusman/signvoice/internal/announce"
	"github.com/ayusman/signvoice/internal/app"
	"github.com/ayusman/signvoice/internal/tray"
)

// runApp builds the application and runs it with the tray or headless.
func runApp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}

	opts := app.Options{}
	headless := viper.GetBool("headless")
	if headless {
		opts.Console = os.Stdout
	}

	a, err := app.New(cfg, opts)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := a.Serve(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Warn("HTTP server stopped.")
		}
	}()
	if url := a.PreviewURL(); url != "" {
		log.With("url", url).Info("Live preview available.")
	}

	if headless {
		err = runHeadless(ctx, a)
	} else {
		runTray(ctx, cancel, a)
	}

	cancel()
	log.Info("Going down...")
	if cerr := a.Close(); cerr != nil {
		log.WithError(cerr).Warn("Error during shutdown.")
	}
	return err
}

// runHeadless starts a session right away and returns when it ends or a
// termination signal arrives.
func runHeadless(ctx context.Context, a *app.App) error {
	if err := a.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		log.Info("Terminated.")
	case <-a.Session().Done():
		log.Info("Camera session ended.")
	}
	return nil
}

// runTray blocks in the tray loop until Quit is clicked or ctx is done.
func runTray(ctx context.Context, cancel context.CancelFunc, a *app.App) {
	t := tray.New(a.Mode())
	a.AddLabels(t)
	a.OnStateChange(t.SetState)
	a.OnModeChange(t.SetMode)

	t.OnStart(func() {
		if err := a.Start(); err != nil {
			log.WithError(err).Warn("Cannot start camera session.")
		}
	})
	t.OnStop(a.Stop)
	t.OnMode(func(m announce.Mode) {
		if err := a.SetMode(m); err != nil {
			log.WithError(err).Warn("Cannot switch announce mode.")
		}
	})
	if url := a.PreviewURL(); url != "" {
		t.OnPreview(func() {
			if err := openBrowser(url); err != nil {
				log.WithError(err).With("url", url).Warn("Cannot open browser.")
			}
		})
	}
	t.OnQuit(func() {
		log.Info("Quit clicked.")
		cancel()
	})

	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	t.Run()
}
