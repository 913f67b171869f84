package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"slices"
	"sync"

	"github.com/smazurov/padnode/internal/api"
	"github.com/smazurov/padnode/internal/app"
	"github.com/smazurov/padnode/internal/config"
	"github.com/smazurov/padnode/internal/devices"
	"github.com/smazurov/padnode/internal/events"
	"github.com/smazurov/padnode/internal/launchpad"
	"github.com/smazurov/padnode/internal/layout"
	"github.com/smazurov/padnode/internal/logging"
	"github.com/smazurov/padnode/internal/media"
	"github.com/smazurov/padnode/internal/metrics"
	"github.com/smazurov/padnode/internal/synth"
	"github.com/smazurov/padnode/internal/systemd"
	"github.com/smazurov/padnode/internal/wm"
)

// loadLayout reads the layout file, using the defaults when it does not
// exist.
func loadLayout(path string, logger logging.Logger) (layout.Layout, error) {
	l, err := layout.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("No layout file, using defaults", "path", path)
		return layout.Default(), nil
	}
	return l, err
}

// Serve runs the daemon until ctx is done, the device goes away or the
// exit pad is pressed. It returns app.ErrDeviceRemoved when the Launchpad
// is unplugged.
func Serve(ctx context.Context, opts *Options) error {
	logger := logging.GetLogger("main")

	bus := events.New()
	logging.SetLogCallback(func(entry logging.LogEntry) {
		bus.Publish(api.LogEvent(entry))
	})
	defer logging.SetLogCallback(nil)

	lay, err := loadLayout(opts.Layout, logger)
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}

	conn := wm.NewConn(nil)
	defer conn.Close()
	wmLogger := logging.GetLogger("wm")
	desktop := wm.NewDesktop(conn, lay, wmLogger)

	var units api.UnitController
	if names := lay.Units(); len(names) > 0 {
		mgr, mgrErr := systemd.NewManager(ctx, names)
		if mgrErr != nil {
			logger.Warn("Unit shortcuts disabled", "error", mgrErr)
		} else {
			defer mgr.Close()
			desktop.SetUnits(mgr)
			units = mgr
		}
	}

	if opts.Layout != "" {
		watcher := config.NewConfigWatcher(opts.Layout, layout.Load, logging.GetLogger("config"))
		watcher.OnReload(func(l layout.Layout) {
			if !slices.Equal(l.Units(), lay.Units()) {
				logger.Warn("Unit list changed, restart to apply", "units", l.Units())
			}
			desktop.SetLayout(l)
			bus.Publish(events.RedrawEvent{Reason: "layout"})
		})
		if startErr := watcher.Start(); startErr != nil {
			logger.Warn("Layout hot reload disabled", "error", startErr)
		} else {
			defer watcher.Stop()
		}
	}

	mediaLogger := logging.GetLogger("media")
	appLogger := logging.GetLogger("app")
	notes := synth.New()
	if opts.Audio {
		player := synth.Open(notes, logging.GetLogger("synth"))
		defer player.Close()
	}

	stream, port, err := OpenPort(opts.Port, opts.PortMatch)
	if err != nil {
		return fmt.Errorf("open launchpad port: %w", err)
	}
	logger.Info("Opened Launchpad", "port", port.ID, "name", port.Name)

	// Input that arrives before the loop exists waits for it.
	ready := make(chan struct{})
	var loop *app.App
	dev, err := launchpad.Open(stream, func(msg launchpad.Message) {
		<-ready
		loop.HandleMessage(msg)
	}, logging.GetLogger("launchpad"))
	if err != nil {
		stream.Close()
		return fmt.Errorf("initialise launchpad: %w", err)
	}
	loop = app.New(app.Options{
		Device:         dev,
		Bus:            bus,
		Desktop:        desktop,
		Media:          media.NewController(nil, mediaLogger),
		Synth:          notes,
		Mic:            app.NewMicIndicator(nil, appLogger),
		Logger:         appLogger,
		Card:           port.Card,
		RedrawInterval: opts.Redraw(),
	})
	close(ready)
	defer dev.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	spawn := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(runCtx)
		}()
	}
	defer wg.Wait()

	spawn(wm.NewWatcher(nil, bus, wmLogger).Run)
	spawn(media.NewFollower(bus, mediaLogger).Run)
	spawn(func(ctx context.Context) {
		if runErr := devices.NewWatcher(bus, logging.GetLogger("devices")).Run(ctx); runErr != nil {
			logger.Warn("Hotplug monitoring unavailable", "error", runErr)
		}
	})

	notifier := systemd.NewNotifier(logging.GetLogger("systemd"))
	spawn(notifier.Watchdog)

	if opts.APIAddr != "" {
		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			EventBus:          bus,
			Units:             units,
			PrometheusHandler: metrics.Handler(),
		})
		go func() {
			if startErr := server.Start(opts.APIAddr); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
			}
		}()
		defer func() {
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
		}()
	}

	notifier.Ready()
	notifier.Status("Driving " + port.ID)

	err = loop.Run(runCtx)
	notifier.Stopping()
	// Background workers must see cancellation before wg.Wait runs.
	cancel()
	return err
}
