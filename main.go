package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/padnode/cmd"
	"github.com/smazurov/padnode/internal/config"
	"github.com/smazurov/padnode/internal/logging"
	"github.com/smazurov/padnode/internal/version"
)

// shutdownTimeout bounds the shutdown animation and worker teardown.
const shutdownTimeout = 10 * time.Second

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *cmd.Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.LoggingConfig())
		logger := logging.GetLogger("main")

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		hooks.OnStart(func() {
			defer close(done)
			logger.Info("Starting padnode", "version", version.String())
			if err := cmd.Serve(ctx, opts); err != nil {
				logger.Error("padnode stopped", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			cancel()

			// A second signal skips the shutdown animation.
			again := make(chan os.Signal, 1)
			signal.Notify(again, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(again)

			select {
			case <-done:
			case <-again:
				logger.Warn("Second signal, exiting immediately")
				os.Exit(1)
			case <-time.After(shutdownTimeout):
				logger.Error("Shutdown timed out")
				os.Exit(1)
			}
		})
	})

	cli.Root().Use = "padnode"
	cli.Root().Short = "Drive a Launchpad Mini MK3 as a desktop controller"
	cli.Root().Version = version.Get().Version

	cli.Root().AddCommand(cmd.CreatePortsCmd())
	cli.Root().AddCommand(cmd.CreateTextCmd())
	cli.Root().AddCommand(cmd.CreateDevCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}
