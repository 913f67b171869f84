package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/padnode/internal/launchpad"
	"github.com/smazurov/padnode/internal/logging"
	"github.com/spf13/cobra"
)

// Rough time one character takes to cross the grid at speed 15.
const charScrollTime = 600 * time.Millisecond

// ScrollDuration estimates how long text takes to scroll past once.
func ScrollDuration(text string) time.Duration {
	return time.Duration(len(text)+2) * charScrollTime
}

// CreateTextCmd creates the text command.
func CreateTextCmd() *cobra.Command {
	var (
		color uint8
		speed uint8
		wait  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "text <message>",
		Short: "Scroll a message across the Launchpad",
		Long: `Opens the device, scrolls the message once and restores the device. ` +
			`The daemon must not hold the port; use POST /api/text while it runs.`,
		Args: cobra.MinimumNArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			message := strings.Join(args, " ")
			if wait <= 0 {
				wait = ScrollDuration(message)
			}
			if err := scrollText(cmd.Context(), opts, message, speed, color, wait); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
				os.Exit(1)
			}
		}),
	}

	cmd.Flags().Uint8Var(&color, "color", 3, "Palette colour of the text")
	cmd.Flags().Uint8Var(&speed, "speed", 15, "Scroll speed")
	cmd.Flags().DurationVar(&wait, "wait", 0, "How long to keep the device open, 0 estimates from the text length")
	return cmd
}

func scrollText(ctx context.Context, opts *Options, message string, speed, color uint8, wait time.Duration) error {
	for _, r := range message {
		if r > 0x7f {
			return fmt.Errorf("message must be ASCII: %q", message)
		}
	}
	logger := logging.GetLogger("launchpad")

	stream, port, err := OpenPort(opts.Port, opts.PortMatch)
	if err != nil {
		return err
	}
	dev, err := launchpad.Open(stream, nil, logger)
	if err != nil {
		stream.Close()
		return err
	}
	defer dev.Close()
	logger.Info("Scrolling text", "port", port.ID, "text", message)

	if err := dev.Send(launchpad.NewScrollText(message, false, speed, launchpad.PaletteText(color))); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case <-ctx.Done():
	case <-dev.Done():
		return fmt.Errorf("device went away: %w", dev.Err())
	case <-time.After(wait):
	}
	// An empty ScrollText stops any text still running.
	return dev.Send(launchpad.ScrollText{})
}
