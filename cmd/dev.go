package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smazurov/padnode/internal/devloop"
	"github.com/smazurov/padnode/internal/logging"
	"github.com/smazurov/padnode/internal/process"
	"github.com/spf13/cobra"
)

// passthrough copies child output to the terminal.
func passthrough(stdout, stderr io.Writer) process.OutputHandler {
	return process.OutputHandlerFunc(func(source, line string) {
		if source == "stderr" {
			fmt.Fprintln(stderr, line)
			return
		}
		fmt.Fprintln(stdout, line)
	})
}

// CreateDevCmd creates the dev command.
func CreateDevCmd() *cobra.Command {
	var (
		dir      string
		exts     []string
		debounce time.Duration
		grace    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "dev [flags] -- command [args...]",
		Short: "Rerun a command whenever sources change",
		Long: `Watches a directory tree and restarts the command after matching files change. ` +
			`The previous run is interrupted and must exit before the next one starts.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			loop, err := devloop.New(devloop.Options{
				Dir:             dir,
				Exts:            exts,
				Debounce:        debounce,
				GracefulTimeout: grace,
				Command:         args,
				Output:          passthrough(cmd.OutOrStdout(), cmd.ErrOrStderr()),
			}, logging.GetLogger("devloop"))
			if err != nil {
				return err
			}
			return loop.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory tree to watch")
	cmd.Flags().StringSliceVar(&exts, "ext", []string{".go", ".toml"}, "File extensions that trigger a restart, empty for all")
	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "Quiet period before restarting")
	cmd.Flags().DurationVar(&grace, "grace", 5*time.Second, "Time between SIGINT and SIGKILL when stopping a run")
	return cmd
}
