// Package process provides subprocess lifecycle management.
//
// Process wraps os/exec for long-running helpers such as the playerctl
// follower and the dev loop's child:
//   - Graceful shutdown with SIGINT to the process group and a timeout
//   - Force kill with SIGKILL if graceful shutdown times out
//   - Output streaming to an OutputHandler and the log at a chosen level
//   - Restart requests that wait for the previous run to exit
//
// Output runs short-lived commands (lsusb, pactl, playerctl play) and
// returns their stdout.
//
// Example:
//
//	p := process.NewWithOutput("playerctl", []string{"playerctl", "-F", "status"}, logger,
//	    process.OutputHandlerFunc(func(_, line string) { handle(line) }))
//	go p.Run(ctx)
package process
