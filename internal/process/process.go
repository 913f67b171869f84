package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/smazurov/padnode/internal/logging"
)

// OutputHandler receives output lines from the subprocess. source is
// "stdout" or "stderr".
type OutputHandler interface {
	HandleLine(source, line string)
}

// OutputHandlerFunc adapts a function to OutputHandler.
type OutputHandlerFunc func(source, line string)

// HandleLine calls f.
func (f OutputHandlerFunc) HandleLine(source, line string) { f(source, line) }

// ErrEmptyCommand is returned when a process has no arguments.
var ErrEmptyCommand = errors.New("empty command")

// exitKilled is reported when a process had to be killed.
const exitKilled = 137

// Process supervises one long-running helper. Each run gets its own
// process group so signals reach anything the helper spawns.
type Process struct {
	id      string
	args    []string
	logger  logging.Logger
	output  OutputHandler
	restart chan struct{}

	// Level used for echoing helper output to the log. Zero means info.
	outputLevel slog.Level

	gracefulTimeout time.Duration
	killTimeout     time.Duration

	mu   sync.Mutex
	info Info
}

// NewWithOutput creates a stopped process whose output lines go to handler.
// handler may be nil.
func NewWithOutput(id string, args []string, logger logging.Logger, handler OutputHandler) *Process {
	return &Process{
		id:              id,
		args:            args,
		logger:          logger,
		output:          handler,
		restart:         make(chan struct{}, 1),
		gracefulTimeout: 5 * time.Second,
		killTimeout:     5 * time.Second,
		info:            Info{ID: id, State: StateIdle},
	}
}

// Args returns the command line.
func (p *Process) Args() []string { return p.args }

// SetGracefulTimeout sets how long a stopping helper may take to exit
// after SIGINT before it is killed.
func (p *Process) SetGracefulTimeout(d time.Duration) { p.gracefulTimeout = d }

// SetOutputLevel sets the level helper output is logged at.
func (p *Process) SetOutputLevel(level slog.Level) { p.outputLevel = level }

// Info returns a snapshot of the process state.
func (p *Process) Info() Info {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info
}

func (p *Process) update(fn func(*Info)) {
	p.mu.Lock()
	fn(&p.info)
	p.mu.Unlock()
}

func (p *Process) setState(s State, err error) {
	p.update(func(i *Info) {
		i.State = s
		if err != nil {
			i.LastError = err
		}
		if s != StateRunning {
			i.PID = 0
		}
	})
}

// RequestRestart asks RunWithRestart to replace the current run. A second
// request before the first is handled is dropped.
func (p *Process) RequestRestart() {
	select {
	case p.restart <- struct{}{}:
		p.logger.Debug("Restart requested", "id", p.id)
	default:
	}
}

// CancelRestart drops a restart request nobody has taken yet and reports
// whether there was one.
func (p *Process) CancelRestart() bool {
	select {
	case <-p.restart:
		return true
	default:
		return false
	}
}

// Run starts the helper and blocks until it exits or ctx is done. It
// returns the exit code.
func (p *Process) Run(ctx context.Context) int {
	code, _ := p.cycle(ctx, nil)
	return code
}

// RunWithRestart is Run plus restart handling. A restart waits for the
// previous run to exit before starting the next one.
func (p *Process) RunWithRestart(ctx context.Context) int {
	for {
		code, restarted := p.cycle(ctx, p.restart)
		if !restarted {
			return code
		}
		p.update(func(i *Info) { i.RestartCount++ })
		p.logger.Info("Restarting process", "id", p.id)
	}
}

// child is one started run of the helper.
type child struct {
	cmd  *exec.Cmd
	done <-chan error
}

func (p *Process) cycle(ctx context.Context, restart <-chan struct{}) (code int, restarted bool) {
	c, err := p.spawn()
	if err != nil {
		return 1, false
	}

	select {
	case <-ctx.Done():
		return p.stop(c), false
	case <-restart:
		return p.stop(c), true
	case err := <-c.done:
		code := exitCode(err)
		if err != nil {
			p.setState(StateError, err)
		} else {
			p.setState(StateIdle, nil)
		}
		p.logger.Info("Process exited", "id", p.id, "exit_code", code)
		return code, false
	}
}

func (p *Process) spawn() (*child, error) {
	if len(p.args) == 0 {
		p.logger.Error("Empty command", "id", p.id)
		p.setState(StateError, ErrEmptyCommand)
		return nil, ErrEmptyCommand
	}
	p.setState(StateStarting, nil)

	cmd := exec.Command(p.args[0], p.args[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		p.setState(StateError, err)
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		p.setState(StateError, err)
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		p.logger.Error("Failed to start process", "id", p.id, "args", p.args, "error", err)
		p.setState(StateError, err)
		return nil, err
	}

	pid := cmd.Process.Pid
	p.update(func(i *Info) {
		i.State = StateRunning
		i.PID = pid
		i.StartedAt = time.Now()
	})
	p.logger.Info("Process started", "id", p.id, "pid", pid, "args", p.args)

	// Wait must not run until both pipes are drained.
	var pipes sync.WaitGroup
	pipes.Add(2)
	go p.pump(stdout, "stdout", &pipes)
	go p.pump(stderr, "stderr", &pipes)

	done := make(chan error, 1)
	go func() {
		pipes.Wait()
		done <- cmd.Wait()
	}()
	return &child{cmd: cmd, done: done}, nil
}

func (p *Process) pump(r io.Reader, source string, wg *sync.WaitGroup) {
	defer wg.Done()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if p.output != nil {
			p.output.HandleLine(source, line)
		}
		p.logger.Log(context.Background(), p.outputLevel, line, "id", p.id, "source", source)
	}
	if err := sc.Err(); err != nil {
		p.logger.Warn("Error reading output", "id", p.id, "source", source, "error", err)
	}
}

func (p *Process) stop(c *child) int {
	p.setState(StateStopping, nil)
	p.signal(c.cmd, syscall.SIGINT)

	code := exitKilled
	select {
	case err := <-c.done:
		code = exitCode(err)
	case <-time.After(p.gracefulTimeout):
		p.logger.Warn("Process ignored SIGINT, killing", "id", p.id, "timeout", p.gracefulTimeout)
		p.signal(c.cmd, syscall.SIGKILL)
		if err := c.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.logger.Debug("Kill after group kill", "id", p.id, "error", err)
		}
		select {
		case <-c.done:
		case <-time.After(p.killTimeout):
			p.logger.Error("Process survived SIGKILL", "id", p.id)
		}
	}
	p.setState(StateIdle, nil)
	return code
}

// signal sends sig to the child's whole process group.
func (p *Process) signal(cmd *exec.Cmd, sig syscall.Signal) {
	if cmd.Process == nil {
		return
	}
	err := syscall.Kill(-cmd.Process.Pid, sig)
	if err != nil && !errors.Is(err, syscall.ESRCH) {
		p.logger.Warn("Failed to signal process", "id", p.id, "signal", sig.String(), "error", err)
	}
}

// exitCode maps a Wait error to a shell-style exit code.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 1
	}
	if code := exitErr.ExitCode(); code >= 0 {
		return code
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return 1
}
