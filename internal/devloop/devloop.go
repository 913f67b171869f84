// Package devloop reruns a command whenever source files change.
package devloop

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/smazurov/padnode/internal/logging"
	"github.com/smazurov/padnode/internal/process"
)

// ErrNoCommand is returned when Options.Command is empty.
var ErrNoCommand = errors.New("no command to run")

// Options configures a Loop.
type Options struct {
	Dir             string
	Exts            []string // with leading dot; empty matches every file
	Debounce        time.Duration
	GracefulTimeout time.Duration
	Command         []string
	Output          process.OutputHandler
}

// Loop watches a directory tree and restarts its command on changes.
type Loop struct {
	opts    Options
	logger  logging.Logger
	proc    *process.Process
	watcher *fsnotify.Watcher
	wake    chan struct{}

	// mu orders restart decisions against runs starting and ending.
	mu      sync.Mutex
	running bool
}

// New validates opts and prepares a loop. Nothing runs until Run.
func New(opts Options, logger logging.Logger) (*Loop, error) {
	if len(opts.Command) == 0 {
		return nil, ErrNoCommand
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}
	opts.Exts = slices.Clone(opts.Exts)
	for i, ext := range opts.Exts {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			opts.Exts[i] = "." + ext
		}
	}

	proc := process.NewWithOutput("dev", opts.Command, logger, opts.Output)
	// The output handler already shows every line.
	proc.SetOutputLevel(slog.LevelDebug)
	if opts.GracefulTimeout > 0 {
		proc.SetGracefulTimeout(opts.GracefulTimeout)
	}
	return &Loop{
		opts:   opts,
		logger: logger,
		proc:   proc,
		wake:   make(chan struct{}, 1),
	}, nil
}

// Run starts the command and restarts it on every matching change until
// ctx is done. The command is stopped before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	l.watcher = w

	if err := l.addTree(l.opts.Dir); err != nil {
		return err
	}
	l.logger.Info("Watching for changes", "dir", l.opts.Dir, "exts", l.opts.Exts, "command", l.opts.Command)

	done := make(chan struct{})
	go func() {
		defer close(done)
		l.supervise(ctx)
	}()

	l.watch(ctx)
	<-done
	return nil
}

// supervise runs the command, waiting for a change after each exit.
func (l *Loop) supervise(ctx context.Context) {
	l.begin()
	for {
		code := l.proc.RunWithRestart(ctx)
		changed := l.finish()
		if ctx.Err() != nil {
			return
		}
		if changed {
			l.logger.Info("Command exited as files changed, starting again", "exit_code", code)
			l.begin()
			continue
		}
		l.logger.Info("Command exited, waiting for changes", "exit_code", code)
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
			l.begin()
		}
	}
}

// begin marks a run as started. A change from here on restarts it, so an
// earlier wake is dropped.
func (l *Loop) begin() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = true
	select {
	case <-l.wake:
	default:
	}
}

// finish marks the run as ended and reports whether a change asked for a
// restart that the run did not live to take.
func (l *Loop) finish() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = false
	return l.proc.CancelRestart()
}

func (l *Loop) watch(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if hidden(filepath.Base(event.Name)) {
						continue
					}
					if err := l.addTree(event.Name); err != nil {
						l.logger.Warn("Failed to watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if !l.relevant(event) {
				continue
			}
			l.logger.Debug("Change detected", "file", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(l.opts.Debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			l.restart()

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("Watcher error", "error", err)
		}
	}
}

func (l *Loop) restart() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		l.logger.Info("Restarting command")
		l.proc.RequestRestart()
		return
	}
	l.logger.Info("Starting command")
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if hidden(filepath.Base(event.Name)) {
		return false
	}
	return len(l.opts.Exts) == 0 || slices.Contains(l.opts.Exts, filepath.Ext(event.Name))
}

func hidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".") && name != ".."
}

// addTree watches root and every directory below it except dot-dirs.
func (l *Loop) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			l.logger.Debug("Skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := l.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Info returns the state of the command.
func (l *Loop) Info() process.Info {
	return l.proc.Info()
}
