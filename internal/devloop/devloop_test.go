package devloop

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/smazurov/padnode/internal/process"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type starts struct {
	mu sync.Mutex
	n  int
}

func (s *starts) HandleLine(_, line string) {
	if line == "start" {
		s.mu.Lock()
		s.n++
		s.mu.Unlock()
	}
}

func (s *starts) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

func waitStarts(t *testing.T, s *starts, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for s.count() < want {
		if time.Now().After(deadline) {
			t.Fatalf("starts = %d, want %d", s.count(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func startLoop(t *testing.T, dir, script string) *starts {
	t.Helper()
	s := &starts{}
	l, err := New(Options{
		Dir:             dir,
		Exts:            []string{"go"},
		Debounce:        50 * time.Millisecond,
		GracefulTimeout: 200 * time.Millisecond,
		Command:         []string{"sh", "-c", script},
		Output:          s,
	}, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run: %v", err)
			}
		case <-time.After(3 * time.Second):
			t.Error("Run did not return")
		}
	})

	waitStarts(t, s, 1)
	return s
}

func write(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("package x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

const longRunning = "echo start; exec sleep 10"

func TestRestartOnMatchingChange(t *testing.T) {
	dir := t.TempDir()
	s := startLoop(t, dir, longRunning)

	write(t, filepath.Join(dir, "main.go"))
	waitStarts(t, s, 2)
}

func TestIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	s := startLoop(t, dir, longRunning)

	write(t, filepath.Join(dir, "notes.txt"))
	write(t, filepath.Join(dir, ".hidden.go"))
	time.Sleep(300 * time.Millisecond)
	if got := s.count(); got != 1 {
		t.Errorf("starts = %d, want 1", got)
	}
}

func TestIgnoresDotDirs(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	s := startLoop(t, dir, longRunning)

	write(t, filepath.Join(dir, ".git", "hook.go"))
	time.Sleep(300 * time.Millisecond)
	if got := s.count(); got != 1 {
		t.Errorf("starts = %d, want 1", got)
	}
}

func TestWatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()
	s := startLoop(t, dir, longRunning)

	sub := filepath.Join(dir, "pkg")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the loop time to add the watch.
	time.Sleep(100 * time.Millisecond)
	write(t, filepath.Join(sub, "lib.go"))
	waitStarts(t, s, 2)
}

func TestDebounceCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	s := startLoop(t, dir, longRunning)

	for range 5 {
		write(t, filepath.Join(dir, "main.go"))
		time.Sleep(5 * time.Millisecond)
	}
	waitStarts(t, s, 2)
	time.Sleep(300 * time.Millisecond)
	if got := s.count(); got != 2 {
		t.Errorf("starts = %d, want 2", got)
	}
}

func TestStartsAgainAfterExit(t *testing.T) {
	dir := t.TempDir()
	s := startLoop(t, dir, "echo start")

	time.Sleep(100 * time.Millisecond)
	if got := s.count(); got != 1 {
		t.Fatalf("starts = %d, want 1 before any change", got)
	}
	write(t, filepath.Join(dir, "main.go"))
	waitStarts(t, s, 2)
}

func TestChangeAfterExitStartsExactlyOnce(t *testing.T) {
	dir := t.TempDir()
	s := startLoop(t, dir, "echo start")

	time.Sleep(100 * time.Millisecond)
	write(t, filepath.Join(dir, "main.go"))
	waitStarts(t, s, 2)
	time.Sleep(300 * time.Millisecond)
	if got := s.count(); got != 2 {
		t.Errorf("starts = %d, want 2", got)
	}
}

func TestRestartRacingExitIsNotLost(t *testing.T) {
	l, err := New(Options{Command: []string{"true"}}, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	// The run is still marked running when the change fires, so the
	// change becomes a restart request the exited run never takes.
	l.begin()
	l.restart()
	if !l.finish() {
		t.Fatal("finish lost the restart request")
	}
	if l.finish() {
		t.Error("restart request survived into the next run")
	}

	// With no run, a change wakes the supervisor instead.
	l.restart()
	select {
	case <-l.wake:
	default:
		t.Error("change while idle did not wake the supervisor")
	}
}

func TestBeginDropsStaleWake(t *testing.T) {
	l, err := New(Options{Command: []string{"true"}}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	l.restart()
	l.begin()
	select {
	case <-l.wake:
		t.Error("wake queued before the run started was kept")
	default:
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestChildOutputShownOnce(t *testing.T) {
	var logs lockedBuffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var mu sync.Mutex
	var shown []string
	out := process.OutputHandlerFunc(func(_, line string) {
		mu.Lock()
		shown = append(shown, line)
		mu.Unlock()
	})
	// printf keeps the output text out of the logged command line.
	l, err := New(Options{Dir: t.TempDir(), Command: []string{"sh", "-c", "printf 'compiled-%s\\n' ok"}, Output: out}, logger)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for {
		mu.Lock()
		n := len(shown)
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("output never reached the handler")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(shown) != 1 || shown[0] != "compiled-ok" {
		t.Errorf("handler saw %v", shown)
	}
	if n := strings.Count(logs.String(), "compiled-ok"); n != 0 {
		t.Errorf("line also logged %d times at info", n)
	}
}

func TestNewRequiresCommand(t *testing.T) {
	if _, err := New(Options{}, testLogger()); !errors.Is(err, ErrNoCommand) {
		t.Errorf("err = %v, want ErrNoCommand", err)
	}
}

func TestNewNormalizesExtensions(t *testing.T) {
	exts := []string{"go", ".toml"}
	l, err := New(Options{Exts: exts, Command: []string{"true"}}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if l.opts.Exts[0] != ".go" || l.opts.Exts[1] != ".toml" {
		t.Errorf("exts = %v", l.opts.Exts)
	}
	if exts[0] != "go" {
		t.Error("caller's slice was modified")
	}
	if l.opts.Dir != "." || l.opts.Debounce != 300*time.Millisecond {
		t.Errorf("defaults = %q %v", l.opts.Dir, l.opts.Debounce)
	}
}

func TestRelevant(t *testing.T) {
	l := &Loop{opts: Options{Exts: []string{".go"}}}
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"write", fsnotify.Event{Name: "a/main.go", Op: fsnotify.Write}, true},
		{"remove", fsnotify.Event{Name: "a/main.go", Op: fsnotify.Remove}, true},
		{"chmod", fsnotify.Event{Name: "a/main.go", Op: fsnotify.Chmod}, false},
		{"other ext", fsnotify.Event{Name: "a/main.txt", Op: fsnotify.Write}, false},
		{"hidden", fsnotify.Event{Name: "a/.main.go", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.relevant(tt.ev); got != tt.want {
				t.Errorf("relevant = %v, want %v", got, tt.want)
			}
		})
	}

	all := &Loop{}
	if !all.relevant(fsnotify.Event{Name: "Makefile", Op: fsnotify.Write}) {
		t.Error("empty Exts should match every file")
	}
}

var _ process.OutputHandler = (*starts)(nil)
