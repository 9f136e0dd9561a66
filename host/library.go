package host

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hielements/extlib-go/value"
	"github.com/hielements/extlib-go/wire"
)

// shutdownGrace is how long Close waits for a plugin to exit after its
// stdin is closed before killing it.
const shutdownGrace = 2 * time.Second

// Library is one configured external library. The plugin process is spawned
// lazily on first use and stays alive, serving requests over its standard
// streams, until Close.
type Library struct {
	config Config
	log    zerolog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	session *Session
}

// NewLibrary creates a library from its configuration without starting the
// process.
func NewLibrary(config Config) *Library {
	return &Library{
		config: config,
		log: zerolog.New(os.Stderr).With().
			Timestamp().
			Str("library", config.Name).
			Logger(),
	}
}

// Name returns the library's configured name.
func (l *Library) Name() string {
	return l.config.Name
}

// ensure starts the plugin process if it is not already running.
func (l *Library) ensure() (*Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.session != nil {
		return l.session, nil
	}

	cmd := exec.Command(l.config.Executable, l.config.Args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin of library %q: %w", l.config.Name, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout of library %q: %w", l.config.Name, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start library %q: %w", l.config.Name, err)
	}

	instance := uuid.New()
	l.log = l.log.With().Str("instance", instance.String()).Logger()
	l.log.Debug().Str("executable", l.config.Executable).Int("pid", cmd.Process.Pid).
		Msg("library process started")

	l.cmd = cmd
	l.stdin = stdin
	l.session = NewSession(stdout, stdin)
	return l.session, nil
}

// Metadata fetches the plugin's self-description, spawning it if needed.
func (l *Library) Metadata() (wire.Metadata, error) {
	session, err := l.ensure()
	if err != nil {
		return wire.Metadata{}, err
	}
	return session.Metadata()
}

// Call invokes a selector function on the plugin.
func (l *Library) Call(function string, args []value.Value, workspace string) (value.Value, error) {
	session, err := l.ensure()
	if err != nil {
		return value.Null(), err
	}
	return session.Call(function, args, workspace)
}

// Check invokes a check function on the plugin.
func (l *Library) Check(function string, args []value.Value, workspace string) (value.CheckResult, error) {
	session, err := l.ensure()
	if err != nil {
		return value.CheckResult{}, err
	}
	return session.Check(function, args, workspace)
}

// Close shuts the plugin process down. Closing stdin signals EOF, which a
// well-behaved plugin treats as its exit condition; a process still alive
// after the grace period is killed. Close on a never-started library is a
// no-op.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cmd == nil {
		return nil
	}

	_ = l.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- l.cmd.Wait() }()

	select {
	case err := <-done:
		l.cmd, l.stdin, l.session = nil, nil, nil
		if err != nil {
			return fmt.Errorf("library %q exited with error: %w", l.config.Name, err)
		}
		return nil
	case <-time.After(shutdownGrace):
		l.log.Warn().Msg("library did not exit on EOF, killing")
		_ = l.cmd.Process.Kill()
		<-done
		l.cmd, l.stdin, l.session = nil, nil, nil
		return nil
	}
}
