// Package shell implements the interactive simulator command interpreter.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/sarchlab/pipesim/driver"
	"github.com/sarchlab/pipesim/loader"
	"github.com/sarchlab/pipesim/timing/cache"
	"github.com/sarchlab/pipesim/timing/core"
)

// Prompt is printed before each command read by Run.
const Prompt = "pipesim> "

// ErrUsage is returned when a command has malformed arguments.
var ErrUsage = errors.New("usage")

const helpText = `Available commands:
- load [file]: Load program from file (no file loads the example program)
- run: Start program execution
- stop: Stop program execution
- step [n]: Execute one cycle, or n cycles
- reset: Reset CPU state
- status: Show pipeline, cache and metrics state
- help: Show this help
- quit, exit: Leave the simulator`

// Option is a functional option for configuring the Shell.
type Option func(*Shell)

// WithLogger sets the logger for the shell.
func WithLogger(logger logr.Logger) Option {
	return func(s *Shell) {
		s.logger = logger
	}
}

// WithInterval sets the time between cycles while running. Default: 10ms.
func WithInterval(d time.Duration) Option {
	return func(s *Shell) {
		s.interval = d
	}
}

// WithProgramLoader replaces the function used to read program files.
func WithProgramLoader(fn func(path string) (*loader.Program, error)) Option {
	return func(s *Shell) {
		s.loadProgram = fn
	}
}

// Shell reads commands and drives a worker.
type Shell struct {
	worker *driver.Worker

	// mu guards out and prevL1D, which the run loop also touches.
	mu      sync.Mutex
	out     io.Writer
	prevL1D []cache.LineView

	runMu   sync.Mutex
	cancel  context.CancelFunc
	runDone chan struct{}

	interval    time.Duration
	loadProgram func(path string) (*loader.Program, error)
	logger      logr.Logger
}

// New creates a shell that writes its output to out.
func New(worker *driver.Worker, out io.Writer, opts ...Option) *Shell {
	s := &Shell{
		worker:      worker,
		out:         out,
		interval:    10 * time.Millisecond,
		loadProgram: loader.Load,
		logger:      logr.Discard(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run reads commands from in until quit, end of input or ctx is done.
// Command errors are printed and do not end the session.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	defer s.stopRunning()

	scanner := bufio.NewScanner(in)
	for {
		s.print(Prompt)

		if !scanner.Scan() {
			s.println("")
			return scanner.Err()
		}

		quit, err := s.Execute(ctx, scanner.Text())
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.printf("Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// Execute runs one command line. It reports whether the shell should quit.
func (s *Shell) Execute(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	s.logger.V(1).Info("command", "name", cmd, "args", args)

	switch cmd {
	case "load":
		return false, s.load(ctx, args)
	case "run":
		return false, s.run(ctx)
	case "stop":
		s.stopRunning()
		s.println("Stopped program execution")
		return false, nil
	case "step":
		return false, s.step(ctx, args)
	case "reset":
		return false, s.reset(ctx)
	case "status":
		return false, s.status(ctx)
	case "help":
		s.println(helpText)
		return false, nil
	case "quit", "exit":
		s.stopRunning()
		return true, nil
	default:
		s.println(`Unknown command. Type "help" for available commands`)
		return false, nil
	}
}

func (s *Shell) load(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: load [file]", ErrUsage)
	}

	prog := loader.ExampleProgram()
	if len(args) == 1 {
		var err error
		prog, err = s.loadProgram(args[0])
		if err != nil {
			return err
		}
	}

	s.stopRunning()

	snap, err := s.worker.Load(ctx, prog.Instructions)
	if err != nil {
		return err
	}
	s.remember(snap)

	if len(args) == 0 {
		s.println("Loaded example program")
	} else {
		s.printf("Loaded %d instructions from %s\n", prog.Len(), prog.Source)
	}
	return nil
}

func (s *Shell) reset(ctx context.Context) error {
	s.stopRunning()

	snap, err := s.worker.Reset(ctx)
	if err != nil {
		return err
	}
	s.remember(snap)

	s.println("CPU state reset")
	return nil
}

func (s *Shell) step(ctx context.Context, args []string) error {
	n := 1
	if len(args) > 1 {
		return fmt.Errorf("%w: step [n]", ErrUsage)
	}
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return fmt.Errorf("%w: step [n], n must be a positive integer", ErrUsage)
		}
		n = v
	}

	snap, err := s.worker.Step(ctx, n)
	if err != nil {
		return err
	}

	current := snap.CurrentInstruction
	if current == "" {
		current = "None"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n == 1 {
		fmt.Fprintf(s.out, "Executed one cycle. Current instruction: %s\n", current)
	} else {
		fmt.Fprintf(s.out, "Executed up to %d cycles (cycle %d). Current instruction: %s\n",
			n, snap.Cycle, current)
	}
	s.writeCacheLog(snap)

	return nil
}

func (s *Shell) status(ctx context.Context) error {
	snap, err := s.worker.Snapshot(ctx)
	if err != nil {
		return err
	}
	running := s.running()

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeStatus(s.out, snap, running)
}

// run starts the run loop. The loop steps the worker every interval until
// the program drains or stop is issued.
func (s *Shell) run(ctx context.Context) error {
	if s.running() {
		s.println("Program already running")
		return nil
	}

	// A loop that finished on its own is still recorded; clear it first.
	s.stopRunning()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.runMu.Lock()
	s.cancel = cancel
	s.runDone = done
	s.runMu.Unlock()

	go func() {
		defer close(done)
		s.runLoop(runCtx)
	}()

	s.println("Started program execution")
	return nil
}

func (s *Shell) runLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		snap, err := s.worker.Step(ctx, 1)
		if err != nil {
			if ctx.Err() == nil {
				s.printf("Error: %v\n", err)
			}
			return
		}

		s.mu.Lock()
		s.writeCacheLog(snap)
		if snap.Drained {
			fmt.Fprintf(s.out, "Program finished after %d cycles\n", snap.Cycle)
		}
		s.mu.Unlock()

		if snap.Drained {
			s.logger.V(1).Info("run loop finished", "cycle", snap.Cycle)
			return
		}
	}
}

// stopRunning cancels the run loop, if any, and waits for it to exit.
func (s *Shell) stopRunning() {
	s.runMu.Lock()
	cancel, done := s.cancel, s.runDone
	s.cancel, s.runDone = nil, nil
	s.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the run loop is active.
func (s *Shell) Running() bool {
	return s.running()
}

func (s *Shell) running() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.runDone == nil {
		return false
	}
	select {
	case <-s.runDone:
		return false
	default:
		return true
	}
}

// Wait blocks until the run loop exits or ctx is done.
func (s *Shell) Wait(ctx context.Context) error {
	s.runMu.Lock()
	done := s.runDone
	s.runMu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// remember records the L1D state so the next cache log starts from it.
func (s *Shell) remember(snap core.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prevL1D = snap.CacheState.L1D
}

// writeCacheLog prints the L1D line changes since the previous snapshot.
// s.mu must be held.
func (s *Shell) writeCacheLog(snap core.Snapshot) {
	for _, change := range cache.Diff(s.prevL1D, snap.CacheState.L1D) {
		fmt.Fprintln(s.out, change.String())
	}
	s.prevL1D = snap.CacheState.L1D
}

func (s *Shell) print(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprint(s.out, text)
}

func (s *Shell) println(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintln(s.out, text)
}

func (s *Shell) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(s.out, format, args...)
}
