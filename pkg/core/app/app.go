// Package app supervises the external processes started by the recorder: the Playwright
// code generator, the bridge script and the trace viewer.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pwrecorder/pwrecorder/pkg/models"
	"github.com/pwrecorder/pwrecorder/utils"
	"go.uber.org/zap"
)

// Handle is a running child process.
type Handle interface {
	// Stdin is the write side of the child's standard input.
	Stdin() io.Writer
	// Terminate interrupts the process group, then kills it once the wait delay has passed.
	// It is safe to call more than once and after the process has exited.
	Terminate()
	Done() <-chan struct{}
	// Wait blocks until the process exits and returns its exit code.
	Wait(ctx context.Context) (int, error)
	// WaitTimeout is Wait with a deadline; on expiry the process is left running.
	WaitTimeout(d time.Duration) (int, error)
	Pid() int
	String() string
}

type Options struct {
	// WaitDelay is the time between the interrupt and the kill sent by Terminate.
	WaitDelay time.Duration
	Env       []string
}

type Supervisor struct {
	logger *zap.Logger
	opts   Options
}

func New(logger *zap.Logger, opts Options) *Supervisor {
	if opts.WaitDelay <= 0 {
		opts.WaitDelay = 5 * time.Second
	}
	return &Supervisor{
		logger: logger,
		opts:   opts,
	}
}

// Launch starts argv in dir. Combined stdout and stderr are handed to onOutput, in arrival
// order, from a single reader goroutine. The process is bound to ctx: cancelling it has the
// same effect as Terminate.
func (s *Supervisor) Launch(ctx context.Context, argv []string, dir string, onOutput func([]byte)) (Handle, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, &models.LaunchError{Cmd: argv, Err: errors.New("empty command")}
	}
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, &models.LaunchError{Cmd: argv, Err: err}
	}

	pctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(pctx, path, argv[1:]...)
	cmd.Dir = dir
	if len(s.opts.Env) > 0 {
		cmd.Env = append(cmd.Environ(), s.opts.Env...)
	}
	cmd.Cancel = utils.InterruptCancel(s.logger)(cmd)
	// wait after sending the interrupt signal, before sending the kill signal
	cmd.WaitDelay = s.opts.WaitDelay
	utils.SetProcessGroup(cmd)

	out := &outputWriter{fn: onOutput}
	cmd.Stdout = out
	cmd.Stderr = out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, &models.LaunchError{Cmd: argv, Err: err}
	}

	s.logger.Debug("starting process", zap.String("cmd", cmd.String()), zap.String("dir", dir))
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, &models.LaunchError{Cmd: argv, Err: err}
	}

	p := &Process{
		logger:    s.logger,
		cmd:       cmd,
		cancel:    cancel,
		stdin:     stdin,
		waitDelay: s.opts.WaitDelay,
		done:      make(chan struct{}),
		line:      strings.Join(argv, " "),
	}
	go p.wait()
	return p, nil
}

type Process struct {
	logger    *zap.Logger
	cmd       *exec.Cmd
	cancel    context.CancelFunc
	stdin     io.WriteCloser
	waitDelay time.Duration
	line      string

	done      chan struct{}
	exitCode  int
	waitErr   error
	terminate sync.Once
}

func (p *Process) wait() {
	defer close(p.done)
	err := p.cmd.Wait()
	p.exitCode = exitCode(p.cmd, err)
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
		p.waitErr = err
	}
	p.cancel()
	p.logger.Debug("process exited", zap.String("cmd", p.line), zap.Int("exitCode", p.exitCode))
}

func (p *Process) Stdin() io.Writer {
	return p.stdin
}

func (p *Process) Terminate() {
	p.terminate.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}
		_ = p.stdin.Close()
		p.cancel()
		go func() {
			select {
			case <-p.done:
			case <-time.After(p.waitDelay):
				// exec only kills the group leader, take the rest of the tree with it
				if err := utils.InterruptProcessTree(p.logger, p.cmd.Process.Pid, syscall.SIGKILL); err != nil {
					p.logger.Debug("failed to kill process group", zap.Error(err))
				}
			}
		}()
	})
}

func (p *Process) Done() <-chan struct{} {
	return p.done
}

func (p *Process) Wait(ctx context.Context) (int, error) {
	select {
	case <-p.done:
		return p.exitCode, p.waitErr
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

func (p *Process) WaitTimeout(d time.Duration) (int, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-p.done:
		return p.exitCode, p.waitErr
	case <-timer.C:
		return -1, &models.TimeoutError{Cmd: p.line, After: d}
	}
}

func (p *Process) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *Process) String() string {
	return p.line
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err == nil {
		return 0
	}
	return -1
}

// RunProbe runs argv and returns its exit code, or an error when it cannot be started or does
// not finish within timeout. Output is discarded.
func (s *Supervisor) RunProbe(ctx context.Context, argv []string, dir string, timeout time.Duration) (int, error) {
	h, err := s.Launch(ctx, argv, dir, nil)
	if err != nil {
		return -1, err
	}
	code, err := h.WaitTimeout(timeout)
	if err != nil {
		h.Terminate()
		<-h.Done()
		return -1, fmt.Errorf("probe %q: %w", h.String(), err)
	}
	return code, nil
}
