//go:build !windows

package utils

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

func SendSignal(logger *zap.Logger, pid int, sig syscall.Signal) error {
	err := unix.Kill(pid, sig)
	if err != nil {
		// ESRCH means the process is already gone
		if errors.Is(err, unix.ESRCH) {
			return nil
		}
		logger.Error("failed to send signal to process", zap.Int("pid", pid), zap.Error(err))
		return err
	}
	logger.Debug("signal sent to process successfully", zap.Int("pid", pid), zap.String("signal", sig.String()))
	return nil
}

// InterruptProcessTree signals the whole process group led by pid.
func InterruptProcessTree(logger *zap.Logger, pid int, sig syscall.Signal) error {
	return SendSignal(logger, -pid, sig)
}

// SetProcessGroup puts the child in its own process group so that it can be signalled as a tree.
func SetProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// InterruptCancel is the cmd.Cancel used for every child: SIGINT to the process group.
func InterruptCancel(logger *zap.Logger) func(cmd *exec.Cmd) func() error {
	return func(cmd *exec.Cmd) func() error {
		return func() error {
			if cmd.Process == nil {
				return nil
			}
			return InterruptProcessTree(logger, cmd.Process.Pid, syscall.SIGINT)
		}
	}
}

// ExecuteCommand runs userCmd through sh -c in dir and waits for it. When stdout is a terminal
// the command gets its own PTY so that installers can draw their progress bars.
func ExecuteCommand(ctx context.Context, logger *zap.Logger, userCmd string, dir string, cancel func(cmd *exec.Cmd) func() error, waitDelay time.Duration) CmdError {
	cmd := exec.CommandContext(ctx, "sh", "-c", userCmd)
	cmd.Dir = dir

	cmd.Cancel = cancel(cmd)
	// wait after sending the interrupt signal, before sending the kill signal
	cmd.WaitDelay = waitDelay

	if term.IsTerminal(int(os.Stdout.Fd())) {
		// Setsid instead of Setpgid so that the PTY becomes the controlling terminal
		cmd.SysProcAttr = &syscall.SysProcAttr{
			Setsid: true,
		}
		logger.Debug("stdout is a TTY, running command inside a PTY", zap.String("cmd", userCmd))
		return executeWithPTY(ctx, logger, cmd)
	}

	SetProcessGroup(cmd)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	logger.Info("running command", zap.String("executing_cmd", userCmd))
	if err := cmd.Start(); err != nil {
		return CmdError{Type: Init, Err: err}
	}
	if err := cmd.Wait(); err != nil {
		return CmdError{Type: Runtime, Err: err}
	}
	return CmdError{}
}

func executeWithPTY(_ context.Context, logger *zap.Logger, cmd *exec.Cmd) CmdError {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		logger.Error("failed to start command with PTY", zap.Error(err))
		return CmdError{Type: Init, Err: err}
	}

	logger.Info("running command", zap.String("executing_cmd", cmd.String()))

	// propagate size changes of the real terminal to the PTY
	resizeCh := make(chan os.Signal, 1)
	signal.Notify(resizeCh, syscall.SIGWINCH)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range resizeCh {
			if resizeErr := pty.InheritSize(os.Stdin, ptmx); resizeErr != nil && !isClosedPTYError(resizeErr) {
				logger.Debug("failed to resize PTY", zap.Error(resizeErr))
			}
		}
	}()
	resizeCh <- syscall.SIGWINCH

	outputDone := make(chan struct{})
	var copyErr error
	go func() {
		_, copyErr = io.Copy(os.Stdout, ptmx)
		close(outputDone)
	}()

	cmdErr := cmd.Wait()

	signal.Stop(resizeCh)
	select {
	case <-resizeCh:
	default:
	}
	close(resizeCh)
	wg.Wait()

	if closeErr := ptmx.Close(); closeErr != nil {
		logger.Debug("failed to close PTY", zap.Error(closeErr))
	}
	<-outputDone

	if copyErr != nil && !isClosedPTYError(copyErr) {
		logger.Debug("error copying PTY output to stdout", zap.Error(copyErr))
	}
	if cmdErr != nil {
		return CmdError{Type: Runtime, Err: cmdErr}
	}
	return CmdError{}
}

// isClosedPTYError matches the errors returned by reads and ioctls on a PTY that has been closed.
func isClosedPTYError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, syscall.EIO) {
		return true
	}
	return strings.Contains(err.Error(), "file already closed") || strings.Contains(err.Error(), "input/output error")
}
