//go:build windows

package utils

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

func SendSignal(logger *zap.Logger, pid int, sig syscall.Signal) error {
	if sig != syscall.SIGINT {
		return fmt.Errorf("only SIGINT supported on Windows for console ctrl events")
	}
	if pid < 0 {
		pid = -pid
	}
	// CTRL_BREAK_EVENT reaches the whole process group created with CREATE_NEW_PROCESS_GROUP
	if err := windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(pid)); err != nil {
		logger.Error("GenerateConsoleCtrlEvent failed", zap.Int("pid", pid), zap.Error(err))
		return err
	}
	return nil
}

func InterruptProcessTree(logger *zap.Logger, pid int, sig syscall.Signal) error {
	return SendSignal(logger, pid, sig)
}

func SetProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

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

func ExecuteCommand(ctx context.Context, logger *zap.Logger, userCmd string, dir string, cancel func(cmd *exec.Cmd) func() error, waitDelay time.Duration) CmdError {
	cmd := exec.CommandContext(ctx, "cmd", "/C", userCmd)
	cmd.Dir = dir
	cmd.Cancel = cancel(cmd)
	cmd.WaitDelay = waitDelay
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
