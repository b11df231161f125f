package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type AppError struct {
	AppErrorType AppErrorType
	Err          error
}

type AppErrorType string

func (e AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.AppErrorType, e.Err)
	}
	return string(e.AppErrorType)
}

func (e AppError) Unwrap() error {
	return e.Err
}

const (
	ErrInterrupted  AppErrorType = "exited with interrupt"
	ErrCommandError AppErrorType = "exited due to command error"
	ErrUnExpected   AppErrorType = "an unexpected error occurred"
	ErrCtxCanceled  AppErrorType = "context canceled"
	ErrAppStopped   AppErrorType = "app stopped"
)

var (
	ErrAlreadyRunning  = errors.New("a recording session is already running")
	ErrNotRunning      = errors.New("no recording session is running")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrBridgeNotReady  = errors.New("bridge process is not running")
)

// LaunchError reports that an external process could not be resolved or spawned.
type LaunchError struct {
	Cmd []string
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %q: %v", strings.Join(e.Cmd, " "), e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// TimeoutError reports that a process did not exit within the allowed time.
// The process is left running.
type TimeoutError struct {
	Cmd   string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not exit within %v", e.Cmd, e.After)
}
