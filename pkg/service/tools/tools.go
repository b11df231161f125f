// Package tools checks, installs and opens the Playwright tooling of a project.
package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pwrecorder/pwrecorder/pkg/core/app"
	"github.com/pwrecorder/pwrecorder/pkg/core/profile"
	"github.com/pwrecorder/pwrecorder/pkg/models"
	"github.com/pwrecorder/pwrecorder/pkg/platform/detect"
	"github.com/pwrecorder/pwrecorder/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	msgNodeMissing      = "Node.js not found in PATH."
	msgJSDetected       = "Playwright JS detected."
	msgNoPackageJSON    = "package.json not found. Initialize npm before installing Playwright."
	msgJSMissing        = "Playwright JS is not installed. Run npm install -D @playwright/test."
	msgPythonMissing    = "Python interpreter not found for this project."
	msgPythonDetected   = "Playwright Python detected."
	msgPythonPkgMissing = "Playwright Python is not installed in the selected environment."

	errNodeRuntime   = "Node.js not found. Install Node.js and try again."
	errPythonRuntime = "Python interpreter not found. Configure your project interpreter and try again."
)

var ErrTraceNotFound = errors.New("trace file not found")

type Options struct {
	// ProbeTimeout bounds every availability probe. Zero means 5s.
	ProbeTimeout time.Duration
}

type Tools struct {
	logger *zap.Logger
	sup    Supervisor
	exec   Executor
	opts   Options
}

func New(logger *zap.Logger, sup Supervisor, exec Executor, opts Options) *Tools {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	return &Tools{logger: logger, sup: sup, exec: exec, opts: opts}
}

// probe reports whether argv exits with status 0 in time. Launch failures and timeouts count as
// failures.
func (t *Tools) probe(ctx context.Context, prof *profile.Profile, argv []string) bool {
	code, err := t.sup.RunProbe(ctx, argv, prof.Root, t.opts.ProbeTimeout)
	if err != nil {
		t.logger.Debug("probe failed", zap.Strings("cmd", argv), zap.Error(err))
		return false
	}
	return code == 0
}

// anyProbe runs the probes concurrently and reports whether at least one succeeded.
func (t *Tools) anyProbe(ctx context.Context, prof *profile.Profile, probes [][]string) bool {
	ok := make([]bool, len(probes))
	g, gctx := errgroup.WithContext(ctx)
	for i, argv := range probes {
		g.Go(func() error {
			ok[i] = t.probe(gctx, prof, argv)
			return nil
		})
	}
	_ = g.Wait()
	for _, v := range ok {
		if v {
			return true
		}
	}
	return false
}

// Check tells whether Playwright is usable for prof, with a message for the user either way.
func (t *Tools) Check(ctx context.Context, prof *profile.Profile) models.Availability {
	if prof.Language == models.Python {
		if !t.probe(ctx, prof, prof.RuntimeCommand()) {
			return models.Availability{Message: msgPythonMissing}
		}
		if t.anyProbe(ctx, prof, prof.ImportProbes()) {
			return models.Availability{Available: true, Message: msgPythonDetected}
		}
		return models.Availability{Message: msgPythonPkgMissing}
	}

	if !t.probe(ctx, prof, prof.RuntimeCommand()) {
		return models.Availability{Message: msgNodeMissing}
	}
	if detect.HasInstalledJSPackage(prof.Root) || prof.Node().PlaywrightBin() != "" {
		return models.Availability{Available: true, Message: msgJSDetected}
	}
	if _, err := os.Stat(filepath.Join(prof.Root, "package.json")); err != nil {
		return models.Availability{Message: msgNoPackageJSON}
	}
	if t.anyProbe(ctx, prof, prof.ImportProbes()) {
		return models.Availability{Available: true, Message: msgJSDetected}
	}
	return models.Availability{Message: msgJSMissing}
}

// Install installs the Playwright package and its browsers, stopping at the first failing
// command.
func (t *Tools) Install(ctx context.Context, prof *profile.Profile) error {
	if !t.probe(ctx, prof, prof.RuntimeCommand()) {
		msg := errNodeRuntime
		if prof.Language == models.Python {
			msg = errPythonRuntime
		}
		t.logger.Error(msg)
		return errors.New(msg)
	}
	for _, line := range prof.InstallCommands() {
		if err := t.exec.Execute(ctx, line, prof.Root); err != nil {
			return fmt.Errorf("%q failed: %w", line, err)
		}
	}
	t.logger.Info("Playwright installed", zap.String("language", prof.Language.String()))
	return nil
}

// ShowTrace opens trace in the Playwright trace viewer and returns without waiting for it.
func (t *Tools) ShowTrace(ctx context.Context, prof *profile.Profile, trace string) (app.Handle, error) {
	abs, err := filepath.Abs(trace)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(abs); err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrTraceNotFound, abs)
	}
	h, err := t.sup.Launch(ctx, prof.ShowTraceCommand(abs), prof.Root, func(b []byte) {
		t.logger.Debug("trace viewer output", zap.ByteString("chunk", b))
	})
	if err != nil {
		return nil, err
	}
	t.logger.Info("Trace viewer started", zap.String("trace", abs), zap.Int("pid", h.Pid()))
	return h, nil
}

// ShellExecutor runs commands through the platform shell with the terminal attached.
type ShellExecutor struct {
	Logger    *zap.Logger
	WaitDelay time.Duration
}

func (e ShellExecutor) Execute(ctx context.Context, command, dir string) error {
	cmdErr := utils.ExecuteCommand(ctx, e.Logger, command, dir, utils.InterruptCancel(e.Logger), e.WaitDelay)
	if cmdErr.Err != nil {
		return cmdErr
	}
	return nil
}
