package tools

import (
	"context"
	"time"

	"github.com/pwrecorder/pwrecorder/pkg/core/app"
	"github.com/pwrecorder/pwrecorder/pkg/core/profile"
	"github.com/pwrecorder/pwrecorder/pkg/models"
)

type Supervisor interface {
	Launch(ctx context.Context, argv []string, dir string, onOutput func([]byte)) (app.Handle, error)
	RunProbe(ctx context.Context, argv []string, dir string, timeout time.Duration) (int, error)
}

// Executor runs one shell command line in dir and waits for it.
type Executor interface {
	Execute(ctx context.Context, command, dir string) error
}

type Service interface {
	Check(ctx context.Context, prof *profile.Profile) models.Availability
	Install(ctx context.Context, prof *profile.Profile) error
	ShowTrace(ctx context.Context, prof *profile.Profile, trace string) (app.Handle, error)
}
