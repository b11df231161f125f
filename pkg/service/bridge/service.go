package bridge

import (
	"context"

	"github.com/pwrecorder/pwrecorder/pkg/core/app"
)

type Supervisor interface {
	Launch(ctx context.Context, argv []string, dir string, onOutput func([]byte)) (app.Handle, error)
}

type Service interface {
	StartSession(ctx context.Context, url string) error
	BeginPick(ctx context.Context, url string) error
	StartPreview(ctx context.Context, url, locator string) error
	Reset(ctx context.Context) error
	Stop() error
	OnLocator(fn LocatorListener)
	OnError(fn ErrorListener)
	LastLocator() string
	IsRunning() bool
}
