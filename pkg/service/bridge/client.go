// Package bridge drives a long-lived browser helper process over a line protocol on its stdin and
// stdout. The helper picks elements and highlights locators in a real page.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pwrecorder/pwrecorder/pkg/core/app"
	"github.com/pwrecorder/pwrecorder/pkg/core/profile"
	"github.com/pwrecorder/pwrecorder/pkg/models"
	"github.com/pwrecorder/pwrecorder/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	// ScriptDir receives the rendered bridge program. Blank means <tmp>/playwright-recorder.
	ScriptDir string
	// StopGrace is how long Stop lets the helper close the browser before killing it.
	StopGrace time.Duration
}

type LocatorListener func(locator string)

type ErrorListener func(msg string)

type Client struct {
	logger *zap.Logger
	sup    Supervisor
	prof   *profile.Profile
	opts   Options

	mu          sync.Mutex
	sess        *session
	lastLocator string
	onLocator   []LocatorListener
	onError     []ErrorListener
}

type session struct {
	proc  app.Handle
	watch *errgroup.Group

	writeMu sync.Mutex

	bufMu sync.Mutex
	buf   lineBuffer
}

func New(logger *zap.Logger, sup Supervisor, prof *profile.Profile, opts Options) *Client {
	if opts.StopGrace <= 0 {
		opts.StopGrace = 2 * time.Second
	}
	return &Client{
		logger: logger,
		sup:    sup,
		prof:   prof,
		opts:   opts,
	}
}

// EnsureStarted launches the helper unless one is already running.
func (c *Client) EnsureStarted(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != nil {
		return nil
	}

	script, err := c.prof.WriteBridgeScript(c.opts.ScriptDir)
	if err != nil {
		return fmt.Errorf("failed to write bridge script: %w", err)
	}
	sess := &session{watch: &errgroup.Group{}}
	argv := c.prof.BridgeCommand(script)
	proc, err := c.sup.Launch(context.WithoutCancel(ctx), argv, c.prof.Root, func(b []byte) {
		c.handleOutput(sess, b)
	})
	if err != nil {
		return err
	}
	sess.proc = proc
	c.sess = sess
	c.logger.Debug("bridge started", zap.Strings("cmd", argv), zap.Int("pid", proc.Pid()))

	sess.watch.Go(func() error {
		defer utils.Recover(c.logger)
		<-proc.Done()
		code, _ := proc.Wait(context.Background())
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.sess == sess {
			c.sess = nil
			c.logger.Warn("Bridge process exited", zap.Int("exitCode", code))
		}
		return nil
	})
	return nil
}

// Send writes one command to the helper without waiting for any reply.
func (c *Client) Send(cmd Command, args ...string) error {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return models.ErrBridgeNotReady
	}
	return c.write(sess, cmd, args...)
}

func (c *Client) write(sess *session, cmd Command, args ...string) error {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	if _, err := sess.proc.Stdin().Write(EncodeCommand(cmd, args...)); err != nil {
		return fmt.Errorf("failed to send %s to bridge: %w", cmd, err)
	}
	return nil
}

// StartSession makes sure the helper runs and opens url when it is not blank.
func (c *Client) StartSession(ctx context.Context, url string) error {
	if err := c.EnsureStarted(ctx); err != nil {
		return err
	}
	if utils.IsBlank(url) {
		return nil
	}
	return c.Send(CmdStart, url)
}

// BeginPick arms the element picker. The picked locator arrives through OnLocator.
func (c *Client) BeginPick(ctx context.Context, url string) error {
	if err := c.StartSession(ctx, url); err != nil {
		return err
	}
	return c.Send(CmdPick, url)
}

// StartPreview outlines the first element matching locator on url.
func (c *Client) StartPreview(ctx context.Context, url, locator string) error {
	if utils.IsBlank(url) || utils.IsBlank(locator) {
		return fmt.Errorf("%w: preview needs both a url and a locator", models.ErrInvalidArgument)
	}
	if err := c.EnsureStarted(ctx); err != nil {
		return err
	}
	return c.Send(CmdHighlight, url, locator)
}

// Reset replaces the helper's browser context. It does nothing when the helper is not running.
func (c *Client) Reset(_ context.Context) error {
	err := c.Send(CmdReset)
	if errors.Is(err, models.ErrBridgeNotReady) {
		return nil
	}
	return err
}

// Stop asks the helper to close the browser, then makes sure the process is gone.
func (c *Client) Stop() error {
	c.mu.Lock()
	sess := c.sess
	c.sess = nil
	c.mu.Unlock()
	if sess == nil {
		return nil
	}

	if err := c.write(sess, CmdStop); err != nil {
		c.logger.Debug("bridge did not take the stop command", zap.Error(err))
	}
	if _, err := sess.proc.WaitTimeout(c.opts.StopGrace); err != nil {
		c.logger.Debug("bridge still running, terminating", zap.Error(err))
	}
	sess.proc.Terminate()
	return sess.watch.Wait()
}

func (c *Client) handleOutput(sess *session, chunk []byte) {
	sess.bufMu.Lock()
	lines := sess.buf.Feed(chunk)
	sess.bufMu.Unlock()

	for _, line := range lines {
		ev, ok := DecodeEvent(line)
		if !ok {
			c.logger.Debug("bridge output", zap.String("line", line))
			continue
		}
		c.dispatch(ev)
	}
}

func (c *Client) dispatch(ev models.ProtocolEvent) {
	switch ev.Kind {
	case models.EventLocator:
		c.mu.Lock()
		c.lastLocator = ev.Value
		listeners := append([]LocatorListener(nil), c.onLocator...)
		c.mu.Unlock()
		c.logger.Debug("locator picked", zap.String("locator", ev.Value))
		for _, fn := range listeners {
			fn(ev.Value)
		}
	case models.EventError:
		c.mu.Lock()
		listeners := append([]ErrorListener(nil), c.onError...)
		c.mu.Unlock()
		c.logger.Error("Bridge reported an error", zap.String("error", ev.Value))
		for _, fn := range listeners {
			fn(ev.Value)
		}
	}
}

func (c *Client) OnLocator(fn LocatorListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLocator = append(c.onLocator, fn)
}

func (c *Client) OnError(fn ErrorListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = append(c.onError, fn)
}

// LastLocator is the most recent locator picked in the browser, or "".
func (c *Client) LastLocator() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastLocator
}

func (c *Client) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil
}
