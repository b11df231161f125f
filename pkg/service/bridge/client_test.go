package bridge

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pwrecorder/pwrecorder/pkg/core/app"
	"github.com/pwrecorder/pwrecorder/pkg/core/profile"
	"github.com/pwrecorder/pwrecorder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type MockSupervisor struct {
	mock.Mock
}

func (m *MockSupervisor) Launch(ctx context.Context, argv []string, dir string, onOutput func([]byte)) (app.Handle, error) {
	args := m.Called(ctx, argv, dir, onOutput)
	if fn, ok := args.Get(0).(func(context.Context, []string, string, func([]byte)) app.Handle); ok {
		return fn(ctx, argv, dir, onOutput), args.Error(1)
	}
	h, _ := args.Get(0).(app.Handle)
	return h, args.Error(1)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fakeProcess struct {
	stdin *lockedBuffer
	done  chan struct{}
	once  sync.Once
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{stdin: &lockedBuffer{}, done: make(chan struct{})}
}

func (p *fakeProcess) Stdin() io.Writer { return p.stdin }
func (p *fakeProcess) Terminate()       { p.exit() }
func (p *fakeProcess) exit()            { p.once.Do(func() { close(p.done) }) }

func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) Wait(ctx context.Context) (int, error) {
	select {
	case <-p.done:
		return 0, nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

func (p *fakeProcess) WaitTimeout(d time.Duration) (int, error) {
	select {
	case <-p.done:
		return 0, nil
	case <-time.After(d):
		return -1, &models.TimeoutError{Cmd: "bridge", After: d}
	}
}

func (p *fakeProcess) Pid() int       { return 7 }
func (p *fakeProcess) String() string { return "node bridge.js" }

type fixture struct {
	client    *Client
	sup       *MockSupervisor
	scriptDir string

	mu       sync.Mutex
	procs    []*fakeProcess
	onOutput func([]byte)
	argv     []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	prof, err := profile.New(models.JavaScript, t.TempDir())
	require.NoError(t, err)
	f := &fixture{sup: &MockSupervisor{}, scriptDir: t.TempDir()}
	f.sup.On("Launch", mock.Anything, mock.Anything, prof.Root, mock.Anything).
		Return(func(_ context.Context, argv []string, _ string, onOutput func([]byte)) app.Handle {
			f.mu.Lock()
			defer f.mu.Unlock()
			p := newFakeProcess()
			f.procs = append(f.procs, p)
			f.onOutput = onOutput
			f.argv = argv
			return p
		}, nil)
	f.client = New(zap.NewNop(), f.sup, prof, Options{ScriptDir: f.scriptDir, StopGrace: 10 * time.Millisecond})
	return f
}

func (f *fixture) proc(i int) *fakeProcess {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.procs[i]
}

func (f *fixture) emit(s string) {
	f.mu.Lock()
	fn := f.onOutput
	f.mu.Unlock()
	fn([]byte(s))
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestEnsureStarted_IsIdempotent_001(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	require.NoError(t, f.client.EnsureStarted(context.Background()))
	require.NoError(t, f.client.EnsureStarted(context.Background()))

	// Assert
	f.sup.AssertNumberOfCalls(t, "Launch", 1)
	assert.True(t, f.client.IsRunning())
	script := filepath.Join(f.scriptDir, "bridge.js")
	assert.Equal(t, []string{"node", script}, f.argv)
	_, err := os.Stat(script)
	require.NoError(t, err)
	require.NoError(t, f.client.Stop())
}

func TestBeginPick_SendsStartThenPick_002(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "with url", url: "https://example.com", want: "START " + b64("https://example.com") + "\nPICK " + b64("https://example.com") + "\n"},
		{name: "blank url", url: "", want: "PICK \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			require.NoError(t, f.client.BeginPick(context.Background(), tt.url))

			assert.Equal(t, tt.want, f.proc(0).stdin.String())
			require.NoError(t, f.client.Stop())
		})
	}
}

func TestStartPreview_RejectsBlankArguments_003(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		locator string
	}{
		{name: "blank url", url: " ", locator: "text=\"Go\""},
		{name: "blank locator", url: "https://example.com", locator: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			err := f.client.StartPreview(context.Background(), tt.url, tt.locator)

			assert.True(t, errors.Is(err, models.ErrInvalidArgument))
			f.sup.AssertNotCalled(t, "Launch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			assert.False(t, f.client.IsRunning())
		})
	}
}

func TestStartPreview_SendsHighlight_004(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.client.StartPreview(context.Background(), "https://example.com", "data-testid=go"))

	assert.Equal(t, "HIGHLIGHT "+b64("https://example.com")+" "+b64("data-testid=go")+"\n", f.proc(0).stdin.String())
	require.NoError(t, f.client.Stop())
}

func TestEvents_AreDispatchedAcrossChunks_005(t *testing.T) {
	// Arrange
	f := newFixture(t)
	var locators, errs []string
	f.client.OnLocator(func(l string) { locators = append(locators, l) })
	f.client.OnError(func(msg string) { errs = append(errs, msg) })
	require.NoError(t, f.client.EnsureStarted(context.Background()))
	line := "PWRECORDER:LOCATOR:" + b64(`role=button[name="Sign in"]`) + "\n"

	// Act
	f.emit("browser launched\n" + line[:10])
	f.emit(line[10:] + "PWRECORDER:LOCATOR:\n")
	f.emit("PWRECORDER:ERROR:" + b64("Timeout 30000ms exceeded") + "\nPWRECORDER:ERROR:\n")
	f.emit("PWRECORDER:LOCATOR:%%%\nPWRECORDER:ERROR:" + b64("partial"))

	// Assert
	assert.Equal(t, []string{`role=button[name="Sign in"]`}, locators)
	assert.Equal(t, []string{"Timeout 30000ms exceeded", "Unknown error"}, errs)
	assert.Equal(t, `role=button[name="Sign in"]`, f.client.LastLocator())
	require.NoError(t, f.client.Stop())
}

func TestStop_SendsStopAndClearsSession_006(t *testing.T) {
	// Arrange
	f := newFixture(t)
	require.NoError(t, f.client.EnsureStarted(context.Background()))
	p := f.proc(0)

	// Act
	require.NoError(t, f.client.Stop())

	// Assert
	assert.Equal(t, "STOP\n", p.stdin.String())
	assert.False(t, f.client.IsRunning())
	select {
	case <-p.Done():
	default:
		t.Fatal("bridge process was not terminated")
	}
	assert.NoError(t, f.client.Stop())
	assert.True(t, errors.Is(f.client.Send(CmdReset), models.ErrBridgeNotReady))
	assert.NoError(t, f.client.Reset(context.Background()))
}

func TestUnexpectedExit_RelaunchesOnNextRequest_007(t *testing.T) {
	// Arrange
	f := newFixture(t)
	require.NoError(t, f.client.StartSession(context.Background(), ""))

	// Act
	f.proc(0).exit()
	require.Eventually(t, func() bool { return !f.client.IsRunning() }, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, f.client.StartSession(context.Background(), "https://example.com"))

	// Assert
	f.sup.AssertNumberOfCalls(t, "Launch", 2)
	assert.Equal(t, "", f.proc(0).stdin.String())
	assert.Equal(t, "START "+b64("https://example.com")+"\n", f.proc(1).stdin.String())
	require.NoError(t, f.client.Stop())
}

func TestEnsureStarted_LaunchFailure_008(t *testing.T) {
	prof, err := profile.New(models.Python, t.TempDir())
	require.NoError(t, err)
	sup := &MockSupervisor{}
	sup.On("Launch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &models.LaunchError{Cmd: []string{"python3"}, Err: errors.New("not found")})
	c := New(zap.NewNop(), sup, prof, Options{ScriptDir: t.TempDir()})

	err = c.BeginPick(context.Background(), "https://example.com")

	var le *models.LaunchError
	assert.True(t, errors.As(err, &le))
	assert.False(t, c.IsRunning())
}
