package tools

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/pwrecorder/pwrecorder/pkg/core/app"
	"github.com/pwrecorder/pwrecorder/pkg/core/profile"
	"github.com/pwrecorder/pwrecorder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockSupervisor struct {
	mock.Mock
}

func (m *MockSupervisor) Launch(ctx context.Context, argv []string, dir string, onOutput func([]byte)) (app.Handle, error) {
	args := m.Called(ctx, argv, dir, onOutput)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(app.Handle), args.Error(1)
}

func (m *MockSupervisor) RunProbe(ctx context.Context, argv []string, dir string, timeout time.Duration) (int, error) {
	args := m.Called(ctx, argv, dir, timeout)
	return args.Int(0), args.Error(1)
}

type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, command, dir string) error {
	return m.Called(ctx, command, dir).Error(0)
}

var _ app.Handle = (*MockHandle)(nil)

type MockHandle struct {
	mock.Mock
}

func (m *MockHandle) Stdin() io.Writer {
	w, _ := m.Called().Get(0).(io.Writer)
	return w
}

func (m *MockHandle) Terminate() {
	m.Called()
}

func (m *MockHandle) Done() <-chan struct{} {
	ch, _ := m.Called().Get(0).(chan struct{})
	return ch
}

func (m *MockHandle) Wait(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockHandle) WaitTimeout(d time.Duration) (int, error) {
	args := m.Called(d)
	return args.Int(0), args.Error(1)
}

func (m *MockHandle) Pid() int {
	return m.Called().Int(0)
}

func (m *MockHandle) String() string {
	return m.Called().String(0)
}

func argv(parts ...string) interface{} {
	return mock.MatchedBy(func(got []string) bool {
		return assert.ObjectsAreEqual(parts, got)
	})
}

func writeFile(t *testing.T, root, name string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
}

func TestCheck_JavaScript_001(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses unix binary names")
	}
	timeout := errors.New("probe \"node --version\": did not exit within 5s")
	tests := []struct {
		name     string
		files    []string
		runtime  int
		runErr   error
		requires []int
		want     models.Availability
	}{
		{name: "node missing", runtime: -1, runErr: &models.LaunchError{Cmd: []string{"node"}, Err: errors.New("not found")}, want: models.Availability{Message: "Node.js not found in PATH."}},
		{name: "node times out", runtime: -1, runErr: timeout, want: models.Availability{Message: "Node.js not found in PATH."}},
		{name: "node fails", runtime: 1, want: models.Availability{Message: "Node.js not found in PATH."}},
		{name: "installed package", files: []string{"node_modules/@playwright/test/package.json"}, want: models.Availability{Available: true, Message: "Playwright JS detected."}},
		{name: "local binary", files: []string{"node_modules/.bin/playwright"}, want: models.Availability{Available: true, Message: "Playwright JS detected."}},
		{name: "no package.json", want: models.Availability{Message: "package.json not found. Initialize npm before installing Playwright."}},
		{name: "global require works", files: []string{"package.json"}, requires: []int{1, 0}, want: models.Availability{Available: true, Message: "Playwright JS detected."}},
		{name: "not installed", files: []string{"package.json"}, requires: []int{1, 1}, want: models.Availability{Message: "Playwright JS is not installed. Run npm install -D @playwright/test."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			root := t.TempDir()
			for _, f := range tt.files {
				writeFile(t, root, f)
			}
			prof, err := profile.New(models.JavaScript, root)
			require.NoError(t, err)
			sup := &MockSupervisor{}
			sup.On("RunProbe", mock.Anything, argv("node", "--version"), prof.Root, 5*time.Second).Return(tt.runtime, tt.runErr)
			if tt.requires != nil {
				sup.On("RunProbe", mock.Anything, argv("node", "-e", "require('@playwright/test')"), prof.Root, 5*time.Second).Return(tt.requires[0], nil)
				sup.On("RunProbe", mock.Anything, argv("node", "-e", "require('playwright')"), prof.Root, 5*time.Second).Return(tt.requires[1], nil)
			}
			tools := New(zap.NewNop(), sup, &MockExecutor{}, Options{})

			// Act
			got := tools.Check(context.Background(), prof)

			// Assert
			assert.Equal(t, tt.want, got)
			sup.AssertExpectations(t)
		})
	}
}

func TestCheck_Python_002(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses unix binary names")
	}
	tests := []struct {
		name    string
		runtime int
		imports int
		want    models.Availability
	}{
		{name: "interpreter missing", runtime: 127, want: models.Availability{Message: "Python interpreter not found for this project."}},
		{name: "available", runtime: 0, imports: 0, want: models.Availability{Available: true, Message: "Playwright Python detected."}},
		{name: "package missing", runtime: 0, imports: 1, want: models.Availability{Message: "Playwright Python is not installed in the selected environment."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prof, err := profile.New(models.Python, t.TempDir())
			require.NoError(t, err)
			sup := &MockSupervisor{}
			sup.On("RunProbe", mock.Anything, argv("python3", "--version"), prof.Root, time.Second).Return(tt.runtime, nil)
			sup.On("RunProbe", mock.Anything, argv("python3", "-c", "import playwright"), prof.Root, time.Second).Return(tt.imports, nil).Maybe()
			tools := New(zap.NewNop(), sup, &MockExecutor{}, Options{ProbeTimeout: time.Second})

			got := tools.Check(context.Background(), prof)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInstall_RunsCommandsInOrder_003(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses unix binary names")
	}
	// Arrange
	prof, err := profile.New(models.JavaScript, t.TempDir())
	require.NoError(t, err)
	sup := &MockSupervisor{}
	sup.On("RunProbe", mock.Anything, argv("node", "--version"), prof.Root, mock.Anything).Return(0, nil)
	exec := &MockExecutor{}
	var order []string
	exec.On("Execute", mock.Anything, mock.Anything, prof.Root).
		Run(func(args mock.Arguments) { order = append(order, args.String(1)) }).
		Return(nil)
	tools := New(zap.NewNop(), sup, exec, Options{})

	// Act
	err = tools.Install(context.Background(), prof)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"npm install -D @playwright/test", "npx playwright install"}, order)
}

func TestInstall_StopsAtFirstFailure_004(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses unix binary names")
	}
	prof, err := profile.New(models.Python, t.TempDir())
	require.NoError(t, err)
	sup := &MockSupervisor{}
	sup.On("RunProbe", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(0, nil)
	exec := &MockExecutor{}
	exec.On("Execute", mock.Anything, "python3 -m pip install playwright", prof.Root).Return(errors.New("exit status 1"))
	tools := New(zap.NewNop(), sup, exec, Options{})

	err = tools.Install(context.Background(), prof)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pip install playwright")
	exec.AssertNumberOfCalls(t, "Execute", 1)
}

func TestInstall_MissingRuntime_005(t *testing.T) {
	tests := []struct {
		lang models.Language
		want string
	}{
		{lang: models.JavaScript, want: "Node.js not found. Install Node.js and try again."},
		{lang: models.Python, want: "Python interpreter not found. Configure your project interpreter and try again."},
	}
	for _, tt := range tests {
		t.Run(tt.lang.String(), func(t *testing.T) {
			prof, err := profile.New(tt.lang, t.TempDir())
			require.NoError(t, err)
			sup := &MockSupervisor{}
			sup.On("RunProbe", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(-1, errors.New("not found"))
			exec := &MockExecutor{}
			tools := New(zap.NewNop(), sup, exec, Options{})

			err = tools.Install(context.Background(), prof)

			require.EqualError(t, err, tt.want)
			exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestShowTrace_006(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses unix binary names")
	}
	root := t.TempDir()
	prof, err := profile.New(models.Python, root)
	require.NoError(t, err)
	trace := filepath.Join(root, "trace.zip")
	sup := &MockSupervisor{}
	h := &MockHandle{}
	h.On("Pid").Return(99)
	sup.On("Launch", mock.Anything, argv("python3", "-m", "playwright", "show-trace", trace), prof.Root, mock.Anything).Return(h, nil)
	tools := New(zap.NewNop(), sup, &MockExecutor{}, Options{})

	_, err = tools.ShowTrace(context.Background(), prof, trace)
	assert.True(t, errors.Is(err, ErrTraceNotFound))
	sup.AssertNotCalled(t, "Launch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	require.NoError(t, os.WriteFile(trace, []byte("PK"), 0o644))
	got, err := tools.ShowTrace(context.Background(), prof, trace)
	require.NoError(t, err)
	assert.Same(t, h, got)
}
