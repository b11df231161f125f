package codegen

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pwrecorder/pwrecorder/pkg/core/app"
	"github.com/pwrecorder/pwrecorder/pkg/core/profile"
	"github.com/pwrecorder/pwrecorder/pkg/models"
	"github.com/pwrecorder/pwrecorder/pkg/platform/fs"
	"github.com/pwrecorder/pwrecorder/pkg/service/mapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// MockSupervisor is a testify mock of Supervisor.
type MockSupervisor struct {
	mock.Mock
}

func (m *MockSupervisor) Launch(ctx context.Context, argv []string, dir string, onOutput func([]byte)) (app.Handle, error) {
	args := m.Called(ctx, argv, dir, onOutput)
	h, _ := args.Get(0).(app.Handle)
	return h, args.Error(1)
}

// MockEditor is a testify mock of Editor.
type MockEditor struct {
	mock.Mock
}

func (m *MockEditor) CaretOffset() int {
	return m.Called().Int(0)
}

func (m *MockEditor) LineIndent(offset int) string {
	return m.Called(offset).String(0)
}

func (m *MockEditor) Insert(offset int, text string) error {
	return m.Called(offset, text).Error(0)
}

func (m *MockEditor) MoveCaret(offset int) {
	m.Called(offset)
}

type fakeProcess struct {
	done        chan struct{}
	once        sync.Once
	terminated  atomic.Bool
	onTerminate func()
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{done: make(chan struct{})}
}

func (p *fakeProcess) Stdin() io.Writer { return io.Discard }

func (p *fakeProcess) Terminate() {
	if p.terminated.Swap(true) {
		return
	}
	if p.onTerminate != nil {
		p.onTerminate()
	}
	p.exit()
}

func (p *fakeProcess) exit() {
	p.once.Do(func() { close(p.done) })
}

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
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return p.Wait(ctx)
}

func (p *fakeProcess) Pid() int { return 4242 }

func (p *fakeProcess) String() string { return "fake codegen" }

type fixture struct {
	manager *Manager
	sup     *MockSupervisor
	proc    *fakeProcess
	prof    *profile.Profile
	root    string
	scratch string
	argv    []string
	// seed is written to the scratch file as the generator starts.
	seed    string
}

func newFixture(t *testing.T, lang models.Language, opts Options) *fixture {
	t.Helper()
	root := t.TempDir()
	prof, err := profile.New(lang, root)
	require.NoError(t, err)
	if opts.PollInterval == 0 {
		opts.PollInterval = 10 * time.Millisecond
	}
	if opts.DrainGrace == 0 {
		opts.DrainGrace = time.Millisecond
	}
	opts.ScratchDir = t.TempDir()

	f := &fixture{
		sup:  &MockSupervisor{},
		proc: newFakeProcess(),
		prof: prof,
		root: prof.Root,
	}
	f.sup.On("Launch", mock.Anything, mock.Anything, prof.Root, mock.Anything).
		Run(func(args mock.Arguments) {
			f.argv = args.Get(1).([]string)
			for i, a := range f.argv {
				if a == "--output" {
					f.scratch = f.argv[i+1]
				}
			}
			if f.seed != "" {
				require.NoError(t, os.WriteFile(f.scratch, []byte(f.seed), 0o644))
			}
		}).
		Return(f.proc, nil)
	f.manager = New(zap.NewNop(), f.sup, fs.New(zap.NewNop()), opts)
	return f
}

func (f *fixture) writeScratch(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(f.scratch, []byte(content), 0o644))
}

func (f *fixture) destination() string {
	return filepath.Join(f.root, "tests", "recorded"+f.prof.FileExtension())
}

func TestStartStop_MergesIntoDestination_001(t *testing.T) {
	// Arrange
	f := newFixture(t, models.JavaScript, Options{})
	var published atomic.Int32
	f.manager.OnSteps(func(steps []models.Step, raw string) {
		published.Add(1)
	})

	// Act
	require.NoError(t, f.manager.Start(context.Background(), f.prof, "https://example.com"))
	assert.Equal(t, models.StateRunning, f.manager.State())
	f.writeScratch(t, "import { test } from '@playwright/test';\n\ntest('test', async ({ page }) => {\n  await page.goto('https://example.com/');\n});\n")
	require.Eventually(t, func() bool { return len(f.manager.LastSteps()) == 1 }, 5*time.Second, 5*time.Millisecond)
	res, err := f.manager.Stop(context.Background(), nil)

	// Assert
	require.NoError(t, err)
	assert.True(t, f.proc.terminated.Load())
	assert.Equal(t, models.StateIdle, f.manager.State())
	assert.True(t, res.Written)
	assert.False(t, res.Inserted)
	assert.False(t, res.Crashed)
	assert.Equal(t, f.destination(), res.Destination)
	assert.Equal(t, f.destination(), f.manager.LastDestination())
	assert.GreaterOrEqual(t, published.Load(), int32(1))

	b, err := os.ReadFile(f.destination())
	require.NoError(t, err)
	assert.Equal(t, mapper.DefaultFile(models.JavaScript, models.NewSteps("await page.goto('https://example.com/');")), string(b))

	_, err = os.Stat(f.scratch)
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, f.argv, "--target=javascript")
	assert.Equal(t, "https://example.com", f.argv[len(f.argv)-1])
	f.sup.AssertExpectations(t)
}

func TestStart_WhileRunning_ReturnsErrAlreadyRunning_002(t *testing.T) {
	f := newFixture(t, models.Python, Options{})
	require.NoError(t, f.manager.Start(context.Background(), f.prof, ""))

	err := f.manager.Start(context.Background(), f.prof, "")

	assert.True(t, errors.Is(err, models.ErrAlreadyRunning))
	_, err = f.manager.Stop(context.Background(), nil)
	require.NoError(t, err)
	f.sup.AssertNumberOfCalls(t, "Launch", 1)
}

func TestStop_WhenIdle_ReturnsErrNotRunning_003(t *testing.T) {
	f := newFixture(t, models.JavaScript, Options{})

	res, err := f.manager.Stop(context.Background(), nil)

	assert.Nil(t, res)
	assert.True(t, errors.Is(err, models.ErrNotRunning))
}

func TestStart_LaunchFailure_ReturnsToIdle_004(t *testing.T) {
	// Arrange
	root := t.TempDir()
	scratchDir := t.TempDir()
	prof, err := profile.New(models.JavaScript, root)
	require.NoError(t, err)
	sup := &MockSupervisor{}
	launchErr := &models.LaunchError{Cmd: []string{"npx"}, Err: errors.New("executable file not found in $PATH")}
	sup.On("Launch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, launchErr)
	m := New(zap.NewNop(), sup, fs.New(zap.NewNop()), Options{ScratchDir: scratchDir})

	// Act
	err = m.Start(context.Background(), prof, "")

	// Assert
	var le *models.LaunchError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, models.StateIdle, m.State())
	entries, err := os.ReadDir(scratchDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessExit_FinalizesOnItsOwn_005(t *testing.T) {
	// Arrange
	f := newFixture(t, models.Python, Options{})
	finished := make(chan *Result, 1)
	f.manager.OnFinish(func(res *Result, err error) {
		assert.NoError(t, err)
		finished <- res
	})
	require.NoError(t, f.manager.Start(context.Background(), f.prof, ""))
	f.writeScratch(t, "def test_example(page):\n    page.goto(\"https://example.com/\")\n")
	require.Eventually(t, func() bool { return len(f.manager.LastSteps()) == 1 }, 5*time.Second, 5*time.Millisecond)

	// Act
	f.proc.exit()

	// Assert
	var res *Result
	select {
	case res = <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("session was not finalized")
	}
	assert.True(t, res.Crashed)
	assert.True(t, res.Written)
	assert.Equal(t, models.StateIdle, f.manager.State())
	b, err := os.ReadFile(f.destination())
	require.NoError(t, err)
	assert.Contains(t, string(b), "    page.goto(\"https://example.com/\")")

	_, err = f.manager.Stop(context.Background(), nil)
	assert.True(t, errors.Is(err, models.ErrNotRunning))
}

func TestStop_ReadsOutputWrittenOnExit_006(t *testing.T) {
	// Arrange
	f := newFixture(t, models.JavaScript, Options{PollInterval: time.Hour})
	var published [][]models.Step
	var mu sync.Mutex
	f.manager.OnSteps(func(steps []models.Step, _ string) {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, steps)
	})
	require.NoError(t, f.manager.Start(context.Background(), f.prof, ""))
	f.proc.onTerminate = func() {
		_ = os.WriteFile(f.scratch, []byte("await page.goto('a');\nawait page.click('b');\n"), 0o644)
	}

	// Act
	res, err := f.manager.Stop(context.Background(), nil)

	// Assert
	require.NoError(t, err)
	require.Len(t, res.Steps, 2)
	assert.Equal(t, "await page.click('b');", res.Steps[1].Text)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, published, 1)
	assert.Len(t, published[0], 2)
}

func TestStop_WithEditor_InsertsAtCaretInsteadOfWriting_007(t *testing.T) {
	// Arrange
	f := newFixture(t, models.JavaScript, Options{})
	editor := &MockEditor{}
	editor.On("CaretOffset").Return(17)
	editor.On("LineIndent", 17).Return("    ")
	editor.On("Insert", 17, "    await page.goto('a');\n    await page.click('b');\n").Return(nil)
	require.NoError(t, f.manager.Start(context.Background(), f.prof, ""))
	f.writeScratch(t, "await page.goto('a');\nawait page.click('b');\n")
	require.Eventually(t, func() bool { return len(f.manager.LastSteps()) == 2 }, 5*time.Second, 5*time.Millisecond)

	// Act
	res, err := f.manager.Stop(context.Background(), editor)

	// Assert
	require.NoError(t, err)
	assert.True(t, res.Inserted)
	assert.False(t, res.Written)
	_, err = os.Stat(f.destination())
	assert.True(t, os.IsNotExist(err))
	editor.AssertExpectations(t)
	editor.AssertNotCalled(t, "MoveCaret", mock.Anything)
}

func TestLiveInsert_InsertsOnlyNewSteps_008(t *testing.T) {
	// Arrange
	f := newFixture(t, models.JavaScript, Options{})
	target := filepath.Join(t.TempDir(), "spec.js")
	require.NoError(t, os.WriteFile(target, []byte("test('x', async ({ page }) => {\n  // cursor\n});\n"), 0o644))
	editor, err := fs.OpenEditor(target, 2)
	require.NoError(t, err)
	f.manager.AttachEditor(editor)
	require.NoError(t, f.manager.Start(context.Background(), f.prof, ""))

	// Act
	f.writeScratch(t, "await page.goto('a');\n")
	require.Eventually(t, func() bool { return len(f.manager.LastSteps()) == 1 }, 5*time.Second, 5*time.Millisecond)
	f.writeScratch(t, "await page.goto('a');\nawait page.click('b');\n")
	require.Eventually(t, func() bool { return len(f.manager.LastSteps()) == 2 }, 5*time.Second, 5*time.Millisecond)
	_, err = f.manager.Stop(context.Background(), nil)
	require.NoError(t, err)

	// Assert
	want := "test('x', async ({ page }) => {\n  await page.goto('a');\n  await page.click('b');\n  // cursor\n});\n"
	assert.Equal(t, want, editor.Content())
	assert.Equal(t, len("test('x', async ({ page }) => {\n  await page.goto('a');\n  await page.click('b');\n"), editor.CaretOffset())
}

func TestStop_UnchangedDestination_IsNotWritten_009(t *testing.T) {
	// Arrange
	f := newFixture(t, models.Python, Options{})
	existing := "from playwright.sync_api import expect\n\ndef test_recorded(page):\n    page.goto('a')\n"
	require.NoError(t, os.MkdirAll(filepath.Dir(f.destination()), 0o755))
	require.NoError(t, os.WriteFile(f.destination(), []byte(existing), 0o644))
	require.NoError(t, f.manager.Start(context.Background(), f.prof, ""))
	f.writeScratch(t, "def test_x(page):\n    page.goto('a')\n")
	require.Eventually(t, func() bool { return len(f.manager.LastSteps()) == 1 }, 5*time.Second, 5*time.Millisecond)

	// Act
	res, err := f.manager.Stop(context.Background(), nil)

	// Assert
	require.NoError(t, err)
	assert.False(t, res.Written)
	b, err := os.ReadFile(f.destination())
	require.NoError(t, err)
	assert.Equal(t, existing, string(b))
}

func TestStatus_ReportsRunningProcess_010(t *testing.T) {
	f := newFixture(t, models.JavaScript, Options{})
	assert.Equal(t, models.StateIdle, f.manager.Status().State)
	require.NoError(t, f.manager.Start(context.Background(), f.prof, "https://example.com"))

	st := f.manager.Status()

	assert.Equal(t, models.StateRunning, st.State)
	assert.Equal(t, 4242, st.PID)
	assert.Equal(t, "fake codegen", st.Command)
	assert.Equal(t, "https://example.com", st.URL)
	assert.NotEmpty(t, st.ID)
	assert.True(t, f.manager.IsRecording())
	_, err := f.manager.Stop(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, f.manager.IsRecording())
	assert.Zero(t, f.manager.Status().PID)
}

func TestWatch_WakesPollLoopOnWrite_011(t *testing.T) {
	f := newFixture(t, models.JavaScript, Options{PollInterval: time.Hour, Watch: true})
	require.NoError(t, f.manager.Start(context.Background(), f.prof, ""))

	require.Eventually(t, func() bool {
		f.writeScratch(t, "await page.goto('a');\n")
		return len(f.manager.LastSteps()) == 1
	}, 5*time.Second, 20*time.Millisecond)

	_, err := f.manager.Stop(context.Background(), nil)
	require.NoError(t, err)
}

func TestSnippet_UsesLastSteps_012(t *testing.T) {
	f := newFixture(t, models.JavaScript, Options{})
	assert.Equal(t, "", f.manager.Snippet("  "))
	require.NoError(t, f.manager.Start(context.Background(), f.prof, ""))
	f.writeScratch(t, "  await page.goto('a');\n")
	require.Eventually(t, func() bool { return len(f.manager.LastSteps()) == 1 }, 5*time.Second, 5*time.Millisecond)
	_, err := f.manager.Stop(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "\tawait page.goto('a');", f.manager.Snippet("\t"))
	assert.Contains(t, f.manager.LastRaw(), "page.goto")
}

func TestStop_KeepsCapturedStepsWithoutFinalRead_013(t *testing.T) {
	// Arrange
	f := newFixture(t, models.JavaScript, Options{PollInterval: time.Hour})
	f.seed = "await page.goto('a');\n"
	require.NoError(t, f.manager.Start(context.Background(), f.prof, ""))
	require.Eventually(t, func() bool { return len(f.manager.LastSteps()) == 1 }, 5*time.Second, 5*time.Millisecond)
	f.proc.onTerminate = func() {
		_ = os.WriteFile(f.scratch, []byte("await page.goto('a');\nawait page.click('late');\n"), 0o644)
	}

	// Act
	res, err := f.manager.Stop(context.Background(), nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"await page.goto('a');"}, models.StepTexts(res.Steps))
}
