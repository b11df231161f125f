// Package codegen runs one Playwright code generator at a time and turns what it writes into
// recorded steps.
package codegen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/pwrecorder/pwrecorder/pkg/core/app"
	"github.com/pwrecorder/pwrecorder/pkg/core/profile"
	"github.com/pwrecorder/pwrecorder/pkg/models"
	"github.com/pwrecorder/pwrecorder/pkg/service/mapper"
	"github.com/pwrecorder/pwrecorder/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const scratchPrefix = "playwright-recorder-"

type Options struct {
	PollInterval time.Duration
	// DrainGrace is the pause between the generator exiting and the final read of its output.
	DrainGrace time.Duration
	// TestsDir is relative to the project root. Blank means "tests".
	TestsDir string
	// ScratchDir holds the generator's output files. Blank means <tmp>/playwright-recorder.
	ScratchDir string
	// Watch wakes the poll loop as soon as the scratch file is written.
	Watch bool
}

// Result describes a finished recording.
type Result struct {
	ID          string
	Steps       []models.Step
	Raw         string
	Destination string
	// Written is set when the destination file was changed.
	Written bool
	// Inserted is set when the steps went into the editor given to Stop.
	Inserted bool
	// Crashed is set when the generator exited before Stop was called.
	Crashed bool
}

type Status struct {
	State       models.RecorderState
	ID          string
	PID         int
	Command     string
	URL         string
	Destination string
	StartedAt   time.Time
}

type StepsListener func(steps []models.Step, raw string)

type FinishListener func(res *Result, err error)

type Manager struct {
	logger *zap.Logger
	sup    Supervisor
	store  Store
	opts   Options

	mu        sync.Mutex
	state     models.RecorderState
	sess      *session
	lastSteps []models.Step
	lastRaw   string
	lastDest  string
	onSteps   []StepsListener
	onFinish  []FinishListener

	liveMu sync.Mutex
	live   *liveTarget
}

type session struct {
	id          string
	profile     *profile.Profile
	url         string
	proc        app.Handle
	scratch     string
	destination string
	baseline    string
	startedAt   time.Time
	cancel      context.CancelFunc

	stopReq  chan *stopRequest
	stopPoll chan struct{}
	finished chan struct{}
	result   *Result
	err      error

	// lastContent is only touched by the poll loop and, after it has exited, by finalize.
	lastContent string
}

type stopRequest struct {
	ctx    context.Context
	editor Editor
}

// liveTarget is an editor receiving steps while recording. offset and indent are captured
// once, when the editor is attached.
type liveTarget struct {
	editor   Editor
	offset   int
	indent   string
	inserted int
}

func New(logger *zap.Logger, sup Supervisor, store Store, opts Options) *Manager {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.DrainGrace < 0 {
		opts.DrainGrace = 0
	}
	if utils.IsBlank(opts.TestsDir) {
		opts.TestsDir = models.DefaultTestDir
	}
	if utils.IsBlank(opts.ScratchDir) {
		opts.ScratchDir = filepath.Join(os.TempDir(), models.ScratchDirName)
	}
	return &Manager{
		logger: logger,
		sup:    sup,
		store:  store,
		opts:   opts,
		state:  models.StateIdle,
	}
}

// Start launches the code generator for prof, opening url when it is not blank. It fails with
// models.ErrAlreadyRunning unless the manager is idle, and with a *models.LaunchError when the
// generator cannot be started. The generator outlives ctx; use Stop to end it.
func (m *Manager) Start(ctx context.Context, prof *profile.Profile, url string) error {
	m.mu.Lock()
	if m.state != models.StateIdle {
		m.mu.Unlock()
		return models.ErrAlreadyRunning
	}
	m.state = models.StateStarting
	m.lastSteps = nil
	m.lastRaw = ""
	m.mu.Unlock()

	sess, err := m.launch(ctx, prof, url)

	m.mu.Lock()
	if err != nil {
		m.state = models.StateIdle
		m.mu.Unlock()
		return err
	}
	m.sess = sess
	m.lastDest = sess.destination
	m.state = models.StateRunning
	m.mu.Unlock()

	m.logger.Info("Recording started",
		zap.String("language", prof.Language.String()),
		zap.String("destination", sess.destination),
		zap.Int("pid", sess.proc.Pid()))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sess.cancel = cancel
	poll, pollCtx := errgroup.WithContext(runCtx)
	poll.Go(func() error {
		defer utils.Recover(m.logger)
		return m.poll(pollCtx, sess)
	})
	go m.supervise(sess, poll)
	return nil
}

func (m *Manager) launch(ctx context.Context, prof *profile.Profile, url string) (*session, error) {
	scratch, err := m.store.CreateScratch(m.opts.ScratchDir, scratchPrefix, prof.ScratchExt())
	if err != nil {
		return nil, err
	}
	destination := filepath.Join(prof.Root, m.opts.TestsDir, models.RecordedBase+prof.FileExtension())
	if err := m.store.MkdirAll(filepath.Dir(destination)); err != nil {
		m.removeScratch(scratch)
		return nil, fmt.Errorf("failed to create tests directory: %w", err)
	}
	baseline, err := m.store.ReadFile(destination)
	if err != nil {
		m.removeScratch(scratch)
		return nil, fmt.Errorf("failed to read %s: %w", destination, err)
	}

	argv := prof.CodegenCommand(scratch, url)
	proc, err := m.sup.Launch(context.WithoutCancel(ctx), argv, prof.Root, m.logOutput)
	if err != nil {
		m.removeScratch(scratch)
		return nil, err
	}
	return &session{
		id:          uuid.NewString(),
		profile:     prof,
		url:         url,
		proc:        proc,
		scratch:     scratch,
		destination: destination,
		baseline:    baseline,
		startedAt:   time.Now(),
		cancel:      func() {},
		stopReq:     make(chan *stopRequest),
		stopPoll:    make(chan struct{}),
		finished:    make(chan struct{}),
	}, nil
}

func (m *Manager) logOutput(b []byte) {
	m.logger.Debug("codegen output", zap.ByteString("chunk", b))
}

// poll re-reads the scratch file every interval until the session stops.
func (m *Manager) poll(ctx context.Context, sess *session) error {
	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if m.opts.Watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			m.logger.Debug("scratch watcher unavailable, polling only", zap.Error(err))
		} else {
			defer w.Close()
			if err := w.Add(filepath.Dir(sess.scratch)); err != nil {
				m.logger.Debug("failed to watch scratch directory, polling only", zap.Error(err))
			} else {
				events, errs = w.Events, w.Errors
			}
		}
	}

	refresh := true
	for {
		if refresh {
			m.refresh(sess)
		}
		refresh = true
		select {
		case <-sess.stopPoll:
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case ev, ok := <-events:
			if !ok {
				events = nil
				refresh = false
				continue
			}
			refresh = filepath.Clean(ev.Name) == filepath.Clean(sess.scratch)
		case err, ok := <-errs:
			if !ok {
				errs = nil
			} else {
				m.logger.Debug("scratch watcher error", zap.Error(err))
			}
			refresh = false
		}
	}
}

// refresh publishes the steps of the scratch file when its content changed.
func (m *Manager) refresh(sess *session) {
	raw, err := m.store.ReadFile(sess.scratch)
	if err != nil {
		m.logger.Debug("failed to read codegen output", zap.String("path", sess.scratch), zap.Error(err))
		return
	}
	if utils.IsBlank(raw) || raw == sess.lastContent {
		return
	}
	sess.lastContent = raw
	steps := sess.profile.Extract(raw)
	m.publish(steps, raw)
	m.liveInsert(steps)
}

func (m *Manager) publish(steps []models.Step, raw string) {
	m.mu.Lock()
	m.lastSteps = steps
	m.lastRaw = raw
	listeners := append([]StepsListener(nil), m.onSteps...)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(steps, raw)
	}
}

// AttachEditor makes every new step appear in editor while recording, at its current caret.
// nil detaches.
func (m *Manager) AttachEditor(editor Editor) {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()
	if editor == nil {
		m.live = nil
		return
	}
	offset := editor.CaretOffset()
	m.live = &liveTarget{
		editor: editor,
		offset: offset,
		indent: editor.LineIndent(offset),
	}
}

// liveInsert writes the steps not yet inserted and moves the caret past them.
func (m *Manager) liveInsert(steps []models.Step) {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()
	lt := m.live
	if lt == nil || len(steps) <= lt.inserted {
		return
	}
	snippet := mapper.Snippet(steps[lt.inserted:], lt.indent)
	if utils.IsBlank(snippet) {
		return
	}
	if err := lt.editor.Insert(lt.offset, snippet+"\n"); err != nil {
		utils.LogError(m.logger, err, "failed to insert recorded steps")
		return
	}
	lt.offset += len(snippet) + 1
	lt.editor.MoveCaret(lt.offset)
	lt.inserted = len(steps)
}

// Stop ends the running generator and stores what it recorded. With a nil editor the steps are
// merged into the destination file, which is only written when it changes. Otherwise they are
// inserted at the editor's caret and the destination is left alone.
func (m *Manager) Stop(ctx context.Context, editor Editor) (*Result, error) {
	m.mu.Lock()
	if m.state != models.StateRunning {
		m.mu.Unlock()
		return nil, models.ErrNotRunning
	}
	m.state = models.StateStopping
	sess := m.sess
	m.mu.Unlock()

	select {
	case sess.stopReq <- &stopRequest{ctx: ctx, editor: editor}:
	case <-sess.finished:
		m.logger.Debug("codegen exited while stopping, editor insertion skipped")
	}
	<-sess.finished
	return sess.result, sess.err
}

// supervise owns the end of a session: it waits for Stop or for the generator to exit, and
// then finalises exactly once.
func (m *Manager) supervise(sess *session, poll *errgroup.Group) {
	defer utils.Recover(m.logger)
	defer sess.cancel()

	var req *stopRequest
	select {
	case req = <-sess.stopReq:
		sess.proc.Terminate()
	case <-sess.proc.Done():
		m.mu.Lock()
		m.state = models.StateStopping
		m.mu.Unlock()
		m.logger.Info("Code generator exited, finishing the recording")
	}
	close(sess.stopPoll)
	if err := poll.Wait(); err != nil {
		utils.LogError(m.logger, err, "codegen poll loop failed")
	}

	waitCtx := context.Background()
	var editor Editor
	if req != nil {
		waitCtx = req.ctx
		editor = req.editor
	}
	select {
	case <-sess.proc.Done():
	case <-waitCtx.Done():
	}
	time.Sleep(m.opts.DrainGrace)

	res, err := m.finalize(sess, editor)
	res.Crashed = req == nil

	m.mu.Lock()
	sess.result, sess.err = res, err
	m.sess = nil
	m.state = models.StateIdle
	listeners := append([]FinishListener(nil), m.onFinish...)
	m.mu.Unlock()
	close(sess.finished)

	m.logger.Info("Recording stopped", zap.Int("steps", len(res.Steps)))
	for _, fn := range listeners {
		fn(res, err)
	}
}

func (m *Manager) finalize(sess *session, editor Editor) (*Result, error) {
	defer m.removeScratch(sess.scratch)
	m.AttachEditor(nil)

	m.mu.Lock()
	captured := len(m.lastSteps) > 0
	m.mu.Unlock()
	if !captured {
		m.refresh(sess)
	}
	m.mu.Lock()
	res := &Result{
		ID:          sess.id,
		Steps:       m.lastSteps,
		Raw:         m.lastRaw,
		Destination: sess.destination,
	}
	m.mu.Unlock()

	if editor != nil {
		if len(res.Steps) == 0 {
			return res, nil
		}
		offset := editor.CaretOffset()
		snippet := mapper.Snippet(res.Steps, editor.LineIndent(offset))
		if utils.IsBlank(snippet) {
			return res, nil
		}
		if err := editor.Insert(offset, snippet+"\n"); err != nil {
			return res, fmt.Errorf("failed to insert recorded steps: %w", err)
		}
		res.Inserted = true
		return res, nil
	}

	merged, changed := sess.profile.Merge(sess.baseline, res.Steps)
	if !changed {
		return res, nil
	}
	if err := m.store.WriteFile(sess.destination, merged); err != nil {
		return res, err
	}
	res.Written = true
	return res, nil
}

func (m *Manager) removeScratch(path string) {
	if err := m.store.Remove(path); err != nil {
		m.logger.Debug("failed to remove scratch file", zap.String("path", path), zap.Error(err))
	}
}

func (m *Manager) OnSteps(fn StepsListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSteps = append(m.onSteps, fn)
}

// OnFinish is called after every session ends, stopped or not.
func (m *Manager) OnFinish(fn FinishListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFinish = append(m.onFinish, fn)
}

func (m *Manager) State() models.RecorderState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) IsRecording() bool {
	return m.State() != models.StateIdle
}

func (m *Manager) LastSteps() []models.Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Step(nil), m.lastSteps...)
}

func (m *Manager) LastRaw() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRaw
}

func (m *Manager) LastDestination() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastDest
}

// Snippet renders the last recorded steps at indent.
func (m *Manager) Snippet(indent string) string {
	return mapper.Snippet(m.LastSteps(), indent)
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{State: m.state, Destination: m.lastDest}
	if m.sess != nil {
		st.ID = m.sess.id
		st.PID = m.sess.proc.Pid()
		st.Command = m.sess.proc.String()
		st.URL = m.sess.url
		st.StartedAt = m.sess.startedAt
	}
	return st
}
