package cli

import (
	"context"

	"github.com/pwrecorder/pwrecorder/config"
	"github.com/pwrecorder/pwrecorder/pkg/core/profile"
	bridgeSvc "github.com/pwrecorder/pwrecorder/pkg/service/bridge"
	codegenSvc "github.com/pwrecorder/pwrecorder/pkg/service/codegen"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/mock"
)

type MockServiceFactory struct {
	mock.Mock
}

func (m *MockServiceFactory) GetService(ctx context.Context, cmd string) (interface{}, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0), args.Error(1)
}

func (m *MockServiceFactory) GetProfile(ctx context.Context) (*profile.Profile, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).(*profile.Profile)
	return p, args.Error(1)
}

type MockCmdConfigurator struct {
	mock.Mock
}

func (m *MockCmdConfigurator) AddFlags(cmd *cobra.Command, cfg *config.Config) error {
	return m.Called(cmd, cfg).Error(0)
}

func (m *MockCmdConfigurator) ValidateFlags(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	return m.Called(ctx, cmd, cfg).Error(0)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Start(ctx context.Context, prof *profile.Profile, url string) error {
	return m.Called(ctx, prof, url).Error(0)
}

func (m *MockRecorder) Stop(ctx context.Context, editor codegenSvc.Editor) (*codegenSvc.Result, error) {
	args := m.Called(ctx, editor)
	res, _ := args.Get(0).(*codegenSvc.Result)
	return res, args.Error(1)
}

func (m *MockRecorder) AttachEditor(editor codegenSvc.Editor) {
	m.Called(editor)
}

func (m *MockRecorder) OnSteps(fn codegenSvc.StepsListener) {
	m.Called(fn)
}

func (m *MockRecorder) OnFinish(fn codegenSvc.FinishListener) {
	m.Called(fn)
}

func (m *MockRecorder) Status() codegenSvc.Status {
	return m.Called().Get(0).(codegenSvc.Status)
}

func (m *MockRecorder) IsRecording() bool {
	return m.Called().Bool(0)
}

type MockBridge struct {
	mock.Mock
}

func (m *MockBridge) StartSession(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockBridge) BeginPick(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockBridge) StartPreview(ctx context.Context, url, locator string) error {
	return m.Called(ctx, url, locator).Error(0)
}

func (m *MockBridge) Reset(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockBridge) Stop() error {
	return m.Called().Error(0)
}

func (m *MockBridge) OnLocator(fn bridgeSvc.LocatorListener) {
	m.Called(fn)
}

func (m *MockBridge) OnError(fn bridgeSvc.ErrorListener) {
	m.Called(fn)
}

func (m *MockBridge) LastLocator() string {
	return m.Called().String(0)
}

func (m *MockBridge) IsRunning() bool {
	return m.Called().Bool(0)
}
