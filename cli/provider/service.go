package provider

import (
	"context"
	"errors"

	"github.com/pwrecorder/pwrecorder/config"
	"github.com/pwrecorder/pwrecorder/pkg/core/app"
	"github.com/pwrecorder/pwrecorder/pkg/core/profile"
	"github.com/pwrecorder/pwrecorder/pkg/models"
	"github.com/pwrecorder/pwrecorder/pkg/platform/detect"
	"github.com/pwrecorder/pwrecorder/pkg/platform/fs"
	"github.com/pwrecorder/pwrecorder/pkg/service/bridge"
	"github.com/pwrecorder/pwrecorder/pkg/service/codegen"
	"github.com/pwrecorder/pwrecorder/pkg/service/tools"
	"github.com/pwrecorder/pwrecorder/utils/log"
	"go.uber.org/zap"
)

type ServiceProvider struct {
	logger *zap.Logger
	cfg    *config.Config
}

func NewServiceProvider(logger *zap.Logger, cfg *config.Config) *ServiceProvider {
	return &ServiceProvider{
		logger: logger,
		cfg:    cfg,
	}
}

// GetProfile runs project detection under the configured path and returns the profile of the
// chosen language.
func (n *ServiceProvider) GetProfile(_ context.Context) (*profile.Profile, error) {
	lang, err := models.ParseLanguage(n.cfg.Language)
	if err != nil {
		return nil, err
	}
	targets := detect.New(log.GetModuleLogger(log.ModuleDetect)).Detect(n.cfg.Path, lang)
	return profile.New(targets.Preferred, n.cfg.Path)
}

func (n *ServiceProvider) supervisor(module string) *app.Supervisor {
	return app.New(log.GetModuleLogger(module), app.Options{WaitDelay: n.cfg.Record.WaitDelay})
}

func (n *ServiceProvider) GetService(ctx context.Context, cmd string) (interface{}, error) {
	switch cmd {
	case "record":
		logger := log.GetModuleLogger(log.ModuleCodegen)
		return codegen.New(logger, n.supervisor(log.ModuleCodegen), fs.New(logger), codegen.Options{
			PollInterval: n.cfg.Record.PollInterval,
			DrainGrace:   n.cfg.Record.DrainGrace,
			TestsDir:     n.cfg.TestsDirOrDefault(),
			Watch:        true,
		}), nil
	case "pick", "highlight", "session":
		prof, err := n.GetProfile(ctx)
		if err != nil {
			return nil, err
		}
		sup := app.New(log.GetModuleLogger(log.ModuleBridge), app.Options{
			WaitDelay: n.cfg.Record.WaitDelay,
			Env:       prof.BridgeEnv(),
		})
		return bridge.New(log.GetModuleLogger(log.ModuleBridge), sup, prof, bridge.Options{
			ScriptDir: n.cfg.Bridge.ScriptDir,
		}), nil
	case "check", "install", "show-trace":
		logger := log.GetModuleLogger(log.ModuleTools)
		return tools.New(logger, n.supervisor(log.ModuleTools), tools.ShellExecutor{
			Logger:    logger,
			WaitDelay: n.cfg.Record.WaitDelay,
		}, tools.Options{ProbeTimeout: n.cfg.Check.ProbeTimeout}), nil
	case "new":
		return fs.New(n.logger), nil
	default:
		return nil, errors.New("invalid command")
	}
}
