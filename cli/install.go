package cli

import (
	"context"
	"errors"

	"github.com/pwrecorder/pwrecorder/config"
	toolsSvc "github.com/pwrecorder/pwrecorder/pkg/service/tools"
	"github.com/pwrecorder/pwrecorder/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	Register("install", Install)
}

func Install(ctx context.Context, logger *zap.Logger, cfg *config.Config, serviceFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "install",
		Short:   "install Playwright and its browsers into the project",
		Example: `pwrecorder install --language javascript`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmdConfigurator.ValidateFlags(ctx, cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := serviceFactory.GetService(ctx, cmd.Name())
			if err != nil {
				utils.LogError(logger, err, "failed to get service")
				return err
			}
			tools, ok := svc.(toolsSvc.Service)
			if !ok {
				err := errors.New("service doesn't satisfy tools service interface")
				utils.LogError(logger, err, "failed to install playwright")
				return err
			}
			prof, err := serviceFactory.GetProfile(ctx)
			if err != nil {
				utils.LogError(logger, err, "failed to resolve the project language")
				return err
			}
			if err := tools.Install(ctx, prof); err != nil {
				utils.LogError(logger, err, "failed to install playwright", zap.String("language", prof.Language.String()))
				return err
			}
			logger.Info("Playwright installed", zap.String("language", prof.Language.String()), zap.String("project", prof.Root))
			return nil
		},
	}

	if err := cmdConfigurator.AddFlags(cmd, cfg); err != nil {
		utils.LogError(logger, err, "failed to add install flags")
		return nil
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}
