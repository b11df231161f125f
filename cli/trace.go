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
	Register("show-trace", ShowTrace)
}

func ShowTrace(ctx context.Context, logger *zap.Logger, cfg *config.Config, serviceFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "show-trace <trace.zip>",
		Short:   "open a Playwright trace in the trace viewer",
		Example: `pwrecorder show-trace test-results/login/trace.zip`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmdConfigurator.ValidateFlags(ctx, cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := serviceFactory.GetService(ctx, cmd.Name())
			if err != nil {
				utils.LogError(logger, err, "failed to get service")
				return err
			}
			tools, ok := svc.(toolsSvc.Service)
			if !ok {
				err := errors.New("service doesn't satisfy tools service interface")
				utils.LogError(logger, err, "failed to open the trace")
				return err
			}
			prof, err := serviceFactory.GetProfile(ctx)
			if err != nil {
				utils.LogError(logger, err, "failed to resolve the project language")
				return err
			}
			viewer, err := tools.ShowTrace(ctx, prof, args[0])
			if err != nil {
				utils.LogError(logger, err, "failed to start the trace viewer", zap.String("trace", args[0]))
				return err
			}
			// the viewer is bound to ctx, so Ctrl+C closes it
			if _, err := viewer.Wait(context.WithoutCancel(ctx)); err != nil && ctx.Err() == nil {
				utils.LogError(logger, err, "trace viewer failed")
				return err
			}
			return nil
		},
	}

	if err := cmdConfigurator.AddFlags(cmd, cfg); err != nil {
		utils.LogError(logger, err, "failed to add show-trace flags")
		return nil
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}
