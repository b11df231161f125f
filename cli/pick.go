package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/pwrecorder/pwrecorder/config"
	"github.com/pwrecorder/pwrecorder/pkg/models"
	bridgeSvc "github.com/pwrecorder/pwrecorder/pkg/service/bridge"
	"github.com/pwrecorder/pwrecorder/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	Register("pick", Pick)
}

func Pick(ctx context.Context, logger *zap.Logger, cfg *config.Config, serviceFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "pick",
		Short:   "click an element in the browser and print its locator",
		Example: `pwrecorder pick --url https://example.com`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmdConfigurator.ValidateFlags(ctx, cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := serviceFactory.GetService(ctx, cmd.Name())
			if err != nil {
				utils.LogError(logger, err, "failed to get service")
				return err
			}
			client, ok := svc.(bridgeSvc.Service)
			if !ok {
				err := errors.New("service doesn't satisfy bridge service interface")
				utils.LogError(logger, err, "failed to start picking")
				return err
			}
			defer func() {
				if err := client.Stop(); err != nil {
					utils.LogError(logger, err, "failed to stop the bridge")
				}
			}()

			picked := make(chan string, 1)
			client.OnLocator(func(locator string) {
				select {
				case picked <- locator:
				default:
				}
			})
			if err := client.BeginPick(ctx, cfg.URL); err != nil {
				utils.LogError(logger, err, "failed to start the element picker")
				return err
			}
			logger.Info("Click an element in the browser, press Ctrl+C to cancel")

			select {
			case locator := <-picked:
				fmt.Fprintln(cmd.OutOrStdout(), models.HighlightString(locator))
				return nil
			case <-ctx.Done():
				return nil
			}
		},
	}

	if err := cmdConfigurator.AddFlags(cmd, cfg); err != nil {
		utils.LogError(logger, err, "failed to add pick flags")
		return nil
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}
