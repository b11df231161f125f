package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/pwrecorder/pwrecorder/config"
	"github.com/pwrecorder/pwrecorder/pkg/models"
	"github.com/pwrecorder/pwrecorder/pkg/platform/fs"
	bridgeSvc "github.com/pwrecorder/pwrecorder/pkg/service/bridge"
	"github.com/pwrecorder/pwrecorder/pkg/service/locator"
	"github.com/pwrecorder/pwrecorder/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	Register("highlight", Highlight)
}

func Highlight(ctx context.Context, logger *zap.Logger, cfg *config.Config, serviceFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "highlight",
		Short:   "outline the elements a locator matches",
		Example: `pwrecorder highlight --url https://example.com --file tests/login.spec.ts --line 7`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmdConfigurator.ValidateFlags(ctx, cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := highlightTarget(cmd, cfg.Path)
			if err != nil {
				utils.LogError(logger, err, "failed to find a locator to highlight")
				return err
			}

			svc, err := serviceFactory.GetService(ctx, cmd.Name())
			if err != nil {
				utils.LogError(logger, err, "failed to get service")
				return err
			}
			client, ok := svc.(bridgeSvc.Service)
			if !ok {
				err := errors.New("service doesn't satisfy bridge service interface")
				utils.LogError(logger, err, "failed to start the preview")
				return err
			}
			defer func() {
				if err := client.Stop(); err != nil {
					utils.LogError(logger, err, "failed to stop the bridge")
				}
			}()
			client.OnError(func(msg string) {
				fmt.Fprintln(cmd.ErrOrStderr(), models.HighlightFailingString(msg))
			})

			if err := client.StartPreview(ctx, cfg.URL, target); err != nil {
				utils.LogError(logger, err, "failed to highlight locator", zap.String("locator", target))
				return err
			}
			logger.Info("Highlighting, press Ctrl+C to stop", zap.String("locator", target))
			<-ctx.Done()
			return nil
		},
	}

	if err := cmdConfigurator.AddFlags(cmd, cfg); err != nil {
		utils.LogError(logger, err, "failed to add highlight flags")
		return nil
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}

// highlightTarget is --locator, or the locator found on --line of --file.
func highlightTarget(cmd *cobra.Command, root string) (string, error) {
	target, err := cmd.Flags().GetString("locator")
	if err != nil {
		return "", err
	}
	if !utils.IsBlank(target) {
		return target, nil
	}
	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return "", err
	}
	line, err := cmd.Flags().GetInt("line")
	if err != nil {
		return "", err
	}
	editor, err := fs.OpenEditor(inProject(root, file), line)
	if err != nil {
		return "", err
	}
	text := editor.LineAt(line)
	target, ok := locator.ExtractFromLine(text)
	if !ok {
		return "", fmt.Errorf("no locator on line %d of %s: %w", line, file, models.ErrInvalidArgument)
	}
	return target, nil
}
