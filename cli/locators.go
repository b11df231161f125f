package cli

import (
	"context"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/pwrecorder/pwrecorder/config"
	"github.com/pwrecorder/pwrecorder/pkg/service/locator"
	"github.com/pwrecorder/pwrecorder/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	Register("locators", Locators)
}

func Locators(ctx context.Context, logger *zap.Logger, cfg *config.Config, _ ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "locators",
		Short:   "suggest locators for the interactive elements of a saved HTML page",
		Example: `pwrecorder locators --html page.html`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmdConfigurator.ValidateFlags(ctx, cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString("html")
			if err != nil {
				return err
			}
			f, err := os.Open(inProject(cfg.Path, path))
			if err != nil {
				utils.LogError(logger, err, "failed to open html document", zap.String("path", path))
				return err
			}
			defer func() {
				if err := f.Close(); err != nil {
					logger.Debug("failed to close html document", zap.Error(err))
				}
			}()
			doc, err := locator.Parse(f)
			if err != nil {
				utils.LogError(logger, err, "failed to parse html document", zap.String("path", path))
				return err
			}
			suggestions := doc.Suggest()
			if len(suggestions) == 0 {
				logger.Info("No interactive elements found", zap.String("path", path))
				return nil
			}
			return renderSuggestions(cmd.OutOrStdout(), suggestions)
		},
	}

	if err := cmdConfigurator.AddFlags(cmd, cfg); err != nil {
		utils.LogError(logger, err, "failed to add locators flags")
		return nil
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}

func renderSuggestions(out io.Writer, suggestions []locator.Suggestion) error {
	table := tablewriter.NewWriter(out)
	table.Header("Element", "Locator")
	for _, s := range suggestions {
		if err := table.Append([]string{"<" + s.Tag + ">", s.Locator}); err != nil {
			return err
		}
	}
	return table.Render()
}
