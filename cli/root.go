package cli

import (
	"context"
	"sort"

	"github.com/pwrecorder/pwrecorder/cli/provider"
	"github.com/pwrecorder/pwrecorder/config"
	"github.com/pwrecorder/pwrecorder/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func Root(ctx context.Context, logger *zap.Logger, cfg *config.Config, svcFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:     "pwrecorder",
		Short:   "Record Playwright tests and inspect locators from the terminal",
		Example: provider.RootExamples,
		Version: utils.Version,
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpTemplate(provider.RootCustomHelpTemplate)
	rootCmd.SetVersionTemplate(provider.VersionTemplate)

	if err := cmdConfigurator.AddFlags(rootCmd, cfg); err != nil {
		utils.LogError(logger, err, "failed to set flags")
		return nil
	}

	names := make([]string, 0, len(Registered))
	for name := range Registered {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := Registered[name](ctx, logger, cfg, svcFactory, cmdConfigurator)
		if c == nil {
			continue
		}
		rootCmd.AddCommand(c)
	}
	return rootCmd
}
