package cli

import (
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/pwrecorder/pwrecorder/config"
	"github.com/pwrecorder/pwrecorder/pkg/core/profile"
	"github.com/pwrecorder/pwrecorder/pkg/models"
	"github.com/pwrecorder/pwrecorder/pkg/platform/detect"
	toolsSvc "github.com/pwrecorder/pwrecorder/pkg/service/tools"
	"github.com/pwrecorder/pwrecorder/utils"
	"github.com/pwrecorder/pwrecorder/utils/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	Register("check", Check)
}

func Check(ctx context.Context, logger *zap.Logger, cfg *config.Config, serviceFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "check",
		Short:   "report which Playwright flavours the project has and whether they can run",
		Example: `pwrecorder check -p /path/to/project --language python`,
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
				utils.LogError(logger, err, "failed to check the project")
				return err
			}
			prof, err := serviceFactory.GetProfile(ctx)
			if err != nil {
				utils.LogError(logger, err, "failed to resolve the project language")
				return err
			}
			lang, err := models.ParseLanguage(cfg.Language)
			if err != nil {
				return err
			}
			targets := detect.New(log.GetModuleLogger(log.ModuleDetect)).Detect(prof.Root, lang)
			avail := tools.Check(ctx, prof)
			return renderCheck(cmd.OutOrStdout(), prof, targets, avail)
		},
	}

	if err := cmdConfigurator.AddFlags(cmd, cfg); err != nil {
		utils.LogError(logger, err, "failed to add check flags")
		return nil
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}

func renderCheck(out io.Writer, prof *profile.Profile, targets detect.Targets, avail models.Availability) error {
	status := models.HighlightFailingString("unavailable")
	if avail.Available {
		status = models.HighlightPassingString("available")
	}
	table := tablewriter.NewWriter(out)
	table.Header("Check", "Result")
	rows := [][]string{
		{"Project", prof.Root},
		{"Playwright JS declared", strconv.FormatBool(targets.HasJavaScript)},
		{"Playwright Python declared", strconv.FormatBool(targets.HasPython)},
		{"Language", prof.Language.String()},
		{"TypeScript", strconv.FormatBool(prof.TypeScript)},
		{"Status", status},
		{"Message", avail.Message},
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
