package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pwrecorder/pwrecorder/config"
	"github.com/pwrecorder/pwrecorder/pkg/models"
	"github.com/pwrecorder/pwrecorder/pkg/platform/fs"
	"github.com/pwrecorder/pwrecorder/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	Register("new", NewFile)
}

// fileWriter is the part of the file store new needs.
type fileWriter interface {
	WriteFile(path, content string) error
}

func NewFile(ctx context.Context, logger *zap.Logger, cfg *config.Config, serviceFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "new",
		Short:   "create a new test file in the tests directory",
		Example: `pwrecorder new --from /tmp/playwright-recorder/output.spec.ts`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmdConfigurator.ValidateFlags(ctx, cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := serviceFactory.GetService(ctx, cmd.Name())
			if err != nil {
				utils.LogError(logger, err, "failed to get service")
				return err
			}
			store, ok := svc.(fileWriter)
			if !ok {
				err := errors.New("service doesn't satisfy file store interface")
				utils.LogError(logger, err, "failed to create the test file")
				return err
			}
			prof, err := serviceFactory.GetProfile(ctx)
			if err != nil {
				utils.LogError(logger, err, "failed to resolve the project language")
				return err
			}

			var steps []models.Step
			from, err := cmd.Flags().GetString("from")
			if err != nil {
				return err
			}
			if !utils.IsBlank(from) {
				raw, err := os.ReadFile(inProject(prof.Root, from))
				if err != nil {
					utils.LogError(logger, err, "failed to read generator output", zap.String("path", from))
					return err
				}
				steps = prof.Extract(string(raw))
			}

			dir := inProject(prof.Root, cfg.TestsDirOrDefault())
			path := fs.UniqueName(dir, models.RecordedBase, prof.FileExtension())
			if err := store.WriteFile(path, prof.NewFileContent(steps)); err != nil {
				utils.LogError(logger, err, "failed to write the test file", zap.String("path", path))
				return err
			}
			rel, err := filepath.Rel(prof.Root, path)
			if err != nil {
				rel = path
			}
			fmt.Fprintln(cmd.OutOrStdout(), models.HighlightPassingString(rel))
			return nil
		},
	}

	if err := cmdConfigurator.AddFlags(cmd, cfg); err != nil {
		utils.LogError(logger, err, "failed to add new flags")
		return nil
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}
