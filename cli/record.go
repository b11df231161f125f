package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pwrecorder/pwrecorder/config"
	"github.com/pwrecorder/pwrecorder/pkg/models"
	"github.com/pwrecorder/pwrecorder/pkg/platform/fs"
	codegenSvc "github.com/pwrecorder/pwrecorder/pkg/service/codegen"
	"github.com/pwrecorder/pwrecorder/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	Register("record", Record)
}

type finished struct {
	res *codegenSvc.Result
	err error
}

func Record(ctx context.Context, logger *zap.Logger, cfg *config.Config, serviceFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "record",
		Short:   "record a Playwright test with the code generator",
		Example: `pwrecorder record --url https://example.com --insert-into tests/login.spec.ts --line 12`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmdConfigurator.ValidateFlags(ctx, cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := serviceFactory.GetService(ctx, cmd.Name())
			if err != nil {
				utils.LogError(logger, err, "failed to get service")
				return err
			}
			recorder, ok := svc.(codegenSvc.Service)
			if !ok {
				err := errors.New("service doesn't satisfy codegen service interface")
				utils.LogError(logger, err, "failed to start recording")
				return err
			}
			prof, err := serviceFactory.GetProfile(ctx)
			if err != nil {
				utils.LogError(logger, err, "failed to resolve the project language")
				return err
			}

			var editor codegenSvc.Editor
			if !utils.IsBlank(cfg.Record.InsertInto) {
				fe, err := fs.OpenEditor(inProject(prof.Root, cfg.Record.InsertInto), cfg.Record.Line)
				if err != nil {
					utils.LogError(logger, err, "failed to open the file to insert into")
					return err
				}
				editor = fe
			}

			out := cmd.OutOrStdout()
			recorder.OnSteps(func(steps []models.Step, _ string) {
				if len(steps) == 0 {
					return
				}
				fmt.Fprintf(out, "%s %d steps, last: %s\n", utils.Emoji, len(steps), models.HighlightString(steps[len(steps)-1].Text))
			})
			done := make(chan finished, 1)
			recorder.OnFinish(func(res *codegenSvc.Result, err error) {
				select {
				case done <- finished{res: res, err: err}:
				default:
				}
			})

			started := time.Now()
			if err := recorder.Start(ctx, prof, cfg.URL); err != nil {
				utils.LogError(logger, err, "failed to start the code generator")
				return err
			}
			if cfg.Record.LiveInsert && editor != nil {
				recorder.AttachEditor(editor)
				// steps already sit in the editor, so Stop must not insert them again
				editor = nil
			}
			logger.Info("Recording, press Ctrl+C to stop", zap.String("status", string(recorder.Status().State)))

			var end finished
			select {
			case <-ctx.Done():
				res, err := recorder.Stop(context.Background(), editor)
				end = finished{res: res, err: err}
			case end = <-done:
			}
			printRecordSummary(out, end.res, time.Since(started))
			if end.err != nil {
				utils.LogError(logger, end.err, "failed to save the recording")
				return end.err
			}
			return nil
		},
	}

	if err := cmdConfigurator.AddFlags(cmd, cfg); err != nil {
		utils.LogError(logger, err, "failed to add record flags")
		return nil
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}
