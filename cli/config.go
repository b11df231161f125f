package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/pwrecorder/pwrecorder/config"
	"github.com/pwrecorder/pwrecorder/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	Register("config", Config)
}

const configFileName = "pwrecorder.yaml"

func Config(ctx context.Context, logger *zap.Logger, cfg *config.Config, _ ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "config",
		Short:   "manage the pwrecorder configuration file",
		Example: "pwrecorder config --generate --path /path/to/project",
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cmdConfigurator.ValidateFlags(ctx, cmd, cfg); err != nil {
				utils.LogError(logger, err, "failed to validate flags")
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			isGenerate, err := cmd.Flags().GetBool("generate")
			if err != nil {
				utils.LogError(logger, err, "failed to get generate flag")
				return err
			}
			if !isGenerate {
				return errors.New("only generate flag is supported in the config command")
			}

			filePath := filepath.Join(cfg.Path, configFileName)
			if _, err := os.Stat(filePath); err == nil {
				utils.LogError(logger, nil, "config file already exists", zap.String("path", filePath))
				return errors.New("config file already exists")
			}
			if err := generateConfig(cfg, filePath); err != nil {
				utils.LogError(logger, err, "failed to create config")
				return err
			}
			logger.Info("Config file generated", zap.String("path", filePath))
			return nil
		},
	}
	if err := cmdConfigurator.AddFlags(cmd, cfg); err != nil {
		utils.LogError(logger, err, "failed to add flags")
		return nil
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}

// generateConfig writes the defaults overlaid with what cfg changed, keeping the defaults'
// key order. Process-only fields are left out.
func generateConfig(cfg *config.Config, filePath string) error {
	current := *cfg
	current.Path = "."
	current.ConfigPath = ""
	rendered, err := config.Render(&current)
	if err != nil {
		return err
	}
	merged, err := config.Merge(rendered, config.GetDefaultConfig())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(filePath, []byte(merged), 0o644)
}
