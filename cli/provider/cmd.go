// Package provider wires configuration, flags and services for the pwrecorder CLI.
package provider

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	sentry "github.com/getsentry/sentry-go"
	"github.com/pwrecorder/pwrecorder/config"
	"github.com/pwrecorder/pwrecorder/pkg/models"
	"github.com/pwrecorder/pwrecorder/utils"
	"github.com/pwrecorder/pwrecorder/utils/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func LogExample(example string) string {
	return fmt.Sprintf("Example usage: %s", example)
}

var CustomHelpTemplate = `
{{if .Example}}Examples:
{{.Example}}
{{end}}
{{if .HasAvailableSubCommands}}Guided Commands:{{range .Commands}}{{if .IsAvailableCommand}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}
{{end}}
{{if .HasAvailableFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}
{{end}}
Use "{{.CommandPath}} [command] --help" for more information about a command.
`

var RootCustomHelpTemplate = `{{.Short}}

Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasAvailableSubCommands}}

Available Commands:{{range .Commands}}{{if .IsAvailableCommand}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}

Use "{{.CommandPath}} [command] --help" for more information about a command.
`

var RootExamples = `
  Record into tests/recorded.spec.ts:
	pwrecorder record --url https://example.com

  Record into an open file, at line 12, while recording:
	pwrecorder record --url https://example.com --insert-into tests/login.spec.ts --line 12 --live

  Pick a locator:
	pwrecorder pick --url https://example.com

  Check the project:
	pwrecorder check -p /path/to/project

  Config:
	pwrecorder config --generate -p /path/to/project
`

var VersionTemplate = `{{with .Version}}{{printf "pwrecorder %s" .}}{{end}}{{"\n"}}`

// flagAliases maps the spelled-out flag names onto the config keys they set.
var flagAliases = map[string]string{
	"config-path":   "configPath",
	"disable-ansi":  "disableANSI",
	"tests-dir":     "testsDir",
	"insert-into":   "insertInto",
	"live":          "liveInsert",
	"live-insert":   "liveInsert",
	"poll-interval": "pollInterval",
}

func aliasNormalizeFunc(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if alias, ok := flagAliases[name]; ok {
		return pflag.NormalizedName(alias)
	}
	return pflag.NormalizedName(name)
}

type CmdConfigurator struct {
	logger *zap.Logger
}

func NewCmdConfigurator(logger *zap.Logger) *CmdConfigurator {
	return &CmdConfigurator{
		logger: logger,
	}
}

func (c *CmdConfigurator) AddFlags(cmd *cobra.Command, cfg *config.Config) error {
	cmd.Flags().SetNormalizeFunc(aliasNormalizeFunc)
	switch cmd.Name() {
	case "pwrecorder":
		cmd.PersistentFlags().SetNormalizeFunc(aliasNormalizeFunc)
		cmd.PersistentFlags().Bool("debug", cfg.Debug, "Run in debug mode")
		cmd.PersistentFlags().Bool("disableANSI", cfg.DisableANSI, "Disable ANSI colour in logs and output")
		cmd.PersistentFlags().String("configPath", ".", "Path to the directory holding pwrecorder.yaml")
		cmd.PersistentFlags().StringP("path", "p", cfg.Path, "Path to the project root")
		cmd.PersistentFlags().StringP("language", "l", cfg.Language, "Playwright flavour to use: auto, javascript or python")
		cmd.PersistentFlags().Bool("disableTele", cfg.DisableTele, "Disable crash reporting")
		if err := cmd.PersistentFlags().MarkHidden("disableTele"); err != nil {
			errMsg := "failed to mark disableTele as hidden flag"
			utils.LogError(c.logger, err, errMsg)
			return errors.New(errMsg)
		}
		if err := viper.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug")); err != nil {
			errMsg := "failed to bind flag to config"
			utils.LogError(c.logger, err, errMsg)
			return errors.New(errMsg)
		}
	case "record":
		cmd.Flags().StringP("url", "u", cfg.URL, "Page to open in the recorder")
		cmd.Flags().String("testsDir", cfg.TestsDirOrDefault(), "Directory, relative to the project root, that receives recorded tests")
		cmd.Flags().String("insertInto", cfg.Record.InsertInto, "Insert the steps into this file at --line instead of writing the tests directory")
		cmd.Flags().Int("line", cfg.Record.Line, "1-based line of --insert-into where steps are inserted; 0 means the end of the file")
		cmd.Flags().Bool("liveInsert", cfg.Record.LiveInsert, "Insert steps into --insert-into while recording")
		cmd.Flags().Duration("pollInterval", cfg.Record.PollInterval, "How often the generator output is read")
	case "pick", "session":
		cmd.Flags().StringP("url", "u", cfg.URL, "Page to open in the browser")
	case "highlight":
		cmd.Flags().StringP("url", "u", cfg.URL, "Page to open in the browser")
		cmd.Flags().String("locator", cfg.Bridge.Locator, "Locator to highlight")
		cmd.Flags().String("file", "", "Test file to take the locator from")
		cmd.Flags().Int("line", 0, "1-based line of --file holding the locator")
	case "new":
		cmd.Flags().String("testsDir", cfg.TestsDirOrDefault(), "Directory, relative to the project root, that receives the file")
		cmd.Flags().String("from", "", "Generator output whose steps fill the new file")
	case "locators":
		cmd.Flags().String("html", "", "HTML document to suggest locators for")
		if err := cmd.MarkFlagRequired("html"); err != nil {
			errMsg := "failed to mark html as required flag"
			utils.LogError(c.logger, err, errMsg)
			return errors.New(errMsg)
		}
	case "config":
		cmd.Flags().Bool("generate", false, "Generate a new pwrecorder configuration file")
	case "check", "install", "show-trace":
		return nil
	default:
		return errors.New("unknown command name")
	}
	return nil
}

func (c *CmdConfigurator) ValidateFlags(_ context.Context, cmd *cobra.Command, cfg *config.Config) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		errMsg := "failed to bind flags to config"
		utils.LogError(c.logger, err, errMsg)
		return errors.New(errMsg)
	}
	if err := utils.BindFlagsToViper(c.logger, cmd, ""); err != nil {
		errMsg := "failed to bind flags to config"
		utils.LogError(c.logger, err, errMsg)
		return errors.New(errMsg)
	}

	configPath, err := cmd.Flags().GetString("configPath")
	if err != nil {
		utils.LogError(c.logger, err, "failed to read the config path")
		return err
	}
	viper.SetConfigName("pwrecorder")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			errMsg := "failed to read config file"
			utils.LogError(c.logger, err, errMsg)
			return errors.New(errMsg)
		}
		c.logger.Debug("config file not found; proceeding with flags only")
	}

	if err := viper.Unmarshal(cfg); err != nil {
		errMsg := "failed to unmarshal the config"
		utils.LogError(c.logger, err, errMsg)
		return errors.New(errMsg)
	}

	if cfg.DisableTele {
		sentry.CurrentHub().BindClient(nil)
	}
	if cfg.DisableANSI {
		models.IsAnsiDisabled = true
		color.NoColor = true
		logger, err := log.DisableANSI()
		if err != nil {
			errMsg := "failed to disable ansi colours in logs"
			utils.LogError(c.logger, err, errMsg)
			return errors.New(errMsg)
		}
		*c.logger = *logger
	}
	if cfg.Debug {
		logger, err := log.ChangeLogLevel(zap.DebugLevel)
		if err != nil {
			errMsg := "failed to change log level"
			utils.LogError(c.logger, err, errMsg)
			return errors.New(errMsg)
		}
		*c.logger = *logger
	}
	log.InitGlobalFactory(c.logger, cfg.Debug, cfg.DebugModule)
	c.logger.Debug("config has been initialised", zap.String("for cmd", cmd.Name()), zap.Any("config", cfg))

	if _, err := models.ParseLanguage(cfg.Language); err != nil {
		utils.LogError(c.logger, err, "unsupported language", zap.String("language", cfg.Language))
		c.logger.Info(LogExample("pwrecorder check --language python"))
		return err
	}

	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		errMsg := "failed to get the absolute path from relative path"
		utils.LogError(c.logger, err, errMsg)
		return errors.New(errMsg)
	}
	cfg.Path = absPath

	switch cmd.Name() {
	case "record":
		if cfg.Record.LiveInsert && utils.IsBlank(cfg.Record.InsertInto) {
			errMsg := "--live needs a file to insert into"
			utils.LogError(c.logger, nil, errMsg)
			c.logger.Info(LogExample(cmd.Example))
			return errors.New(errMsg)
		}
		if cfg.Record.Line < 0 {
			return fmt.Errorf("line must not be negative: %w", models.ErrInvalidArgument)
		}
	case "highlight":
		locator, _ := cmd.Flags().GetString("locator")
		file, _ := cmd.Flags().GetString("file")
		if utils.IsBlank(cfg.URL) {
			errMsg := "missing required --url flag or url in config file"
			utils.LogError(c.logger, nil, errMsg)
			c.logger.Info(LogExample(cmd.Example))
			return errors.New(errMsg)
		}
		if utils.IsBlank(locator) && utils.IsBlank(file) {
			errMsg := "either --locator or --file with --line is required"
			utils.LogError(c.logger, nil, errMsg)
			c.logger.Info(LogExample(cmd.Example))
			return errors.New(errMsg)
		}
	}
	return nil
}
