package main

import (
	"fmt"
	"os"
	"time"

	sentry "github.com/getsentry/sentry-go"
	"github.com/pwrecorder/pwrecorder/cli"
	"github.com/pwrecorder/pwrecorder/cli/provider"
	"github.com/pwrecorder/pwrecorder/config"
	"github.com/pwrecorder/pwrecorder/utils"
	"github.com/pwrecorder/pwrecorder/utils/log"
	"go.uber.org/zap"
)

// version is the version of the recorder and will be injected during build by ldflags
var version string

// dsn is the crash reporting endpoint, injected during build by ldflags
var dsn string

func main() {
	if version == "" {
		version = "0-dev"
	}
	utils.Version = version

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		TracesSampleRate: 1.0,
		Release:          version,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, utils.Emoji, "Could not initialize sentry.", err)
	}
	defer utils.HandlePanic()

	code := start()
	sentry.Flush(2 * time.Second)
	os.Exit(code)
}

func start() int {
	logger, _, err := log.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, utils.Emoji, "Failed to start the logger for the CLI", err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx := utils.NewCtx()
	cfg := config.New()
	svcProvider := provider.NewServiceProvider(logger, cfg)
	cmdConfigurator := provider.NewCmdConfigurator(logger)

	rootCmd := cli.Root(ctx, logger, cfg, svcProvider, cmdConfigurator)
	if rootCmd == nil {
		return 1
	}
	// commands log their own failures
	if err := rootCmd.Execute(); err != nil {
		logger.Debug("command failed", zap.Error(err))
		return 1
	}
	return 0
}
