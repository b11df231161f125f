package cli

import (
	"context"

	"github.com/pwrecorder/pwrecorder/config"
	"github.com/pwrecorder/pwrecorder/pkg/core/profile"
	"github.com/spf13/cobra"
)

type ServiceFactory interface {
	GetService(ctx context.Context, cmd string) (interface{}, error)
	// GetProfile resolves the language profile of the configured project.
	GetProfile(ctx context.Context) (*profile.Profile, error)
}

type CmdConfigurator interface {
	AddFlags(cmd *cobra.Command, cfg *config.Config) error
	ValidateFlags(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error
}
