// Package cli builds the pwrecorder command tree. Every command registers a HookFunc from its
// own file; Root collects them.
package cli

import (
	"context"

	"github.com/pwrecorder/pwrecorder/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type HookFunc func(ctx context.Context, logger *zap.Logger, cfg *config.Config, serviceFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command

// Registered holds the registered command hooks
var Registered map[string]HookFunc

func Register(name string, f HookFunc) {
	if Registered == nil {
		Registered = make(map[string]HookFunc)
	}
	Registered[name] = f
}
