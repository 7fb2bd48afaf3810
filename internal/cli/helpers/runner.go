// Package helpers provides shared plumbing for CLI commands.
package helpers

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"stackit.dev/pstack/internal/config"
	"stackit.dev/pstack/internal/runtime"
)

// Names of the flags every command inherits from the root command
const (
	FlagDirectory      = "directory"
	FlagBranch         = "branch"
	FlagConflictPolicy = "conflict-policy"
	FlagLogFile        = "log-file"
)

// configFlags maps flags to the config keys they override
var configFlags = map[string]string{
	FlagConflictPolicy: config.KeyConflictPolicy,
	FlagLogFile:        config.KeyLogFile,
}

// Run is a helper that provides a runtime context to a command's execution function
func Run(cmd *cobra.Command, fn func(ctx *runtime.Context) error) error {
	dir, _ := cmd.Flags().GetString(FlagDirectory)
	ctx, err := runtime.GetContext(cmd.Context(), dir, func(v *viper.Viper) error {
		return config.BindFlags(v, cmd.Flags(), configFlags)
	})
	if err != nil {
		return err
	}
	defer func() { _ = ctx.Close() }()
	return fn(ctx)
}

// Branch returns the --branch flag, empty for the checked out branch
func Branch(cmd *cobra.Command) string {
	branch, _ := cmd.Flags().GetString(FlagBranch)
	return branch
}
