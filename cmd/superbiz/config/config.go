// Package configcmder provides the config command for managing persistent
// superbiz configuration stored in the .superbiz/ directory.
package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/superbiz/pkg/config"
)

const configLongDesc string = `Manage persistent superbiz configuration.

Configuration is stored as config.toml in the .superbiz/ directory and
provides default values for command flags. CLI flags and SUPERBIZ_*
environment variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  client.api_base, client.mode,
  timeouts.chat, timeouts.chat_stream, timeouts.upload, timeouts.aiops,
  upload.max_bytes, upload.extensions,
  history.sqlite_path, history.enabled,
  trace.dir

Use subcommands to get, set, or list configuration values:
  superbiz config set <key> <value>    Set a configuration value
  superbiz config get <key>            Get a configuration value
  superbiz config list                 List all configuration values

Examples:
  superbiz config set client.api_base http://localhost:8000/api
  superbiz config set timeouts.chat_stream 5m
  superbiz config get client.mode
  superbiz config list`

const configShortDesc string = "Manage persistent superbiz configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}
