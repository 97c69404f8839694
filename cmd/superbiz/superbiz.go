// Package superbizcmder is the root of the superbiz command tree.
package superbizcmder

import (
	"github.com/spf13/cobra"

	aiopscmder "github.com/papercomputeco/superbiz/cmd/superbiz/aiops"
	chatcmder "github.com/papercomputeco/superbiz/cmd/superbiz/chat"
	configcmder "github.com/papercomputeco/superbiz/cmd/superbiz/config"
	historycmder "github.com/papercomputeco/superbiz/cmd/superbiz/history"
	initcmder "github.com/papercomputeco/superbiz/cmd/superbiz/init"
	replaycmder "github.com/papercomputeco/superbiz/cmd/superbiz/replay"
	sessioncmder "github.com/papercomputeco/superbiz/cmd/superbiz/session"
	uploadcmder "github.com/papercomputeco/superbiz/cmd/superbiz/upload"
	versioncmder "github.com/papercomputeco/superbiz/cmd/version"
)

const superbizLongDesc string = `SuperBiz is a terminal client for the SuperBiz assistant.

Chat with the knowledge base, run AI ops analyses and manage documents:
  superbiz chat        Interactive chat
  superbiz ask         One question, one answer
  superbiz aiops       Analyze the current system alerts
  superbiz upload      Add documents to the knowledge base

Configuration lives in .superbiz/config.toml (see "superbiz config").`

const superbizShortDesc string = "SuperBiz - assistant client"

func NewSuperbizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "superbiz",
		Short:         superbizShortDesc,
		Long:          superbizLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .superbiz/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(chatcmder.NewAskCmd())
	cmd.AddCommand(aiopscmder.NewAIOpsCmd())
	cmd.AddCommand(uploadcmder.NewUploadCmd())
	cmd.AddCommand(sessioncmder.NewSessionCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(replaycmder.NewReplayCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
