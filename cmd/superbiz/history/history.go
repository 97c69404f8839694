// Package historycmder provides the history command for browsing the
// conversations recorded in the local history database.
package historycmder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/superbiz/cmd/superbiz/cmdenv"
	"github.com/papercomputeco/superbiz/pkg/cliui"
	"github.com/papercomputeco/superbiz/pkg/config"
	"github.com/papercomputeco/superbiz/pkg/history"
)

const historyLongDesc string = `Browse and manage local chat history.

Every question and answer from "superbiz chat" and "superbiz ask" is
recorded in history.db in the .superbiz/ directory (history.sqlite_path).
Set history.enabled to false to stop recording.

Examples:
  superbiz history list
  superbiz history show <id>
  superbiz history delete <id>
  superbiz history clear`

const historyShortDesc string = "Browse local chat history"

func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
	}

	cmd.PersistentFlags().String("history-sqlite", "", "Path to the local chat history database")

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newClearCmd())

	return cmd
}

// openStore resolves config and opens the history store.
func openStore(cmd *cobra.Command) (*history.Store, error) {
	env, err := cmdenv.Setup(cmd, config.FlagHistorySQLite)
	if err != nil {
		return nil, err
	}
	if !env.Config.History.Enabled {
		return nil, errors.New("history is disabled (history.enabled = false)")
	}

	store := env.OpenHistory()
	if store == nil {
		return nil, errors.New("history database could not be opened")
	}
	return store, nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No conversations recorded yet.")
				return nil
			}

			for _, sum := range list {
				fmt.Fprintf(out, "%s  %s  %s  %s\n",
					cliui.IDStyle.Render(sum.ID),
					cliui.DimStyle.Render(sum.UpdatedAt.Format("2006-01-02 15:04")),
					cliui.DimStyle.Render(fmt.Sprintf("%3d msgs", sum.Count)),
					sum.Title,
				)
			}
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recorded conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			conv, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n  %s\n  %s\n\n",
				cliui.HeaderStyle.Render(conv.Title),
				cliui.DimStyle.Render(conv.ID+" · "+conv.UpdatedAt.Format("2006-01-02 15:04")),
			)

			for _, m := range conv.Messages {
				if m.Role == history.RoleUser {
					fmt.Fprintf(out, "%s%s\n\n", cliui.UserPrompt, m.Content)
					continue
				}
				fmt.Fprintf(out, "%s\n%s\n\n", cliui.AssistantPrompt,
					strings.TrimRight(cliui.RenderAnswer(out, m.Content), "\n"))
			}
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recorded conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted %s\n", cliui.SuccessMark, cliui.IDStyle.Render(args[0]))
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted %d conversations\n", cliui.SuccessMark, n)
			return nil
		},
	}
}
