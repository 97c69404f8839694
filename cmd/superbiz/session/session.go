// Package sessioncmder provides the session command for inspecting and
// clearing backend chat sessions.
package sessioncmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/superbiz/cmd/superbiz/cmdenv"
	"github.com/papercomputeco/superbiz/pkg/client"
	"github.com/papercomputeco/superbiz/pkg/cliui"
	"github.com/papercomputeco/superbiz/pkg/config"
)

const sessionLongDesc string = `Manage backend chat sessions.

The backend keeps the conversation history of every session id it has
seen. The active session, used by "superbiz chat" and "superbiz ask",
is stored in .superbiz/session.json.

Examples:
  superbiz session list
  superbiz session current
  superbiz session clear
  superbiz session clear 1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed`

const sessionShortDesc string = "Manage backend chat sessions"

func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: sessionShortDesc,
		Long:  sessionLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newCurrentCmd())

	return cmd
}

func newListCmd() *cobra.Command {
	var apiBase string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the sessions the backend knows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cmdenv.Setup(cmd, config.FlagAPIBase)
			if err != nil {
				return err
			}

			list, err := env.Client.ListSessions(cmd.Context())
			if err != nil {
				return err
			}

			current, _ := env.StoredSession()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render(fmt.Sprintf("%d sessions", list.Count)))
			for _, id := range list.Sessions {
				marker := " "
				if id == current {
					marker = cliui.SuccessMark
				}
				fmt.Fprintf(out, "  %s %s\n", marker, cliui.IDStyle.Render(id))
			}
			fmt.Fprintln(out)

			return nil
		},
	}

	config.AddStringFlag(cmd, config.ClientFlags, config.FlagAPIBase, &apiBase)

	return cmd
}

func newClearCmd() *cobra.Command {
	var (
		apiBase string
		forget  bool
	)

	cmd := &cobra.Command{
		Use:   "clear [id]",
		Short: "Clear the backend history of a session (default: the active one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdenv.Setup(cmd, config.FlagAPIBase)
			if err != nil {
				return err
			}

			current, err := env.StoredSession()
			if err != nil {
				return err
			}

			id := current
			if len(args) == 1 {
				id = args[0]
			}
			if id == "" {
				return errors.New("no active session; pass a session id")
			}

			res, err := env.Client.ClearSession(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			mark := cliui.SuccessMark
			if res.Status == client.StatusNotFound {
				mark = cliui.WarnStyle.Render("!")
			}
			fmt.Fprintf(out, "\n  %s %s %s\n", mark, cliui.IDStyle.Render(id), res.Message)

			if forget && id == current {
				if err := env.ForgetSession(); err != nil {
					return err
				}
				fmt.Fprintf(out, "  %s %s\n", cliui.SuccessMark, cliui.DimStyle.Render("active session forgotten"))
			}
			fmt.Fprintln(out)

			return nil
		},
	}

	config.AddStringFlag(cmd, config.ClientFlags, config.FlagAPIBase, &apiBase)
	cmd.Flags().BoolVar(&forget, "forget", false, "Also forget the active session so the next chat starts a new one")

	return cmd
}

func newCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Print the active session id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cmdenv.Setup(cmd)
			if err != nil {
				return err
			}

			id, err := env.StoredSession()
			if err != nil {
				return err
			}
			if id == "" {
				return errors.New("no active session")
			}

			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}
