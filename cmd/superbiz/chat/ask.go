package chatcmder

import (
	"errors"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/superbiz/cmd/superbiz/cmdenv"
)

const askLongDesc string = `Ask the SuperBiz assistant a single question and print the answer.

The question is sent on the active session, so follow-up questions keep
their context. Use --new for an unrelated question.

Examples:
  superbiz ask "Why is the payment service slow?"
  superbiz ask --mode quick --new "Summarize the deploy runbook"`

const askShortDesc string = "Ask a single question"

func NewAskCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.env, err = cmdenv.Setup(cmd, chatFlags...)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer cmder.env.Close()

			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return errors.New("question is empty")
			}

			id, err := cmder.env.SessionID(cmder.sessionID, cmder.fresh)
			if err != nil {
				return err
			}

			store := cmder.env.OpenHistory()
			if store != nil {
				defer store.Close()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			t := &turner{
				client: cmder.env.Client,
				store:  store,
				out:    cmd.OutOrStdout(),
				logger: cmder.env.Logger,
			}
			_, err = t.ask(ctx, id, cmder.env.Config.Client.Mode, question)
			return err
		},
	}

	cmder.addFlags(cmd)

	return cmd
}
