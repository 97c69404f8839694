// Package chatcmder provides the chat and ask commands, which talk to the
// SuperBiz chat endpoints.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/superbiz/cmd/superbiz/cmdenv"
	"github.com/papercomputeco/superbiz/pkg/cliui"
	"github.com/papercomputeco/superbiz/pkg/config"
	"github.com/papercomputeco/superbiz/pkg/history"
	"github.com/papercomputeco/superbiz/pkg/session"
	"github.com/papercomputeco/superbiz/pkg/stream"
	"github.com/papercomputeco/superbiz/pkg/utils"
)

// chatFlags are the registry flags shared by chat and ask.
var chatFlags = []string{
	config.FlagAPIBase,
	config.FlagMode,
	config.FlagTimeout,
	config.FlagChatStreamTimeout,
	config.FlagHistorySQLite,
	config.FlagTraceDir,
}

type chatCommander struct {
	apiBase       string
	mode          string
	timeout       time.Duration
	streamTimeout time.Duration
	historyPath   string
	traceDir      string
	sessionID     string
	fresh         bool

	env *cmdenv.Env
}

const chatLongDesc string = `Start an interactive chat with the SuperBiz assistant.

Answers stream in as they are generated (--mode stream, the default) or
arrive whole (--mode quick). The backend session is kept in .superbiz/
so the next "superbiz chat" continues the same conversation; pass --new
to start over or --session to pick one.

Commands inside the chat:
  /new            Start a new session
  /clear          Clear the backend history of this session
  /mode <mode>    Switch between quick and stream
  /session        Show the session id
  /help           Show this help
  /exit           Quit (also Ctrl+D)

Ctrl+C stops the answer being streamed.

Examples:
  superbiz chat
  superbiz chat --mode quick
  superbiz chat --new --api-base http://localhost:8000/api`

const chatShortDesc string = "Interactive chat with the SuperBiz assistant"

const replHelp = `  /new            Start a new session
  /clear          Clear the backend history of this session
  /mode <mode>    Switch between quick and stream
  /session        Show the session id
  /help           Show this help
  /exit           Quit`

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.env, err = cmdenv.Setup(cmd, chatFlags...)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer cmder.env.Close()
			return cmder.run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmder.addFlags(cmd)

	return cmd
}

func (c *chatCommander) addFlags(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagAPIBase, &c.apiBase)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagMode, &c.mode)
	config.AddDurationFlag(cmd, config.ClientFlags, config.FlagTimeout, &c.timeout)
	config.AddDurationFlag(cmd, config.ClientFlags, config.FlagChatStreamTimeout, &c.streamTimeout)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagHistorySQLite, &c.historyPath)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagTraceDir, &c.traceDir)
	cmd.Flags().StringVarP(&c.sessionID, "session", "s", "", "Session id to use")
	cmd.Flags().BoolVar(&c.fresh, "new", false, "Start a new session")
}

func (c *chatCommander) run(ctx context.Context, in io.Reader, out io.Writer) error {
	id, err := c.env.SessionID(c.sessionID, c.fresh)
	if err != nil {
		return err
	}

	store := c.env.OpenHistory()
	if store != nil {
		defer store.Close()
	}

	t := &turner{
		client: c.env.Client,
		store:  store,
		out:    out,
		logger: c.env.Logger,
	}
	mode := c.env.Config.Client.Mode

	fmt.Fprintln(out)
	c.printSession(ctx, out, store, id)
	fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("Mode:"), cliui.NameStyle.Render(mode))
	fmt.Fprintf(out, "  %s %s\n\n", cliui.KeyStyle.Render("Backend:"), cliui.ValueStyle.Render(c.env.Client.BaseURL()))
	fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /help for commands, /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, cliui.UserPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := c.command(ctx, out, store, input, &id, &mode)
			if err != nil {
				fmt.Fprintf(out, "  %s %v\n", cliui.FailMark, err)
			}
			if quit {
				break
			}
			continue
		}

		fmt.Fprint(out, cliui.AssistantPrompt)

		turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		_, err := t.ask(turnCtx, id, mode, input)
		stop()

		if err != nil && !stream.IsAborted(err) {
			fmt.Fprintf(out, "  %s %v\n", cliui.FailMark, err)
		}
		fmt.Fprintln(out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(out)
	return nil
}

func (c *chatCommander) printSession(ctx context.Context, out io.Writer, store *history.Store, id string) {
	line := fmt.Sprintf("  %s %s", cliui.KeyStyle.Render("Session:"), cliui.IDStyle.Render(id))

	if store != nil {
		if conv, err := store.Get(ctx, id); err == nil {
			line += " " + cliui.DimStyle.Render(fmt.Sprintf("(%d messages, %q)", len(conv.Messages), utils.Truncate(conv.Title, 30)))
		}
	}

	fmt.Fprintln(out, line)
}

// command handles a slash command and reports whether the chat should end.
func (c *chatCommander) command(ctx context.Context, out io.Writer, store *history.Store, input string, id, mode *string) (bool, error) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/exit", "/quit":
		return true, nil

	case "/help":
		fmt.Fprintln(out, replHelp)

	case "/session":
		fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("Session:"), cliui.IDStyle.Render(*id))

	case "/new":
		*id = session.NewID()
		if err := c.env.SaveSession(*id, *mode); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "  %s New session %s\n", cliui.SuccessMark, cliui.IDStyle.Render(*id))

	case "/clear":
		res, err := c.env.Client.ClearSession(ctx, *id)
		if err != nil {
			return false, err
		}
		if store != nil {
			if err := store.Delete(ctx, *id); err != nil && !history.IsNotFound(err) {
				c.env.Logger.Warn("could not delete local history", "session", *id, "error", err)
			}
		}
		fmt.Fprintf(out, "  %s %s\n", cliui.SuccessMark, res.Message)

	case "/mode":
		if err := config.ValidateMode(arg); err != nil {
			return false, err
		}
		*mode = arg
		if err := c.env.SaveSession(*id, *mode); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "  %s Mode %s\n", cliui.SuccessMark, cliui.NameStyle.Render(arg))

	default:
		return false, fmt.Errorf("unknown command %s, try /help", name)
	}

	return false, nil
}
