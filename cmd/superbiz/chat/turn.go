package chatcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/papercomputeco/superbiz/pkg/client"
	"github.com/papercomputeco/superbiz/pkg/cliui"
	"github.com/papercomputeco/superbiz/pkg/config"
	"github.com/papercomputeco/superbiz/pkg/history"
	"github.com/papercomputeco/superbiz/pkg/stream"
)

const noReply = "(no reply)"

// turner runs one question/answer exchange and records it.
type turner struct {
	client *client.Client
	store  *history.Store
	out    io.Writer
	logger *slog.Logger
}

// ask sends question on session id and prints the answer as it arrives.
// For a failed stream the partial answer is returned with the error.
func (t *turner) ask(ctx context.Context, id, mode, question string) (string, error) {
	var (
		answer string
		err    error
	)

	if mode == config.ModeQuick {
		answer, err = t.quick(ctx, id, question)
	} else {
		answer, err = t.stream(ctx, id, question)
	}

	t.record(ctx, id, question, answer)
	return answer, err
}

func (t *turner) quick(ctx context.Context, id, question string) (string, error) {
	var resp *client.ChatResponse
	call := func() error {
		var err error
		resp, err = t.client.Chat(ctx, id, question)
		return err
	}

	var err error
	if cliui.IsTerminal(t.out) {
		err = cliui.Step(t.out, "Thinking", call)
	} else {
		err = call()
	}
	if err != nil {
		return "", err
	}

	if resp.Answer == "" {
		fmt.Fprintln(t.out, cliui.DimStyle.Render(noReply))
		return "", nil
	}

	fmt.Fprintln(t.out, strings.TrimRight(cliui.RenderAnswer(t.out, resp.Answer), "\n"))
	if len(resp.Sources) > 0 {
		fmt.Fprintf(t.out, "%s %s\n",
			cliui.KeyStyle.Render("Sources:"),
			cliui.DimStyle.Render(strings.Join(resp.Sources, ", ")),
		)
	}

	return resp.Answer, nil
}

func (t *turner) stream(ctx context.Context, id, question string) (string, error) {
	printed := 0
	out, err := t.client.ChatStream(ctx, id, question, func(text string) {
		if len(text) > printed {
			fmt.Fprint(t.out, text[printed:])
			printed = len(text)
		}
	})
	if err != nil {
		return "", err
	}

	if printed > 0 {
		fmt.Fprintln(t.out)
	}

	switch {
	case out.Completed():
		if out.Text == "" {
			fmt.Fprintln(t.out, cliui.DimStyle.Render(noReply))
		}
		return out.Text, nil

	case stream.IsAborted(out.Err):
		fmt.Fprintln(t.out, cliui.DimStyle.Render("(stopped)"))
		return out.Text, out.Err

	default:
		return out.Text, out.Err
	}
}

// record appends the exchange to the history store. Failures are logged.
func (t *turner) record(ctx context.Context, id, question, answer string) {
	if t.store == nil {
		return
	}

	msgs := []history.Message{{Role: history.RoleUser, Content: question}}
	if answer != "" {
		msgs = append(msgs, history.Message{Role: history.RoleAssistant, Content: answer})
	}

	// A cancelled turn still gets recorded.
	if err := t.store.Append(context.WithoutCancel(ctx), id, msgs...); err != nil {
		t.logger.Warn("could not record history", "session", id, "error", err)
	}
}
