// Package aiopscmder provides the aiops command, which asks the backend to
// analyze the current system alerts and prints the report.
package aiopscmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/superbiz/cmd/superbiz/cmdenv"
	"github.com/papercomputeco/superbiz/pkg/client"
	"github.com/papercomputeco/superbiz/pkg/cliui"
	"github.com/papercomputeco/superbiz/pkg/config"
)

type aiopsCommander struct {
	apiBase  string
	timeout  time.Duration
	traceDir string
	noStream bool

	env *cmdenv.Env
}

const aiopsLongDesc string = `Run an AI ops analysis of the current system alerts.

The report streams in as the analysis runs. Pass --no-stream to wait for
the whole report instead. Without a problem statement the backend is
asked to "Analyze the current system alerts".

Examples:
  superbiz aiops
  superbiz aiops "Checkout latency doubled since the last deploy"
  superbiz aiops --no-stream --timeout 10m`

const aiopsShortDesc string = "Analyze system alerts"

func NewAIOpsCmd() *cobra.Command {
	cmder := &aiopsCommander{}

	cmd := &cobra.Command{
		Use:   "aiops [problem]",
		Short: aiopsShortDesc,
		Long:  aiopsLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.env, err = cmdenv.Setup(cmd,
				config.FlagAPIBase,
				config.FlagAIOpsTimeout,
				config.FlagTraceDir,
			)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer cmder.env.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return cmder.run(ctx, cmd.OutOrStdout(), strings.Join(args, " "))
		},
	}

	config.AddStringFlag(cmd, config.ClientFlags, config.FlagAPIBase, &cmder.apiBase)
	config.AddDurationFlag(cmd, config.ClientFlags, config.FlagAIOpsTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagTraceDir, &cmder.traceDir)
	cmd.Flags().BoolVar(&cmder.noStream, "no-stream", false, "Wait for the whole report instead of streaming it")

	return cmd
}

func (c *aiopsCommander) run(ctx context.Context, out io.Writer, problem string) error {
	if strings.TrimSpace(problem) == "" {
		problem = client.DefaultProblem
	}
	fmt.Fprintf(out, "\n  %s %s\n\n", cliui.KeyStyle.Render("Problem:"), cliui.ValueStyle.Render(problem))

	if c.noStream {
		return c.runQuick(ctx, out, problem)
	}
	return c.runStream(ctx, out, problem)
}

func (c *aiopsCommander) runQuick(ctx context.Context, out io.Writer, problem string) error {
	var resp *client.AIOpsResponse
	call := func() error {
		var err error
		resp, err = c.env.Client.AIOps(ctx, problem)
		return err
	}

	var err error
	if cliui.IsTerminal(out) {
		err = cliui.Step(out, "Analyzing", call)
	} else {
		err = call()
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, cliui.RenderAnswer(out, resp.Report))
	return nil
}

func (c *aiopsCommander) runStream(ctx context.Context, out io.Writer, problem string) error {
	start := time.Now()
	printed := 0

	outcome, err := c.env.Client.AIOpsStream(ctx, problem, func(text string) {
		if len(text) > printed {
			fmt.Fprint(out, text[printed:])
			printed = len(text)
		}
	})
	if err != nil {
		return err
	}
	if printed > 0 {
		fmt.Fprintln(out)
	}

	c.env.Logger.Debug("analysis finished",
		"status", outcome.Status.String(),
		"last_event", outcome.LastEvent,
		"elapsed", time.Since(start).String(),
	)

	if !outcome.Completed() {
		return fmt.Errorf("analysis failed: %w", outcome.Err)
	}

	fmt.Fprintf(out, "\n  %s %s\n", cliui.SuccessMark,
		cliui.DimStyle.Render("done in "+cliui.FormatDuration(time.Since(start))))
	return nil
}
