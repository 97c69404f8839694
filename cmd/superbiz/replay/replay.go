// Package replaycmder provides the replay command, which serves or checks a
// recorded stream trace.
package replaycmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/superbiz/cmd/superbiz/cmdenv"
	"github.com/papercomputeco/superbiz/pkg/cliui"
	"github.com/papercomputeco/superbiz/pkg/replay"
)

type replayCommander struct {
	listen    string
	prefix    string
	chunkSize int
	delay     time.Duration
	check     bool
	timeout   time.Duration
}

const replayLongDesc string = `Replay a recorded stream trace.

Traces are recorded by setting trace.dir (or --trace-dir on chat, ask and
aiops): each stream's raw bytes are written to
<dir>/<endpoint>-<timestamp>.sse.

By default the trace is served on the chat_stream and ai_ops_stream
endpoints, cut into --chunk-size byte chunks with --delay between them,
so the client can be pointed at the replay server:

  superbiz replay traces/chat_stream-20250101T120000-000000.sse
  superbiz ask --api-base http://127.0.0.1:9900/api "anything"

With --check the trace is instead assembled offline in both stream
grammars and the outcomes are printed.

Examples:
  superbiz replay trace.sse --chunk-size 1 --delay 5ms
  superbiz replay trace.sse --check`

const replayShortDesc string = "Serve or check a recorded stream trace"

func NewReplayCmd() *cobra.Command {
	cmder := &replayCommander{}

	cmd := &cobra.Command{
		Use:   "replay <trace>",
		Short: replayShortDesc,
		Long:  replayLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trace, err := replay.LoadTrace(args[0])
			if err != nil {
				return err
			}

			if cmder.check {
				return cmder.runCheck(cmd.Context(), cmd, trace)
			}
			return cmder.runServe(cmd, trace)
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "127.0.0.1:9900", "Address to serve the trace on")
	cmd.Flags().StringVar(&cmder.prefix, "prefix", "/api", "Path prefix of the stream endpoints")
	cmd.Flags().IntVar(&cmder.chunkSize, "chunk-size", 64, "Bytes per chunk (0 = whole trace)")
	cmd.Flags().DurationVar(&cmder.delay, "delay", 0, "Pause before each chunk")
	cmd.Flags().BoolVar(&cmder.check, "check", false, "Assemble the trace offline instead of serving it")
	cmd.Flags().DurationVar(&cmder.timeout, "timeout", 0, "Deadline for each offline run (0 = none)")

	return cmd
}

func (c *replayCommander) runCheck(ctx context.Context, cmd *cobra.Command, trace []byte) error {
	_, debug := cmdenv.GlobalFlags(cmd)
	l := cmdenv.NewLogger(cmd, debug)

	results := replay.Check(ctx, trace, replay.CheckOptions{
		ChunkSize: c.chunkSize,
		Timeout:   c.timeout,
		Logger:    l,
	})

	printResults(cmd.OutOrStdout(), len(trace), results)
	return nil
}

func printResults(out io.Writer, size int, results []replay.CheckResult) {
	fmt.Fprintf(out, "\n  %s %s\n", cliui.KeyStyle.Render("Trace:"), cliui.ValueStyle.Render(cliui.FormatBytes(int64(size))))

	for _, r := range results {
		fmt.Fprintf(out, "\n  %s %s\n", cliui.Mark(r.Outcome.Err), cliui.HeaderStyle.Render(r.Mode.String()))
		fmt.Fprintf(out, "    %s %s\n", cliui.KeyStyle.Render("status:"), r.Outcome.Status)
		if reason := r.Outcome.Reason(); reason != "" {
			fmt.Fprintf(out, "    %s %s\n", cliui.KeyStyle.Render("reason:"), cliui.WarnStyle.Render(reason))
		}
		if r.Outcome.LastEvent != "" {
			fmt.Fprintf(out, "    %s %s\n", cliui.KeyStyle.Render("last event:"), r.Outcome.LastEvent)
		}

		stable := cliui.SuccessMark
		if !r.SplitStable {
			stable = cliui.FailMark
		}
		fmt.Fprintf(out, "    %s %s\n", cliui.KeyStyle.Render("split stable:"), stable)
		fmt.Fprintf(out, "    %s %q\n", cliui.KeyStyle.Render("text:"), r.Outcome.Text)
	}

	fmt.Fprintln(out)
}

func (c *replayCommander) runServe(cmd *cobra.Command, trace []byte) error {
	_, debug := cmdenv.GlobalFlags(cmd)
	l := cmdenv.NewLogger(cmd, debug)

	s := replay.NewServer(replay.Config{
		ListenAddr: c.listen,
		Prefix:     c.prefix,
		ChunkSize:  c.chunkSize,
		Delay:      c.delay,
	}, trace, l)
	defer s.Close()

	errChan := make(chan error, 1)
	go func() {
		if err := s.Run(); err != nil {
			errChan <- fmt.Errorf("replay server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		l.Info("received signal, shutting down", "signal", sig.String())
		return nil
	}
}
