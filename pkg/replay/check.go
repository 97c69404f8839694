package replay

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/papercomputeco/superbiz/pkg/stream"
)

// CheckOptions controls an offline trace check.
type CheckOptions struct {
	// ChunkSize is the read size used for the main run. Zero reads the
	// trace in one chunk.
	ChunkSize int

	// Timeout bounds each run. Zero means no bound.
	Timeout time.Duration

	Logger *slog.Logger
}

// CheckResult is the outcome of one grammar over a trace.
type CheckResult struct {
	Mode    stream.Mode
	Outcome stream.Outcome

	// SplitStable reports whether feeding the trace one byte at a time
	// produced the same text and status as the main run.
	SplitStable bool
}

// Check runs trace through the assembler once per grammar.
func Check(ctx context.Context, trace []byte, opts CheckOptions) []CheckResult {
	modes := []stream.Mode{stream.ModePlain, stream.ModeNamedEvent}
	results := make([]CheckResult, 0, len(modes))

	readSize := opts.ChunkSize
	if readSize <= 0 {
		readSize = max(len(trace), 1)
	}

	for _, mode := range modes {
		src := stream.NewBodySource(ctx, io.NopCloser(bytes.NewReader(trace)),
			stream.WithReadSize(readSize),
			stream.WithDeadline(opts.Timeout),
			stream.WithSourceLogger(opts.Logger),
		)
		out := stream.NewAssembler(mode, stream.WithLogger(opts.Logger)).Run(ctx, src)

		bytewise := stream.NewAssembler(mode).Run(ctx, stream.NewSliceSource(stream.SplitEvery(trace, 1)...))

		results = append(results, CheckResult{
			Mode:        mode,
			Outcome:     out,
			SplitStable: bytewise.Text == out.Text && bytewise.Status == out.Status,
		})
	}

	return results
}
