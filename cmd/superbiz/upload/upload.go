// Package uploadcmder provides the upload command, which adds documents to
// the backend knowledge base.
package uploadcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/superbiz/cmd/superbiz/cmdenv"
	"github.com/papercomputeco/superbiz/pkg/cliui"
	"github.com/papercomputeco/superbiz/pkg/config"
)

type uploadCommander struct {
	apiBase string
	timeout time.Duration

	env *cmdenv.Env
}

const uploadLongDesc string = `Upload documents to the SuperBiz knowledge base.

Each file is checked locally against upload.extensions and
upload.max_bytes before it is sent. The backend splits accepted files
into chunks and indexes them for retrieval.

Examples:
  superbiz upload runbook.md
  superbiz upload docs/*.md`

const uploadShortDesc string = "Upload documents to the knowledge base"

func NewUploadCmd() *cobra.Command {
	cmder := &uploadCommander{}

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: uploadShortDesc,
		Long:  uploadLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.env, err = cmdenv.Setup(cmd, config.FlagAPIBase, config.FlagUploadTimeout)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}

	config.AddStringFlag(cmd, config.ClientFlags, config.FlagAPIBase, &cmder.apiBase)
	config.AddDurationFlag(cmd, config.ClientFlags, config.FlagUploadTimeout, &cmder.timeout)

	return cmd
}

func (c *uploadCommander) run(ctx context.Context, out io.Writer, paths []string) error {
	fmt.Fprintf(out, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Allowed:"),
		cliui.DimStyle.Render(fmt.Sprintf("%s up to %s",
			strings.Join(c.env.Config.Upload.Extensions, " "),
			cliui.FormatBytes(c.env.Config.Upload.MaxBytes),
		)),
	)

	var failed []string
	for _, path := range paths {
		name := filepath.Base(path)

		var chunks int
		err := cliui.Step(out, "Uploading "+name, func() error {
			resp, err := c.env.Client.Upload(ctx, path)
			if err != nil {
				return err
			}
			chunks = resp.Chunks
			return nil
		})
		if err != nil {
			fmt.Fprintf(out, "    %s\n", cliui.WarnStyle.Render(err.Error()))
			failed = append(failed, name)
			continue
		}

		fmt.Fprintf(out, "    %s\n", cliui.DimStyle.Render(fmt.Sprintf("indexed as %d chunks", chunks)))
	}

	fmt.Fprintln(out)

	if len(failed) > 0 {
		return errors.New("upload failed: " + strings.Join(failed, ", "))
	}
	return nil
}
