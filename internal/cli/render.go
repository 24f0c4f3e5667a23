package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"hunteros-backend/internal/sandbox"

	"github.com/spf13/cobra"
)

type renderOptions struct {
	mode    string
	title   string
	iframe  bool
	headers bool
}

func newRenderCmd() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render <file|->",
		Short: "Wrap widget code into a sandbox document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "untrusted", "Isolation mode: untrusted or same-origin")
	cmd.Flags().StringVar(&opts.title, "title", "Widget", "Iframe title, with --iframe")
	cmd.Flags().BoolVar(&opts.iframe, "iframe", false, "Print an embeddable iframe element instead of the document")
	cmd.Flags().BoolVar(&opts.headers, "headers", false, "Print the response headers the document must be served with")
	return cmd
}

func runRender(cmd *cobra.Command, opts *renderOptions, path string) error {
	mode, err := sandbox.ParseMode(opts.mode)
	if err != nil {
		return err
	}

	var raw []byte
	if path == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read code: %w", err)
	}

	frame, err := sandbox.Render(string(raw), mode)
	if err != nil {
		return err
	}

	for _, w := range frame.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}

	out := cmd.OutOrStdout()
	if opts.headers {
		headers := frame.Headers()
		keys := make([]string, 0, len(headers))
		for k := range headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "%s: %s\n", k, headers[k])
		}
		fmt.Fprintln(out)
	}

	if opts.iframe {
		fmt.Fprintln(out, frame.IframeHTML(opts.title))
		return nil
	}
	fmt.Fprint(out, frame.Document)
	return nil
}
