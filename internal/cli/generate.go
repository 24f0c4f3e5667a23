package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"hunteros-backend/internal/generation"
	"hunteros-backend/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type generateOptions struct {
	currentFile string
	title       string
	output      string
	quiet       bool
}

func newGenerateCmd(client *clientOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate <instruction>",
		Short: "Generate widget code with the widget builder",
		Long: `Streams a widget builder generation to stdout. With --current-file the
existing widget code is sent along so the instruction edits it in place.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, client, opts, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&opts.currentFile, "current-file", "f", "", "File with the widget's current code")
	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "The widget's current title")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the generated code to this file")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not echo the stream; print only the final code")
	return cmd
}

func runGenerate(cmd *cobra.Command, client *clientOptions, opts *generateOptions, message string) error {
	req := generation.Request{Message: message, CurrentTitle: opts.title}
	if opts.currentFile != "" {
		raw, err := os.ReadFile(opts.currentFile)
		if err != nil {
			return fmt.Errorf("failed to read current code: %w", err)
		}
		req.CurrentCode = string(raw)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	printed := 0
	session := generation.NewSession(generation.NewClient(client.server, client.token, nil), func(s generation.Snapshot) {
		if opts.quiet || s.State != generation.StateStreaming || len(s.Partial) <= printed {
			return
		}
		fmt.Fprint(out, s.Partial[printed:])
		printed = len(s.Partial)
	})

	result, err := session.Run(ctx, req)
	if printed > 0 {
		fmt.Fprintln(out)
	}
	if err != nil {
		var backendErr *generation.BackendError
		switch {
		case errors.As(err, &backendErr):
			return fmt.Errorf("widget builder: %s", backendErr.Message)
		case ctx.Err() != nil:
			return generation.ErrCancelled
		}
		return err
	}

	if result.MalformedFrames > 0 {
		logger.Log.Warn("skipped malformed frames", zap.Int("count", result.MalformedFrames))
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "title: %s\n", result.Title)
	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(result.Code), 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", opts.output)
	} else if opts.quiet {
		fmt.Fprintln(out, result.Code)
	}
	return nil
}
