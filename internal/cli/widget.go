package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"hunteros-backend/internal/binding"
	"hunteros-backend/internal/sandbox"

	"github.com/spf13/cobra"
)

func newWidgetCmd(client *clientOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "widget",
		Aliases: []string{"widgets"},
		Short:   "Widget binding commands",
	}
	cmd.AddCommand(newWidgetWatchCmd(client))
	return cmd
}

type watchOptions struct {
	interval time.Duration
	once     bool
	document bool
}

func newWidgetWatchCmd(client *clientOptions) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <widget-id>",
		Short: "Follow what a widget renders as its template changes",
		Long: `Resolves the widget's content and, while it is bound to a template, polls
the template and prints every change. Widgets with inlined code cannot change
and are printed once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runWidgetWatch(cmd, client, opts, id)
		},
	}

	cmd.Flags().DurationVarP(&opts.interval, "interval", "i", binding.DefaultPollInterval,
		fmt.Sprintf("Poll interval, clamped to [%s, %s]", binding.MinPollInterval, binding.MaxPollInterval))
	cmd.Flags().BoolVar(&opts.once, "once", false, "Print the current resolution and exit")
	cmd.Flags().BoolVar(&opts.document, "document", false, "Print the sandbox document instead of the raw code")
	return cmd
}

func runWidgetWatch(cmd *cobra.Command, client *clientOptions, opts *watchOptions, id uint) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := client.store()
	widget, err := store.Widget(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get widget: %w", err)
	}

	content := binding.FromColumns(widget.TemplateID, widget.TemplateName, widget.Code)
	out := cmd.OutOrStdout()

	watcher := binding.NewWatcher(binding.NewResolver(store), content, opts.interval, func(res binding.Resolution) {
		printResolution(out, content.State(), res, opts.document)
		if opts.once {
			cancel()
		}
	})

	if _, live := content.(binding.ByReference); live && !opts.once {
		fmt.Fprintf(cmd.ErrOrStderr(), "watching widget %d every %s\n", id, watcher.Interval())
	}

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printResolution(out io.Writer, state binding.State, res binding.Resolution, document bool) {
	fmt.Fprintf(out, "[%s] %s source=%s", time.Now().Format("15:04:05"), state, res.Source)
	if res.TemplateID != 0 {
		fmt.Fprintf(out, " template=%d", res.TemplateID)
		if res.TemplateName != "" {
			fmt.Fprintf(out, " (%s)", res.TemplateName)
		}
	}
	if res.TemplateMissing {
		fmt.Fprint(out, " template-missing")
	}
	fmt.Fprintln(out)

	if !document {
		if !res.Empty() {
			fmt.Fprintln(out, res.Code)
		}
		return
	}
	frame, err := sandbox.Render(res.Code, sandbox.ModeUntrustedPreview)
	if err != nil {
		fmt.Fprintf(out, "render failed: %v\n", err)
		return
	}
	fmt.Fprintln(out, frame.Document)
}
