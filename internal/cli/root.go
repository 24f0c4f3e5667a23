// Package cli is the hunteros command line: the API server plus client
// commands for the widget builder, template store and widget bindings.
package cli

import (
	"fmt"
	"os"
	"strconv"

	"hunteros-backend/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// commands annotated with this key configure logging themselves
const ownLoggerAnnotation = "own-logger"

// clientOptions are the connection settings shared by the client commands.
type clientOptions struct {
	server   string
	token    string
	logLevel string
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &clientOptions{}

	root := &cobra.Command{
		Use:           "hunteros",
		Short:         "HunterOS custom widget service",
		Long:          `hunteros serves the custom widget API and talks to it from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := cmd.Annotations[ownLoggerAnnotation]; ok {
				return nil
			}
			return logger.InitLogger(&logger.Config{Level: opts.logLevel, ConsoleOnly: true})
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.server, "server", envOr("HUNTEROS_URL", "http://localhost:8080"), "API base URL")
	flags.StringVar(&opts.token, "token", os.Getenv("HUNTEROS_TOKEN"), "Bearer token for the API")
	flags.StringVar(&opts.logLevel, "log-level", "WARN", "Log level for client commands")

	root.AddCommand(
		newVersionCmd(),
		newServeCmd(),
		newGenerateCmd(opts),
		newRenderCmd(),
		newTemplatesCmd(opts),
		newWidgetCmd(opts),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{ownLoggerAnnotation: ""},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hunteros %s (built %s)\n", version, buildTime)
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return uint(id), nil
}
