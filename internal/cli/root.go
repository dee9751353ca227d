// Package cli wires the queryform commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-queryform/internal/config"
	"github.com/goliatone/go-queryform/pkg/renderers/tui"
)

// Version is set at build time.
var Version = "0.1.0"

type appKey struct{}

// app is the per-invocation state shared by subcommands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	driver tui.PromptDriver
}

// RootOption customises the root command, mostly for tests.
type RootOption func(*rootOptions)

type rootOptions struct {
	driver tui.PromptDriver
	logOut io.Writer
}

// WithPromptDriver replaces the interactive survey driver.
func WithPromptDriver(driver tui.PromptDriver) RootOption {
	return func(o *rootOptions) {
		o.driver = driver
	}
}

// WithLogOutput redirects logs, which default to stderr.
func WithLogOutput(w io.Writer) RootOption {
	return func(o *rootOptions) {
		o.logOut = w
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd(options ...RootOption) *cobra.Command {
	opts := rootOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}

	var cfgFile string
	rootCmd := &cobra.Command{
		Use:     "queryform",
		Short:   "Render and drive the text search query form",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			logOut := opts.logOut
			if logOut == nil {
				logOut = cmd.ErrOrStderr()
			}
			logger, err := newLogger(logOut, cfg.Log)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, appKey{}, &app{
				cfg:    cfg,
				logger: logger,
				driver: opts.driver,
			}))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./"+config.FileName+")")
	flags.String("catalog", "", "YAML file listing the selectable texts")
	flags.String("schema", "", "OpenAPI document replacing the embedded form schema")
	flags.String("renderer", "", "renderer used by the render command (vanilla|tui)")
	flags.StringP("output", "o", "", "record format for the terminal renderer (json|form|pretty)")
	flags.String("submit-label", "", "submit button text")
	flags.Int("max-attempts", 0, "correction rounds after a blocked submit")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("log-format", "", "log format (text|json)")
	flags.String("theme", "", "theme name")
	flags.String("variant", "", "theme variant")
	flags.String("stylesheet", "", "external stylesheet linked from the form")
	flags.Bool("default-styles", false, "inline the built-in stylesheet")

	_ = rootCmd.RegisterFlagCompletionFunc("renderer", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"vanilla", "tui"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "form", "pretty"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newPromptCommand())
	rootCmd.AddCommand(newSchemaCommand())
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func appFrom(cmd *cobra.Command) *app {
	if a, ok := cmd.Context().Value(appKey{}).(*app); ok {
		return a
	}
	cfg, _ := config.Load("", nil)
	if cfg == nil {
		cfg = &config.Config{Renderer: "vanilla", Output: "json", MaxAttempts: 3}
	}
	return &app{cfg: cfg, logger: slog.New(slog.DiscardHandler)}
}

func newLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
}
