package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/eringen/topicblog"
	"github.com/eringen/topicblog/content"
)

type options struct {
	verbose   bool
	logFormat string
	envFile   string

	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "topicblog",
		Short: "Static topic blog generator for headless CMS content",
		Long: `topicblog pre-renders a blog of topics and articles from a headless CMS
(or a local SQLite snapshot of it) and serves the result, generating
articles published after the build on first request.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "environment file loaded before reading configuration")

	root.AddCommand(
		newBuildCmd(opts),
		newServeCmd(opts),
		newSyncCmd(opts),
		newSeedCmd(opts),
		newVersionCmd(),
	)
	return root
}

func (o *options) init(w io.Writer) error {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", o.envFile, err)
		}
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	switch o.logFormat {
	case "text":
		o.log = slog.New(slog.NewTextHandler(w, handlerOpts))
	case "json":
		o.log = slog.New(slog.NewJSONHandler(w, handlerOpts))
	default:
		return fmt.Errorf("unknown log format %q", o.logFormat)
	}
	slog.SetDefault(o.log)
	return nil
}

// openSource opens the configured content source. The returned func
// releases it.
func (o *options) openSource(cfg topicblog.SiteConfig) (content.Source, func(), error) {
	src, err := topicblog.OpenSource(cfg, o.log)
	if err != nil {
		return nil, nil, err
	}
	release := func() {}
	if c, ok := src.(io.Closer); ok {
		release = func() {
			if err := c.Close(); err != nil {
				o.log.Warn("close content source", slog.Any("error", err))
			}
		}
	}
	return src, release, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the topicblog version",
		Args:  cobra.NoArgs,
		// Skips the root's logger and env setup.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "topicblog %s\n", version)
		},
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
