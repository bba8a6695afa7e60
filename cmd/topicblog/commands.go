package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eringen/topicblog"
	"github.com/eringen/topicblog/content"
	"github.com/eringen/topicblog/internal/logfields"
)

func newBuildCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Generate every enumerable page into OUTPUT_DIR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := topicblog.LoadConfig()
			if err != nil {
				return err
			}
			src, release, err := opts.openSource(cfg)
			if err != nil {
				return err
			}
			defer release()

			app := topicblog.New(cfg, src, topicblog.ViewFuncs{}, topicblog.WithLogger(opts.log))
			defer app.Close()

			report, err := app.Build(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "build %s: %d pages, %d deferred to request time\n",
				report.ID, len(report.Pages), len(report.Deferred))
			return nil
		},
	}
}

func newServeCmd(opts *options) *cobra.Command {
	var noBuild bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build the site, then serve it with on-demand article generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := topicblog.LoadConfig()
			if err != nil {
				return err
			}
			src, release, err := opts.openSource(cfg)
			if err != nil {
				return err
			}
			defer release()

			app := topicblog.New(cfg, src, topicblog.ViewFuncs{}, topicblog.WithLogger(opts.log))
			defer app.Close()

			if !noBuild {
				if _, err := app.Build(cmd.Context()); err != nil {
					if !exists(filepath.Join(cfg.OutputDir, "index.html")) {
						return err
					}
					opts.log.Warn("build failed, serving previous output", logfields.Error(err))
				}
			}
			return app.Start(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&noBuild, "no-build", false, "serve the existing OUTPUT_DIR without building first")
	return cmd
}

func newSyncCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Copy all content reachable from the CMS into the SQLite snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := topicblog.ParseConfig()
			if err != nil {
				return err
			}
			cfg.ContentSource = topicblog.SourceCMS
			if err := cfg.Validate(); err != nil {
				return err
			}
			cms, release, err := opts.openSource(cfg)
			if err != nil {
				return err
			}
			defer release()

			snap, err := content.Capture(cmd.Context(), cms, cfg.BuildConcurrency)
			if err != nil {
				return fmt.Errorf("capture: %w", err)
			}
			return importSnapshot(cmd, opts, cfg.DatabasePath, snap)
		},
	}
}

func newSeedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Import a YAML content snapshot into the SQLite store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := topicblog.ParseConfig()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			snap, err := content.LoadSnapshot(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return importSnapshot(cmd, opts, cfg.DatabasePath, snap)
		},
	}
}

func importSnapshot(cmd *cobra.Command, opts *options, dbPath string, snap content.Snapshot) error {
	store, err := content.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Import(cmd.Context(), snap); err != nil {
		return err
	}
	opts.log.Info("snapshot imported",
		logfields.Path(dbPath),
		slog.Int("topics", len(snap.Topics)),
		slog.Int("articles", len(snap.Articles)))
	return nil
}
