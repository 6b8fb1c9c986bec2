// cmd/yt2blog/root.go
package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Corphon/yt2blog/internal/app"
	"github.com/Corphon/yt2blog/internal/config"
)

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "yt2blog",
		Short: "Turn YouTube videos into blog articles",
		Long: `yt2blog fetches the transcript of a YouTube video, falling back to
speech-to-text on the downloaded audio, writes an SEO article from it with a
language model and optionally publishes the article to Blogger.

Example usage:
  yt2blog serve                                   # Start the web UI and API
  yt2blog generate --url https://youtu.be/ID      # Print an article
  yt2blog generate --url https://youtu.be/ID --publish`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")

	load := func(ctx context.Context) (*app.App, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		return app.New(ctx, cfg)
	}

	root.AddCommand(newServeCmd(load), newGenerateCmd(load))
	return root
}

// appLoader builds the application for a command.
type appLoader func(ctx context.Context) (*app.App, error)
