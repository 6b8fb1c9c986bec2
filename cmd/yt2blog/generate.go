// cmd/yt2blog/generate.go
package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Corphon/yt2blog/internal/blogger"
	"github.com/Corphon/yt2blog/internal/models"
	"github.com/Corphon/yt2blog/internal/services"
)

func newGenerateCmd(load appLoader) *cobra.Command {
	var (
		videoURL string
		publish  bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an article from a video",
		Long: `Generate an article from a YouTube video and print it to stdout.

Examples:
  yt2blog generate --url https://www.youtube.com/watch?v=ID
  yt2blog generate --url https://youtu.be/ID --publish`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			return runGenerate(cmd, application.Pipeline(), videoURL, publish)
		},
	}
	cmd.Flags().StringVarP(&videoURL, "url", "u", "", "YouTube video URL")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish the article to Blogger")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func runGenerate(cmd *cobra.Command, pipeline *services.PipelineService, videoURL string, publish bool) error {
	ctx := cmd.Context()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	article, err := pipeline.Generate(ctx, videoURL, nil)
	if err != nil {
		return err
	}
	printArticle(out, errOut, article)

	if !publish {
		return nil
	}
	result, err := pipeline.Publish(ctx, article.ID)
	if err != nil {
		return err
	}
	return reportPublish(errOut, result)
}

func printArticle(out, errOut io.Writer, article *models.Article) {
	if article.Transcribed() {
		fmt.Fprintln(errOut, "warning: no transcript found, the article was written from transcribed audio")
	}
	fmt.Fprintln(out, article.Content)
}

func reportPublish(errOut io.Writer, result *blogger.PublishResult) error {
	if !result.Success() {
		return fmt.Errorf("publishing failed with status %d: %v", result.StatusCode, result.Body)
	}
	fmt.Fprintln(errOut, "article published to Blogger")
	return nil
}
