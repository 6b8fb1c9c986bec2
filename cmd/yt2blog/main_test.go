package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/yt2blog/internal/blogger"
	"github.com/Corphon/yt2blog/internal/metrics"
	"github.com/Corphon/yt2blog/internal/services"
	"github.com/Corphon/yt2blog/internal/storage"
	"github.com/Corphon/yt2blog/internal/transcript"
	"github.com/Corphon/yt2blog/internal/utils"
)

type stubResolver struct{ source transcript.Source }

func (r stubResolver) Resolve(ctx context.Context, videoID string, reporter transcript.Reporter) (*transcript.Transcript, error) {
	return &transcript.Transcript{VideoID: videoID, Text: "words", Source: r.source}, nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, text, title string) (string, error) {
	return "# Article", nil
}

type stubPublisher struct{ status int }

func (p stubPublisher) Publish(ctx context.Context, post blogger.Post) (*blogger.PublishResult, error) {
	return &blogger.PublishResult{StatusCode: p.status, Body: "body"}, nil
}

func newPipeline(source transcript.Source, status int) *services.PipelineService {
	return services.NewPipelineService(stubResolver{source: source}, stubGenerator{}, stubPublisher{status: status},
		storage.NewMemoryStore(10, time.Hour), metrics.New(), utils.NopLogger())
}

func newTestCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetContext(context.Background())
	return cmd, &out, &errOut
}

func TestRunGeneratePrintsArticle(t *testing.T) {
	cmd, out, errOut := newTestCmd()

	err := runGenerate(cmd, newPipeline(transcript.SourceDirect, 200), "https://youtu.be/dQw4w9WgXcQ", false)
	require.NoError(t, err)
	assert.Equal(t, "# Article\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestRunGenerateWarnsAndPublishes(t *testing.T) {
	cmd, _, errOut := newTestCmd()

	err := runGenerate(cmd, newPipeline(transcript.SourceTranscribed, 200), "https://youtu.be/dQw4w9WgXcQ", true)
	require.NoError(t, err)
	assert.Contains(t, errOut.String(), "transcribed audio")
	assert.Contains(t, errOut.String(), "article published")
}

func TestRunGeneratePublishRejected(t *testing.T) {
	cmd, _, _ := newTestCmd()

	err := runGenerate(cmd, newPipeline(transcript.SourceDirect, 403), "https://youtu.be/dQw4w9WgXcQ", true)
	assert.ErrorContains(t, err, "status 403")
}

func TestGenerateRequiresURL(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"generate"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	assert.ErrorContains(t, err, `required flag(s) "url" not set`)
}
