// internal/audio/downloader.go
package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/Corphon/yt2blog/internal/config"
	apperrors "github.com/Corphon/yt2blog/internal/errors"
	"github.com/Corphon/yt2blog/internal/utils"
	"github.com/Corphon/yt2blog/internal/youtube"
)

// Downloader fetches the audio track of a video into a local file.
type Downloader interface {
	Download(ctx context.Context, videoID string) (string, error)
}

// runner executes one yt-dlp invocation; swapped out in tests.
type runner func(ctx context.Context, cmd *ytdlp.Command, url string) error

// YTDLPDownloader downloads audio with yt-dlp using the stored session cookies.
type YTDLPDownloader struct {
	workDir    string
	cookieFile string
	format     string
	logger     *utils.Logger
	run        runner
}

// NewYTDLPDownloader creates a downloader from the application config.
func NewYTDLPDownloader(cfg *config.Config, logger *utils.Logger) *YTDLPDownloader {
	return &YTDLPDownloader{
		workDir:    cfg.WorkDir,
		cookieFile: cfg.Downloader.CookieFile,
		format:     cfg.Downloader.Format,
		logger:     logger,
		run: func(ctx context.Context, cmd *ytdlp.Command, url string) error {
			_, err := cmd.Run(ctx, url)
			return err
		},
	}
}

// OutputPath is the file written for videoID: <workdir>/<id>.mp3.
func (d *YTDLPDownloader) OutputPath(videoID string) string {
	return filepath.Join(d.workDir, videoID+".mp3")
}

// command builds the yt-dlp invocation for output.
func (d *YTDLPDownloader) command(output, cookieFile string) *ytdlp.Command {
	cmd := ytdlp.New().
		Format(d.format).
		Output(output).
		NoPlaylist().
		ForceOverwrites().
		Quiet()

	if cookieFile != "" {
		cmd = cmd.Cookies(cookieFile)
	}
	return cmd
}

// Download writes the best available audio of videoID and returns its path.
func (d *YTDLPDownloader) Download(ctx context.Context, videoID string) (string, error) {
	if videoID == "" {
		return "", apperrors.NewValidationError("video id is empty", nil)
	}
	cookieFile := d.cookieFile
	if cookieFile != "" {
		if _, err := os.Stat(cookieFile); err != nil {
			d.logger.Warn("cookie file not readable, downloading without session", map[string]interface{}{
				"cookie_file": cookieFile,
				"error":       err.Error(),
			})
			cookieFile = ""
		}
	}
	if err := os.MkdirAll(d.workDir, 0755); err != nil {
		return "", apperrors.NewProcessingError("create work directory", err)
	}

	output := d.OutputPath(videoID)
	start := time.Now()
	d.logger.Info("downloading audio", map[string]interface{}{"video_id": videoID, "output": output})

	if err := d.run(ctx, d.command(output, cookieFile), youtube.WatchURL(videoID)); err != nil {
		return "", apperrors.NewUpstreamError(fmt.Sprintf("download audio for %s", videoID), err)
	}

	if _, err := os.Stat(output); err != nil {
		return "", apperrors.NewProcessingError("downloaded audio file is missing", err)
	}

	d.logger.Info("audio downloaded", map[string]interface{}{
		"video_id": videoID,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	})
	return output, nil
}
