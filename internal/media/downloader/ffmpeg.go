package downloader

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const defaultBitrate = "192k"

// FFmpeg transcodes through the ffmpeg binary.
type FFmpeg struct {
	BinPath string
	Bitrate string

	run func(ctx context.Context, name string, args ...string) error
}

func NewFFmpeg(binPath string) *FFmpeg {
	if binPath == "" {
		binPath = "ffmpeg"
	}
	return &FFmpeg{
		BinPath: binPath,
		Bitrate: defaultBitrate,
		run:     runFFmpeg,
	}
}

func (f *FFmpeg) Transcode(ctx context.Context, input, output string) error {
	return f.run(ctx, f.BinPath, f.args(input, output)...)
}

func (f *FFmpeg) args(input, output string) []string {
	return []string{"-y",
		"-loglevel", "error",
		"-nostdin",
		"-i", input,
		"-vn",
		"-acodec", "libmp3lame",
		"-b:a", f.Bitrate,
		"-f", "mp3",
		output,
	}
}

func runFFmpeg(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w | %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
