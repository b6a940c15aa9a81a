package downloader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/ruizlenato/tunefetch/internal/utils"
)

var (
	ErrDownloadFailed = errors.New("download failed")
	ErrNotMedia       = errors.New("source is not a media file")
)

const (
	DefaultTimeout = 10 * time.Minute
	sniffLen       = 3072
)

// Fetcher opens the audio of a video.
type Fetcher interface {
	FetchAudio(ctx context.Context, videoID string) (io.ReadCloser, error)
}

// Transcoder converts the media file at input into an MP3 file at output.
type Transcoder interface {
	Transcode(ctx context.Context, input, output string) error
}

type Downloader struct {
	fetcher    Fetcher
	transcoder Transcoder
	dir        string
	timeout    time.Duration
}

func New(fetcher Fetcher, transcoder Transcoder, dir string) *Downloader {
	return &Downloader{
		fetcher:    fetcher,
		transcoder: transcoder,
		dir:        dir,
		timeout:    DefaultTimeout,
	}
}

// WithTimeout bounds a whole download, fetch and transcode included.
func (d *Downloader) WithTimeout(timeout time.Duration) *Downloader {
	if timeout > 0 {
		d.timeout = timeout
	}
	return d
}

// FileName is the name a downloaded video is stored under.
func FileName(videoID string) string {
	return videoID + ".mp3"
}

// Download stores the audio of videoID as <dir>/<videoID>.mp3 and returns the
// file path. An existing file for the same id is replaced.
func (d *Downloader) Download(ctx context.Context, videoID string) (string, error) {
	if err := utils.ValidateVideoID(videoID); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	source, err := d.fetch(ctx, videoID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer os.Remove(source)

	output := filepath.Join(d.dir, fmt.Sprintf(".%s-%s.mp3", videoID, uuid.NewString()))
	if err := d.transcoder.Transcode(ctx, source, output); err != nil {
		os.Remove(output)
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	target := filepath.Join(d.dir, FileName(videoID))
	if err := os.Rename(output, target); err != nil {
		os.Remove(output)
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	slog.Info("Song downloaded",
		"video", videoID,
		"path", target)
	return target, nil
}

// fetch copies the audio of videoID into a temporary file inside the
// downloads directory and returns its path. The file extension follows the
// detected container.
func (d *Downloader) fetch(ctx context.Context, videoID string) (string, error) {
	audio, err := d.fetcher.FetchAudio(ctx, videoID)
	if err != nil {
		return "", err
	}
	defer audio.Close()

	source := bufio.NewReaderSize(audio, sniffLen)
	head, err := source.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	kind := mimetype.Detect(head)
	if isText(kind) {
		return "", fmt.Errorf("%w: detected %s", ErrNotMedia, kind.String())
	}

	file, err := os.CreateTemp(d.dir, "."+videoID+"-*"+kind.Extension())
	if err != nil {
		return "", err
	}

	defer func() {
		if err != nil {
			os.Remove(file.Name())
		}
	}()

	if _, err = io.Copy(file, source); err != nil {
		file.Close()
		return "", err
	}
	if err = file.Close(); err != nil {
		return "", err
	}

	return file.Name(), nil
}

// isText reports whether kind is a text document, such as the HTML error page
// of a CDN.
func isText(kind *mimetype.MIME) bool {
	for m := kind; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
