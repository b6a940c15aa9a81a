package youtube

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/ruizlenato/tunefetch/internal/media"
)

const (
	DefaultSearchLimit   = 5
	DefaultSearchTimeout = 45 * time.Second
	watchURL             = "https://www.youtube.com/watch?v="
)

// WatchURL is the canonical page URL of a video.
func WatchURL(videoID string) string {
	return watchURL + videoID
}

type videoClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamURLContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (string, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// Resolver finds videos and their renditions. Search goes through yt-dlp in
// flat mode, everything else through the YouTube player API.
type Resolver struct {
	client        videoClient
	ytDlpPath     string
	searchTimeout time.Duration
	cacheTTL      time.Duration
	cache         searchCache
	run           searchRunner
}

type Option func(*Resolver)

func WithYtDlpPath(path string) Option {
	return func(r *Resolver) {
		if path != "" {
			r.ytDlpPath = path
		}
	}
}

func WithSearchTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		if timeout > 0 {
			r.searchTimeout = timeout
		}
	}
}

// WithSearchCacheTTL enables caching of search results for ttl.
func WithSearchCacheTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cacheTTL = ttl
	}
}

func WithSocks5Proxy(proxy string) Option {
	return func(r *Resolver) {
		if proxy == "" {
			return
		}
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			slog.Error("Invalid SOCKS5 proxy, ignoring it",
				"error", err.Error())
			return
		}
		r.client = &youtube.Client{
			HTTPClient: &http.Client{
				Transport: &http.Transport{
					Proxy: http.ProxyURL(proxyURL),
				},
			},
		}
	}
}

func New(opts ...Option) *Resolver {
	r := &Resolver{
		client:        &youtube.Client{},
		ytDlpPath:     "yt-dlp",
		searchTimeout: DefaultSearchTimeout,
		cache:         redisCache{},
		run:           runSearch,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve loads the full format list of a video. Stream URLs are deciphered
// for every format that carries audio; audio formats whose URL cannot be
// obtained are left out, and the video fails to resolve when that leaves
// none of them.
func (r *Resolver) Resolve(ctx context.Context, videoID string) (*media.Descriptor, error) {
	video, err := r.client.GetVideoContext(ctx, WatchURL(videoID))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", media.ErrResolutionFailed, err)
	}

	descriptor := &media.Descriptor{
		ID:       video.ID,
		Title:    video.Title,
		Author:   video.Author,
		Duration: video.Duration,
		Formats:  make([]media.Format, 0, len(video.Formats)),
	}

	var (
		audioFormats int
		lastErr      error
	)
	for i := range video.Formats {
		format := toFormat(video.Formats[i])
		if format.HasAudio() {
			audioFormats++
			streamURL, err := r.client.GetStreamURLContext(ctx, video, &video.Formats[i])
			if err != nil {
				slog.Debug("Skipping format without stream URL",
					"video", videoID,
					"itag", format.Itag,
					"error", err.Error())
				lastErr = err
				continue
			}
			format.URL = streamURL
		}
		descriptor.Formats = append(descriptor.Formats, format)
	}

	if audioFormats > 0 && !hasAudio(descriptor.Formats) {
		return nil, fmt.Errorf("%w: no audio stream URL could be obtained: %w", media.ErrResolutionFailed, lastErr)
	}

	return descriptor, nil
}

// FetchAudio opens the best audio rendition of a video, falling back to a
// muxed rendition when the video has no audio-only one.
func (r *Resolver) FetchAudio(ctx context.Context, videoID string) (io.ReadCloser, error) {
	video, err := r.client.GetVideoContext(ctx, WatchURL(videoID))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", media.ErrResolutionFailed, err)
	}

	formats := make([]media.Format, 0, len(video.Formats))
	for _, format := range video.Formats {
		formats = append(formats, toFormat(format))
	}

	best, err := media.SelectBestAudioOrMuxed(formats)
	if err != nil {
		return nil, err
	}

	candidates := video.Formats.Itag(best.Itag)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: itag %d vanished", media.ErrResolutionFailed, best.Itag)
	}

	stream, _, err := r.client.GetStreamContext(ctx, video, &candidates[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", media.ErrResolutionFailed, err)
	}

	slog.Debug("Fetching audio",
		"video", videoID,
		"itag", best.Itag,
		"mime", best.MimeType)
	return stream, nil
}

func hasAudio(formats []media.Format) bool {
	for _, format := range formats {
		if format.HasAudio() {
			return true
		}
	}
	return false
}

func toFormat(f youtube.Format) media.Format {
	format := media.Format{
		Itag:          f.ItagNo,
		MimeType:      f.MimeType,
		AudioChannels: f.AudioChannels,
		ContentLength: f.ContentLength,
		URL:           f.URL,
	}
	if f.AverageBitrate > 0 {
		format.AverageBitrate = strconv.Itoa(f.AverageBitrate)
	}

	format.AudioCodec, format.VideoCodec = parseCodecs(f.MimeType, f.AudioChannels)
	return format
}

// parseCodecs splits a MIME type such as `video/mp4; codecs="avc1.4d401e, mp4a.40.2"`
// into its audio and video codecs.
func parseCodecs(mimeType string, audioChannels int) (audioCodec, videoCodec string) {
	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return "", ""
	}

	var codecs []string
	for _, codec := range strings.Split(params["codecs"], ",") {
		if codec = strings.TrimSpace(codec); codec != "" {
			codecs = append(codecs, codec)
		}
	}

	kind, _, _ := strings.Cut(mediaType, "/")
	switch kind {
	case "audio":
		if len(codecs) == 0 {
			return "unknown", ""
		}
		return codecs[0], ""
	case "video":
		switch {
		case len(codecs) >= 2:
			return codecs[1], codecs[0]
		case len(codecs) == 1 && audioChannels > 0:
			return "unknown", codecs[0]
		case len(codecs) == 1:
			return "", codecs[0]
		default:
			return "", "unknown"
		}
	}
	return "", ""
}
