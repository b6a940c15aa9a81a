package songs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/ruizlenato/tunefetch/internal/media"
	"github.com/ruizlenato/tunefetch/internal/media/downloader"
	"github.com/ruizlenato/tunefetch/internal/media/relay"
	"github.com/ruizlenato/tunefetch/internal/media/youtube"
	"github.com/ruizlenato/tunefetch/internal/utils"
)

const searchLimit = youtube.DefaultSearchLimit

type Resolver interface {
	Search(ctx context.Context, query string, limit int) ([]media.SearchResult, error)
	Resolve(ctx context.Context, videoID string) (*media.Descriptor, error)
}

type Opener interface {
	Open(ctx context.Context, url string) (*relay.Stream, error)
}

type Downloader interface {
	Download(ctx context.Context, videoID string) (string, error)
}

type Handler struct {
	resolver   Resolver
	relay      Opener
	downloader Downloader
}

func New(resolver Resolver, opener Opener, downloader Downloader) *Handler {
	return &Handler{
		resolver:   resolver,
		relay:      opener,
		downloader: downloader,
	}
}

func (h *Handler) Load(r *router.Router) {
	r.POST("/youtube", h.search)
	r.POST("/download", h.download)
	r.GET("/stream/{video_id}", h.stream)
}

type searchRequest struct {
	SongName *string `json:"song_name"`
}

type searchResponse struct {
	Results []media.SearchResult `json:"results"`
}

func (h *Handler) search(ctx *fasthttp.RequestCtx) {
	i18n := utils.I18n(ctx)

	var request searchRequest
	if err := utils.DecodeJSON(ctx, &request); err != nil {
		utils.WriteDetail(ctx, fasthttp.StatusUnprocessableEntity, i18n("request.invalid-json"))
		return
	}
	if request.SongName == nil {
		utils.WriteDetail(ctx, fasthttp.StatusUnprocessableEntity, fmt.Sprintf(i18n("request.missing-field"), "song_name"))
		return
	}

	results, err := h.resolver.Search(ctx, *request.SongName, searchLimit)
	if errors.Is(err, youtube.ErrEmptyQuery) {
		utils.WriteDetail(ctx, fasthttp.StatusUnprocessableEntity, fmt.Sprintf(i18n("request.missing-field"), "song_name"))
		return
	}
	if err != nil {
		slog.Error("Search failed",
			"request_id", utils.RequestID(ctx),
			"query", *request.SongName,
			"error", err.Error())
		utils.WriteError(ctx, fasthttp.StatusInternalServerError, i18n("songs.search-failed"))
		return
	}

	if results == nil {
		results = []media.SearchResult{}
	}
	utils.WriteJSON(ctx, fasthttp.StatusOK, searchResponse{Results: results})
}

type downloadRequest struct {
	VideoID *string `json:"video_id"`
}

type downloadResponse struct {
	Message     string `json:"message"`
	DownloadURL string `json:"download_url"`
}

func (h *Handler) download(ctx *fasthttp.RequestCtx) {
	i18n := utils.I18n(ctx)

	var request downloadRequest
	if err := utils.DecodeJSON(ctx, &request); err != nil {
		utils.WriteDetail(ctx, fasthttp.StatusUnprocessableEntity, i18n("request.invalid-json"))
		return
	}
	if request.VideoID == nil {
		utils.WriteDetail(ctx, fasthttp.StatusUnprocessableEntity, fmt.Sprintf(i18n("request.missing-field"), "video_id"))
		return
	}
	videoID := *request.VideoID

	_, err := h.downloader.Download(ctx, videoID)
	switch {
	case errors.Is(err, utils.ErrInvalidVideoID):
		utils.WriteError(ctx, fasthttp.StatusBadRequest, i18n("request.invalid-video-id"))
		return
	case err != nil:
		slog.Error("Download failed",
			"request_id", utils.RequestID(ctx),
			"video", videoID,
			"error", err.Error())
		utils.WriteError(ctx, fasthttp.StatusInternalServerError, i18n("songs.download-failed"))
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, downloadResponse{
		Message:     i18n("songs.downloaded"),
		DownloadURL: "/downloads/" + downloader.FileName(videoID),
	})
}

func (h *Handler) stream(ctx *fasthttp.RequestCtx) {
	i18n := utils.I18n(ctx)
	videoID, _ := ctx.UserValue("video_id").(string)

	if err := utils.ValidateVideoID(videoID); err != nil {
		utils.WriteError(ctx, fasthttp.StatusBadRequest, i18n("request.invalid-video-id"))
		return
	}

	descriptor, err := h.resolver.Resolve(ctx, videoID)
	if err != nil {
		slog.Error("Could not resolve video",
			"request_id", utils.RequestID(ctx),
			"video", videoID,
			"error", err.Error())
		utils.WriteError(ctx, fasthttp.StatusInternalServerError, i18n("songs.resolve-failed"))
		return
	}

	format, err := media.SelectBestAudio(descriptor.Formats)
	if errors.Is(err, media.ErrNoAudioStream) {
		utils.WriteError(ctx, fasthttp.StatusOK, i18n("songs.no-audio-stream"))
		return
	}

	// The body is written after the handler returns, so the upstream
	// request must not depend on the lifetime of ctx.
	streamCtx, cancel := context.WithCancel(context.Background())
	stream, err := h.relay.Open(streamCtx, format.URL)
	if err != nil {
		cancel()
		slog.Error("Could not open audio stream",
			"request_id", utils.RequestID(ctx),
			"video", videoID,
			"itag", format.Itag,
			"error", err.Error())
		if errors.Is(err, relay.ErrUpstreamStatus) {
			utils.WriteError(ctx, fasthttp.StatusBadGateway, i18n("songs.upstream-failed"))
			return
		}
		utils.WriteError(ctx, fasthttp.StatusInternalServerError, i18n("songs.resolve-failed"))
		return
	}

	requestID := utils.RequestID(ctx)
	ctx.SetContentType("audio/mpeg")
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer stream.Close()

		for chunk, err := range stream.Chunks() {
			if err != nil {
				slog.Error("Audio stream interrupted",
					"request_id", requestID,
					"video", videoID,
					"error", err.Error())
				return
			}
			if _, err := w.Write(chunk); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				slog.Debug("Client went away during stream",
					"request_id", requestID,
					"video", videoID)
				return
			}
		}
	})
}
