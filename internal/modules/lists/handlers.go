package lists

import (
	"context"
	"log/slog"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/ruizlenato/tunefetch/internal/trending"
	"github.com/ruizlenato/tunefetch/internal/utils"
)

type Trending interface {
	Refresh(ctx context.Context) error
	Read() (trending.Snapshots, error)
	Playlist(baseURL string) ([]byte, error)
}

type Handler struct {
	trending Trending
}

func New(cache Trending) *Handler {
	return &Handler{trending: cache}
}

func (h *Handler) Load(r *router.Router) {
	r.GET("/", h.refresh)
	r.GET("/lists", h.lists)
	r.GET("/lists/playlist.m3u8", h.playlist)
}

// refresh updates both trending snapshots on every call.
func (h *Handler) refresh(ctx *fasthttp.RequestCtx) {
	i18n := utils.I18n(ctx)

	if err := h.trending.Refresh(ctx); err != nil {
		slog.Error("Could not refresh trending lists",
			"request_id", utils.RequestID(ctx),
			"error", err.Error())
		utils.WriteError(ctx, fasthttp.StatusInternalServerError, i18n("trending.refresh-failed"))
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"message": i18n("trending.updated")})
}

func (h *Handler) lists(ctx *fasthttp.RequestCtx) {
	snapshots, err := h.trending.Read()
	if err != nil {
		slog.Error("Could not read trending lists",
			"request_id", utils.RequestID(ctx),
			"error", err.Error())
		utils.WriteError(ctx, fasthttp.StatusInternalServerError, utils.I18n(ctx)("lists.read-failed"))
		return
	}

	utils.WriteJSON(ctx, fasthttp.StatusOK, snapshots)
}

func (h *Handler) playlist(ctx *fasthttp.RequestCtx) {
	baseURL := string(ctx.URI().Scheme()) + "://" + string(ctx.Host())

	data, err := h.trending.Playlist(baseURL)
	if err != nil {
		slog.Error("Could not build trending playlist",
			"request_id", utils.RequestID(ctx),
			"error", err.Error())
		utils.WriteError(ctx, fasthttp.StatusInternalServerError, utils.I18n(ctx)("lists.playlist-failed"))
		return
	}

	ctx.SetContentType("application/vnd.apple.mpegurl")
	ctx.SetBody(data)
}
