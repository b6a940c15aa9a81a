package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/ruizlenato/tunefetch/internal/config"
	"github.com/ruizlenato/tunefetch/internal/database/cache"
	"github.com/ruizlenato/tunefetch/internal/localization"
	"github.com/ruizlenato/tunefetch/internal/media/downloader"
	"github.com/ruizlenato/tunefetch/internal/media/relay"
	"github.com/ruizlenato/tunefetch/internal/media/youtube"
	"github.com/ruizlenato/tunefetch/internal/modules"
	"github.com/ruizlenato/tunefetch/internal/trending"
	"github.com/ruizlenato/tunefetch/internal/utils"
)

func initializeServices() (modules.Services, error) {
	if err := localization.LoadLanguages(); err != nil {
		return modules.Services{}, fmt.Errorf("load languages: %w", err)
	}

	if err := os.MkdirAll(config.DownloadsDir, 0o755); err != nil {
		return modules.Services{}, fmt.Errorf("create downloads directory: %w", err)
	}

	if config.RedisAddr != "" {
		if err := cache.RedisClient(config.RedisAddr, config.RedisPassword, config.RedisDB); err != nil {
			fmt.Println("\033[0;31mRedis cache is currently unavailable.\033[0m")
			slog.Debug("Redis connection failed",
				"addr", config.RedisAddr,
				"error", err.Error())
		}
	}

	settings, err := config.LoadTrending(config.TrendingConfig)
	if err != nil {
		slog.Error("Invalid trending settings, using defaults",
			"file", config.TrendingConfig,
			"error", err.Error())
	}

	resolver := youtube.New(
		youtube.WithYtDlpPath(config.YtDlpPath),
		youtube.WithSearchTimeout(config.SearchTimeout),
		youtube.WithSearchCacheTTL(config.SearchCacheTTL),
		youtube.WithSocks5Proxy(config.Socks5Proxy),
	)

	caller := utils.DefaultFastHTTPCaller
	caller.UseSocks5Proxy(config.Socks5Proxy)

	return modules.Services{
		Resolver: resolver,
		Relay:    relay.New(relay.WithSocks5Proxy(config.Socks5Proxy)),
		Downloader: downloader.New(resolver, downloader.NewFFmpeg(config.FFmpegPath), config.DownloadsDir).
			WithTimeout(config.DownloadTimeout),
		Trending: trending.New(
			trending.NewAPI(config.YouTubeAPIURL, config.YouTubeAPIKey, caller),
			trending.NewFileStore(config.DataDir),
			settings,
		),
	}, nil
}

type ColorHandler struct {
	handler slog.Handler
	out     io.Writer
	colors  map[slog.Level]string
	opts    *slog.HandlerOptions
}

func NewColorHandler(out io.Writer, opts *slog.HandlerOptions) *ColorHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}

	return &ColorHandler{
		handler: slog.NewTextHandler(out, opts),
		out:     out,
		opts:    opts,
		colors: map[slog.Level]string{
			slog.LevelError: "\033[0;31m", // red
			slog.LevelWarn:  "\033[0;33m", // yellow
			slog.LevelInfo:  "\033[0;36m", // cyan
			slog.LevelDebug: "\033[0;32m", // green
		},
	}
}

func (h *ColorHandler) Handle(ctx context.Context, r slog.Record) error {
	timestamp := r.Time.Format("[01/02 15:04:05]")
	colorCode, ok := h.colors[r.Level]
	if !ok {
		colorCode = "\033[0m"
	}

	colorReset := "\033[0m"
	colorGray := "\033[90m"
	colorWhiteBold := "\033[1;37m"

	attrs := make(map[string]any)
	if h.opts.AddSource && r.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{r.PC})
		if frame, _ := frames.Next(); frame.File != "" {
			file := frame.File
			if wd, err := os.Getwd(); err == nil {
				if rel, err := filepath.Rel(wd, file); err == nil {
					file = "./" + rel
				}
			}
			attrs["source"] = file + ":" + strconv.Itoa(frame.Line)
		}
	}

	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "" {
			attrs[a.Key] = a.Value.Any()
		}
		return true
	})

	var jsonAttrs string
	if len(attrs) > 0 {
		jsonBytes, err := json.Marshal(attrs)
		if err == nil {
			jsonAttrs = " " + string(jsonBytes)
		}
	}

	msg := fmt.Sprintf("%s%s %s%s%s: %s%s%s\n",
		colorGray,
		timestamp,
		colorCode,
		r.Level.String(),
		colorWhiteBold,
		r.Message,
		colorReset,
		jsonAttrs,
	)

	_, err := h.out.Write([]byte(msg))
	return err
}

func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ColorHandler{
		handler: h.handler.WithAttrs(attrs),
		out:     h.out,
		opts:    h.opts,
		colors:  h.colors,
	}
}

func (h *ColorHandler) WithGroup(name string) slog.Handler {
	return &ColorHandler{
		handler: h.handler.WithGroup(name),
		out:     h.out,
		opts:    h.opts,
		colors:  h.colors,
	}
}

func (h *ColorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}
