package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	YouTubeAPIKey   string
	YouTubeAPIURL   string
	LogLevel        slog.Leveler
	ListenAddr      string
	DownloadsDir    string
	DataDir         string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	Socks5Proxy     string
	YtDlpPath       string
	FFmpegPath      string
	TrendingConfig  string
	SearchTimeout   time.Duration
	SearchCacheTTL  time.Duration
	DownloadTimeout time.Duration
)

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded",
			"error", err.Error())
	}

	Load()
}

// Load reads every setting from the environment, applying defaults for the
// optional ones. It is called once from init and may be called again after
// the environment changes.
func Load() {
	YouTubeAPIKey = os.Getenv("YOUTUBE_API_KEY")
	if YouTubeAPIKey == "" {
		slog.Error(`"YOUTUBE_API_KEY" is not set, trending lists cannot be refreshed`)
	}

	YouTubeAPIURL = getEnv("YOUTUBE_API_URL", "https://www.googleapis.com/youtube/v3")

	LogLevel = parseLogLevel(getEnv("LOG_LEVEL", "ERROR"))

	ListenAddr = getEnv("LISTEN_ADDR", ":8000")
	DownloadsDir = getEnv("DOWNLOADS_DIR", "downloads")
	DataDir = getEnv("DATA_DIR", ".")

	RedisAddr = os.Getenv("REDIS_ADDR")
	RedisPassword = os.Getenv("REDIS_PASSWORD")
	RedisDB, _ = strconv.Atoi(os.Getenv("REDIS_DB"))

	Socks5Proxy = os.Getenv("SOCKS5_PROXY")

	YtDlpPath = getEnv("YTDLP_PATH", "yt-dlp")
	FFmpegPath = getEnv("FFMPEG_PATH", "ffmpeg")

	TrendingConfig = getEnv("TRENDING_CONFIG", "trending.yaml")

	SearchTimeout = parseDuration(os.Getenv("SEARCH_TIMEOUT"), 45*time.Second)
	SearchCacheTTL = parseDuration(os.Getenv("SEARCH_CACHE_TTL"), time.Hour)
	DownloadTimeout = parseDuration(os.Getenv("DOWNLOAD_TIMEOUT"), 10*time.Minute)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}

	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Warn("Invalid duration, using default",
			"value", value,
			"default", fallback.String())
		return fallback
	}
	return d
}

func parseLogLevel(level string) slog.Leveler {
	levels := map[string]slog.Level{
		"ERROR":   slog.LevelError,
		"INFO":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"WARN":    slog.LevelWarn,
	}

	l, ok := levels[level]
	if !ok {
		l = slog.LevelError
	}

	return l
}
