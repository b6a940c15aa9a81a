package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"YOUTUBE_API_KEY", "YOUTUBE_API_URL", "LOG_LEVEL", "LISTEN_ADDR", "DOWNLOADS_DIR",
		"DATA_DIR", "REDIS_ADDR", "REDIS_DB", "YTDLP_PATH", "FFMPEG_PATH",
		"TRENDING_CONFIG", "SEARCH_TIMEOUT", "SEARCH_CACHE_TTL", "DOWNLOAD_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	Load()

	assert.Empty(t, YouTubeAPIKey)
	assert.Equal(t, "https://www.googleapis.com/youtube/v3", YouTubeAPIURL)
	assert.Equal(t, slog.LevelError, LogLevel)
	assert.Equal(t, ":8000", ListenAddr)
	assert.Equal(t, "downloads", DownloadsDir)
	assert.Equal(t, ".", DataDir)
	assert.Empty(t, RedisAddr)
	assert.Zero(t, RedisDB)
	assert.Equal(t, "yt-dlp", YtDlpPath)
	assert.Equal(t, "ffmpeg", FFmpegPath)
	assert.Equal(t, "trending.yaml", TrendingConfig)
	assert.Equal(t, 45*time.Second, SearchTimeout)
	assert.Equal(t, time.Hour, SearchCacheTTL)
	assert.Equal(t, 10*time.Minute, DownloadTimeout)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "secret")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SEARCH_CACHE_TTL", "5m")
	t.Setenv("DOWNLOAD_TIMEOUT", "not-a-duration")
	t.Cleanup(Load)

	Load()

	assert.Equal(t, "secret", YouTubeAPIKey)
	assert.Equal(t, slog.LevelDebug, LogLevel)
	assert.Equal(t, "127.0.0.1:9000", ListenAddr)
	assert.Equal(t, "localhost:6379", RedisAddr)
	assert.Equal(t, 3, RedisDB)
	assert.Equal(t, 5*time.Minute, SearchCacheTTL)
	assert.Equal(t, 10*time.Minute, DownloadTimeout)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"ERROR", slog.LevelError},
		{"INFO", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"verbose", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestLoadTrendingMissingFile(t *testing.T) {
	settings, err := LoadTrending(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTrending(), settings)
}

func TestLoadTrendingFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trending.yaml")
	content := `
region_code: US
max_songs: 5
artists:
  - Taylor Swift
  - Bad Bunny
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings, err := LoadTrending(path)
	require.NoError(t, err)

	assert.Equal(t, "US", settings.RegionCode)
	assert.Equal(t, "10", settings.VideoCategoryID)
	assert.Equal(t, 5, settings.MaxSongs)
	assert.Equal(t, 10, settings.MaxAlbumSongs)
	assert.Equal(t, []string{"Taylor Swift", "Bad Bunny"}, settings.Artists)
}

func TestLoadTrendingInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "artists: [unterminated"},
		{"empty region", `region_code: ""`},
		{"too many songs", "max_songs: 51"},
		{"empty artist", "artists:\n  - \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "trending.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			settings, err := LoadTrending(path)
			assert.Error(t, err)
			assert.Equal(t, DefaultTrending(), settings)
		})
	}
}
