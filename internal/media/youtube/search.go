package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/ruizlenato/tunefetch/internal/database/cache"
	"github.com/ruizlenato/tunefetch/internal/media"
)

var ErrEmptyQuery = errors.New("empty search query")

// searchRunner runs a flat yt-dlp search for query and returns the JSON
// document it prints.
type searchRunner func(ctx context.Context, executable string, limit int, query string) ([]byte, error)

func runSearch(ctx context.Context, executable string, limit int, query string) ([]byte, error) {
	result, err := ytdlp.New().
		SetExecutable(executable).
		FlatPlaylist().
		DumpSingleJSON().
		NoWarnings().
		PlaylistItems("1:"+strconv.Itoa(limit)).
		Run(ctx, query)
	if err != nil {
		if result != nil && result.Stderr != "" {
			return nil, fmt.Errorf("%w | %s", err, strings.TrimSpace(result.Stderr))
		}
		return nil, err
	}
	return []byte(result.Stdout), nil
}

type searchCache interface {
	Enabled() bool
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error
}

// redisCache is the shared Redis connection of the cache package.
type redisCache struct{}

func (redisCache) Enabled() bool { return cache.Enabled() }

func (redisCache) GetJSON(ctx context.Context, key string, dest any) error {
	return cache.GetJSON(ctx, key, dest)
}

func (redisCache) SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error {
	return cache.SetJSON(ctx, key, value, expiration)
}

type flatPlaylist struct {
	Entries []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"entries"`
}

// Search returns up to limit videos matching query. The word "song" is
// appended to the query to bias results towards music.
func (r *Resolver) Search(ctx context.Context, query string, limit int) ([]media.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	cacheKey := searchCacheKey(query, limit)
	useCache := r.cacheTTL > 0 && r.cache.Enabled()
	if useCache {
		var cached []media.SearchResult
		if err := r.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			slog.Debug("Search served from cache",
				"query", query)
			return cached, nil
		}
	}

	searchCtx, cancel := context.WithTimeout(ctx, r.searchTimeout)
	defer cancel()

	output, err := r.run(searchCtx, r.ytDlpPath, limit, fmt.Sprintf("ytsearch%d:%s song", limit, query))
	if err != nil {
		return nil, fmt.Errorf("%w: yt-dlp search: %w", media.ErrResolutionFailed, err)
	}

	results, err := parseSearchOutput(output, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", media.ErrResolutionFailed, err)
	}

	if useCache {
		if err := r.cache.SetJSON(ctx, cacheKey, results, r.cacheTTL); err != nil {
			slog.Warn("Could not cache search results",
				"query", query,
				"error", err.Error())
		}
	}

	return results, nil
}

func searchCacheKey(query string, limit int) string {
	return fmt.Sprintf("search:%d:%s", limit, strings.ToLower(query))
}

func parseSearchOutput(output []byte, limit int) ([]media.SearchResult, error) {
	var playlist flatPlaylist
	if err := json.Unmarshal(output, &playlist); err != nil {
		return nil, fmt.Errorf("yt-dlp output parse error: %w", err)
	}

	results := make([]media.SearchResult, 0, len(playlist.Entries))
	for _, entry := range playlist.Entries {
		if entry.ID == "" {
			continue
		}
		results = append(results, media.SearchResult{ID: entry.ID, Title: entry.Title})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}
