package trending

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruizlenato/tunefetch/internal/config"
)

type Song struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SongsSnapshot struct {
	FetchedToday bool   `json:"fetched_today"`
	FetchDate    string `json:"fetch_date"`
	Songs        []Song `json:"songs"`
}

type AlbumSong struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Album struct {
	Artist string      `json:"artist"`
	Songs  []AlbumSong `json:"songs"`
}

type AlbumsSnapshot struct {
	FetchedToday bool    `json:"fetched_today"`
	FetchDate    string  `json:"fetch_date"`
	Albums       []Album `json:"albums"`
}

// Snapshots holds the stored documents verbatim. A missing document is the
// empty object.
type Snapshots struct {
	Songs  json.RawMessage `json:"songs"`
	Albums json.RawMessage `json:"albums"`
}

type Cache struct {
	api      *API
	store    Store
	settings config.Trending
	now      func() time.Time
}

func New(api *API, store Store, settings config.Trending) *Cache {
	return &Cache{
		api:      api,
		store:    store,
		settings: settings,
		now:      time.Now,
	}
}

// Refresh fetches the trending songs and then the artist albums. A failing
// album refresh leaves the fresh songs snapshot in place.
func (c *Cache) Refresh(ctx context.Context) error {
	if err := c.RefreshSongs(ctx); err != nil {
		return err
	}
	return c.RefreshAlbums(ctx)
}

func (c *Cache) RefreshSongs(ctx context.Context) error {
	songs, err := c.api.MostPopular(ctx, c.settings.RegionCode, c.settings.VideoCategoryID, c.settings.MaxSongs)
	if err != nil {
		return fmt.Errorf("refresh trending songs: %w", err)
	}

	snapshot := SongsSnapshot{
		FetchedToday: true,
		FetchDate:    c.today(),
		Songs:        songs,
	}
	if err := c.put(SongsKey, snapshot); err != nil {
		return fmt.Errorf("store trending songs: %w", err)
	}

	slog.Debug("Trending songs refreshed",
		"songs", len(songs))
	return nil
}

// RefreshAlbums searches the songs of every configured artist. Nothing is
// stored unless all artists succeed.
func (c *Cache) RefreshAlbums(ctx context.Context) error {
	albums := make([]Album, 0, len(c.settings.Artists))
	for _, artist := range c.settings.Artists {
		songs, err := c.api.SearchVideos(ctx, artist+" song", c.settings.RegionCode, c.settings.MaxAlbumSongs)
		if err != nil {
			return fmt.Errorf("refresh album of %s: %w", artist, err)
		}
		albums = append(albums, Album{Artist: artist, Songs: songs})
	}

	snapshot := AlbumsSnapshot{
		FetchedToday: true,
		FetchDate:    c.today(),
		Albums:       albums,
	}
	if err := c.put(AlbumsKey, snapshot); err != nil {
		return fmt.Errorf("store trending albums: %w", err)
	}

	slog.Debug("Trending albums refreshed",
		"artists", len(albums))
	return nil
}

// Read returns both snapshots as stored.
func (c *Cache) Read() (Snapshots, error) {
	songs, err := c.get(SongsKey)
	if err != nil {
		return Snapshots{}, err
	}
	albums, err := c.get(AlbumsKey)
	if err != nil {
		return Snapshots{}, err
	}
	return Snapshots{Songs: songs, Albums: albums}, nil
}

// Songs decodes the stored songs snapshot. A missing snapshot yields an
// empty one.
func (c *Cache) Songs() (SongsSnapshot, error) {
	var snapshot SongsSnapshot
	data, err := c.get(SongsKey)
	if err != nil {
		return snapshot, err
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return snapshot, fmt.Errorf("decode trending songs: %w", err)
	}
	return snapshot, nil
}

func (c *Cache) get(key string) (json.RawMessage, error) {
	data, err := c.store.Get(key)
	if errors.Is(err, ErrNotFound) {
		return json.RawMessage("{}"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s snapshot: %w", key, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("read %s snapshot: invalid JSON document", key)
	}
	return data, nil
}

func (c *Cache) put(key string, snapshot any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snapshot); err != nil {
		return err
	}
	return c.store.Put(key, bytes.TrimRight(buf.Bytes(), "\n"))
}

func (c *Cache) today() string {
	return c.now().Format(time.DateOnly)
}
