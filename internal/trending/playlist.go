package trending

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/grafov/m3u8"
)

// Playlist renders the trending songs as an M3U8 playlist whose entries
// point at the stream endpoint under baseURL.
func (c *Cache) Playlist(baseURL string) ([]byte, error) {
	snapshot, err := c.Songs()
	if err != nil {
		return nil, err
	}
	return encodePlaylist(baseURL, snapshot.Songs)
}

func encodePlaylist(baseURL string, songs []Song) ([]byte, error) {
	playlist, err := m3u8.NewMediaPlaylist(0, uint(max(len(songs), 1)))
	if err != nil {
		return nil, err
	}

	base := strings.TrimRight(baseURL, "/")
	for _, song := range songs {
		uri := base + "/stream/" + url.PathEscape(song.ID)
		if err := playlist.Append(uri, 0, song.Name); err != nil {
			return nil, fmt.Errorf("append %s: %w", song.ID, err)
		}
	}
	playlist.Close()

	return playlist.Encode().Bytes(), nil
}
