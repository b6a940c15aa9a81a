package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Trending holds the knobs of the trending refresh. Missing keys in the YAML
// file keep their default values.
type Trending struct {
	RegionCode      string   `yaml:"region_code"`
	VideoCategoryID string   `yaml:"video_category_id"`
	MaxSongs        int      `yaml:"max_songs"`
	MaxAlbumSongs   int      `yaml:"max_album_songs"`
	Artists         []string `yaml:"artists"`
}

func DefaultTrending() Trending {
	return Trending{
		RegionCode:      "IN",
		VideoCategoryID: "10",
		MaxSongs:        10,
		MaxAlbumSongs:   10,
		Artists: []string{
			"Arijit Singh",
			"Yo Yo Honey Singh",
			"Shreya Ghoshal",
			"Badshah",
			"Neha Kakkar",
		},
	}
}

// LoadTrending reads the trending settings from path. A missing file is not
// an error: the defaults are returned.
func LoadTrending(path string) (Trending, error) {
	settings := DefaultTrending()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("reading trending config: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return DefaultTrending(), fmt.Errorf("parsing trending config: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return DefaultTrending(), err
	}

	return settings, nil
}

func (t Trending) Validate() error {
	if t.RegionCode == "" {
		return errors.New("trending config: region_code cannot be empty")
	}
	if t.MaxSongs < 1 || t.MaxSongs > 50 {
		return fmt.Errorf("trending config: max_songs must be between 1 and 50, got %d", t.MaxSongs)
	}
	if t.MaxAlbumSongs < 1 || t.MaxAlbumSongs > 50 {
		return fmt.Errorf("trending config: max_album_songs must be between 1 and 50, got %d", t.MaxAlbumSongs)
	}
	for _, artist := range t.Artists {
		if artist == "" {
			return errors.New("trending config: artist names cannot be empty")
		}
	}
	return nil
}
