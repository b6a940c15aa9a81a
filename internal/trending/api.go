package trending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/ruizlenato/tunefetch/internal/utils"
)

const DefaultAPIURL = "https://www.googleapis.com/youtube/v3"

var (
	ErrAPI           = errors.New("youtube data api error")
	ErrMissingAPIKey = errors.New("youtube data api key is not set")
)

type snippet struct {
	Title string `json:"title"`
}

type videoListResponse struct {
	Items []struct {
		ID      string  `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

type searchListResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// API is a minimal YouTube Data API v3 client.
type API struct {
	caller  *utils.FastHTTPCaller
	baseURL string
	apiKey  string
}

func NewAPI(baseURL, apiKey string, caller *utils.FastHTTPCaller) *API {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if caller == nil {
		caller = utils.DefaultFastHTTPCaller
	}
	return &API{
		caller:  caller,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// MostPopular lists the most popular videos of a category in a region.
func (a *API) MostPopular(ctx context.Context, regionCode, categoryID string, maxResults int) ([]Song, error) {
	var response videoListResponse
	err := a.get(ctx, "/videos", map[string]string{
		"part":            "snippet",
		"chart":           "mostPopular",
		"regionCode":      regionCode,
		"videoCategoryId": categoryID,
		"maxResults":      strconv.Itoa(maxResults),
	}, &response)
	if err != nil {
		return nil, err
	}

	songs := make([]Song, 0, len(response.Items))
	for _, item := range response.Items {
		songs = append(songs, Song{ID: item.ID, Name: item.Snippet.Title})
	}
	return songs, nil
}

// SearchVideos searches videos matching query. Results that are not videos
// (channels, playlists) are dropped.
func (a *API) SearchVideos(ctx context.Context, query, regionCode string, maxResults int) ([]AlbumSong, error) {
	var response searchListResponse
	err := a.get(ctx, "/search", map[string]string{
		"part":       "snippet",
		"type":       "video",
		"q":          query,
		"maxResults": strconv.Itoa(maxResults),
		"regionCode": regionCode,
	}, &response)
	if err != nil {
		return nil, err
	}

	songs := make([]AlbumSong, 0, len(response.Items))
	for _, item := range response.Items {
		if item.ID.VideoID == "" {
			continue
		}
		songs = append(songs, AlbumSong{ID: item.ID.VideoID, Title: item.Snippet.Title})
	}
	return songs, nil
}

func (a *API) get(ctx context.Context, endpoint string, query map[string]string, dest any) error {
	if a.apiKey == "" {
		return ErrMissingAPIKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	query["key"] = a.apiKey
	request, response, err := a.caller.Call(a.baseURL+endpoint, utils.RequestParams{
		Method:  fasthttp.MethodGet,
		Headers: map[string]string{"Accept": "application/json"},
		Query:   query,
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAPI, endpoint, err)
	}
	defer utils.ReleaseRequestResources(request, response)

	if response.StatusCode() != fasthttp.StatusOK {
		var body apiError
		if json.Unmarshal(response.Body(), &body) == nil && body.Error.Message != "" {
			return fmt.Errorf("%w: %s: status %d: %s", ErrAPI, endpoint, response.StatusCode(), body.Error.Message)
		}
		return fmt.Errorf("%w: %s: status %d", ErrAPI, endpoint, response.StatusCode())
	}

	if err := json.Unmarshal(response.Body(), dest); err != nil {
		return fmt.Errorf("%w: %s: decode response: %w", ErrAPI, endpoint, err)
	}
	return nil
}
