// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/jukebot/jukebot/internal/models"
	"github.com/jukebot/jukebot/internal/shared"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Spotify's rate limit is a rolling 30s window; 10 req/s with a small
	// burst keeps the bot comfortably inside it.
	requestsPerSecond = 10
	requestBurst      = 5
)

type followers struct {
	Total int `json:"total"`
}

// spotifyArtist represents a Spotify artist.
type spotifyArtist struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// spotifyTrack represents a Spotify track.
type spotifyTrack struct {
	Name       string          `json:"name"`
	Artists    []spotifyArtist `json:"artists"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// spotifyAlbum represents a Spotify album.
type spotifyAlbum struct {
	Name    string          `json:"name"`
	Artists []spotifyArtist `json:"artists"`
	URI     string          `json:"uri"`
}

// spotifyPlaylist represents a Spotify playlist.
type spotifyPlaylist struct {
	Name      string     `json:"name"`
	URI       string     `json:"uri"`
	ID        string     `json:"id"`
	Followers *followers `json:"followers"`
}

// paging is the generic Spotify paging envelope.
type paging[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// searchResponse represents a /search response; only the requested type is populated.
type searchResponse struct {
	Tracks    *paging[spotifyTrack]    `json:"tracks"`
	Albums    *paging[spotifyAlbum]    `json:"albums"`
	Playlists *paging[spotifyPlaylist] `json:"playlists"`
}

type playlistTrackItem struct {
	Track spotifyTrack `json:"track"`
}

// SpotifyCatalog implements the Catalog interface for Spotify API interactions.
// Uses the OAuth2 client-credentials flow and rate-limits outgoing requests.
type SpotifyCatalog struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSpotifyCatalog creates a new Spotify catalog with the given credentials.
func NewSpotifyCatalog(cfg shared.SpotifyConfig) (*SpotifyCatalog, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingCredentials)
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyTokenURL,
	}

	return &SpotifyCatalog{
		baseURL:    spotifyBaseURL,
		httpClient: cc.Client(context.Background()),
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
	}, nil
}

// NewSpotifyCatalogWithClient creates a catalog against a custom base URL and
// HTTP client. Used by tests to point at an httptest server.
func NewSpotifyCatalogWithClient(baseURL string, client *http.Client) *SpotifyCatalog {
	if client == nil {
		client = http.DefaultClient
	}
	return &SpotifyCatalog{
		baseURL:    baseURL,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Inf, 0),
	}
}

func (s *SpotifyCatalog) Name() string {
	return "Spotify"
}

// doRequest performs a rate-limited GET against the Spotify API.
func (s *SpotifyCatalog) doRequest(ctx context.Context, endpoint string, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRateLimited, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCatalogRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return shared.ErrNothingFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return shared.ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", shared.ErrNotAuthenticated, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d", shared.ErrCatalogRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func searchEndpoint(query, kind string, limit int) string {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", kind)
	params.Set("limit", strconv.Itoa(limit))
	return "/search?" + params.Encode()
}

// SearchTracks resolves a text query to track candidates.
func (s *SpotifyCatalog) SearchTracks(ctx context.Context, query string, limit int) ([]models.CatalogItem, error) {
	var response searchResponse
	if err := s.doRequest(ctx, searchEndpoint(query, "track", limit), &response); err != nil {
		return nil, err
	}
	if response.Tracks == nil || len(response.Tracks.Items) == 0 {
		return nil, fmt.Errorf("%w: no tracks for %q", shared.ErrNothingFound, query)
	}

	items := make([]models.CatalogItem, 0, len(response.Tracks.Items))
	for _, t := range response.Tracks.Items {
		items = append(items, trackItem(t))
	}
	return items, nil
}

// SearchAlbums resolves a text query to album candidates.
func (s *SpotifyCatalog) SearchAlbums(ctx context.Context, query string, limit int) ([]models.CatalogItem, error) {
	var response searchResponse
	if err := s.doRequest(ctx, searchEndpoint(query, "album", limit), &response); err != nil {
		return nil, err
	}
	if response.Albums == nil || len(response.Albums.Items) == 0 {
		return nil, fmt.Errorf("%w: no albums for %q", shared.ErrNothingFound, query)
	}

	items := make([]models.CatalogItem, 0, len(response.Albums.Items))
	for _, a := range response.Albums.Items {
		items = append(items, models.CatalogItem{
			URI:    a.URI,
			Name:   a.Name,
			Artist: primaryArtist(a.Artists),
			Kind:   models.KindAlbum,
		})
	}
	return items, nil
}

// SearchPlaylists resolves a text query to playlist candidates. Follower
// counts land in Popularity when the API includes them.
func (s *SpotifyCatalog) SearchPlaylists(ctx context.Context, query string, limit int) ([]models.CatalogItem, error) {
	var response searchResponse
	if err := s.doRequest(ctx, searchEndpoint(query, "playlist", limit), &response); err != nil {
		return nil, err
	}
	if response.Playlists == nil || len(response.Playlists.Items) == 0 {
		return nil, fmt.Errorf("%w: no playlists for %q", shared.ErrNothingFound, query)
	}

	items := make([]models.CatalogItem, 0, len(response.Playlists.Items))
	for _, p := range response.Playlists.Items {
		item := models.CatalogItem{
			URI:  p.URI,
			Name: p.Name,
			Kind: models.KindPlaylist,
		}
		if p.Followers != nil {
			item.Popularity = p.Followers.Total
		}
		items = append(items, item)
	}
	return items, nil
}

// GetAlbumTracks expands an album into its track items.
func (s *SpotifyCatalog) GetAlbumTracks(ctx context.Context, albumID string) ([]models.CatalogItem, error) {
	var response paging[spotifyTrack]
	endpoint := fmt.Sprintf("/albums/%s/tracks?limit=50", url.PathEscape(albumID))
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	items := make([]models.CatalogItem, 0, len(response.Items))
	for _, t := range response.Items {
		items = append(items, trackItem(t))
	}
	return items, nil
}

// GetPlaylistTracks expands a playlist into its track items.
func (s *SpotifyCatalog) GetPlaylistTracks(ctx context.Context, playlistID string) ([]models.CatalogItem, error) {
	var response paging[playlistTrackItem]
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=100", url.PathEscape(playlistID))
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	items := make([]models.CatalogItem, 0, len(response.Items))
	for _, pt := range response.Items {
		if pt.Track.URI == "" {
			continue // local or removed tracks have no playable URI
		}
		items = append(items, trackItem(pt.Track))
	}
	return items, nil
}

func trackItem(t spotifyTrack) models.CatalogItem {
	return models.CatalogItem{
		URI:        t.URI,
		Name:       t.Name,
		Artist:     primaryArtist(t.Artists),
		Popularity: t.Popularity,
		Kind:       models.KindTrack,
	}
}

func primaryArtist(artists []spotifyArtist) string {
	if len(artists) == 0 {
		return ""
	}
	return artists[0].Name
}
