// Package catalog defines the Catalog interface for resolving user text to
// music metadata, plus the Spotify implementation.
package catalog

import (
	"context"

	"github.com/jukebot/jukebot/internal/models"
)

// Catalog is the external search service. Results arrive unranked; relevance
// ordering is the ranking package's job, not the catalog's.
type Catalog interface {
	// SearchTracks resolves a text query to at most limit track candidates.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.CatalogItem, error)

	// SearchAlbums resolves a text query to at most limit album candidates.
	SearchAlbums(ctx context.Context, query string, limit int) ([]models.CatalogItem, error)

	// SearchPlaylists resolves a text query to at most limit playlist candidates.
	SearchPlaylists(ctx context.Context, query string, limit int) ([]models.CatalogItem, error)

	// GetAlbumTracks expands an album reference into its track items.
	GetAlbumTracks(ctx context.Context, albumID string) ([]models.CatalogItem, error)

	// GetPlaylistTracks expands a playlist reference into its track items.
	GetPlaylistTracks(ctx context.Context, playlistID string) ([]models.CatalogItem, error)

	// Name returns the name of the catalog service (e.g., "Spotify")
	Name() string
}
