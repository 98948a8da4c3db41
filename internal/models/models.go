package models

import (
	"fmt"
	"strings"
	"time"
)

// ItemKind distinguishes the three shapes of catalog content.
type ItemKind int

const (
	KindTrack ItemKind = iota
	KindAlbum
	KindPlaylist
)

func (k ItemKind) String() string {
	switch k {
	case KindTrack:
		return "track"
	case KindAlbum:
		return "album"
	case KindPlaylist:
		return "playlist"
	default:
		return "unknown"
	}
}

// CatalogItem represents a track, album, or playlist returned by the music catalog.
// Immutable once produced; consumed by ranking, filtering, and orchestration.
type CatalogItem struct {
	URI        string   // Opaque catalog reference, also used for enqueueing
	Name       string   // Display name (track title, album title, playlist name)
	Artist     string   // Primary artist; empty for playlists
	Popularity int      // Catalog popularity (playlists: follower count); 0 if absent
	Kind       ItemKind // Track, Album, or Playlist
}

// QueueItem represents one slot in the playback device's live queue.
// Position is authoritative only for the snapshot that produced it.
type QueueItem struct {
	Title    string
	Artist   string
	URI      string
	Position int // 0-based
}

// DeviceState is the transport state polled from the playback device.
// It is never cached beyond a single orchestration step.
type DeviceState int

const (
	StateStopped DeviceState = iota
	StatePlaying
	StatePaused
	StateTransitioning
	StateUnknown
)

func (s DeviceState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateTransitioning:
		return "transitioning"
	default:
		return "unknown"
	}
}

// ParseDeviceState maps a device-reported state string to a [DeviceState].
// Any value outside the known set parses to [StateUnknown], which the
// orchestrator handles like [StatePlaying] (no destructive action).
func ParseDeviceState(raw string) DeviceState {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "STOPPED":
		return StateStopped
	case "PLAYING":
		return StatePlaying
	case "PAUSED", "PAUSED_PLAYBACK":
		return StatePaused
	case "TRANSITIONING":
		return StateTransitioning
	default:
		return StateUnknown
	}
}

// RequestMode selects the orchestrator's mutation strategy.
type RequestMode int

const (
	// ModeReplace corresponds to "add": may clear the queue when the device is stopped.
	ModeReplace RequestMode = iota
	// ModeAppend corresponds to "append": never clears, never stops.
	ModeAppend
)

func (m RequestMode) String() string {
	if m == ModeAppend {
		return "append"
	}
	return "replace"
}

// OrchestrationRequest is one user-triggered intent to mutate the device queue.
type OrchestrationRequest struct {
	ID    string      // Request ID for log correlation
	Item  CatalogItem // The winning candidate to enqueue
	Mode  RequestMode
	Batch []CatalogItem // Underlying tracks for album/playlist expansion; nil for single adds
}

// OrchestrationOutcome is returned synchronously once the enqueue itself has
// been confirmed. Done is closed when the detached activation phase finishes;
// callers are free to ignore it.
type OrchestrationOutcome struct {
	Accepted bool
	Message  string
	Done     <-chan struct{}
}

// Model defines the base interface for all persistent models in the jukebot service.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// BlacklistEntry is a persisted name/artist pair that must never be enqueued.
type BlacklistEntry struct {
	id        string
	Name      string
	Artist    string
	AddedBy   string
	createdAt time.Time
	updatedAt time.Time
}

// NewBlacklistEntry creates an unsaved entry; the repository assigns the ID on Create.
func NewBlacklistEntry(name, artist, addedBy string) *BlacklistEntry {
	now := time.Now().UTC()
	return &BlacklistEntry{
		Name:      name,
		Artist:    artist,
		AddedBy:   addedBy,
		createdAt: now,
		updatedAt: now,
	}
}

func (b *BlacklistEntry) ID() string           { return b.id }
func (b *BlacklistEntry) CreatedAt() time.Time { return b.createdAt }
func (b *BlacklistEntry) UpdatedAt() time.Time { return b.updatedAt }

// SetID assigns the entry's unique identifier (used by the repository).
func (b *BlacklistEntry) SetID(id string) { b.id = id }

// SetTimestamps restores persisted timestamps when hydrating from the database.
func (b *BlacklistEntry) SetTimestamps(created, updated time.Time) {
	b.createdAt = created
	b.updatedAt = updated
}

func (b *BlacklistEntry) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("blacklist entry requires a name")
	}
	return nil
}
