package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jukebot/jukebot/internal/jukebox"
	"github.com/jukebot/jukebot/internal/models"
	"github.com/jukebot/jukebot/internal/shared"
)

// BlacklistRepository implements models.Repository[*models.BlacklistEntry].
//
// Handles the disallowed-content list with soft delete support. The orchestrator
// never touches the database directly; it consumes the predicate produced by
// [BlacklistRepository.Predicate], which snapshots the table per call.
type BlacklistRepository struct {
	db *sql.DB
}

// NewBlacklistRepository creates a new BlacklistRepository with the given database connection
func NewBlacklistRepository(db *sql.DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// Create inserts a new [models.BlacklistEntry] into the database with generated ID and sequence
func (r *BlacklistRepository) Create(entry *models.BlacklistEntry) error {
	sequence, err := NextSequence(r.db, "blacklist")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	entry.SetID(id)

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO blacklist (id, sequence, name, artist, added_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		entry.Name,
		entry.Artist,
		entry.AddedBy,
		entry.CreatedAt(),
		entry.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert blacklist entry: %w", err)
	}

	return nil
}

// Get retrieves an entry by ID, excluding soft-deleted entries
func (r *BlacklistRepository) Get(id string) (*models.BlacklistEntry, error) {
	query := `
		SELECT id, name, artist, added_by, created_at, updated_at
		FROM blacklist
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanEntry(r.db.QueryRow(query, id))
}

// Update modifies an existing entry's name, artist, and added_by fields
func (r *BlacklistRepository) Update(entry *models.BlacklistEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE blacklist
		SET name = ?, artist = ?, added_by = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, entry.Name, entry.Artist, entry.AddedBy, time.Now().UTC(), entry.ID())
	if err != nil {
		return fmt.Errorf("failed to update blacklist entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("blacklist entry not found: %s", entry.ID())
	}

	return nil
}

// Delete soft-deletes an entry by setting deleted_at
func (r *BlacklistRepository) Delete(id string) error {
	query := `UPDATE blacklist SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete blacklist entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("blacklist entry not found: %s", id)
	}

	return nil
}

// List retrieves all entries matching the given criteria, ordered by sequence
func (r *BlacklistRepository) List(criteria map[string]any) ([]*models.BlacklistEntry, error) {
	query := `
		SELECT id, name, artist, added_by, created_at, updated_at
		FROM blacklist
		WHERE deleted_at IS NULL
	`
	var args []any

	if artist, ok := criteria["artist"]; ok {
		query += " AND artist = ? COLLATE NOCASE"
		args = append(args, artist)
	}
	if name, ok := criteria["name"]; ok {
		query += " AND name = ? COLLATE NOCASE"
		args = append(args, name)
	}

	query += " ORDER BY sequence"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list blacklist entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.BlacklistEntry
	for rows.Next() {
		entry, err := r.scanEntryRows(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Remove soft-deletes the entry matching a name/artist pair (case-insensitive).
func (r *BlacklistRepository) Remove(name, artist string) error {
	query := `
		UPDATE blacklist SET deleted_at = ?
		WHERE name = ? COLLATE NOCASE AND artist = ? COLLATE NOCASE AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now().UTC(), name, artist)
	if err != nil {
		return fmt.Errorf("failed to remove blacklist entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check remove result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no blacklist entry for %q / %q", name, artist)
	}

	return nil
}

// Predicate returns a [jukebox.BlacklistFunc] backed by an in-memory snapshot
// of the current table. The snapshot is taken once; callers wanting fresh data
// after an add/remove build a new predicate.
func (r *BlacklistRepository) Predicate() (jukebox.BlacklistFunc, error) {
	entries, err := r.List(nil)
	if err != nil {
		return nil, err
	}

	type key struct{ name, artist string }
	blocked := make(map[key]bool, len(entries))
	names := make(map[string]bool)

	for _, e := range entries {
		k := key{strings.ToLower(e.Name), strings.ToLower(e.Artist)}
		blocked[k] = true
		if e.Artist == "" {
			// Artist-less entries block the name regardless of performer.
			names[strings.ToLower(e.Name)] = true
		}
	}

	return func(name, artist string) bool {
		if names[strings.ToLower(name)] {
			return true
		}
		return blocked[key{strings.ToLower(name), strings.ToLower(artist)}]
	}, nil
}

func (r *BlacklistRepository) scanEntry(row *sql.Row) (*models.BlacklistEntry, error) {
	var id, name, artist, addedBy string
	var createdAt, updatedAt time.Time

	err := row.Scan(&id, &name, &artist, &addedBy, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("blacklist entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan blacklist entry: %w", err)
	}

	return hydrateEntry(id, name, artist, addedBy, createdAt, updatedAt), nil
}

func (r *BlacklistRepository) scanEntryRows(rows *sql.Rows) (*models.BlacklistEntry, error) {
	var id, name, artist, addedBy string
	var createdAt, updatedAt time.Time

	if err := rows.Scan(&id, &name, &artist, &addedBy, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan blacklist entry: %w", err)
	}

	return hydrateEntry(id, name, artist, addedBy, createdAt, updatedAt), nil
}

func hydrateEntry(id, name, artist, addedBy string, createdAt, updatedAt time.Time) *models.BlacklistEntry {
	entry := models.NewBlacklistEntry(name, artist, addedBy)
	entry.SetID(id)
	entry.SetTimestamps(createdAt, updatedAt)
	return entry
}
