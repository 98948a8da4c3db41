package jukebox

import (
	"strings"

	"github.com/jukebot/jukebot/internal/models"
)

// FindDuplicate reports whether candidate already exists in the given queue
// snapshot and at which position.
//
// Matching priority: exact URI equality first, then case-insensitive equality
// of both title and artist. The URI match wins for reporting the position when
// both kinds of match exist. The snapshot may be stale: a missed duplicate is
// acceptable, blocking a unique add is not, so a nil or empty queue always
// reports no duplicate.
func FindDuplicate(queueItems []models.QueueItem, candidate models.CatalogItem) (int, bool) {
	if len(queueItems) == 0 {
		return 0, false
	}

	if candidate.URI != "" {
		for _, qi := range queueItems {
			if qi.URI == candidate.URI {
				return qi.Position, true
			}
		}
	}

	if candidate.Name == "" {
		return 0, false
	}
	for _, qi := range queueItems {
		if strings.EqualFold(qi.Title, candidate.Name) && strings.EqualFold(qi.Artist, candidate.Artist) {
			return qi.Position, true
		}
	}

	return 0, false
}
