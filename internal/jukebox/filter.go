package jukebox

import (
	"fmt"
	"strings"

	"github.com/jukebot/jukebot/internal/models"
)

// BlacklistFunc reports whether a name/artist pair is disallowed.
// Supplied by configuration or by the blacklist repository.
type BlacklistFunc func(name, artist string) bool

// maxSkippedNames bounds how many blocked titles are spelled out in user messages.
const maxSkippedNames = 5

// Partition splits items into allowed and blocked groups, preserving order
// within each group. A nil predicate blocks nothing.
func Partition(items []models.CatalogItem, isBlacklisted BlacklistFunc) (allowed, blocked []models.CatalogItem) {
	for _, item := range items {
		if isBlacklisted != nil && isBlacklisted(item.Name, item.Artist) {
			blocked = append(blocked, item)
		} else {
			allowed = append(allowed, item)
		}
	}
	return allowed, blocked
}

// SkippedSummary renders the blocked items for a user message, truncated to
// at most maxSkippedNames titles plus a remainder count.
func SkippedSummary(blocked []models.CatalogItem) string {
	if len(blocked) == 0 {
		return ""
	}

	names := make([]string, 0, maxSkippedNames)
	for i, item := range blocked {
		if i == maxSkippedNames {
			break
		}
		names = append(names, item.Name)
	}

	summary := strings.Join(names, ", ")
	if rest := len(blocked) - len(names); rest > 0 {
		summary = fmt.Sprintf("%s and %d more", summary, rest)
	}
	return summary
}
