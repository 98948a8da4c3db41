// Package ranking orders catalog search results against the user's original query text.
//
// Queries are fuzzy and partially structured: "Foo Fighters - Best of You" names
// an artist and a title, "Best of You by Foo Fighters" names them the other way
// round, and a bare phrase names neither. The scorer rewards full containment of
// the parsed term sets and falls back to per-term hits when the query carries no
// separator. Thresholds are empirical; they are kept as named constants so they
// can be tuned without touching control flow.
package ranking

import (
	"sort"
	"strings"

	"github.com/jukebot/jukebot/internal/models"
)

// Score weights. Full-set matches are additive: a candidate matching both the
// artist and title sets accumulates all three full-match weights.
const (
	scoreArtistAndTitleFull = 10000 // All artist terms in artist field AND all title terms in name
	scoreTitleFull          = 5000  // All title terms in name
	scoreArtistFull         = 2000  // All artist terms in artist field
	scoreNameTermHit        = 1000  // Single-set mode: one query term found in name
	scoreArtistTermHit      = 500   // Single-set mode: one longer query term found in artist
	scorePhraseBonus        = 10000 // Playlists: raw query appears verbatim in name
)

// Token length cutoffs suppress noise words ("a", "the", "ft").
const (
	minArtistTokenLen = 2 // Artist terms must be longer than this
	minTitleTokenLen  = 1 // Title terms must be longer than this
	minArtistHitLen   = 3 // Single-set mode: artist-field hits require terms longer than this
)

// query is the parsed form of the user's search phrase.
type query struct {
	raw         string
	artistTerms []string
	titleTerms  []string
}

// parseQuery splits the search phrase on " - " (artist - title) or " by "
// (title by artist). Without a separator every token becomes a title term.
func parseQuery(text string) query {
	q := query{raw: strings.ToLower(strings.TrimSpace(text))}

	if artist, title, ok := strings.Cut(q.raw, " - "); ok {
		q.artistTerms = tokenize(artist, minArtistTokenLen)
		q.titleTerms = tokenize(title, minTitleTokenLen)
		return q
	}
	if title, artist, ok := strings.Cut(q.raw, " by "); ok {
		q.artistTerms = tokenize(artist, minArtistTokenLen)
		q.titleTerms = tokenize(title, minTitleTokenLen)
		return q
	}

	q.titleTerms = tokenize(q.raw, minTitleTokenLen)
	return q
}

// tokenize splits text into lowercase terms strictly longer than minLen.
func tokenize(text string, minLen int) []string {
	var terms []string
	for _, tok := range strings.Fields(text) {
		if len(tok) > minLen {
			terms = append(terms, tok)
		}
	}
	return terms
}

// containsAll reports whether every term appears in haystack.
// Empty term sets do not count as a match.
func containsAll(haystack string, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	for _, t := range terms {
		if !strings.Contains(haystack, t) {
			return false
		}
	}
	return true
}

// score computes the relevance of one candidate's name and artist fields.
func (q query) score(name, artist string) int {
	name = strings.ToLower(name)
	artist = strings.ToLower(artist)

	if len(q.artistTerms) > 0 && len(q.titleTerms) > 0 {
		total := 0
		artistFull := containsAll(artist, q.artistTerms)
		titleFull := containsAll(name, q.titleTerms)
		if artistFull && titleFull {
			total += scoreArtistAndTitleFull
		}
		if titleFull {
			total += scoreTitleFull
		}
		if artistFull {
			total += scoreArtistFull
		}
		return total
	}

	terms := q.titleTerms
	if len(terms) == 0 {
		terms = q.artistTerms
	}

	total := 0
	for _, t := range terms {
		if strings.Contains(name, t) {
			total += scoreNameTermHit
		}
		if len(t) > minArtistHitLen && strings.Contains(artist, t) {
			total += scoreArtistTermHit
		}
	}
	return total
}

// rank orders candidates stable-descending by (score, popularity) using the
// provided scorer. The input slice is never mutated.
func rank(candidates []models.CatalogItem, scorer func(models.CatalogItem) int) []models.CatalogItem {
	if len(candidates) == 0 {
		return []models.CatalogItem{}
	}

	type scored struct {
		item  models.CatalogItem
		score int
	}

	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = scored{item: c, score: scorer(c)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].item.Popularity > ranked[j].item.Popularity
	})

	out := make([]models.CatalogItem, len(ranked))
	for i, s := range ranked {
		out[i] = s.item
	}
	return out
}

// unranked returns a copy of candidates in their original order. An empty
// query must not reorder: even the popularity tie-break stays out of play.
func unranked(candidates []models.CatalogItem) []models.CatalogItem {
	out := make([]models.CatalogItem, len(candidates))
	copy(out, candidates)
	return out
}

// RankTracks orders track candidates against the query text.
// An empty query returns a copy in the original order.
func RankTracks(candidates []models.CatalogItem, queryText string) []models.CatalogItem {
	q := parseQuery(queryText)
	if q.raw == "" {
		return unranked(candidates)
	}
	return rank(candidates, func(c models.CatalogItem) int {
		return q.score(c.Name, c.Artist)
	})
}

// RankAlbums orders album candidates; the album title plays the role of the
// track name in the scoring.
func RankAlbums(candidates []models.CatalogItem, queryText string) []models.CatalogItem {
	q := parseQuery(queryText)
	if q.raw == "" {
		return unranked(candidates)
	}
	return rank(candidates, func(c models.CatalogItem) int {
		return q.score(c.Name, c.Artist)
	})
}

// RankPlaylists orders playlist candidates. Playlists carry no artist field:
// scoring runs on the name alone, the follower count (stored in Popularity)
// breaks ties, and a verbatim occurrence of the raw query in the name earns an
// additional bonus.
func RankPlaylists(candidates []models.CatalogItem, queryText string) []models.CatalogItem {
	q := parseQuery(queryText)
	if q.raw == "" {
		return unranked(candidates)
	}
	return rank(candidates, func(c models.CatalogItem) int {
		name := strings.ToLower(c.Name)
		total := q.score(c.Name, "")
		if strings.Contains(name, q.raw) {
			total += scorePhraseBonus
		}
		return total
	})
}
