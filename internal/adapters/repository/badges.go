package repository

import (
	"github.com/okian/shelf/internal/domain/badge"
	"github.com/okian/shelf/internal/domain/catalog"
)

// dedupeBadges keeps the first badge per key. Stored badges precede anything
// appended during an update, so a re-award never replaces the original.
func dedupeBadges(badges []badge.Badge) []badge.Badge {
	seen := make(map[catalog.Key]bool, len(badges))
	out := badges[:0]
	for _, b := range badges {
		k := b.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, b)
	}
	return out
}
