// Package match implements the content/interest matcher (spec.md §4.7,
// C7): resolving an incoming interest against the content store, and
// walking the pending interest table to find every interest an incoming
// ContentObject satisfies.
package match

import (
	"time"

	"github.com/ccn-go/ccnd/internal/store"
	"github.com/ccn-go/ccnd/internal/table"
	"github.com/ccn-go/ccnd/internal/wire"
)

// FindContentForInterest resolves it against cs, honoring ChildSelector
// (leftmost vs rightmost-in-name-order) and MustBeFresh, and applying
// Exclude to skip any candidate whose matching component is excluded —
// spec.md §4.7's find_content_for_interest.
func FindContentForInterest(cs *store.Store, it *wire.Interest) *store.Entry {
	rightmost := it.ChildSelector == wire.ChildSelectorRightmost
	mustBeFresh := it.AnswerOriginKind&wire.AOKStale == 0

	if it.Exclude == nil {
		return cs.FindForPrefix(it.Name, mustBeFresh, rightmost)
	}

	// With an Exclude set, walk the skiplist in the selector's direction,
	// skipping every candidate whose component just past the prefix is
	// excluded, until a non-excluded match is found or the prefix range
	// is exhausted.
	return cs.FindForPrefixExcluding(it.Name, mustBeFresh, rightmost, it.Exclude.Excludes)
}

// SatisfyingEntries walks pit to find every PIT entry that co matches:
// entries anchored at exactly nameWithDigest, plus any CanBePrefix
// entries anchored at a proper prefix of nameWithDigest (co.Name itself
// included) (spec.md §4.7's consume_matching_interests depth-first
// prefix walk).
func SatisfyingEntries(pit *table.Pit, co *wire.ContentObject, nameWithDigest wire.Name) []*table.Entry {
	var out []*table.Entry
	seen := make(map[*table.Entry]bool)

	for depth := len(nameWithDigest); depth >= 0; depth-- {
		prefix := nameWithDigest.Prefix(depth)
		for _, e := range pit.EntriesForName(prefix) {
			if seen[e] {
				continue
			}
			if depth < len(nameWithDigest) && !e.CanBePrefix {
				continue
			}
			if e.MustBeFresh && isStaleContentObject(co) {
				continue
			}
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

func isStaleContentObject(co *wire.ContentObject) bool {
	if co.FreshnessSeconds < 0 {
		return false
	}
	return co.Freshness() <= 0
}

// MarkStaleForExpire flags an entry's AOK_EXPIRE semantics by checking
// whether deadline has passed, used when a caller wants to re-offer a
// stale content object only to interests that explicitly opted in via
// AnswerOriginKind's AOK_STALE bit (spec.md §4.7).
func MarkStaleForExpire(deadline time.Time) bool {
	return !deadline.IsZero() && time.Now().After(deadline)
}
