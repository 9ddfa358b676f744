package storage

import (
	"sort"

	"chat-ledger.backend/internal/domain/entities"
)

// ResolveLatest picks the pin with the greatest PinnedAt. Ties go to the greatest
// CID so every reader resolves the same snapshot.
func ResolveLatest(pins []entities.PinRef) (entities.PinRef, bool) {
	if len(pins) == 0 {
		return entities.PinRef{}, false
	}
	best := pins[0]
	for _, p := range pins[1:] {
		if newer(p, best) {
			best = p
		}
	}
	return best, true
}

// LatestByTag groups pins by the value of tag key and resolves each group.
// Pins without the tag are skipped.
func LatestByTag(pins []entities.PinRef, key string) map[string]entities.PinRef {
	out := make(map[string]entities.PinRef)
	for _, p := range pins {
		id := p.Tags[key]
		if id == "" {
			continue
		}
		if cur, ok := out[id]; !ok || newer(p, cur) {
			out[id] = p
		}
	}
	return out
}

// SortNewestFirst orders pins by descending PinnedAt using the same tie-break as ResolveLatest.
func SortNewestFirst(pins []entities.PinRef) {
	sort.Slice(pins, func(i, j int) bool { return newer(pins[i], pins[j]) })
}

func newer(a, b entities.PinRef) bool {
	if !a.PinnedAt.Equal(b.PinnedAt) {
		return a.PinnedAt.After(b.PinnedAt)
	}
	return a.CID > b.CID
}
