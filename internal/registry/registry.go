// Package registry caches per-conversation ordering state: last activity and
// chat-level pin flags. It is append-only for the process lifetime; list size
// is bounded by the roster, and evicting would lose ordering history for
// conversations scrolled out of view.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/noteduco342/OMMessenger-sync/internal/models"
)

// Entry is the ordering-relevant state for one conversation.
type Entry struct {
	LastActivityMillis int64
	Pinned             bool
}

type Registry struct {
	mu      sync.RWMutex
	entries map[models.ConvKey]Entry
}

func New() *Registry {
	return &Registry{entries: make(map[models.ConvKey]Entry)}
}

// Touch advances the conversation's last activity to ts if it is newer.
// LastActivityMillis is monotonic: a lower incoming timestamp never regresses
// it. Returns whether ordering-relevant state changed, which drives whether a
// re-sort is warranted.
func (r *Registry) Touch(key models.ConvKey, ts int64) bool {
	if ts <= 0 {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entries[key]
	if ts <= e.LastActivityMillis {
		return false
	}
	e.LastActivityMillis = ts
	r.entries[key] = e
	return true
}

// SetPinned overwrites the pin flag unconditionally. Pin toggles always
// warrant an immediate re-sort, so no change report is needed.
func (r *Registry) SetPinned(key models.ConvKey, pinned bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entries[key]
	e.Pinned = pinned
	r.entries[key] = e
}

// Get returns the entry for key, or a zero-valued default for conversations
// never observed.
func (r *Registry) Get(key models.ConvKey) Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[key]
}

// Keys returns every observed conversation key of the given kind, unordered.
func (r *Registry) Keys(kind models.ConvKind) []models.ConvKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ConvKey, 0, len(r.entries))
	for k := range r.entries {
		if k.Kind == kind {
			out = append(out, k)
		}
	}
	return out
}

// Sorted returns the keys of the given kind in display order: pinned first,
// then descending last activity, ties broken by case-insensitive name. The
// comparator is total and stable, so equal inputs keep their relative order
// across repeated sorts.
func (r *Registry) Sorted(kind models.ConvKind, nameOf func(models.ConvKey) string) []models.ConvKey {
	r.mu.RLock()
	type row struct {
		key  models.ConvKey
		e    Entry
		name string
	}
	rows := make([]row, 0, len(r.entries))
	for k, e := range r.entries {
		if k.Kind != kind {
			continue
		}
		name := ""
		if nameOf != nil {
			name = strings.ToLower(nameOf(k))
		}
		rows = append(rows, row{key: k, e: e, name: name})
	}
	r.mu.RUnlock()

	// Pre-sort by id so map iteration order cannot jitter the stable sort.
	sort.Slice(rows, func(i, j int) bool { return rows[i].key.ID < rows[j].key.ID })
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.e.Pinned != b.e.Pinned {
			return a.e.Pinned
		}
		if a.e.LastActivityMillis != b.e.LastActivityMillis {
			return a.e.LastActivityMillis > b.e.LastActivityMillis
		}
		return a.name < b.name
	})

	out := make([]models.ConvKey, len(rows))
	for i, r := range rows {
		out[i] = r.key
	}
	return out
}

// Load seeds the registry from persisted conversation rows at startup.
func (r *Registry) Load(rows []models.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		key := row.Key()
		e := r.entries[key]
		if row.LastActivityMillis > e.LastActivityMillis {
			e.LastActivityMillis = row.LastActivityMillis
		}
		e.Pinned = row.Pinned
		r.entries[key] = e
	}
}
