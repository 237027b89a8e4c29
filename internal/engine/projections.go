package engine

import (
	"github.com/noteduco342/OMMessenger-sync/internal/models"
)

// Conversations returns the sorted conversation list for one kind, using the
// latest debounced order. The first call for a kind sorts eagerly so callers
// never see an empty list just because no resort has fired yet.
func (e *Engine) Conversations(kind models.ConvKind) []models.ConversationView {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.resorts[kind]; !ok {
		e.resortLocked(kind)
	}
	keys := e.ordered[kind]
	views := make([]models.ConversationView, 0, len(keys))
	for _, key := range keys {
		entry := e.reg.Get(key)
		views = append(views, models.ConversationView{
			Key:                key,
			WireKey:            key.String(),
			Kind:               key.Kind.Label(),
			TargetID:           key.ID,
			Name:               e.names[key],
			LastActivityMillis: entry.LastActivityMillis,
			Pinned:             entry.Pinned,
			Unread:             e.unread.Count(key),
			Online:             key.Kind == models.KindDirect && e.online[key.ID],
		})
	}
	return views
}

// Messages returns the rendered messages of a conversation in arrival order.
func (e *Engine) Messages(key models.ConvKey) []models.Message {
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.msgs[key]
	out := make([]models.Message, len(list))
	for i, m := range list {
		out[i] = *m
	}
	return out
}

// PinnedMessages returns the pinned subset of a conversation's rendered
// messages, oldest first.
func (e *Engine) PinnedMessages(key models.ConvKey) []models.Message {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []models.Message
	for _, m := range e.msgs[key] {
		if m.Pinned {
			out = append(out, *m)
		}
	}
	return out
}

// UnreadAll snapshots every unread count keyed by wire key.
func (e *Engine) UnreadAll() map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()

	all := e.unread.All()
	out := make(map[string]int, len(all))
	for key, n := range all {
		out[key.String()] = n
	}
	return out
}

// Unread returns one conversation's unread count.
func (e *Engine) Unread(key models.ConvKey) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unread.Count(key)
}

// Online reports the last known presence of a direct peer.
func (e *Engine) Online(userID uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.online[userID]
}

// ResortCount reports how many times a list order was recomputed. Tests use
// it to assert debounce coalescing.
func (e *Engine) ResortCount(kind models.ConvKind) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resorts[kind]
}
