package cache

import (
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/noteduco342/OMMessenger-sync/internal/models"
)

// TTL constants for different cache types
const (
	ConversationTTL = 5 * time.Minute
	ListTTL         = 2 * time.Minute
	UnreadTTL       = 1 * time.Minute
)

// ProjectionCache stores API projections so repeated polling by the render
// layer does not hit the engine on every request. All methods are safe on a
// nil receiver, which is how a redis-less deployment runs.
type ProjectionCache struct {
	redis *RedisCache
}

// NewProjectionCache creates a projection cache
func NewProjectionCache(redis *RedisCache) *ProjectionCache {
	return &ProjectionCache{redis: redis}
}

func messagesKey(key models.ConvKey) string {
	return "msgs:" + key.String()
}

func listKey(kind models.ConvKind) string {
	return "list:" + kind.Label()
}

// GetMessages retrieves a cached conversation projection
func (pc *ProjectionCache) GetMessages(key models.ConvKey) ([]models.Message, bool) {
	if pc == nil || pc.redis == nil {
		return nil, false
	}
	data, err := pc.redis.Get(messagesKey(key))
	if err != nil || data == nil {
		return nil, false
	}

	var messages []models.Message
	if err := msgpack.Unmarshal(data, &messages); err != nil {
		return nil, false
	}

	return messages, true
}

// SetMessages caches a conversation projection
func (pc *ProjectionCache) SetMessages(key models.ConvKey, messages []models.Message) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(messages)
	if err != nil {
		return err
	}

	return pc.redis.Set(messagesKey(key), data, ConversationTTL)
}

// InvalidateMessages drops a conversation projection
func (pc *ProjectionCache) InvalidateMessages(key models.ConvKey) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	return pc.redis.Delete(messagesKey(key))
}

// GetList retrieves a cached conversation list
func (pc *ProjectionCache) GetList(kind models.ConvKind) ([]models.ConversationView, bool) {
	if pc == nil || pc.redis == nil {
		return nil, false
	}
	data, err := pc.redis.Get(listKey(kind))
	if err != nil || data == nil {
		return nil, false
	}

	var views []models.ConversationView
	if err := msgpack.Unmarshal(data, &views); err != nil {
		return nil, false
	}

	return views, true
}

// SetList caches a conversation list
func (pc *ProjectionCache) SetList(kind models.ConvKind, views []models.ConversationView) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(views)
	if err != nil {
		return err
	}

	return pc.redis.Set(listKey(kind), data, ListTTL)
}

// InvalidateLists drops both conversation lists; called whenever ordering,
// pins or unread counts change.
func (pc *ProjectionCache) InvalidateLists() error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	return pc.redis.DeletePattern("list:*")
}

// GetUnread retrieves the cached unread snapshot
func (pc *ProjectionCache) GetUnread() (map[string]int, bool) {
	if pc == nil || pc.redis == nil {
		return nil, false
	}
	data, err := pc.redis.Get("unread")
	if err != nil || data == nil {
		return nil, false
	}

	var counts map[string]int
	if err := msgpack.Unmarshal(data, &counts); err != nil {
		return nil, false
	}

	return counts, true
}

// SetUnread caches the unread snapshot
func (pc *ProjectionCache) SetUnread(counts map[string]int) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(counts)
	if err != nil {
		return err
	}

	return pc.redis.Set("unread", data, UnreadTTL)
}

// InvalidateUnread drops the unread snapshot
func (pc *ProjectionCache) InvalidateUnread() error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	return pc.redis.Delete("unread")
}
