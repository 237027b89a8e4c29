package cache

import (
	"fmt"
	"strconv"
	"time"
)

const (
	OnlinePeersTTL = 90 * time.Second // Match pong timeout
)

// PresenceCache mirrors peer presence into Redis so other local consumers
// (shell widgets, notifiers) can read it without talking to the sync daemon.
type PresenceCache struct {
	redis *RedisCache
}

// NewPresenceCache creates a presence cache
func NewPresenceCache(redis *RedisCache) *PresenceCache {
	return &PresenceCache{redis: redis}
}

// SetPeerOnline adds a peer to the online set
func (pc *PresenceCache) SetPeerOnline(userID uint) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetAdd("online:peers", userID); err != nil {
		return err
	}

	// Set individual peer key with TTL for auto-expiration
	peerKey := fmt.Sprintf("online:%d", userID)
	return pc.redis.Set(peerKey, []byte("1"), OnlinePeersTTL)
}

// SetPeerOffline removes a peer from the online set
func (pc *PresenceCache) SetPeerOffline(userID uint) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetRemove("online:peers", userID); err != nil {
		return err
	}

	peerKey := fmt.Sprintf("online:%d", userID)
	return pc.redis.Delete(peerKey)
}

// IsPeerOnline checks if a peer is online
func (pc *PresenceCache) IsPeerOnline(userID uint) bool {
	if pc == nil || pc.redis == nil {
		return false
	}
	peerKey := fmt.Sprintf("online:%d", userID)
	return pc.redis.Exists(peerKey)
}

// GetOnlinePeers returns all online peer IDs
func (pc *PresenceCache) GetOnlinePeers() ([]uint, error) {
	if pc == nil || pc.redis == nil {
		return nil, nil
	}
	members, err := pc.redis.SetMembers("online:peers")
	if err != nil {
		return nil, err
	}

	peerIDs := make([]uint, 0, len(members))
	for _, member := range members {
		if id, err := strconv.ParseUint(member, 10, 32); err == nil {
			peerIDs = append(peerIDs, uint(id))
		}
	}

	return peerIDs, nil
}
