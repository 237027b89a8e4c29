package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

type ConvKind uint8

const (
	KindDirect ConvKind = iota + 1
	KindGroup
)

// ConvKey is a discriminated conversation identifier. A peer id and a group id
// with the same numeric value are distinct keys.
type ConvKey struct {
	Kind ConvKind
	ID   uint
}

func DirectKey(peerID uint) ConvKey {
	return ConvKey{Kind: KindDirect, ID: peerID}
}

func GroupKey(groupID uint) ConvKey {
	return ConvKey{Kind: KindGroup, ID: groupID}
}

// IsZero reports whether the key is unset (no open conversation).
func (k ConvKey) IsZero() bool {
	return k.Kind == 0
}

// Label renders the kind for API payloads.
func (k ConvKind) Label() string {
	if k == KindGroup {
		return "group"
	}
	return "direct"
}

// String renders "u:<id>" or "g:<id>", used for cache keys and logs and as the
// wire form in unread-count snapshots (the upstream sends bare peer ids for
// direct chats and "group_<id>" for groups; see ParseWireKey).
func (k ConvKey) String() string {
	switch k.Kind {
	case KindDirect:
		return "u:" + strconv.FormatUint(uint64(k.ID), 10)
	case KindGroup:
		return "g:" + strconv.FormatUint(uint64(k.ID), 10)
	default:
		return "?:0"
	}
}

// ParseWireKey decodes the upstream's unread-snapshot key format: a bare
// numeric peer id, or "group_<id>" for groups.
func ParseWireKey(s string) (ConvKey, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "group_"); ok {
		id, err := strconv.ParseUint(rest, 10, 32)
		if err != nil {
			return ConvKey{}, fmt.Errorf("invalid group key %q", s)
		}
		return GroupKey(uint(id)), nil
	}
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return ConvKey{}, fmt.Errorf("invalid conversation key %q", s)
	}
	return DirectKey(uint(id)), nil
}

// Conversation is the persisted activity row for one conversation, mirroring
// what the registry holds in memory so restarts keep list ordering.
type Conversation struct {
	Kind      ConvKind       `gorm:"primaryKey" json:"kind"`
	TargetID  uint           `gorm:"primaryKey" json:"target_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name               string `gorm:"type:varchar(120)" json:"name"`
	LastActivityMillis int64  `gorm:"index" json:"last_activity_millis"`
	Pinned             bool   `gorm:"default:false" json:"pinned"`
}

func (c *Conversation) Key() ConvKey {
	return ConvKey{Kind: c.Kind, ID: c.TargetID}
}

// ConversationView is the read-only list entry handed to the render layer.
type ConversationView struct {
	Key                ConvKey `json:"-"`
	WireKey            string  `json:"key"`
	Kind               string  `json:"kind"`
	TargetID           uint    `json:"target_id"`
	Name               string  `json:"name"`
	Pinned             bool    `json:"pinned"`
	LastActivityMillis int64   `json:"last_activity_millis"`
	Unread             int     `json:"unread"`
	Online             bool    `json:"online"`
}
