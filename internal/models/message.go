package models

import (
	"time"

	"gorm.io/gorm"
)

type MessageType string

const (
	TextMessage    MessageType = "text"
	ImageMessage   MessageType = "image"
	FileMessage    MessageType = "file"
	ReplyMessage   MessageType = "reply"
	ForwardMessage MessageType = "forward"
)

type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// Message is the client-side projection of one chat message. The server id is
// authoritative for deduplication; ClientID tags optimistic local sends until
// the acknowledgment assigns the server id.
type Message struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ClientID string `gorm:"type:varchar(36);index" json:"client_id,omitempty"`

	SenderID    uint  `gorm:"not null;index" json:"sender_id"`
	RecipientID *uint `gorm:"index" json:"receiver_id,omitempty"` // nil for group messages
	GroupID     *uint `gorm:"index" json:"group_id,omitempty"`    // nil for direct messages

	Content         string      `gorm:"type:text" json:"content"`
	MessageType     MessageType `gorm:"type:varchar(20);default:'text'" json:"type"`
	ParentMessageID *uint       `json:"parent_message_id,omitempty"` // reply/forward chains

	MediaURL  string `gorm:"type:text" json:"media_url,omitempty"`
	MediaType string `gorm:"type:varchar(40)" json:"media_type,omitempty"`
	Filename  string `gorm:"type:varchar(255)" json:"filename,omitempty"`
	MediaSize int64  `json:"media_size,omitempty"`

	// Receipt state. Direct messages walk sent -> delivered -> read; group
	// messages instead accumulate SeenBy.
	Status MessageStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	SeenBy UintSet       `gorm:"serializer:json" json:"seen_by,omitempty"`

	Pinned bool `gorm:"default:false;index" json:"pinned"`

	// Millisecond timestamp normalized at ingest; ordering within a
	// conversation uses this, not CreatedAt.
	TimestampMillis int64 `gorm:"index" json:"timestamp_millis"`
}

// IsGroup reports whether the message belongs to a group conversation.
func (m *Message) IsGroup() bool {
	return m.GroupID != nil
}

// Conversation returns the conversation key this message belongs to, relative
// to the given local user. ok is false when the message references neither a
// recipient nor a group, or names the local user on neither side.
func (m *Message) Conversation(selfID uint) (ConvKey, bool) {
	if m.GroupID != nil {
		return GroupKey(*m.GroupID), true
	}
	if m.RecipientID == nil {
		return ConvKey{}, false
	}
	switch {
	case m.SenderID == selfID:
		return DirectKey(*m.RecipientID), true
	case *m.RecipientID == selfID:
		return DirectKey(m.SenderID), true
	default:
		return ConvKey{}, false
	}
}

// UintSet is a grow-only membership set stored as a JSON array.
type UintSet []uint

// Has reports membership.
func (s UintSet) Has(id uint) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Add unions id into the set, reporting whether the set changed.
func (s *UintSet) Add(id uint) bool {
	if s.Has(id) {
		return false
	}
	*s = append(*s, id)
	return true
}

// Attachment describes a queued outbound attachment before upload.
type Attachment struct {
	Filename string
	MimeType string
	Size     int64
	Data     []byte
	// Set once staging uploads the blob; goes on the wire in MediaURL.
	URL string
}

// IsImage reports whether the attachment should be sent as an image message.
func (a *Attachment) IsImage() bool {
	return len(a.MimeType) >= 6 && a.MimeType[:6] == "image/"
}
