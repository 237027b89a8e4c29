package engine

import "github.com/noteduco342/OMMessenger-sync/internal/models"

// Intent is a side effect the reducer wants performed. Transitions themselves
// are pure state updates; the caller (transport wiring) executes the returned
// intents outside the engine lock, which keeps the reducer testable without a
// network.
type Intent interface {
	intent()
}

// SendWire dispatches an outbound message to the upstream, expecting a send
// acknowledgment carrying the same client id.
type SendWire struct {
	Message OutboundMessage
}

// EmitReadReceipt acknowledges that the local user has read a direct message.
type EmitReadReceipt struct {
	MessageID uint
	SenderID  uint
}

// EmitDeliveredAck acknowledges delivery of a direct message the user has not
// yet viewed.
type EmitDeliveredAck struct {
	MessageID uint
	SenderID  uint
}

// EmitGroupSeen marks a group message as seen by the local user.
type EmitGroupSeen struct {
	MessageID uint
	GroupID   uint
}

// Notify raises a user-visible notification through the side channel.
type Notify struct {
	Title     string
	Body      string
	Key       models.ConvKey
	MessageID uint
}

// Toast surfaces a non-fatal error to the user.
type Toast struct {
	Title string
	Body  string
}

// ClearComposer tells the render layer the send completed: empty the input
// and drop attachment previews.
type ClearComposer struct{}

// RestoreComposer reverts the optimistic composer state after a failed send.
type RestoreComposer struct {
	Content    string
	Attachment *models.Attachment
}

func (SendWire) intent()         {}
func (EmitReadReceipt) intent()  {}
func (EmitDeliveredAck) intent() {}
func (EmitGroupSeen) intent()    {}
func (Notify) intent()           {}
func (Toast) intent()            {}
func (ClearComposer) intent()    {}
func (RestoreComposer) intent()  {}

// OutboundMessage is the wire payload of send_message / send_group_message.
type OutboundMessage struct {
	ClientID        string             `json:"client_id"`
	SenderID        uint               `json:"sender_id"`
	ReceiverID      *uint              `json:"receiver_id,omitempty"`
	GroupID         *uint              `json:"group_id,omitempty"`
	Content         string             `json:"content"`
	Type            models.MessageType `json:"type"`
	Filename        string             `json:"filename,omitempty"`
	MediaURL        string             `json:"media_url,omitempty"`
	ParentMessageID *uint              `json:"parent_message_id,omitempty"`
}

// IsGroup reports whether the payload targets a group conversation.
func (o OutboundMessage) IsGroup() bool {
	return o.GroupID != nil
}
