package ws

import (
	"log"

	"github.com/noteduco342/OMMessenger-sync/internal/engine"
	"github.com/noteduco342/OMMessenger-sync/internal/models"
)

const (
	EvtNewMessage       = "new_message"
	EvtNewGroupMessage  = "new_group_message"
	EvtMessageDelivered = "message_delivered"
	EvtMessageRead      = "message_read"
	EvtGroupSeenUpdate  = "group_message_seen_update"
	EvtMessagePinned    = "message_pinned"
	EvtGroupMsgPinned   = "group_message_pinned"
	EvtUnreadCounts     = "unread_counts_update"
	EvtLastActivity     = "update_last_activity"
	EvtGroupActivity    = "update_group_activity"
	EvtChatPinUpdated   = "chat_pin_updated"
	EvtUserConnected    = "user_connected"
	EvtUserDisconnected = "user_disconnected"
	EvtSendAck          = "send_ack"
	EvtGroupCreated     = "group_created"
	EvtNotification     = "notification"
	EvtBatch            = "batch"
)

// EventNewMessage carries a direct message pushed by the upstream.
type EventNewMessage struct {
	models.Message
}

func (evt *EventNewMessage) GetType() string { return EvtNewMessage }

func (evt *EventNewMessage) Process(ctx *EventContext) error {
	return ExecuteIntents(ctx, ctx.Engine.HandleNewMessage(evt.Message))
}

// EventNewGroupMessage carries a group message push.
type EventNewGroupMessage struct {
	models.Message
}

func (evt *EventNewGroupMessage) GetType() string { return EvtNewGroupMessage }

func (evt *EventNewGroupMessage) Process(ctx *EventContext) error {
	return ExecuteIntents(ctx, ctx.Engine.HandleNewGroupMessage(evt.Message))
}

// EventMessageDelivered is a delivered receipt for a self-sent message.
type EventMessageDelivered struct {
	MessageID uint `json:"message_id"`
}

func (evt *EventMessageDelivered) GetType() string { return EvtMessageDelivered }

func (evt *EventMessageDelivered) Process(ctx *EventContext) error {
	ctx.Engine.HandleDelivered(evt.MessageID)
	return nil
}

// EventMessageRead is a read receipt for a self-sent message.
type EventMessageRead struct {
	MessageID uint `json:"message_id"`
}

func (evt *EventMessageRead) GetType() string { return EvtMessageRead }

func (evt *EventMessageRead) Process(ctx *EventContext) error {
	ctx.Engine.HandleRead(evt.MessageID)
	return nil
}

// EventGroupSeenUpdate unions users into a group message's seen set.
type EventGroupSeenUpdate struct {
	MessageID uint   `json:"message_id"`
	SeenUsers []uint `json:"seen_users"`
}

func (evt *EventGroupSeenUpdate) GetType() string { return EvtGroupSeenUpdate }

func (evt *EventGroupSeenUpdate) Process(ctx *EventContext) error {
	ctx.Engine.HandleGroupSeen(evt.MessageID, evt.SeenUsers)
	return nil
}

// EventMessagePinned toggles a direct message pin.
type EventMessagePinned struct {
	MessageID uint `json:"message_id"`
	Pinned    bool `json:"pinned"`
}

func (evt *EventMessagePinned) GetType() string { return EvtMessagePinned }

func (evt *EventMessagePinned) Process(ctx *EventContext) error {
	ctx.Engine.HandleMessagePinned(evt.MessageID, evt.Pinned)
	return nil
}

// EventGroupMessagePinned toggles a group message pin. The upstream sends it
// as a distinct type with the same payload.
type EventGroupMessagePinned struct {
	MessageID uint `json:"message_id"`
	Pinned    bool `json:"pinned"`
}

func (evt *EventGroupMessagePinned) GetType() string { return EvtGroupMsgPinned }

func (evt *EventGroupMessagePinned) Process(ctx *EventContext) error {
	ctx.Engine.HandleMessagePinned(evt.MessageID, evt.Pinned)
	return nil
}

// EventUnreadCounts is the authoritative unread snapshot, keyed by bare peer
// id or "group_<id>".
type EventUnreadCounts map[string]int

func (evt *EventUnreadCounts) GetType() string { return EvtUnreadCounts }

func (evt *EventUnreadCounts) Process(ctx *EventContext) error {
	ctx.Engine.HandleUnreadSnapshot(map[string]int(*evt))
	return nil
}

// EventLastActivity advances a direct conversation's activity timestamp. The
// upstream names the peer inconsistently across versions, so both fields are
// accepted.
type EventLastActivity struct {
	PeerID    uint        `json:"peer_id"`
	UserID    uint        `json:"user_id"`
	Timestamp interface{} `json:"timestamp"`
}

func (evt *EventLastActivity) GetType() string { return EvtLastActivity }

func (evt *EventLastActivity) Process(ctx *EventContext) error {
	peer := evt.PeerID
	if peer == 0 {
		peer = evt.UserID
	}
	if peer == 0 {
		return nil
	}
	ctx.Engine.HandleActivityUpdate(peer, evt.Timestamp)
	return nil
}

// EventGroupActivity advances a group conversation's activity timestamp.
type EventGroupActivity struct {
	GroupID   uint        `json:"group_id"`
	Timestamp interface{} `json:"timestamp"`
}

func (evt *EventGroupActivity) GetType() string { return EvtGroupActivity }

func (evt *EventGroupActivity) Process(ctx *EventContext) error {
	if evt.GroupID == 0 {
		return nil
	}
	ctx.Engine.HandleGroupActivity(evt.GroupID, evt.Timestamp)
	return nil
}

// EventChatPinUpdated applies a conversation-level pin toggle.
type EventChatPinUpdated struct {
	TargetType string `json:"target_type"`
	TargetID   uint   `json:"target_id"`
	Pin        bool   `json:"pin"`
}

func (evt *EventChatPinUpdated) GetType() string { return EvtChatPinUpdated }

func (evt *EventChatPinUpdated) Process(ctx *EventContext) error {
	var key models.ConvKey
	switch evt.TargetType {
	case "user":
		key = models.DirectKey(evt.TargetID)
	case "group":
		key = models.GroupKey(evt.TargetID)
	default:
		log.Printf("Ignoring pin update for unknown target type %q", evt.TargetType)
		return nil
	}
	ctx.Engine.HandleChatPinUpdated(key, evt.Pin)
	return nil
}

// EventUserConnected records a peer coming online.
type EventUserConnected struct {
	UserID uint `json:"user_id"`
}

func (evt *EventUserConnected) GetType() string { return EvtUserConnected }

func (evt *EventUserConnected) Process(ctx *EventContext) error {
	ctx.Engine.HandlePresence(evt.UserID, true)
	if err := ctx.Presence.SetPeerOnline(evt.UserID); err != nil {
		log.Printf("Failed to cache presence for user %d: %v", evt.UserID, err)
	}
	return nil
}

// EventUserDisconnected records a peer going offline.
type EventUserDisconnected struct {
	UserID uint `json:"user_id"`
}

func (evt *EventUserDisconnected) GetType() string { return EvtUserDisconnected }

func (evt *EventUserDisconnected) Process(ctx *EventContext) error {
	ctx.Engine.HandlePresence(evt.UserID, false)
	if err := ctx.Presence.SetPeerOffline(evt.UserID); err != nil {
		log.Printf("Failed to cache presence for user %d: %v", evt.UserID, err)
	}
	return nil
}

// EventSendAck resolves an optimistic send by client id.
type EventSendAck struct {
	ClientID string          `json:"client_id"`
	Message  *models.Message `json:"message"`
	Error    string          `json:"error"`
}

func (evt *EventSendAck) GetType() string { return EvtSendAck }

func (evt *EventSendAck) Process(ctx *EventContext) error {
	intents := ctx.Engine.HandleSendAck(evt.ClientID, engine.AckResult{
		Message: evt.Message,
		Err:     evt.Error,
	})
	return ExecuteIntents(ctx, intents)
}

// EventGroupCreated announces a new group; its name feeds sort tie-breaks.
type EventGroupCreated struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func (evt *EventGroupCreated) GetType() string { return EvtGroupCreated }

func (evt *EventGroupCreated) Process(ctx *EventContext) error {
	if evt.ID == 0 {
		return nil
	}
	ctx.Engine.SetName(models.GroupKey(evt.ID), evt.Name)
	return nil
}

// EventNotification is a server-raised toast.
type EventNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (evt *EventNotification) GetType() string { return EvtNotification }

func (evt *EventNotification) Process(ctx *EventContext) error {
	if ctx.Sink != nil {
		ctx.Sink.Toast(evt.Title, evt.Body)
	}
	return nil
}

// EventBatch is the upstream's offline-backlog envelope: queued events
// replayed on reconnect, processed strictly in order.
type EventBatch struct {
	Messages []SerializedMessage `json:"messages"`
	Count    int                 `json:"count"`
}

func (evt *EventBatch) GetType() string { return EvtBatch }

func (evt *EventBatch) Process(ctx *EventContext) error {
	for i := range evt.Messages {
		inner, err := DeserializeSerializedMessage(&evt.Messages[i])
		if err != nil {
			log.Printf("Skipping undecodable batch entry %d: %v", i, err)
			continue
		}
		if err := inner.Process(ctx); err != nil {
			return err
		}
	}
	return nil
}
