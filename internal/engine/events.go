package engine

import (
	"log"
	"time"

	"github.com/noteduco342/OMMessenger-sync/internal/history"
	"github.com/noteduco342/OMMessenger-sync/internal/models"
	"github.com/noteduco342/OMMessenger-sync/internal/timeutil"
)

// HandleNewMessage applies an inbound direct-message event. Duplicate ids and
// malformed events are dropped entirely; the same event applied twice yields
// identical state.
func (e *Engine) HandleNewMessage(msg models.Message) []Intent {
	e.mu.Lock()
	defer e.mu.Unlock()

	if msg.GroupID != nil {
		return e.handleGroupMessageLocked(msg)
	}

	if msg.ID == 0 {
		log.Printf("Dropping malformed message event: missing id (sender=%d)", msg.SenderID)
		return nil
	}
	key, ok := msg.Conversation(e.selfID)
	if !ok {
		log.Printf("Dropping message %d: does not involve user %d", msg.ID, e.selfID)
		return nil
	}
	if _, dup := e.seen[msg.ID]; dup {
		return nil
	}
	e.normalizeTimestamp(&msg)

	var intents []Intent
	viewing := e.open == key
	inbound := msg.RecipientID != nil && *msg.RecipientID == e.selfID && msg.SenderID != e.selfID

	if viewing {
		m := e.confirm(&msg)
		e.appendLocked(key, m)
		if inbound {
			// Viewing the chat: presumed read immediately, emit the receipt.
			m.Status = models.StatusRead
			intents = append(intents, EmitReadReceipt{MessageID: m.ID, SenderID: m.SenderID})
		}
		e.persistMessage(m)
	} else {
		// Not rendered; still persisted so the backlog survives restarts.
		m := e.confirm(&msg)
		e.persistMessage(m)
		if inbound {
			intents = append(intents, EmitDeliveredAck{MessageID: msg.ID, SenderID: msg.SenderID})
		}
	}

	if inbound && !viewing {
		e.unread.Increment(key)
	}
	if inbound && (!viewing || !e.focused) && msg.Status != models.StatusRead {
		intents = append(intents, e.notifyIntent(key, &msg))
	}

	if e.reg.Touch(key, msg.TimestampMillis) {
		e.scheduleResort(models.KindDirect)
		e.persistConversation(key)
	}
	return intents
}

// HandleNewGroupMessage applies an inbound group-message event.
func (e *Engine) HandleNewGroupMessage(msg models.Message) []Intent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handleGroupMessageLocked(msg)
}

func (e *Engine) handleGroupMessageLocked(msg models.Message) []Intent {
	if msg.ID == 0 || msg.GroupID == nil {
		log.Printf("Dropping malformed group message event (id=%d)", msg.ID)
		return nil
	}
	if _, dup := e.seen[msg.ID]; dup {
		return nil
	}
	e.normalizeTimestamp(&msg)

	key := models.GroupKey(*msg.GroupID)
	viewing := e.open == key
	fromPeer := msg.SenderID != e.selfID

	var intents []Intent
	if viewing {
		m := e.confirm(&msg)
		e.appendLocked(key, m)
		if fromPeer {
			intents = append(intents, EmitGroupSeen{MessageID: m.ID, GroupID: *msg.GroupID})
		}
		e.persistMessage(m)
	} else {
		m := e.confirm(&msg)
		e.persistMessage(m)
	}

	if fromPeer && !viewing {
		e.unread.Increment(key)
	}
	if fromPeer && (!viewing || !e.focused) {
		intents = append(intents, e.notifyIntent(key, &msg))
	}

	// Group activity always advances, whether or not the group is open.
	if e.reg.Touch(key, msg.TimestampMillis) {
		e.scheduleResort(models.KindGroup)
		e.persistConversation(key)
	}
	return intents
}

// HandleDelivered applies a delivered receipt to a self-sent direct message.
// Idempotent, and a no-op once the message is read.
func (e *Engine) HandleDelivered(messageID uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.byID[messageID]
	if !ok || m.SenderID != e.selfID || m.IsGroup() {
		return
	}
	if m.Status == models.StatusRead {
		return
	}
	if m.Status != models.StatusDelivered {
		m.Status = models.StatusDelivered
		e.persistMessage(m)
	}
}

// HandleRead applies a read receipt. Read is terminal: it never regresses.
func (e *Engine) HandleRead(messageID uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.byID[messageID]
	if !ok || m.SenderID != e.selfID || m.IsGroup() {
		return
	}
	if m.Status != models.StatusRead {
		m.Status = models.StatusRead
		e.persistMessage(m)
	}
}

// HandleGroupSeen unions the acknowledging users into a group message's
// seen-by set. Members are never removed, even if they later leave the group.
func (e *Engine) HandleGroupSeen(messageID uint, seenUsers []uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.byID[messageID]
	if !ok || !m.IsGroup() {
		return
	}
	changed := false
	for _, uid := range seenUsers {
		if m.SeenBy.Add(uid) {
			changed = true
		}
	}
	if changed {
		e.persistMessage(m)
	}
}

// HandleMessagePinned sets a rendered message's pin flag.
func (e *Engine) HandleMessagePinned(messageID uint, pinned bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.byID[messageID]
	if !ok {
		return
	}
	if m.Pinned != pinned {
		m.Pinned = pinned
		e.persistMessage(m)
	}
}

// HandleChatPinUpdated applies a conversation-level pin toggle. Pins resort
// immediately rather than waiting out the debounce window.
func (e *Engine) HandleChatPinUpdated(key models.ConvKey, pinned bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reg.SetPinned(key, pinned)
	e.resortNow(key.Kind)
	e.persistConversation(key)
}

// HandleUnreadSnapshot reconciles against an authoritative unread-count
// snapshot keyed by the upstream's wire format. Unparseable keys are logged
// and skipped.
func (e *Engine) HandleUnreadSnapshot(counts map[string]int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	parsed := make(map[models.ConvKey]int, len(counts))
	for raw, n := range counts {
		key, err := models.ParseWireKey(raw)
		if err != nil {
			log.Printf("Dropping unread entry: %v", err)
			continue
		}
		parsed[key] = n
	}

	known := append(e.reg.Keys(models.KindDirect), e.reg.Keys(models.KindGroup)...)
	e.unread.ApplySnapshot(parsed, known)

	// The open conversation stays optimistically cleared even if the
	// snapshot raced the open.
	if !e.open.IsZero() {
		e.unread.Clear(e.open)
	}

	e.scheduleResort(models.KindDirect)
	e.scheduleResort(models.KindGroup)
}

// HandleActivityUpdate applies an update_last_activity push for a direct peer.
func (e *Engine) HandleActivityUpdate(peerID uint, raw interface{}) {
	e.touchActivity(models.DirectKey(peerID), raw)
}

// HandleGroupActivity applies a group activity push.
func (e *Engine) HandleGroupActivity(groupID uint, raw interface{}) {
	e.touchActivity(models.GroupKey(groupID), raw)
}

func (e *Engine) touchActivity(key models.ConvKey, raw interface{}) {
	ts := timeutil.ToMillis(raw)
	if ts <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.reg.Touch(key, ts) {
		e.scheduleResort(key.Kind)
		e.persistConversation(key)
	}
}

// HandlePresence records a user_connected / user_disconnected push.
func (e *Engine) HandlePresence(userID uint, online bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.online[userID] = online
}

// ApplyHistory renders a completed backlog load into the open conversation.
// Stale results (superseded epoch, or the user already moved on) are
// discarded whole. Unread inbound direct messages are marked read with
// receipts emitted; group messages not yet seen by the local user get seen
// acknowledgments.
func (e *Engine) ApplyHistory(res *history.Result) []Intent {
	if res == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.guard.IsCurrent(res.Kind, res.Epoch) {
		return nil
	}
	if e.open != res.Key {
		return nil
	}

	// Replace the rendered view wholesale.
	for _, m := range e.msgs[res.Key] {
		if m.ID != 0 {
			delete(e.byID, m.ID)
		}
	}
	e.msgs[res.Key] = nil

	var intents []Intent
	var maxTs int64
	for i := range res.Messages {
		msg := res.Messages[i]
		if msg.ID == 0 {
			log.Printf("Dropping malformed history row for %s", res.Key)
			continue
		}
		if _, dup := e.byID[msg.ID]; dup {
			continue
		}
		e.normalizeTimestamp(&msg)
		m := e.confirm(&msg)
		e.appendLocked(res.Key, m)

		switch {
		case !m.IsGroup() && m.RecipientID != nil && *m.RecipientID == e.selfID && m.Status != models.StatusRead:
			m.Status = models.StatusRead
			intents = append(intents, EmitReadReceipt{MessageID: m.ID, SenderID: m.SenderID})
		case m.IsGroup() && m.SenderID != e.selfID && !m.SeenBy.Has(e.selfID):
			intents = append(intents, EmitGroupSeen{MessageID: m.ID, GroupID: *m.GroupID})
		}

		if m.TimestampMillis > maxTs {
			maxTs = m.TimestampMillis
		}
		e.persistMessage(m)
	}

	// A send still waiting on its ack must survive the replace; the ack
	// resolves against this same pointer.
	if e.sending && e.inflight != nil && e.inflight.key == res.Key {
		if opt := e.inflight.optimistic; opt != nil {
			e.msgs[res.Key] = append(e.msgs[res.Key], opt)
		}
	}

	if e.reg.Touch(res.Key, maxTs) {
		e.scheduleResort(res.Key.Kind)
		e.persistConversation(res.Key)
	}
	return intents
}

// confirm copies the wire message into engine-owned memory with a confirmed
// status (unless the server already reported a later receipt state). The id
// joins the seen set so retransmits of the same message are dropped whether
// or not this copy ends up rendered.
func (e *Engine) confirm(msg *models.Message) *models.Message {
	m := *msg
	if m.ID != 0 {
		e.seen[m.ID] = struct{}{}
	}
	switch m.Status {
	case models.StatusDelivered, models.StatusRead:
		// Keep the server-reported receipt state.
	default:
		m.Status = models.StatusSent
	}
	return &m
}

// appendLocked renders m into key's view, indexing confirmed ids for dedup
// and receipt lookups. Exactly one in-memory representation exists per id.
func (e *Engine) appendLocked(key models.ConvKey, m *models.Message) {
	if m.ID != 0 {
		e.byID[m.ID] = m
	}
	e.msgs[key] = append(e.msgs[key], m)
}

func (e *Engine) normalizeTimestamp(msg *models.Message) {
	if msg.TimestampMillis == 0 {
		msg.TimestampMillis = timeutil.ToMillis(msg.CreatedAt)
	}
	if msg.TimestampMillis == 0 {
		msg.TimestampMillis = time.Now().UnixMilli()
	}
}

func (e *Engine) notifyIntent(key models.ConvKey, msg *models.Message) Notify {
	title := e.names[key]
	if title == "" {
		title = "New message"
	}
	body := msg.Content
	switch msg.MessageType {
	case models.ImageMessage:
		body = "Sent an image"
	case models.FileMessage:
		body = "Sent a file"
	}
	if len(body) > 80 {
		body = body[:80] + "…"
	}
	return Notify{Title: title, Body: body, Key: key, MessageID: msg.ID}
}
