package engine

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/noteduco342/OMMessenger-sync/internal/models"
	"github.com/noteduco342/OMMessenger-sync/internal/sendq"
	"github.com/noteduco342/OMMessenger-sync/internal/timeutil"
)

var (
	// ErrSendInFlight protects against rapid double-submissions: at most one
	// send operation runs per session.
	ErrSendInFlight = errors.New("engine: a send is already in flight")
	// ErrNoConversation means no conversation is open to send into.
	ErrNoConversation = errors.New("engine: no open conversation")
	// ErrEmptySend means there is neither text nor an attachment to send.
	ErrEmptySend = errors.New("engine: nothing to send")
)

// AckResult carries a send acknowledgment from the upstream. Err is the
// server-reported failure, empty on success.
type AckResult struct {
	Message *models.Message
	Err     string
}

// SendInFlight reports whether the send gate is held.
func (e *Engine) SendInFlight() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sending
}

// SubmitSend starts a send into the open conversation: text plus any queued
// attachments, serialized one network call at a time. The returned intents
// carry the first wire dispatch; subsequent steps are driven by HandleSendAck.
func (e *Engine) SubmitSend(content string, attachments []models.Attachment) ([]Intent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.open.IsZero() {
		return nil, ErrNoConversation
	}
	if e.sending {
		return nil, ErrSendInFlight
	}
	if content == "" && len(attachments) == 0 {
		return nil, ErrEmptySend
	}

	queue := sendq.Build(content, attachments)
	item, err := queue.Current()
	if err != nil {
		return nil, ErrEmptySend
	}

	e.sending = true
	e.inflight = &inflightSend{
		clientID: uuid.NewString(),
		queue:    queue,
		key:      e.open,
		content:  content,
	}
	return []Intent{e.dispatchLocked(item)}, nil
}

// SubmitForward re-sends a rendered message into the open conversation as a
// forward, preserving its media reference.
func (e *Engine) SubmitForward(messageID uint) ([]Intent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.open.IsZero() {
		return nil, ErrNoConversation
	}
	if e.sending {
		return nil, ErrSendInFlight
	}
	src, ok := e.byID[messageID]
	if !ok {
		return nil, errors.New("engine: unknown message to forward")
	}

	parent := src.ID
	out := OutboundMessage{
		ClientID:        uuid.NewString(),
		SenderID:        e.selfID,
		Content:         src.Content,
		Type:            models.ForwardMessage,
		Filename:        src.Filename,
		MediaURL:        src.MediaURL,
		ParentMessageID: &parent,
	}
	e.targetLocked(&out)

	e.sending = true
	e.inflight = &inflightSend{
		clientID:   out.ClientID,
		queue:      sendq.Build(src.Content, nil),
		key:        e.open,
		optimistic: e.optimisticLocked(out),
	}
	return []Intent{SendWire{Message: out}}, nil
}

// HandleSendAck resolves the in-flight send step. On success the optimistic
// message becomes the server's confirmed copy and the next queued attachment
// dispatches; on error the optimistic state is fully reverted and the queue
// halts (prior acknowledged steps stay sent).
func (e *Engine) HandleSendAck(clientID string, ack AckResult) []Intent {
	e.mu.Lock()
	defer e.mu.Unlock()

	inflight := e.inflight
	if !e.sending || inflight == nil || inflight.clientID != clientID {
		log.Printf("Dropping send ack for unknown client id %s", clientID)
		return nil
	}

	if ack.Err != "" || ack.Message == nil || ack.Message.ID == 0 {
		return e.failSendLocked(inflight, ack.Err)
	}

	// Adopt the server copy in place: the optimistic message keeps its slot
	// in the rendered view, so no flicker and no duplicate when the server
	// echoes the same id through new_message.
	confirmed := e.confirm(ack.Message)
	e.normalizeTimestamp(confirmed)
	if echo, ok := e.byID[confirmed.ID]; ok {
		// The echo raced ahead of the ack and is already rendered; keep it
		// and drop the optimistic copy so the id appears exactly once.
		if opt := inflight.optimistic; opt != nil && opt != echo {
			e.removeRendered(inflight.key, opt)
		}
		confirmed = echo
	} else if opt := inflight.optimistic; opt != nil {
		*opt = *confirmed
		e.byID[opt.ID] = opt
		confirmed = opt
	} else {
		e.appendLocked(inflight.key, confirmed)
	}
	e.persistMessage(confirmed)

	if e.reg.Touch(inflight.key, confirmed.TimestampMillis) {
		e.scheduleResort(inflight.key.Kind)
		e.persistConversation(inflight.key)
	}

	next, ok := inflight.queue.Advance()
	if !ok {
		e.sending = false
		e.inflight = nil
		e.replyTo = nil
		return []Intent{ClearComposer{}}
	}

	inflight.clientID = uuid.NewString()
	return []Intent{e.dispatchLocked(next)}
}

func (e *Engine) failSendLocked(inflight *inflightSend, errMsg string) []Intent {
	// Fully revert: the pending message disappears, the composer gets its
	// content back. No half-sent message stays visible.
	if opt := inflight.optimistic; opt != nil {
		e.removeRendered(inflight.key, opt)
	}
	restore := RestoreComposer{Content: inflight.content}
	if item, err := inflight.queue.Current(); err == nil {
		restore.Attachment = item.Attachment
	}
	inflight.queue.Halt()
	e.sending = false
	e.inflight = nil

	if errMsg == "" {
		errMsg = "Failed to send message"
	}
	return []Intent{
		Toast{Title: "Error", Body: errMsg},
		restore,
	}
}

// dispatchLocked builds the optimistic pending message and wire payload for
// one queue item.
func (e *Engine) dispatchLocked(item sendq.Item) Intent {
	out := OutboundMessage{
		ClientID: e.inflight.clientID,
		SenderID: e.selfID,
		Content:  item.Content,
		Type:     models.TextMessage,
	}
	if e.replyTo != nil {
		out.Type = models.ReplyMessage
		out.ParentMessageID = e.replyTo
	} else if att := item.Attachment; att != nil {
		if att.IsImage() {
			out.Type = models.ImageMessage
		} else {
			out.Type = models.FileMessage
		}
	}
	if att := item.Attachment; att != nil {
		out.Filename = att.Filename
		out.MediaURL = att.URL
	}
	e.targetLocked(&out)

	e.inflight.optimistic = e.optimisticLocked(out)
	return SendWire{Message: out}
}

func (e *Engine) targetLocked(out *OutboundMessage) {
	switch e.open.Kind {
	case models.KindGroup:
		gid := e.open.ID
		out.GroupID = &gid
	default:
		pid := e.open.ID
		out.ReceiverID = &pid
	}
}

// optimisticLocked renders the pending-send message. It has no server id yet,
// so it is not indexed for dedup until the ack assigns one.
func (e *Engine) optimisticLocked(out OutboundMessage) *models.Message {
	m := &models.Message{
		ClientID:        out.ClientID,
		SenderID:        e.selfID,
		RecipientID:     out.ReceiverID,
		GroupID:         out.GroupID,
		Content:         out.Content,
		MessageType:     out.Type,
		ParentMessageID: out.ParentMessageID,
		Filename:        out.Filename,
		MediaURL:        out.MediaURL,
		Status:          models.StatusPending,
		TimestampMillis: timeutil.ToMillis(time.Now()),
	}
	e.msgs[e.open] = append(e.msgs[e.open], m)
	return m
}

func (e *Engine) removeRendered(key models.ConvKey, target *models.Message) {
	list := e.msgs[key]
	for i, m := range list {
		if m == target {
			e.msgs[key] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if target.ID != 0 {
		delete(e.byID, target.ID)
	}
}
