package api

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noteduco342/OMMessenger-sync/internal/cache"
	"github.com/noteduco342/OMMessenger-sync/internal/engine"
	"github.com/noteduco342/OMMessenger-sync/internal/history"
	"github.com/noteduco342/OMMessenger-sync/internal/httpx"
	"github.com/noteduco342/OMMessenger-sync/internal/models"
	"github.com/noteduco342/OMMessenger-sync/internal/storage"
	"github.com/noteduco342/OMMessenger-sync/internal/ws"
)

// SyncHandler exposes the reconciled state to the render layer and accepts
// composer actions. It is the only HTTP surface of the daemon; everything else
// flows over the upstream WebSocket.
type SyncHandler struct {
	engine  *engine.Engine
	loader  *history.Loader
	out     ws.Outbound
	sink    ws.Sink
	cache   *cache.ProjectionCache
	staging *storage.Staging
}

func NewSyncHandler(eng *engine.Engine, loader *history.Loader, out ws.Outbound, sink ws.Sink, projCache *cache.ProjectionCache, staging *storage.Staging) *SyncHandler {
	if sink == nil {
		sink = ws.NopSink{}
	}
	return &SyncHandler{
		engine:  eng,
		loader:  loader,
		out:     out,
		sink:    sink,
		cache:   projCache,
		staging: staging,
	}
}

func (h *SyncHandler) execute(intents []engine.Intent) {
	ctx := &ws.EventContext{Engine: h.engine, Out: h.out, Sink: h.sink}
	if err := ws.ExecuteIntents(ctx, intents); err != nil {
		log.Printf("Error executing intents: %v", err)
	}
}

func parseKind(raw string) (models.ConvKind, bool) {
	switch raw {
	case "", "direct":
		return models.KindDirect, true
	case "group":
		return models.KindGroup, true
	default:
		return 0, false
	}
}

// GetConversations returns the sorted conversation list for one kind.
func (h *SyncHandler) GetConversations(c *fiber.Ctx) error {
	kind, ok := parseKind(c.Query("kind"))
	if !ok {
		return httpx.BadRequest(c, "invalid_kind", "kind must be direct or group")
	}

	if views, ok := h.cache.GetList(kind); ok {
		return c.JSON(views)
	}

	views := h.engine.Conversations(kind)
	if err := h.cache.SetList(kind, views); err != nil {
		log.Printf("Failed to cache %s list: %v", kind.Label(), err)
	}
	return c.JSON(views)
}

// GetMessages returns the rendered messages of one conversation.
func (h *SyncHandler) GetMessages(c *fiber.Ctx) error {
	key, err := models.ParseWireKey(c.Params("key"))
	if err != nil {
		return httpx.BadRequest(c, "invalid_key", "Invalid conversation key")
	}

	if msgs, ok := h.cache.GetMessages(key); ok {
		return c.JSON(msgs)
	}

	msgs := h.engine.Messages(key)
	if err := h.cache.SetMessages(key, msgs); err != nil {
		log.Printf("Failed to cache messages for %s: %v", key, err)
	}
	return c.JSON(msgs)
}

// GetPinnedMessages returns the pinned subset of one conversation.
func (h *SyncHandler) GetPinnedMessages(c *fiber.Ctx) error {
	key, err := models.ParseWireKey(c.Params("key"))
	if err != nil {
		return httpx.BadRequest(c, "invalid_key", "Invalid conversation key")
	}
	return c.JSON(h.engine.PinnedMessages(key))
}

// GetUnread returns all unread counts keyed by wire key.
func (h *SyncHandler) GetUnread(c *fiber.Ctx) error {
	if counts, ok := h.cache.GetUnread(); ok {
		return c.JSON(counts)
	}

	counts := h.engine.UnreadAll()
	if err := h.cache.SetUnread(counts); err != nil {
		log.Printf("Failed to cache unread counts: %v", err)
	}
	return c.JSON(counts)
}

// OpenConversation makes a conversation active and loads its backlog. The
// response carries the freshly rendered messages.
func (h *SyncHandler) OpenConversation(c *fiber.Ctx) error {
	key, err := models.ParseWireKey(c.Params("key"))
	if err != nil {
		return httpx.BadRequest(c, "invalid_key", "Invalid conversation key")
	}

	var res *history.Result
	switch key.Kind {
	case models.KindGroup:
		h.engine.OpenGroup(key.ID)
		if h.loader != nil {
			res, err = h.loader.LoadGroup(key.ID)
		}
	default:
		h.engine.OpenDirect(key.ID)
		if h.loader != nil {
			res, err = h.loader.LoadDirect(key.ID)
		}
	}
	if err != nil {
		log.Printf("History load for %s failed: %v", key, err)
		return httpx.Internal(c, "history_load_failed")
	}

	h.execute(h.engine.ApplyHistory(res))
	h.cache.InvalidateMessages(key)
	h.cache.InvalidateUnread()

	return c.JSON(h.engine.Messages(key))
}

// CloseConversation leaves no conversation open.
func (h *SyncHandler) CloseConversation(c *fiber.Ctx) error {
	h.engine.CloseConversation()
	return c.SendStatus(fiber.StatusNoContent)
}

// ClearConversation visually clears the open conversation.
func (h *SyncHandler) ClearConversation(c *fiber.Ctx) error {
	h.engine.ClearView()
	if key := h.engine.Open(); !key.IsZero() {
		h.cache.InvalidateMessages(key)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type attachmentInput struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
	URL      string `json:"url"`  // pre-staged media, sent as-is
}

type sendInput struct {
	Content     string            `json:"content"`
	ReplyTo     *uint             `json:"reply_to"`
	Attachments []attachmentInput `json:"attachments"`
}

// Send submits a message into the open conversation. Attachments are staged
// to object storage first; the wire payloads carry their URLs.
func (h *SyncHandler) Send(c *fiber.Ctx) error {
	var input sendInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	atts := make([]models.Attachment, 0, len(input.Attachments))
	for _, in := range input.Attachments {
		att := models.Attachment{Filename: in.Filename, MimeType: in.MimeType, URL: in.URL}
		if in.Data != "" {
			data, err := base64.StdEncoding.DecodeString(in.Data)
			if err != nil {
				return httpx.BadRequest(c, "invalid_attachment", "Attachment data must be base64")
			}
			att.Data = data
		}
		atts = append(atts, att)
	}

	ctx, cancel := context.WithTimeout(c.Context(), 30*time.Second)
	defer cancel()
	if err := h.staging.StageAll(ctx, atts); err != nil {
		log.Printf("Attachment staging failed: %v", err)
		return httpx.Internal(c, "attachment_staging_failed")
	}

	if input.ReplyTo != nil {
		h.engine.SetReplyTarget(*input.ReplyTo)
	}

	intents, err := h.engine.SubmitSend(input.Content, atts)
	switch {
	case errors.Is(err, engine.ErrSendInFlight):
		return httpx.Conflict(c, "send_in_flight", "A send is already in progress")
	case errors.Is(err, engine.ErrNoConversation):
		return httpx.BadRequest(c, "no_conversation", "No open conversation")
	case errors.Is(err, engine.ErrEmptySend):
		return httpx.BadRequest(c, "empty_send", "Nothing to send")
	case err != nil:
		return httpx.Internal(c, "send_failed")
	}

	h.execute(intents)
	return c.SendStatus(fiber.StatusAccepted)
}

// Forward re-sends an existing message into the open conversation.
func (h *SyncHandler) Forward(c *fiber.Ctx) error {
	var input struct {
		MessageID uint `json:"message_id"`
	}
	if err := c.BodyParser(&input); err != nil || input.MessageID == 0 {
		return httpx.BadRequest(c, "invalid_request_body", "message_id is required")
	}

	intents, err := h.engine.SubmitForward(input.MessageID)
	switch {
	case errors.Is(err, engine.ErrSendInFlight):
		return httpx.Conflict(c, "send_in_flight", "A send is already in progress")
	case errors.Is(err, engine.ErrNoConversation):
		return httpx.BadRequest(c, "no_conversation", "No open conversation")
	case err != nil:
		return httpx.BadRequest(c, "unknown_message", "Unknown message")
	}

	h.execute(intents)
	return c.SendStatus(fiber.StatusAccepted)
}

// SetFocus records whether the render window has focus.
func (h *SyncHandler) SetFocus(c *fiber.Ctx) error {
	var input struct {
		Focused bool `json:"focused"`
	}
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	h.engine.SetFocused(input.Focused)
	return c.SendStatus(fiber.StatusNoContent)
}
