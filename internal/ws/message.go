package ws

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/noteduco342/OMMessenger-sync/internal/cache"
	"github.com/noteduco342/OMMessenger-sync/internal/engine"
	"github.com/noteduco342/OMMessenger-sync/internal/models"
)

// EventContext provides all dependencies needed for event processing.
// Presence may be nil; the cache degrades to a no-op without Redis.
type EventContext struct {
	Engine   *engine.Engine
	Out      Outbound
	Sink     Sink
	Presence *cache.PresenceCache
}

// Event interface for all WebSocket event types.
type Event interface {
	GetType() string
	Process(ctx *EventContext) error
}

// Outbound emits wire messages back to the upstream.
type Outbound interface {
	MarkRead(messageID, senderID uint) error
	Delivered(messageID, senderID uint) error
	GroupSeen(messageID, groupID uint) error
	Send(msg engine.OutboundMessage) error
}

// Sink receives user-facing side effects. The render layer plugs in here.
type Sink interface {
	Notify(title, body string, key models.ConvKey, messageID uint)
	Toast(title, body string)
	ClearComposer()
	RestoreComposer(content string, attachment *models.Attachment)
}

// NopSink discards all side effects, used when no render layer is attached.
type NopSink struct{}

func (NopSink) Notify(string, string, models.ConvKey, uint) {}
func (NopSink) Toast(string, string)                        {}
func (NopSink) ClearComposer()                              {}
func (NopSink) RestoreComposer(string, *models.Attachment)  {}

// SerializedMessage is the wire format wrapper.
type SerializedMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func ToJson(evt interface{}) ([]byte, error) {
	return json.Marshal(evt)
}

func FromJson(jsonBytes []byte, evt Event) error {
	return json.Unmarshal(jsonBytes, evt)
}

func CreateEvent(evtType string, typeRegistry map[string]reflect.Type) (Event, error) {
	evtTypeReflect, ok := typeRegistry[evtType]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", evtType)
	}

	instance := reflect.New(evtTypeReflect).Interface()
	return instance.(Event), nil
}

// ExecuteIntents performs the side effects a reducer transition requested.
// Wire emissions that fail abort the remainder; sink effects never fail.
func ExecuteIntents(ctx *EventContext, intents []engine.Intent) error {
	sink := ctx.Sink
	if sink == nil {
		sink = NopSink{}
	}
	for _, it := range intents {
		var err error
		switch v := it.(type) {
		case engine.SendWire:
			err = ctx.Out.Send(v.Message)
		case engine.EmitReadReceipt:
			err = ctx.Out.MarkRead(v.MessageID, v.SenderID)
		case engine.EmitDeliveredAck:
			err = ctx.Out.Delivered(v.MessageID, v.SenderID)
		case engine.EmitGroupSeen:
			err = ctx.Out.GroupSeen(v.MessageID, v.GroupID)
		case engine.Notify:
			sink.Notify(v.Title, v.Body, v.Key, v.MessageID)
		case engine.Toast:
			sink.Toast(v.Title, v.Body)
		case engine.ClearComposer:
			sink.ClearComposer()
		case engine.RestoreComposer:
			sink.RestoreComposer(v.Content, v.Attachment)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
