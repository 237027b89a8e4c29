package ws

import (
	"encoding/json"
	"testing"

	"github.com/noteduco342/OMMessenger-sync/internal/engine"
	"github.com/noteduco342/OMMessenger-sync/internal/models"
	"github.com/noteduco342/OMMessenger-sync/internal/sched"
)

type recordedEmit struct {
	evtType string
	payload interface{}
}

type mockOutbound struct {
	emits []recordedEmit
}

func (m *mockOutbound) MarkRead(messageID, senderID uint) error {
	m.emits = append(m.emits, recordedEmit{"mark_read", messageID})
	return nil
}

func (m *mockOutbound) Delivered(messageID, senderID uint) error {
	m.emits = append(m.emits, recordedEmit{"message_delivered", messageID})
	return nil
}

func (m *mockOutbound) GroupSeen(messageID, groupID uint) error {
	m.emits = append(m.emits, recordedEmit{"mark_group_message_seen", messageID})
	return nil
}

func (m *mockOutbound) Send(msg engine.OutboundMessage) error {
	m.emits = append(m.emits, recordedEmit{"send_message", msg})
	return nil
}

func newContext() (*EventContext, *mockOutbound) {
	eng := engine.New(1, engine.Options{Scheduler: sched.NewManualScheduler()})
	out := &mockOutbound{}
	return &EventContext{Engine: eng, Out: out, Sink: NopSink{}}, out
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	evt := &EventMessageRead{MessageID: 42}

	data, err := Serialize(evt)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	decoded, err := Deserialize(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}

	read, ok := decoded.(*EventMessageRead)
	if !ok {
		t.Fatalf("decoded wrong type %T", decoded)
	}
	if read.MessageID != 42 {
		t.Errorf("message id = %d, want 42", read.MessageID)
	}
}

func TestDeserializeUnknownType(t *testing.T) {
	if _, err := Deserialize([]byte(`{"type":"bogus","payload":{}}`)); err == nil {
		t.Error("expected error for unknown event type")
	}
}

func TestTypeRegistryComplete(t *testing.T) {
	expected := []string{
		EvtNewMessage, EvtNewGroupMessage, EvtMessageDelivered, EvtMessageRead,
		EvtGroupSeenUpdate, EvtMessagePinned, EvtGroupMsgPinned, EvtUnreadCounts,
		EvtLastActivity, EvtGroupActivity, EvtChatPinUpdated, EvtUserConnected,
		EvtUserDisconnected, EvtSendAck, EvtGroupCreated, EvtNotification, EvtBatch,
	}
	registry := GetTypeRegistry()
	for _, name := range expected {
		if _, ok := registry[name]; !ok {
			t.Errorf("event %q not registered", name)
		}
	}
}

func TestNewMessageEventFeedsEngine(t *testing.T) {
	ctx, out := newContext()

	recipient := uint(1)
	raw, _ := json.Marshal(models.Message{
		ID:              7,
		SenderID:        2,
		RecipientID:     &recipient,
		Content:         "hello",
		TimestampMillis: 1000,
	})
	evt, err := DeserializeSerializedMessage(&SerializedMessage{Type: EvtNewMessage, Payload: raw})
	if err != nil {
		t.Fatal(err)
	}
	if err := evt.Process(ctx); err != nil {
		t.Fatal(err)
	}

	if len(out.emits) != 1 || out.emits[0].evtType != "message_delivered" {
		t.Errorf("expected a delivered ack emission, got %v", out.emits)
	}
	if got := ctx.Engine.Unread(models.DirectKey(2)); got != 1 {
		t.Errorf("unread = %d, want 1", got)
	}
}

func TestUnreadCountsEventPayload(t *testing.T) {
	ctx, _ := newContext()

	evt, err := Deserialize([]byte(`{"type":"unread_counts_update","payload":{"3":2,"group_5":1}}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := evt.Process(ctx); err != nil {
		t.Fatal(err)
	}

	if got := ctx.Engine.Unread(models.DirectKey(3)); got != 2 {
		t.Errorf("unread(u:3) = %d, want 2", got)
	}
	if got := ctx.Engine.Unread(models.GroupKey(5)); got != 1 {
		t.Errorf("unread(g:5) = %d, want 1", got)
	}
}

func TestChatPinEventRoutesByTargetType(t *testing.T) {
	ctx, _ := newContext()
	ctx.Engine.HandleActivityUpdate(3, int64(1000))

	evt := &EventChatPinUpdated{TargetType: "user", TargetID: 3, Pin: true}
	if err := evt.Process(ctx); err != nil {
		t.Fatal(err)
	}

	views := ctx.Engine.Conversations(models.KindDirect)
	if len(views) != 1 || !views[0].Pinned {
		t.Errorf("pin not applied: %+v", views)
	}

	// Unknown target types are ignored, not errors.
	if err := (&EventChatPinUpdated{TargetType: "channel", TargetID: 9, Pin: true}).Process(ctx); err != nil {
		t.Errorf("unknown target type errored: %v", err)
	}
}

func TestBatchProcessesInOrder(t *testing.T) {
	ctx, out := newContext()

	recipient := uint(1)
	msg1, _ := json.Marshal(models.Message{ID: 10, SenderID: 2, RecipientID: &recipient, TimestampMillis: 100})
	msg2, _ := json.Marshal(models.Message{ID: 11, SenderID: 2, RecipientID: &recipient, TimestampMillis: 200})

	batch := &EventBatch{Messages: []SerializedMessage{
		{Type: EvtNewMessage, Payload: msg1},
		{Type: "bogus", Payload: []byte(`{}`)},
		{Type: EvtNewMessage, Payload: msg2},
	}}
	if err := batch.Process(ctx); err != nil {
		t.Fatal(err)
	}

	if got := ctx.Engine.Unread(models.DirectKey(2)); got != 2 {
		t.Errorf("unread = %d, want 2 (bogus entry skipped, rest applied)", got)
	}
	if len(out.emits) != 2 {
		t.Errorf("expected 2 delivered acks, got %d", len(out.emits))
	}
}

func TestCompressionRoundTrip(t *testing.T) {
	original := []byte(`{"type":"message_read","payload":{"message_id":42}}`)

	compressed, err := compressData(original)
	if err != nil {
		t.Fatal(err)
	}
	restored, err := decompressData(compressed)
	if err != nil {
		t.Fatal(err)
	}
	if string(restored) != string(original) {
		t.Errorf("round trip mismatch: %q", restored)
	}
}

func TestGroupSeenEventUnionsSet(t *testing.T) {
	ctx, _ := newContext()
	ctx.Engine.OpenGroup(4)
	gid := uint(4)
	ctx.Engine.HandleNewGroupMessage(models.Message{ID: 9, SenderID: 1, GroupID: &gid, TimestampMillis: 100})

	evt := &EventGroupSeenUpdate{MessageID: 9, SeenUsers: []uint{2, 3}}
	if err := evt.Process(ctx); err != nil {
		t.Fatal(err)
	}

	msgs := ctx.Engine.Messages(models.GroupKey(4))
	if len(msgs) != 1 || !msgs[0].SeenBy.Has(2) || !msgs[0].SeenBy.Has(3) {
		t.Errorf("seen set not unioned: %+v", msgs)
	}
}
