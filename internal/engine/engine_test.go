package engine

import (
	"testing"
	"time"

	"github.com/noteduco342/OMMessenger-sync/internal/history"
	"github.com/noteduco342/OMMessenger-sync/internal/models"
	"github.com/noteduco342/OMMessenger-sync/internal/sched"
)

const selfID uint = 1

type mockStore struct {
	messages      map[uint]models.Message
	conversations map[models.ConvKey]models.Conversation
	saveErr       error
}

func newMockStore() *mockStore {
	return &mockStore{
		messages:      make(map[uint]models.Message),
		conversations: make(map[models.ConvKey]models.Conversation),
	}
}

func (s *mockStore) SaveMessage(msg *models.Message) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.messages[msg.ID] = *msg
	return nil
}

func (s *mockStore) SaveConversation(conv models.Conversation) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.conversations[conv.Key()] = conv
	return nil
}

func newTestEngine() (*Engine, *sched.ManualScheduler, *mockStore) {
	ms := sched.NewManualScheduler()
	store := newMockStore()
	e := New(selfID, Options{Scheduler: ms, Store: store})
	return e, ms, store
}

func directMsg(id uint, from, to uint, content string, ts int64) models.Message {
	recipient := to
	return models.Message{
		ID:              id,
		SenderID:        from,
		RecipientID:     &recipient,
		Content:         content,
		MessageType:     models.TextMessage,
		TimestampMillis: ts,
	}
}

func groupMsg(id uint, from, group uint, content string, ts int64) models.Message {
	gid := group
	return models.Message{
		ID:              id,
		SenderID:        from,
		GroupID:         &gid,
		Content:         content,
		MessageType:     models.TextMessage,
		TimestampMillis: ts,
	}
}

func intentsOf[T Intent](intents []Intent) []T {
	var out []T
	for _, it := range intents {
		if v, ok := it.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func TestHandleNewMessageIdempotent(t *testing.T) {
	e, _, _ := newTestEngine()
	key := models.DirectKey(7)

	msg := directMsg(42, 7, selfID, "hi", 1000)
	first := e.HandleNewMessage(msg)
	second := e.HandleNewMessage(msg)

	if second != nil {
		t.Errorf("duplicate event produced intents: %v", second)
	}
	if got := e.Unread(key); got != 1 {
		t.Errorf("unread = %d, want 1 after duplicate delivery", got)
	}
	if acks := intentsOf[EmitDeliveredAck](first); len(acks) != 1 {
		t.Fatalf("expected one delivered ack, got %d", len(acks))
	}
}

func TestDuplicateWhileClosedStillRendersFromHistory(t *testing.T) {
	e, _, _ := newTestEngine()
	key := models.DirectKey(7)

	// Delivered twice with no conversation open: the message is confirmed
	// but never rendered, and the retransmit must still be a no-op.
	msg := directMsg(42, 7, selfID, "hi", 1000)
	e.HandleNewMessage(msg)
	if dup := e.HandleNewMessage(msg); dup != nil {
		t.Errorf("duplicate to closed conversation produced intents: %v", dup)
	}
	if got := e.Unread(key); got != 1 {
		t.Errorf("unread = %d, want 1 after duplicate delivery", got)
	}

	// Opening later replays the backlog through history; the id known from
	// the closed-time delivery must render exactly once.
	e.OpenDirect(7)
	epoch := e.Guard().Begin(history.LoadDirect)
	e.ApplyHistory(&history.Result{
		Key:      key,
		Kind:     history.LoadDirect,
		Epoch:    epoch,
		Messages: []models.Message{msg},
	})
	if msgs := e.Messages(key); len(msgs) != 1 || msgs[0].ID != 42 {
		t.Fatalf("history render of closed-time message: got %+v, want one copy of 42", msgs)
	}
}

func TestGroupDuplicateWhileClosed(t *testing.T) {
	e, _, _ := newTestEngine()
	key := models.GroupKey(5)

	msg := groupMsg(42, 7, 5, "hi", 1000)
	first := e.HandleNewGroupMessage(msg)
	second := e.HandleNewGroupMessage(msg)

	if second != nil {
		t.Errorf("duplicate group event produced intents: %v", second)
	}
	if got := e.Unread(key); got != 1 {
		t.Errorf("unread = %d, want 1 after duplicate delivery", got)
	}
	if notes := intentsOf[Notify](first); len(notes) != 1 {
		t.Fatalf("expected one notification, got %d", len(notes))
	}
}

func TestHandleNewMessageWhileViewing(t *testing.T) {
	e, _, _ := newTestEngine()
	e.OpenDirect(7)

	intents := e.HandleNewMessage(directMsg(42, 7, selfID, "hi", 1000))

	receipts := intentsOf[EmitReadReceipt](intents)
	if len(receipts) != 1 || receipts[0].MessageID != 42 {
		t.Fatalf("expected read receipt for message 42, got %v", intents)
	}
	msgs := e.Messages(models.DirectKey(7))
	if len(msgs) != 1 || msgs[0].Status != models.StatusRead {
		t.Errorf("viewed inbound message should be read, got %+v", msgs)
	}
	if got := e.Unread(models.DirectKey(7)); got != 0 {
		t.Errorf("open conversation accumulated unread = %d", got)
	}
	if len(intentsOf[Notify](intents)) != 0 {
		t.Errorf("focused open conversation should not notify")
	}
}

func TestNotifyWhenUnfocused(t *testing.T) {
	e, _, _ := newTestEngine()
	e.OpenDirect(7)
	e.SetFocused(false)
	e.SetName(models.DirectKey(7), "Alice")

	intents := e.HandleNewMessage(directMsg(42, 7, selfID, "hi", 1000))

	notifies := intentsOf[Notify](intents)
	if len(notifies) != 1 {
		t.Fatalf("unfocused window should notify, got %v", intents)
	}
	if notifies[0].Title != "Alice" {
		t.Errorf("notification title = %q, want Alice", notifies[0].Title)
	}
}

func TestReceiptNeverRegresses(t *testing.T) {
	e, _, _ := newTestEngine()
	e.OpenDirect(7)

	// A self-sent message observed via echo.
	out := directMsg(42, selfID, 7, "hi", 1000)
	e.HandleNewMessage(out)

	e.HandleRead(42)
	e.HandleDelivered(42) // late delivered receipt after read

	msgs := e.Messages(models.DirectKey(7))
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	if msgs[0].Status != models.StatusRead {
		t.Errorf("status regressed to %q after read", msgs[0].Status)
	}
}

func TestDeliveredIgnoresInboundAndGroups(t *testing.T) {
	e, _, _ := newTestEngine()
	e.OpenDirect(7)
	e.HandleNewMessage(directMsg(42, 7, selfID, "hi", 1000))

	e.HandleDelivered(42)

	if got := e.Messages(models.DirectKey(7))[0].Status; got != models.StatusRead {
		t.Errorf("inbound message status changed by delivered receipt: %q", got)
	}
}

func TestGroupSeenAccumulates(t *testing.T) {
	e, _, _ := newTestEngine()
	e.OpenGroup(3)
	e.HandleNewGroupMessage(groupMsg(42, selfID, 3, "hello all", 1000))

	e.HandleGroupSeen(42, []uint{2})
	e.HandleGroupSeen(42, []uint{4, 2})
	e.HandleGroupSeen(42, []uint{2})

	seen := e.Messages(models.GroupKey(3))[0].SeenBy
	if len(seen) != 2 || !seen.Has(2) || !seen.Has(4) {
		t.Errorf("seen set = %v, want {2 4}", seen)
	}
}

func TestResortDebounceCoalesces(t *testing.T) {
	e, ms, _ := newTestEngine()

	before := e.ResortCount(models.KindDirect)
	for i := uint(1); i <= 10; i++ {
		e.HandleNewMessage(directMsg(100+i, 7, selfID, "spam", int64(1000+i)))
		ms.Advance(5 * time.Millisecond)
	}
	if got := e.ResortCount(models.KindDirect); got != before {
		t.Fatalf("resort fired inside the debounce window (%d times)", got-before)
	}

	ms.Advance(ResortDebounce)
	if got := e.ResortCount(models.KindDirect); got != before+1 {
		t.Errorf("resorts = %d, want exactly 1 after window elapses", got-before)
	}
}

func TestPinToggleBypassesDebounce(t *testing.T) {
	e, ms, _ := newTestEngine()
	key := models.DirectKey(7)
	e.HandleNewMessage(directMsg(42, 7, selfID, "hi", 1000))

	before := e.ResortCount(models.KindDirect)
	e.HandleChatPinUpdated(key, true)

	if got := e.ResortCount(models.KindDirect); got != before+1 {
		t.Fatalf("pin toggle did not resort immediately")
	}
	// The pending debounced resort must be cancelled, not stacked.
	ms.Advance(ResortDebounce * 2)
	if got := e.ResortCount(models.KindDirect); got != before+1 {
		t.Errorf("cancelled debounce still fired, resorts = %d", got-before)
	}

	views := e.Conversations(models.KindDirect)
	if len(views) != 1 || !views[0].Pinned {
		t.Errorf("pinned flag not reflected in projection: %+v", views)
	}
}

func TestConversationOrdering(t *testing.T) {
	e, ms, _ := newTestEngine()
	e.SetName(models.DirectKey(1), "alice")
	e.SetName(models.DirectKey(2), "Bob")
	e.SetName(models.DirectKey(3), "carol")

	e.HandleActivityUpdate(1, int64(3000))
	e.HandleActivityUpdate(2, int64(1000))
	e.HandleActivityUpdate(3, int64(2000))
	e.HandleChatPinUpdated(models.DirectKey(2), true)
	ms.Advance(ResortDebounce)

	views := e.Conversations(models.KindDirect)
	var got []uint
	for _, v := range views {
		got = append(got, v.TargetID)
	}
	want := []uint{2, 1, 3} // pinned Bob first, then by recency
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestUnreadSnapshotZeroFills(t *testing.T) {
	e, _, _ := newTestEngine()
	e.HandleActivityUpdate(7, int64(1000))
	e.HandleActivityUpdate(9, int64(2000))
	e.HandleNewMessage(directMsg(42, 9, selfID, "hi", 2500))

	e.HandleUnreadSnapshot(map[string]int{"7": 3, "bogus:key": 1})

	if got := e.Unread(models.DirectKey(7)); got != 3 {
		t.Errorf("unread(7) = %d, want 3", got)
	}
	if got := e.Unread(models.DirectKey(9)); got != 0 {
		t.Errorf("unread(9) = %d, want 0 after zero-fill", got)
	}
}

func TestUnreadSnapshotKeepsOpenCleared(t *testing.T) {
	e, _, _ := newTestEngine()
	e.OpenDirect(7)

	e.HandleUnreadSnapshot(map[string]int{"7": 5})

	if got := e.Unread(models.DirectKey(7)); got != 0 {
		t.Errorf("open conversation unread = %d, want 0", got)
	}
}

func TestOpenConversationClearsUnread(t *testing.T) {
	e, _, _ := newTestEngine()
	e.HandleNewMessage(directMsg(42, 7, selfID, "hi", 1000))
	if got := e.Unread(models.DirectKey(7)); got != 1 {
		t.Fatalf("setup: unread = %d", got)
	}

	e.OpenDirect(7)

	if got := e.Unread(models.DirectKey(7)); got != 0 {
		t.Errorf("unread = %d after open, want 0", got)
	}
}

func TestApplyHistoryStaleEpochDiscarded(t *testing.T) {
	e, _, _ := newTestEngine()
	e.OpenDirect(7)

	stale := e.Guard().Begin(history.LoadDirect)
	e.Guard().Begin(history.LoadDirect) // a newer load superseded it

	intents := e.ApplyHistory(&history.Result{
		Key:      models.DirectKey(7),
		Kind:     history.LoadDirect,
		Epoch:    stale,
		Messages: []models.Message{directMsg(42, 7, selfID, "old", 1000)},
	})

	if intents != nil {
		t.Errorf("stale history produced intents: %v", intents)
	}
	if got := len(e.Messages(models.DirectKey(7))); got != 0 {
		t.Errorf("stale history rendered %d messages", got)
	}
}

func TestApplyHistoryIgnoredAfterSwitch(t *testing.T) {
	e, _, _ := newTestEngine()
	e.OpenDirect(7)
	epoch := e.Guard().Begin(history.LoadDirect)
	e.OpenDirect(9) // user moved on before the response landed

	intents := e.ApplyHistory(&history.Result{
		Key:      models.DirectKey(7),
		Kind:     history.LoadDirect,
		Epoch:    epoch,
		Messages: []models.Message{directMsg(42, 7, selfID, "old", 1000)},
	})

	if intents != nil || len(e.Messages(models.DirectKey(7))) != 0 {
		t.Errorf("history for a closed conversation was applied")
	}
}

func TestApplyHistoryReplacesViewAndMarksRead(t *testing.T) {
	e, _, store := newTestEngine()
	e.OpenDirect(7)
	e.HandleNewMessage(directMsg(41, 7, selfID, "live", 900))
	epoch := e.Guard().Begin(history.LoadDirect)

	intents := e.ApplyHistory(&history.Result{
		Key:   models.DirectKey(7),
		Kind:  history.LoadDirect,
		Epoch: epoch,
		Messages: []models.Message{
			directMsg(40, selfID, 7, "mine", 800),
			directMsg(41, 7, selfID, "live", 900),
			{ID: 43, SenderID: 7, RecipientID: ptr(selfID), Content: "unread", Status: models.StatusSent, TimestampMillis: 1100},
		},
	})

	msgs := e.Messages(models.DirectKey(7))
	if len(msgs) != 3 {
		t.Fatalf("rendered %d messages, want 3 (view replaced wholesale)", len(msgs))
	}
	receipts := intentsOf[EmitReadReceipt](intents)
	if len(receipts) != 2 {
		t.Fatalf("expected read receipts for both inbound rows, got %d", len(receipts))
	}
	for _, m := range msgs {
		if m.RecipientID != nil && *m.RecipientID == selfID && m.Status != models.StatusRead {
			t.Errorf("inbound history row %d not marked read", m.ID)
		}
	}
	if _, ok := store.messages[43]; !ok {
		t.Errorf("history row 43 not persisted")
	}
}

func TestApplyHistoryKeepsPendingSend(t *testing.T) {
	e, _, _ := newTestEngine()
	e.OpenDirect(7)

	intents, err := e.SubmitSend("hello", nil)
	if err != nil {
		t.Fatal(err)
	}
	wire := intentsOf[SendWire](intents)[0]

	// A backlog load finishing mid-send replaces the view; the pending
	// message must survive so the ack still confirms something visible.
	epoch := e.Guard().Begin(history.LoadDirect)
	e.ApplyHistory(&history.Result{
		Key:      models.DirectKey(7),
		Kind:     history.LoadDirect,
		Epoch:    epoch,
		Messages: []models.Message{directMsg(40, selfID, 7, "earlier", 800)},
	})

	msgs := e.Messages(models.DirectKey(7))
	if len(msgs) != 2 || msgs[1].Status != models.StatusPending {
		t.Fatalf("pending send dropped by history replace: %+v", msgs)
	}

	server := directMsg(42, selfID, 7, "hello", 1234)
	e.HandleSendAck(wire.Message.ClientID, AckResult{Message: &server})

	msgs = e.Messages(models.DirectKey(7))
	if len(msgs) != 2 || msgs[1].ID != 42 || msgs[1].Status != models.StatusSent {
		t.Fatalf("confirmed send not visible after history replace: %+v", msgs)
	}
}

func TestSubmitSendGate(t *testing.T) {
	e, _, _ := newTestEngine()
	e.OpenDirect(7)

	if _, err := e.SubmitSend("first", nil); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if _, err := e.SubmitSend("second", nil); err != ErrSendInFlight {
		t.Fatalf("second send err = %v, want ErrSendInFlight", err)
	}
	if !e.SendInFlight() {
		t.Error("gate should be held while awaiting ack")
	}
}

func TestSubmitSendRequiresConversationAndContent(t *testing.T) {
	e, _, _ := newTestEngine()

	if _, err := e.SubmitSend("hi", nil); err != ErrNoConversation {
		t.Errorf("err = %v, want ErrNoConversation", err)
	}
	e.OpenDirect(7)
	if _, err := e.SubmitSend("", nil); err != ErrEmptySend {
		t.Errorf("err = %v, want ErrEmptySend", err)
	}
}

func TestSendAckConfirmsAndReleasesGate(t *testing.T) {
	e, _, store := newTestEngine()
	e.OpenDirect(7)

	intents, err := e.SubmitSend("hello", nil)
	if err != nil {
		t.Fatal(err)
	}
	wire := intentsOf[SendWire](intents)
	if len(wire) != 1 || wire[0].Message.Content != "hello" {
		t.Fatalf("expected one wire send, got %v", intents)
	}

	server := directMsg(42, selfID, 7, "hello", 1234)
	acks := e.HandleSendAck(wire[0].Message.ClientID, AckResult{Message: &server})

	if len(intentsOf[ClearComposer](acks)) != 1 {
		t.Fatalf("expected composer clear, got %v", acks)
	}
	if e.SendInFlight() {
		t.Error("gate still held after final ack")
	}
	msgs := e.Messages(models.DirectKey(7))
	if len(msgs) != 1 || msgs[0].ID != 42 || msgs[0].Status != models.StatusSent {
		t.Errorf("optimistic message not confirmed in place: %+v", msgs)
	}
	if _, ok := store.messages[42]; !ok {
		t.Error("confirmed send not persisted")
	}

	// The echo of our own message must not duplicate.
	e.HandleNewMessage(server)
	if got := len(e.Messages(models.DirectKey(7))); got != 1 {
		t.Errorf("server echo duplicated the send, %d messages", got)
	}
}

func TestSendAckAfterServerEcho(t *testing.T) {
	e, _, _ := newTestEngine()
	e.OpenDirect(7)

	intents, err := e.SubmitSend("hello", nil)
	if err != nil {
		t.Fatal(err)
	}
	wire := intentsOf[SendWire](intents)[0]

	// The broadcast echo can outrun the ack. Once both have landed the id
	// must appear exactly once, with the echo's copy kept.
	echo := directMsg(42, selfID, 7, "hello", 1234)
	e.HandleNewMessage(echo)
	acks := e.HandleSendAck(wire.Message.ClientID, AckResult{Message: &echo})

	msgs := e.Messages(models.DirectKey(7))
	if len(msgs) != 1 || msgs[0].ID != 42 {
		t.Fatalf("rendered %d copies of message 42, want 1: %+v", len(msgs), msgs)
	}
	if e.SendInFlight() {
		t.Error("gate still held after final ack")
	}
	if len(intentsOf[ClearComposer](acks)) != 1 {
		t.Fatalf("expected composer clear, got %v", acks)
	}
}

func TestSendAckErrorReverts(t *testing.T) {
	e, _, _ := newTestEngine()
	e.OpenDirect(7)

	intents, _ := e.SubmitSend("hello", nil)
	wire := intentsOf[SendWire](intents)[0]

	acks := e.HandleSendAck(wire.Message.ClientID, AckResult{Err: "storage full"})

	if got := len(e.Messages(models.DirectKey(7))); got != 0 {
		t.Errorf("optimistic message survived a failed send (%d rendered)", got)
	}
	if e.SendInFlight() {
		t.Error("gate still held after failure")
	}
	restores := intentsOf[RestoreComposer](acks)
	if len(restores) != 1 || restores[0].Content != "hello" {
		t.Errorf("composer content not restored: %v", acks)
	}
	if len(intentsOf[Toast](acks)) != 1 {
		t.Errorf("expected an error toast, got %v", acks)
	}

	if _, err := e.SubmitSend("retry", nil); err != nil {
		t.Errorf("send after failure: %v", err)
	}
}

func TestAttachmentQueueSendsSequentially(t *testing.T) {
	e, _, _ := newTestEngine()
	e.OpenDirect(7)

	atts := []models.Attachment{
		{Filename: "a.png", MimeType: "image/png", URL: "/media/a.png"},
		{Filename: "b.pdf", MimeType: "application/pdf", URL: "/media/b.pdf"},
	}
	intents, err := e.SubmitSend("caption", atts)
	if err != nil {
		t.Fatal(err)
	}
	first := intentsOf[SendWire](intents)[0].Message
	if first.Content != "caption" || first.Type != models.ImageMessage || first.Filename != "a.png" {
		t.Fatalf("first item = %+v, want caption plus a.png as image", first)
	}

	server1 := directMsg(42, selfID, 7, "caption", 1000)
	acks := e.HandleSendAck(first.ClientID, AckResult{Message: &server1})
	next := intentsOf[SendWire](acks)
	if len(next) != 1 {
		t.Fatalf("second item not dispatched after first ack: %v", acks)
	}
	second := next[0].Message
	if second.Content != "" || second.Type != models.FileMessage || second.Filename != "b.pdf" {
		t.Fatalf("second item = %+v, want empty content plus b.pdf as file", second)
	}
	if !e.SendInFlight() {
		t.Error("gate released between queue items")
	}

	server2 := directMsg(43, selfID, 7, "", 1001)
	final := e.HandleSendAck(second.ClientID, AckResult{Message: &server2})
	if len(intentsOf[ClearComposer](final)) != 1 {
		t.Errorf("expected composer clear after last item, got %v", final)
	}
	if e.SendInFlight() {
		t.Error("gate still held after queue drained")
	}
	if got := len(e.Messages(models.DirectKey(7))); got != 2 {
		t.Errorf("rendered %d messages, want 2", got)
	}
}

func TestAttachmentQueueHaltKeepsPriorSends(t *testing.T) {
	e, _, _ := newTestEngine()
	e.OpenDirect(7)

	atts := []models.Attachment{
		{Filename: "a.png", MimeType: "image/png", URL: "/media/a.png"},
		{Filename: "b.pdf", MimeType: "application/pdf", URL: "/media/b.pdf"},
	}
	intents, _ := e.SubmitSend("caption", atts)
	first := intentsOf[SendWire](intents)[0].Message

	server1 := directMsg(42, selfID, 7, "caption", 1000)
	acks := e.HandleSendAck(first.ClientID, AckResult{Message: &server1})
	second := intentsOf[SendWire](acks)[0].Message

	e.HandleSendAck(second.ClientID, AckResult{Err: "upload rejected"})

	msgs := e.Messages(models.DirectKey(7))
	if len(msgs) != 1 || msgs[0].ID != 42 {
		t.Errorf("first acknowledged item should survive the halt: %+v", msgs)
	}
	if e.SendInFlight() {
		t.Error("gate still held after halt")
	}
}

func TestReplySendCarriesParent(t *testing.T) {
	e, _, _ := newTestEngine()
	e.OpenDirect(7)
	e.HandleNewMessage(directMsg(42, 7, selfID, "original", 1000))
	e.SetReplyTarget(42)

	intents, err := e.SubmitSend("answer", nil)
	if err != nil {
		t.Fatal(err)
	}
	wire := intentsOf[SendWire](intents)[0].Message
	if wire.Type != models.ReplyMessage || wire.ParentMessageID == nil || *wire.ParentMessageID != 42 {
		t.Fatalf("reply wire = %+v, want parent 42", wire)
	}

	server := directMsg(43, selfID, 7, "answer", 1100)
	e.HandleSendAck(wire.ClientID, AckResult{Message: &server})

	if _, err := e.SubmitSend("plain", nil); err != nil {
		t.Fatal(err)
	}
	// Reply target is consumed by the completed send.
	e.mu.Lock()
	replyTo := e.replyTo
	e.mu.Unlock()
	if replyTo != nil {
		t.Error("reply target survived a completed send")
	}
}

func TestSendAckUnknownClientIgnored(t *testing.T) {
	e, _, _ := newTestEngine()
	e.OpenDirect(7)
	e.SubmitSend("hello", nil)

	server := directMsg(42, selfID, 7, "hello", 1000)
	if acks := e.HandleSendAck("not-the-client-id", AckResult{Message: &server}); acks != nil {
		t.Errorf("mismatched ack produced intents: %v", acks)
	}
	if !e.SendInFlight() {
		t.Error("mismatched ack released the gate")
	}
}

func TestClearViewKeepsStore(t *testing.T) {
	e, _, store := newTestEngine()
	e.OpenDirect(7)
	e.HandleNewMessage(directMsg(42, 7, selfID, "hi", 1000))

	e.ClearView()

	if got := len(e.Messages(models.DirectKey(7))); got != 0 {
		t.Errorf("view not cleared, %d messages", got)
	}
	if _, ok := store.messages[42]; !ok {
		t.Error("clear view deleted the persisted copy")
	}
}

func TestPresenceProjection(t *testing.T) {
	e, ms, _ := newTestEngine()
	e.HandleActivityUpdate(7, int64(1000))
	e.HandlePresence(7, true)
	ms.Advance(ResortDebounce)

	views := e.Conversations(models.KindDirect)
	if len(views) != 1 || !views[0].Online {
		t.Errorf("presence not reflected: %+v", views)
	}

	e.HandlePresence(7, false)
	if e.Online(7) {
		t.Error("disconnect not recorded")
	}
}

func ptr(v uint) *uint { return &v }
