// Package engine implements the conversation state reconciliation reducer: it
// applies server-pushed events and optimistic local actions to an in-memory
// projection of every conversation, keeping it duplicate-free, correctly
// ordered and eventually consistent with the server.
package engine

import (
	"log"
	"sync"
	"time"

	"github.com/noteduco342/OMMessenger-sync/internal/history"
	"github.com/noteduco342/OMMessenger-sync/internal/models"
	"github.com/noteduco342/OMMessenger-sync/internal/registry"
	"github.com/noteduco342/OMMessenger-sync/internal/sched"
	"github.com/noteduco342/OMMessenger-sync/internal/sendq"
	"github.com/noteduco342/OMMessenger-sync/internal/unread"
)

// ResortDebounce is the coalescing window for list re-sorts: bursts of
// activity during an event storm (e.g. catching up after reconnect) collapse
// into a single re-sort. Pin toggles bypass it.
const ResortDebounce = 50 * time.Millisecond

const (
	resortDirectKey = "resort:direct"
	resortGroupKey  = "resort:group"
)

// Store persists the reconciled projection so a restart can replay ordering
// and history without a full refetch. The engine tolerates a nil store.
type Store interface {
	SaveMessage(msg *models.Message) error
	SaveConversation(conv models.Conversation) error
}

// Engine owns all reconciliation state. Events are applied strictly in
// arrival order under one mutex; no transition suspends. All returned intents
// must be executed by the caller after the method returns.
type Engine struct {
	mu     sync.Mutex
	selfID uint

	reg    *registry.Registry
	unread *unread.Counter
	sched  sched.Scheduler
	guard  *history.Guard
	store  Store

	// View state: the at-most-one open conversation and window focus, fed by
	// the render layer.
	open    models.ConvKey
	focused bool

	// Rendered messages per conversation, ordered by arrival; byID indexes
	// confirmed messages for receipt lookups. seen records every confirmed
	// id ever applied, rendered or not, and is what duplicate suppression
	// checks; it only grows.
	msgs map[models.ConvKey][]*models.Message
	byID map[uint]*models.Message
	seen map[uint]struct{}

	// Send state: at most one send operation in flight per session.
	sending  bool
	inflight *inflightSend
	replyTo  *uint

	// Roster metadata for sorting and presence.
	names  map[models.ConvKey]string
	online map[uint]bool

	// Latest computed list order per kind, plus a resort counter the tests
	// use to assert debounce coalescing.
	ordered map[models.ConvKind][]models.ConvKey
	resorts map[models.ConvKind]int
}

type inflightSend struct {
	clientID string
	queue    *sendq.Queue
	key      models.ConvKey
	// The optimistic pending-send message currently rendered.
	optimistic *models.Message
	content    string
}

// Options carries optional collaborators.
type Options struct {
	Scheduler sched.Scheduler
	Guard     *history.Guard
	Store     Store
}

// New builds an engine for the given local user. Multiple independent engines
// may coexist; nothing is ambient.
func New(selfID uint, opts Options) *Engine {
	if opts.Scheduler == nil {
		opts.Scheduler = sched.NewTimerScheduler()
	}
	if opts.Guard == nil {
		opts.Guard = history.NewGuard()
	}
	return &Engine{
		selfID:  selfID,
		reg:     registry.New(),
		unread:  unread.New(),
		sched:   opts.Scheduler,
		guard:   opts.Guard,
		store:   opts.Store,
		focused: true,
		msgs:    make(map[models.ConvKey][]*models.Message),
		byID:    make(map[uint]*models.Message),
		seen:    make(map[uint]struct{}),
		names:   make(map[models.ConvKey]string),
		online:  make(map[uint]bool),
		ordered: make(map[models.ConvKind][]models.ConvKey),
		resorts: make(map[models.ConvKind]int),
	}
}

// SelfID returns the local user id.
func (e *Engine) SelfID() uint {
	return e.selfID
}

// Guard returns the request-generation guard shared with the history loader.
func (e *Engine) Guard() *history.Guard {
	return e.guard
}

// Registry exposes the activity registry (read paths only).
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// SetFocused records window focus; unfocused windows get notifications even
// for the open conversation.
func (e *Engine) SetFocused(focused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.focused = focused
}

// SetName records a display name used for sort tie-breaks and notifications.
func (e *Engine) SetName(key models.ConvKey, name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.names[key] = name
}

// OpenDirect makes the direct conversation with peerID the active one and
// optimistically clears its unread badge. History loading is the caller's
// job (see ApplyHistory).
func (e *Engine) OpenDirect(peerID uint) {
	e.openConversation(models.DirectKey(peerID))
}

// OpenGroup makes the group conversation active.
func (e *Engine) OpenGroup(groupID uint) {
	e.openConversation(models.GroupKey(groupID))
}

// CloseConversation leaves no conversation open.
func (e *Engine) CloseConversation() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = models.ConvKey{}
	e.replyTo = nil
}

func (e *Engine) openConversation(key models.ConvKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = key
	e.replyTo = nil
	e.unread.Clear(key)
}

// Open returns the currently open conversation key (zero when none).
func (e *Engine) Open() models.ConvKey {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open
}

// SetReplyTarget records the message a subsequent send replies to.
func (e *Engine) SetReplyTarget(messageID uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := messageID
	e.replyTo = &id
}

// CancelReply drops the pending reply target.
func (e *Engine) CancelReply() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.replyTo = nil
}

// ClearView visually clears the open conversation's rendered messages. The
// store is untouched; nothing is deleted server-side.
func (e *Engine) ClearView() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.open.IsZero() {
		return
	}
	for _, m := range e.msgs[e.open] {
		if m.ID != 0 {
			delete(e.byID, m.ID)
		}
	}
	delete(e.msgs, e.open)
}

// scheduleResort arms the debounced re-sort for the list holding key's kind.
// Callers must hold e.mu.
func (e *Engine) scheduleResort(kind models.ConvKind) {
	key := resortDirectKey
	if kind == models.KindGroup {
		key = resortGroupKey
	}
	e.sched.Schedule(key, ResortDebounce, func() { e.Resort(kind) })
}

// resortNow recomputes the order immediately, bypassing the debounce window.
// A queued debounced resort for the same list is cancelled so it cannot
// double-fire. Callers must hold e.mu.
func (e *Engine) resortNow(kind models.ConvKind) {
	key := resortDirectKey
	if kind == models.KindGroup {
		key = resortGroupKey
	}
	e.sched.Cancel(key)
	e.resortLocked(kind)
}

// Resort recomputes the cached display order for the given list. Invoked by
// the scheduler when the debounce window closes.
func (e *Engine) Resort(kind models.ConvKind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resortLocked(kind)
}

func (e *Engine) resortLocked(kind models.ConvKind) {
	e.ordered[kind] = e.reg.Sorted(kind, func(k models.ConvKey) string { return e.names[k] })
	e.resorts[kind]++
}

func (e *Engine) persistMessage(m *models.Message) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveMessage(m); err != nil {
		log.Printf("Failed to persist message %d: %v", m.ID, err)
	}
}

func (e *Engine) persistConversation(key models.ConvKey) {
	if e.store == nil {
		return
	}
	entry := e.reg.Get(key)
	conv := models.Conversation{
		Kind:               key.Kind,
		TargetID:           key.ID,
		Name:               e.names[key],
		LastActivityMillis: entry.LastActivityMillis,
		Pinned:             entry.Pinned,
	}
	if err := e.store.SaveConversation(conv); err != nil {
		log.Printf("Failed to persist conversation %s: %v", key, err)
	}
}
