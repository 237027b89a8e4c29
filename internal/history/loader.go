package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/noteduco342/OMMessenger-sync/internal/models"
)

// Fetcher is the HTTP half of the loader, separated so tests can stub the
// wire without a server.
type Fetcher interface {
	GetJSON(path string, out interface{}) error
}

// HTTPFetcher issues authenticated GETs against the upstream REST API.
type HTTPFetcher struct {
	BaseURL string
	Token   string
	Client  *fasthttp.Client
}

func NewHTTPFetcher(baseURL, token string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: baseURL,
		Token:   token,
		Client: &fasthttp.Client{
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

func (f *HTTPFetcher) GetJSON(path string, out interface{}) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(f.BaseURL + path)
	req.Header.SetMethod(fasthttp.MethodGet)
	if f.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}

	if err := f.Client.Do(req, resp); err != nil {
		return fmt.Errorf("history fetch %s: %w", path, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("history fetch %s: status %d", path, resp.StatusCode())
	}
	return json.Unmarshal(resp.Body(), out)
}

// Loader fetches conversation backlogs with stale-response filtering. Results
// carry the epoch captured at dispatch so the caller re-checks currency at
// apply time as well.
type Loader struct {
	fetcher Fetcher
	guard   *Guard
	selfID  uint
}

func NewLoader(fetcher Fetcher, guard *Guard, selfID uint) *Loader {
	return &Loader{fetcher: fetcher, guard: guard, selfID: selfID}
}

// Guard exposes the underlying epoch guard.
func (l *Loader) Guard() *Guard {
	return l.guard
}

// Result is one completed history load.
type Result struct {
	Key      models.ConvKey
	Epoch    uint64
	Kind     LoadKind
	Messages []models.Message
}

// LoadDirect fetches the direct-message backlog with peerID. A nil result
// with nil error means the response went stale mid-flight and was discarded.
func (l *Loader) LoadDirect(peerID uint) (*Result, error) {
	epoch := l.guard.Begin(LoadDirect)
	var msgs []models.Message
	path := fmt.Sprintf("/messages/%d/%d", l.selfID, peerID)
	if err := l.fetcher.GetJSON(path, &msgs); err != nil {
		return nil, err
	}
	if !l.guard.IsCurrent(LoadDirect, epoch) {
		return nil, nil
	}
	return &Result{Key: models.DirectKey(peerID), Epoch: epoch, Kind: LoadDirect, Messages: msgs}, nil
}

// LoadGroup fetches the backlog for a group conversation.
func (l *Loader) LoadGroup(groupID uint) (*Result, error) {
	epoch := l.guard.Begin(LoadGroup)
	var msgs []models.Message
	path := fmt.Sprintf("/groups/%d/messages", groupID)
	if err := l.fetcher.GetJSON(path, &msgs); err != nil {
		return nil, err
	}
	if !l.guard.IsCurrent(LoadGroup, epoch) {
		return nil, nil
	}
	return &Result{Key: models.GroupKey(groupID), Epoch: epoch, Kind: LoadGroup, Messages: msgs}, nil
}

// RosterEntry is one row of the online-users endpoint, used to seed presence,
// activity and unread state on connect.
type RosterEntry struct {
	UserID        uint   `json:"user_id"`
	Name          string `json:"name"`
	IsOnline      bool   `json:"is_online"`
	LastDirectMsg string `json:"last_direct_msg,omitempty"`
	UnreadCount   int    `json:"unread_count"`
}

// LoadRoster fetches the online-users roster.
func (l *Loader) LoadRoster() ([]RosterEntry, error) {
	var roster []RosterEntry
	if err := l.fetcher.GetJSON("/online_users", &roster); err != nil {
		return nil, err
	}
	return roster, nil
}

// PinState is the initial chat-pin snapshot fetched on connect.
type PinState struct {
	Users  []uint `json:"users"`
	Groups []uint `json:"groups"`
}

// LoadPins fetches which conversations the user has pinned.
func (l *Loader) LoadPins() (PinState, error) {
	var pins PinState
	if err := l.fetcher.GetJSON("/chat_pins", &pins); err != nil {
		return PinState{}, err
	}
	return pins, nil
}

// GroupEntry is one group the user belongs to.
type GroupEntry struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	CreatorID uint   `json:"creator_id"`
}

// LoadGroups fetches the group roster.
func (l *Loader) LoadGroups() ([]GroupEntry, error) {
	var groups []GroupEntry
	if err := l.fetcher.GetJSON("/groups", &groups); err != nil {
		return nil, err
	}
	return groups, nil
}
