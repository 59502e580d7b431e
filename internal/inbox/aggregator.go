// ABOUTME: Notification aggregator merging four API sources into one feed
// ABOUTME: Concurrent fetch, wholesale snapshot replacement, and badge math

package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/dbrow221/UniMeet/internal/api"
)

// Kind tags an item with its source collection. The declaration order is the
// display grouping order: messages first, then event reminders, friend
// requests, and join requests.
type Kind int

const (
	KindConversation Kind = iota
	KindNotification
	KindFriendRequest
	KindJoinRequest
)

func (k Kind) String() string {
	switch k {
	case KindConversation:
		return "conversation"
	case KindNotification:
		return "notification"
	case KindFriendRequest:
		return "friend_request"
	case KindJoinRequest:
		return "join_request"
	default:
		return "unknown"
	}
}

// Action is one of the mutating commands applied to an item
type Action string

const (
	ActionApprove  Action = "approve"
	ActionDeny     Action = "deny"
	ActionAccept   Action = "accept"
	ActionDecline  Action = "decline"
	ActionMarkRead Action = "mark-read"
)

// Item is one entry in the merged feed. Identity for deduplication is
// (Kind, ID); ids are only unique within a kind. A conversation's ID is the
// other user's id.
type Item struct {
	Kind      Kind      `json:"kind"`
	ID        int       `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Actor     api.User  `json:"actor"`

	// Kind-specific payload
	Event   *api.EventRef `json:"event,omitempty"`   // join requests, event reminders
	Preview string        `json:"preview,omitempty"` // conversations
	Unread  int           `json:"unread,omitempty"`  // conversations
	Message string        `json:"message,omitempty"` // notifications
}

// Snapshot is one fetch cycle's merged result. Collections are replaced
// wholesale each cycle; nothing is patched in place between polls.
type Snapshot struct {
	Items     []Item    `json:"items"`
	Badge     int       `json:"badge"`
	Degraded  bool      `json:"degraded"`
	Err       string    `json:"error,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// genericFetchError is the single indicator shown when any source fails.
// Per-source detail goes to the log, never to the user.
const genericFetchError = "Failed to load notifications"

// Aggregator fetches the four notification sources and merges them into one
// ordered feed with a badge count. Safe for concurrent use: overlapping
// Refresh calls share one in-flight fetch, and a slower stale cycle can
// never overwrite a newer applied one.
type Aggregator struct {
	client *api.Client

	sf singleflight.Group

	mu         sync.Mutex
	issued     uint64 // sequence handed to each started cycle
	appliedSeq uint64 // sequence of the cycle currently applied
	snap       Snapshot
	inFlight   bool
}

// New creates an aggregator over the given API client
func New(client *api.Client) *Aggregator {
	return &Aggregator{client: client}
}

// Snapshot returns the last applied snapshot
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snap
}

// InFlight reports whether a fetch cycle is currently running
func (a *Aggregator) InFlight() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inFlight
}

// Refresh runs one fetch-and-merge cycle and returns the applied snapshot.
// A call made while a cycle is in flight joins that cycle's result instead
// of issuing a duplicate set of requests.
func (a *Aggregator) Refresh(ctx context.Context) (Snapshot, error) {
	v, err, _ := a.sf.Do("refresh", func() (interface{}, error) {
		return a.runCycle(ctx), nil
	})
	if err != nil {
		return a.Snapshot(), err
	}
	return v.(Snapshot), nil
}

// runCycle fetches all four sources concurrently, merges, and applies the
// result unless a later-issued cycle has already been applied.
func (a *Aggregator) runCycle(ctx context.Context) Snapshot {
	a.mu.Lock()
	a.issued++
	seq := a.issued
	a.inFlight = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.inFlight = false
		a.mu.Unlock()
	}()

	var (
		joins         []api.JoinRequest
		friends       []api.FriendRequest
		conversations []api.Conversation
		notifications []api.Notification

		joinErr, friendErr, convErr, notifErr error
	)

	// All four sources are fetched concurrently; a failure in one never
	// aborts the others, so g.Wait always returns nil.
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.Go(func() error {
		joins, joinErr = a.client.ListJoinRequests(gctx)
		return nil
	})
	g.Go(func() error {
		friends, friendErr = a.client.ListFriendRequests(gctx)
		return nil
	})
	g.Go(func() error {
		conversations, convErr = a.client.ListConversations(gctx)
		return nil
	})
	g.Go(func() error {
		notifications, notifErr = a.client.ListNotifications(gctx)
		return nil
	})
	_ = g.Wait()

	snap := Snapshot{FetchedAt: time.Now()}

	for source, err := range map[string]error{
		"join-requests":   joinErr,
		"friend-requests": friendErr,
		"conversations":   convErr,
		"notifications":   notifErr,
	} {
		if err != nil {
			slog.Warn("Inbox source fetch failed", "source", source, "error", err)
			snap.Degraded = true
		}
	}
	if snap.Degraded {
		snap.Err = genericFetchError
	}

	snap.Items = merge(joins, friends, conversations, notifications)
	snap.Badge = len(snap.Items)

	return a.apply(seq, snap)
}

// apply installs a cycle's snapshot unless a later-issued cycle already
// applied. Returns whichever snapshot ends up current.
func (a *Aggregator) apply(seq uint64, snap Snapshot) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	if seq < a.appliedSeq {
		slog.Debug("Discarding stale inbox cycle", "seq", seq, "applied", a.appliedSeq)
		return a.snap
	}
	a.appliedSeq = seq
	a.snap = snap
	return a.snap
}

// merge filters, flattens, and orders the four collections. Conversations
// contribute one item each when they hold unread messages; notifications
// contribute unread ones only. Groups follow the Kind declaration order and
// sort by created_at descending within a group, ties broken by id.
func merge(joins []api.JoinRequest, friends []api.FriendRequest, conversations []api.Conversation, notifications []api.Notification) []Item {
	items := make([]Item, 0, len(joins)+len(friends)+len(conversations)+len(notifications))
	seen := make(map[identity]bool)

	for _, c := range conversations {
		if c.UnreadCount <= 0 {
			continue
		}
		item := Item{
			Kind:   KindConversation,
			ID:     c.User.ID,
			Actor:  c.User,
			Unread: c.UnreadCount,
		}
		if c.LastMessage != nil {
			item.CreatedAt = c.LastMessage.CreatedAt
			item.Preview = c.LastMessage.Content
		}
		items = appendUnique(items, seen, item)
	}

	for _, n := range notifications {
		if n.IsRead {
			continue
		}
		items = appendUnique(items, seen, Item{
			Kind:      KindNotification,
			ID:        n.ID,
			CreatedAt: n.CreatedAt,
			Event:     n.EventDetails,
			Message:   n.Message,
		})
	}

	for _, f := range friends {
		items = appendUnique(items, seen, Item{
			Kind:      KindFriendRequest,
			ID:        f.ID,
			CreatedAt: f.CreatedAt,
			Actor:     f.FromUserDetails,
		})
	}

	for _, j := range joins {
		items = appendUnique(items, seen, Item{
			Kind:      KindJoinRequest,
			ID:        j.ID,
			CreatedAt: j.CreatedAt,
			Actor:     j.UserDetails,
			Event:     &j.EventDetails,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Kind != items[j].Kind {
			return items[i].Kind < items[j].Kind
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})

	return items
}

type identity struct {
	kind Kind
	id   int
}

func appendUnique(items []Item, seen map[identity]bool, item Item) []Item {
	key := identity{item.Kind, item.ID}
	if seen[key] {
		return items
	}
	seen[key] = true
	return append(items, item)
}

// Apply sends the mutating command for an item, then runs a full Refresh so
// the feed and badge always reflect server truth. The item is never removed
// locally; on failure it stays put and the error carries the server's
// validation message when one was supplied.
func (a *Aggregator) Apply(ctx context.Context, kind Kind, id int, action Action) (Snapshot, error) {
	var err error
	switch {
	case kind == KindJoinRequest && action == ActionApprove:
		err = a.client.ApproveJoinRequest(ctx, id)
	case kind == KindJoinRequest && action == ActionDeny:
		err = a.client.DenyJoinRequest(ctx, id)
	case kind == KindFriendRequest && action == ActionAccept:
		err = a.client.AcceptFriendRequest(ctx, id)
	case kind == KindFriendRequest && action == ActionDecline:
		err = a.client.DeclineFriendRequest(ctx, id)
	case kind == KindNotification && action == ActionMarkRead:
		err = a.client.MarkNotificationRead(ctx, id)
	case kind == KindConversation && action == ActionMarkRead:
		err = a.client.MarkConversationRead(ctx, id)
	default:
		return a.Snapshot(), fmt.Errorf("action %q does not apply to %s items", action, kind)
	}

	if err != nil {
		return a.Snapshot(), err
	}
	return a.Refresh(ctx)
}

// FallbackActionError is the generic message shown when the server gave no
// displayable detail for a failed action.
func FallbackActionError(kind Kind, action Action) string {
	switch {
	case kind == KindJoinRequest && action == ActionApprove:
		return "Failed to approve request"
	case kind == KindJoinRequest && action == ActionDeny:
		return "Failed to deny request"
	case kind == KindFriendRequest && action == ActionAccept:
		return "Failed to accept friend request"
	case kind == KindFriendRequest && action == ActionDecline:
		return "Failed to decline friend request"
	default:
		return "Failed to update notification"
	}
}
