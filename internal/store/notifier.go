package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"photostore/internal/logging"
	"photostore/internal/metrics"
)

// ChangeType is the kind of change a committed transaction produced for one
// entity URI.
type ChangeType int

const (
	ChangeInsert ChangeType = iota + 1
	ChangeUpdate
	ChangeDelete
	// ChangeRecheck tells listeners to drop cached state and reload. It is
	// the coarse signal used when a batch exceeded the change-tracking
	// threshold and per-entity changes were not recorded.
	ChangeRecheck
)

func (c ChangeType) String() string {
	switch c {
	case ChangeInsert:
		return "insert"
	case ChangeUpdate:
		return "update"
	case ChangeDelete:
		return "delete"
	case ChangeRecheck:
		return "recheck"
	default:
		return "unknown"
	}
}

// EntityKind distinguishes asset notifications from album notifications.
type EntityKind int

const (
	EntityAsset EntityKind = iota + 1
	EntityAlbum
)

// Notification is one post-commit change event.
type Notification struct {
	Kind   EntityKind
	ID     int64
	URI    string
	Change ChangeType
}

// ChangeSet accumulates the notifications of one write transaction and
// merges repeated marks on the same entity down to the net effect.
type ChangeSet struct {
	marks  map[string]*Notification
	order  []string
	coarse bool
}

// NewChangeSet creates an empty per-transaction change set.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{marks: make(map[string]*Notification)}
}

// Mark records a change for one entity. Marks on the same URI collapse to
// the net effect: an insert followed by updates stays an insert, an insert
// followed by a delete cancels out, and a delete followed by an insert is
// an update of the entity the listener already knew.
func (cs *ChangeSet) Mark(kind EntityKind, id int64, uri string, change ChangeType) {
	if cs.coarse || uri == "" {
		return
	}

	prev, ok := cs.marks[uri]
	if !ok {
		cs.marks[uri] = &Notification{Kind: kind, ID: id, URI: uri, Change: change}
		cs.order = append(cs.order, uri)
		return
	}

	switch {
	case prev.Change == ChangeInsert && change == ChangeDelete:
		delete(cs.marks, uri)
		for i, u := range cs.order {
			if u == uri {
				cs.order = append(cs.order[:i], cs.order[i+1:]...)
				break
			}
		}
	case prev.Change == ChangeInsert:
		// Still unseen by listeners, stays an insert.
	case prev.Change == ChangeDelete && change == ChangeInsert:
		prev.Change = ChangeUpdate
	case change == ChangeDelete:
		prev.Change = ChangeDelete
	default:
		// update over update, nothing to merge.
	}
}

// MarkRecheck discards per-entity marks and flags the whole set coarse.
func (cs *ChangeSet) MarkRecheck() {
	cs.coarse = true
	cs.marks = make(map[string]*Notification)
	cs.order = nil
}

// Coarse reports whether the set was downgraded to a recheck signal.
func (cs *ChangeSet) Coarse() bool {
	return cs.coarse
}

// Notifications returns the merged notifications in first-mark order.
func (cs *ChangeSet) Notifications() []Notification {
	out := make([]Notification, 0, len(cs.order))
	for _, uri := range cs.order {
		if n, ok := cs.marks[uri]; ok {
			out = append(out, *n)
		}
	}
	return out
}

// Observer receives post-commit change notifications.
type Observer interface {
	OnChange(n Notification)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(n Notification)

func (f ObserverFunc) OnChange(n Notification) { f(n) }

// Notifier fans committed change sets out to registered observers, rate
// limiting the dispatch so a large batch does not stampede listeners.
type Notifier struct {
	mu        sync.RWMutex
	observers []Observer

	limiter *rate.Limiter
	logger  *zerolog.Logger
	metrics *metrics.Metrics
}

// NewNotifier creates a notifier with the given dispatch rate. A rate of
// zero or less disables limiting.
func NewNotifier(perSecond float64, burst int, logger *zerolog.Logger, m *metrics.Metrics) *Notifier {
	var limiter *rate.Limiter
	if perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return &Notifier{limiter: limiter, logger: logger, metrics: m}
}

// Subscribe registers an observer for all future dispatches.
func (n *Notifier) Subscribe(obs Observer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, obs)
}

// Dispatch delivers one committed change set. A coarse set becomes a single
// asset recheck plus a single album recheck so every listener reloads.
func (n *Notifier) Dispatch(ctx context.Context, cs *ChangeSet) {
	if cs == nil {
		return
	}

	var events []Notification
	if cs.Coarse() {
		events = []Notification{
			{Kind: EntityAsset, URI: PhotoURIPrefix, Change: ChangeRecheck},
			{Kind: EntityAlbum, URI: AlbumURIPrefix, Change: ChangeRecheck},
		}
	} else {
		events = cs.Notifications()
	}
	if len(events) == 0 {
		return
	}

	n.mu.RLock()
	observers := make([]Observer, len(n.observers))
	copy(observers, n.observers)
	n.mu.RUnlock()

	for _, ev := range events {
		if n.limiter != nil {
			if err := n.limiter.Wait(ctx); err != nil {
				if n.logger != nil {
					n.logger.Warn().Err(err).Int("dropped", len(events)).Msg("Notification dispatch cancelled")
				}
				return
			}
		}
		for _, obs := range observers {
			obs.OnChange(ev)
		}
		if n.metrics != nil {
			n.metrics.NotificationsTotal.WithLabelValues(ev.Change.String()).Inc()
		}
	}

	logging.LogNotificationFlush(n.logger, len(events), cs.Coarse())
}
