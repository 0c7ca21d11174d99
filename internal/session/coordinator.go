package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/vasylcode/matchwatch/internal/model"
	"github.com/vasylcode/matchwatch/internal/remote"
)

// Store is the remote collection API the coordinator writes through
type Store interface {
	FetchAll(ctx context.Context, resource remote.Resource, out any) error
	Create(ctx context.Context, resource remote.Resource, data any) (*remote.Result, error)
	Update(ctx context.Context, resource remote.Resource, data any) (*remote.Result, error)
	Delete(ctx context.Context, resource remote.Resource, ids []string) (*remote.Result, error)
}

// Coordinator applies watchlist writes optimistically to the session and
// confirms or rolls them back against the store.
type Coordinator struct {
	store           Store
	sess            *Session
	renderer        Renderer
	notifier        Notifier
	backoff         Backoff
	logger          *slog.Logger
	now             func() time.Time
	defaultMode     model.Mode
	defaultPriority model.Priority
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithRenderer sets the view renderer
func WithRenderer(r Renderer) Option { return func(c *Coordinator) { c.renderer = r } }

// WithNotifier sets the notification sink
func WithNotifier(n Notifier) Option { return func(c *Coordinator) { c.notifier = n } }

// WithBackoff sets the create retry policy
func WithBackoff(b Backoff) Option { return func(c *Coordinator) { c.backoff = b } }

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option { return func(c *Coordinator) { c.logger = l } }

// WithClock sets the clock used for added_at
func WithClock(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

// WithDefaults sets the mode and priority given to items that carry none
func WithDefaults(mode model.Mode, priority model.Priority) Option {
	return func(c *Coordinator) {
		c.defaultMode = mode
		c.defaultPriority = priority
	}
}

// NewCoordinator creates a coordinator writing sess through store
func NewCoordinator(store Store, sess *Session, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:           store,
		sess:            sess,
		renderer:        nopRenderer{},
		notifier:        nopNotifier{},
		backoff:         DefaultBackoff(),
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:             time.Now,
		defaultMode:     model.ModeB,
		defaultPriority: 2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the coordinator writes to
func (c *Coordinator) Session() *Session {
	return c.sess
}

// Add puts one match on the watchlist
func (c *Coordinator) Add(ctx context.Context, item model.WatchlistItem) error {
	return c.add(ctx, []model.WatchlistItem{item}, true)
}

// AddBulk puts several matches on the watchlist in one request. Matches
// already watched or in flight are skipped.
func (c *Coordinator) AddBulk(ctx context.Context, items []model.WatchlistItem) error {
	return c.add(ctx, items, false)
}

func (c *Coordinator) add(ctx context.Context, items []model.WatchlistItem, single bool) error {
	const op = "watchlist.add"
	if len(items) == 0 {
		return c.reject(&ValidationError{Op: op, Msg: "no matches selected"})
	}

	prepared := make([]model.WatchlistItem, 0, len(items))
	for _, it := range items {
		it.MatchID = model.NormalizeID(it.MatchID.String())
		if it.Mode == "" {
			it.Mode = c.defaultMode
		}
		if it.Priority == 0 {
			it.Priority = c.defaultPriority
		}
		if err := validateItem(op, it); err != nil {
			return c.reject(err)
		}
		prepared = append(prepared, it)
	}

	// check-and-set of the in-flight mark and the optimistic insert share one critical section
	now := c.now().UTC().Format(time.RFC3339)
	var accepted []model.WatchlistItem
	c.sess.mu.Lock()
	for _, it := range prepared {
		if _, busy := c.sess.inflight[it.MatchID]; busy {
			if single {
				c.sess.mu.Unlock()
				return c.reject(ErrInFlight)
			}
			continue
		}
		if c.sess.indexOf(it.MatchID) >= 0 {
			if single {
				c.sess.mu.Unlock()
				c.notifier.Notify("Match already in watchlist", Info)
				return ErrAlreadyWatched
			}
			continue
		}
		c.sess.inflight[it.MatchID] = struct{}{}
		local := it
		local.Status = model.WatchPending
		local.AddedAt = now
		c.sess.watchlist = append(c.sess.watchlist, local)
		accepted = append(accepted, it)
	}
	c.sess.mu.Unlock()

	if len(accepted) == 0 {
		return c.reject(&ValidationError{Op: op, Msg: "all selected matches are already in the watchlist"})
	}

	opID := uuid.NewString()
	log := c.logger.With("op", opID, "action", op, "count", len(accepted))
	c.renderer.RenderWatchlist()
	if !single {
		c.notifier.Notify(fmt.Sprintf("Adding %d match(es) to watchlist...", len(accepted)), Info)
	}

	payload := make([]model.WatchlistItem, len(accepted))
	for i, it := range accepted {
		it.Status = model.WatchActive
		it.AddedAt = ""
		payload[i] = it
	}

	var res *remote.Result
	err := c.backoff.Do(ctx, func(attempt int) error {
		r, err := c.store.Create(ctx, remote.Watchlist, payload)
		if err == nil && *r.InsertedCount <= 0 {
			err = errNoneInserted
		}
		if err != nil {
			log.Warn("create attempt failed", "attempt", attempt, "error", err)
			return err
		}
		res = r
		return nil
	})

	ids := idSet(accepted)
	if err != nil {
		c.sess.mu.Lock()
		for id := range ids {
			delete(c.sess.inflight, id)
		}
		kept := make([]model.WatchlistItem, 0, len(c.sess.watchlist))
		for _, w := range c.sess.watchlist {
			if _, ok := ids[w.MatchID]; ok && w.Status == model.WatchPending {
				continue
			}
			kept = append(kept, w)
		}
		c.sess.watchlist = kept
		c.sess.mu.Unlock()

		log.Error("create failed", "error", err)
		c.renderer.RenderWatchlist()
		c.renderer.RenderDashboard()
		c.notifier.Notify("Failed to add to watchlist: "+remote.Describe(err), Error)
		return err
	}

	var echoed []model.WatchlistItem
	if derr := res.DecodeItems(&echoed); derr != nil {
		log.Warn("could not decode echoed items", "error", derr)
	}
	byID := make(map[model.MatchID]model.WatchlistItem, len(echoed))
	for _, e := range echoed {
		byID[e.MatchID] = e
	}

	c.sess.mu.Lock()
	for id := range ids {
		delete(c.sess.inflight, id)
		if i := c.sess.indexOf(id); i >= 0 {
			if e, ok := byID[id]; ok {
				c.sess.watchlist[i].Merge(e)
			}
			c.sess.watchlist[i].Status = model.WatchActive
		}
	}
	c.sess.mu.Unlock()

	inserted := *res.InsertedCount
	log.Info("create confirmed", "inserted", inserted)
	if inserted < len(accepted) {
		c.notifier.Notify(fmt.Sprintf("Server added %d of %d match(es); refreshing watchlist", inserted, len(accepted)), Warning)
		_ = c.ReloadWatchlist(ctx)
	} else {
		c.renderer.RenderWatchlist()
	}
	c.renderer.RenderMatches()
	c.renderer.RenderDashboard()
	c.notifier.Notify(fmt.Sprintf("Added %d match(es) to watchlist", inserted), Success)
	return nil
}

// Update saves edits to a watched match. Local state changes only after the
// server confirms at least one updated row.
func (c *Coordinator) Update(ctx context.Context, item model.WatchlistItem) error {
	const op = "watchlist.update"
	item.MatchID = model.NormalizeID(item.MatchID.String())
	if err := validateItem(op, item); err != nil {
		return c.reject(err)
	}
	switch item.Status {
	case "", model.WatchActive, model.WatchPending:
	default:
		return c.reject(&ValidationError{Op: op, Msg: fmt.Sprintf("invalid status '%s'", item.Status)})
	}

	c.sess.mu.Lock()
	_, busy := c.sess.inflight[item.MatchID]
	i := c.sess.indexOf(item.MatchID)
	var current model.WatchlistItem
	if i >= 0 {
		current = c.sess.watchlist[i]
	}
	c.sess.mu.Unlock()
	if busy {
		return c.reject(ErrInFlight)
	}
	if i < 0 {
		return c.reject(ErrNotWatched)
	}

	updated := current
	updated.Merge(item)
	updated.CustomConditions = item.CustomConditions
	payload := updated
	payload.AddedAt = ""

	log := c.logger.With("op", uuid.NewString(), "action", op, "match_id", item.MatchID)
	res, err := c.store.Update(ctx, remote.Watchlist, []model.WatchlistItem{payload})
	if err != nil {
		log.Error("update failed", "error", err)
		c.notifier.Notify("Failed to update: "+remote.Describe(err), Error)
		return err
	}
	if *res.UpdatedCount <= 0 {
		log.Warn("update matched no rows")
		c.notifier.Notify("Failed to update: server updated no rows", Error)
		return ErrNotUpdated
	}

	c.sess.mu.Lock()
	if j := c.sess.indexOf(item.MatchID); j >= 0 {
		c.sess.watchlist[j] = updated
	}
	c.sess.mu.Unlock()

	log.Info("update confirmed")
	c.renderer.RenderWatchlist()
	c.notifier.Notify("Updated successfully", Success)
	return nil
}

// Remove deletes one match from the watchlist
func (c *Coordinator) Remove(ctx context.Context, id model.MatchID) error {
	return c.RemoveBulk(ctx, []model.MatchID{id})
}

type removed struct {
	index int
	item  model.WatchlistItem
}

// RemoveBulk deletes matches from the watchlist. Ids not present locally are
// dropped before the request; the removal is rolled back if the server does
// not confirm it.
func (c *Coordinator) RemoveBulk(ctx context.Context, ids []model.MatchID) error {
	const op = "watchlist.delete"

	seen := make(map[model.MatchID]struct{}, len(ids))
	c.sess.mu.Lock()
	var taken []removed
	for _, raw := range ids {
		id := model.NormalizeID(raw.String())
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, busy := c.sess.inflight[id]; busy {
			continue
		}
		if i := c.sess.indexOf(id); i >= 0 {
			taken = append(taken, removed{index: i, item: c.sess.watchlist[i]})
		}
	}
	if len(taken) == 0 {
		c.sess.mu.Unlock()
		return c.reject(&ValidationError{Op: op, Msg: "No valid items to delete"})
	}

	keys := make([]string, len(taken))
	drop := make(map[model.MatchID]struct{}, len(taken))
	for i, t := range taken {
		keys[i] = t.item.MatchID.String()
		drop[t.item.MatchID] = struct{}{}
		c.sess.inflight[t.item.MatchID] = struct{}{}
	}
	kept := make([]model.WatchlistItem, 0, len(c.sess.watchlist))
	for _, w := range c.sess.watchlist {
		if _, ok := drop[w.MatchID]; !ok {
			kept = append(kept, w)
		}
	}
	c.sess.watchlist = kept
	c.sess.mu.Unlock()

	log := c.logger.With("op", uuid.NewString(), "action", op, "count", len(keys))
	c.renderer.RenderWatchlist()

	res, err := c.store.Delete(ctx, remote.Watchlist, keys)

	c.sess.mu.Lock()
	for id := range drop {
		delete(c.sess.inflight, id)
	}
	if err != nil {
		c.restore(taken)
	}
	c.sess.mu.Unlock()

	if err != nil {
		log.Error("delete failed, restored local items", "error", err)
		c.renderer.RenderWatchlist()
		c.notifier.Notify("Failed to delete: "+remote.Describe(err), Error)
		return err
	}

	deleted := *res.DeletedCount
	if deleted > len(keys) {
		anomaly := &AnomalyError{Op: op, Requested: len(keys), Reported: deleted}
		log.Warn("delete anomaly, refetching watchlist", "deleted", deleted)
		c.notifier.Notify(fmt.Sprintf("Server deleted %d item(s) for %d requested; reloading watchlist", deleted, len(keys)), Warning)
		_ = c.ReloadWatchlist(ctx)
		c.renderer.RenderMatches()
		c.renderer.RenderDashboard()
		return anomaly
	}

	log.Info("delete confirmed", "deleted", deleted)
	c.renderer.RenderMatches()
	c.renderer.RenderDashboard()
	c.notifier.Notify(fmt.Sprintf("Deleted %d item(s)", deleted), Success)
	return nil
}

// restore puts removed items back at their original positions. mu must be held.
func (c *Coordinator) restore(taken []removed) {
	slices.SortFunc(taken, func(a, b removed) int { return a.index - b.index })
	for _, t := range taken {
		if c.sess.indexOf(t.item.MatchID) >= 0 {
			continue
		}
		list := c.sess.watchlist
		i := min(t.index, len(list))
		list = append(list, model.WatchlistItem{})
		copy(list[i+1:], list[i:])
		list[i] = t.item
		c.sess.watchlist = list
	}
}

func (c *Coordinator) reject(err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		c.notifier.Notify(ve.Msg, Error)
	case errors.Is(err, ErrInFlight):
		c.notifier.Notify("Save already in progress for this match", Info)
	default:
		c.notifier.Notify(err.Error(), Error)
	}
	return err
}

func validateItem(op string, it model.WatchlistItem) error {
	if it.MatchID == "" {
		return &ValidationError{Op: op, Msg: "match id is required"}
	}
	if !it.Mode.Valid() {
		return &ValidationError{Op: op, Msg: fmt.Sprintf("invalid mode '%s' (use A, B or C)", it.Mode)}
	}
	if !it.Priority.Valid() {
		return &ValidationError{Op: op, Msg: fmt.Sprintf("invalid priority %d (use 1, 2 or 3)", it.Priority)}
	}
	return nil
}

func idSet(items []model.WatchlistItem) map[model.MatchID]struct{} {
	set := make(map[model.MatchID]struct{}, len(items))
	for _, it := range items {
		set[it.MatchID] = struct{}{}
	}
	return set
}
