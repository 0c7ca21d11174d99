package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vasylcode/matchwatch/internal/model"
	"github.com/vasylcode/matchwatch/internal/remote"
)

type countingRenderer struct {
	mu    sync.Mutex
	calls map[string]int
}

func (r *countingRenderer) inc(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = make(map[string]int)
	}
	r.calls[name]++
}

func (r *countingRenderer) RenderMatches()         { r.inc("matches") }
func (r *countingRenderer) RenderWatchlist()       { r.inc("watchlist") }
func (r *countingRenderer) RenderRecommendations() { r.inc("recommendations") }
func (r *countingRenderer) RenderDashboard()       { r.inc("dashboard") }

func TestLoadAllIsolatesFailures(t *testing.T) {
	store := newFakeStore()
	store.fetchErr[remote.Matches] = &remote.HTTPError{Op: "matches.getAll", Status: 503, Body: "maintenance"}
	store.rows[remote.Watchlist] = []map[string]any{{"match_id": 1, "mode": "A", "priority": 1}}
	store.rows[remote.Recommendations] = []map[string]any{{"match_display": "A vs B", "result": "won", "pnl": "12.5"}}
	store.rows[remote.ApprovedLeagues] = []map[string]any{{"league_id": 39, "league_name": "Premier League", "country": "England"}}

	rec := &recorder{}
	rend := &countingRenderer{}
	c := NewCoordinator(store, New(), WithNotifier(rec), WithRenderer(rend))

	var steps []int
	err := c.LoadAll(context.Background(), func(pct int, _ string) { steps = append(steps, pct) })

	var he *remote.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected joined HTTPError, got %v", err)
	}
	if n := len(c.sess.Matches()); n != 0 {
		t.Errorf("expected empty matches, got %d", n)
	}
	if wl := c.sess.Watchlist(); len(wl) != 1 || wl[0].Status != model.WatchActive {
		t.Errorf("unexpected watchlist: %+v", wl)
	}
	if n := len(c.sess.Recommendations()); n != 1 {
		t.Errorf("expected 1 recommendation, got %d", n)
	}
	if got := c.sess.Leagues().Label("39", ""); got != "ENGLAND - Premier League" {
		t.Errorf("league label = %q", got)
	}
	if !c.sess.Leagues().Approved("39") || c.sess.Leagues().Approved("140") {
		t.Error("approved league lookup wrong")
	}
	if c.sess.SectionErr(remote.Matches) == nil || c.sess.SectionErr(remote.Watchlist) != nil {
		t.Error("section errors not recorded per resource")
	}
	if rec.count(Error) != 1 {
		t.Errorf("expected 1 error notification, got %+v", rec.notes)
	}
	if rend.calls["dashboard"] != 1 || rend.calls["matches"] != 1 {
		t.Errorf("unexpected renders: %v", rend.calls)
	}
	if len(steps) == 0 || steps[len(steps)-1] != 100 {
		t.Errorf("progress did not finish: %v", steps)
	}
}

func TestLeaguesLoadedOncePerSession(t *testing.T) {
	store := newFakeStore()
	store.fetchErr[remote.ApprovedLeagues] = errors.New("down")
	c := NewCoordinator(store, New())

	for i := 0; i < 3; i++ {
		_ = c.LoadAll(context.Background(), nil)
	}
	if n := store.count(remote.ApprovedLeagues); n != 1 {
		t.Errorf("expected approved leagues fetched once, got %d", n)
	}
	if n := store.count(remote.Matches); n != 3 {
		t.Errorf("expected matches fetched every time, got %d", n)
	}
	if c.sess.Leagues().Len() != 0 {
		t.Error("expected empty league directory after failure")
	}
}

func TestReloadKeepsInFlightEntries(t *testing.T) {
	store := newFakeStore()
	store.rows[remote.Watchlist] = []model.WatchlistItem{{MatchID: "1"}}
	c := NewCoordinator(store, New())

	c.sess.mu.Lock()
	c.sess.inflight["2"] = struct{}{}
	c.sess.watchlist = []model.WatchlistItem{{MatchID: "2", Status: model.WatchPending}}
	c.sess.mu.Unlock()

	if err := c.ReloadWatchlist(context.Background()); err != nil {
		t.Fatalf("ReloadWatchlist: %v", err)
	}
	wl := c.sess.Watchlist()
	if len(wl) != 2 || wl[1].MatchID != "2" {
		t.Errorf("expected pending entry kept after reload, got %+v", wl)
	}
}

func TestReloadDuringDeleteKeepsRowsRemoved(t *testing.T) {
	store := newFakeStore()
	store.rows[remote.Watchlist] = []model.WatchlistItem{{MatchID: "1"}, {MatchID: "2"}, {MatchID: "3"}}
	c := newTestCoordinator(store, &recorder{})
	if err := c.ReloadWatchlist(context.Background()); err != nil {
		t.Fatalf("ReloadWatchlist: %v", err)
	}

	// the server still lists every row while the delete is in progress
	var during []model.WatchlistItem
	store.deleteFn = func(ids []string) (*remote.Result, error) {
		if err := c.ReloadWatchlist(context.Background()); err != nil {
			return nil, err
		}
		during = c.sess.Watchlist()
		return &remote.Result{DeletedCount: intp(len(ids))}, nil
	}

	if err := c.RemoveBulk(context.Background(), []model.MatchID{"2"}); err != nil {
		t.Fatalf("RemoveBulk: %v", err)
	}
	if len(during) != 2 || during[0].MatchID != "1" || during[1].MatchID != "3" {
		t.Errorf("reload during delete brought rows back: %+v", during)
	}
	if _, ok := c.sess.WatchItem("2"); ok {
		t.Error("deleted row visible after the delete confirmed")
	}
	if c.sess.Pending("2") {
		t.Error("in-flight mark left behind")
	}
}

func TestBackoffStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Backoff{Attempts: 3, Base: time.Hour}.Do(ctx, func(int) error {
		calls++
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestBackoffAllFail(t *testing.T) {
	calls := 0
	err := Backoff{Attempts: 3, Sleep: noSleep}.Do(context.Background(), func(int) error {
		calls++
		return errors.New("persistent error")
	})
	if err == nil {
		t.Fatal("expected error when all attempts fail")
	}
	if calls != 3 {
		t.Errorf("called fn %d times, want 3", calls)
	}
}
