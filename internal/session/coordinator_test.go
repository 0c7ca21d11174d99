package session

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/vasylcode/matchwatch/internal/model"
	"github.com/vasylcode/matchwatch/internal/remote"
)

// fakeStore is an in-memory Store whose responses are scripted per test
type fakeStore struct {
	mu       sync.Mutex
	rows     map[remote.Resource]any
	fetchErr map[remote.Resource]error
	fetches  map[remote.Resource]int

	createFn func(data any) (*remote.Result, error)
	updateFn func(data any) (*remote.Result, error)
	deleteFn func(ids []string) (*remote.Result, error)
	creates  int
	updates  int
	deletes  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:     make(map[remote.Resource]any),
		fetchErr: make(map[remote.Resource]error),
		fetches:  make(map[remote.Resource]int),
	}
}

func (f *fakeStore) FetchAll(ctx context.Context, resource remote.Resource, out any) error {
	f.mu.Lock()
	f.fetches[resource]++
	err := f.fetchErr[resource]
	rows, ok := f.rows[resource]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if !ok {
		rows = []any{}
	}
	b, _ := json.Marshal(rows)
	return json.Unmarshal(b, out)
}

func (f *fakeStore) Create(ctx context.Context, resource remote.Resource, data any) (*remote.Result, error) {
	f.mu.Lock()
	f.creates++
	fn := f.createFn
	f.mu.Unlock()
	return fn(data)
}

func (f *fakeStore) Update(ctx context.Context, resource remote.Resource, data any) (*remote.Result, error) {
	f.mu.Lock()
	f.updates++
	fn := f.updateFn
	f.mu.Unlock()
	return fn(data)
}

func (f *fakeStore) Delete(ctx context.Context, resource remote.Resource, ids []string) (*remote.Result, error) {
	f.mu.Lock()
	f.deletes++
	fn := f.deleteFn
	f.mu.Unlock()
	return fn(ids)
}

func (f *fakeStore) count(resource remote.Resource) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[resource]
}

type note struct {
	msg string
	sev Severity
}

type recorder struct {
	mu    sync.Mutex
	notes []note
}

func (r *recorder) Notify(msg string, sev Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{msg, sev})
}

func (r *recorder) count(sev Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, x := range r.notes {
		if x.sev == sev {
			n++
		}
	}
	return n
}

func intp(n int) *int { return &n }

func inserted(n int) func(any) (*remote.Result, error) {
	return func(any) (*remote.Result, error) { return &remote.Result{InsertedCount: intp(n)}, nil }
}

func noSleep(context.Context, time.Duration) error { return nil }

func newTestCoordinator(store *fakeStore, rec *recorder) *Coordinator {
	return NewCoordinator(store, New(),
		WithNotifier(rec),
		WithBackoff(Backoff{Attempts: 3, Base: 300 * time.Millisecond, Sleep: noSleep}),
	)
}

func seed(c *Coordinator, items ...model.WatchlistItem) {
	c.sess.setWatchlist(items, nil)
}

func TestAddConfirmsRecord(t *testing.T) {
	store := newFakeStore()
	store.createFn = func(data any) (*remote.Result, error) {
		return &remote.Result{
			InsertedCount: intp(1),
			Items:         json.RawMessage(`[{"match_id": 1, "added_at": "2024-03-15T01:00:00Z"}]`),
		}, nil
	}
	c := newTestCoordinator(store, &recorder{})

	if err := c.Add(context.Background(), model.WatchlistItem{MatchID: " 1 ", HomeTeam: "A", AwayTeam: "B"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	list := c.sess.Watchlist()
	if len(list) != 1 {
		t.Fatalf("expected 1 item, got %d", len(list))
	}
	got := list[0]
	if got.MatchID != "1" || got.Status != model.WatchActive || got.Mode != model.ModeB || got.Priority != 2 {
		t.Errorf("unexpected item: %+v", got)
	}
	if got.AddedAt != "2024-03-15T01:00:00Z" {
		t.Errorf("server fields not merged: %+v", got)
	}
	if c.sess.Pending("1") {
		t.Error("in-flight mark not cleared")
	}
}

func TestAddDedupExisting(t *testing.T) {
	store := newFakeStore()
	store.createFn = inserted(1)
	c := newTestCoordinator(store, &recorder{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := c.Add(ctx, model.WatchlistItem{MatchID: "7"})
		if i == 0 && err != nil {
			t.Fatalf("first Add: %v", err)
		}
		if i > 0 && !errors.Is(err, ErrAlreadyWatched) {
			t.Fatalf("Add #%d: expected ErrAlreadyWatched, got %v", i+1, err)
		}
	}
	if store.creates != 1 {
		t.Errorf("expected 1 remote create, got %d", store.creates)
	}
	if n := len(c.sess.Watchlist()); n != 1 {
		t.Errorf("expected 1 record, got %d", n)
	}
}

func TestAddDedupInFlight(t *testing.T) {
	store := newFakeStore()
	started := make(chan struct{})
	release := make(chan struct{})
	store.createFn = func(any) (*remote.Result, error) {
		close(started)
		<-release
		return &remote.Result{InsertedCount: intp(1)}, nil
	}
	c := newTestCoordinator(store, &recorder{})
	ctx := context.Background()

	done := make(chan error)
	go func() { done <- c.Add(ctx, model.WatchlistItem{MatchID: "9"}) }()
	<-started

	if !c.sess.Pending("9") {
		t.Error("expected the match to be pending while the create is in flight")
	}
	if err := c.Add(ctx, model.WatchlistItem{MatchID: "9"}); !errors.Is(err, ErrInFlight) {
		t.Errorf("expected ErrInFlight, got %v", err)
	}
	if err := c.AddBulk(ctx, []model.WatchlistItem{{MatchID: "9"}}); err == nil {
		t.Error("expected bulk add of an in-flight match to be rejected")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Add: %v", err)
	}
	if store.creates != 1 {
		t.Errorf("expected 1 remote create, got %d", store.creates)
	}
	list := c.sess.Watchlist()
	if len(list) != 1 || list[0].Status != model.WatchActive {
		t.Errorf("expected one active record, got %+v", list)
	}
}

func TestAddRetriesWithBackoff(t *testing.T) {
	store := newFakeStore()
	calls := 0
	store.createFn = func(any) (*remote.Result, error) {
		calls++
		if calls < 3 {
			return nil, &remote.NetworkError{Op: "watchlist.create", Err: errors.New("connection reset")}
		}
		return &remote.Result{InsertedCount: intp(1)}, nil
	}
	var delays []time.Duration
	rec := &recorder{}
	c := NewCoordinator(store, New(), WithNotifier(rec), WithBackoff(Backoff{
		Attempts: 3,
		Base:     300 * time.Millisecond,
		Sleep: func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}))

	if err := c.Add(context.Background(), model.WatchlistItem{MatchID: "3"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	want := []time.Duration{300 * time.Millisecond, 600 * time.Millisecond}
	if !reflect.DeepEqual(delays, want) {
		t.Errorf("delays = %v, want %v", delays, want)
	}
	list := c.sess.Watchlist()
	if len(list) != 1 || list[0].Status != model.WatchActive {
		t.Errorf("expected one confirmed record, got %+v", list)
	}
	if rec.count(Error) != 0 {
		t.Errorf("unexpected error notifications: %+v", rec.notes)
	}
}

func TestAddRollsBackAfterRetries(t *testing.T) {
	store := newFakeStore()
	store.createFn = func(any) (*remote.Result, error) {
		return nil, &remote.HTTPError{Op: "watchlist.create", Status: 500, Body: "boom"}
	}
	rec := &recorder{}
	c := newTestCoordinator(store, rec)
	seed(c, model.WatchlistItem{MatchID: "1", Mode: model.ModeA, Priority: 1, Status: model.WatchActive})
	before := c.sess.Watchlist()

	err := c.Add(context.Background(), model.WatchlistItem{MatchID: "2"})
	var he *remote.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if store.creates != 3 {
		t.Errorf("expected 3 attempts, got %d", store.creates)
	}
	if after := c.sess.Watchlist(); !reflect.DeepEqual(before, after) {
		t.Errorf("state not rolled back:\n before %+v\n after  %+v", before, after)
	}
	if rec.count(Error) != 1 {
		t.Errorf("expected 1 error notification, got %+v", rec.notes)
	}
	if c.sess.Pending("2") {
		t.Error("in-flight mark not cleared")
	}
}

func TestAddTreatsZeroInsertedAsFailure(t *testing.T) {
	store := newFakeStore()
	store.createFn = inserted(0)
	c := newTestCoordinator(store, &recorder{})

	if err := c.Add(context.Background(), model.WatchlistItem{MatchID: "5"}); !errors.Is(err, errNoneInserted) {
		t.Fatalf("expected errNoneInserted, got %v", err)
	}
	if len(c.sess.Watchlist()) != 0 {
		t.Error("expected no records")
	}
}

func TestAddValidates(t *testing.T) {
	store := newFakeStore()
	c := newTestCoordinator(store, &recorder{})

	var ve *ValidationError
	if err := c.Add(context.Background(), model.WatchlistItem{MatchID: "1", Mode: "Z"}); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for mode, got %v", err)
	}
	if err := c.Add(context.Background(), model.WatchlistItem{MatchID: "1", Priority: 4}); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for priority, got %v", err)
	}
	if err := c.AddBulk(context.Background(), nil); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for empty selection, got %v", err)
	}
	if store.creates != 0 {
		t.Errorf("expected no remote calls, got %d", store.creates)
	}
}

func TestAddBulkSkipsWatchedAndRefetchesOnShortInsert(t *testing.T) {
	store := newFakeStore()
	store.createFn = func(data any) (*remote.Result, error) {
		items := data.([]model.WatchlistItem)
		if len(items) != 2 {
			t.Errorf("expected 2 items in payload, got %d", len(items))
		}
		return &remote.Result{InsertedCount: intp(1)}, nil
	}
	store.rows[remote.Watchlist] = []model.WatchlistItem{
		{MatchID: "1", Status: model.WatchActive},
		{MatchID: "2", Status: model.WatchActive},
	}
	c := newTestCoordinator(store, &recorder{})
	seed(c, model.WatchlistItem{MatchID: "1", Status: model.WatchActive})

	err := c.AddBulk(context.Background(), []model.WatchlistItem{{MatchID: "1"}, {MatchID: "2"}, {MatchID: "3"}, {MatchID: "3"}})
	if err != nil {
		t.Fatalf("AddBulk: %v", err)
	}
	if n := store.count(remote.Watchlist); n != 1 {
		t.Errorf("expected one refetch, got %d", n)
	}
	if n := len(c.sess.Watchlist()); n != 2 {
		t.Errorf("expected server state with 2 items, got %d", n)
	}
}

func TestUpdateWaitsForConfirmation(t *testing.T) {
	store := newFakeStore()
	c := newTestCoordinator(store, &recorder{})
	original := model.WatchlistItem{MatchID: "4", Mode: model.ModeB, Priority: 2, CustomConditions: "(BTTS)", Status: model.WatchActive}
	seed(c, original)

	store.updateFn = func(data any) (*remote.Result, error) {
		if got, _ := c.sess.WatchItem("4"); !reflect.DeepEqual(got, original) {
			t.Errorf("local state changed before confirmation: %+v", got)
		}
		return &remote.Result{UpdatedCount: intp(0)}, nil
	}
	edit := original
	edit.Mode = model.ModeA
	edit.CustomConditions = ""
	if err := c.Update(context.Background(), edit); !errors.Is(err, ErrNotUpdated) {
		t.Fatalf("expected ErrNotUpdated, got %v", err)
	}
	if got, _ := c.sess.WatchItem("4"); !reflect.DeepEqual(got, original) {
		t.Errorf("unconfirmed update applied: %+v", got)
	}

	store.updateFn = func(any) (*remote.Result, error) { return &remote.Result{UpdatedCount: intp(1)}, nil }
	if err := c.Update(context.Background(), edit); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := c.sess.WatchItem("4")
	if got.Mode != model.ModeA || got.CustomConditions != "" || got.Priority != 2 {
		t.Errorf("confirmed update not applied: %+v", got)
	}
}

func TestUpdateUnknownMatch(t *testing.T) {
	store := newFakeStore()
	c := newTestCoordinator(store, &recorder{})
	if err := c.Update(context.Background(), model.WatchlistItem{MatchID: "x", Mode: model.ModeA, Priority: 1}); !errors.Is(err, ErrNotWatched) {
		t.Errorf("expected ErrNotWatched, got %v", err)
	}
	if store.updates != 0 {
		t.Error("unexpected remote update")
	}
}

func TestRemoveRollsBack(t *testing.T) {
	failures := map[string]error{
		"network":       &remote.NetworkError{Op: "watchlist.delete", Err: errors.New("timeout")},
		"missing count": &remote.ParseError{Op: "watchlist.delete", Field: "deletedCount"},
	}
	for name, failure := range failures {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			store.deleteFn = func([]string) (*remote.Result, error) { return nil, failure }
			rec := &recorder{}
			c := newTestCoordinator(store, rec)
			seed(c,
				model.WatchlistItem{MatchID: "1", Status: model.WatchActive},
				model.WatchlistItem{MatchID: "2", Status: model.WatchActive, CustomConditions: "(A) OR (B)"},
				model.WatchlistItem{MatchID: "3", Status: model.WatchActive},
			)
			before := c.sess.Watchlist()

			if err := c.RemoveBulk(context.Background(), []model.MatchID{"3", "1"}); !errors.Is(err, failure) {
				t.Fatalf("expected %v, got %v", failure, err)
			}
			if after := c.sess.Watchlist(); !reflect.DeepEqual(before, after) {
				t.Errorf("state not restored:\n before %+v\n after  %+v", before, after)
			}
			if rec.count(Error) != 1 {
				t.Errorf("expected 1 error notification, got %+v", rec.notes)
			}
		})
	}
}

func TestRemoveAnomalyRefetchesOnce(t *testing.T) {
	store := newFakeStore()
	store.deleteFn = func(ids []string) (*remote.Result, error) {
		return &remote.Result{DeletedCount: intp(len(ids) + 2)}, nil
	}
	server := []model.WatchlistItem{{MatchID: "9", Status: model.WatchActive}}
	store.rows[remote.Watchlist] = server
	c := newTestCoordinator(store, &recorder{})
	seed(c,
		model.WatchlistItem{MatchID: "1", Status: model.WatchActive},
		model.WatchlistItem{MatchID: "2", Status: model.WatchActive},
	)

	err := c.Remove(context.Background(), "1")
	var ae *AnomalyError
	if !errors.As(err, &ae) || ae.Requested != 1 || ae.Reported != 3 {
		t.Fatalf("expected AnomalyError 3 of 1, got %v", err)
	}
	if n := store.count(remote.Watchlist); n != 1 {
		t.Errorf("expected exactly one refetch, got %d", n)
	}
	if got := c.sess.Watchlist(); !reflect.DeepEqual(got, server) {
		t.Errorf("expected server state %+v, got %+v", server, got)
	}
}

func TestRemoveAcceptsShortCount(t *testing.T) {
	store := newFakeStore()
	store.deleteFn = func([]string) (*remote.Result, error) { return &remote.Result{DeletedCount: intp(1)}, nil }
	c := newTestCoordinator(store, &recorder{})
	seed(c,
		model.WatchlistItem{MatchID: "1", Status: model.WatchActive},
		model.WatchlistItem{MatchID: "2", Status: model.WatchActive},
	)

	if err := c.RemoveBulk(context.Background(), []model.MatchID{"1", "2"}); err != nil {
		t.Fatalf("RemoveBulk: %v", err)
	}
	if n := len(c.sess.Watchlist()); n != 0 {
		t.Errorf("expected empty watchlist, got %d", n)
	}
	if store.count(remote.Watchlist) != 0 {
		t.Error("unexpected refetch")
	}
}

func TestRemoveRejectsUnknownIDs(t *testing.T) {
	store := newFakeStore()
	c := newTestCoordinator(store, &recorder{})
	seed(c, model.WatchlistItem{MatchID: "1"})

	var ve *ValidationError
	if err := c.RemoveBulk(context.Background(), []model.MatchID{"", " ", "42"}); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if store.deletes != 0 {
		t.Error("unexpected remote delete")
	}
}

func TestRemoveSendsOnlyKnownIDs(t *testing.T) {
	store := newFakeStore()
	var sent []string
	store.deleteFn = func(ids []string) (*remote.Result, error) {
		sent = ids
		return &remote.Result{DeletedCount: intp(len(ids))}, nil
	}
	c := newTestCoordinator(store, &recorder{})
	seed(c, model.WatchlistItem{MatchID: "1"}, model.WatchlistItem{MatchID: "2"})

	if err := c.RemoveBulk(context.Background(), []model.MatchID{"2", "nope", "2", "1.0"}); err != nil {
		t.Fatalf("RemoveBulk: %v", err)
	}
	if !reflect.DeepEqual(sent, []string{"2", "1"}) {
		t.Errorf("sent ids = %v", sent)
	}
}
