// Package session owns the in-memory collections of one dashboard session
// and every write to them.
package session

import (
	"sync"
	"time"

	"github.com/vasylcode/matchwatch/internal/model"
	"github.com/vasylcode/matchwatch/internal/query"
	"github.com/vasylcode/matchwatch/internal/remote"
)

// Session holds the loaded collections. All access goes through methods;
// readers receive copies.
type Session struct {
	mu         sync.Mutex
	matches    []model.Match
	watchlist  []model.WatchlistItem
	recs       []model.Recommendation
	leagues    *LeagueDirectory
	inflight   map[model.MatchID]struct{}
	sectionErr map[remote.Resource]error
	loadedAt   map[remote.Resource]time.Time

	leaguesOnce sync.Once
}

// New creates an empty session
func New() *Session {
	return &Session{
		inflight:   make(map[model.MatchID]struct{}),
		sectionErr: make(map[remote.Resource]error),
		loadedAt:   make(map[remote.Resource]time.Time),
	}
}

// Matches returns a copy of the match list
func (s *Session) Matches() []model.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Match, len(s.matches))
	copy(out, s.matches)
	return out
}

// Watchlist returns a copy of the watchlist
func (s *Session) Watchlist() []model.WatchlistItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneWatchlist(s.watchlist)
}

// Recommendations returns a copy of the recommendation list
func (s *Session) Recommendations() []model.Recommendation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Recommendation, len(s.recs))
	copy(out, s.recs)
	return out
}

// Leagues returns the approved league directory. It is empty until loaded.
func (s *Session) Leagues() *LeagueDirectory {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.leagues == nil {
		return NewLeagueDirectory(nil)
	}
	return s.leagues
}

// WatchIndex indexes the current watchlist by match id
func (s *Session) WatchIndex() query.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return query.NewIndex(s.watchlist)
}

// MatchIndex maps match ids to matches
func (s *Session) MatchIndex() map[model.MatchID]model.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	ix := make(map[model.MatchID]model.Match, len(s.matches))
	for _, m := range s.matches {
		ix[m.MatchID] = m
	}
	return ix
}

// Match looks up a match by id
func (s *Session) Match(id model.MatchID) (model.Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.matches {
		if m.MatchID == id {
			return m, true
		}
	}
	return model.Match{}, false
}

// WatchItem looks up a watchlist item by id
func (s *Session) WatchItem(id model.MatchID) (model.WatchlistItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.watchlist[i], true
	}
	return model.WatchlistItem{}, false
}

// Pending reports whether a write for id is in flight
func (s *Session) Pending(id model.MatchID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[id]
	return ok
}

// SectionErr returns the error of the last load of resource, if it failed
func (s *Session) SectionErr(resource remote.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sectionErr[resource]
}

// LoadedAt returns when resource was last loaded successfully
func (s *Session) LoadedAt(resource remote.Resource) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadedAt[resource]
}

func (s *Session) setMatches(rows []model.Match, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = rows
	s.markLoaded(remote.Matches, err)
}

// setWatchlist replaces the watchlist with rows from the server. In-flight
// ids keep their local state: pending adds stay listed and ids being
// deleted stay removed.
func (s *Session) setWatchlist(rows []model.WatchlistItem, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	local := make(map[model.MatchID]struct{}, len(s.watchlist))
	for _, w := range s.watchlist {
		local[w.MatchID] = struct{}{}
	}

	kept := make([]model.WatchlistItem, 0, len(rows))
	listed := make(map[model.MatchID]struct{}, len(rows))
	for _, r := range rows {
		_, busy := s.inflight[r.MatchID]
		_, ok := local[r.MatchID]
		if busy && !ok {
			continue
		}
		listed[r.MatchID] = struct{}{}
		kept = append(kept, r)
	}
	for _, w := range s.watchlist {
		_, busy := s.inflight[w.MatchID]
		_, ok := listed[w.MatchID]
		if busy && !ok && w.Status == model.WatchPending {
			kept = append(kept, w)
		}
	}
	s.watchlist = kept
	s.markLoaded(remote.Watchlist, err)
}

func (s *Session) setRecommendations(rows []model.Recommendation, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = rows
	s.markLoaded(remote.Recommendations, err)
}

func (s *Session) setLeagues(d *LeagueDirectory, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leagues = d
	s.markLoaded(remote.ApprovedLeagues, err)
}

// markLoaded must be called with mu held
func (s *Session) markLoaded(resource remote.Resource, err error) {
	if err != nil {
		s.sectionErr[resource] = err
		return
	}
	delete(s.sectionErr, resource)
	s.loadedAt[resource] = time.Now()
}

// indexOf must be called with mu held
func (s *Session) indexOf(id model.MatchID) int {
	for i := range s.watchlist {
		if s.watchlist[i].MatchID == id {
			return i
		}
	}
	return -1
}

func cloneWatchlist(in []model.WatchlistItem) []model.WatchlistItem {
	out := make([]model.WatchlistItem, len(in))
	copy(out, in)
	return out
}

// LeagueDirectory resolves approved league ids to display names
type LeagueDirectory struct {
	list []model.ApprovedLeague
	byID map[string]model.ApprovedLeague
}

// NewLeagueDirectory indexes leagues by id
func NewLeagueDirectory(leagues []model.ApprovedLeague) *LeagueDirectory {
	d := &LeagueDirectory{
		list: leagues,
		byID: make(map[string]model.ApprovedLeague, len(leagues)),
	}
	for _, l := range leagues {
		d.byID[l.LeagueID.String()] = l
	}
	return d
}

// Label returns the display name of leagueID, or fallback when unknown
func (d *LeagueDirectory) Label(leagueID, fallback string) string {
	if l, ok := d.byID[leagueID]; ok {
		return l.DisplayName()
	}
	return fallback
}

// Approved reports whether leagueID is in the directory
func (d *LeagueDirectory) Approved(leagueID string) bool {
	_, ok := d.byID[leagueID]
	return ok
}

// Len returns the number of approved leagues
func (d *LeagueDirectory) Len() int {
	return len(d.list)
}
