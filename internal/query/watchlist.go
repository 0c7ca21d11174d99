package query

import (
	"strings"

	"github.com/vasylcode/matchwatch/internal/model"
)

// Watchlist sort columns
const (
	ColKickoff  = "kickoff"
	ColMatch    = "match"
	ColMode     = "mode"
	ColPriority = "priority"
)

// WatchlistFilter holds the watchlist view inputs
type WatchlistFilter struct {
	Search   string
	LeagueID string
	From     string
	To       string
}

// Predicates returns the AND-combined filters for f. matches resolves a
// league id for items that do not carry one.
func (f WatchlistFilter) Predicates(matches map[model.MatchID]model.Match) []func(model.WatchlistItem) bool {
	var preds []func(model.WatchlistItem) bool

	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		preds = append(preds, func(w model.WatchlistItem) bool {
			hay := strings.ToLower(w.HomeTeam + " " + w.AwayTeam + " " + w.LeagueLabel())
			return strings.Contains(hay, q)
		})
	}

	if league := strings.TrimSpace(f.LeagueID); league != "" {
		preds = append(preds, func(w model.WatchlistItem) bool {
			return watchLeagueID(w, matches) == league
		})
	}

	from, to := bound(f.From), bound(f.To)
	if from != "" || to != "" {
		preds = append(preds, func(w model.WatchlistItem) bool { return inRange(w.Date.String(), from, to) })
	}

	return preds
}

func watchLeagueID(w model.WatchlistItem, matches map[model.MatchID]model.Match) string {
	if w.LeagueID != "" {
		return w.LeagueID.String()
	}
	if m, ok := matches[w.MatchID]; ok {
		return m.LeagueID.String()
	}
	return ""
}

// WatchlistCompare returns the comparator for a watchlist sort column, or
// nil for an unknown column.
func WatchlistCompare(column string) func(a, b model.WatchlistItem) int {
	switch column {
	case ColKickoff:
		return func(a, b model.WatchlistItem) int {
			return kickoffKey(a.Date.String(), a.Kickoff.String()).Compare(kickoffKey(b.Date.String(), b.Kickoff.String()))
		}
	case ColLeague:
		return func(a, b model.WatchlistItem) int { return compareFold(a.LeagueLabel(), b.LeagueLabel()) }
	case ColMatch:
		return func(a, b model.WatchlistItem) int { return compareFold(a.Display(), b.Display()) }
	case ColMode:
		return func(a, b model.WatchlistItem) int { return strings.Compare(string(a.Mode), string(b.Mode)) }
	case ColPriority:
		return func(a, b model.WatchlistItem) int { return int(a.Priority) - int(b.Priority) }
	case ColStatus:
		return func(a, b model.WatchlistItem) int { return strings.Compare(string(a.Status), string(b.Status)) }
	}
	return nil
}

// Watchlist runs the watchlist view query
func Watchlist(list []model.WatchlistItem, f WatchlistFilter, s Sort, page, size int, matches map[model.MatchID]model.Match) Page[model.WatchlistItem] {
	return Run(list, Spec[model.WatchlistItem]{
		Filters:  f.Predicates(matches),
		Compare:  WatchlistCompare(s.Column),
		Order:    s.Order,
		Page:     page,
		PageSize: size,
	})
}

// Recommendations pages recommendations in the order the server returned them
func Recommendations(list []model.Recommendation, page, size int) Page[model.Recommendation] {
	return Run(list, Spec[model.Recommendation]{Page: page, PageSize: size})
}
