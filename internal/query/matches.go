package query

import (
	"strings"

	"github.com/vasylcode/matchwatch/internal/model"
)

// Match sort columns
const (
	ColTime   = "time"
	ColLeague = "league"
	ColStatus = "status"
	ColAction = "action"
)

// StatusLive selects every in-play status code
const StatusLive = "LIVE"

// WatchFilter restricts matches by watchlist membership
type WatchFilter int

const (
	WatchAny WatchFilter = iota
	WatchOnly
	WatchExclude
)

// ParseWatchFilter maps "watched", "not-watched" and "" to a WatchFilter
func ParseWatchFilter(s string) WatchFilter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "watched", "yes", "y":
		return WatchOnly
	case "not-watched", "unwatched", "no", "n":
		return WatchExclude
	}
	return WatchAny
}

// Index is the set of watched match ids. Build it once per render.
type Index map[model.MatchID]struct{}

// NewIndex indexes items by match id
func NewIndex(items []model.WatchlistItem) Index {
	ix := make(Index, len(items))
	for _, it := range items {
		ix[it.MatchID] = struct{}{}
	}
	return ix
}

// Has reports whether id is watched
func (ix Index) Has(id model.MatchID) bool {
	_, ok := ix[id]
	return ok
}

// MatchFilter holds the match view inputs
type MatchFilter struct {
	Search   string
	Status   string
	LeagueID string
	From     string
	To       string
	Watch    WatchFilter
}

// Predicates returns the AND-combined filters for f
func (f MatchFilter) Predicates(ix Index) []func(model.Match) bool {
	var preds []func(model.Match) bool

	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		preds = append(preds, func(m model.Match) bool {
			return strings.Contains(strings.ToLower(m.HomeTeam), q) ||
				strings.Contains(strings.ToLower(m.AwayTeam), q) ||
				strings.Contains(strings.ToLower(m.LeagueName), q)
		})
	}

	if status := strings.ToUpper(strings.TrimSpace(f.Status)); status != "" {
		if status == StatusLive {
			preds = append(preds, func(m model.Match) bool { return model.IsLive(m.Status) })
		} else {
			preds = append(preds, func(m model.Match) bool {
				return strings.ToUpper(strings.TrimSpace(m.Status)) == status
			})
		}
	}

	if league := strings.TrimSpace(f.LeagueID); league != "" {
		preds = append(preds, func(m model.Match) bool { return m.LeagueID.String() == league })
	}

	from, to := bound(f.From), bound(f.To)
	if from != "" || to != "" {
		preds = append(preds, func(m model.Match) bool { return inRange(m.Date.String(), from, to) })
	}

	switch f.Watch {
	case WatchOnly:
		preds = append(preds, func(m model.Match) bool { return ix.Has(m.MatchID) })
	case WatchExclude:
		preds = append(preds, func(m model.Match) bool { return !ix.Has(m.MatchID) })
	}

	return preds
}

// MatchCompare returns the comparator for a match sort column, or nil for
// an unknown column.
func MatchCompare(column string, ix Index) func(a, b model.Match) int {
	switch column {
	case ColTime:
		return func(a, b model.Match) int {
			return kickoffKey(a.Date.String(), a.Kickoff.String()).Compare(kickoffKey(b.Date.String(), b.Kickoff.String()))
		}
	case ColLeague:
		return func(a, b model.Match) int { return compareFold(a.LeagueName, b.LeagueName) }
	case ColStatus:
		return func(a, b model.Match) int { return compareFold(a.Status, b.Status) }
	case ColAction:
		return func(a, b model.Match) int { return compareBool(ix.Has(a.MatchID), ix.Has(b.MatchID)) }
	}
	return nil
}

// Matches runs the match view query
func Matches(list []model.Match, f MatchFilter, s Sort, page, size int, ix Index) Page[model.Match] {
	return Run(list, Spec[model.Match]{
		Filters:  f.Predicates(ix),
		Compare:  MatchCompare(s.Column, ix),
		Order:    s.Order,
		Page:     page,
		PageSize: size,
	})
}

// bound normalizes a date-range input; an unreadable bound is ignored
func bound(s string) string {
	d, ok := NormalizeDate(s)
	if !ok {
		return ""
	}
	return d
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
