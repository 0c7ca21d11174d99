package query

import (
	"slices"
	"strings"

	"github.com/vasylcode/matchwatch/internal/model"
)

// Facet is one league option in a selector, with the number of rows it matches
type Facet struct {
	LeagueID string
	Name     string
	Count    int
	Approved bool
}

// LeagueFacets counts matches per league, most populated first. label
// resolves a display name; it may be nil.
func LeagueFacets(matches []model.Match, label func(leagueID, fallback string) string) []Facet {
	byID := make(map[string]*Facet)
	var order []string
	for _, m := range matches {
		id := m.LeagueID.String()
		if id == "" {
			continue
		}
		f, ok := byID[id]
		if !ok {
			name := m.LeagueName
			if label != nil {
				name = label(id, m.LeagueName)
			}
			f = &Facet{LeagueID: id, Name: name}
			byID[id] = f
			order = append(order, id)
		}
		f.Count++
	}

	facets := make([]Facet, 0, len(order))
	for _, id := range order {
		facets = append(facets, *byID[id])
	}
	slices.SortStableFunc(facets, func(a, b Facet) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Name, b.Name)
	})
	return facets
}

// MarkApproved sets Approved on each facet whose league approved accepts.
// With only set, the other facets are dropped.
func MarkApproved(facets []Facet, approved func(leagueID string) bool, only bool) []Facet {
	out := facets[:0:0]
	for _, f := range facets {
		f.Approved = approved(f.LeagueID)
		if only && !f.Approved {
			continue
		}
		out = append(out, f)
	}
	return out
}
