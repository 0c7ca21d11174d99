package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Match represents a fixture as served by the matches resource
type Match struct {
	MatchID       MatchID         `json:"match_id"`
	Date          Flex            `json:"date"`
	Kickoff       Flex            `json:"kickoff"`
	LeagueID      Flex            `json:"league_id"`
	LeagueName    string          `json:"league_name"`
	HomeTeam      string          `json:"home_team"`
	AwayTeam      string          `json:"away_team"`
	HomeLogo      string          `json:"home_logo,omitempty"`
	AwayLogo      string          `json:"away_logo,omitempty"`
	Status        string          `json:"status"`
	HomeScore     Flex            `json:"home_score"`
	AwayScore     Flex            `json:"away_score"`
	CurrentMinute Flex            `json:"current_minute"`
	Prediction    json.RawMessage `json:"prediction,omitempty"`
}

// Display returns "Home vs Away"
func (m Match) Display() string {
	return fmt.Sprintf("%s vs %s", m.HomeTeam, m.AwayTeam)
}

// Score returns the current score, or an empty string before kickoff
func (m Match) Score() string {
	if m.HomeScore == "" && m.AwayScore == "" {
		return ""
	}
	home, away := m.HomeScore, m.AwayScore
	if home == "" {
		home = "0"
	}
	if away == "" {
		away = "0"
	}
	return fmt.Sprintf("%s - %s", home, away)
}

// Mode is the watch mode selected for an item
type Mode string

const (
	ModeA Mode = "A"
	ModeB Mode = "B"
	ModeC Mode = "C"
)

// Valid reports whether m is one of the known modes
func (m Mode) Valid() bool {
	switch m {
	case ModeA, ModeB, ModeC:
		return true
	}
	return false
}

// ParseMode parses a mode case-insensitively
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("invalid mode '%s' (use A, B or C)", s)
	}
	return m, nil
}

// WatchStatus is the local lifecycle status of a watchlist item
type WatchStatus string

const (
	WatchActive  WatchStatus = "active"
	WatchPending WatchStatus = "pending"
)

// WatchlistItem is a match the user tracks, with optional custom conditions.
// The server writes the league under "league" but some rows carry "league_name".
type WatchlistItem struct {
	MatchID                      MatchID     `json:"match_id"`
	Date                         Flex        `json:"date"`
	League                       string      `json:"league"`
	LeagueName                   string      `json:"league_name,omitempty"`
	LeagueID                     Flex        `json:"league_id,omitempty"`
	HomeTeam                     string      `json:"home_team"`
	AwayTeam                     string      `json:"away_team"`
	Kickoff                      Flex        `json:"kickoff"`
	Mode                         Mode        `json:"mode"`
	Priority                     Priority    `json:"priority"`
	CustomConditions             string      `json:"custom_conditions"`
	Status                       WatchStatus `json:"status"`
	AddedAt                      string      `json:"added_at,omitempty"`
	RecommendedCustomCondition   string      `json:"recommended_custom_condition,omitempty"`
	RecommendedConditionReasonVi string      `json:"recommended_condition_reason_vi,omitempty"`
}

// LeagueLabel returns the league text regardless of which column carried it
func (w WatchlistItem) LeagueLabel() string {
	if w.League != "" {
		return w.League
	}
	return w.LeagueName
}

// Display returns "Home vs Away"
func (w WatchlistItem) Display() string {
	return fmt.Sprintf("%s vs %s", w.HomeTeam, w.AwayTeam)
}

// Merge copies every non-zero field of other into w
func (w *WatchlistItem) Merge(other WatchlistItem) {
	if other.MatchID != "" {
		w.MatchID = other.MatchID
	}
	if other.Date != "" {
		w.Date = other.Date
	}
	if other.League != "" {
		w.League = other.League
	}
	if other.LeagueName != "" {
		w.LeagueName = other.LeagueName
	}
	if other.LeagueID != "" {
		w.LeagueID = other.LeagueID
	}
	if other.HomeTeam != "" {
		w.HomeTeam = other.HomeTeam
	}
	if other.AwayTeam != "" {
		w.AwayTeam = other.AwayTeam
	}
	if other.Kickoff != "" {
		w.Kickoff = other.Kickoff
	}
	if other.Mode != "" {
		w.Mode = other.Mode
	}
	if other.Priority != 0 {
		w.Priority = other.Priority
	}
	if other.CustomConditions != "" {
		w.CustomConditions = other.CustomConditions
	}
	if other.Status != "" {
		w.Status = other.Status
	}
	if other.AddedAt != "" {
		w.AddedAt = other.AddedAt
	}
	if other.RecommendedCustomCondition != "" {
		w.RecommendedCustomCondition = other.RecommendedCustomCondition
	}
	if other.RecommendedConditionReasonVi != "" {
		w.RecommendedConditionReasonVi = other.RecommendedConditionReasonVi
	}
}

// WatchlistFromMatch builds a new watchlist entry for a match
func WatchlistFromMatch(m Match, mode Mode, priority Priority) WatchlistItem {
	return WatchlistItem{
		MatchID:  m.MatchID,
		Date:     m.Date,
		League:   m.LeagueName,
		LeagueID: m.LeagueID,
		HomeTeam: m.HomeTeam,
		AwayTeam: m.AwayTeam,
		Kickoff:  m.Kickoff,
		Mode:     mode,
		Priority: priority,
		Status:   WatchActive,
	}
}

// Result is the settlement state of a recommendation
type Result string

const (
	ResultPending Result = "pending"
	ResultWon     Result = "won"
	ResultLost    Result = "lost"
)

// Normalized lowercases the result and maps blanks to pending
func (r Result) Normalized() Result {
	s := Result(strings.ToLower(strings.TrimSpace(string(r))))
	if s == "" {
		return ResultPending
	}
	return s
}

// Recommendation is an AI-generated bet suggestion with its outcome
type Recommendation struct {
	CreatedAt    string  `json:"created_at"`
	MatchID      MatchID `json:"match_id,omitempty"`
	MatchDisplay string  `json:"match_display"`
	BetType      string  `json:"bet_type"`
	Selection    string  `json:"selection"`
	Odds         Flex    `json:"odds"`
	Confidence   Flex    `json:"confidence"`
	StakeAmount  Flex    `json:"stake_amount"`
	Result       Result  `json:"result"`
	PnL          Flex    `json:"pnl"`
}

// ApprovedLeague is a league the user follows
type ApprovedLeague struct {
	LeagueID   Flex   `json:"league_id"`
	LeagueName string `json:"league_name"`
	Country    string `json:"country"`
}

// DisplayName returns "COUNTRY - League", or the bare name without a country
func (l ApprovedLeague) DisplayName() string {
	if l.Country == "" {
		return l.LeagueName
	}
	return fmt.Sprintf("%s - %s", strings.ToUpper(l.Country), l.LeagueName)
}
