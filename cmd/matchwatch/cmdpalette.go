package matchwatch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/vasylcode/matchwatch/internal/condition"
	"github.com/vasylcode/matchwatch/internal/model"
	"github.com/vasylcode/matchwatch/internal/query"
	"github.com/vasylcode/matchwatch/internal/session"
)

// tab is a dashboard page
type tab int

const (
	tabDashboard tab = iota
	tabMatches
	tabWatchlist
	tabRecs
)

var tabNames = []string{"Dashboard", "Matches", "Watchlist", "Recommendations"}

func (t tab) String() string {
	return tabNames[t]
}

// parseTab accepts a tab number (1-4) or a name prefix
func parseTab(s string) (tab, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(tabNames) {
		return tab(n - 1), true
	}
	if s == "" {
		return 0, false
	}
	for i, name := range tabNames {
		if strings.HasPrefix(strings.ToLower(name), s) {
			return tab(i), true
		}
	}
	return 0, false
}

// viewState holds what the dashboard shows: the active tab and the filter,
// sort, page and selection of each list
type viewState struct {
	tab         tab
	matchFilter query.MatchFilter
	matchSort   query.Sort
	matchPage   int
	watchFilter query.WatchlistFilter
	watchSort   query.Sort
	watchPage   int
	recPage     int
	selMatches  map[model.MatchID]bool
	selWatch    map[model.MatchID]bool
}

func newViewState() *viewState {
	return &viewState{
		matchSort:  query.Sort{Column: query.ColTime},
		matchPage:  1,
		watchSort:  query.Sort{Column: query.ColKickoff},
		watchPage:  1,
		recPage:    1,
		selMatches: map[model.MatchID]bool{},
		selWatch:   map[model.MatchID]bool{},
	}
}

// page returns the page number of the active list
func (v *viewState) page() *int {
	switch v.tab {
	case tabWatchlist:
		return &v.watchPage
	case tabRecs:
		return &v.recPage
	}
	return &v.matchPage
}

// setSearch applies search text to the active list and goes back to page 1
func (v *viewState) setSearch(text string) {
	if v.tab == tabWatchlist {
		v.watchFilter.Search = text
		v.watchPage = 1
		return
	}
	v.matchFilter.Search = text
	v.matchPage = 1
}

// selected returns the sorted ids selected in a list
func selected(set map[model.MatchID]bool) []model.MatchID {
	ids := make([]model.MatchID, 0, len(set))
	for id, on := range set {
		if on {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// CommandResult represents the result of a command execution
type CommandResult struct {
	Success  bool
	Message  string
	IsHelp   bool   // Show as popup
	HelpText string // Multi-line help content
	Quit     bool   // Signal to quit app
	Edit     model.MatchID
	Show     model.MatchID
}

// CommandPalette handles command parsing and execution
type CommandPalette struct {
	state   *viewState
	coord   *session.Coordinator
	spawn   func(func(ctx context.Context))
	history []string
	histIdx int
}

// NewCommandPalette creates a new command palette. spawn runs coordinator
// calls off the UI goroutine.
func NewCommandPalette(state *viewState, coord *session.Coordinator, spawn func(func(ctx context.Context))) *CommandPalette {
	return &CommandPalette{
		state:   state,
		coord:   coord,
		spawn:   spawn,
		history: []string{},
		histIdx: -1,
	}
}

// Execute parses and executes a command string
func (cp *CommandPalette) Execute(input string) CommandResult {
	input = strings.TrimSpace(input)
	if input == "" {
		return CommandResult{Success: false, Message: ""}
	}

	// Add to history
	cp.history = append(cp.history, input)
	cp.histIdx = len(cp.history)

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "q", "quit", "exit":
		return CommandResult{Quit: true}
	case "go", "tab":
		return cp.cmdTab(args)
	case "search", "s", "/":
		cp.state.setSearch(strings.Join(args, " "))
		return CommandResult{Success: true}
	case "status", "st":
		return cp.cmdStatus(args)
	case "league", "lg":
		return cp.cmdLeague(args)
	case "from", "to":
		return cp.cmdDate(cmd, args)
	case "watched", "wf":
		return cp.cmdWatched(args)
	case "sort", "so":
		return cp.cmdSort(args)
	case "page", "pg":
		return cp.cmdPage(args)
	case "n", "next":
		*cp.state.page()++
		return CommandResult{Success: true}
	case "p", "prev":
		if pg := cp.state.page(); *pg > 1 {
			*pg--
		}
		return CommandResult{Success: true}
	case "add", "a":
		return cp.cmdAdd(args)
	case "del", "d", "delete", "rm":
		return cp.cmdDelete(args)
	case "edit", "e":
		return cp.cmdEdit(args)
	case "cond", "c":
		return cp.cmdCond(args)
	case "mode", "m":
		return cp.cmdMode(args)
	case "prio", "priority":
		return cp.cmdPriority(args)
	case "apply":
		return cp.cmdApply(args)
	case "show", "i":
		return cp.cmdShow(args)
	case "reload", "r":
		cp.spawn(func(ctx context.Context) { _ = cp.coord.LoadAll(ctx, nil) })
		return CommandResult{Success: true, Message: "Reloading..."}
	case "clear":
		return cp.cmdClear()
	case "help", "h", "?":
		return cp.cmdHelp()
	default:
		return CommandResult{Success: false, Message: fmt.Sprintf("Unknown command: %s (:help for commands)", cmd)}
	}
}

// GetHistory returns previous command (for up arrow)
func (cp *CommandPalette) GetHistory(direction int) string {
	if len(cp.history) == 0 {
		return ""
	}
	cp.histIdx += direction
	if cp.histIdx < 0 {
		cp.histIdx = 0
	}
	if cp.histIdx >= len(cp.history) {
		cp.histIdx = len(cp.history)
		return ""
	}
	return cp.history[cp.histIdx]
}

// --- Command implementations ---

func (cp *CommandPalette) cmdTab(args []string) CommandResult {
	if len(args) < 1 {
		return CommandResult{Success: false, Message: "Usage: go dashboard|matches|watchlist|recs"}
	}
	t, ok := parseTab(args[0])
	if !ok {
		return CommandResult{Success: false, Message: fmt.Sprintf("Unknown tab: %s", args[0])}
	}
	cp.state.tab = t
	return CommandResult{Success: true}
}

func (cp *CommandPalette) cmdStatus(args []string) CommandResult {
	if len(args) < 1 {
		return CommandResult{Success: false, Message: "Usage: status CODE|live|all"}
	}
	status := strings.ToUpper(args[0])
	if status == "ALL" {
		status = ""
	}
	cp.state.matchFilter.Status = status
	cp.state.matchPage = 1
	cp.state.tab = tabMatches
	return CommandResult{Success: true}
}

func (cp *CommandPalette) cmdLeague(args []string) CommandResult {
	if len(args) < 1 {
		return CommandResult{Success: false, Message: "Usage: league ID|all"}
	}
	id := args[0]
	if strings.EqualFold(id, "all") {
		id = ""
	}
	if cp.state.tab == tabWatchlist {
		cp.state.watchFilter.LeagueID = id
		cp.state.watchPage = 1
	} else {
		cp.state.matchFilter.LeagueID = id
		cp.state.matchPage = 1
	}
	return CommandResult{Success: true}
}

func (cp *CommandPalette) cmdDate(which string, args []string) CommandResult {
	if len(args) < 1 {
		return CommandResult{Success: false, Message: fmt.Sprintf("Usage: %s YYYY-MM-DD|all", which)}
	}
	date := args[0]
	if strings.EqualFold(date, "all") {
		date = ""
	} else if _, ok := query.NormalizeDate(date); !ok {
		return CommandResult{Success: false, Message: fmt.Sprintf("Invalid date: %s", date)}
	}

	mf, wf := &cp.state.matchFilter, &cp.state.watchFilter
	watch := cp.state.tab == tabWatchlist
	switch {
	case which == "from" && watch:
		wf.From = date
	case which == "from":
		mf.From = date
	case watch:
		wf.To = date
	default:
		mf.To = date
	}
	*cp.state.page() = 1
	return CommandResult{Success: true}
}

func (cp *CommandPalette) cmdWatched(args []string) CommandResult {
	if len(args) < 1 {
		return CommandResult{Success: false, Message: "Usage: watched watched|not-watched|all"}
	}
	cp.state.matchFilter.Watch = query.ParseWatchFilter(args[0])
	cp.state.matchPage = 1
	cp.state.tab = tabMatches
	return CommandResult{Success: true}
}

func (cp *CommandPalette) cmdSort(args []string) CommandResult {
	if len(args) < 1 {
		return CommandResult{Success: false, Message: "Usage: sort COLUMN"}
	}
	column := strings.ToLower(args[0])
	switch cp.state.tab {
	case tabWatchlist:
		if query.WatchlistCompare(column) == nil {
			return CommandResult{Success: false, Message: fmt.Sprintf("Unknown column: %s (kickoff, match, league, mode, priority, status)", column)}
		}
		cp.state.watchSort = cp.state.watchSort.Toggle(column)
		return CommandResult{Success: true, Message: fmt.Sprintf("Sorted by %s %s", column, cp.state.watchSort.Order)}
	case tabMatches:
		if query.MatchCompare(column, nil) == nil {
			return CommandResult{Success: false, Message: fmt.Sprintf("Unknown column: %s (time, league, status, action)", column)}
		}
		cp.state.matchSort = cp.state.matchSort.Toggle(column)
		return CommandResult{Success: true, Message: fmt.Sprintf("Sorted by %s %s", column, cp.state.matchSort.Order)}
	}
	return CommandResult{Success: false, Message: "Sorting applies to the matches and watchlist tabs"}
}

func (cp *CommandPalette) cmdPage(args []string) CommandResult {
	if len(args) < 1 {
		return CommandResult{Success: false, Message: "Usage: page N"}
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return CommandResult{Success: false, Message: fmt.Sprintf("Invalid page: %s", args[0])}
	}
	*cp.state.page() = n
	return CommandResult{Success: true}
}

// targets returns the ids named in args, or the selection when args is empty
func targets(args []string, sel map[model.MatchID]bool) []model.MatchID {
	if len(args) == 0 {
		return selected(sel)
	}
	ids := make([]model.MatchID, 0, len(args))
	for _, a := range args {
		ids = append(ids, model.NormalizeID(a))
	}
	return ids
}

func (cp *CommandPalette) cmdAdd(args []string) CommandResult {
	ids := targets(args, cp.state.selMatches)
	if len(ids) == 0 {
		return CommandResult{Success: false, Message: "Usage: add MATCH_ID... (or select matches with space)"}
	}

	sess := cp.coord.Session()
	items := make([]model.WatchlistItem, 0, len(ids))
	for _, id := range ids {
		m, ok := sess.Match(id)
		if !ok {
			return CommandResult{Success: false, Message: fmt.Sprintf("Match not found: %s", id)}
		}
		items = append(items, model.WatchlistFromMatch(m, "", 0))
	}

	clear(cp.state.selMatches)
	if len(items) == 1 {
		cp.spawn(func(ctx context.Context) { _ = cp.coord.Add(ctx, items[0]) })
		return CommandResult{Success: true, Message: fmt.Sprintf("Adding %s...", items[0].Display())}
	}
	cp.spawn(func(ctx context.Context) { _ = cp.coord.AddBulk(ctx, items) })
	return CommandResult{Success: true}
}

func (cp *CommandPalette) cmdDelete(args []string) CommandResult {
	ids := targets(args, cp.state.selWatch)
	if len(ids) == 0 {
		return CommandResult{Success: false, Message: "Usage: del MATCH_ID... (or select watchlist rows with space)"}
	}
	clear(cp.state.selWatch)
	cp.spawn(func(ctx context.Context) { _ = cp.coord.RemoveBulk(ctx, ids) })
	return CommandResult{Success: true, Message: fmt.Sprintf("Deleting %d item(s)...", len(ids))}
}

// watched looks up a watchlist item named by the first argument
func (cp *CommandPalette) watched(args []string, usage string) (model.WatchlistItem, *CommandResult) {
	if len(args) < 1 {
		return model.WatchlistItem{}, &CommandResult{Success: false, Message: "Usage: " + usage}
	}
	id := model.NormalizeID(args[0])
	item, ok := cp.coord.Session().WatchItem(id)
	if !ok {
		return model.WatchlistItem{}, &CommandResult{Success: false, Message: fmt.Sprintf("Not in watchlist: %s", id)}
	}
	return item, nil
}

func (cp *CommandPalette) update(item model.WatchlistItem) CommandResult {
	cp.spawn(func(ctx context.Context) { _ = cp.coord.Update(ctx, item) })
	return CommandResult{Success: true, Message: fmt.Sprintf("Saving %s...", item.Display())}
}

func (cp *CommandPalette) cmdEdit(args []string) CommandResult {
	item, res := cp.watched(args, "edit MATCH_ID")
	if res != nil {
		return *res
	}
	return CommandResult{Success: true, Edit: item.MatchID}
}

func (cp *CommandPalette) cmdCond(args []string) CommandResult {
	item, res := cp.watched(args, "cond MATCH_ID EXPRESSION (empty clears)")
	if res != nil {
		return *res
	}
	cond, err := normalizeConditions(strings.Join(args[1:], " "))
	if err != nil {
		return CommandResult{Success: false, Message: fmt.Sprintf("Invalid conditions: %v", err)}
	}
	item.CustomConditions = cond
	return cp.update(item)
}

func (cp *CommandPalette) cmdMode(args []string) CommandResult {
	item, res := cp.watched(args, "mode MATCH_ID A|B|C")
	if res != nil {
		return *res
	}
	if len(args) < 2 {
		return CommandResult{Success: false, Message: "Usage: mode MATCH_ID A|B|C"}
	}
	mode, err := model.ParseMode(args[1])
	if err != nil {
		return CommandResult{Success: false, Message: err.Error()}
	}
	item.Mode = mode
	return cp.update(item)
}

func (cp *CommandPalette) cmdPriority(args []string) CommandResult {
	item, res := cp.watched(args, "prio MATCH_ID 1|2|3")
	if res != nil {
		return *res
	}
	if len(args) < 2 {
		return CommandResult{Success: false, Message: "Usage: prio MATCH_ID 1|2|3"}
	}
	p, err := model.ParsePriority(args[1])
	if err != nil {
		return CommandResult{Success: false, Message: err.Error()}
	}
	item.Priority = p
	return cp.update(item)
}

func (cp *CommandPalette) cmdApply(args []string) CommandResult {
	item, res := cp.watched(args, "apply MATCH_ID")
	if res != nil {
		return *res
	}
	b, err := condition.NewBuilder(item.CustomConditions)
	if err != nil {
		return CommandResult{Success: false, Message: fmt.Sprintf("Error: %v", err)}
	}
	changed, err := b.ApplyRecommended(item.RecommendedCustomCondition)
	if errors.Is(err, condition.ErrNoRecommendation) {
		return CommandResult{Success: false, Message: "No recommended condition for this match"}
	}
	if err != nil {
		return CommandResult{Success: false, Message: fmt.Sprintf("Error: %v", err)}
	}
	if !changed {
		return CommandResult{Success: true, Message: "Recommended condition already applied"}
	}
	item.CustomConditions = b.String()
	return cp.update(item)
}

func (cp *CommandPalette) cmdShow(args []string) CommandResult {
	if len(args) < 1 {
		return CommandResult{Success: false, Message: "Usage: show MATCH_ID"}
	}
	id := model.NormalizeID(args[0])
	if _, ok := cp.coord.Session().Match(id); !ok {
		return CommandResult{Success: false, Message: fmt.Sprintf("Match not found: %s", id)}
	}
	return CommandResult{Success: true, Show: id}
}

func (cp *CommandPalette) cmdClear() CommandResult {
	switch cp.state.tab {
	case tabWatchlist:
		cp.state.watchFilter = query.WatchlistFilter{}
		cp.state.watchPage = 1
		clear(cp.state.selWatch)
	default:
		cp.state.matchFilter = query.MatchFilter{}
		cp.state.matchPage = 1
		clear(cp.state.selMatches)
	}
	return CommandResult{Success: true, Message: "Filters cleared"}
}

func (cp *CommandPalette) cmdHelp() CommandResult {
	help := `[yellow]Commands:[white]

[green]go[white] dashboard|matches|watchlist|recs (or 1-4)
[green]search[white] TEXT          [green]clear[white] reset filters
[green]status[white] CODE|live|all [green]watched[white] watched|not-watched|all
[green]league[white] ID|all        [green]from[white]/[green]to[white] YYYY-MM-DD|all
[green]sort[white] COLUMN          [green]page[white] N   [green]n[white]/[green]p[white] next/prev

[green]add[white] (MATCH_ID...)    [green]del[white] (MATCH_ID...)
[green]edit[white] MATCH_ID        [green]cond[white] MATCH_ID EXPRESSION
[green]mode[white] MATCH_ID A|B|C  [green]prio[white] MATCH_ID 1|2|3
[green]apply[white] MATCH_ID       [green]show[white] MATCH_ID
[green]reload[white]               [green]q[white] quit

[yellow]Keys:[white] 1-4 tabs  / search  : command  space select
      a add  d delete  e edit  enter details  r reload`
	return CommandResult{Success: true, IsHelp: true, HelpText: help}
}
