package matchwatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
	"github.com/vasylcode/matchwatch/internal/condition"
	"github.com/vasylcode/matchwatch/internal/model"
	"github.com/vasylcode/matchwatch/internal/query"
	"github.com/vasylcode/matchwatch/internal/remote"
	"github.com/vasylcode/matchwatch/internal/session"
	"github.com/vasylcode/matchwatch/internal/stats"
	"github.com/vasylcode/matchwatch/internal/util"
)

func init() {
	// Dashboard command
	dashboardCmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"d"},
		Short:   "Open the interactive dashboard",
		Long:    `Open a terminal dashboard with match, watchlist and recommendation tabs, a command palette and live match refresh.`,
		Args:    cobra.NoArgs,
		Run:     showDashboard,
	}

	rootCmd.AddCommand(dashboardCmd)
}

// toastTTL is how long a notification stays in the status bar
const toastTTL = 5 * time.Second

// dashboard is the terminal UI. It renders the session for the coordinator
// and shows its notifications. Every draw runs on the tview event goroutine.
type dashboard struct {
	app     *tview.Application
	pages   *tview.Pages
	header  *tview.TextView
	status  *tview.TextView
	input   *tview.InputField
	home    *tview.Flex
	matches *tview.Table
	watch   *tview.Table
	recs    *tview.Table

	coord   *session.Coordinator
	state   *viewState
	palette *CommandPalette
	ctx     context.Context

	searching bool
	modal     string
	toastSeq  int
	search    *debouncer
	loaded    bool
}

func showDashboard(cmd *cobra.Command, args []string) {
	s := requireLogin()
	if cfg.Logging.File == "" {
		logger = util.NewLogger(cfg.Logging.Level, io.Discard)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	d := &dashboard{
		app:    tview.NewApplication(),
		state:  newViewState(),
		ctx:    ctx,
		search: newDebouncer(cfg.Dashboard.Debounce),
	}
	d.coord = newCoordinator(s, session.WithRenderer(d), session.WithNotifier(d))
	d.palette = NewCommandPalette(d.state, d.coord, d.spawn)
	root := d.build()

	d.setStatus("[#AAAAAA]Loading...[white]")
	go func() {
		err := d.coord.LoadAll(ctx, func(percent int, label string) {
			d.app.QueueUpdateDraw(func() {
				d.setStatus(fmt.Sprintf("[#AAAAAA]%s... %d%%[white]", label, percent))
			})
		})
		d.app.QueueUpdateDraw(func() {
			d.loaded = true
			if err == nil {
				d.setStatus("[#00FF00]Ready[white]")
			}
			d.drawAll()
		})
		logger.Info("dashboard loaded", "error", err)
	}()
	go d.refreshLoop(ctx)

	if err := d.app.SetRoot(root, true).EnableMouse(true).Run(); err != nil {
		er(fmt.Sprintf("Failed to run dashboard: %v", err))
	}
}

// spawn runs coordinator work off the UI goroutine
func (d *dashboard) spawn(fn func(ctx context.Context)) {
	go fn(d.ctx)
}

// refreshLoop reloads matches on the configured interval
func (d *dashboard) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(cfg.Dashboard.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Debug("refreshing matches")
			_ = d.coord.ReloadMatches(ctx)
		}
	}
}

func (d *dashboard) build() tview.Primitive {
	d.header = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)
	d.header.SetBorder(true)

	d.home = tview.NewFlex().SetDirection(tview.FlexColumn)
	d.matches = newListTable(" Matches ")
	d.watch = newListTable(" Watchlist ")
	d.recs = newListTable(" Recommendations ")

	d.matches.SetSelectedFunc(func(row, col int) {
		if id, ok := rowID(d.matches, row); ok {
			d.showMatch(id)
		}
	})
	d.watch.SetSelectedFunc(func(row, col int) {
		if id, ok := rowID(d.watch, row); ok {
			d.openEditor(id)
		}
	})

	d.pages = tview.NewPages().
		AddPage(tabDashboard.String(), d.home, true, true).
		AddPage(tabMatches.String(), d.matches, true, false).
		AddPage(tabWatchlist.String(), d.watch, true, false).
		AddPage(tabRecs.String(), d.recs, true, false)

	d.status = tview.NewTextView().SetDynamicColors(true)

	d.input = tview.NewInputField().
		SetLabel(" ").
		SetFieldWidth(0).
		SetFieldBackgroundColor(tcell.ColorDefault).
		SetPlaceholder("press : for commands, / to search, ? for help").
		SetPlaceholderTextColor(tcell.ColorGray)
	d.input.SetChangedFunc(d.inputChanged)
	d.input.SetDoneFunc(d.inputDone)
	d.input.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if d.searching {
			return event
		}
		switch event.Key() {
		case tcell.KeyUp:
			d.input.SetText(d.palette.GetHistory(-1))
			return nil
		case tcell.KeyDown:
			d.input.SetText(d.palette.GetHistory(1))
			return nil
		}
		return event
	})

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.header, 3, 0, false).
		AddItem(d.pages, 0, 1, true).
		AddItem(d.status, 1, 0, false).
		AddItem(d.input, 1, 0, false)

	d.app.SetInputCapture(d.handleKey)
	d.drawHeader()
	d.drawAll()
	return layout
}

// handleKey implements the global shortcuts
func (d *dashboard) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if d.modal != "" || d.app.GetFocus() == d.input {
		return event
	}

	switch event.Key() {
	case tcell.KeyEscape:
		d.app.Stop()
		return nil
	case tcell.KeyTab:
		d.switchTab((d.state.tab + 1) % tab(len(tabNames)))
		return nil
	case tcell.KeyBacktab:
		d.switchTab((d.state.tab + tab(len(tabNames)) - 1) % tab(len(tabNames)))
		return nil
	case tcell.KeyRight:
		if d.state.tab != tabDashboard {
			d.execute("n")
			return nil
		}
	case tcell.KeyLeft:
		if d.state.tab != tabDashboard {
			d.execute("p")
			return nil
		}
	}

	switch r := event.Rune(); r {
	case 'q':
		d.app.Stop()
		return nil
	case '1', '2', '3', '4':
		d.switchTab(tab(r - '1'))
		return nil
	case ':':
		d.openInput(false)
		return nil
	case '/':
		if d.state.tab == tabMatches || d.state.tab == tabWatchlist {
			d.openInput(true)
		}
		return nil
	case '?':
		d.execute("help")
		return nil
	case 'r':
		d.execute("reload")
		return nil
	case ' ':
		d.toggleSelection()
		return nil
	case 'a':
		if d.state.tab == tabMatches {
			d.execute("add " + d.selectionOrCurrent(d.matches, d.state.selMatches))
			return nil
		}
	case 'd':
		if d.state.tab == tabWatchlist {
			d.execute("del " + d.selectionOrCurrent(d.watch, d.state.selWatch))
			return nil
		}
	case 'e':
		if id, ok := d.currentID(); ok && d.state.tab == tabWatchlist {
			d.openEditor(id)
			return nil
		}
	case 'l':
		if d.state.tab == tabMatches {
			if d.state.matchFilter.Status == query.StatusLive {
				d.execute("status all")
			} else {
				d.execute("status live")
			}
			return nil
		}
	case 'w':
		if d.state.tab == tabMatches {
			next := map[query.WatchFilter]string{
				query.WatchAny:     "watched",
				query.WatchOnly:    "not-watched",
				query.WatchExclude: "all",
			}[d.state.matchFilter.Watch]
			d.execute("watched " + next)
			return nil
		}
	}
	return event
}

// execute runs a palette command and redraws
func (d *dashboard) execute(input string) {
	res := d.palette.Execute(input)
	if res.Quit {
		d.app.Stop()
		return
	}
	d.switchTab(d.state.tab)

	switch {
	case res.IsHelp:
		d.showText(" Help ", res.HelpText)
	case res.Edit != "":
		d.openEditor(res.Edit)
	case res.Show != "":
		d.showMatch(res.Show)
	case res.Message != "":
		if res.Success {
			d.setStatus("[#00FFFF]" + tview.Escape(res.Message) + "[white]")
		} else {
			d.setStatus("[#FF5555]" + tview.Escape(res.Message) + "[white]")
		}
	}
}

func (d *dashboard) openInput(search bool) {
	d.searching = search
	if search {
		d.input.SetLabel("[#FFFF00]/[white]")
		if d.state.tab == tabWatchlist {
			d.input.SetText(d.state.watchFilter.Search)
		} else {
			d.input.SetText(d.state.matchFilter.Search)
		}
	} else {
		d.input.SetLabel("[#00FFFF]:[white]")
		d.input.SetText("")
	}
	d.app.SetFocus(d.input)
}

func (d *dashboard) closeInput() {
	d.searching = false
	d.input.SetLabel(" ")
	d.input.SetText("")
	d.app.SetFocus(d.pages)
}

// inputChanged applies search text after the debounce delay
func (d *dashboard) inputChanged(text string) {
	if !d.searching {
		return
	}
	d.search.Trigger(func() {
		d.app.QueueUpdateDraw(func() {
			d.state.setSearch(text)
			d.drawCurrent()
		})
	})
}

func (d *dashboard) inputDone(key tcell.Key) {
	text := d.input.GetText()
	searching := d.searching
	d.closeInput()
	switch {
	case key == tcell.KeyEscape:
	case searching:
		d.search.Cancel()
		d.state.setSearch(text)
		d.drawCurrent()
	case key == tcell.KeyEnter:
		d.execute(text)
	}
}

func (d *dashboard) switchTab(t tab) {
	d.state.tab = t
	d.pages.SwitchToPage(t.String())
	d.drawHeader()
	d.drawCurrent()
}

// currentID returns the match id of the highlighted row of the active list
func (d *dashboard) currentID() (model.MatchID, bool) {
	switch d.state.tab {
	case tabMatches:
		row, _ := d.matches.GetSelection()
		return rowID(d.matches, row)
	case tabWatchlist:
		row, _ := d.watch.GetSelection()
		return rowID(d.watch, row)
	}
	return "", false
}

func (d *dashboard) toggleSelection() {
	id, ok := d.currentID()
	if !ok {
		return
	}
	set := d.state.selMatches
	if d.state.tab == tabWatchlist {
		set = d.state.selWatch
	}
	if set[id] {
		delete(set, id)
	} else {
		set[id] = true
	}
	d.drawCurrent()
}

// selectionOrCurrent returns the selected ids, or the highlighted row's id
func (d *dashboard) selectionOrCurrent(table *tview.Table, set map[model.MatchID]bool) string {
	if ids := selected(set); len(ids) > 0 {
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = id.String()
		}
		return strings.Join(parts, " ")
	}
	row, _ := table.GetSelection()
	id, _ := rowID(table, row)
	return id.String()
}

// --- session.Renderer and session.Notifier ---

// RenderMatches redraws the matches tab
func (d *dashboard) RenderMatches() {
	d.app.QueueUpdateDraw(func() {
		d.drawMatches()
		d.drawHeader()
	})
}

// RenderWatchlist redraws the watchlist tab
func (d *dashboard) RenderWatchlist() {
	d.app.QueueUpdateDraw(func() {
		d.drawWatchlist()
		d.drawMatches()
	})
}

// RenderRecommendations redraws the recommendations tab
func (d *dashboard) RenderRecommendations() {
	d.app.QueueUpdateDraw(d.drawRecs)
}

// RenderDashboard redraws the dashboard tab
func (d *dashboard) RenderDashboard() {
	d.app.QueueUpdateDraw(d.drawHome)
}

// Notify shows message in the status bar until a newer one replaces it
func (d *dashboard) Notify(message string, severity session.Severity) {
	logger.Debug("notify", "severity", severity.String(), "message", message)
	d.app.QueueUpdateDraw(func() {
		d.setStatus(severityTag(severity) + tview.Escape(message) + "[white]")
	})
}

func severityTag(s session.Severity) string {
	switch s {
	case session.Success:
		return "[#00FF00]✓ "
	case session.Warning:
		return "[#FFFF00]! "
	case session.Error:
		return "[#FF5555]✗ "
	}
	return "[#00FFFF]"
}

// setStatus shows text in the status bar and clears it after toastTTL
func (d *dashboard) setStatus(text string) {
	d.toastSeq++
	seq := d.toastSeq
	d.status.SetText(" " + text)
	time.AfterFunc(toastTTL, func() {
		d.app.QueueUpdateDraw(func() {
			if d.toastSeq == seq {
				d.status.SetText("")
			}
		})
	})
}

// --- drawing ---

func (d *dashboard) drawAll() {
	d.drawHeader()
	d.drawHome()
	d.drawMatches()
	d.drawWatchlist()
	d.drawRecs()
}

func (d *dashboard) drawCurrent() {
	switch d.state.tab {
	case tabMatches:
		d.drawMatches()
	case tabWatchlist:
		d.drawWatchlist()
	case tabRecs:
		d.drawRecs()
	default:
		d.drawHome()
	}
}

func (d *dashboard) drawHeader() {
	var b strings.Builder
	b.WriteString("[::b][#00FFFF]MATCHWATCH[white][::-] [#666666]│[white] ")
	for i, name := range tabNames {
		if tab(i) == d.state.tab {
			fmt.Fprintf(&b, "[::b][#FF6600]%d %s[white][::-]  ", i+1, name)
		} else {
			fmt.Fprintf(&b, "[#AAAAAA]%d %s[white]  ", i+1, name)
		}
	}
	if t := d.coord.Session().LoadedAt(remote.Matches); !t.IsZero() {
		fmt.Fprintf(&b, "[#666666]│ updated %s[white]", t.Local().Format("15:04:05"))
	}
	d.header.SetText(b.String())
}

func (d *dashboard) drawHome() {
	sess := d.coord.Session()
	sum := stats.Summarize(sess.Recommendations())

	d.home.Clear()

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(createCountsView(sess, d.loaded), 9, 0, false).
		AddItem(createLiveView(sess), 0, 1, false)

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(createSummaryView(sum), 9, 0, false).
		AddItem(createRecentView(sum.Recent), 0, 1, false).
		AddItem(createLeagueChartView(sess), 0, 1, false)

	d.home.AddItem(left, 0, 1, false)
	d.home.AddItem(right, 0, 1, false)
}

// newListTable creates a selectable table with a fixed header row
func newListTable(title string) *tview.Table {
	t := tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	t.SetBorder(true).SetTitle(title)
	return t
}

// rowID returns the match id stored on a table row
func rowID(t *tview.Table, row int) (model.MatchID, bool) {
	cell := t.GetCell(row, 0)
	if cell == nil {
		return "", false
	}
	id, ok := cell.GetReference().(model.MatchID)
	return id, ok
}

// setHeader writes the header row, marking the active sort column
func setHeader(t *tview.Table, headers, columns []string, sort query.Sort) {
	for i, h := range headers {
		if columns != nil && columns[i] != "" && columns[i] == sort.Column {
			if sort.Order == query.Desc {
				h += " ▼"
			} else {
				h += " ▲"
			}
		}
		t.SetCell(0, i, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))
	}
}

func setEmpty(t *tview.Table, text string) {
	t.SetCell(1, 0, tview.NewTableCell(text).SetTextColor(tcell.ColorGray).SetSelectable(false))
}

func (d *dashboard) drawMatches() {
	sess := d.coord.Session()
	ix := sess.WatchIndex()
	leagues := sess.Leagues()
	page := query.Matches(sess.Matches(), d.state.matchFilter, d.state.matchSort, d.state.matchPage, cfg.Query.PageSize, ix)
	d.state.matchPage = page.Page

	row, _ := d.matches.GetSelection()
	d.matches.Clear()
	setHeader(d.matches,
		[]string{" ", "ID", "Kickoff", "League", "Match", "Status", "Score", "Watch"},
		[]string{"", "", query.ColTime, query.ColLeague, "", query.ColStatus, "", query.ColAction},
		d.state.matchSort)

	for i, m := range page.Items {
		r := i + 1
		mark := " "
		if d.state.selMatches[m.MatchID] {
			mark = "●"
		}
		watch := ""
		switch {
		case sess.Pending(m.MatchID):
			watch = "saving"
		case ix.Has(m.MatchID):
			watch = "★"
		}
		score := m.Score()
		if minute := m.CurrentMinute.String(); minute != "" && model.IsLive(m.Status) {
			score += fmt.Sprintf(" %s'", minute)
		}

		d.matches.SetCell(r, 0, tview.NewTableCell(mark).SetReference(m.MatchID).SetTextColor(tcell.ColorAqua))
		d.matches.SetCell(r, 1, tview.NewTableCell(m.MatchID.String()).SetTextColor(tcell.ColorGray))
		d.matches.SetCell(r, 2, tview.NewTableCell(query.FormatKickoff(m.Date.String(), m.Kickoff.String(), time.Local)))
		d.matches.SetCell(r, 3, tview.NewTableCell(util.Truncate(leagues.Label(m.LeagueID.String(), m.LeagueName), 30)).SetTextColor(tcell.ColorAqua))
		d.matches.SetCell(r, 4, tview.NewTableCell(m.Display()).SetExpansion(1).SetAttributes(tcell.AttrBold))
		d.matches.SetCell(r, 5, tview.NewTableCell(model.StatusLabel(m.Status)).SetTextColor(tcell.GetColor(tagColor(util.StatusColor(m.Status)))))
		d.matches.SetCell(r, 6, tview.NewTableCell(score))
		d.matches.SetCell(r, 7, tview.NewTableCell(watch).SetTextColor(tcell.ColorYellow))
	}
	if page.Total == 0 {
		setEmpty(d.matches, "No matches found")
	}
	d.matches.Select(clampRow(row, len(page.Items)), 0)
	d.matches.SetTitle(fmt.Sprintf(" Matches%s │ page %d/%d │ %d ", d.filterSummary(), page.Page, max(page.Pages, 1), page.Total))
}

func (d *dashboard) drawWatchlist() {
	sess := d.coord.Session()
	page := query.Watchlist(sess.Watchlist(), d.state.watchFilter, d.state.watchSort, d.state.watchPage, cfg.Query.PageSize, sess.MatchIndex())
	d.state.watchPage = page.Page

	row, _ := d.watch.GetSelection()
	d.watch.Clear()
	setHeader(d.watch,
		[]string{" ", "ID", "Kickoff", "League", "Match", "Mode", "Prio", "Conditions", "Status"},
		[]string{"", "", query.ColKickoff, query.ColLeague, query.ColMatch, query.ColMode, query.ColPriority, "", query.ColStatus},
		d.state.watchSort)

	for i, w := range page.Items {
		r := i + 1
		mark := " "
		if d.state.selWatch[w.MatchID] {
			mark = "●"
		}
		statusColor := tcell.ColorGreen
		if w.Status == model.WatchPending {
			statusColor = tcell.ColorYellow
		}
		cond := w.CustomConditions
		if cond == "" && w.RecommendedCustomCondition != "" {
			cond = "(recommended available)"
		}

		d.watch.SetCell(r, 0, tview.NewTableCell(mark).SetReference(w.MatchID).SetTextColor(tcell.ColorAqua))
		d.watch.SetCell(r, 1, tview.NewTableCell(w.MatchID.String()).SetTextColor(tcell.ColorGray))
		d.watch.SetCell(r, 2, tview.NewTableCell(query.FormatKickoff(w.Date.String(), w.Kickoff.String(), time.Local)))
		d.watch.SetCell(r, 3, tview.NewTableCell(util.Truncate(w.LeagueLabel(), 24)).SetTextColor(tcell.ColorAqua))
		d.watch.SetCell(r, 4, tview.NewTableCell(w.Display()).SetAttributes(tcell.AttrBold))
		d.watch.SetCell(r, 5, tview.NewTableCell(string(w.Mode)).SetTextColor(tcell.GetColor(tagColor(util.ModeColor(w.Mode)))))
		d.watch.SetCell(r, 6, tview.NewTableCell(fmt.Sprintf("%d", w.Priority)))
		d.watch.SetCell(r, 7, tview.NewTableCell(cond).SetExpansion(1).SetTextColor(tcell.ColorYellow))
		d.watch.SetCell(r, 8, tview.NewTableCell(string(w.Status)).SetTextColor(statusColor))
	}
	if page.Total == 0 {
		setEmpty(d.watch, "Watchlist is empty")
	}
	d.watch.Select(clampRow(row, len(page.Items)), 0)
	d.watch.SetTitle(fmt.Sprintf(" Watchlist │ page %d/%d │ %d ", page.Page, max(page.Pages, 1), page.Total))
}

func (d *dashboard) drawRecs() {
	recs := d.coord.Session().Recommendations()
	page := query.Recommendations(recs, d.state.recPage, cfg.Query.PageSize)
	d.state.recPage = page.Page

	d.recs.Clear()
	setHeader(d.recs, []string{"Created", "Match", "Bet", "Selection", "Odds", "Conf", "Stake", "Result", "P&L"}, nil, query.Sort{})
	for i, r := range page.Items {
		row := i + 1
		result := r.Result.Normalized()
		pnl := stats.Amount(r.PnL)
		pnlText := ""
		if r.PnL != "" {
			pnlText = util.FormatPnL(pnl)
		}

		d.recs.SetCell(row, 0, tview.NewTableCell(r.CreatedAt).SetTextColor(tcell.ColorGray))
		d.recs.SetCell(row, 1, tview.NewTableCell(r.MatchDisplay).SetExpansion(1).SetAttributes(tcell.AttrBold))
		d.recs.SetCell(row, 2, tview.NewTableCell(r.BetType).SetTextColor(tcell.ColorAqua))
		d.recs.SetCell(row, 3, tview.NewTableCell(r.Selection))
		d.recs.SetCell(row, 4, tview.NewTableCell(orDash(r.Odds)))
		d.recs.SetCell(row, 5, tview.NewTableCell(orDash(r.Confidence)))
		d.recs.SetCell(row, 6, tview.NewTableCell(util.FormatMoney(stats.Amount(r.StakeAmount))))
		d.recs.SetCell(row, 7, tview.NewTableCell(strings.ToUpper(string(result))).SetTextColor(tcell.GetColor(tagColor(util.ResultColor(result)))))
		d.recs.SetCell(row, 8, tview.NewTableCell(pnlText).SetTextColor(tcell.GetColor(tagColor(util.PnLColor(pnl)))))
	}
	if page.Total == 0 {
		setEmpty(d.recs, "No recommendations found")
	}
	d.recs.SetTitle(fmt.Sprintf(" Recommendations │ page %d/%d │ %d ", page.Page, max(page.Pages, 1), page.Total))
}

// filterSummary describes the active match filters for the table title
func (d *dashboard) filterSummary() string {
	f := d.state.matchFilter
	var parts []string
	if f.Search != "" {
		parts = append(parts, fmt.Sprintf("%q", f.Search))
	}
	if f.Status != "" {
		parts = append(parts, f.Status)
	}
	if f.LeagueID != "" {
		parts = append(parts, "league "+f.LeagueID)
	}
	if f.From != "" || f.To != "" {
		parts = append(parts, f.From+".."+f.To)
	}
	switch f.Watch {
	case query.WatchOnly:
		parts = append(parts, "watched")
	case query.WatchExclude:
		parts = append(parts, "not watched")
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + tview.Escape(strings.Join(parts, ", ")) + ")"
}

// tagColor strips a tview color tag down to the color name
func tagColor(name string) string {
	return strings.Trim(util.Tag(name), "[]")
}

func clampRow(row, n int) int {
	if row < 1 {
		return 1
	}
	if row > n {
		return max(n, 1)
	}
	return row
}

// --- dashboard panels ---

// createCountsView shows collection sizes
func createCountsView(sess *session.Session, loaded bool) *tview.TextView {
	view := tview.NewTextView().SetDynamicColors(true)
	view.SetBorder(true).SetTitle(" Overview ")

	if !loaded {
		view.SetText("[#AAAAAA]Loading...[white]")
		return view
	}

	matches := sess.Matches()
	live := 0
	for _, m := range matches {
		if model.IsLive(m.Status) {
			live++
		}
	}
	watch := sess.Watchlist()
	pending := 0
	for _, w := range watch {
		if w.Status == model.WatchPending {
			pending++
		}
	}

	var content strings.Builder
	fmt.Fprintf(&content, "[::b]Matches:[:-]          [#00FFFF]%d[white]\n", len(matches))
	fmt.Fprintf(&content, "[::b]Live now:[:-]         [#FF0000]%d[white]\n", live)
	fmt.Fprintf(&content, "[::b]Watchlist:[:-]        [#FFFF00]%d[white]", len(watch))
	if pending > 0 {
		fmt.Fprintf(&content, " [#AAAAAA](%d saving)[white]", pending)
	}
	content.WriteString("\n")
	fmt.Fprintf(&content, "[::b]Recommendations:[:-]  [#00FFFF]%d[white]\n", len(sess.Recommendations()))
	fmt.Fprintf(&content, "[::b]Approved leagues:[:-] [#00FFFF]%d[white]\n", sess.Leagues().Len())

	for _, r := range []remote.Resource{remote.Matches, remote.Watchlist, remote.Recommendations} {
		if err := sess.SectionErr(r); err != nil {
			fmt.Fprintf(&content, "[#FF5555]%s unavailable[white]\n", r)
		}
	}
	view.SetText(content.String())
	return view
}

// createLiveView lists matches in play
func createLiveView(sess *session.Session) *tview.TextView {
	view := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	view.SetBorder(true).SetTitle(" Live ")

	live := query.Matches(sess.Matches(), query.MatchFilter{Status: query.StatusLive}, query.Sort{Column: query.ColTime}, 1, 50, nil)
	if live.Total == 0 {
		view.SetText("[#AAAAAA]No live matches[white]")
		return view
	}

	ix := sess.WatchIndex()
	var content strings.Builder
	for _, m := range live.Items {
		star := " "
		if ix.Has(m.MatchID) {
			star = "[#FFFF00]★[white]"
		}
		fmt.Fprintf(&content, "%s [#FF0000]%s'[white] [::b]%s[:-] [#00FF00]%s[white]\n",
			star, orDash(m.CurrentMinute), tview.Escape(m.Display()), m.Score())
	}
	view.SetText(content.String())
	return view
}

// createSummaryView shows recommendation performance
func createSummaryView(sum stats.Summary) *tview.TextView {
	view := tview.NewTextView().SetDynamicColors(true)
	view.SetBorder(true).SetTitle(" Performance ")

	var content strings.Builder
	fmt.Fprintf(&content, "[::b]Settled:[:-]  %d [#AAAAAA](%d pending)[white]\n", sum.Settled, sum.Pending)
	fmt.Fprintf(&content, "[::b]Won/Lost:[:-] [#00FF00]%d[white] / [#FF5555]%d[white]\n", sum.Won, sum.Lost)
	fmt.Fprintf(&content, "[::b]Win rate:[:-] [#FFFF00]%s[white]\n", util.FormatPercent(sum.WinRate))
	fmt.Fprintf(&content, "[::b]P&L:[:-]      %s%s[white]\n", util.Tag(util.PnLColor(sum.PnL)), util.FormatPnL(sum.PnL))
	fmt.Fprintf(&content, "[::b]Staked:[:-]   %s\n", util.FormatMoney(sum.Staked))
	fmt.Fprintf(&content, "[::b]ROI:[:-]      %s%s[white]", util.Tag(util.PnLColor(sum.ROI)), util.FormatPercent(sum.ROI))
	view.SetText(content.String())
	return view
}

// createRecentView lists the latest recommendations
func createRecentView(recent []model.Recommendation) *tview.TextView {
	view := tview.NewTextView().SetDynamicColors(true)
	view.SetBorder(true).SetTitle(" Recent Recommendations ")

	if len(recent) == 0 {
		view.SetText("[#AAAAAA]No recommendations yet[white]")
		return view
	}

	var content strings.Builder
	for _, r := range recent {
		result := r.Result.Normalized()
		fmt.Fprintf(&content, "%s%-7s[white] [::b]%s[:-]\n        [#AAAAAA]%s: %s @ %s[white]\n",
			util.Tag(util.ResultColor(result)), strings.ToUpper(string(result)),
			tview.Escape(r.MatchDisplay), tview.Escape(r.BetType), tview.Escape(r.Selection), orDash(r.Odds))
	}
	view.SetText(content.String())
	return view
}

// createLeagueChartView draws a bar per league by number of matches
func createLeagueChartView(sess *session.Session) *tview.TextView {
	view := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	view.SetBorder(true).SetTitle(" Matches by League ")

	leagues := sess.Leagues()
	facets := query.MarkApproved(query.LeagueFacets(sess.Matches(), leagues.Label), leagues.Approved, false)
	if len(facets) == 0 {
		view.SetText("[#AAAAAA]No matches[white]")
		return view
	}

	const barWidth = 20
	top := facets[0].Count
	var content strings.Builder
	for _, f := range facets {
		n := f.Count * barWidth / top
		if n == 0 {
			n = 1
		}
		name := "[#AAAAAA]" + tview.Escape(util.Pad(f.Name, 26)) + "[white]"
		if f.Approved {
			name = tview.Escape(util.Pad(f.Name, 26))
		}
		fmt.Fprintf(&content, "%s [#00FFFF]%s[white] %d\n", name, strings.Repeat("█", n), f.Count)
	}
	view.SetText(content.String())
	return view
}

// --- modals ---

func (d *dashboard) openModal(name string, p tview.Primitive, width, height int) {
	d.modal = name
	d.pages.AddPage(name, center(p, width, height), true, true)
	d.app.SetFocus(p)
}

func (d *dashboard) closeModal() {
	if d.modal == "" {
		return
	}
	d.pages.RemovePage(d.modal)
	d.modal = ""
	d.switchTab(d.state.tab)
}

func center(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

// showText opens a scrollable popup closed by Esc, Enter or q
func (d *dashboard) showText(title, text string) {
	view := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetText(text)
	view.SetBorder(true).SetTitle(title)
	view.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Key() == tcell.KeyEnter || event.Rune() == 'q' {
			d.closeModal()
			return nil
		}
		return event
	})
	d.openModal("text", view, 72, 22)
}

// showMatch opens the match detail popup with its prediction
func (d *dashboard) showMatch(id model.MatchID) {
	sess := d.coord.Session()
	m, ok := sess.Match(id)
	if !ok {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[::b]%s[:-]\n", tview.Escape(m.Display()))
	fmt.Fprintf(&b, "[#AAAAAA]%s │ %s │ %s[white]\n",
		tview.Escape(sess.Leagues().Label(m.LeagueID.String(), m.LeagueName)),
		query.FormatKickoff(m.Date.String(), m.Kickoff.String(), time.Local),
		model.StatusLabel(m.Status))
	if sc := m.Score(); sc != "" {
		fmt.Fprintf(&b, "Score: [#00FF00]%s[white]\n", sc)
	}
	if w, ok := sess.WatchItem(id); ok {
		fmt.Fprintf(&b, "\n[#FFFF00]Watching[white] mode %s, priority %d\n", w.Mode, w.Priority)
		if w.CustomConditions != "" {
			fmt.Fprintf(&b, "Conditions: %s\n", tview.Escape(w.CustomConditions))
		}
		if w.RecommendedCustomCondition != "" {
			fmt.Fprintf(&b, "Recommended: [#00FF00]%s[white]\n", tview.Escape(w.RecommendedCustomCondition))
		}
	}
	b.WriteString("\n")

	p, err := model.ParsePrediction(m.Prediction)
	switch {
	case err != nil:
		fmt.Fprintf(&b, "[#FFFF00]Prediction unreadable: %s[white]\n", tview.Escape(err.Error()))
	case p == nil:
		b.WriteString("[#AAAAAA]No prediction[white]\n")
	default:
		b.WriteString(tview.TranslateANSI(formatPrediction(p)))
	}
	d.showText(fmt.Sprintf(" Match %s ", id), b.String())
}

// openEditor opens the watch editor: mode, priority and the condition rows
func (d *dashboard) openEditor(id model.MatchID) {
	item, ok := d.coord.Session().WatchItem(id)
	if !ok {
		d.setStatus("[#FF5555]Not in watchlist[white]")
		return
	}
	b, err := condition.NewBuilder(item.CustomConditions)
	if err != nil {
		d.setStatus("[#FF5555]" + tview.Escape(err.Error()) + "[white]")
		return
	}

	form := tview.NewForm()
	form.SetBorder(true).SetTitle(fmt.Sprintf(" Edit %s ", item.Display()))
	form.SetCancelFunc(d.closeModal)

	var rebuild func()
	rebuild = func() {
		form.Clear(true)
		modes := []string{string(model.ModeA), string(model.ModeB), string(model.ModeC)}
		form.AddDropDown("Mode", modes, indexOf(modes, string(item.Mode)), func(option string, _ int) {
			item.Mode = model.Mode(option)
		})
		prios := []string{"1", "2", "3"}
		prio := int(item.Priority) - 1
		if !item.Priority.Valid() {
			prio = 1
		}
		form.AddDropDown("Priority", prios, prio, func(_ string, i int) {
			item.Priority = model.Priority(i + 1)
		})

		clauses := b.Clauses()
		ops := []string{string(condition.And), string(condition.Or)}
		for i, cl := range clauses {
			if i > 0 {
				form.AddDropDown("", ops, indexOf(ops, string(clauses[i-1].Op)), func(option string, _ int) {
					op, _ := condition.ParseOperator(option)
					_ = b.SetOp(i, op)
				})
			}
			if cl.Verbatim {
				form.AddTextView(fmt.Sprintf("Condition %d", i+1), tview.Escape(cl.Text), 48, 2, true, false)
				continue
			}
			form.AddInputField(fmt.Sprintf("Condition %d", i+1), cl.Text, 48, nil, func(text string) {
				if err := b.Set(i, text); err != nil {
					d.setStatus("[#FF5555]" + tview.Escape(err.Error()) + "[white]")
				}
			})
		}
		if item.RecommendedCustomCondition != "" {
			form.AddTextView("Recommended", tview.Escape(item.RecommendedCustomCondition), 48, 2, true, false)
		}

		form.AddButton("+ Row", func() {
			if err := b.Add("", condition.And); err != nil {
				d.setStatus("[#FF5555]" + tview.Escape(err.Error()) + "[white]")
				return
			}
			rebuild()
		})
		form.AddButton("- Row", func() {
			if b.Len() > 0 {
				_ = b.Remove(b.Len() - 1)
				rebuild()
			}
		})
		form.AddButton("Recommended", func() {
			changed, err := b.ApplyRecommended(item.RecommendedCustomCondition)
			switch {
			case errors.Is(err, condition.ErrNoRecommendation):
				d.setStatus("[#FF5555]No recommended condition for this match[white]")
			case err != nil:
				d.setStatus("[#FF5555]" + tview.Escape(err.Error()) + "[white]")
			case !changed:
				d.setStatus("[#00FFFF]Recommended condition already applied[white]")
			default:
				rebuild()
			}
		})
		form.AddButton("Save", func() {
			item.CustomConditions = b.String()
			d.closeModal()
			saved := item
			d.spawn(func(ctx context.Context) { _ = d.coord.Update(ctx, saved) })
		})
		form.AddButton("Cancel", d.closeModal)

		// two lines per form item, plus buttons and border
		d.openModal("editor", form, 76, min(4*b.Len()+12, 48))
	}
	rebuild()
}

func indexOf(options []string, v string) int {
	for i, o := range options {
		if o == v {
			return i
		}
	}
	return 0
}

// debouncer runs only the last function triggered within its delay
type debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay}
}

// Trigger schedules fn, replacing any function still waiting
func (db *debouncer) Trigger(fn func()) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.timer != nil {
		db.timer.Stop()
	}
	db.timer = time.AfterFunc(db.delay, fn)
}

// Cancel drops the waiting function
func (db *debouncer) Cancel() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}
}
