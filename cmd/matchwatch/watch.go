package matchwatch

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vasylcode/matchwatch/internal/condition"
	"github.com/vasylcode/matchwatch/internal/model"
	"github.com/vasylcode/matchwatch/internal/query"
	"github.com/vasylcode/matchwatch/internal/session"
	"github.com/vasylcode/matchwatch/internal/util"
)

var (
	watchSearch   string
	watchLeague   string
	watchFrom     string
	watchTo       string
	watchSort     string
	watchDesc     bool
	watchPage     int
	watchMode     string
	watchPriority int
	watchCond     string
	watchStatus   string
)

func init() {
	// Watch command
	watchCmd := &cobra.Command{
		Use:     "watch",
		Aliases: []string{"w"},
		Short:   "Manage the watchlist",
		Long:    `Add, delete, update, and list watched matches.`,
		Args:    cobra.NoArgs,
		Run:     listWatchlist,
	}

	// Add subcommand
	addWatchCmd := &cobra.Command{
		Use:   "add [match-id...]",
		Short: "Add matches to the watchlist",
		Long:  `Add one or more matches to the watchlist. Matches already watched are skipped when several are given.`,
		Args:  cobra.MinimumNArgs(1),
		Run:   addWatch,
	}

	// Delete subcommand
	delWatchCmd := &cobra.Command{
		Use:   "del [match-id...]",
		Short: "Delete matches from the watchlist",
		Args:  cobra.MinimumNArgs(1),
		Run:   deleteWatch,
	}

	// Update subcommand
	updWatchCmd := &cobra.Command{
		Use:   "upd [match-id]",
		Short: "Update a watched match",
		Long:  `Update the mode, priority, custom conditions or status of a watched match.`,
		Args:  cobra.ExactArgs(1),
		Run:   updateWatch,
	}

	// Apply subcommand
	applyWatchCmd := &cobra.Command{
		Use:   "apply [match-id]",
		Short: "Apply the recommended condition to a watched match",
		Args:  cobra.ExactArgs(1),
		Run:   applyRecommended,
	}

	watchCmd.Flags().StringVarP(&watchSearch, "search", "s", "", "Search teams or league")
	watchCmd.Flags().StringVarP(&watchLeague, "league", "l", "", "League id")
	watchCmd.Flags().StringVar(&watchFrom, "from", "", "First date, YYYY-MM-DD")
	watchCmd.Flags().StringVar(&watchTo, "to", "", "Last date, YYYY-MM-DD")
	watchCmd.Flags().StringVar(&watchSort, "sort", query.ColKickoff, "Sort column: kickoff, match, league, mode, priority or status")
	watchCmd.Flags().BoolVar(&watchDesc, "desc", false, "Sort descending")
	watchCmd.Flags().IntVarP(&watchPage, "page", "p", 1, "Page number")

	addWatchCmd.Flags().StringVarP(&watchMode, "mode", "m", "", "Watch mode A, B or C (default from settings)")
	addWatchCmd.Flags().IntVarP(&watchPriority, "priority", "r", 0, "Priority 1 (high) to 3 (low) (default from config)")
	addWatchCmd.Flags().StringVarP(&watchCond, "cond", "c", "", "Custom conditions, e.g. \"(xG > 1.5) AND (Corners > 8)\"")

	updWatchCmd.Flags().StringVarP(&watchMode, "mode", "m", "", "Watch mode A, B or C")
	updWatchCmd.Flags().IntVarP(&watchPriority, "priority", "r", 0, "Priority 1 (high) to 3 (low)")
	updWatchCmd.Flags().StringVarP(&watchCond, "cond", "c", "", "Custom conditions; an empty value clears them")
	updWatchCmd.Flags().StringVar(&watchStatus, "status", "", "active or pending")

	watchCmd.AddCommand(addWatchCmd)
	watchCmd.AddCommand(delWatchCmd)
	watchCmd.AddCommand(updWatchCmd)
	watchCmd.AddCommand(applyWatchCmd)

	rootCmd.AddCommand(watchCmd)
}

func listWatchlist(cmd *cobra.Command, args []string) {
	s := requireLogin()
	if query.WatchlistCompare(watchSort) == nil {
		er(fmt.Sprintf("unknown sort column '%s'", watchSort))
	}

	c := newCoordinator(s, session.WithNotifier(cliNotifier()))
	ctx := cmd.Context()
	mustLoad(ctx, c, c.ReloadMatches, c.ReloadWatchlist)

	sess := c.Session()
	order := query.Asc
	if watchDesc {
		order = query.Desc
	}
	filter := query.WatchlistFilter{Search: watchSearch, LeagueID: watchLeague, From: watchFrom, To: watchTo}
	page := query.Watchlist(sess.Watchlist(), filter, query.Sort{Column: watchSort, Order: order}, watchPage, cfg.Query.PageSize, sess.MatchIndex())

	if page.Total == 0 {
		fmt.Println("Watchlist is empty")
		return
	}
	for _, w := range page.Items {
		printWatchItem(w)
	}
	color.New(color.FgHiBlack).Printf("Page %d/%d (%d watched)\n", page.Page, page.Pages, page.Total)
}

func printWatchItem(w model.WatchlistItem) {
	mode := util.GetTerminalColor(util.ModeColor(w.Mode), color.FgWhite).Sprintf("[%s]", w.Mode)
	pending := ""
	if w.Status == model.WatchPending {
		pending = color.New(color.FgYellow).Sprint(" (saving)")
	}
	fmt.Printf("%s %s %s %s %s P%d%s\n",
		color.New(color.FgHiBlack).Sprintf("%-8s", w.MatchID),
		color.New(color.FgHiBlack).Sprint(query.FormatKickoff(w.Date.String(), w.Kickoff.String(), time.Local)),
		color.New(color.FgCyan).Sprint(util.Pad(w.LeagueLabel(), 28)),
		color.New(color.Bold).Sprint(w.Display()),
		mode,
		w.Priority,
		pending)
	if w.CustomConditions != "" {
		fmt.Printf("    %s\n", color.New(color.FgYellow).Sprint(w.CustomConditions))
	}
}

// printWatchDetails shows the watch settings and the AI recommendation
func printWatchDetails(w model.WatchlistItem) {
	fmt.Printf("  Watching: mode %s, priority %d\n",
		util.GetTerminalColor(util.ModeColor(w.Mode), color.FgWhite).Sprint(w.Mode), w.Priority)
	if w.CustomConditions != "" {
		fmt.Printf("  Conditions: %s\n", color.New(color.FgYellow).Sprint(w.CustomConditions))
	}
	if w.RecommendedCustomCondition != "" {
		fmt.Printf("  Recommended: %s\n", color.New(color.FgGreen).Sprint(w.RecommendedCustomCondition))
		if w.RecommendedConditionReasonVi != "" {
			fmt.Printf("    %s\n", color.New(color.FgHiBlack).Sprint(w.RecommendedConditionReasonVi))
		}
	}
}

// normalizeConditions validates a condition expression and returns its
// canonical form. Expressions that do not split into clauses come back as
// given.
func normalizeConditions(expr string) (string, error) {
	b, err := condition.NewBuilder(expr)
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func addWatch(cmd *cobra.Command, args []string) {
	s := requireLogin()

	var mode model.Mode
	if cmd.Flags().Changed("mode") {
		m, err := model.ParseMode(watchMode)
		if err != nil {
			er(err)
		}
		mode = m
	}
	priority := model.Priority(watchPriority)
	if cmd.Flags().Changed("priority") && !priority.Valid() {
		er(fmt.Sprintf("invalid priority %d (use 1, 2 or 3)", watchPriority))
	}
	cond, err := normalizeConditions(watchCond)
	if err != nil {
		er(fmt.Sprintf("Invalid conditions: %v", err))
	}

	c := newCoordinator(s, session.WithNotifier(cliNotifier()))
	ctx := cmd.Context()
	mustLoad(ctx, c, c.ReloadMatches, c.ReloadWatchlist)

	sess := c.Session()
	items := make([]model.WatchlistItem, 0, len(args))
	for _, raw := range args {
		id := model.NormalizeID(raw)
		m, ok := sess.Match(id)
		if !ok {
			er(fmt.Sprintf("Match '%s' not found", id))
		}
		item := model.WatchlistFromMatch(m, mode, priority)
		item.CustomConditions = cond
		items = append(items, item)
	}

	if len(items) == 1 {
		err = c.Add(ctx, items[0])
		if errors.Is(err, session.ErrAlreadyWatched) {
			return
		}
	} else {
		err = c.AddBulk(ctx, items)
	}
	exitOn(err)
}

func deleteWatch(cmd *cobra.Command, args []string) {
	s := requireLogin()
	c := newCoordinator(s, session.WithNotifier(cliNotifier()))
	ctx := cmd.Context()
	mustLoad(ctx, c, c.ReloadWatchlist)

	ids := make([]model.MatchID, len(args))
	for i, raw := range args {
		ids[i] = model.NormalizeID(raw)
	}
	exitOn(c.RemoveBulk(ctx, ids))
}

func updateWatch(cmd *cobra.Command, args []string) {
	s := requireLogin()
	c := newCoordinator(s, session.WithNotifier(cliNotifier()))
	ctx := cmd.Context()
	mustLoad(ctx, c, c.ReloadWatchlist)

	id := model.NormalizeID(args[0])
	item, ok := c.Session().WatchItem(id)
	if !ok {
		er(fmt.Sprintf("Match '%s' is not in the watchlist", id))
	}

	// Update only the fields that were provided
	if cmd.Flags().Changed("mode") {
		m, err := model.ParseMode(watchMode)
		if err != nil {
			er(err)
		}
		item.Mode = m
	}
	if cmd.Flags().Changed("priority") {
		item.Priority = model.Priority(watchPriority)
	}
	if cmd.Flags().Changed("cond") {
		cond, err := normalizeConditions(watchCond)
		if err != nil {
			er(fmt.Sprintf("Invalid conditions: %v", err))
		}
		item.CustomConditions = cond
	}
	if cmd.Flags().Changed("status") {
		item.Status = model.WatchStatus(watchStatus)
	}

	exitOn(c.Update(ctx, item))
}

func applyRecommended(cmd *cobra.Command, args []string) {
	s := requireLogin()
	c := newCoordinator(s, session.WithNotifier(cliNotifier()))
	ctx := cmd.Context()
	mustLoad(ctx, c, c.ReloadWatchlist)

	id := model.NormalizeID(args[0])
	item, ok := c.Session().WatchItem(id)
	if !ok {
		er(fmt.Sprintf("Match '%s' is not in the watchlist", id))
	}

	b, err := condition.NewBuilder(item.CustomConditions)
	if err != nil {
		er(fmt.Sprintf("Current conditions cannot be edited: %v", err))
	}
	changed, err := b.ApplyRecommended(item.RecommendedCustomCondition)
	if errors.Is(err, condition.ErrNoRecommendation) {
		er("No recommended condition for this match")
	}
	if err != nil {
		er(fmt.Sprintf("Failed to apply recommended condition: %v", err))
	}
	if !changed {
		fmt.Println("Recommended condition already applied")
		return
	}

	item.CustomConditions = b.String()
	fmt.Printf("Conditions: %s\n", color.New(color.FgYellow).Sprint(item.CustomConditions))
	exitOn(c.Update(ctx, item))
}
