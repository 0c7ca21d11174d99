package matchwatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vasylcode/matchwatch/internal/model"
	"github.com/vasylcode/matchwatch/internal/query"
	"github.com/vasylcode/matchwatch/internal/session"
	"github.com/vasylcode/matchwatch/internal/util"
)

var (
	matchSearch  string
	matchStatus  string
	matchLeague  string
	matchFrom    string
	matchTo      string
	matchWatched string
	matchSort    string
	matchDesc    bool
	matchPage    int

	leaguesApproved bool
)

func init() {
	// Match command
	matchCmd := &cobra.Command{
		Use:     "match",
		Aliases: []string{"m"},
		Short:   "List matches",
		Long:    `List matches with search, status, league, date range and watchlist filters.`,
		Args:    cobra.NoArgs,
		Run:     listMatches,
	}

	// Show subcommand
	showMatchCmd := &cobra.Command{
		Use:   "show [match-id]",
		Short: "Show a match and its prediction",
		Args:  cobra.ExactArgs(1),
		Run:   showMatch,
	}

	// Leagues subcommand
	leaguesCmd := &cobra.Command{
		Use:   "leagues",
		Short: "List leagues with their match counts",
		Args:  cobra.NoArgs,
		Run:   listLeagues,
	}

	matchCmd.Flags().StringVarP(&matchSearch, "search", "s", "", "Search home team, away team or league")
	matchCmd.Flags().StringVar(&matchStatus, "status", "", "Status code (NS, FT, ...) or LIVE for every in-play status")
	matchCmd.Flags().StringVarP(&matchLeague, "league", "l", "", "League id")
	matchCmd.Flags().StringVar(&matchFrom, "from", "", "First date, YYYY-MM-DD")
	matchCmd.Flags().StringVar(&matchTo, "to", "", "Last date, YYYY-MM-DD")
	matchCmd.Flags().StringVarP(&matchWatched, "watched", "w", "", "watched or not-watched")
	matchCmd.Flags().StringVar(&matchSort, "sort", query.ColTime, "Sort column: time, league, status or action")
	matchCmd.Flags().BoolVar(&matchDesc, "desc", false, "Sort descending")
	matchCmd.Flags().IntVarP(&matchPage, "page", "p", 1, "Page number")

	leaguesCmd.Flags().BoolVarP(&leaguesApproved, "approved", "a", false, "Only approved leagues")

	matchCmd.AddCommand(showMatchCmd)
	matchCmd.AddCommand(leaguesCmd)

	rootCmd.AddCommand(matchCmd)
}

func listMatches(cmd *cobra.Command, args []string) {
	s := requireLogin()
	if query.MatchCompare(matchSort, nil) == nil {
		er(fmt.Sprintf("unknown sort column '%s' (use time, league, status or action)", matchSort))
	}

	c := newCoordinator(s, session.WithNotifier(cliNotifier()))
	ctx := cmd.Context()
	mustLoad(ctx, c, c.ReloadMatches, c.ReloadWatchlist)

	sess := c.Session()
	ix := sess.WatchIndex()
	filter := query.MatchFilter{
		Search:   matchSearch,
		Status:   matchStatus,
		LeagueID: matchLeague,
		From:     matchFrom,
		To:       matchTo,
		Watch:    query.ParseWatchFilter(matchWatched),
	}
	order := query.Asc
	if matchDesc {
		order = query.Desc
	}
	page := query.Matches(sess.Matches(), filter, query.Sort{Column: matchSort, Order: order}, matchPage, cfg.Query.PageSize, ix)

	if page.Total == 0 {
		fmt.Println("No matches found")
		return
	}

	leagues := sess.Leagues()
	for _, m := range page.Items {
		printMatch(m, leagues.Label(m.LeagueID.String(), m.LeagueName), ix.Has(m.MatchID))
	}
	color.New(color.FgHiBlack).Printf("Page %d/%d (%d matches)\n", page.Page, page.Pages, page.Total)
}

func printMatch(m model.Match, league string, watched bool) {
	star := " "
	if watched {
		star = color.New(color.FgYellow).Sprint("★")
	}
	kickoff := color.New(color.FgHiBlack).Sprint(query.FormatKickoff(m.Date.String(), m.Kickoff.String(), time.Local))
	status := util.GetTerminalColor(util.StatusColor(m.Status), color.FgWhite).Sprint(model.StatusLabel(m.Status))

	score := ""
	if sc := m.Score(); sc != "" {
		score = color.New(color.Bold).Sprintf(" %s", sc)
		if minute := m.CurrentMinute.String(); minute != "" && model.IsLive(m.Status) {
			score += color.New(color.FgHiRed).Sprintf(" %s'", minute)
		}
	}

	fmt.Printf("%s %s %s %s %s %s%s\n",
		star,
		color.New(color.FgHiBlack).Sprintf("%-8s", m.MatchID),
		kickoff,
		color.New(color.FgCyan).Sprint(util.Pad(league, 28)),
		color.New(color.Bold).Sprint(m.Display()),
		status,
		score)
}

func showMatch(cmd *cobra.Command, args []string) {
	s := requireLogin()
	c := newCoordinator(s, session.WithNotifier(cliNotifier()))
	ctx := cmd.Context()
	mustLoad(ctx, c, c.ReloadMatches, c.ReloadWatchlist)

	sess := c.Session()
	id := model.NormalizeID(args[0])
	m, ok := sess.Match(id)
	if !ok {
		er(fmt.Sprintf("Match '%s' not found", id))
		return
	}

	printMatch(m, sess.Leagues().Label(m.LeagueID.String(), m.LeagueName), sess.WatchIndex().Has(id))
	if w, ok := sess.WatchItem(id); ok {
		printWatchDetails(w)
	}

	p, err := model.ParsePrediction(m.Prediction)
	if err != nil {
		color.New(color.FgYellow).Printf("  Prediction unreadable: %v\n", err)
		return
	}
	if p == nil {
		color.New(color.FgHiBlack).Println("  No prediction")
		return
	}
	fmt.Print(formatPrediction(p))
}

// formatPrediction renders the prediction summary shown under a match
func formatPrediction(p *model.Prediction) string {
	var b strings.Builder
	bold := color.New(color.Bold)
	gray := color.New(color.FgHiBlack)

	pr := p.Predictions
	b.WriteString("  Prediction:\n")
	if pr.Winner.Name != "" {
		fmt.Fprintf(&b, "    Winner: %s", bold.Sprint(pr.Winner.Name))
		if pr.Winner.Comment != "" {
			b.WriteString(gray.Sprintf(" (%s)", pr.Winner.Comment))
		}
		b.WriteString("\n")
	}
	if pr.Percent.Home != "" || pr.Percent.Draw != "" || pr.Percent.Away != "" {
		fmt.Fprintf(&b, "    Home %s  Draw %s  Away %s\n",
			color.New(color.FgGreen).Sprint(orDash(pr.Percent.Home)),
			color.New(color.FgYellow).Sprint(orDash(pr.Percent.Draw)),
			color.New(color.FgCyan).Sprint(orDash(pr.Percent.Away)))
	}
	if pr.Advice != "" {
		fmt.Fprintf(&b, "    Advice: %s\n", pr.Advice)
	}
	if pr.UnderOver != "" {
		fmt.Fprintf(&b, "    Under/Over: %s\n", pr.UnderOver)
	}
	if pr.Goals.Home != "" || pr.Goals.Away != "" {
		fmt.Fprintf(&b, "    Goals: %s / %s\n", orDash(pr.Goals.Home), orDash(pr.Goals.Away))
	}

	if len(p.Comparison) > 0 {
		b.WriteString("  Comparison:\n")
		for _, key := range model.ComparisonKeys {
			side, ok := p.Comparison[key]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "    %s %8s %8s\n", gray.Sprintf("%-6s", key), orDash(side.Home), orDash(side.Away))
		}
	}
	return b.String()
}

func orDash(f model.Flex) string {
	if f == "" {
		return "-"
	}
	return f.String()
}

func listLeagues(cmd *cobra.Command, args []string) {
	s := requireLogin()
	c := newCoordinator(s, session.WithNotifier(cliNotifier()))
	ctx := cmd.Context()
	mustLoad(ctx, c, c.ReloadMatches)

	sess := c.Session()
	leagues := sess.Leagues()
	facets := query.MarkApproved(query.LeagueFacets(sess.Matches(), leagues.Label), leagues.Approved, leaguesApproved)
	if len(facets) == 0 {
		fmt.Println("No leagues found")
		return
	}
	for _, f := range facets {
		mark := " "
		if f.Approved {
			mark = color.New(color.FgGreen).Sprint("✓")
		}
		fmt.Printf("%s %s %s %s\n",
			color.New(color.FgHiBlack).Sprintf("%-8s", f.LeagueID),
			mark,
			color.New(color.FgCyan).Sprint(util.Pad(f.Name, 36)),
			color.New(color.Bold).Sprintf("%d", f.Count))
	}
}
