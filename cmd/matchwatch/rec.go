package matchwatch

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vasylcode/matchwatch/internal/model"
	"github.com/vasylcode/matchwatch/internal/query"
	"github.com/vasylcode/matchwatch/internal/session"
	"github.com/vasylcode/matchwatch/internal/stats"
	"github.com/vasylcode/matchwatch/internal/util"
)

var (
	recPage    int
	recSummary bool
)

func init() {
	recCmd := &cobra.Command{
		Use:     "rec",
		Aliases: []string{"r"},
		Short:   "List bet recommendations",
		Long:    `List AI bet recommendations with their results, followed by win rate, P&L and ROI.`,
		Args:    cobra.NoArgs,
		Run:     listRecommendations,
	}

	recCmd.Flags().IntVarP(&recPage, "page", "p", 1, "Page number")
	recCmd.Flags().BoolVar(&recSummary, "summary", false, "Show only the summary")

	rootCmd.AddCommand(recCmd)
}

func listRecommendations(cmd *cobra.Command, args []string) {
	s := requireLogin()
	c := newCoordinator(s, session.WithNotifier(cliNotifier()))
	ctx := cmd.Context()
	mustLoad(ctx, c, c.ReloadRecommendations)

	recs := c.Session().Recommendations()
	if len(recs) == 0 {
		fmt.Println("No recommendations found")
		return
	}

	if !recSummary {
		page := query.Recommendations(recs, recPage, cfg.Query.PageSize)
		for _, r := range page.Items {
			printRecommendation(r)
		}
		color.New(color.FgHiBlack).Printf("Page %d/%d (%d recommendations)\n\n", page.Page, page.Pages, page.Total)
	}

	printSummary(stats.Summarize(recs))
}

func printRecommendation(r model.Recommendation) {
	result := r.Result.Normalized()
	resultStr := util.GetTerminalColor(util.ResultColor(result), color.FgYellow).Sprintf("%-7s", result)

	pnl := stats.Amount(r.PnL)
	pnlStr := ""
	if r.PnL != "" {
		pnlStr = util.GetTerminalColor(util.PnLColor(pnl), color.FgWhite).Sprintf(" %s", util.FormatPnL(pnl))
	}

	conf := ""
	if r.Confidence != "" {
		conf = color.New(color.FgHiBlack).Sprintf(" conf %s", r.Confidence)
	}

	fmt.Printf("%s %s %s %s @ %s%s %s%s\n",
		color.New(color.FgHiBlack).Sprintf("[%s]", r.CreatedAt),
		color.New(color.Bold).Sprint(r.MatchDisplay),
		color.New(color.FgCyan).Sprintf("%s: %s", r.BetType, r.Selection),
		color.New(color.FgHiBlack).Sprint("stake "+util.FormatMoney(stats.Amount(r.StakeAmount))),
		orDash(r.Odds),
		conf,
		resultStr,
		pnlStr)
}

func printSummary(sum stats.Summary) {
	bold := color.New(color.Bold)
	fmt.Println(bold.Sprint("Summary:"))
	fmt.Printf("  Total: %d  Pending: %s  Won: %s  Lost: %s\n",
		sum.Total,
		color.New(color.FgYellow).Sprint(sum.Pending),
		color.New(color.FgGreen).Sprint(sum.Won),
		color.New(color.FgRed).Sprint(sum.Lost))
	fmt.Printf("  Win rate: %s (%d settled)\n", bold.Sprint(util.FormatPercent(sum.WinRate)), sum.Settled)
	fmt.Printf("  P&L: %s  Staked: %s  ROI: %s\n",
		util.GetTerminalColor(util.PnLColor(sum.PnL), color.FgWhite).Sprint(util.FormatPnL(sum.PnL)),
		util.FormatMoney(sum.Staked),
		util.GetTerminalColor(util.PnLColor(sum.ROI), color.FgWhite).Sprint(util.FormatPercent(sum.ROI)))
}
