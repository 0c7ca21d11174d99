// Package stats aggregates recommendation outcomes for the dashboard.
package stats

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vasylcode/matchwatch/internal/model"
)

// RecentCount is the number of recommendations shown as recent
const RecentCount = 5

// Summary is the dashboard view of recommendation performance
type Summary struct {
	Total   int
	Pending int
	Won     int
	Lost    int
	Settled int
	// WinRate is Won/Settled as a percentage; zero when nothing settled.
	WinRate decimal.Decimal
	PnL     decimal.Decimal
	Staked  decimal.Decimal
	// ROI is PnL/Staked as a percentage; zero when nothing staked.
	ROI    decimal.Decimal
	Recent []model.Recommendation
}

// Summarize computes a Summary over recs in server order
func Summarize(recs []model.Recommendation) Summary {
	s := Summary{Total: len(recs)}
	hundred := decimal.NewFromInt(100)

	for _, r := range recs {
		switch r.Result.Normalized() {
		case model.ResultWon:
			s.Won++
		case model.ResultLost:
			s.Lost++
		case model.ResultPending:
			s.Pending++
		}
		s.PnL = s.PnL.Add(Amount(r.PnL))
		s.Staked = s.Staked.Add(Amount(r.StakeAmount))
	}

	s.Settled = s.Won + s.Lost
	if s.Settled > 0 {
		s.WinRate = decimal.NewFromInt(int64(s.Won)).Mul(hundred).Div(decimal.NewFromInt(int64(s.Settled)))
	}
	if s.Staked.IsPositive() {
		s.ROI = s.PnL.Mul(hundred).Div(s.Staked)
	}

	n := min(RecentCount, len(recs))
	s.Recent = make([]model.Recommendation, n)
	copy(s.Recent, recs[:n])
	return s
}

// Amount parses a money cell. Currency symbols, thousands separators and
// blanks are tolerated; anything unreadable counts as zero.
func Amount(f model.Flex) decimal.Decimal {
	s := strings.TrimSpace(f.String())
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
