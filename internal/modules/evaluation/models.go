// Package evaluation runs policies through the trading environment and
// summarises each episode with return and risk metrics.
package evaluation

import (
	"github.com/aristath/kalshigym/internal/rollout"
)

// EpisodeResult summarises one completed episode
type EpisodeResult struct {
	Strategy         string         `json:"strategy"`
	FinalValue       float64        `json:"final_value"`
	PnL              float64        `json:"pnl"`
	ReturnPct        float64        `json:"return_pct"`
	NumTrades        int            `json:"num_trades"`
	WinRate          float64        `json:"win_rate"`
	TotalReward      float64        `json:"total_reward"`
	Steps            int            `json:"steps"`
	Terminated       bool           `json:"terminated"`
	Truncated        bool           `json:"truncated"`
	PortfolioHistory []float64      `json:"portfolio_history"`
	ActionCounts     map[string]int `json:"action_counts"`
	Sharpe           float64        `json:"sharpe"`
	MaxDrawdown      float64        `json:"max_drawdown"` // positive fraction below the running peak
}

// ActionShare returns the fraction of steps that chose the named decision
func (r EpisodeResult) ActionShare(decision string) float64 {
	if r.Steps == 0 {
		return 0
	}
	return float64(r.ActionCounts[decision]) / float64(r.Steps)
}

// Recorder receives every transition of an episode
type Recorder interface {
	Record(t rollout.Transition) error
}
