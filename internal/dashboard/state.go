// Package dashboard owns the persisted monitoring state shown by the dashboard
// API: portfolio summary, trade log, value history, latest decision and markets.
package dashboard

import "time"

// DefaultBalance seeds a fresh state
const DefaultBalance = 10000.0

// DefaultRecentTrades is how many trades the trades endpoint returns
const DefaultRecentTrades = 20

// Portfolio is the latest account summary
type Portfolio struct {
	Balance     float64 `json:"balance"`
	PnL         float64 `json:"pnl"`
	TotalTrades int     `json:"total_trades"`
	WinRate     float64 `json:"win_rate"`
}

// Trade is one executed order as shown on the dashboard
type Trade struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Ticker    string    `json:"ticker"`
	Side      string    `json:"side"`
	Action    string    `json:"action"`
	Size      int       `json:"size"`
	Price     float64   `json:"price"`
	Cost      float64   `json:"cost"`
}

// PortfolioPoint is one value-history sample
type PortfolioPoint struct {
	Step  int     `json:"step"`
	Value float64 `json:"value"`
}

// Decision is the most recent agent decision
type Decision struct {
	Action    string    `json:"action"`
	Size      int       `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

// Market is a quoted binary contract
type Market struct {
	Ticker    string    `json:"ticker"`
	Strike    float64   `json:"strike"`
	YesBid    float64   `json:"yes_bid"`
	YesAsk    float64   `json:"yes_ask"`
	CloseTime time.Time `json:"close_time"`
}

// State is the full dashboard state
type State struct {
	Portfolio        Portfolio        `json:"portfolio"`
	Trades           []Trade          `json:"trades"`
	PortfolioHistory []PortfolioPoint `json:"portfolio_history"`
	LatestDecision   *Decision        `json:"latest_decision"`
	Markets          []Market         `json:"markets"`
}

// NewState returns an empty state with the default balance
func NewState() *State {
	return &State{
		Portfolio:        Portfolio{Balance: DefaultBalance},
		Trades:           []Trade{},
		PortfolioHistory: []PortfolioPoint{},
		Markets:          []Market{},
	}
}

// Update is a partial change; nil fields are left untouched.
// A non-nil Markets slice replaces the market list.
type Update struct {
	Portfolio      *Portfolio      `json:"portfolio,omitempty"`
	Trade          *Trade          `json:"trade,omitempty"`
	PortfolioValue *PortfolioPoint `json:"portfolio_value,omitempty"`
	Decision       *Decision       `json:"decision,omitempty"`
	Markets        []Market        `json:"markets"`
}

// Empty reports whether the update changes nothing
func (u Update) Empty() bool {
	return u.Portfolio == nil && u.Trade == nil && u.PortfolioValue == nil && u.Decision == nil && u.Markets == nil
}

// Stats summarises the state for the stats endpoint
type Stats struct {
	TotalTrades    int            `json:"total_trades"`
	CurrentBalance float64        `json:"current_balance"`
	TotalPnL       float64        `json:"total_pnl"`
	WinRate        float64        `json:"win_rate"`
	TotalSteps     int            `json:"total_steps"`
	TradesBySide   map[string]int `json:"trades_by_side"`
	TotalCost      float64        `json:"total_cost"`
	LatestValue    float64        `json:"latest_value"`
}
