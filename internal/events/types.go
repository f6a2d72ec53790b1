// Package events carries dashboard change notifications between the dashboard
// service and live-stream subscribers.
package events

// EventType names a kind of dashboard event
type EventType string

const (
	PortfolioUpdated       EventType = "PORTFOLIO_UPDATED"
	TradeRecorded          EventType = "TRADE_RECORDED"
	PortfolioValueRecorded EventType = "PORTFOLIO_VALUE_RECORDED"
	DecisionMade           EventType = "DECISION_MADE"
	MarketsUpdated         EventType = "MARKETS_UPDATED"
	HistoryPruned          EventType = "HISTORY_PRUNED"
	RolloutArchived        EventType = "ROLLOUT_ARCHIVED"
	ErrorOccurred          EventType = "ERROR_OCCURRED"
)

// AllTypes lists every event type, in a stable order
func AllTypes() []EventType {
	return []EventType{
		PortfolioUpdated,
		TradeRecorded,
		PortfolioValueRecorded,
		DecisionMade,
		MarketsUpdated,
		HistoryPruned,
		RolloutArchived,
		ErrorOccurred,
	}
}
