package events

import (
	"encoding/json"
	"time"
)

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// PortfolioUpdatedData carries the new portfolio summary
type PortfolioUpdatedData struct {
	Balance     float64 `json:"balance"`
	PnL         float64 `json:"pnl"`
	TotalTrades int     `json:"total_trades"`
	WinRate     float64 `json:"win_rate"`
}

// EventType returns the event type for PortfolioUpdatedData
func (d *PortfolioUpdatedData) EventType() EventType {
	return PortfolioUpdated
}

// TradeRecordedData describes an executed trade
type TradeRecordedData struct {
	ID     string  `json:"id"`
	Ticker string  `json:"ticker"`
	Side   string  `json:"side"`
	Action string  `json:"action"`
	Size   int     `json:"size"`
	Price  float64 `json:"price"`
	Cost   float64 `json:"cost"`
}

// EventType returns the event type for TradeRecordedData
func (d *TradeRecordedData) EventType() EventType {
	return TradeRecorded
}

// PortfolioValueRecordedData is one point of the value history
type PortfolioValueRecordedData struct {
	Step  int     `json:"step"`
	Value float64 `json:"value"`
}

// EventType returns the event type for PortfolioValueRecordedData
func (d *PortfolioValueRecordedData) EventType() EventType {
	return PortfolioValueRecorded
}

// DecisionMadeData is the latest agent decision
type DecisionMadeData struct {
	Action string `json:"action"`
	Size   int    `json:"size"`
}

// EventType returns the event type for DecisionMadeData
func (d *DecisionMadeData) EventType() EventType {
	return DecisionMade
}

// MarketsUpdatedData reports how many markets are quoted
type MarketsUpdatedData struct {
	Count int `json:"count"`
}

// EventType returns the event type for MarketsUpdatedData
func (d *MarketsUpdatedData) EventType() EventType {
	return MarketsUpdated
}

// HistoryPrunedData reports a retention pass
type HistoryPrunedData struct {
	Removed int `json:"removed"`
	Kept    int `json:"kept"`
}

// EventType returns the event type for HistoryPrunedData
func (d *HistoryPrunedData) EventType() EventType {
	return HistoryPruned
}

// RolloutArchivedData reports an uploaded rollout file
type RolloutArchivedData struct {
	File   string `json:"file"`
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// EventType returns the event type for RolloutArchivedData
func (d *RolloutArchivedData) EventType() EventType {
	return RolloutArchived
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string `json:"error"`
	Context string `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// Event is one published occurrence with typed data
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}

// MarshalJSON customizes JSON serialization for Event
func (e *Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if e.Data != nil {
		dataBytes, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		aux.Data = dataBytes
	}

	return json.Marshal(aux)
}

// UnmarshalJSON restores the typed data from the event type
func (e *Event) UnmarshalJSON(data []byte) error {
	type Alias Event
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if len(aux.Data) == 0 || string(aux.Data) == "null" {
		return nil
	}

	var eventData EventData
	switch aux.Type {
	case PortfolioUpdated:
		eventData = &PortfolioUpdatedData{}
	case TradeRecorded:
		eventData = &TradeRecordedData{}
	case PortfolioValueRecorded:
		eventData = &PortfolioValueRecordedData{}
	case DecisionMade:
		eventData = &DecisionMadeData{}
	case MarketsUpdated:
		eventData = &MarketsUpdatedData{}
	case HistoryPruned:
		eventData = &HistoryPrunedData{}
	case RolloutArchived:
		eventData = &RolloutArchivedData{}
	case ErrorOccurred:
		eventData = &ErrorEventData{}
	default:
		eventData = &GenericEventData{Type: aux.Type}
	}

	if err := json.Unmarshal(aux.Data, eventData); err != nil {
		return err
	}
	e.Data = eventData
	return nil
}

// GenericEventData is a fallback for events that don't have a specific type
type GenericEventData struct {
	Type EventType              `json:"-"`
	Data map[string]interface{} `json:"-"`
}

// EventType returns the event type for GenericEventData
func (d *GenericEventData) EventType() EventType {
	return d.Type
}

// MarshalJSON customizes JSON serialization for GenericEventData
func (d *GenericEventData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Data)
}

// UnmarshalJSON customizes JSON deserialization for GenericEventData
func (d *GenericEventData) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.Data)
}
