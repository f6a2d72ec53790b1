package events

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishDeliversByType(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var trades, values []*Event
	bus.Subscribe(TradeRecorded, func(e *Event) { trades = append(trades, e) })
	bus.Subscribe(PortfolioValueRecorded, func(e *Event) { values = append(values, e) })

	bus.Publish("dashboard", &TradeRecordedData{ID: "t1", Side: "YES", Size: 25})

	require.Len(t, trades, 1)
	assert.Empty(t, values)
	assert.Equal(t, TradeRecorded, trades[0].Type)
	assert.Equal(t, "dashboard", trades[0].Module)
	assert.False(t, trades[0].Timestamp.IsZero())

	data, ok := trades[0].Data.(*TradeRecordedData)
	require.True(t, ok)
	assert.Equal(t, "t1", data.ID)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	calls := 0
	unsubscribe := bus.Subscribe(DecisionMade, func(*Event) { calls++ })
	other := bus.Subscribe(DecisionMade, func(*Event) {})
	assert.Equal(t, 2, bus.SubscriberCount(DecisionMade))

	bus.Publish("test", &DecisionMadeData{Action: "HOLD"})
	unsubscribe()
	unsubscribe()
	bus.Publish("test", &DecisionMadeData{Action: "HOLD"})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, bus.SubscriberCount(DecisionMade))
	other()
	assert.Equal(t, 0, bus.SubscriberCount(DecisionMade))
}

func TestEvent_JSONRoundTripRestoresType(t *testing.T) {
	in := &Event{
		Type:   PortfolioUpdated,
		Module: "dashboard",
		Data:   &PortfolioUpdatedData{Balance: 10250.5, PnL: 250.5, TotalTrades: 3, WinRate: 0.66},
	}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"balance":10250.5`)

	var out Event
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, PortfolioUpdated, out.Type)
	assert.Equal(t, in.Data, out.Data)
}

func TestEvent_UnknownTypeFallsBackToGeneric(t *testing.T) {
	raw := []byte(`{"type":"SOMETHING_ELSE","module":"x","timestamp":"2024-01-01T00:00:00Z","data":{"k":1}}`)

	var out Event
	require.NoError(t, json.Unmarshal(raw, &out))

	generic, ok := out.Data.(*GenericEventData)
	require.True(t, ok)
	assert.Equal(t, EventType("SOMETHING_ELSE"), generic.EventType())
	assert.Equal(t, float64(1), generic.Data["k"])
}

func TestEventDataTypes(t *testing.T) {
	testCases := []struct {
		data     EventData
		expected EventType
	}{
		{&PortfolioUpdatedData{}, PortfolioUpdated},
		{&TradeRecordedData{}, TradeRecorded},
		{&PortfolioValueRecordedData{}, PortfolioValueRecorded},
		{&DecisionMadeData{}, DecisionMade},
		{&MarketsUpdatedData{}, MarketsUpdated},
		{&HistoryPrunedData{}, HistoryPruned},
		{&RolloutArchivedData{}, RolloutArchived},
		{&ErrorEventData{}, ErrorOccurred},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, tc.data.EventType())
	}
	assert.Len(t, AllTypes(), len(testCases))
}
