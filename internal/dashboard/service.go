package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/kalshigym/internal/events"
)

const eventModule = "dashboard"

// Service owns the dashboard state. Every change is persisted through the
// Store and announced on the event bus.
type Service struct {
	mu    sync.RWMutex
	state *State
	store Store
	bus   *events.Bus
	log   zerolog.Logger
}

// NewService loads the stored state. bus may be nil.
func NewService(ctx context.Context, store Store, bus *events.Bus, log zerolog.Logger) (*Service, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard state: %w", err)
	}

	return &Service{
		state: state,
		store: store,
		bus:   bus,
		log:   log.With().Str("component", "dashboard").Logger(),
	}, nil
}

// Apply merges u into the state, persists it and publishes one event per changed part
func (s *Service) Apply(ctx context.Context, u Update) error {
	if u.Empty() {
		return nil
	}

	s.mu.Lock()
	now := time.Now().UTC()

	if u.Trade != nil {
		trade := *u.Trade
		if trade.ID == "" {
			trade.ID = uuid.New().String()
		}
		if trade.Timestamp.IsZero() {
			trade.Timestamp = now
		}
		u.Trade = &trade
	}
	if u.Decision != nil {
		decision := *u.Decision
		if decision.Timestamp.IsZero() {
			decision.Timestamp = now
		}
		u.Decision = &decision
	}
	if u.Markets != nil {
		u.Markets = append([]Market{}, u.Markets...)
	}

	if err := s.store.Append(ctx, u); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to save dashboard state: %w", err)
	}

	// readers copy under the read lock, so appending in place is safe
	if u.Portfolio != nil {
		s.state.Portfolio = *u.Portfolio
	}
	if u.Trade != nil {
		s.state.Trades = append(s.state.Trades, *u.Trade)
	}
	if u.PortfolioValue != nil {
		s.state.PortfolioHistory = append(s.state.PortfolioHistory, *u.PortfolioValue)
	}
	if u.Decision != nil {
		d := *u.Decision
		s.state.LatestDecision = &d
	}
	if u.Markets != nil {
		s.state.Markets = u.Markets
	}
	s.mu.Unlock()

	s.publishUpdate(u)
	return nil
}

func (s *Service) publishUpdate(u Update) {
	if s.bus == nil {
		return
	}
	if p := u.Portfolio; p != nil {
		s.bus.Publish(eventModule, &events.PortfolioUpdatedData{
			Balance: p.Balance, PnL: p.PnL, TotalTrades: p.TotalTrades, WinRate: p.WinRate,
		})
	}
	if t := u.Trade; t != nil {
		s.bus.Publish(eventModule, &events.TradeRecordedData{
			ID: t.ID, Ticker: t.Ticker, Side: t.Side, Action: t.Action, Size: t.Size, Price: t.Price, Cost: t.Cost,
		})
	}
	if pv := u.PortfolioValue; pv != nil {
		s.bus.Publish(eventModule, &events.PortfolioValueRecordedData{Step: pv.Step, Value: pv.Value})
	}
	if d := u.Decision; d != nil {
		s.bus.Publish(eventModule, &events.DecisionMadeData{Action: d.Action, Size: d.Size})
	}
	if u.Markets != nil {
		s.bus.Publish(eventModule, &events.MarketsUpdatedData{Count: len(u.Markets)})
	}
}

// Portfolio returns the portfolio summary
func (s *Service) Portfolio() Portfolio {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Portfolio
}

// RecentTrades returns up to n most recent trades, oldest first
func (s *Service) RecentTrades(n int) []Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := s.state.Trades
	if n >= 0 && len(trades) > n {
		trades = trades[len(trades)-n:]
	}
	return append([]Trade{}, trades...)
}

// PortfolioHistory returns the value history
func (s *Service) PortfolioHistory() []PortfolioPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PortfolioPoint{}, s.state.PortfolioHistory...)
}

// LatestDecision returns the latest decision, or nil
func (s *Service) LatestDecision() *Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.LatestDecision == nil {
		return nil
	}
	d := *s.state.LatestDecision
	return &d
}

// Markets returns the quoted markets
func (s *Service) Markets() []Market {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Market{}, s.state.Markets...)
}

// Stats summarises the state
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		TotalTrades:    len(s.state.Trades),
		CurrentBalance: s.state.Portfolio.Balance,
		TotalPnL:       s.state.Portfolio.PnL,
		WinRate:        s.state.Portfolio.WinRate,
		TotalSteps:     len(s.state.PortfolioHistory),
		TradesBySide:   make(map[string]int),
	}
	for _, t := range s.state.Trades {
		stats.TradesBySide[t.Side]++
		stats.TotalCost += t.Cost
	}
	if n := len(s.state.PortfolioHistory); n > 0 {
		stats.LatestValue = s.state.PortfolioHistory[n-1].Value
	}
	return stats
}

// PruneHistory keeps only the most recent keep value-history points and
// trades. It returns the number of history points removed.
func (s *Service) PruneHistory(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("retention must not be negative, got %d", keep)
	}

	s.mu.Lock()
	removed := len(s.state.PortfolioHistory) - keep
	trimTrades := len(s.state.Trades) > keep
	if removed <= 0 && !trimTrades {
		s.mu.Unlock()
		return 0, nil
	}
	if removed < 0 {
		removed = 0
	}

	if err := s.store.Prune(ctx, keep); err != nil {
		s.mu.Unlock()
		return 0, fmt.Errorf("failed to prune stored history: %w", err)
	}
	s.state.PortfolioHistory = append([]PortfolioPoint{}, s.state.PortfolioHistory[removed:]...)
	if trimTrades {
		s.state.Trades = append([]Trade{}, s.state.Trades[len(s.state.Trades)-keep:]...)
	}
	kept := len(s.state.PortfolioHistory)
	s.mu.Unlock()

	s.log.Info().Int("removed", removed).Int("kept", kept).Msg("Pruned dashboard history")
	if s.bus != nil {
		s.bus.Publish(eventModule, &events.HistoryPrunedData{Removed: removed, Kept: kept})
	}
	return removed, nil
}
