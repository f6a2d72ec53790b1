// Package environment implements the binary-contract trading episode: a
// reset/step state machine over a preloaded price series that opens, settles
// and values positions and computes a configurable reward.
//
// An Environment is not safe for concurrent use. Parallel rollouts each need
// their own Environment; the feature engineer and market simulator may be shared.
package environment

import (
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/aristath/kalshigym/internal/domain"
	"github.com/aristath/kalshigym/internal/modules/features"
	"github.com/aristath/kalshigym/internal/modules/market"
	"github.com/aristath/kalshigym/pkg/formulas"
)

// Observation-only market inputs. The policy sees fixed values here rather
// than the quote of any particular contract.
const (
	observedTimeToExpiry       = 1.0
	observedImpliedProbability = 0.5
	observedSpread             = 0.02
)

// Unrealized P&L marks an unexpired position at half its entry notional
const unrealizedMark = 0.5

// neutralWinRate is reported before any trade has resolved
const neutralWinRate = 0.5

// Info is the per-step diagnostic record
type Info struct {
	Step           int     `json:"step"`
	PortfolioValue float64 `json:"portfolio_value"`
	Balance        float64 `json:"balance"`
	NumPositions   int     `json:"num_positions"`
	NumTrades      int     `json:"num_trades"`
	WinRate        float64 `json:"win_rate"`
	PnL            float64 `json:"pnl"`
	UnrealizedPnL  float64 `json:"unrealized_pnl"`
}

// StepResult is the outcome of one Step call
type StepResult struct {
	Observation []float32
	Reward      float64
	Terminated  bool
	Truncated   bool
	Info        Info
	// Opened is the position created this step, nil when none was opened
	Opened *domain.Position
	// Quote is the contract quote the position was opened against
	Quote *market.Quote
	// Rejected is set when the trade was refused for lack of funds
	Rejected bool
	// RejectReason wraps domain.ErrInsufficientFunds when Rejected
	RejectReason error
	// Resolved lists the positions settled during this step
	Resolved []domain.TradeRecord
}

// EpisodeState is the mutable per-episode state
type EpisodeState struct {
	Step             int
	Balance          float64
	Positions        []domain.Position
	Trades           []domain.TradeRecord
	PortfolioValues  []float64
	MaxValue         float64
	NoTradeStreak    int
	StepsTaken       int
	Terminated       bool
	Truncated        bool
	TerminatedByRuin bool
}

func (s *EpisodeState) clone() EpisodeState {
	out := *s
	out.Positions = append([]domain.Position(nil), s.Positions...)
	out.Trades = append([]domain.TradeRecord(nil), s.Trades...)
	out.PortfolioValues = append([]float64(nil), s.PortfolioValues...)
	return out
}

// Environment drives one episode at a time over an immutable price series
type Environment struct {
	cfg      Config
	series   *domain.PriceSeries
	features *features.FeatureEngineer
	market   *market.Simulator
	reward   RewardFunc
	rng      *rand.Rand
	state    *EpisodeState
	log      zerolog.Logger
}

// Option customises an Environment
type Option func(*Environment)

// WithLogger attaches a logger; the default discards everything
func WithLogger(log zerolog.Logger) Option {
	return func(e *Environment) {
		e.log = log.With().Str("component", "environment").Logger()
	}
}

// WithSimulator replaces the default market simulator
func WithSimulator(sim *market.Simulator) Option {
	return func(e *Environment) {
		e.market = sim
	}
}

// WithFeatureEngineer replaces the feature engineer built from the lookback window
func WithFeatureEngineer(fe *features.FeatureEngineer) Option {
	return func(e *Environment) {
		e.features = fe
	}
}

// New creates an environment over series. The series must hold at least
// LookbackWindow+2 bars so that one step can be taken.
func New(series *domain.PriceSeries, cfg Config, opts ...Option) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid environment config: %w", err)
	}
	if series == nil || series.Len() == 0 {
		return nil, domain.ErrEmptySeries
	}
	if series.Len() < cfg.LookbackWindow+2 {
		return nil, fmt.Errorf("%w: %d bars, lookback %d", domain.ErrSeriesTooShort, series.Len(), cfg.LookbackWindow)
	}

	e := &Environment{
		cfg:      cfg,
		series:   series,
		features: features.NewFeatureEngineer(cfg.LookbackWindow),
		market:   market.NewSimulator(),
		reward:   RewardFor(cfg.Reward),
		rng:      newRand(cfg.Seed),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Config returns the environment configuration
func (e *Environment) Config() Config {
	return e.cfg
}

// Series returns the price series the environment steps over
func (e *Environment) Series() *domain.PriceSeries {
	return e.series
}

// State returns a copy of the current episode state, or false before Reset
func (e *Environment) State() (EpisodeState, bool) {
	if e.state == nil {
		return EpisodeState{}, false
	}
	return e.state.clone(), true
}

// Reset starts a new episode. A non-nil seed reseeds the strike generator;
// otherwise the random stream continues from the previous episode.
func (e *Environment) Reset(seed *uint64) ([]float32, Info) {
	if seed != nil {
		e.rng = newRand(*seed)
	}

	e.state = &EpisodeState{
		Step:            e.cfg.LookbackWindow,
		Balance:         e.cfg.InitialBalance,
		PortfolioValues: []float64{e.cfg.InitialBalance},
		MaxValue:        e.cfg.InitialBalance,
	}

	return e.observation(), e.info()
}

// Step applies one action: open (optionally), advance, settle expired
// positions, value the portfolio, compute the reward and check termination.
func (e *Environment) Step(action domain.Action) (StepResult, error) {
	if e.state == nil {
		return StepResult{}, domain.ErrEpisodeNotReady
	}
	if e.state.Terminated || e.state.Truncated {
		return StepResult{}, domain.ErrEpisodeTerminated
	}
	if err := action.Validate(); err != nil {
		return StepResult{}, err
	}

	s := e.state
	prevValue := s.PortfolioValues[len(s.PortfolioValues)-1]

	var result StepResult
	result.Opened, result.Quote, result.RejectReason = e.executeTrade(action)
	result.Rejected = result.RejectReason != nil

	if result.Opened != nil {
		s.NoTradeStreak = 0
	} else {
		s.NoTradeStreak++
	}

	s.Step++
	s.StepsTaken++

	result.Resolved = e.updatePositions()

	value := e.portfolioValue()
	s.PortfolioValues = append(s.PortfolioValues, value)
	if value > s.MaxValue {
		s.MaxValue = value
	}

	result.Reward = e.reward(Transition{
		Action:        action,
		Opened:        result.Opened != nil,
		Rejected:      result.Rejected,
		PrevValue:     prevValue,
		Value:         value,
		MaxValue:      s.MaxValue,
		Resolved:      result.Resolved,
		OpenPositions: len(s.Positions),
		NoTradeStreak: s.NoTradeStreak,
		RecentTrades:  e.recentTrades(),
	})
	if result.Rejected && e.cfg.FundsPolicy == FundsPenalize {
		result.Reward += e.cfg.RejectPenalty
	}

	ruined := value <= e.cfg.RiskFloor*e.cfg.InitialBalance
	s.Terminated = s.Step >= e.series.Len()-1 || ruined
	s.TerminatedByRuin = ruined
	s.Truncated = !s.Terminated && e.cfg.MaxEpisodeSteps > 0 && s.StepsTaken >= e.cfg.MaxEpisodeSteps

	if s.Terminated {
		e.log.Debug().
			Int("step", s.Step).
			Float64("portfolio_value", value).
			Bool("ruined", ruined).
			Int("trades", len(s.Trades)).
			Msg("Episode terminated")
	}

	result.Terminated = s.Terminated
	result.Truncated = s.Truncated
	result.Observation = e.observation()
	result.Info = e.info()
	return result, nil
}

// executeTrade opens a position for action at the current step. It returns
// nil without error for HOLD, and a wrapped ErrInsufficientFunds when the
// cost exceeds the balance.
func (e *Environment) executeTrade(action domain.Action) (*domain.Position, *market.Quote, error) {
	if action.IsHold() {
		return nil, nil, nil
	}
	side, ok := domain.SideForDecision(action.Decision)
	if !ok {
		return nil, nil, nil
	}

	s := e.state
	spot := e.series.Close(s.Step)
	strike := e.market.GenerateThreshold(spot, e.rng)
	volatility := formulas.CalculateVolatility(e.series.Closes(s.Step), formulas.DefaultVolatilityWindow)
	quote := e.market.GetContractPrices(spot, strike, e.cfg.HoursToExpiry, volatility)

	size := action.SizeTier.Contracts()
	entry := quote.EntryPrice(side)
	cost := entry * float64(size)

	if cost > s.Balance {
		e.log.Debug().
			Int("step", s.Step).
			Str("side", string(side)).
			Float64("cost", cost).
			Float64("balance", s.Balance).
			Msg("Trade rejected")
		return nil, nil, fmt.Errorf("%w: cost %.4f exceeds balance %.4f", domain.ErrInsufficientFunds, cost, s.Balance)
	}

	s.Balance -= cost
	pos := domain.Position{
		Side:       side,
		Size:       size,
		EntryPrice: entry,
		EntryStep:  s.Step,
		Strike:     strike,
		ExpiryStep: s.Step + e.cfg.ContractHorizon,
	}
	s.Positions = append(s.Positions, pos)
	return &pos, &quote, nil
}

// updatePositions settles every position whose expiry has been reached
// against the current close.
func (e *Environment) updatePositions() []domain.TradeRecord {
	s := e.state
	price := e.series.Close(s.Step)

	var resolved []domain.TradeRecord
	open := s.Positions[:0]
	for _, pos := range s.Positions {
		if s.Step < pos.ExpiryStep {
			open = append(open, pos)
			continue
		}

		yes := e.market.ResolveContract(price, pos.Strike)
		pnl := e.market.CalculatePnL(pos.Side, pos.Size, pos.EntryPrice, yes)
		s.Balance += pos.Cost() + pnl

		record := domain.TradeRecord{Step: s.Step, Side: pos.Side, Size: pos.Size, PnL: pnl}
		s.Trades = append(s.Trades, record)
		resolved = append(resolved, record)
	}
	s.Positions = open
	return resolved
}

func (e *Environment) unrealizedPnL() float64 {
	total := 0.0
	for _, pos := range e.state.Positions {
		if pos.ExpiryStep-e.state.Step > 0 {
			total += float64(pos.Size) * pos.EntryPrice * unrealizedMark
		}
	}
	return total
}

func (e *Environment) portfolioValue() float64 {
	return e.state.Balance + e.unrealizedPnL()
}

func (e *Environment) exposure() float64 {
	total := 0.0
	for _, pos := range e.state.Positions {
		total += pos.Cost()
	}
	return total
}

func (e *Environment) winRate() float64 {
	if len(e.state.Trades) == 0 {
		return neutralWinRate
	}
	wins := 0
	for _, t := range e.state.Trades {
		if t.Won() {
			wins++
		}
	}
	return float64(wins) / float64(len(e.state.Trades))
}

func (e *Environment) recentTrades() int {
	count := 0
	for i := len(e.state.Trades) - 1; i >= 0; i-- {
		if e.state.Step-e.state.Trades[i].Step >= activityWindow {
			break
		}
		count++
	}
	return count
}

func (e *Environment) observation() []float32 {
	s := e.state
	price := e.features.ExtractFeatures(e.series.Closes(e.series.Len()), s.Step)

	tf := features.TimeFeatures{
		HourOfDay:          e.series.Bar(s.Step).Time.UTC().Hour(),
		TimeToExpiry:       observedTimeToExpiry,
		ImpliedProbability: observedImpliedProbability,
		BidAskSpread:       observedSpread,
	}

	pf := features.PositionFeatures{
		NumPositions:   len(s.Positions),
		TotalExposure:  e.exposure(),
		UnrealizedPnL:  e.unrealizedPnL(),
		PortfolioValue: e.portfolioValue(),
		WinRate:        e.winRate(),
	}

	return e.features.CreateStateVector(price, tf, pf)
}

func (e *Environment) info() Info {
	value := e.portfolioValue()
	return Info{
		Step:           e.state.Step,
		PortfolioValue: value,
		Balance:        e.state.Balance,
		NumPositions:   len(e.state.Positions),
		NumTrades:      len(e.state.Trades),
		WinRate:        e.winRate(),
		PnL:            value - e.cfg.InitialBalance,
		UnrealizedPnL:  e.unrealizedPnL(),
	}
}
