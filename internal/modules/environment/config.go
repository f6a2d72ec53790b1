package environment

import (
	"fmt"

	"github.com/aristath/kalshigym/internal/modules/features"
)

// RewardKind selects the reward strategy
type RewardKind string

const (
	// RewardBaseline charges a small fee per opened trade and nothing else
	RewardBaseline RewardKind = "baseline"
	// RewardShaped adds activity bonuses and HOLD penalties to the value change
	RewardShaped RewardKind = "shaped"
)

// FundsPolicy selects what a rejected (unaffordable) trade costs in reward
type FundsPolicy string

const (
	// FundsPenalize adds Config.RejectPenalty to the step reward
	FundsPenalize FundsPolicy = "penalize"
	// FundsSkip treats the rejected attempt as reward-neutral
	FundsSkip FundsPolicy = "skip"
)

// Defaults
const (
	DefaultInitialBalance  = 10000.0
	DefaultRiskFloor       = 0.3
	DefaultRejectPenalty   = -1.0
	DefaultContractHorizon = 1
	DefaultHoursToExpiry   = 1.0
	DefaultSeed            = 42
)

// Config holds environment configuration
type Config struct {
	InitialBalance float64
	LookbackWindow int
	Reward         RewardKind
	// RiskFloor is the fraction of the initial balance at or below which the episode ends
	RiskFloor     float64
	FundsPolicy   FundsPolicy
	RejectPenalty float64
	// ContractHorizon is the number of steps between entry and expiry
	ContractHorizon int
	// HoursToExpiry is the time to expiry used when quoting new contracts
	HoursToExpiry float64
	// MaxEpisodeSteps truncates episodes after this many steps; 0 disables truncation
	MaxEpisodeSteps int
	Seed            uint64
}

// DefaultConfig returns the conservative configuration
func DefaultConfig() Config {
	return Config{
		InitialBalance:  DefaultInitialBalance,
		LookbackWindow:  features.DefaultLookbackWindow,
		Reward:          RewardBaseline,
		RiskFloor:       DefaultRiskFloor,
		FundsPolicy:     FundsPenalize,
		RejectPenalty:   DefaultRejectPenalty,
		ContractHorizon: DefaultContractHorizon,
		HoursToExpiry:   DefaultHoursToExpiry,
		Seed:            DefaultSeed,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.InitialBalance <= 0 {
		return fmt.Errorf("initial balance must be positive, got %v", c.InitialBalance)
	}
	if c.LookbackWindow <= 0 {
		return fmt.Errorf("lookback window must be positive, got %d", c.LookbackWindow)
	}
	switch c.Reward {
	case RewardBaseline, RewardShaped:
	default:
		return fmt.Errorf("unknown reward strategy %q", c.Reward)
	}
	if c.RiskFloor < 0 || c.RiskFloor >= 1 {
		return fmt.Errorf("risk floor must be in [0,1), got %v", c.RiskFloor)
	}
	switch c.FundsPolicy {
	case FundsPenalize, FundsSkip:
	default:
		return fmt.Errorf("unknown insufficient funds policy %q", c.FundsPolicy)
	}
	if c.ContractHorizon < 1 {
		return fmt.Errorf("contract horizon must be at least 1 step, got %d", c.ContractHorizon)
	}
	if c.HoursToExpiry <= 0 {
		return fmt.Errorf("hours to expiry must be positive, got %v", c.HoursToExpiry)
	}
	if c.MaxEpisodeSteps < 0 {
		return fmt.Errorf("max episode steps must not be negative, got %d", c.MaxEpisodeSteps)
	}
	return nil
}
