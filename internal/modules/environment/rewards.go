package environment

import (
	"github.com/aristath/kalshigym/internal/domain"
	"github.com/aristath/kalshigym/pkg/formulas"
)

// Baseline reward
const tradeFee = -0.05

// Shaped reward terms
const (
	valueDeltaDivisor     = 3.0
	winBonus              = 50.0
	lossPenalty           = -5.0
	holdPenalty           = -2.0
	holdStreakPenalty     = -5.0  // from holdStreakThreshold on
	longHoldStreakPenalty = -10.0 // stacks on holdStreakPenalty from longHoldStreakLength on
	holdStreakThreshold   = 10
	longHoldStreakLength  = 50
	actionBonus           = 1.0
	openPositionBonus     = 0.5
	activityBonusPerTrade = 0.1
	activityWindow        = 100
	drawdownThreshold     = 0.3
	drawdownPenaltyScale  = -20.0
)

// Transition is everything a reward strategy may look at for one step
type Transition struct {
	Action        domain.Action
	Opened        bool
	Rejected      bool
	PrevValue     float64
	Value         float64
	MaxValue      float64 // running maximum including Value
	Resolved      []domain.TradeRecord
	OpenPositions int
	// NoTradeStreak counts consecutive steps, including this one, that opened
	// nothing. Rejected and zero-size trade attempts extend it like HOLDs do;
	// only a HOLD is penalised for it.
	NoTradeStreak int
	// RecentTrades counts trades resolved within the activity window
	RecentTrades int
}

// RewardFunc maps a transition to a scalar reward
type RewardFunc func(t Transition) float64

// RewardFor returns the strategy for kind, defaulting to baseline
func RewardFor(kind RewardKind) RewardFunc {
	if kind == RewardShaped {
		return ShapedReward
	}
	return BaselineReward
}

// BaselineReward charges a fixed fee per opened trade
func BaselineReward(t Transition) float64 {
	if t.Opened {
		return tradeFee
	}
	return 0
}

// ShapedReward combines the value change with trade outcome bonuses, HOLD
// penalties escalating with the no-trade streak, activity bonuses and a
// drawdown penalty past 30%.
func ShapedReward(t Transition) float64 {
	reward := (t.Value - t.PrevValue) / valueDeltaDivisor

	for _, trade := range t.Resolved {
		switch {
		case trade.PnL > 0:
			reward += winBonus
		case trade.PnL < 0:
			reward += lossPenalty
		}
	}

	if t.Action.Decision == domain.DecisionHold {
		reward += holdPenalty
		if t.NoTradeStreak >= holdStreakThreshold {
			reward += holdStreakPenalty
		}
		if t.NoTradeStreak >= longHoldStreakLength {
			reward += longHoldStreakPenalty
		}
	} else {
		reward += actionBonus
	}

	if t.OpenPositions > 0 {
		reward += openPositionBonus
	}

	reward += activityBonusPerTrade * float64(t.RecentTrades)

	if dd := formulas.Drawdown(t.MaxValue, t.Value); dd > drawdownThreshold {
		reward += drawdownPenaltyScale * dd
	}

	return reward
}
