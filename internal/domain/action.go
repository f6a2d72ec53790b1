package domain

import "fmt"

// Decision is the discrete trade decision chosen per step
type Decision int

const (
	DecisionHold Decision = iota
	DecisionBuyYes
	DecisionBuyNo
	DecisionSellYes
	DecisionSellNo
)

// NumDecisions is the size of the decision space
const NumDecisions = 5

var decisionNames = [NumDecisions]string{"HOLD", "BUY_YES", "BUY_NO", "SELL_YES", "SELL_NO"}

func (d Decision) String() string {
	if d < 0 || int(d) >= NumDecisions {
		return fmt.Sprintf("Decision(%d)", int(d))
	}
	return decisionNames[d]
}

// Valid reports whether d is inside the decision space
func (d Decision) Valid() bool {
	return d >= DecisionHold && int(d) < NumDecisions
}

// ParseDecision maps a decision name back to its value
func ParseDecision(name string) (Decision, error) {
	for i, n := range decisionNames {
		if n == name {
			return Decision(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown decision %q", ErrInvalidAction, name)
}

// SizeTier indexes the contract-count ladder
type SizeTier int

// NumSizeTiers is the size of the size-tier space
const NumSizeTiers = 5

var tierContracts = [NumSizeTiers]int{0, 10, 25, 50, 100}

// Contracts returns the contract count for the tier
func (t SizeTier) Contracts() int {
	if !t.Valid() {
		return 0
	}
	return tierContracts[t]
}

// Valid reports whether t is inside the size-tier space
func (t SizeTier) Valid() bool {
	return t >= 0 && int(t) < NumSizeTiers
}

// Action is one (decision, size tier) pair submitted to the environment
type Action struct {
	Decision Decision `json:"decision"`
	SizeTier SizeTier `json:"size_tier"`
}

// NewAction builds an action from raw indices, validating ranges
func NewAction(decision, sizeTier int) (Action, error) {
	a := Action{Decision: Decision(decision), SizeTier: SizeTier(sizeTier)}
	if err := a.Validate(); err != nil {
		return Action{}, err
	}
	return a, nil
}

// Validate checks both components are in range
func (a Action) Validate() error {
	if !a.Decision.Valid() {
		return fmt.Errorf("%w: decision %d outside [0,%d)", ErrInvalidAction, int(a.Decision), NumDecisions)
	}
	if !a.SizeTier.Valid() {
		return fmt.Errorf("%w: size tier %d outside [0,%d)", ErrInvalidAction, int(a.SizeTier), NumSizeTiers)
	}
	return nil
}

// IsHold reports whether the action cannot open a position
func (a Action) IsHold() bool {
	return a.Decision == DecisionHold || a.SizeTier.Contracts() == 0
}

// ContractSide is the exposure taken by a position
type ContractSide string

const (
	SideLongYes  ContractSide = "YES"
	SideLongNo   ContractSide = "NO"
	SideShortYes ContractSide = "YES_SHORT"
	SideShortNo  ContractSide = "NO_SHORT"
)

// SideForDecision maps a trade decision to the side it opens.
// HOLD has no side.
func SideForDecision(d Decision) (ContractSide, bool) {
	switch d {
	case DecisionBuyYes:
		return SideLongYes, true
	case DecisionBuyNo:
		return SideLongNo, true
	case DecisionSellYes:
		return SideShortYes, true
	case DecisionSellNo:
		return SideShortNo, true
	default:
		return "", false
	}
}

// EntersAtAsk reports whether the side is filled at the YES ask.
// Buy decisions pay the ask, sell decisions receive the bid.
func (s ContractSide) EntersAtAsk() bool {
	return s == SideLongYes || s == SideLongNo
}

// PaysOnYes reports whether the side collects the payout when the contract resolves YES.
// Only the long-YES side does; every other side collects on NO.
func (s ContractSide) PaysOnYes() bool {
	return s == SideLongYes
}
