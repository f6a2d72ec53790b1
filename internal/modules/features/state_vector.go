package features

// StateSize is the length of the observation vector
const StateSize = 50

// Observation slot indices. Unlisted slots stay zero; the layout must not
// change while policies trained against it are in use.
const (
	SlotPrice          = 0
	SlotReturns1h      = 1
	SlotReturns4h      = 2
	SlotReturns12h     = 3
	SlotVolatility     = 4
	SlotMomentum       = 5
	SlotRSI            = 6
	SlotBollinger      = 7
	SlotNumPositions   = 20
	SlotExposure       = 21
	SlotUnrealizedPnL  = 22
	SlotPortfolioValue = 23
	SlotWinRate        = 24
	SlotHourOfDay      = 35
	SlotTimeToExpiry   = 36
	SlotNearExpiry     = 37
	SlotMarketPrice    = 40
	SlotImpliedProb    = 41
	SlotSpread         = 42
)

// Normalization divisors and multipliers
const (
	priceScale          = 100000.0
	returnScale         = 100.0
	volatilityScale     = 100.0
	momentumScale       = 10.0
	rsiScale            = 100.0
	positionCountScale  = 10.0
	exposureScale       = 1000.0
	unrealizedScale     = 1000.0
	portfolioValueScale = 10000.0
	hoursPerDay         = 24.0
)

// CreateStateVector assembles the feature groups into a StateSize vector
func (fe *FeatureEngineer) CreateStateVector(price PriceFeatures, t TimeFeatures, pos PositionFeatures) []float32 {
	state := make([]float32, StateSize)

	state[SlotPrice] = float32(price.CurrentPrice / priceScale)
	state[SlotReturns1h] = float32(price.Returns1h * returnScale)
	state[SlotReturns4h] = float32(price.Returns4h * returnScale)
	state[SlotReturns12h] = float32(price.Returns12h * returnScale)
	state[SlotVolatility] = float32(price.Volatility * volatilityScale)
	state[SlotMomentum] = float32(price.Momentum * momentumScale)
	state[SlotRSI] = float32(price.RSI / rsiScale)
	state[SlotBollinger] = float32(price.BollingerPosition)

	state[SlotNumPositions] = float32(float64(pos.NumPositions) / positionCountScale)
	state[SlotExposure] = float32(pos.TotalExposure / exposureScale)
	state[SlotUnrealizedPnL] = float32(pos.UnrealizedPnL / unrealizedScale)
	state[SlotPortfolioValue] = float32(pos.PortfolioValue / portfolioValueScale)
	state[SlotWinRate] = float32(pos.WinRate)

	state[SlotHourOfDay] = float32(float64(t.HourOfDay) / hoursPerDay)
	state[SlotTimeToExpiry] = float32(t.TimeToExpiry / hoursPerDay)
	if t.IsNearExpiry {
		state[SlotNearExpiry] = 1
	}

	state[SlotMarketPrice] = float32(price.CurrentPrice / priceScale)
	state[SlotImpliedProb] = float32(t.ImpliedProbability)
	state[SlotSpread] = float32(t.BidAskSpread)

	return state
}
