package domain

import "errors"

var (
	// ErrInsufficientFunds is reported when a trade costs more than the available balance
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidAction is returned for actions outside the action space
	ErrInvalidAction = errors.New("invalid action")
	// ErrEmptySeries is returned when a price series has no bars
	ErrEmptySeries = errors.New("price series is empty")
	// ErrNonIncreasingTimestamps is returned when bar timestamps are not strictly increasing
	ErrNonIncreasingTimestamps = errors.New("price series timestamps must be strictly increasing")
	// ErrInvalidPrice is returned for a close that is not a finite positive number
	ErrInvalidPrice = errors.New("close price must be finite and positive")
	// ErrSeriesTooShort is returned when a series cannot cover the lookback plus one step
	ErrSeriesTooShort = errors.New("price series too short for lookback window")
	// ErrEpisodeNotReady is returned when stepping before Reset
	ErrEpisodeNotReady = errors.New("episode not reset")
	// ErrEpisodeTerminated is returned when stepping after termination
	ErrEpisodeTerminated = errors.New("episode already terminated")
)
