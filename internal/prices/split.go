package prices

import (
	"fmt"

	"github.com/aristath/kalshigym/internal/domain"
)

// Default partition fractions used for training runs
const (
	DefaultTrainFraction      = 0.8
	DefaultValidationFraction = 0.1
)

// Partitions holds consecutive, non-overlapping slices of one series
type Partitions struct {
	Train      *domain.PriceSeries
	Validation *domain.PriceSeries
	Test       *domain.PriceSeries
}

// Split cuts the series chronologically: the first trainFrac of bars for
// training, the next valFrac for validation and the remainder for testing.
// Sizes are truncated towards zero.
func Split(series *domain.PriceSeries, trainFrac, valFrac float64) (Partitions, error) {
	var p Partitions

	if trainFrac <= 0 || valFrac <= 0 || trainFrac+valFrac >= 1 {
		return p, fmt.Errorf("invalid split fractions train=%v validation=%v", trainFrac, valFrac)
	}

	n := series.Len()
	trainSize := int(float64(n) * trainFrac)
	valSize := int(float64(n) * valFrac)
	if trainSize == 0 || valSize == 0 || trainSize+valSize >= n {
		return p, fmt.Errorf("series with %d bars is too short to split", n)
	}

	var err error
	if p.Train, err = series.Slice(0, trainSize); err != nil {
		return p, fmt.Errorf("failed to slice train partition: %w", err)
	}
	if p.Validation, err = series.Slice(trainSize, trainSize+valSize); err != nil {
		return p, fmt.Errorf("failed to slice validation partition: %w", err)
	}
	if p.Test, err = series.Slice(trainSize+valSize, n); err != nil {
		return p, fmt.Errorf("failed to slice test partition: %w", err)
	}
	return p, nil
}
