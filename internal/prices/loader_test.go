package prices

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/kalshigym/internal/domain"
)

const downloaderCSV = `datetime,timestamp,open,high,low,close,volume
2024-01-01 00:00:00,1704067200000,42000.5,42100,41900,42050.25,12.5
2024-01-01 01:00:00,1704070800000,42050.25,42200,42000,42150,8
2024-01-01 02:00:00,1704074400000,42150,42160,41800,41900.75,20.1
`

func TestRead_DownloaderFormat(t *testing.T) {
	series, err := Read(strings.NewReader(downloaderCSV))
	require.NoError(t, err)
	require.Equal(t, 3, series.Len())

	bar := series.Bar(0)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bar.Time)
	assert.Equal(t, 42000.5, bar.Open)
	assert.Equal(t, 42050.25, bar.Close)
	assert.Equal(t, 12.5, bar.Volume)

	assert.Equal(t, 41900.75, series.Close(2))
	assert.Equal(t, 1, series.Bar(1).Time.Hour())
}

func TestRead_DatetimeFallbackAndColumnOrder(t *testing.T) {
	input := "close,datetime\n100,2024-03-01T10:00:00Z\n101,2024-03-01T11:00:00Z\n"

	series, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 2, series.Len())

	bar := series.Bar(1)
	assert.Equal(t, 11, bar.Time.Hour())
	assert.Equal(t, 101.0, bar.Open, "missing open defaults to close")
	assert.Equal(t, 0.0, bar.Volume)
}

func TestRead_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty file", input: "", wantErr: domain.ErrEmptySeries},
		{name: "header only", input: "timestamp,close\n", wantErr: domain.ErrEmptySeries},
		{name: "repeated timestamp", input: "timestamp,close\n1000,1\n1000,2\n", wantErr: domain.ErrNonIncreasingTimestamps},
		{name: "decreasing timestamp", input: "timestamp,close\n2000,1\n1000,2\n", wantErr: domain.ErrNonIncreasingTimestamps},
		{name: "missing close column", input: "timestamp,open\n1000,1\n"},
		{name: "missing time column", input: "open,close\n1,1\n"},
		{name: "bad close", input: "timestamp,close\n1000,abc\n"},
		{name: "NaN close", input: "timestamp,close\n1000,100\n2000,NaN\n", wantErr: domain.ErrInvalidPrice},
		{name: "infinite close", input: "timestamp,close\n1000,100\n2000,+Inf\n", wantErr: domain.ErrInvalidPrice},
		{name: "zero close", input: "timestamp,close\n1000,0\n", wantErr: domain.ErrInvalidPrice},
		{name: "negative close", input: "timestamp,close\n1000,100\n2000,-5\n", wantErr: domain.ErrInvalidPrice},
		{name: "bad datetime", input: "datetime,close\nyesterday,1\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tc.input))
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "btc_1h.csv")
	require.NoError(t, os.WriteFile(path, []byte(downloaderCSV), 0644))

	series, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 3, series.Len())

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func hourlySeries(t *testing.T, n int) *domain.PriceSeries {
	t.Helper()
	var b strings.Builder
	b.WriteString("timestamp,close\n")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d,%d\n", start.Add(time.Duration(i)*time.Hour).UnixMilli(), 100+i)
	}
	series, err := Read(strings.NewReader(b.String()))
	require.NoError(t, err)
	return series
}

func TestSplit(t *testing.T) {
	series := hourlySeries(t, 105)

	parts, err := Split(series, DefaultTrainFraction, DefaultValidationFraction)
	require.NoError(t, err)

	// int(105*0.8)=84, int(105*0.1)=10, remainder 11
	assert.Equal(t, 84, parts.Train.Len())
	assert.Equal(t, 10, parts.Validation.Len())
	assert.Equal(t, 11, parts.Test.Len())

	assert.Equal(t, series.Close(84), parts.Validation.Close(0))
	assert.Equal(t, series.Close(94), parts.Test.Close(0))
	assert.Equal(t, series.Close(104), parts.Test.Close(10))
}

func TestSplit_Invalid(t *testing.T) {
	series := hourlySeries(t, 5)

	_, err := Split(series, 0.8, 0.1)
	assert.Error(t, err, "validation partition would be empty")

	_, err = Split(hourlySeries(t, 100), 0.9, 0.2)
	assert.Error(t, err)
}
