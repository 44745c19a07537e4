package history

import (
	"testing"

	"github.com/anggasct/junction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredict(t *testing.T) {
	store := openStore(t)
	seedWeek(t, store)
	p := NewPredictor(store)

	prediction, err := p.Predict(8, 7, ts(10, 20))
	require.NoError(t, err)
	assert.Equal(t, Prediction{Hour: 8, PredictedVehicles: 170, PeakPossible: 500, Confidence: 40, Samples: 4}, prediction)

	empty, err := p.Predict(3, 7, ts(10, 20))
	require.NoError(t, err)
	assert.Equal(t, Prediction{Hour: 3}, empty)
}

func TestSuggestTiming(t *testing.T) {
	store := openStore(t)
	p := NewPredictor(store)

	_, ok, err := p.SuggestTiming(8, 7, ts(10, 20))
	require.NoError(t, err)
	assert.False(t, ok)

	testCases := []struct {
		vehicles int
		budget   int
	}{
		{30, LightCycleBudget},
		{50, LightCycleBudget},
		{51, BusyCycleBudget},
		{81, HeavyCycleBudget},
	}
	for hour, tc := range testCases {
		save(t, store, ts(10, hour), 0, map[junction.Lane]int{junction.East: tc.vehicles})

		suggestion, ok, err := p.SuggestTiming(hour, 7, ts(10, 20))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, tc.budget, suggestion.Config.CycleBudget, "vehicles %d", tc.vehicles)
		assert.Equal(t, 15, suggestion.Config.MinGreen)
		assert.Equal(t, 70, suggestion.Config.MaxGreen)
		assert.Equal(t, 10, suggestion.Confidence)
		assert.NoError(t, suggestion.Config.Validate())
	}
}

func TestAnomalies(t *testing.T) {
	store := openStore(t)
	seedWeek(t, store)
	p := NewPredictor(store)

	anomalies, err := p.Anomalies(7, ts(10, 20))
	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, Anomaly{Hour: 8, Type: "traffic_spike", NormalAvg: 170, ObservedPeak: 500, Deviation: 330}, anomalies[0])

	// the spike falls outside a three day window
	anomalies, err = p.Anomalies(3, ts(10, 20))
	require.NoError(t, err)
	assert.Empty(t, anomalies)
}
