package history

import (
	"sort"
	"time"

	"github.com/anggasct/junction"
)

// Cycle budgets suggested for light, busy and heavy hours
const (
	LightCycleBudget = 80
	BusyCycleBudget  = 90
	HeavyCycleBudget = 100

	busyVehicles  = 50
	heavyVehicles = 80

	// SpikeFactor is how far above the hourly average a peak must be to
	// count as an anomaly
	SpikeFactor = 1.5
)

// Prediction estimates the traffic of one hour of the day
type Prediction struct {
	Hour              int `json:"hour"`
	PredictedVehicles int `json:"predicted_vehicles"`
	PeakPossible      int `json:"peak_possible"`
	Confidence        int `json:"confidence"`
	Samples           int `json:"samples"`
}

// TimingSuggestion is a controller configuration tuned for one hour
type TimingSuggestion struct {
	Hour            int             `json:"hour"`
	Config          junction.Config `json:"config"`
	BasedOnVehicles int             `json:"based_on_vehicles"`
	Confidence      int             `json:"confidence"`
}

// Anomaly is an hour whose peak stands well above its average
type Anomaly struct {
	Hour         int    `json:"hour"`
	Type         string `json:"type"`
	NormalAvg    int    `json:"normal_avg"`
	ObservedPeak int    `json:"observed_peak"`
	Deviation    int    `json:"deviation"`
}

// Predictor derives forecasts from a store
type Predictor struct {
	store *Store
}

// NewPredictor creates a predictor reading from store
func NewPredictor(store *Store) *Predictor {
	return &Predictor{store: store}
}

// Predict estimates the traffic at hour from the last days days. Confidence
// grows by 10 per sample up to 100 and is 0 without samples.
func (p *Predictor) Predict(hour, days int, now time.Time) (Prediction, error) {
	volumes, err := p.store.PeakHours(days, now, nil)
	if err != nil {
		return Prediction{}, err
	}
	v, ok := volumes[hour]
	if !ok {
		return Prediction{Hour: hour}, nil
	}
	return Prediction{
		Hour:              hour,
		PredictedVehicles: int(v.AverageVehicles),
		PeakPossible:      v.PeakVehicles,
		Confidence:        min(100, v.Occurrences*10),
		Samples:           v.Occurrences,
	}, nil
}

// SuggestTiming proposes a controller configuration for hour. The second
// result is false when there is no history for that hour.
func (p *Predictor) SuggestTiming(hour, days int, now time.Time) (TimingSuggestion, bool, error) {
	prediction, err := p.Predict(hour, days, now)
	if err != nil || prediction.Confidence == 0 {
		return TimingSuggestion{Hour: hour}, false, err
	}

	cfg := junction.DefaultConfig()
	cfg.MinGreen = 15
	cfg.MaxGreen = 70
	switch {
	case prediction.PredictedVehicles > heavyVehicles:
		cfg.CycleBudget = HeavyCycleBudget
	case prediction.PredictedVehicles > busyVehicles:
		cfg.CycleBudget = BusyCycleBudget
	default:
		cfg.CycleBudget = LightCycleBudget
	}

	return TimingSuggestion{
		Hour:            hour,
		Config:          cfg,
		BasedOnVehicles: prediction.PredictedVehicles,
		Confidence:      prediction.Confidence,
	}, true, nil
}

// Anomalies lists the hours of the last days days whose peak exceeds
// SpikeFactor times their average, earliest hour first
func (p *Predictor) Anomalies(days int, now time.Time) ([]Anomaly, error) {
	volumes, err := p.store.PeakHours(days, now, nil)
	if err != nil {
		return nil, err
	}

	var anomalies []Anomaly
	for hour, v := range volumes {
		if float64(v.PeakVehicles) > v.AverageVehicles*SpikeFactor {
			anomalies = append(anomalies, Anomaly{
				Hour:         hour,
				Type:         "traffic_spike",
				NormalAvg:    int(v.AverageVehicles),
				ObservedPeak: v.PeakVehicles,
				Deviation:    int(float64(v.PeakVehicles) - v.AverageVehicles),
			})
		}
	}
	sort.Slice(anomalies, func(i, j int) bool { return anomalies[i].Hour < anomalies[j].Hour })
	return anomalies, nil
}
