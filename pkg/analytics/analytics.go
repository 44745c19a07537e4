// Package analytics keeps an in-memory log of junction snapshots and derives
// traffic figures from it.
package analytics

import (
	"encoding/json"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/anggasct/junction"
	"github.com/samber/lo"
)

const (
	// Capacity is the per-junction vehicle total treated as fully congested
	Capacity = 100

	// SecondsPerCycle estimates how long a vehicle waits per rotation step
	SecondsPerCycle = 5

	// DefaultTrendWindow is the number of entries Trend looks at when given
	// a non-positive window
	DefaultTrendWindow = 10

	// DefaultLimit is the number of entries a recorder keeps before it
	// drops the oldest
	DefaultLimit = 1000

	peakHourCount = 3
)

// Trend directions
const (
	TrendIncreasing       = "increasing"
	TrendDecreasing       = "decreasing"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient_data"
)

// Entry is one logged snapshot
type Entry struct {
	Timestamp  time.Time           `json:"timestamp"`
	JunctionID int                 `json:"junction_id"`
	Signals    junction.Snapshot   `json:"signal_state"`
	Statistics junction.Statistics `json:"statistics"`
	Congestion float64             `json:"congestion_level"`
	Throughput int                 `json:"throughput"`
}

// Efficiency summarises congestion across every entry
type Efficiency struct {
	Score             float64 `json:"efficiency_score"`
	TotalThroughput   int     `json:"total_throughput"`
	AverageCongestion float64 `json:"average_congestion"`
	Snapshots         int     `json:"total_snapshots"`
}

// LaneMetrics aggregates one lane across entries
type LaneMetrics struct {
	TotalVehicles int `json:"total_vehicles"`
	TimesGreen    int `json:"times_green"`
	Throughput    int `json:"throughput"`
}

// Trend compares the newest entry of a window with the oldest
type Trend struct {
	Direction     string  `json:"trend"`
	Current       float64 `json:"current_congestion"`
	Previous      float64 `json:"previous_congestion"`
	ChangePercent float64 `json:"change_percent"`
}

// Report is the document produced by Recorder.Report
type Report struct {
	GeneratedAt     time.Time                     `json:"generated_at"`
	TotalLogs       int                           `json:"total_logs"`
	TotalProcessed  int                           `json:"total_vehicles_processed"`
	Efficiency      Efficiency                    `json:"efficiency"`
	PeakHours       []int                         `json:"peak_hours"`
	AverageWaitTime float64                       `json:"average_wait_time"`
	LanePerformance map[junction.Lane]LaneMetrics `json:"lane_performance"`
}

// CongestionLevel maps a junction total onto 0..100
func CongestionLevel(total int) float64 {
	return math.Min(100, float64(total)/Capacity*100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Recorder collects snapshots, keeping at most its limit of the newest
// entries. The processed vehicle total covers every logged entry, dropped
// ones included. It is safe for concurrent use.
type Recorder struct {
	entries   []Entry
	limit     int
	processed int
	mutex     sync.RWMutex
}

// NewRecorder creates an empty recorder that keeps DefaultLimit entries
func NewRecorder() *Recorder {
	return NewRecorderWithLimit(DefaultLimit)
}

// NewRecorderWithLimit creates an empty recorder that keeps the newest
// limit entries. A non-positive limit means DefaultLimit.
func NewRecorderWithLimit(limit int) *Recorder {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Recorder{limit: limit}
}

// Limit returns the number of entries the recorder keeps
func (r *Recorder) Limit() int {
	return r.limit
}

// Log records a snapshot taken at the given time
func (r *Recorder) Log(at time.Time, junctionID int, snap junction.Snapshot, stats junction.Statistics) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.entries = append(r.entries, Entry{
		Timestamp:  at,
		JunctionID: junctionID,
		Signals:    snap,
		Statistics: stats,
		Congestion: CongestionLevel(stats.TotalVehicles),
		Throughput: stats.TotalVehicles,
	})
	if n := len(r.entries); n > r.limit {
		r.entries = r.entries[n-r.limit:]
	}
	r.processed += stats.TotalVehicles
}

// Len returns the number of entries
func (r *Recorder) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.entries)
}

// Entries returns a copy of every entry in logging order
func (r *Recorder) Entries() []Entry {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return append([]Entry(nil), r.entries...)
}

// filter returns the entries of one junction, or all when junctionID is
// nil; the caller holds the lock
func (r *Recorder) filter(junctionID *int) []Entry {
	if junctionID == nil {
		return r.entries
	}
	return lo.Filter(r.entries, func(e Entry, _ int) bool {
		return e.JunctionID == *junctionID
	})
}

// PeakHours returns up to three hours of the day with the highest average
// throughput, busiest first. Equal averages list the earlier hour first.
func (r *Recorder) PeakHours() []int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.peakHours()
}

func (r *Recorder) peakHours() []int {
	byHour := lo.GroupBy(r.entries, func(e Entry) int { return e.Timestamp.Hour() })

	averages := make(map[int]float64, len(byHour))
	for hour, entries := range byHour {
		total := lo.SumBy(entries, func(e Entry) int { return e.Throughput })
		averages[hour] = float64(total) / float64(len(entries))
	}

	hours := lo.Keys(averages)
	sort.Slice(hours, func(i, j int) bool {
		if averages[hours[i]] != averages[hours[j]] {
			return averages[hours[i]] > averages[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > peakHourCount {
		hours = hours[:peakHourCount]
	}
	return hours
}

// AverageWaitTime estimates the mean wait in seconds as the cycle number
// times SecondsPerCycle, averaged over the selected entries
func (r *Recorder) AverageWaitTime(junctionID *int) float64 {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.averageWaitTime(junctionID)
}

func (r *Recorder) averageWaitTime(junctionID *int) float64 {
	entries := r.filter(junctionID)
	if len(entries) == 0 {
		return 0
	}
	total := lo.SumBy(entries, func(e Entry) int { return e.Statistics.CycleNumber * SecondsPerCycle })
	return float64(total) / float64(len(entries))
}

// Efficiency returns 100 minus the average congestion level, floored at 0
func (r *Recorder) Efficiency() Efficiency {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.efficiency()
}

func (r *Recorder) efficiency() Efficiency {
	if len(r.entries) == 0 {
		return Efficiency{}
	}
	congestion := lo.SumBy(r.entries, func(e Entry) float64 { return e.Congestion }) / float64(len(r.entries))
	return Efficiency{
		Score:             round1(math.Max(0, 100-congestion)),
		TotalThroughput:   r.processed,
		AverageCongestion: round1(congestion),
		Snapshots:         len(r.entries),
	}
}

// LanePerformance sums vehicles and green phases per lane
func (r *Recorder) LanePerformance(junctionID *int) map[junction.Lane]LaneMetrics {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.lanePerformance(junctionID)
}

func (r *Recorder) lanePerformance(junctionID *int) map[junction.Lane]LaneMetrics {
	metrics := make(map[junction.Lane]LaneMetrics)
	for _, e := range r.filter(junctionID) {
		for _, state := range e.Signals.Lanes {
			m := metrics[state.Lane]
			m.TotalVehicles += state.Vehicles
			m.Throughput += state.Vehicles
			if state.Signal == junction.Green {
				m.TimesGreen++
			}
			metrics[state.Lane] = m
		}
	}
	return metrics
}

// Trend compares the last entry with the first of the most recent lastN
// entries. A rise of more than 10% is increasing, a fall of more than 10%
// is decreasing.
func (r *Recorder) Trend(lastN int) Trend {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if len(r.entries) < 2 {
		return Trend{Direction: TrendInsufficientData}
	}
	if lastN <= 0 {
		lastN = DefaultTrendWindow
	}

	recent := r.entries[max(0, len(r.entries)-lastN):]
	first := recent[0].Congestion
	last := recent[len(recent)-1].Congestion

	trend := Trend{
		Direction: TrendStable,
		Current:   last,
		Previous:  first,
	}
	switch {
	case last > first*1.1:
		trend.Direction = TrendIncreasing
	case last < first*0.9:
		trend.Direction = TrendDecreasing
	}
	if first > 0 {
		trend.ChangePercent = round1((last - first) / first * 100)
	}
	return trend
}

// Report renders every figure as indented JSON
func (r *Recorder) Report(now time.Time) ([]byte, error) {
	r.mutex.RLock()
	report := Report{
		GeneratedAt:     now,
		TotalLogs:       len(r.entries),
		TotalProcessed:  r.processed,
		Efficiency:      r.efficiency(),
		PeakHours:       r.peakHours(),
		AverageWaitTime: round1(r.averageWaitTime(nil)),
		LanePerformance: r.lanePerformance(nil),
	}
	r.mutex.RUnlock()

	return json.MarshalIndent(report, "", "  ")
}

// Clear drops every entry and counter
func (r *Recorder) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.entries = nil
	r.processed = 0
}
