package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/anggasct/junction"
	"github.com/samber/lo"
)

// HourlyVolume describes the vehicle totals seen in one hour of the day
type HourlyVolume struct {
	AverageVehicles float64 `json:"average_vehicles"`
	PeakVehicles    int     `json:"peak_vehicles"`
	MinVehicles     int     `json:"min_vehicles"`
	Occurrences     int     `json:"occurrences"`
}

// CongestionPattern describes the congestion levels seen in one hour of
// the day
type CongestionPattern struct {
	AverageCongestion float64 `json:"average_congestion"`
	PeakCongestion    float64 `json:"peak_congestion"`
	MinCongestion     float64 `json:"min_congestion"`
}

// Summary aggregates a window of days
type Summary struct {
	DaysAnalyzed       int     `json:"days_analyzed"`
	Snapshots          int     `json:"total_snapshots"`
	TotalVehicles      int     `json:"total_vehicles"`
	AveragePerSnapshot float64 `json:"average_vehicles_per_snapshot"`
	PeakVehicles       int     `json:"peak_vehicles"`
	AverageCongestion  float64 `json:"average_congestion"`
	PeakCongestion     float64 `json:"peak_congestion"`
	DateRange          string  `json:"date_range"`
}

func byHour(records []Record) map[int][]Record {
	return lo.GroupBy(records, func(r Record) int { return r.Timestamp.Hour() })
}

// PeakHours groups the vehicle totals of the last days days by hour of day
func (s *Store) PeakHours(days int, now time.Time, junctionID *int) (map[int]HourlyVolume, error) {
	_, _, records, err := s.window(days, now, junctionID)
	if err != nil {
		return nil, err
	}

	volumes := make(map[int]HourlyVolume)
	for hour, group := range byHour(records) {
		totals := lo.Map(group, func(r Record, _ int) int { return r.Statistics.TotalVehicles })
		volumes[hour] = HourlyVolume{
			AverageVehicles: float64(lo.Sum(totals)) / float64(len(totals)),
			PeakVehicles:    lo.Max(totals),
			MinVehicles:     lo.Min(totals),
			Occurrences:     len(totals),
		}
	}
	return volumes, nil
}

// CongestionPatterns groups the congestion levels of the last days days by
// hour of day
func (s *Store) CongestionPatterns(days int, now time.Time, junctionID *int) (map[int]CongestionPattern, error) {
	_, _, records, err := s.window(days, now, junctionID)
	if err != nil {
		return nil, err
	}

	patterns := make(map[int]CongestionPattern)
	for hour, group := range byHour(records) {
		levels := lo.Map(group, func(r Record, _ int) float64 { return r.Congestion })
		patterns[hour] = CongestionPattern{
			AverageCongestion: lo.Sum(levels) / float64(len(levels)),
			PeakCongestion:    lo.Max(levels),
			MinCongestion:     lo.Min(levels),
		}
	}
	return patterns, nil
}

// Summary aggregates the last days days. The second result is false when
// the window holds no records.
func (s *Store) Summary(days int, now time.Time, junctionID *int) (Summary, bool, error) {
	start, end, records, err := s.window(days, now, junctionID)
	if err != nil || len(records) == 0 {
		return Summary{}, false, err
	}

	totals := lo.Map(records, func(r Record, _ int) int { return r.Statistics.TotalVehicles })
	levels := lo.Map(records, func(r Record, _ int) float64 { return r.Congestion })

	return Summary{
		DaysAnalyzed:       days,
		Snapshots:          len(records),
		TotalVehicles:      lo.Sum(totals),
		AveragePerSnapshot: float64(lo.Sum(totals)) / float64(len(records)),
		PeakVehicles:       lo.Max(totals),
		AverageCongestion:  lo.Sum(levels) / float64(len(records)),
		PeakCongestion:     lo.Max(levels),
		DateRange:          fmt.Sprintf("%s to %s", start.Format(DateLayout), end.Format(DateLayout)),
	}, true, nil
}

// CSVHeader lists the columns written by ExportCSV
var CSVHeader = []string{
	"timestamp",
	"junction_id",
	"total_vehicles",
	"congestion_level",
	"recorded_at",
	"vehicles_North",
	"vehicles_East",
	"vehicles_South",
	"vehicles_West",
}

// ExportCSV writes the records from start to end as CSV with a header row
// and returns the number of data rows. It returns ErrNoData and writes
// nothing when the range is empty.
func (s *Store) ExportCSV(w io.Writer, start, end time.Time, junctionID *int) (int, error) {
	records, err := s.Range(start, end, junctionID)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, ErrNoData
	}

	out := csv.NewWriter(w)
	if err := out.Write(CSVHeader); err != nil {
		return 0, err
	}
	for _, r := range records {
		row := []string{
			r.Timestamp.Format(time.RFC3339),
			strconv.Itoa(r.JunctionID),
			strconv.Itoa(r.Statistics.TotalVehicles),
			strconv.FormatFloat(r.Congestion, 'f', -1, 64),
			r.RecordedAt.Format(time.RFC3339),
		}
		for _, lane := range junction.DefaultLaneOrder {
			row = append(row, strconv.Itoa(r.Vehicles[lane]))
		}
		if err := out.Write(row); err != nil {
			return 0, err
		}
	}
	out.Flush()
	return len(records), out.Error()
}
