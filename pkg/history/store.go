// Package history persists junction snapshots as JSON lines grouped by day
// and junction, and answers questions about past traffic.
package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/anggasct/junction"
	"github.com/anggasct/junction/pkg/analytics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DateLayout names the per-day directories
	DateLayout = "2006-01-02"

	dataFile       = "data.jsonl"
	junctionPrefix = "junction_"
)

// ErrNoData is returned by exports that found nothing to write
var ErrNoData = errors.New("no historical data in range")

// Record is one stored snapshot
type Record struct {
	ID         string                `json:"id"`
	Timestamp  time.Time             `json:"timestamp"`
	JunctionID int                   `json:"junction_id"`
	Signals    junction.Snapshot     `json:"signal_state"`
	Statistics junction.Statistics   `json:"statistics"`
	Vehicles   map[junction.Lane]int `json:"vehicles_per_lane"`
	Congestion float64               `json:"congestion_level"`
	RecordedAt time.Time             `json:"recorded_at"`
}

// NewRecord captures the current state of a controller
func NewRecord(at time.Time, junctionID int, c *junction.Controller) Record {
	stats := c.Statistics()
	return Record{
		Timestamp:  at,
		JunctionID: junctionID,
		Signals:    c.SignalState(),
		Statistics: stats,
		Vehicles:   c.VehicleCounts(),
		Congestion: analytics.CongestionLevel(stats.TotalVehicles),
	}
}

// Store is a directory of JSON-lines files laid out as
// <dir>/<YYYY-MM-DD>/junction_<id>/data.jsonl
type Store struct {
	dir    string
	logger zerolog.Logger
	now    func() time.Time
	mutex  sync.RWMutex
}

// Open creates dir if needed and returns a store rooted there
func Open(dir string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Dir returns the root directory
func (s *Store) Dir() string {
	return s.dir
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func junctionDir(id int) string {
	return fmt.Sprintf("%s%d", junctionPrefix, id)
}

// Save appends a record. A missing ID, timestamp or recording time is
// filled in.
func (s *Store) Save(record Record) error {
	now := s.now()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = now
	}
	record.RecordedAt = now

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	dir := filepath.Join(s.dir, record.Timestamp.Format(DateLayout), junctionDir(record.JunctionID))

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create junction dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, dataFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// ByDate returns every record stored for the day of date, optionally for
// one junction only
func (s *Store) ByDate(date time.Time, junctionID *int) ([]Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.byDate(date, junctionID)
}

func (s *Store) byDate(date time.Time, junctionID *int) ([]Record, error) {
	dateDir := filepath.Join(s.dir, date.Format(DateLayout))
	entries, err := os.ReadDir(dateDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dateDir, err)
	}

	var records []Record
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), junctionPrefix) {
			continue
		}
		if junctionID != nil && entry.Name() != junctionDir(*junctionID) {
			continue
		}
		found, err := s.readFile(filepath.Join(dateDir, entry.Name(), dataFile))
		if err != nil {
			return nil, err
		}
		records = append(records, found...)
	}
	return records, nil
}

// readFile decodes one data file. Lines that fail to decode are skipped.
func (s *Store) readFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record Record
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			s.logger.Warn().Err(err).Str("file", path).Int("line", n).Msg("skipping unreadable history record")
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, nil
}

// ByHour returns the records of date whose timestamp falls in the given
// hour of the day
func (s *Store) ByHour(hour int, date time.Time) ([]Record, error) {
	records, err := s.ByDate(date, nil)
	if err != nil {
		return nil, err
	}
	var matched []Record
	for _, r := range records {
		if r.Timestamp.Hour() == hour {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

// Range returns the records of every day from start to end, both included
func (s *Store) Range(start, end time.Time, junctionID *int) ([]Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var records []Record
	for d := day(start); !d.After(day(end)); d = d.AddDate(0, 0, 1) {
		found, err := s.byDate(d, junctionID)
		if err != nil {
			return nil, err
		}
		records = append(records, found...)
	}
	return records, nil
}

// window returns the records of the last days days ending on now
func (s *Store) window(days int, now time.Time, junctionID *int) (time.Time, time.Time, []Record, error) {
	end := day(now)
	start := end.AddDate(0, 0, -(days - 1))
	records, err := s.Range(start, end, junctionID)
	return start, end, records, err
}

// ClearOld removes the day directories older than keepDays days before now
// and returns how many were removed. Directories that are not named by a
// date are left alone.
func (s *Store) ClearOld(keepDays int, now time.Time) (int, error) {
	cutoff := day(now).AddDate(0, 0, -keepDays)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", s.dir, err)
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		date, err := time.ParseInLocation(DateLayout, entry.Name(), now.Location())
		if err != nil || !date.Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.dir, entry.Name())); err != nil {
			return removed, fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Str("cutoff", cutoff.Format(DateLayout)).Msg("cleared old history")
	}
	return removed, nil
}
