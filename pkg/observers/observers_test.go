package observers_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/anggasct/junction"
	"github.com/anggasct/junction/pkg/logging"
	"github.com/anggasct/junction/pkg/observers"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggingObserver(t *testing.T) {
	t.Run("Logs advances at info level", func(t *testing.T) {
		var buf bytes.Buffer
		obs := observers.NewLoggingObserver(logging.New(&buf, zerolog.DebugLevel, logging.FormatJSON), observers.LogInfo, "Downtown")

		c := junction.New()
		c.AddObserver(obs)

		_ = c.SetVehicleCount(junction.North, 12)
		c.Advance()

		entries := decodeLines(t, &buf)
		require.Len(t, entries, 1, "count updates are debug and must be filtered")
		assert.Equal(t, "signal advanced", entries[0]["message"])
		assert.Equal(t, "North", entries[0]["from"])
		assert.Equal(t, "East", entries[0]["to"])
		assert.Equal(t, float64(1), entries[0]["cycle"])
		assert.Equal(t, "Downtown", entries[0]["junction"])
	})

	t.Run("Debug level includes count updates and rejections", func(t *testing.T) {
		var buf bytes.Buffer
		obs := observers.NewLoggingObserver(logging.New(&buf, zerolog.DebugLevel, logging.FormatJSON), observers.LogError, "")
		obs.SetLevel(observers.LogDebug)

		c := junction.New()
		c.AddObserver(obs)

		_ = c.SetVehicleCount(junction.West, 3)
		_ = c.SetVehicleCount(junction.West, -3)
		c.Reset()

		entries := decodeLines(t, &buf)
		require.Len(t, entries, 3)
		assert.Equal(t, "vehicle count updated", entries[0]["message"])
		assert.Equal(t, "input rejected", entries[1]["message"])
		assert.Equal(t, "warn", entries[1]["level"])
		assert.Contains(t, entries[1]["error"], "must not be negative")
		assert.Equal(t, "controller reset", entries[2]["message"])
		assert.NotContains(t, entries[0], "junction")
	})

	t.Run("Default observer uses the process logger", func(t *testing.T) {
		assert.NotNil(t, observers.NewDefaultLoggingObserver())
	})
}

func TestMetricsObserver(t *testing.T) {
	obs := observers.NewMetricsObserver()
	c := junction.New()
	c.AddObserver(obs)

	_, seen := obs.TimeSinceGreen(junction.South)
	assert.False(t, seen)

	for i := 0; i < 5; i++ {
		c.Advance()
	}
	_ = c.SetVehicleCount(junction.East, 8)
	_ = c.SetVehicleCount(junction.East, -8)

	assert.Equal(t, 5, obs.GetAdvanceCount())
	assert.Equal(t, map[junction.Lane]int{
		junction.East:  2,
		junction.South: 1,
		junction.West:  1,
		junction.North: 1,
	}, obs.GetGreenVisits())
	assert.Equal(t, 2, obs.GetTransitionCounts()["North->East"])
	assert.Equal(t, 1, obs.GetCountUpdates()[junction.East])
	assert.Equal(t, 1, obs.GetRejectionCount())

	elapsed, seen := obs.TimeSinceGreen(junction.South)
	assert.True(t, seen)
	assert.GreaterOrEqual(t, elapsed, time.Duration(0))

	c.Reset()
	assert.Equal(t, 1, obs.GetResetCount())

	obs.Reset()
	assert.Zero(t, obs.GetAdvanceCount())
	assert.Empty(t, obs.GetGreenVisits())
	assert.Zero(t, obs.GetErrorCount())
}

func TestValidationObserver(t *testing.T) {
	t.Run("Accepts a well-behaved controller", func(t *testing.T) {
		c := junction.New()
		obs := observers.NewValidationObserver(c.Rotation())
		c.AddObserver(obs)

		c.Advance()
		c.Advance()
		assert.False(t, obs.AllLanesVisited())
		c.Advance()
		c.Reset()
		c.Advance()

		assert.True(t, obs.IsValid(), obs.GetViolations())
		assert.True(t, obs.AllLanesVisited())
	})

	t.Run("Flags steps outside the rotation", func(t *testing.T) {
		rotation := junction.NewRotation(junction.DefaultLaneOrder)
		obs := observers.NewValidationObserver(rotation)

		obs.OnAdvance(junction.North, junction.South, junction.NewEvent(junction.EventAdvance, junction.South, 1, nil))
		obs.OnAdvance(junction.South, junction.West, junction.NewEvent(junction.EventAdvance, junction.West, 3, nil))

		violations := obs.GetViolations()
		require.Len(t, violations, 2)
		assert.Contains(t, violations[0], "North -> South")
		assert.Contains(t, violations[1], "cycle 3")

		obs.Reset()
		assert.True(t, obs.IsValid())
	})
}
