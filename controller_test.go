package junction

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestController_InitialState(t *testing.T) {
	c := New()

	AssertGreen(t, c, North)
	AssertCycle(t, c, 0)

	for lane, n := range c.VehicleCounts() {
		if n != 0 {
			t.Errorf("Expected %s to start empty, got %d", lane, n)
		}
	}

	snap := c.SignalState()
	for _, ls := range snap.Lanes {
		if ls.GreenTime != DefaultBaseGreen {
			t.Errorf("Expected %s to get base green time on an empty junction, got %d", ls.Lane, ls.GreenTime)
		}
		if ls.Congestion != Low {
			t.Errorf("Expected %s congestion LOW, got %s", ls.Lane, ls.Congestion)
		}
	}
}

func TestController_CanonicalScenario(t *testing.T) {
	c := CreateCanonicalController()

	AssertGreenTimes(t, c, map[Lane]int{
		North: 32,
		South: 16,
		East:  10,
		West:  24,
	})

	snap := c.SignalState()
	if snap.TotalVehicles != 100 {
		t.Errorf("Expected 100 vehicles, got %d", snap.TotalVehicles)
	}
	if snap.Lane(North).Congestion != High {
		t.Errorf("Expected North HIGH, got %s", snap.Lane(North).Congestion)
	}
	if snap.Lane(East).Congestion != Medium {
		t.Errorf("Expected East MEDIUM, got %s", snap.Lane(East).Congestion)
	}
}

func TestController_ClampsAtBothBounds(t *testing.T) {
	c := New()
	if err := c.SetVehicleCount(South, 100); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	AssertGreenTimes(t, c, map[Lane]int{
		South: 60,
		North: 10,
		East:  10,
		West:  10,
	})
}

func TestController_SignalStateFollowsRotationOrder(t *testing.T) {
	c := New()
	snap := c.SignalState()

	for i, lane := range DefaultLaneOrder {
		if snap.Lanes[i].Lane != lane {
			t.Errorf("Expected position %d to be %s, got %s", i, lane, snap.Lanes[i].Lane)
		}
	}
}

func TestController_SetVehicleCountRejectsNegative(t *testing.T) {
	c := New()
	observer := NewTestObserver()
	c.AddObserver(observer)

	_ = c.SetVehicleCount(East, 7)
	err := c.SetVehicleCount(East, -3)

	if err == nil {
		t.Fatal("Expected error for negative count")
	}
	if !IsInputError(err) {
		t.Errorf("Expected InputError, got %T", err)
	}
	if GetErrorCode(err) != ErrCodeInvalidInput {
		t.Errorf("Expected code %v, got %v", ErrCodeInvalidInput, GetErrorCode(err))
	}
	if n, _ := c.VehicleCount(East); n != 7 {
		t.Errorf("Expected rejected input to leave count at 7, got %d", n)
	}
	if observer.RejectCount() != 1 {
		t.Errorf("Expected 1 rejection notification, got %d", observer.RejectCount())
	}
}

func TestController_SetVehicleCountRejectsOversizedCount(t *testing.T) {
	c := New()
	observer := NewTestObserver()
	c.AddObserver(observer)

	if err := c.SetVehicleCount(North, MaxVehicleCount); err != nil {
		t.Fatalf("Expected the ceiling itself to be accepted, got: %v", err)
	}

	for _, count := range []int{MaxVehicleCount + 1, math.MaxInt} {
		err := c.SetVehicleCount(East, count)
		if !IsInputError(err) {
			t.Fatalf("SetVehicleCount(%d): expected InputError, got %v", count, err)
		}
	}
	if err := c.SetVehicleCounts(map[Lane]int{South: 1, West: math.MaxInt}); !IsInputError(err) {
		t.Fatalf("Expected InputError from batch update, got %v", err)
	}
	if observer.RejectCount() != 3 {
		t.Errorf("Expected 3 rejection notifications, got %d", observer.RejectCount())
	}

	for _, lane := range []Lane{East, South, West} {
		_ = c.SetVehicleCount(lane, MaxVehicleCount)
	}
	stats := c.Statistics()
	if stats.TotalVehicles != NumLanes*MaxVehicleCount {
		t.Errorf("Expected total %d, got %d", NumLanes*MaxVehicleCount, stats.TotalVehicles)
	}
	if stats.AveragePerLane != float64(MaxVehicleCount) {
		t.Errorf("Expected average %d, got %v", MaxVehicleCount, stats.AveragePerLane)
	}
}

func TestController_SetVehicleCountRejectsUnknownLane(t *testing.T) {
	c := New()

	err := c.SetVehicleCount(Lane(4), 3)
	if !IsLaneError(err) {
		t.Fatalf("Expected LaneError, got %v", err)
	}

	if _, err := c.VehicleCount(Lane(-1)); !IsLaneError(err) {
		t.Errorf("Expected LaneError from VehicleCount, got %v", err)
	}
	if _, err := c.NextLane(Lane(12)); !IsLaneError(err) {
		t.Errorf("Expected LaneError from NextLane, got %v", err)
	}
}

func TestController_SetVehicleCountIsIdempotent(t *testing.T) {
	c := New()

	_ = c.SetVehicleCount(West, 12)
	first := c.SignalState()
	_ = c.SetVehicleCount(West, 12)
	second := c.SignalState()

	if first != second {
		t.Errorf("Expected identical snapshots, got %+v and %+v", first, second)
	}
}

func TestController_SetVehicleCountsIsAllOrNothing(t *testing.T) {
	c := New()

	err := c.SetVehicleCounts(map[Lane]int{North: 5, East: -1, South: 9})
	if err == nil {
		t.Fatal("Expected error for batch with negative count")
	}

	for lane, n := range c.VehicleCounts() {
		if n != 0 {
			t.Errorf("Expected %s untouched after rejected batch, got %d", lane, n)
		}
	}

	if err := c.SetVehicleCounts(map[Lane]int{North: 5, South: 9}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if n, _ := c.VehicleCount(South); n != 9 {
		t.Errorf("Expected South 9, got %d", n)
	}
}

func TestController_RotationVisitsEveryLane(t *testing.T) {
	c := New()

	AssertRotation(t, c, []Lane{East, South, West, North})
	AssertCycle(t, c, 4)
	AssertGreen(t, c, North)
}

func TestController_RotationIgnoresLoad(t *testing.T) {
	c := New()
	_ = c.SetVehicleCounts(map[Lane]int{North: 0, East: 0, South: 0, West: 90})

	c.Advance()
	AssertGreen(t, c, East)
}

func TestController_NextLane(t *testing.T) {
	c := New()

	testCases := map[Lane]Lane{
		North: East,
		East:  South,
		South: West,
		West:  North,
	}
	for from, want := range testCases {
		got, err := c.NextLane(from)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("NextLane(%s): expected %s, got %s", from, want, got)
		}
	}
}

func TestController_CustomLaneOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LaneOrder = []Lane{West, South, East, North}

	c, err := NewController(cfg)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	AssertGreen(t, c, West)
	AssertRotation(t, c, []Lane{South, East, North, West})

	_ = c.SetVehicleCounts(map[Lane]int{East: 8, West: 8})
	lane, n := c.MostCongestedLane()
	if lane != West || n != 8 {
		t.Errorf("Expected tie to go to West in this order, got %s (%d)", lane, n)
	}
}

func TestController_MostCongestedTieBreak(t *testing.T) {
	c := New()
	_ = c.SetVehicleCounts(map[Lane]int{North: 3, East: 15, South: 2, West: 15})

	lane, n := c.MostCongestedLane()
	if lane != East || n != 15 {
		t.Errorf("Expected East (15), got %s (%d)", lane, n)
	}

	c.Reset()
	lane, n = c.MostCongestedLane()
	if lane != North || n != 0 {
		t.Errorf("Expected North (0) on an empty junction, got %s (%d)", lane, n)
	}
}

func TestController_Statistics(t *testing.T) {
	c := New()
	_ = c.SetVehicleCounts(map[Lane]int{North: 1, East: 2, South: 0, West: 0})
	c.Advance()

	stats := c.Statistics()
	snap := c.SignalState()

	sum := 0
	for _, ls := range snap.Lanes {
		sum += ls.Vehicles
	}
	if stats.TotalVehicles != sum {
		t.Errorf("Expected total %d, got %d", sum, stats.TotalVehicles)
	}
	if stats.AveragePerLane != 0.75 {
		t.Errorf("Expected exact average 0.75, got %v", stats.AveragePerLane)
	}
	if stats.MostCongestedLane != East || stats.MaxVehicles != 2 {
		t.Errorf("Expected East with 2, got %s with %d", stats.MostCongestedLane, stats.MaxVehicles)
	}
	if stats.CurrentGreenLane != East {
		t.Errorf("Expected East green, got %s", stats.CurrentGreenLane)
	}
	if stats.CycleNumber != 1 {
		t.Errorf("Expected cycle 1, got %d", stats.CycleNumber)
	}
}

func TestController_ResetIsIdempotent(t *testing.T) {
	c := CreateCanonicalController()
	observer := NewTestObserver()
	c.AddObserver(observer)

	c.Advance()
	c.Advance()

	for i := 0; i < 2; i++ {
		c.Reset()

		AssertGreen(t, c, North)
		AssertCycle(t, c, 0)
		for lane, n := range c.VehicleCounts() {
			if n != 0 {
				t.Errorf("Reset %d: expected %s empty, got %d", i+1, lane, n)
			}
		}
	}

	if len(observer.Resets) != 2 {
		t.Errorf("Expected 2 reset notifications, got %d", len(observer.Resets))
	}
}

func TestController_ObserverNotifications(t *testing.T) {
	c := New()
	observer := NewTestObserver()
	c.AddObserver(observer)

	_ = c.SetVehicleCount(North, 4)
	_ = c.SetVehicleCount(North, 6)
	c.Advance()

	if len(observer.Counts) != 2 {
		t.Fatalf("Expected 2 count notifications, got %d", len(observer.Counts))
	}
	if observer.Counts[1].Previous != 4 || observer.Counts[1].Current != 6 {
		t.Errorf("Expected 4 -> 6, got %d -> %d", observer.Counts[1].Previous, observer.Counts[1].Current)
	}

	last := observer.LastAdvance()
	if last == nil {
		t.Fatal("Expected an advance notification")
	}
	if last.From != North || last.To != East {
		t.Errorf("Expected North -> East, got %s -> %s", last.From, last.To)
	}
	if last.Event.Name != EventAdvance || last.Event.Cycle != 1 || last.Event.ID == "" {
		t.Errorf("Unexpected advance event: %+v", last.Event)
	}

	c.RemoveObserver(observer)
	c.Advance()
	if observer.AdvanceCount() != 1 {
		t.Errorf("Expected removed observer to stop receiving events, got %d", observer.AdvanceCount())
	}
}

type panickingObserver struct {
	BaseObserver
	errors []error
}

func (o *panickingObserver) OnAdvance(from Lane, to Lane, event Event) {
	panic("boom")
}

func (o *panickingObserver) OnError(err error) {
	o.errors = append(o.errors, err)
}

func TestController_ObserverPanicDoesNotBreakController(t *testing.T) {
	c := New()
	bad := &panickingObserver{}
	good := NewTestObserver()
	c.AddObserver(bad)
	c.AddObserver(good)

	c.Advance()

	AssertGreen(t, c, East)
	if good.AdvanceCount() != 1 {
		t.Errorf("Expected second observer to be notified, got %d", good.AdvanceCount())
	}
	if len(bad.errors) != 1 || !strings.Contains(bad.errors[0].Error(), "OnAdvance") {
		t.Errorf("Expected panic to be reported via OnError, got %v", bad.errors)
	}
}

func TestController_ConcurrentAdvance(t *testing.T) {
	c := New()
	done := make(chan bool)

	for i := 0; i < 4; i++ {
		go ConcurrentAdvancer(c, 25, done)
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	AssertCycle(t, c, 100)
	AssertGreen(t, c, North)
}

func TestController_SnapshotJSON(t *testing.T) {
	c := CreateCanonicalController()

	data, err := json.Marshal(c.SignalState())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	body := string(data)
	for _, want := range []string{`"lane":"North"`, `"signal":"GREEN"`, `"signal":"RED"`, `"congestion":"HIGH"`, `"green_time":32`} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected JSON to contain %s, got %s", want, body)
		}
	}
}

func TestController_RestoreFromJSON(t *testing.T) {
	original := CreateCanonicalController()
	original.Advance()
	original.Advance()

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	restored := New()
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if restored.SignalState() != original.SignalState() {
		t.Errorf("Expected restored snapshot to match the original")
	}

	bad := strings.Replace(string(data), `"North":40`, `"North":-40`, 1)
	if err := json.Unmarshal([]byte(bad), New()); !IsInputError(err) {
		t.Errorf("Expected InputError for negative restored count, got %v", err)
	}

	huge := strings.Replace(string(data), `"North":40`, `"North":9223372036854775807`, 1)
	if err := json.Unmarshal([]byte(huge), New()); !IsInputError(err) {
		t.Errorf("Expected InputError for oversized restored count, got %v", err)
	}
}

func TestController_String(t *testing.T) {
	c := CreateCanonicalController()
	if got := c.String(); got != "junction[green=North cycle=0 vehicles=100]" {
		t.Errorf("Unexpected summary: %s", got)
	}
}
