package junction

import "testing"

func TestBuilder_Defaults(t *testing.T) {
	c, err := NewBuilder().Build()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if c.Config().MinGreen != DefaultMinGreen || c.Config().MaxGreen != DefaultMaxGreen {
		t.Errorf("Expected default bounds, got %+v", c.Config())
	}
	AssertGreen(t, c, North)
}

func TestBuilder_CustomTiming(t *testing.T) {
	observer := NewTestObserver()

	c, err := NewBuilder().
		MinGreen(5).
		MaxGreen(45).
		BaseGreen(15).
		CycleBudget(100).
		LaneOrder(East, West, North, South).
		Observe(observer).
		Build()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	AssertGreen(t, c, East)

	_ = c.SetVehicleCounts(map[Lane]int{North: 50, East: 3, South: 47})
	// 50/100*100 = 50 -> 45, 3/100*100 = 3 -> 5, 47 -> 45, 0 -> 5
	AssertGreenTimes(t, c, map[Lane]int{North: 45, East: 5, South: 45, West: 5})

	c.Advance()
	AssertGreen(t, c, West)
	if observer.AdvanceCount() != 1 {
		t.Errorf("Expected observer registered by the builder to see the advance")
	}
}

func TestBuilder_InvalidConfiguration(t *testing.T) {
	_, err := NewBuilder().MinGreen(30).MaxGreen(20).Build()
	if !IsConfigurationError(err) {
		t.Fatalf("Expected ConfigurationError, got %v", err)
	}

	_, err = NewBuilder().LaneOrder(North, North, South, West).Build()
	if !IsConfigurationError(err) {
		t.Fatalf("Expected ConfigurationError for repeated lane, got %v", err)
	}
}
