package junction

import (
	"encoding/json"
	"testing"
)

func TestLane_String(t *testing.T) {
	testCases := map[Lane]string{
		North:    "North",
		East:     "East",
		South:    "South",
		West:     "West",
		Lane(7):  "Lane(7)",
		Lane(-1): "Lane(-1)",
	}
	for lane, want := range testCases {
		if got := lane.String(); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}

func TestParseLane(t *testing.T) {
	for _, name := range []string{"north", "NORTH", " North "} {
		lane, err := ParseLane(name)
		if err != nil {
			t.Fatalf("ParseLane(%q): unexpected error %v", name, err)
		}
		if lane != North {
			t.Errorf("ParseLane(%q): expected North, got %s", name, lane)
		}
	}

	_, err := ParseLane("Northeast")
	if !IsLaneError(err) {
		t.Fatalf("Expected LaneError, got %v", err)
	}
	if GetErrorCode(err) != ErrCodeInvalidLane {
		t.Errorf("Expected code %v, got %v", ErrCodeInvalidLane, GetErrorCode(err))
	}
}

func TestLane_JSON(t *testing.T) {
	data, err := json.Marshal(map[Lane]int{West: 3})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(data) != `{"West":3}` {
		t.Errorf("Unexpected encoding: %s", data)
	}

	var decoded struct {
		Lane Lane `json:"lane"`
	}
	if err := json.Unmarshal([]byte(`{"lane":"south"}`), &decoded); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if decoded.Lane != South {
		t.Errorf("Expected South, got %s", decoded.Lane)
	}

	if err := json.Unmarshal([]byte(`{"lane":"up"}`), &decoded); err == nil {
		t.Error("Expected error for unknown lane name")
	}
}

func TestSignalAndCongestion_String(t *testing.T) {
	if Green.String() != "GREEN" || Red.String() != "RED" {
		t.Errorf("Unexpected signal names %s/%s", Green, Red)
	}
	if Low.String() != "LOW" || Medium.String() != "MEDIUM" || High.String() != "HIGH" {
		t.Errorf("Unexpected congestion names %s/%s/%s", Low, Medium, High)
	}
}

func TestSignalAndCongestion_JSON(t *testing.T) {
	data, err := json.Marshal(LaneState{Lane: West, Vehicles: 31, Signal: Green, GreenTime: 24, Congestion: High})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded LaneState
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Signal != Green || decoded.Congestion != High || decoded.Lane != West {
		t.Errorf("Round trip lost data: %+v", decoded)
	}

	var s Signal
	if err := json.Unmarshal([]byte(`"AMBER"`), &s); !IsInputError(err) {
		t.Errorf("Expected InputError for unknown signal, got %v", err)
	}
	var c Congestion
	if err := json.Unmarshal([]byte(`"severe"`), &c); !IsInputError(err) {
		t.Errorf("Expected InputError for unknown congestion, got %v", err)
	}
}
