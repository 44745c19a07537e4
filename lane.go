package junction

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Lane identifies one of the four approaches to the junction
type Lane int

const (
	North Lane = iota
	East
	South
	West
)

// NumLanes is the number of approaches of a four-way junction
const NumLanes = 4

// DefaultLaneOrder is the rotation order used when none is configured
var DefaultLaneOrder = [NumLanes]Lane{North, East, South, West}

var laneNames = [NumLanes]string{"North", "East", "South", "West"}

// String returns the lane name
func (l Lane) String() string {
	if !l.Valid() {
		return "Lane(" + strconv.Itoa(int(l)) + ")"
	}
	return laneNames[l]
}

// Valid reports whether the lane is one of the four fixed identifiers
func (l Lane) Valid() bool {
	return l >= North && l <= West
}

// ParseLane converts a lane name into a Lane. Matching is case-insensitive.
func ParseLane(name string) (Lane, error) {
	for i, n := range laneNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Lane(i), nil
		}
	}
	return 0, NewInvalidLaneError(name)
}

// MarshalText implements encoding.TextMarshaler so lanes can be map keys in JSON
func (l Lane) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, NewInvalidLaneError(l.String())
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (l *Lane) UnmarshalText(text []byte) error {
	parsed, err := ParseLane(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Signal is the colour shown to a lane
type Signal int

const (
	Red Signal = iota
	Green
)

// String returns the signal colour in upper case
func (s Signal) String() string {
	if s == Green {
		return "GREEN"
	}
	return "RED"
}

// MarshalJSON encodes the signal as its colour name
func (s Signal) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a colour name written by MarshalJSON
func (s *Signal) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch strings.ToUpper(name) {
	case "GREEN":
		*s = Green
	case "RED":
		*s = Red
	default:
		return NewInputError("signal", 0, "unknown signal "+strconv.Quote(name))
	}
	return nil
}

// Congestion is a qualitative load label derived from a vehicle count
type Congestion int

const (
	Low Congestion = iota
	Medium
	High
)

// Congestion thresholds. Both bounds belong to Medium.
const (
	MediumCongestionMin = 10
	MediumCongestionMax = 30
)

// String returns the congestion label in upper case
func (c Congestion) String() string {
	switch c {
	case Medium:
		return "MEDIUM"
	case High:
		return "HIGH"
	default:
		return "LOW"
	}
}

// MarshalJSON encodes the congestion as its label
func (c Congestion) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a label written by MarshalJSON
func (c *Congestion) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	switch strings.ToUpper(label) {
	case "LOW":
		*c = Low
	case "MEDIUM":
		*c = Medium
	case "HIGH":
		*c = High
	default:
		return NewInputError("congestion", 0, "unknown congestion level "+strconv.Quote(label))
	}
	return nil
}

// ClassifyCongestion maps a vehicle count onto Low, Medium or High.
// Counts below 10 are Low, 10 through 30 inclusive are Medium, the rest High.
func ClassifyCongestion(count int) Congestion {
	switch {
	case count < MediumCongestionMin:
		return Low
	case count <= MediumCongestionMax:
		return Medium
	default:
		return High
	}
}
