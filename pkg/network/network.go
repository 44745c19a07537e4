// Package network runs a small group of junctions side by side and reports
// on their combined load.
package network

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/anggasct/junction"
	"github.com/samber/lo"
)

const (
	// MinJunctions and MaxJunctions bound the size of a network
	MinJunctions = 2
	MaxJunctions = 4

	// LaneCapacity is the per-junction load that counts as half efficiency
	LaneCapacity = 25

	// CongestedThreshold and UnderusedThreshold drive Recommendations
	CongestedThreshold = 80
	UnderusedThreshold = 20
)

// Names are assigned to junctions in creation order
var Names = [MaxJunctions]string{"Downtown", "Midtown", "Uptown", "Suburb"}

// ErrUnknownJunction is returned for ids outside the network
var ErrUnknownJunction = errors.New("unknown junction")

// Mode describes how junctions relate to each other
type Mode string

const (
	Independent Mode = "independent"
	Coordinated Mode = "coordinated"
)

// Junction is one member of the network
type Junction struct {
	ID         int
	Name       string
	Controller *junction.Controller
	Active     bool
	Priority   float64
}

// JunctionState is a point-in-time view of one junction
type JunctionState struct {
	ID            int                 `json:"id"`
	Name          string              `json:"name"`
	Signals       junction.Snapshot   `json:"signal_state"`
	Statistics    junction.Statistics `json:"statistics"`
	TotalVehicles int                 `json:"total_vehicles"`
	Active        bool                `json:"active"`
	Priority      float64             `json:"priority"`
}

// Health summarises the whole network
type Health struct {
	TotalVehicles      int     `json:"total_vehicles"`
	AveragePerJunction float64 `json:"average_vehicles_per_junction"`
	Efficiency         float64 `json:"system_efficiency"`
	Mode               Mode    `json:"coordination_mode"`
	MostCongested      int     `json:"most_congested_junction"`
	MostCongestedName  string  `json:"most_congested_name"`
	MaxVehicles        int     `json:"max_vehicles_any_junction"`
	ActiveJunctions    int     `json:"active_junctions"`
}

// Recommendation is a suggestion for balancing load between junctions
type Recommendation struct {
	Type     string `json:"type"`
	Junction string `json:"junction"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Network owns a fixed set of junctions, each with its own controller
type Network struct {
	junctions []*Junction
	active    int
	mode      Mode
	now       func() time.Time
	mutex     sync.RWMutex
}

// New creates a network of n junctions, clamping n to the supported range.
// Every controller is built from cfg.
func New(n int, cfg junction.Config) (*Network, error) {
	n = lo.Clamp(n, MinJunctions, MaxJunctions)

	network := &Network{
		junctions: make([]*Junction, 0, n),
		mode:      Independent,
		now:       time.Now,
	}
	for id := 0; id < n; id++ {
		controller, err := junction.NewController(cfg)
		if err != nil {
			return nil, err
		}
		network.junctions = append(network.junctions, &Junction{
			ID:         id,
			Name:       Names[id],
			Controller: controller,
			Active:     true,
		})
	}
	return network, nil
}

// Len returns the number of junctions
func (n *Network) Len() int {
	return len(n.junctions)
}

func (n *Network) lookup(id int) (*Junction, error) {
	if id < 0 || id >= len(n.junctions) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownJunction, id)
	}
	return n.junctions[id], nil
}

// Junction returns the junction with the given id
func (n *Network) Junction(id int) (*Junction, error) {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.lookup(id)
}

// SetActive selects the junction returned by Active
func (n *Network) SetActive(id int) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if _, err := n.lookup(id); err != nil {
		return err
	}
	n.active = id
	return nil
}

// Active returns the selected junction
func (n *Network) Active() *Junction {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.junctions[n.active]
}

// SetMode sets the coordination mode
func (n *Network) SetMode(mode Mode) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.mode = mode
}

// Mode returns the coordination mode
func (n *Network) Mode() Mode {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.mode
}

// SetVehicleCount sets a lane count on one junction
func (n *Network) SetVehicleCount(id int, lane junction.Lane, count int) error {
	j, err := n.Junction(id)
	if err != nil {
		return err
	}
	return j.Controller.SetVehicleCount(lane, count)
}

// Advance advances one junction
func (n *Network) Advance(id int) error {
	j, err := n.Junction(id)
	if err != nil {
		return err
	}
	j.Controller.Advance()
	return nil
}

// AdvanceAll advances every junction once
func (n *Network) AdvanceAll() {
	n.mutex.RLock()
	defer n.mutex.RUnlock()

	for _, j := range n.junctions {
		j.Controller.Advance()
	}
}

func (n *Network) state(j *Junction) JunctionState {
	snap := j.Controller.SignalState()
	return JunctionState{
		ID:            j.ID,
		Name:          j.Name,
		Signals:       snap,
		Statistics:    j.Controller.Statistics(),
		TotalVehicles: snap.TotalVehicles,
		Active:        j.Active,
		Priority:      j.Priority,
	}
}

// States returns the state of every junction ordered by id
func (n *Network) States() []JunctionState {
	n.mutex.RLock()
	defer n.mutex.RUnlock()

	return lo.Map(n.junctions, func(j *Junction, _ int) JunctionState {
		return n.state(j)
	})
}

// Health computes network-wide load figures. Efficiency falls by 50 points
// for every LaneCapacity vehicles per junction and never drops below zero.
func (n *Network) Health() Health {
	states := n.States()
	count := len(states)

	total := lo.SumBy(states, func(s JunctionState) int { return s.TotalVehicles })
	load := float64(total) / float64(count*LaneCapacity)
	efficiency := math.Max(0, 100-load*50)

	busiest := lo.MaxBy(states, func(a, b JunctionState) bool {
		return a.TotalVehicles > b.TotalVehicles
	})

	return Health{
		TotalVehicles:      total,
		AveragePerJunction: float64(total) / float64(count),
		Efficiency:         math.Round(efficiency*10) / 10,
		Mode:               n.Mode(),
		MostCongested:      busiest.ID,
		MostCongestedName:  busiest.Name,
		MaxVehicles:        busiest.TotalVehicles,
		ActiveJunctions:    lo.CountBy(states, func(s JunctionState) bool { return s.Active }),
	}
}

// EnableCoordination switches to coordinated mode and ranks junctions by
// load. The busiest junction gets priority 1 and each following rank loses
// 1/n. Ties keep id order.
func (n *Network) EnableCoordination() {
	states := n.States()
	sort.SliceStable(states, func(i, k int) bool {
		return states[i].TotalVehicles > states[k].TotalVehicles
	})

	n.mutex.Lock()
	defer n.mutex.Unlock()

	n.mode = Coordinated
	for rank, s := range states {
		n.junctions[s.ID].Priority = 1 - float64(rank)/float64(len(n.junctions))
	}
}

// Recommendations flags congested and underused junctions
func (n *Network) Recommendations() []Recommendation {
	return lo.FilterMap(n.States(), func(s JunctionState, _ int) (Recommendation, bool) {
		switch {
		case s.TotalVehicles > CongestedThreshold:
			return Recommendation{
				Type:     "congestion",
				Junction: s.Name,
				Message:  fmt.Sprintf("High congestion at %s. Consider traffic diversion.", s.Name),
				Severity: "high",
			}, true
		case s.TotalVehicles < UnderusedThreshold:
			return Recommendation{
				Type:     "underutilized",
				Junction: s.Name,
				Message:  fmt.Sprintf("%s has low traffic. Available for overflow.", s.Name),
				Severity: "low",
			}, true
		}
		return Recommendation{}, false
	})
}

type export struct {
	Timestamp    time.Time           `json:"timestamp"`
	JunctionName string              `json:"junction_name"`
	SignalState  junction.Snapshot   `json:"signal_state"`
	Statistics   junction.Statistics `json:"statistics"`
}

// Export renders one junction as indented JSON
func (n *Network) Export(id int) ([]byte, error) {
	n.mutex.RLock()
	j, err := n.lookup(id)
	if err != nil {
		n.mutex.RUnlock()
		return nil, err
	}
	s := n.state(j)
	now := n.now()
	n.mutex.RUnlock()

	return json.MarshalIndent(export{
		Timestamp:    now,
		JunctionName: s.Name,
		SignalState:  s.Signals,
		Statistics:   s.Statistics,
	}, "", "  ")
}

// ResetAll resets every controller
func (n *Network) ResetAll() {
	n.mutex.RLock()
	defer n.mutex.RUnlock()

	for _, j := range n.junctions {
		j.Controller.Reset()
	}
}

// Toggle flips a junction between enabled and disabled
func (n *Network) Toggle(id int) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	j, err := n.lookup(id)
	if err != nil {
		return err
	}
	j.Active = !j.Active
	return nil
}
