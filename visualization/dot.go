package visualization

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/anggasct/junction"
)

// DOTGenerator generates Graphviz DOT format representations of a junction
// rotation at one point in time
type DOTGenerator struct {
	snapshot    junction.Snapshot
	transitions []junction.Transition
	options     DOTOptions
}

// DOTOptions configures the DOT generation
type DOTOptions struct {
	ShowVehicles   bool
	ShowGreenTimes bool
	ShowCongestion bool
	RankDirection  string // "TB", "LR", "BT", "RL"
	NodeShape      string
	GreenFill      string
	RedFill        string
	HighPenWidth   int
}

// DefaultDOTOptions returns sensible default options for DOT generation
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		ShowVehicles:   true,
		ShowGreenTimes: true,
		ShowCongestion: true,
		RankDirection:  "LR",
		NodeShape:      "box",
		GreenFill:      "palegreen",
		RedFill:        "mistyrose",
		HighPenWidth:   3,
	}
}

// NewDOTGenerator creates a DOT generator for the current state of c
func NewDOTGenerator(c *junction.Controller, options ...DOTOptions) *DOTGenerator {
	return NewSnapshotDOTGenerator(c.SignalState(), c.Rotation(), options...)
}

// NewSnapshotDOTGenerator creates a DOT generator for a snapshot taken from
// a controller using rotation. The snapshot decides which lane is drawn
// green, so overlays such as an emergency override render as reported.
func NewSnapshotDOTGenerator(snap junction.Snapshot, rotation *junction.Rotation, options ...DOTOptions) *DOTGenerator {
	opts := DefaultDOTOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	return &DOTGenerator{
		snapshot:    snap,
		transitions: rotation.Transitions(),
		options:     opts,
	}
}

// Generate creates a DOT representation of the rotation
func (g *DOTGenerator) Generate() (string, error) {
	var dot strings.Builder

	dot.WriteString("digraph Junction {\n")
	dot.WriteString(fmt.Sprintf("  rankdir=%s;\n", g.options.RankDirection))
	dot.WriteString(fmt.Sprintf("  node [shape=%s];\n", g.options.NodeShape))
	dot.WriteString("  edge [fontsize=10];\n")
	dot.WriteString(fmt.Sprintf("  label=\"cycle %d, %d vehicles\";\n\n", g.snapshot.Cycle, g.snapshot.TotalVehicles))

	if err := g.generateLanes(&dot); err != nil {
		return "", fmt.Errorf("failed to generate lanes: %w", err)
	}

	g.generateTransitions(&dot)

	dot.WriteString("}\n")

	return dot.String(), nil
}

// generateLanes generates DOT nodes for all lanes in rotation order
func (g *DOTGenerator) generateLanes(dot *strings.Builder) error {
	dot.WriteString("  // Lanes\n")

	states := g.snapshot.Map()
	for _, t := range g.transitions {
		state, ok := states[t.SourceLane]
		if !ok {
			return fmt.Errorf("snapshot has no entry for %s", t.SourceLane)
		}
		g.generateLaneNode(dot, state)
	}
	return nil
}

// generateLaneNode generates a DOT node for a single lane
func (g *DOTGenerator) generateLaneNode(dot *strings.Builder, state junction.LaneState) {
	fillColor := g.options.RedFill
	if state.Signal == junction.Green {
		fillColor = g.options.GreenFill
	}

	label := fmt.Sprintf("%s\\n%s", state.Lane, state.Signal)
	if g.options.ShowVehicles {
		label += fmt.Sprintf("\\n%d vehicles", state.Vehicles)
	}
	if g.options.ShowGreenTimes {
		label += fmt.Sprintf("\\ngreen %ds", state.GreenTime)
	}
	if g.options.ShowCongestion {
		label += fmt.Sprintf("\\n%s", state.Congestion)
	}

	penWidth := 1
	if state.Congestion == junction.High && g.options.HighPenWidth > 0 {
		penWidth = g.options.HighPenWidth
	}

	dot.WriteString(fmt.Sprintf("  \"%s\" [style=\"filled\" fillcolor=%s penwidth=%d label=\"%s\"];\n",
		state.Lane, fillColor, penWidth, label))
}

// generateTransitions generates DOT edges along the rotation
func (g *DOTGenerator) generateTransitions(dot *strings.Builder) {
	dot.WriteString("  // Rotation\n")

	for _, t := range g.transitions {
		style := "solid"
		if t.SourceLane == g.snapshot.CurrentLane {
			style = "bold"
		}
		dot.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [label=\"%s\" style=%s];\n",
			t.SourceLane, t.TargetLane, t.EventName, style))
	}
}

// GenerateToFile writes the DOT representation to a file
func (g *DOTGenerator) GenerateToFile(filename string) error {
	content, err := g.Generate()
	if err != nil {
		return err
	}

	return os.WriteFile(filename, []byte(content), 0644)
}

// GenerateSVG renders the DOT representation through the Graphviz dot
// command
func (g *DOTGenerator) GenerateSVG() (string, error) {
	dotContent, err := g.Generate()
	if err != nil {
		return "", err
	}

	cmd := exec.Command("dot", "-Tsvg")
	cmd.Stdin = strings.NewReader(dotContent)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to execute dot command: %w (make sure Graphviz is installed)", err)
	}

	return out.String(), nil
}
