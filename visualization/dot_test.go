package visualization_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anggasct/junction"
	"github.com/anggasct/junction/visualization"
)

func TestDOTGeneration(t *testing.T) {
	c := junction.CreateCanonicalController()

	dotContent, err := visualization.NewDOTGenerator(c).Generate()
	if err != nil {
		t.Fatalf("Failed to generate DOT: %v", err)
	}

	expected := []string{
		"digraph Junction",
		"rankdir=LR",
		`label="cycle 0, 100 vehicles"`,
		`"North" [style="filled" fillcolor=palegreen penwidth=3 label="North\nGREEN\n40 vehicles\ngreen 32s\nHIGH"]`,
		`"East" [style="filled" fillcolor=mistyrose penwidth=1 label="East\nRED\n10 vehicles\ngreen 10s\nMEDIUM"]`,
		`"North" -> "East" [label="advance" style=bold]`,
		`"West" -> "North" [label="advance" style=solid]`,
	}
	for _, want := range expected {
		if !strings.Contains(dotContent, want) {
			t.Errorf("DOT content should contain %s", want)
		}
	}

	if n := strings.Count(dotContent, "->"); n != junction.NumLanes {
		t.Errorf("Expected %d rotation edges, got %d", junction.NumLanes, n)
	}

	t.Logf("Generated DOT content:\n%s", dotContent)
}

func TestDOTGeneration_FollowsCurrentLane(t *testing.T) {
	c := junction.New()
	c.Advance()
	c.Advance()

	dotContent, err := visualization.NewDOTGenerator(c).Generate()
	if err != nil {
		t.Fatalf("Failed to generate DOT: %v", err)
	}

	if !strings.Contains(dotContent, `"South" [style="filled" fillcolor=palegreen`) {
		t.Error("South should be drawn green after two advances")
	}
	if !strings.Contains(dotContent, `"South" -> "West" [label="advance" style=bold]`) {
		t.Error("The edge leaving the green lane should be bold")
	}
	if strings.Contains(dotContent, `"North" [style="filled" fillcolor=palegreen`) {
		t.Error("North should no longer be green")
	}
}

func TestDOTGeneration_CustomOrderAndOptions(t *testing.T) {
	c, err := junction.NewBuilder().LaneOrder(junction.West, junction.South, junction.East, junction.North).Build()
	if err != nil {
		t.Fatalf("Failed to build controller: %v", err)
	}

	opts := visualization.DefaultDOTOptions()
	opts.ShowVehicles = false
	opts.ShowGreenTimes = false
	opts.ShowCongestion = false
	opts.RankDirection = "TB"

	dotContent, err := visualization.NewDOTGenerator(c, opts).Generate()
	if err != nil {
		t.Fatalf("Failed to generate DOT: %v", err)
	}

	if !strings.Contains(dotContent, "rankdir=TB") {
		t.Error("Rank direction option should be applied")
	}
	if !strings.Contains(dotContent, `label="West\nGREEN"]`) {
		t.Error("Labels should only carry lane and signal")
	}
	if !strings.Contains(dotContent, `"North" -> "West"`) {
		t.Error("Rotation edges should follow the configured order")
	}
	if strings.Index(dotContent, `"West" [`) > strings.Index(dotContent, `"North" [`) {
		t.Error("Lanes should be listed in rotation order")
	}
}

func TestDOTGeneration_Snapshot(t *testing.T) {
	c := junction.New()
	snap := c.SignalState()
	for i := range snap.Lanes {
		snap.Lanes[i].Signal = junction.Red
	}
	snap.Lanes[3].Signal = junction.Green
	snap.CurrentLane = snap.Lanes[3].Lane

	dotContent, err := visualization.NewSnapshotDOTGenerator(snap, c.Rotation()).Generate()
	if err != nil {
		t.Fatalf("Failed to generate DOT: %v", err)
	}
	if !strings.Contains(dotContent, `"West" [style="filled" fillcolor=palegreen`) {
		t.Error("The snapshot's green lane should be drawn green")
	}

	if _, err := visualization.NewSnapshotDOTGenerator(junction.Snapshot{}, c.Rotation()).Generate(); err == nil {
		t.Error("Expected an error for a snapshot without lane entries")
	}
}

func TestGenerateToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junction.dot")

	if err := visualization.NewDOTGenerator(junction.New()).GenerateToFile(path); err != nil {
		t.Fatalf("Failed to write DOT file: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read DOT file: %v", err)
	}
	if !strings.HasPrefix(string(content), "digraph Junction {") {
		t.Error("File should contain the DOT graph")
	}
}
