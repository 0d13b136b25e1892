package main

import (
	"bytes"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-shatter/internal/config"
	"github.com/Faultbox/midgard-shatter/pkg/breakable"
	"github.com/Faultbox/midgard-shatter/pkg/math"
	"github.com/Faultbox/midgard-shatter/pkg/mesh"
)

func testCompound(t *testing.T) *breakable.Compound {
	t.Helper()
	var descs []breakable.PieceDesc
	for i := 0; i < 3; i++ {
		descs = append(descs, breakable.PieceDesc{
			Mesh: mesh.Box(math.V3(0.5, 0.5, 0.5), 0).Transform(math.Translate(float32(i), 0, 0)),
			ID:   i,
		})
	}
	c, err := breakable.New(nil, descs, breakable.Options{})
	if err != nil {
		t.Fatalf("building compound: %v", err)
	}
	t.Cleanup(c.Release)
	return c
}

func TestReporterText(t *testing.T) {
	c := testCompound(t)
	var buf bytes.Buffer
	r := newReporter(&buf, config.OutputConfig{Format: "text"})

	r.stats("row", c)
	r.pieces(c)

	out := buf.String()
	for _, want := range []string{"Compound: row", "Pieces:   3 (0 skipped)", "Edges:    2", "(3 pieces)"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestReporterYAML(t *testing.T) {
	c := testCompound(t)
	var buf bytes.Buffer
	r := newReporter(&buf, config.OutputConfig{Format: "yaml"})

	r.nodes(c, c.Pieces())

	var doc struct {
		Pieces []pieceRow `yaml:"pieces"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if len(doc.Pieces) != 3 {
		t.Fatalf("expected 3 pieces, got %d", len(doc.Pieces))
	}
	for i, row := range doc.Pieces {
		if row.ID != i {
			t.Errorf("row %d has id %d", i, row.ID)
		}
		if row.Distance != breakable.DynamicIslandCost {
			t.Errorf("unanchored piece %d has distance %d", i, row.Distance)
		}
	}
}

func TestReporterIslands(t *testing.T) {
	var buf bytes.Buffer
	r := newReporter(&buf, config.OutputConfig{Format: "text"})

	r.islands(nil)
	r.islands([]breakable.Island{{Index: 4, Pieces: []breakable.DetachedPiece{{ID: 9, Mass: 1}, {ID: 2, Mass: 0.5}}}})

	out := buf.String()
	if !strings.Contains(out, "No islands detached") {
		t.Errorf("missing empty notice:\n%s", out)
	}
	if !strings.Contains(out, "Island 4: pieces [2 9], mass 1.5000") {
		t.Errorf("unexpected island line:\n%s", out)
	}
}
