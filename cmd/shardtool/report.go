package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/unixpickle/essentials"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-shatter/internal/config"
	"github.com/Faultbox/midgard-shatter/pkg/breakable"
)

// reporter prints command results as aligned text or as YAML documents.
type reporter struct {
	w    io.Writer
	yaml bool
}

func newReporter(w io.Writer, cfg config.OutputConfig) *reporter {
	return &reporter{w: w, yaml: cfg.Format == "yaml"}
}

type pieceRow struct {
	ID       int        `yaml:"id"`
	Position [3]float32 `yaml:"position"`
	Volume   float32    `yaml:"volume"`
	Mass     float32    `yaml:"mass"`
	Island   int32      `yaml:"island"`
	Distance int32      `yaml:"distance"`
}

type islandRow struct {
	Index  int32   `yaml:"index"`
	Pieces []int   `yaml:"pieces"`
	Mass   float32 `yaml:"mass"`
}

func (r *reporter) emit(doc any) {
	enc := yaml.NewEncoder(r.w)
	enc.SetIndent(2)
	essentials.Must(enc.Encode(doc))
	essentials.Must(enc.Close())
}

func (r *reporter) stats(name string, c *breakable.Compound) {
	s := c.Stats()
	if r.yaml {
		r.emit(map[string]any{
			"compound":          name,
			"pieces":            s.Pieces,
			"skipped":           s.Skipped,
			"edges":             s.Edges,
			"anchored":          s.AnchoredPieces,
			"islands":           s.Islands,
			"vertices":          s.Vertices,
			"faces":             s.Faces,
			"visible_faces":     s.VisibleFaces,
			"materials":         s.Materials,
			"last_island_color": s.LastIslandColor,
		})
		return
	}
	fmt.Fprintf(r.w, "Compound: %s\n", name)
	fmt.Fprintf(r.w, "Pieces:   %d (%d skipped)\n", s.Pieces, s.Skipped)
	fmt.Fprintf(r.w, "Edges:    %d\n", s.Edges)
	fmt.Fprintf(r.w, "Anchored: %d\n", s.AnchoredPieces)
	fmt.Fprintf(r.w, "Islands:  %d\n", s.Islands)
	fmt.Fprintf(r.w, "Vertices: %d\n", s.Vertices)
	fmt.Fprintf(r.w, "Faces:    %d (%d visible, %d materials)\n", s.Faces, s.VisibleFaces, s.Materials)
}

func (r *reporter) pieceRows(c *breakable.Compound, nodes []breakable.NodeID) []pieceRow {
	rows := make([]pieceRow, 0, len(nodes))
	for _, id := range nodes {
		p, err := c.Piece(id)
		essentials.Must(err)
		island, err := c.Island(id)
		essentials.Must(err)
		dist, err := c.Distance(id)
		essentials.Must(err)
		rows = append(rows, pieceRow{
			ID:       p.ID(),
			Position: p.Centroid().Array(),
			Volume:   p.Volume(),
			Mass:     p.Mass(),
			Island:   island,
			Distance: dist,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

func (r *reporter) pieces(c *breakable.Compound) {
	r.nodes(c, c.Pieces())
}

func (r *reporter) nodes(c *breakable.Compound, nodes []breakable.NodeID) {
	rows := r.pieceRows(c, nodes)
	if r.yaml {
		r.emit(map[string]any{"pieces": rows})
		return
	}
	fmt.Fprintf(r.w, "%6s %26s %9s %9s %6s %s\n", "ID", "CENTROID", "VOLUME", "MASS", "ISLAND", "DIST")
	for _, row := range rows {
		dist := fmt.Sprint(row.Distance)
		if row.Distance == breakable.DynamicIslandCost {
			dist = "-"
		}
		fmt.Fprintf(r.w, "%6d (%7.3f %7.3f %7.3f) %9.4f %9.4f %6d %s\n",
			row.ID, row.Position[0], row.Position[1], row.Position[2],
			row.Volume, row.Mass, row.Island, dist)
	}
	fmt.Fprintf(r.w, "(%d pieces)\n", len(rows))
}

func (r *reporter) islands(islands []breakable.Island) {
	rows := make([]islandRow, 0, len(islands))
	for _, isl := range islands {
		row := islandRow{Index: isl.Index}
		for _, p := range isl.Pieces {
			row.Pieces = append(row.Pieces, p.ID)
			row.Mass += p.Mass
		}
		sort.Ints(row.Pieces)
		rows = append(rows, row)
	}
	if r.yaml {
		r.emit(map[string]any{"islands": rows})
		return
	}
	if len(rows) == 0 {
		fmt.Fprintln(r.w, "No islands detached")
		return
	}
	for _, row := range rows {
		fmt.Fprintf(r.w, "Island %d: pieces %v, mass %.4f\n", row.Index, row.Pieces, row.Mass)
	}
}

func (r *reporter) hit(c *breakable.Compound, hit breakable.RayHit) {
	p, err := c.Piece(hit.Node)
	essentials.Must(err)
	if r.yaml {
		r.emit(map[string]any{
			"piece":  p.ID(),
			"t":      hit.T,
			"point":  hit.Point.Array(),
			"normal": hit.Normal.Array(),
		})
		return
	}
	fmt.Fprintf(r.w, "Piece %d at t=%.4f point (%.3f %.3f %.3f) normal (%.3f %.3f %.3f)\n",
		p.ID(), hit.T, hit.Point.X, hit.Point.Y, hit.Point.Z, hit.Normal.X, hit.Normal.Y, hit.Normal.Z)
}
