// Package scene loads shardtool scene files: the pieces of one breakable
// body, the anchors holding it and shatter recipes that cut boxes into
// Voronoi cells.
package scene

import (
	"math/rand"
	"os"
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-shatter/pkg/breakable"
	"github.com/Faultbox/midgard-shatter/pkg/clip"
	"github.com/Faultbox/midgard-shatter/pkg/collide"
	"github.com/Faultbox/midgard-shatter/pkg/hull"
	"github.com/Faultbox/midgard-shatter/pkg/math"
	"github.com/Faultbox/midgard-shatter/pkg/mesh"
)

// ErrInvalidScene reports a scene entry that cannot be turned into geometry.
var ErrInvalidScene = errors.New("scene: invalid entry")

// Vec3 is a YAML triple.
type Vec3 [3]float32

func (v Vec3) vec() math.Vec3 { return math.FromArray(v) }

// Rotation is an axis-angle rotation in degrees.
type Rotation struct {
	Axis    Vec3    `yaml:"axis"`
	Degrees float32 `yaml:"degrees"`
}

// Placement positions an entry in compound space. Euler angles in degrees
// (X, then Y, then Z) are used when Rotation is not set.
type Placement struct {
	Position Vec3      `yaml:"position"`
	Rotation *Rotation `yaml:"rotation,omitempty"`
	Euler    *Vec3     `yaml:"euler,omitempty"`
}

// Matrix returns the rigid transform of the placement.
func (p Placement) Matrix() math.Mat4 {
	q := math.QuatIdentity()
	switch {
	case p.Rotation != nil:
		if r := p.Rotation; r.Degrees != 0 && r.Axis.vec().LengthSquared() > 0 {
			q = math.QuatFromAxisAngle(r.Axis.vec().Normalize(), r.Degrees*math32.Pi/180)
		}
	case p.Euler != nil:
		q = math.QuatFromEuler(p.Euler.vec())
	}
	return math.Pose(q, p.Position.vec())
}

// Piece is one authored piece. Exactly one of Box, OFF or Points is set.
type Piece struct {
	ID int `yaml:"id"`
	// Box holds half extents.
	Box    *Vec3        `yaml:"box,omitempty"`
	OFF    string       `yaml:"off,omitempty"`
	Points [][3]float64 `yaml:"points,omitempty"`

	Placement `yaml:",inline"`

	Density          float32 `yaml:"density"`
	Material         int     `yaml:"material"`
	InteriorMaterial *int    `yaml:"interior_material,omitempty"`
	BreakImpulse     float32 `yaml:"break_impulse"`
}

// Anchor is a static box the body is attached to.
type Anchor struct {
	Box       Vec3 `yaml:"box"`
	Placement `yaml:",inline"`
}

// Shatter cuts a box into Voronoi cells, each becoming a piece. Cell faces
// on the box surface keep Material; cut faces get InteriorMaterial, which
// defaults to Material+1.
type Shatter struct {
	Box       Vec3 `yaml:"box"`
	Placement `yaml:",inline"`

	Cells            int     `yaml:"cells"`
	Seed             int64   `yaml:"seed"`
	FirstID          int     `yaml:"first_id"`
	Density          float32 `yaml:"density"`
	Material         int     `yaml:"material"`
	InteriorMaterial *int    `yaml:"interior_material,omitempty"`
	BreakImpulse     float32 `yaml:"break_impulse"`
}

// Scene is a parsed scene file.
type Scene struct {
	Pieces  []Piece   `yaml:"pieces"`
	Anchors []Anchor  `yaml:"anchors"`
	Shatter []Shatter `yaml:"shatter"`

	// dir resolves relative OFF paths.
	dir string
}

// Load reads a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading scene")
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes scene YAML. dir is used to resolve relative OFF paths.
func Parse(data []byte, dir string) (*Scene, error) {
	s := &Scene{dir: dir}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, errors.Wrap(err, "parsing scene")
	}
	return s, nil
}

// Build turns the scene into compound input. seed is used by shatter
// recipes that do not set their own; tolerance is the hull tolerance.
func (s *Scene) Build(log *zap.Logger, seed int64, tolerance float64) ([]breakable.PieceDesc, []breakable.Anchor, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if tolerance <= 0 {
		tolerance = breakable.DefaultHullTolerance
	}

	var descs []breakable.PieceDesc
	for i, p := range s.Pieces {
		m, err := s.pieceMesh(p, tolerance)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "piece %d (id %d)", i, p.ID)
		}
		descs = append(descs, breakable.PieceDesc{
			Mesh:             m.Transform(p.Matrix()),
			ID:               p.ID,
			Density:          p.Density,
			HasInterior:      p.InteriorMaterial != nil,
			InteriorMaterial: interior(p.InteriorMaterial, breakable.NoInterior),
			BreakImpulse:     p.BreakImpulse,
		})
	}

	// Recipes own their random sources, so they can be cut in parallel.
	cells := make([][]breakable.PieceDesc, len(s.Shatter))
	errs := make([]error, len(s.Shatter))
	essentials.ConcurrentMap(0, len(s.Shatter), func(i int) {
		cells[i], errs[i] = shatter(s.Shatter[i], seed, tolerance)
	})
	for i, sh := range s.Shatter {
		if errs[i] != nil {
			return nil, nil, errors.Wrapf(errs[i], "shatter %d", i)
		}
		log.Debug("shattered box", zap.Int("recipe", i), zap.Int("cells", len(cells[i])), zap.Int("requested", sh.Cells))
		descs = append(descs, cells[i]...)
	}

	anchors := make([]breakable.Anchor, 0, len(s.Anchors))
	for _, a := range s.Anchors {
		anchors = append(anchors, breakable.Anchor{
			Shape:  collide.Box{Half: mgl64.Vec3{float64(a.Box[0]), float64(a.Box[1]), float64(a.Box[2])}},
			Matrix: a.Matrix(),
		})
	}

	log.Info("scene built", zap.Int("pieces", len(descs)), zap.Int("anchors", len(anchors)))
	return descs, anchors, nil
}

func interior(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func (s *Scene) pieceMesh(p Piece, tolerance float64) (*mesh.Mesh, error) {
	set := 0
	if p.Box != nil {
		set++
	}
	if p.OFF != "" {
		set++
	}
	if len(p.Points) > 0 {
		set++
	}
	if set != 1 {
		return nil, errors.Wrap(ErrInvalidScene, "need exactly one of box, off, points")
	}

	switch {
	case p.Box != nil:
		return mesh.Box(p.Box.vec(), p.Material), nil
	case p.OFF != "":
		path := p.OFF
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.dir, path)
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "opening off file")
		}
		defer f.Close()
		return mesh.ReadOFF(f, p.Material)
	default:
		pts := make([]mgl64.Vec3, len(p.Points))
		for i, v := range p.Points {
			pts[i] = v
		}
		h, err := hull.Build(pts, tolerance)
		if err != nil {
			return nil, err
		}
		return mesh.FromHull(h, p.Material), nil
	}
}

func shatter(sh Shatter, defaultSeed int64, tolerance float64) ([]breakable.PieceDesc, error) {
	if sh.Cells < 1 {
		return nil, errors.Wrapf(ErrInvalidScene, "%d cells", sh.Cells)
	}
	half := mgl64.Vec3{float64(sh.Box[0]), float64(sh.Box[1]), float64(sh.Box[2])}
	box, err := hull.Build(collide.Box{Half: half}.Points(), tolerance)
	if err != nil {
		return nil, err
	}

	seed := sh.Seed
	if seed == 0 {
		seed = defaultSeed
	}
	seeds := clip.RandomSeeds(box, sh.Cells, rand.New(rand.NewSource(seed)))
	cells, err := clip.VoronoiPartition(box, seeds, tolerance)
	if err != nil {
		return nil, err
	}

	inner := interior(sh.InteriorMaterial, sh.Material+1)
	pose := sh.Matrix()
	descs := make([]breakable.PieceDesc, 0, len(cells))
	for i, cell := range cells {
		m := cellMesh(cell, half, sh.Material, inner)
		descs = append(descs, breakable.PieceDesc{
			Mesh:             m.Transform(pose),
			ID:               sh.FirstID + i,
			Density:          sh.Density,
			HasInterior:      true,
			InteriorMaterial: inner,
			BreakImpulse:     sh.BreakImpulse,
		})
	}
	return descs, nil
}

// cellMesh triangulates a Voronoi cell, giving faces that lie on the box
// surface the outer material and cut faces the inner one.
func cellMesh(cell *hull.Hull, half mgl64.Vec3, outer, inner int) *mesh.Mesh {
	m := mesh.FromHull(cell, inner)
	t := 0
	for f, loop := range cell.Faces {
		material := inner
		if onBox(cell.Planes[f], half) {
			material = outer
		}
		for i := 0; i < len(loop)-2; i++ {
			m.Triangles[t].Material = material
			t++
		}
	}
	return m
}

func onBox(p hull.Plane, half mgl64.Vec3) bool {
	const eps = 1e-4
	for axis := 0; axis < 3; axis++ {
		n := p.Normal[axis]
		if n > 1-eps || n < -(1-eps) {
			// -D is the plane's distance from the origin along its normal.
			d := -p.D
			return d > half[axis]-eps*(1+half[axis]) && d < half[axis]+eps*(1+half[axis])
		}
	}
	return false
}
