package breakable

import (
	"github.com/Faultbox/midgard-shatter/pkg/math"
	"github.com/Faultbox/midgard-shatter/pkg/mesh"
)

// PieceDesc describes one input piece of a compound.
type PieceDesc struct {
	// Mesh is the visual triangle stream; its hull becomes the collision shape.
	Mesh *mesh.Mesh
	ID   int
	// Density defaults to 1.
	Density float32
	// HasInterior enables InteriorMaterial. Without it every face is visible
	// on the intact compound.
	HasInterior bool
	// InteriorMaterial marks faces that are hidden until a neighbour breaks off.
	InteriorMaterial int
	// BreakImpulse defaults to Options.BreakImpulse.
	BreakImpulse float32
}

// NoInterior is the interior material of pieces that hide no faces.
const NoInterior = -1

func (d PieceDesc) interior() int {
	if !d.HasInterior {
		return NoInterior
	}
	return d.InteriorMaterial
}

// Piece is one fracturable convex part of a compound.
type Piece struct {
	shape            *ConvexShape
	offset           math.Mat4
	centroid         math.Vec3
	volume           float32
	mass             float32
	inertia          math.Vec3
	breakImpulse     float32
	density          float32
	id               int
	interiorMaterial int
	bounds           math.AABB

	node NodeID
	leaf int
	slot int
}

// ID returns the caller-assigned piece id.
func (p *Piece) ID() int { return p.id }

// Shape returns the shared collision shape, centred on the centroid.
func (p *Piece) Shape() *ConvexShape { return p.shape }

// Offset places the shape in compound space.
func (p *Piece) Offset() math.Mat4 { return p.offset }

// Centroid returns the centre of mass in compound space.
func (p *Piece) Centroid() math.Vec3 { return p.centroid }

// Volume returns the solid volume.
func (p *Piece) Volume() float32 { return p.volume }

// Mass returns density times volume.
func (p *Piece) Mass() float32 { return p.mass }

// Inertia returns the diagonal inertia about the centroid, scaled by mass.
func (p *Piece) Inertia() math.Vec3 { return p.inertia }

// BreakImpulse returns the impulse needed to knock the piece loose.
func (p *Piece) BreakImpulse() float32 { return p.breakImpulse }

// Density returns the piece density.
func (p *Piece) Density() float32 { return p.density }

// InteriorMaterial returns the material of faces hidden while intact, or
// NoInterior.
func (p *Piece) InteriorMaterial() int { return p.interiorMaterial }

// Bounds returns the padded compound-space box stored in the tree.
func (p *Piece) Bounds() math.AABB { return p.bounds }

// Node returns the graph node owning the piece.
func (p *Piece) Node() NodeID { return p.node }

// DetachedPiece is everything needed to turn a removed piece into a free
// rigid body. Shape carries its own reference; call Shape.Release when done.
type DetachedPiece struct {
	ID           int
	Shape        *ConvexShape
	Offset       math.Mat4
	Centroid     math.Vec3
	Volume       float32
	Mass         float32
	Inertia      math.Vec3
	BreakImpulse float32
	Mesh         *mesh.Mesh
}

// Island is a group of pieces that lost their path to the anchor together
// and should move as one body.
type Island struct {
	Index  int32
	Pieces []DetachedPiece
}

// SkippedPiece records an input piece whose hull could not be built.
type SkippedPiece struct {
	Index int
	ID    int
	Err   error
}
