package breakable

import "go.uber.org/zap"

// Defaults.
const (
	DefaultBreakImpulse   = 2500
	DefaultHullTolerance  = 0.005
	DefaultWeldTolerance  = 1e-6
	DefaultMaxTraversal   = 1 << 16
	DefaultAnchorContacts = 4

	// DynamicIslandCost marks a node with no path to the anchor.
	DynamicIslandCost = 0x7fffffff

	// adjacencyGap is added to twice the collision padding to get the
	// separation under which two pieces count as touching.
	adjacencyGap = 0.05
)

// Options tunes compound construction and queries. Zero fields take the
// package defaults.
type Options struct {
	Logger *zap.Logger

	// CollisionPadding widens piece bounds and the adjacency threshold.
	CollisionPadding float32
	// HullTolerance is the relative point merge distance for piece hulls.
	HullTolerance float64
	// WeldTolerance is the grid used to weld the shared vertex buffer.
	WeldTolerance float32
	// BreakImpulse is used for pieces that do not set their own.
	BreakImpulse float32
	// MaxTraversal bounds every tree and graph traversal stack or queue.
	MaxTraversal int
	// AnchorContacts caps the contact count per anchor test.
	AnchorContacts int
}

// DefaultOptions returns Options with every default filled in.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.HullTolerance <= 0 {
		o.HullTolerance = DefaultHullTolerance
	}
	if o.WeldTolerance <= 0 {
		o.WeldTolerance = DefaultWeldTolerance
	}
	if o.BreakImpulse <= 0 {
		o.BreakImpulse = DefaultBreakImpulse
	}
	if o.MaxTraversal <= 0 {
		o.MaxTraversal = DefaultMaxTraversal
	}
	if o.AnchorContacts <= 0 {
		o.AnchorContacts = DefaultAnchorContacts
	}
	return o
}

// adjacencyThreshold is the touching distance 2*padding + gap.
func (o Options) adjacencyThreshold() float32 {
	return 2*o.CollisionPadding + adjacencyGap
}
