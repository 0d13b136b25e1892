// shardtool is a CLI utility for building and breaking fracture compounds.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/unixpickle/essentials"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-shatter/internal/config"
	"github.com/Faultbox/midgard-shatter/internal/logger"
	"github.com/Faultbox/midgard-shatter/internal/scene"
	"github.com/Faultbox/midgard-shatter/pkg/breakable"
	"github.com/Faultbox/midgard-shatter/pkg/math"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	t := &tool{cfg: cfg, out: newReporter(os.Stdout, cfg.Output)}

	command := args[0]
	args = args[1:]

	switch command {
	case "info":
		t.cmdInfo(args)
	case "break":
		t.cmdBreak(args)
	case "radius":
		t.cmdRadius(args)
	case "ray":
		t.cmdRay(args)
	case "save":
		t.cmdSave(args)
	case "load":
		t.cmdLoad(args)
	case "shatter":
		t.cmdShatter(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`shardtool - breakable compound utility

Usage:
  shardtool [global options] <command> [options]

Global options:
  -config <file>        Config file (default ./shardtool.yaml)
  -debug                Debug logging and verbose reports
  -padding <d>          Collision padding
  -break-impulse <i>    Default break impulse
  -max-traversal <n>    Traversal stack limit
  -seed <n>             Shatter seed
  -format text|yaml     Report format

Commands:
  info <scene.yaml>                       Build the compound and show counts
  break <scene.yaml> <piece id>...        Remove pieces and list detached islands
  radius <scene.yaml> <x> <y> <z> <r>     List pieces within r of a point
  ray <scene.yaml> <x0 y0 z0> <x1 y1 z1>  First piece hit by a segment
  save <scene.yaml> <out.brk>             Build and serialize the compound
  load <file.brk>                         Load a serialized compound and show counts
  shatter <scene.yaml>                    List the pieces of every shatter recipe

Examples:
  shardtool info wall.yaml
  shardtool -format yaml break wall.yaml 3 4
  shardtool radius wall.yaml 0 1 0 0.5
  shardtool save wall.yaml wall.brk`)
}

type tool struct {
	cfg *config.Config
	out *reporter
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// build loads a scene, builds its compound and attaches the anchors.
func (t *tool) build(path string) *breakable.Compound {
	s, err := scene.Load(path)
	if err != nil {
		fail("Error: %v", err)
	}
	return t.buildScene(s)
}

func (t *tool) buildScene(s *scene.Scene) *breakable.Compound {
	log := logger.Named("breakable")
	descs, anchors, err := s.Build(logger.Named("scene"), t.cfg.Fracture.Seed, t.cfg.Fracture.HullTolerance)
	if err != nil {
		fail("Error: %v", err)
	}
	c, err := breakable.New(nil, descs, t.cfg.FractureOptions(log))
	if err != nil {
		fail("Error: %v", err)
	}
	if len(anchors) > 0 {
		if err := c.SetAnchoredParts(anchors); err != nil {
			fail("Error anchoring: %v", err)
		}
	}
	for _, sk := range c.Skipped() {
		logger.Warn("piece skipped", zap.Int("id", sk.ID), zap.Error(sk.Err))
	}
	logger.Debug("compound built",
		zap.Int("pieces", c.PieceCount()),
		zap.Int("anchors", len(anchors)),
		zap.Int("skipped", len(c.Skipped())))
	return c
}

func (t *tool) cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	pieces := fs.Bool("pieces", false, "List every piece")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fail("Usage: shardtool info <scene.yaml>")
	}
	c := t.build(fs.Arg(0))
	defer c.Release()

	t.out.stats(fs.Arg(0), c)
	if *pieces || t.cfg.Output.Verbose {
		t.out.pieces(c)
	}
}

func (t *tool) cmdBreak(args []string) {
	fs := flag.NewFlagSet("break", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fail("Usage: shardtool break <scene.yaml> <piece id>...")
	}
	c := t.build(fs.Arg(0))
	defer c.Release()

	removed := fs.Args()[1:]
	c.DeleteComponentBegin()
	for _, arg := range removed {
		id, err := strconv.Atoi(arg)
		if err != nil {
			fail("Bad piece id %q", arg)
		}
		node, ok := c.FindPiece(id)
		if !ok {
			fail("No piece %d", id)
		}
		essentials.Must(c.DeleteComponent(node))
	}
	islands, err := c.DeleteComponentEnd()
	if err != nil {
		fail("Error: %v", err)
	}
	defer func() {
		for _, isl := range islands {
			for _, p := range isl.Pieces {
				p.Shape.Release()
			}
		}
	}()
	logger.Sugar.Infof("removed %d pieces, %d islands detached", len(removed), len(islands))

	t.out.islands(islands)
	t.out.stats(fs.Arg(0), c)
}

func (t *tool) cmdRadius(args []string) {
	fs := flag.NewFlagSet("radius", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit results (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 5 {
		fail("Usage: shardtool radius <scene.yaml> <x> <y> <z> <r>")
	}
	v := parseFloats(fs.Args()[1:5])
	c := t.build(fs.Arg(0))
	defer c.Release()

	nodes, err := c.ComponentsInRadius(math.V3(v[0], v[1], v[2]), v[3], *limit)
	if err != nil {
		fail("Error: %v", err)
	}
	t.out.nodes(c, nodes)
}

func (t *tool) cmdRay(args []string) {
	fs := flag.NewFlagSet("ray", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 7 {
		fail("Usage: shardtool ray <scene.yaml> <x0> <y0> <z0> <x1> <y1> <z1>")
	}
	v := parseFloats(fs.Args()[1:7])
	c := t.build(fs.Arg(0))
	defer c.Release()

	hit, ok, err := c.RayCast(math.V3(v[0], v[1], v[2]), math.V3(v[3], v[4], v[5]))
	if err != nil {
		fail("Error: %v", err)
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "No hit")
		return
	}
	t.out.hit(c, hit)
}

func (t *tool) cmdSave(args []string) {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fail("Usage: shardtool save <scene.yaml> <out.brk>")
	}
	c := t.build(fs.Arg(0))
	defer c.Release()

	f, err := os.Create(fs.Arg(1))
	if err != nil {
		fail("Error creating file: %v", err)
	}
	defer f.Close()
	if err := c.Serialize(f); err != nil {
		fail("Error writing compound: %v", err)
	}
	info, err := f.Stat()
	essentials.Must(err)
	logger.Info("compound saved",
		zap.String("path", fs.Arg(1)),
		zap.Int64("bytes", info.Size()),
		zap.Int("pieces", c.PieceCount()))
}

func (t *tool) cmdLoad(args []string) {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fail("Usage: shardtool load <file.brk>")
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fail("Error: %v", err)
	}
	defer f.Close()

	c, err := breakable.Deserialize(f, nil, t.cfg.FractureOptions(logger.Named("breakable")))
	if err != nil {
		fail("Error loading compound: %v", err)
	}
	defer c.Release()

	t.out.stats(fs.Arg(0), c)
	if t.cfg.Output.Verbose {
		t.out.pieces(c)
	}
}

func (t *tool) cmdShatter(args []string) {
	fs := flag.NewFlagSet("shatter", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fail("Usage: shardtool shatter <scene.yaml>")
	}
	s, err := scene.Load(fs.Arg(0))
	if err != nil {
		fail("Error: %v", err)
	}
	if len(s.Shatter) == 0 {
		fail("Scene has no shatter recipes")
	}
	s.Pieces = nil

	c := t.buildScene(s)
	defer c.Release()
	t.out.pieces(c)
}

func parseFloats(args []string) []float32 {
	out := make([]float32, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 32)
		if err != nil {
			fail("Bad number %q", a)
		}
		out[i] = float32(v)
	}
	return out
}
