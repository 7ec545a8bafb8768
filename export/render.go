package export

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/fogleman/gg"

	"text2phenotype.com/kg/graph"
	"text2phenotype.com/kg/types"
	"text2phenotype.com/kg/utils"
)

var ErrEmptyGraph = errors.New("export: graph has no nodes to render")

const (
	maxRenderPixels = 100_000_000
	arrowLength     = 10.0
	arrowHalfWidth  = 4.0
)

type point struct {
	X, Y float64
}

// circularLayout places nodes evenly on a circle in creation order. A single
// node sits in the centre.
func circularLayout(nodes []*graph.Node, cfg types.RenderConfig) []point {
	cx, cy := float64(cfg.Width)/2, float64(cfg.Height)/2
	if len(nodes) == 1 {
		return []point{{cx, cy}}
	}
	radius := math.Min(cx, cy) - 4*cfg.NodeRadius
	if radius <= 0 {
		radius = math.Min(cx, cy) / 2
	}
	positions := make([]point, len(nodes))
	for i := range nodes {
		angle := 2*math.Pi*float64(i)/float64(len(nodes)) - math.Pi/2
		positions[i] = point{cx + radius*math.Cos(angle), cy + radius*math.Sin(angle)}
	}
	return positions
}

// RenderPNG draws g with a circular layout. Panics from the drawing code are
// returned as errors.
func RenderPNG(path string, g *graph.Graph, cfg types.RenderConfig) (err error) {
	defer utils.RecoverWithError(&err)

	if len(g.Nodes()) == 0 {
		return ErrEmptyGraph
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxRenderPixels {
		return fmt.Errorf("export: unsupported image size %dx%d", cfg.Width, cfg.Height)
	}

	positions := circularLayout(g.Nodes(), cfg)
	dc := gg.NewContext(cfg.Width, cfg.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetLineWidth(1.2)
	for _, edge := range g.Edges() {
		source, _ := g.Node(edge.Source)
		target, _ := g.Node(edge.Target)
		drawEdge(dc, positions[source.ID], positions[target.ID], edge, cfg)
	}

	for i, node := range g.Nodes() {
		p := positions[i]
		dc.DrawCircle(p.X, p.Y, cfg.NodeRadius)
		dc.SetRGB255(173, 216, 230)
		dc.FillPreserve()
		dc.SetRGB255(60, 90, 120)
		dc.Stroke()
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(node.Label, p.X, p.Y+cfg.NodeRadius+8, 0.5, 0.5)
	}

	return utils.WriteFileAtomic(path, func(w io.Writer) error {
		return dc.EncodePNG(w)
	})
}

func drawEdge(dc *gg.Context, from, to point, edge *graph.Edge, cfg types.RenderConfig) {
	dc.SetRGB255(120, 120, 120)
	if edge.Source == edge.Target {
		loopRadius := cfg.NodeRadius * 0.8
		dc.DrawCircle(from.X, from.Y-cfg.NodeRadius-loopRadius, loopRadius)
		dc.Stroke()
		if cfg.EdgeLabels {
			dc.SetRGB255(150, 40, 40)
			dc.DrawStringAnchored(edge.Relation, from.X, from.Y-cfg.NodeRadius-2*loopRadius-8, 0.5, 0.5)
		}
		return
	}

	dx, dy := to.X-from.X, to.Y-from.Y
	length := math.Hypot(dx, dy)
	if length <= 2*cfg.NodeRadius {
		return
	}
	ux, uy := dx/length, dy/length
	startX, startY := from.X+ux*cfg.NodeRadius, from.Y+uy*cfg.NodeRadius
	tipX, tipY := to.X-ux*cfg.NodeRadius, to.Y-uy*cfg.NodeRadius

	dc.DrawLine(startX, startY, tipX, tipY)
	dc.Stroke()

	baseX, baseY := tipX-ux*arrowLength, tipY-uy*arrowLength
	dc.MoveTo(tipX, tipY)
	dc.LineTo(baseX-uy*arrowHalfWidth, baseY+ux*arrowHalfWidth)
	dc.LineTo(baseX+uy*arrowHalfWidth, baseY-ux*arrowHalfWidth)
	dc.ClosePath()
	dc.Fill()

	if cfg.EdgeLabels {
		dc.SetRGB255(150, 40, 40)
		dc.DrawStringAnchored(edge.Relation, (startX+tipX)/2, (startY+tipY)/2, 0.5, 0.5)
	}
}
