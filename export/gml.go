package export

import (
	"fmt"
	"io"
	"strings"

	"text2phenotype.com/kg/graph"
	"text2phenotype.com/kg/utils"
)

// EncodeGML writes g as a directed GML graph. Nodes carry their text as label;
// edges reference node ids and carry relation and confidence.
func EncodeGML(w io.Writer, g *graph.Graph) error {
	ew := &errWriter{w: w}
	ew.printf("graph [\n  directed 1\n")
	for _, node := range g.Nodes() {
		ew.printf("  node [\n    id %d\n    label %s\n  ]\n", node.ID, quoteGML(node.Label))
	}
	for _, edge := range g.Edges() {
		source, _ := g.Node(edge.Source)
		target, _ := g.Node(edge.Target)
		ew.printf("  edge [\n    source %d\n    target %d\n    relation %s\n    confidence %s\n  ]\n",
			source.ID, target.ID, quoteGML(edge.Relation), FormatConfidence(edge.Confidence))
	}
	ew.printf("]\n")
	return ew.err
}

func WriteGML(path string, g *graph.Graph) error {
	return utils.WriteFileAtomic(path, func(w io.Writer) error {
		return EncodeGML(w, g)
	})
}

// quoteGML quotes s for a GML string value. GML files are 7-bit: quotes,
// ampersands and non-ASCII characters become character references.
func quoteGML(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"':
			b.WriteString("&quot;")
		case r == '&':
			b.WriteString("&amp;")
		case r > 126 || r < 32:
			fmt.Fprintf(&b, "&#%d;", r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
