package graph

import "text2phenotype.com/kg/types"

// Node is one distinct entity text. ID is its creation order.
type Node struct {
	ID    int
	Label string
}

type EdgeKey struct {
	Source string
	Target string
}

// Edge is the single best fact observed for an ordered node pair.
type Edge struct {
	EdgeKey
	Relation   string
	Confidence float64
}

// Graph is a directed graph with at most one edge per ordered pair. Nodes and
// edges are kept in creation order so exports are deterministic.
type Graph struct {
	nodes     map[string]*Node
	nodeOrder []*Node
	edges     map[EdgeKey]*Edge
	edgeOrder []*Edge
}

type Stats struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		edges: make(map[EdgeKey]*Edge),
	}
}

// Consolidate folds records into a graph in a single ordered pass.
func Consolidate(records []types.TripleRecord) *Graph {
	g := New()
	for _, rec := range records {
		g.Add(rec.Triple)
	}
	return g
}

// EnsureNode returns the node for label, creating it on first sight.
func (g *Graph) EnsureNode(label string) *Node {
	if node, ok := g.nodes[label]; ok {
		return node
	}
	node := &Node{ID: len(g.nodeOrder), Label: label}
	g.nodes[label] = node
	g.nodeOrder = append(g.nodeOrder, node)
	return node
}

// Add merges a triple. An existing edge takes the new relation and confidence
// only when the new confidence is strictly greater, so earlier facts win ties.
// It reports whether the edge was created or replaced.
func (g *Graph) Add(t types.Triple) bool {
	g.EnsureNode(t.Subject)
	g.EnsureNode(t.Object)

	key := EdgeKey{Source: t.Subject, Target: t.Object}
	edge, ok := g.edges[key]
	if !ok {
		edge = &Edge{EdgeKey: key, Relation: t.Relation, Confidence: t.Confidence}
		g.edges[key] = edge
		g.edgeOrder = append(g.edgeOrder, edge)
		return true
	}
	if t.Confidence > edge.Confidence {
		edge.Relation = t.Relation
		edge.Confidence = t.Confidence
		return true
	}
	return false
}

func (g *Graph) Node(label string) (*Node, bool) {
	node, ok := g.nodes[label]
	return node, ok
}

func (g *Graph) Edge(source, target string) (*Edge, bool) {
	edge, ok := g.edges[EdgeKey{Source: source, Target: target}]
	return edge, ok
}

func (g *Graph) Nodes() []*Node {
	return g.nodeOrder
}

func (g *Graph) Edges() []*Edge {
	return g.edgeOrder
}

func (g *Graph) Stats() Stats {
	return Stats{Nodes: len(g.nodeOrder), Edges: len(g.edgeOrder)}
}
