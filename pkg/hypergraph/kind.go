package hypergraph

// Kind identifies one of the four element classes.
type Kind uint8

const (
	KindVertex Kind = iota + 1
	KindEdge
	KindMultiEdge
	KindHyperEdge
)

func (k Kind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindEdge:
		return "edge"
	case KindMultiEdge:
		return "multiedge"
	case KindHyperEdge:
		return "hyperedge"
	}
	return "unknown"
}

// Kinds lists every element kind in declaration order.
var Kinds = []Kind{KindVertex, KindEdge, KindMultiEdge, KindHyperEdge}
