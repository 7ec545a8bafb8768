package types

const (
	ConfidenceSVO           = 1.0
	ConfidencePrepositional = 0.7
	ConfidenceCooccurrence  = 0.4

	RelationRelatedTo = "related_to"
)

type Triple struct {
	Subject    string  `json:"subject"`
	Relation   string  `json:"relation"`
	Object     string  `json:"object"`
	Confidence float64 `json:"confidence"`
}

// TripleKey identifies a fact regardless of its confidence.
type TripleKey struct {
	Subject  string
	Relation string
	Object   string
}

func (t Triple) Key() TripleKey {
	return TripleKey{Subject: t.Subject, Relation: t.Relation, Object: t.Object}
}

// TripleRecord is a triple with the provenance written to the triple table.
type TripleRecord struct {
	Triple
	SourceFile string `json:"source_file"`
	Sentence   string `json:"sentence"`
}
