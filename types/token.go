package types

const (
	PosVerb = "VERB"

	DepNominalSubject        = "nsubj"
	DepNominalSubjectPassive = "nsubjpass"
	DepDirectObject          = "dobj"
	DepObject                = "obj"
	DepPreposition           = "prep"
	DepPrepositionalObject   = "pobj"
)

// Token is one annotated word. Head is the index of the syntactic head inside
// the owning sentence; the root points at itself.
type Token struct {
	Span
	Index int
	Lemma string
	Pos   string
	Tag   string
	Dep   string
	Head  int
}

func (token *Token) IsRoot() bool {
	return token.Head == token.Index
}

func (token *Token) IsSubject() bool {
	return token.Dep == DepNominalSubject || token.Dep == DepNominalSubjectPassive
}

func (token *Token) IsDirectObject() bool {
	return token.Dep == DepDirectObject || token.Dep == DepObject
}
