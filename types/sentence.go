package types

// AnnotatedSentence is the read-only output of an annotator for one sentence.
// Entities and NounChunks carry raw (not normalized) text.
type AnnotatedSentence struct {
	Span
	Tokens     []*Token
	Entities   []Span
	NounChunks []Span
}

// ChildIndex lists, for every token index, the indices of its direct syntactic
// children in sentence order.
func (sent *AnnotatedSentence) ChildIndex() [][]int {
	children := make([][]int, len(sent.Tokens))
	for i, token := range sent.Tokens {
		if token.IsRoot() || token.Head < 0 || token.Head >= len(sent.Tokens) {
			continue
		}
		children[token.Head] = append(children[token.Head], i)
	}
	return children
}
