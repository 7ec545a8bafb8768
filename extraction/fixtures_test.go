package extraction

import (
	"strings"
	"unicode/utf8"

	"text2phenotype.com/kg/types"
)

type tok struct {
	text  string
	lemma string
	pos   string
	dep   string
	head  int
}

type tokenRange struct {
	from, to int
}

// sentence lays tokens out separated by single spaces (punctuation attaches to
// the previous token) and turns token ranges into entity and chunk spans.
func sentence(toks []tok, ents []tokenRange, chunks []tokenRange) *types.AnnotatedSentence {
	var sb strings.Builder
	tokens := make([]*types.Token, len(toks))
	offset := int32(0)
	for i, t := range toks {
		if i > 0 && t.pos != "PUNCT" {
			sb.WriteByte(' ')
			offset++
		}
		sb.WriteString(t.text)
		length := int32(utf8.RuneCountInString(t.text))
		lemma := t.lemma
		if lemma == "" {
			lemma = strings.ToLower(t.text)
		}
		tokens[i] = &types.Token{
			Span:  types.Span{Begin: offset, End: offset + length, Text: t.text},
			Index: i,
			Lemma: lemma,
			Pos:   t.pos,
			Dep:   t.dep,
			Head:  t.head,
		}
		offset += length
	}

	sent := &types.AnnotatedSentence{
		Span:   types.Span{Begin: 0, End: offset, Text: sb.String()},
		Tokens: tokens,
	}
	toSpan := func(r tokenRange) types.Span {
		span := types.Span{Begin: tokens[r.from].Begin, End: tokens[r.to-1].End}
		span.Text = string([]rune(sent.Text)[span.Begin:span.End])
		return span
	}
	for _, r := range ents {
		sent.Entities = append(sent.Entities, toSpan(r))
	}
	for _, r := range chunks {
		sent.NounChunks = append(sent.NounChunks, toSpan(r))
	}
	return sent
}

// "The committee rejected the proposal."
func committeeSentence() *types.AnnotatedSentence {
	return sentence([]tok{
		{"The", "the", "DET", "det", 1},
		{"committee", "", "NOUN", "nsubj", 2},
		{"rejected", "reject", "VERB", "ROOT", 2},
		{"the", "", "DET", "det", 4},
		{"proposal", "", "NOUN", "dobj", 2},
		{".", "", "PUNCT", "punct", 2},
	}, nil, []tokenRange{{1, 2}, {4, 5}})
}

// "Water boils at 100 degrees."
func waterSentence() *types.AnnotatedSentence {
	return sentence([]tok{
		{"Water", "", "NOUN", "nsubj", 1},
		{"boils", "boil", "VERB", "ROOT", 1},
		{"at", "", "ADP", "prep", 1},
		{"100", "", "NUM", "nummod", 4},
		{"degrees", "degree", "NOUN", "pobj", 2},
		{".", "", "PUNCT", "punct", 1},
	}, nil, []tokenRange{{0, 1}, {3, 5}})
}

// "Paris is the capital of France."
func capitalSentence() *types.AnnotatedSentence {
	return sentence([]tok{
		{"Paris", "", "PROPN", "nsubj", 1},
		{"is", "be", "AUX", "ROOT", 1},
		{"the", "", "DET", "det", 3},
		{"capital", "", "NOUN", "attr", 1},
		{"of", "", "ADP", "prep", 3},
		{"France", "", "PROPN", "pobj", 4},
		{".", "", "PUNCT", "punct", 1},
	}, []tokenRange{{0, 1}, {5, 6}}, []tokenRange{{0, 1}, {2, 4}, {5, 6}})
}
