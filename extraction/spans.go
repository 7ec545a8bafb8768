package extraction

import (
	"strings"

	"text2phenotype.com/kg/types"
)

// Normalize lowercases text, collapses internal whitespace and trims it.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// DetectEntitySpans collects named-entity spans verbatim, then every noun chunk
// whose normalized text was not collected yet. NER spans come first.
func DetectEntitySpans(sent *types.AnnotatedSentence) []types.EntitySpan {
	spans := make([]types.EntitySpan, 0, len(sent.Entities)+len(sent.NounChunks))
	seen := make(map[string]bool, cap(spans))

	for _, ent := range sent.Entities {
		txt := Normalize(ent.Text)
		spans = append(spans, newEntitySpan(ent, txt, types.SpanMethodNER))
		seen[txt] = true
	}

	for _, chunk := range sent.NounChunks {
		txt := Normalize(chunk.Text)
		if seen[txt] {
			continue
		}
		spans = append(spans, newEntitySpan(chunk, txt, types.SpanMethodNounChunk))
		seen[txt] = true
	}

	return spans
}

func newEntitySpan(span types.Span, txt string, method types.SpanMethod) types.EntitySpan {
	return types.EntitySpan{
		Span: types.Span{
			Begin: span.Begin,
			End:   span.End,
			Text:  txt,
		},
		Method: method,
	}
}
