package annotator

import (
	"fmt"

	"text2phenotype.com/kg/types"
)

// Document is the JSON exchanged with annotation services. It follows the
// shape of spaCy's Doc.to_json with noun chunks added; offsets count characters.
type Document struct {
	Text       string          `json:"text"`
	Tokens     []DocumentToken `json:"tokens"`
	Ents       []DocumentSpan  `json:"ents"`
	NounChunks []DocumentSpan  `json:"noun_chunks"`
}

type DocumentToken struct {
	ID    int    `json:"id"`
	Start int32  `json:"start"`
	End   int32  `json:"end"`
	Pos   string `json:"pos"`
	Tag   string `json:"tag,omitempty"`
	Dep   string `json:"dep"`
	Head  int    `json:"head"`
	Lemma string `json:"lemma"`
}

type DocumentSpan struct {
	Start int32  `json:"start"`
	End   int32  `json:"end"`
	Label string `json:"label,omitempty"`
}

// Sentence validates the document and converts it into an AnnotatedSentence.
func (doc *Document) Sentence() (*types.AnnotatedSentence, error) {
	runes := []rune(doc.Text)
	size := int32(len(runes))

	sent := &types.AnnotatedSentence{
		Span:   types.Span{Begin: 0, End: size, Text: doc.Text},
		Tokens: make([]*types.Token, len(doc.Tokens)),
	}

	for i, tok := range doc.Tokens {
		if !validRange(tok.Start, tok.End, size) {
			return nil, fmt.Errorf("%w: token %d range [%d, %d) outside text of %d characters",
				ErrMalformedDocument, i, tok.Start, tok.End, size)
		}
		if tok.Head < 0 || tok.Head >= len(doc.Tokens) {
			return nil, fmt.Errorf("%w: token %d head %d out of range", ErrMalformedDocument, i, tok.Head)
		}
		sent.Tokens[i] = &types.Token{
			Span: types.Span{
				Begin: tok.Start,
				End:   tok.End,
				Text:  string(runes[tok.Start:tok.End]),
			},
			Index: i,
			Lemma: tok.Lemma,
			Pos:   tok.Pos,
			Tag:   tok.Tag,
			Dep:   tok.Dep,
			Head:  tok.Head,
		}
	}

	var err error
	if sent.Entities, err = documentSpans(doc.Ents, runes, "entity"); err != nil {
		return nil, err
	}
	if sent.NounChunks, err = documentSpans(doc.NounChunks, runes, "noun chunk"); err != nil {
		return nil, err
	}
	return sent, nil
}

// FromSentence is the inverse of Document.Sentence.
func FromSentence(sent *types.AnnotatedSentence) Document {
	doc := Document{
		Text:   sent.Text,
		Tokens: make([]DocumentToken, len(sent.Tokens)),
	}
	for i, token := range sent.Tokens {
		doc.Tokens[i] = DocumentToken{
			ID:    i,
			Start: token.Begin,
			End:   token.End,
			Pos:   token.Pos,
			Tag:   token.Tag,
			Dep:   token.Dep,
			Head:  token.Head,
			Lemma: token.Lemma,
		}
	}
	for _, ent := range sent.Entities {
		doc.Ents = append(doc.Ents, DocumentSpan{Start: ent.Begin, End: ent.End})
	}
	for _, chunk := range sent.NounChunks {
		doc.NounChunks = append(doc.NounChunks, DocumentSpan{Start: chunk.Begin, End: chunk.End})
	}
	return doc
}

func documentSpans(spans []DocumentSpan, runes []rune, kind string) ([]types.Span, error) {
	if len(spans) == 0 {
		return nil, nil
	}
	result := make([]types.Span, len(spans))
	for i, span := range spans {
		if !validRange(span.Start, span.End, int32(len(runes))) {
			return nil, fmt.Errorf("%w: %s %d range [%d, %d) outside text",
				ErrMalformedDocument, kind, i, span.Start, span.End)
		}
		result[i] = types.Span{
			Begin: span.Start,
			End:   span.End,
			Text:  string(runes[span.Start:span.End]),
		}
	}
	return result, nil
}

func validRange(begin, end, size int32) bool {
	return begin >= 0 && begin <= end && end <= size
}
