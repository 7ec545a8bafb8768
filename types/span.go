package types

// Span is a character range [Begin, End) over the sentence text. Offsets count
// runes, not bytes.
type Span struct {
	Begin int32
	End   int32
	Text  string
}

func CheckSpansOverlap(covered *Span, covering *Span) bool {
	return covering.Begin <= covered.Begin && covering.End >= covered.End
}

type SpanMethod string

const (
	SpanMethodNER       SpanMethod = "NER"
	SpanMethodNounChunk SpanMethod = "NOUN_CHUNK"
)

// EntitySpan is a candidate concept. Text is already normalized.
type EntitySpan struct {
	Span
	Method SpanMethod
}
