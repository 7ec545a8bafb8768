package extraction

import "text2phenotype.com/kg/types"

// PrimaryExtractors run on every sentence, in order.
var PrimaryExtractors = []Extractor{
	ExtractSVO,
	ExtractPrepositional,
}

// minCooccurrenceSpans is the span count needed before the fallback runs.
const minCooccurrenceSpans = 2

type Result struct {
	Spans        []types.EntitySpan
	Triples      []types.Triple
	FallbackUsed bool
}

// Extract runs span detection, the primary extractors, the gated co-occurrence
// fallback and per-sentence deduplication.
func Extract(sent *types.AnnotatedSentence) Result {
	in := NewInput(sent)

	var candidates []types.Triple
	for _, extractor := range PrimaryExtractors {
		candidates = append(candidates, extractor(in)...)
	}

	fallback := false
	if len(candidates) == 0 && len(in.Spans) >= minCooccurrenceSpans {
		candidates = ExtractCooccurrence(in)
		fallback = true
	}

	return Result{
		Spans:        in.Spans,
		Triples:      Deduplicate(candidates),
		FallbackUsed: fallback,
	}
}

// Deduplicate keeps one triple per (subject, relation, object) key: the one
// with the strictly highest confidence, the first seen on ties. Output follows
// first-seen key order.
func Deduplicate(triples []types.Triple) []types.Triple {
	if len(triples) == 0 {
		return nil
	}

	index := make(map[types.TripleKey]int, len(triples))
	result := make([]types.Triple, 0, len(triples))
	for _, t := range triples {
		key := t.Key()
		i, ok := index[key]
		if !ok {
			index[key] = len(result)
			result = append(result, t)
			continue
		}
		if t.Confidence > result[i].Confidence {
			result[i] = t
		}
	}
	return result
}
