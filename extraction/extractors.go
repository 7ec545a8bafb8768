package extraction

import (
	"strings"

	"text2phenotype.com/kg/types"
)

// Input is the per-sentence state shared by all extractors. It is built once
// and never mutated.
type Input struct {
	Sentence *types.AnnotatedSentence
	Spans    []types.EntitySpan
	Entities EntityMap
	Children [][]int
}

func NewInput(sent *types.AnnotatedSentence) *Input {
	spans := DetectEntitySpans(sent)
	return &Input{
		Sentence: sent,
		Spans:    spans,
		Entities: NewEntityMap(sent, spans),
		Children: sent.ChildIndex(),
	}
}

type Extractor func(in *Input) []types.Triple

// ExtractSVO emits the cross product of nominal subjects and direct objects of
// every verb, labelled with the verb's lemma.
func ExtractSVO(in *Input) []types.Triple {
	var triples []types.Triple
	for _, token := range in.Sentence.Tokens {
		if token.Pos != types.PosVerb {
			continue
		}

		var subjects, objects []string
		for _, ci := range in.Children[token.Index] {
			child := in.Sentence.Tokens[ci]
			switch {
			case child.IsSubject():
				subjects = appendNonEmpty(subjects, in.Entities.Resolve(child))
			case child.IsDirectObject():
				objects = appendNonEmpty(objects, in.Entities.Resolve(child))
			}
		}

		relation := strings.ToLower(token.Lemma)
		for _, s := range subjects {
			for _, o := range objects {
				triples = append(triples, types.Triple{
					Subject:    s,
					Relation:   relation,
					Object:     o,
					Confidence: types.ConfidenceSVO,
				})
			}
		}
	}
	return triples
}

// ExtractPrepositional links the entity governing a preposition to the entity
// inside its prepositional object. Both sides must be covered by entity spans;
// bare tokens do not count.
func ExtractPrepositional(in *Input) []types.Triple {
	var triples []types.Triple
	for _, token := range in.Sentence.Tokens {
		if token.Dep != types.DepPreposition {
			continue
		}

		pobj := -1
		for _, ci := range in.Children[token.Index] {
			if in.Sentence.Tokens[ci].Dep == types.DepPrepositionalObject {
				pobj = ci
			}
		}
		if pobj < 0 {
			continue
		}

		object, ok := in.Entities.Lookup(pobj)
		if !ok || object == "" {
			continue
		}
		subject, ok := in.Entities.Lookup(token.Head)
		if !ok || subject == "" {
			continue
		}

		triples = append(triples, types.Triple{
			Subject:    subject,
			Relation:   strings.ToLower(token.Text),
			Object:     object,
			Confidence: types.ConfidencePrepositional,
		})
	}
	return triples
}

// ExtractCooccurrence relates every unordered pair of distinct entity texts, in
// span order.
func ExtractCooccurrence(in *Input) []types.Triple {
	texts := make([]string, 0, len(in.Spans))
	seen := make(map[string]bool, len(in.Spans))
	for _, span := range in.Spans {
		if seen[span.Text] {
			continue
		}
		seen[span.Text] = true
		texts = append(texts, span.Text)
	}

	var triples []types.Triple
	for i := 0; i < len(texts); i++ {
		for j := i + 1; j < len(texts); j++ {
			triples = append(triples, types.Triple{
				Subject:    texts[i],
				Relation:   types.RelationRelatedTo,
				Object:     texts[j],
				Confidence: types.ConfidenceCooccurrence,
			})
		}
	}
	return triples
}

func appendNonEmpty(values []string, value string) []string {
	if value == "" {
		return values
	}
	return append(values, value)
}
