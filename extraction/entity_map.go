package extraction

import "text2phenotype.com/kg/types"

// EntityMap maps a token index to the normalized text of the entity span that
// covers it. When spans overlap the later span wins.
type EntityMap map[int]string

func NewEntityMap(sent *types.AnnotatedSentence, spans []types.EntitySpan) EntityMap {
	entities := make(EntityMap)
	for i := range spans {
		covering := &spans[i].Span
		for _, token := range sent.Tokens {
			if types.CheckSpansOverlap(&token.Span, covering) {
				entities[token.Index] = covering.Text
			}
		}
	}
	return entities
}

// Lookup returns the entity text covering the token, if any.
func (entities EntityMap) Lookup(index int) (string, bool) {
	txt, ok := entities[index]
	return txt, ok
}

// Resolve returns the covering entity text, falling back to the token's own
// normalized surface text.
func (entities EntityMap) Resolve(token *types.Token) string {
	if txt, ok := entities[token.Index]; ok {
		return txt
	}
	return Normalize(token.Text)
}
