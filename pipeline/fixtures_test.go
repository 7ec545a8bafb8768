package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"text2phenotype.com/kg/annotator"
	"text2phenotype.com/kg/types"
)

// svoDocument annotates "<subject> <verb>s <object>" with one noun chunk on
// each side of the verb.
func svoDocument(subject, verb, object string) annotator.Document {
	text := fmt.Sprintf("%s %ss %s", subject, verb, object)
	s := int32(len([]rune(subject)))
	v := s + 1 + int32(len([]rune(verb))) + 1
	o := v + 1 + int32(len([]rune(object)))
	return annotator.Document{
		Text: text,
		Tokens: []annotator.DocumentToken{
			{ID: 0, Start: 0, End: s, Pos: "NOUN", Dep: "nsubj", Head: 1, Lemma: strings.ToLower(subject)},
			{ID: 1, Start: s + 1, End: v, Pos: "VERB", Dep: "ROOT", Head: 1, Lemma: verb},
			{ID: 2, Start: v + 1, End: o, Pos: "NOUN", Dep: "dobj", Head: 1, Lemma: strings.ToLower(object)},
		},
		NounChunks: []annotator.DocumentSpan{{Start: 0, End: s}, {Start: v + 1, End: o}},
	}
}

type fakeAnnotators struct {
	sync.Mutex
	docs    map[string]annotator.Document
	fail    string
	created int
	closed  int
}

var errAnnotatorDown = errors.New("annotator down")

func newFakeAnnotators(docs ...annotator.Document) *fakeAnnotators {
	f := &fakeAnnotators{docs: map[string]annotator.Document{}}
	for _, doc := range docs {
		f.docs[doc.Text] = doc
	}
	return f
}

func (f *fakeAnnotators) factory() (annotator.Annotator, error) {
	f.Lock()
	defer f.Unlock()
	f.created++
	return &fakeAnnotator{parent: f}, nil
}

type fakeAnnotator struct {
	parent *fakeAnnotators
}

func (a *fakeAnnotator) Annotate(_ context.Context, sentence string) (*types.AnnotatedSentence, error) {
	if sentence == a.parent.fail {
		return nil, errAnnotatorDown
	}
	doc, ok := a.parent.docs[sentence]
	if !ok {
		return nil, annotator.ErrNotAnnotated
	}
	return doc.Sentence()
}

func (a *fakeAnnotator) Close() error {
	a.parent.Lock()
	defer a.parent.Unlock()
	a.parent.closed++
	return nil
}
