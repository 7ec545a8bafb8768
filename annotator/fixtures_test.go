package annotator

import (
	"context"
	"errors"
	"sync"
	"time"

	"text2phenotype.com/kg/redis"
	"text2phenotype.com/kg/types"
)

func waterDocument() Document {
	return Document{
		Text: "Water boils at 100 degrees.",
		Tokens: []DocumentToken{
			{ID: 0, Start: 0, End: 5, Pos: "NOUN", Dep: "nsubj", Head: 1, Lemma: "water"},
			{ID: 1, Start: 6, End: 11, Pos: "VERB", Dep: "ROOT", Head: 1, Lemma: "boil"},
			{ID: 2, Start: 12, End: 14, Pos: "ADP", Dep: "prep", Head: 1, Lemma: "at"},
			{ID: 3, Start: 15, End: 18, Pos: "NUM", Dep: "nummod", Head: 4, Lemma: "100"},
			{ID: 4, Start: 19, End: 26, Pos: "NOUN", Dep: "pobj", Head: 2, Lemma: "degree"},
			{ID: 5, Start: 26, End: 27, Pos: "PUNCT", Dep: "punct", Head: 1, Lemma: "."},
		},
		NounChunks: []DocumentSpan{{Start: 0, End: 5}, {Start: 15, End: 26}},
	}
}

type stubAnnotator struct {
	docs   map[string]Document
	calls  []string
	closed bool
}

func (a *stubAnnotator) Annotate(_ context.Context, sentence string) (*types.AnnotatedSentence, error) {
	a.calls = append(a.calls, sentence)
	doc, ok := a.docs[sentence]
	if !ok {
		return nil, ErrNotAnnotated
	}
	return doc.Sentence()
}

func (a *stubAnnotator) Close() error {
	a.closed = true
	return nil
}

type memoryStore struct {
	sync.Mutex
	values   map[string][]byte
	ttls     map[string]time.Duration
	readErr  error
	writeErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *memoryStore) GetBytes(_ context.Context, key string) ([]byte, error) {
	s.Lock()
	defer s.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	value, ok := s.values[key]
	if !ok {
		return nil, redis.ErrNotFound
	}
	return value, nil
}

func (s *memoryStore) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.Lock()
	defer s.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.values[key] = value
	s.ttls[key] = ttl
	return nil
}

var errStoreDown = errors.New("store down")
