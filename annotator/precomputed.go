package annotator

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"text2phenotype.com/kg/types"
)

// PrecomputedIndex holds annotations produced offline, one JSON Document per
// line, keyed by trimmed sentence text. It is read-only once loaded.
type PrecomputedIndex struct {
	docs map[string]Document
}

func LoadPrecomputed(filePath string) (*PrecomputedIndex, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	index := &PrecomputedIndex{docs: make(map[string]Document)}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var doc Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedDocument, line, err)
		}
		key := strings.TrimSpace(doc.Text)
		if _, ok := index.docs[key]; !ok {
			index.docs[key] = doc
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return index, nil
}

func (index *PrecomputedIndex) Len() int {
	return len(index.docs)
}

func (index *PrecomputedIndex) Annotator() Annotator {
	return precomputedAnnotator{index: index}
}

type precomputedAnnotator struct {
	index *PrecomputedIndex
}

func (a precomputedAnnotator) Annotate(_ context.Context, sentence string) (*types.AnnotatedSentence, error) {
	doc, ok := a.index.docs[strings.TrimSpace(sentence)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotAnnotated, sentence)
	}
	return doc.Sentence()
}

func (a precomputedAnnotator) Close() error {
	return nil
}
