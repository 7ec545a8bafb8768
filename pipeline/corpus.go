package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"text2phenotype.com/kg/logger"
	"text2phenotype.com/kg/types"
	"text2phenotype.com/kg/utils"
)

var ErrNoInput = errors.New("pipeline: input location does not exist")

const reasonNoSentences = "no sentences"

// Document is one input file: pre-segmented sentences, one per line.
type Document struct {
	Name      string
	Sentences []string
}

type Corpus []Document

// SkippedFile is an input file left out of the run, with the reason.
type SkippedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

func (c Corpus) SentenceCount() int {
	n := 0
	for _, doc := range c {
		n += len(doc.Sentences)
	}
	return n
}

// ParseDocument reads one sentence per non-blank line.
func ParseDocument(name string, r io.Reader) (Document, error) {
	sentences, err := utils.ReadLines(r)
	if err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", name, err)
	}
	return Document{Name: name, Sentences: sentences}, nil
}

// LoadCorpus reads every file in dir carrying the configured extension, in file
// name order. Unreadable and empty files are skipped and reported; only a
// missing or unreadable directory is an error.
func LoadCorpus(dir string, cfg types.Configuration) (Corpus, []SkippedFile, error) {
	fdlLogger := logger.NewLogger("Corpus loader")

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNoInput, dir)
		}
		return nil, nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var corpus Corpus
	var skipped []SkippedFile
	for _, entry := range entries {
		if entry.IsDir() || !cfg.HasInputExtension(entry.Name()) {
			continue
		}

		doc, err := loadDocument(filepath.Join(dir, entry.Name()), entry.Name())
		if err != nil {
			fdlLogger.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping unreadable input file")
			skipped = append(skipped, SkippedFile{Name: entry.Name(), Reason: err.Error()})
			continue
		}
		if len(doc.Sentences) == 0 {
			fdlLogger.Info().Str("file", entry.Name()).Msg("Skipping input file without sentences")
			skipped = append(skipped, SkippedFile{Name: entry.Name(), Reason: reasonNoSentences})
			continue
		}
		corpus = append(corpus, doc)
	}

	fdlLogger.Info().
		Str("dir", dir).
		Int("documents", len(corpus)).
		Int("sentences", corpus.SentenceCount()).
		Int("skipped", len(skipped)).
		Msg("Loaded corpus")
	return corpus, skipped, nil
}

// AddDocument appends doc to the corpus unless it has no sentences, in which
// case it is reported as skipped.
func (c *Corpus) AddDocument(doc Document, skipped *[]SkippedFile) {
	if len(doc.Sentences) == 0 {
		*skipped = append(*skipped, SkippedFile{Name: doc.Name, Reason: reasonNoSentences})
		return
	}
	*c = append(*c, doc)
}

func loadDocument(path string, name string) (Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer file.Close()
	return ParseDocument(name, file)
}
