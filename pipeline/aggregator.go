package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"text2phenotype.com/kg/annotator"
	"text2phenotype.com/kg/extraction"
	"text2phenotype.com/kg/logger"
	"text2phenotype.com/kg/types"
)

type Stats struct {
	Documents         int `json:"documents"`
	Sentences         int `json:"sentences"`
	Triples           int `json:"triples"`
	FallbackSentences int `json:"fallback_sentences"`
}

func (s *Stats) add(other Stats) {
	s.Documents += other.Documents
	s.Sentences += other.Sentences
	s.Triples += other.Triples
	s.FallbackSentences += other.FallbackSentences
}

// ExtractDocument annotates and extracts every sentence of doc with ann and
// tags each surviving triple with its provenance. An annotator failure aborts
// the document.
func ExtractDocument(ctx context.Context, ann annotator.Annotator, doc Document) ([]types.TripleRecord, Stats, error) {
	stats := Stats{Documents: 1}
	var records []types.TripleRecord
	for i, sentence := range doc.Sentences {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		annotated, err := ann.Annotate(ctx, sentence)
		if err != nil {
			return nil, stats, fmt.Errorf("annotating %s line %d: %w", doc.Name, i+1, err)
		}

		result := extraction.Extract(annotated)
		stats.Sentences++
		if result.FallbackUsed {
			stats.FallbackSentences++
		}
		for _, triple := range result.Triples {
			records = append(records, types.TripleRecord{
				Triple:     triple,
				SourceFile: doc.Name,
				Sentence:   sentence,
			})
		}
	}
	stats.Triples = len(records)
	return records, stats, nil
}

// Aggregate extracts the whole corpus. Documents are spread over workers, each
// holding its own annotator; records come back in document order, then sentence
// order, whatever the worker count.
func Aggregate(ctx context.Context, corpus Corpus, factory annotator.Factory, workers int) ([]types.TripleRecord, Stats, error) {
	fdlLogger := logger.NewLogger("Corpus aggregator")

	if len(corpus) == 0 {
		return nil, Stats{}, nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(corpus) {
		workers = len(corpus)
	}

	results := make([][]types.TripleRecord, len(corpus))
	docStats := make([]Stats, len(corpus))
	jobs := make(chan int)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer close(jobs)
		for i := range corpus {
			select {
			case jobs <- i:
			case <-groupCtx.Done():
				return groupCtx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		workerLog := fdlLogger.With().Int("worker", w).Logger()
		group.Go(func() error {
			ann, err := factory()
			if err != nil {
				return fmt.Errorf("creating annotator: %w", err)
			}
			defer func() {
				if err := ann.Close(); err != nil {
					workerLog.Warn().Err(err).Msg("Failed to close annotator")
				}
			}()

			for i := range jobs {
				records, stats, err := ExtractDocument(groupCtx, ann, corpus[i])
				if err != nil {
					return err
				}
				results[i] = records
				docStats[i] = stats
				workerLog.Info().
					Str("file", corpus[i].Name).
					Int("sentences", stats.Sentences).
					Int("triples", stats.Triples).
					Msg("Processed document")
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, Stats{}, err
	}

	var total Stats
	var records []types.TripleRecord
	for i := range corpus {
		records = append(records, results[i]...)
		total.add(docStats[i])
	}
	fdlLogger.Info().
		Int("documents", total.Documents).
		Int("sentences", total.Sentences).
		Int("triples", total.Triples).
		Int("fallback_sentences", total.FallbackSentences).
		Msg("Finished corpus extraction")
	return records, total, nil
}
