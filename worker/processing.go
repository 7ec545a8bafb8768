package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"text2phenotype.com/kg/export"
	"text2phenotype.com/kg/graph"
	"text2phenotype.com/kg/pipeline"
	"text2phenotype.com/kg/redis"
	"text2phenotype.com/kg/tasks"
	"text2phenotype.com/kg/types"
	"text2phenotype.com/kg/utils"
)

func (worker *Worker) newRun() *Run {
	output := worker.OutputLocation()
	redisKey := tasks.RunKey(output)
	runLogger := worker.fdlLogger.With().Str("run_key", redisKey).Logger()
	return &Run{
		redisKey:       redisKey,
		inputLocation:  worker.InputLocation(),
		outputLocation: output,
		startedAt:      time.Now(),
		fdlLogger:      &runLogger,
	}
}

// Run extracts the corpus, consolidates the graph and writes every configured
// output. Skipped files and a failed rendering end up as report warnings;
// loading, extraction and export failures fail the run.
func (worker *Worker) Run(ctx context.Context) (*Report, error) {
	run := worker.newRun()

	releaseLock, err := worker.redis.lockRun(ctx, run, worker.config.RunLockTTL)
	if err != nil {
		run.fdlLogger.Err(err).Msg("Could not obtain run lock")
		if errors.Is(err, redis.ErrLocked) {
			return nil, fmt.Errorf("%w: %s", ErrRunLocked, run.outputLocation)
		}
		return nil, fmt.Errorf("failed to obtain run lock: %w", err)
	}
	defer func() {
		if err := releaseLock(); err != nil {
			run.fdlLogger.Err(err).Msg("Failed to release run lock")
		}
	}()

	if err = worker.redis.onRunStarted(ctx, run); err != nil {
		run.fdlLogger.Err(err).Msg("Failed to update run status")
		return nil, fmt.Errorf("failed to update run status: %w", err)
	}

	report, err := worker.process(ctx, run)
	if err != nil {
		run.fdlLogger.Err(err).Msg("Got error while running extraction")
		if statusErr := worker.redis.onRunFailedWithError(ctx, run, err); statusErr != nil {
			run.fdlLogger.Err(statusErr).Msg("Failed to mark run as failed")
		}
		worker.notify(run, nil, err)
		return nil, err
	}

	if err = worker.redis.onRunComplete(ctx, run, report); err != nil {
		run.fdlLogger.Err(err).Msg("Got error while trying to mark run as complete")
		return report, fmt.Errorf("failed to update run status: %w", err)
	}
	worker.notify(run, report, nil)

	run.fdlLogger.Info().
		Int("documents", report.Documents).
		Int("triples", report.Triples).
		Int("nodes", report.Graph.Nodes).
		Int("edges", report.Graph.Edges).
		Int("warnings", len(report.Warnings)).
		Dur("duration", report.Duration).
		Msg("Finished extraction run")
	return report, nil
}

func (worker *Worker) process(ctx context.Context, run *Run) (report *Report, err error) {
	defer utils.RecoverWithError(&err)

	report = &Report{
		RunKey:         run.redisKey,
		InputLocation:  run.inputLocation,
		OutputLocation: run.outputLocation,
	}

	corpus, skipped, err := worker.loadCorpus(ctx, run)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	report.SkippedFiles = skipped
	for _, file := range skipped {
		report.Warnings = append(report.Warnings, fmt.Sprintf("skipped %s: %s", file.Name, file.Reason))
	}

	run.fdlLogger.Info().
		Int("documents", len(corpus)).
		Int("workers", worker.runConfig.Workers).
		Msg("Extracting triples")
	records, stats, err := pipeline.Aggregate(ctx, corpus, worker.factory, worker.runConfig.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to extract triples: %w", err)
	}
	report.Documents = stats.Documents
	report.Sentences = stats.Sentences
	report.FallbackSentences = stats.FallbackSentences
	report.Triples = len(records)

	g := graph.Consolidate(records)
	report.Graph = g.Stats()

	if err = worker.export(run, records, g, report); err != nil {
		return nil, err
	}
	if err = worker.uploadOutputs(run, report); err != nil {
		return nil, err
	}

	report.Duration = time.Since(run.startedAt)
	return report, nil
}

func (worker *Worker) loadCorpus(ctx context.Context, run *Run) (pipeline.Corpus, []pipeline.SkippedFile, error) {
	if worker.s3 == nil {
		return pipeline.LoadCorpus(worker.config.InputDir, worker.runConfig)
	}

	keys, err := worker.s3.listCorpusKeys()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list %s: %w", run.inputLocation, err)
	}

	var corpus pipeline.Corpus
	var skipped []pipeline.SkippedFile
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		name := worker.s3.documentName(key)
		if name == "" || !worker.runConfig.HasInputExtension(name) {
			continue
		}

		data, err := worker.s3.getDocumentData(key)
		if err == nil {
			var doc pipeline.Document
			doc, err = pipeline.ParseDocument(name, bytes.NewReader(data))
			if err == nil {
				corpus.AddDocument(doc, &skipped)
				continue
			}
		}
		run.fdlLogger.Warn().Err(err).Str("file", name).Msg("Skipping unreadable input file")
		skipped = append(skipped, pipeline.SkippedFile{Name: name, Reason: err.Error()})
	}
	return corpus, skipped, nil
}

func (worker *Worker) export(run *Run, records []types.TripleRecord, g *graph.Graph, report *Report) error {
	outputs := worker.runConfig.Outputs
	dir := worker.config.OutputDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if len(records) == 0 {
		report.warn(run.fdlLogger, "No triples extracted, triple table not written", nil)
	} else {
		path := filepath.Join(dir, outputs.TriplesCSV)
		if err := export.WriteTriplesCSV(path, records); err != nil {
			return fmt.Errorf("failed to write triple table: %w", err)
		}
		report.Outputs = append(report.Outputs, path)

		if outputs.TriplesXLSX != "" {
			path := filepath.Join(dir, outputs.TriplesXLSX)
			if err := export.WriteTriplesXLSX(path, records); err != nil {
				return fmt.Errorf("failed to write triple workbook: %w", err)
			}
			report.Outputs = append(report.Outputs, path)
		}
	}

	path := filepath.Join(dir, outputs.GraphGML)
	if err := export.WriteGML(path, g); err != nil {
		return fmt.Errorf("failed to write graph: %w", err)
	}
	report.Outputs = append(report.Outputs, path)

	if outputs.GraphPNG != "" {
		path := filepath.Join(dir, outputs.GraphPNG)
		if err := export.RenderPNG(path, g, worker.runConfig.Render); err != nil {
			report.warn(run.fdlLogger, "Graph visualization failed", err)
		} else {
			report.Outputs = append(report.Outputs, path)
		}
	}

	run.fdlLogger.Info().Strs("outputs", report.Outputs).Msg("Wrote outputs")
	return nil
}

func (worker *Worker) uploadOutputs(run *Run, report *Report) error {
	if worker.s3 == nil {
		return nil
	}
	for _, path := range report.Outputs {
		key, err := worker.s3.saveOutputFile(path)
		if err != nil {
			run.fdlLogger.Err(err).Str("file", path).Msg("Got error while trying to upload output")
			return fmt.Errorf("failed to upload %s: %w", filepath.Base(path), err)
		}
		report.Uploaded = append(report.Uploaded, key)
	}
	return nil
}

func (worker *Worker) notify(run *Run, report *Report, runErr error) {
	if err := worker.rmq.publishRunFinished(run, report, runErr); err != nil {
		run.fdlLogger.Err(err).Msg("Got error while publishing run notification")
	}
}
