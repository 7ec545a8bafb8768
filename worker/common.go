package worker

import (
	"time"

	"github.com/rs/zerolog"

	"text2phenotype.com/kg/graph"
	"text2phenotype.com/kg/pipeline"
	"text2phenotype.com/kg/tasks"
)

// Run is the state of one extraction run.
type Run struct {
	redisKey       string
	inputLocation  string
	outputLocation string
	startedAt      time.Time
	fdlLogger      *zerolog.Logger
}

// Report summarizes a finished run.
type Report struct {
	RunKey            string                 `json:"run_key"`
	InputLocation     string                 `json:"input_location"`
	OutputLocation    string                 `json:"output_location"`
	Documents         int                    `json:"documents"`
	Sentences         int                    `json:"sentences"`
	FallbackSentences int                    `json:"fallback_sentences"`
	SkippedFiles      []pipeline.SkippedFile `json:"skipped_files"`
	Triples           int                    `json:"triples"`
	Graph             graph.Stats            `json:"graph"`
	Outputs           []string               `json:"outputs"`
	Uploaded          []string               `json:"uploaded,omitempty"`
	Warnings          []string               `json:"warnings"`
	Duration          time.Duration          `json:"duration"`
}

func (report *Report) warn(fdlLogger *zerolog.Logger, msg string, err error) {
	fdlLogger.Warn().Err(err).Msg(msg)
	if err != nil {
		msg += ": " + err.Error()
	}
	report.Warnings = append(report.Warnings, msg)
}

// Status is the completed status of the run: any warning marks it as a failure.
func (report *Report) Status() tasks.TaskStatus {
	if len(report.Warnings) > 0 {
		return tasks.TaskStatusCompletedFailure
	}
	return tasks.TaskStatusCompletedSuccess
}

func (report *Report) skippedNames() []string {
	names := make([]string, len(report.SkippedFiles))
	for i, skipped := range report.SkippedFiles {
		names[i] = skipped.Name
	}
	return names
}
