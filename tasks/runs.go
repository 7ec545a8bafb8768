package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"text2phenotype.com/kg/redis"
	"text2phenotype.com/kg/utils"
)

const runKeyPrefix = "kg-run:"

type TaskStatus string

const (
	TaskStatusStarted          TaskStatus = "started"
	TaskStatusFailed           TaskStatus = "failed"
	TaskStatusCompletedSuccess TaskStatus = "completed - success"
	TaskStatusCompletedFailure TaskStatus = "completed - failure"
)

func (s TaskStatus) Complete() bool {
	return s == TaskStatusCompletedSuccess || s == TaskStatusCompletedFailure
}

// RunTask is the status document of one extraction run, keyed by its output
// location.
type RunTask struct {
	RunKey         string     `json:"run_key"`
	InputLocation  string     `json:"input_location"`
	OutputLocation string     `json:"output_location"`
	Status         TaskStatus `json:"status"`
	StartedAt      *string    `json:"started_at"`
	CompletedAt    *string    `json:"completed_at"`
	Attempts       int        `json:"attempts"`
	Documents      int        `json:"documents"`
	Sentences      int        `json:"sentences"`
	Triples        int        `json:"triples"`
	Nodes          int        `json:"nodes"`
	Edges          int        `json:"edges"`
	SkippedFiles   []string   `json:"skipped_files"`
	Outputs        []string   `json:"outputs"`
	ErrorMessages  []string   `json:"error_messages"`
}

func RunKey(outputLocation string) string {
	return runKeyPrefix + utils.HashKey(outputLocation)
}

// Timestamp formats t the way run documents store times.
func Timestamp(t time.Time) *string {
	s := t.UTC().Format(time.RFC3339)
	return &s
}

type RunTasks struct {
	client docStore
}

func (tasks RunTasks) Get(ctx context.Context, redisKey string) (*RunTask, error) {
	var task RunTask
	if err := tasks.client.GetDoc(ctx, redisKey, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update applies updateFunc to the stored run under the document lock. A run
// that does not exist yet starts empty.
func (tasks RunTasks) Update(ctx context.Context, redisKey string, updateFunc func(task *RunTask)) (err error) {
	releaseLock, err := tasks.client.Lock(ctx, redisKey)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = releaseLock()
			return
		}
		err = releaseLock()
	}()

	var task RunTask
	err = tasks.client.GetDoc(ctx, redisKey, &task)
	if err != nil && !errors.Is(err, redis.ErrNotFound) {
		return fmt.Errorf("reading run %s: %w", redisKey, err)
	}
	task.RunKey = redisKey
	updateFunc(&task)
	return tasks.client.SaveDoc(ctx, redisKey, &task)
}
