package worker

import (
	"context"
	"time"

	"text2phenotype.com/kg/redis"
	"text2phenotype.com/kg/tasks"
)

type redisTransactions interface {
	lockRun(ctx context.Context, run *Run, ttl time.Duration) (redis.ReleaseLock, error)
	getRunTask(ctx context.Context, redisKey string) (*tasks.RunTask, error)
	onRunStarted(ctx context.Context, run *Run) error
	onRunFailedWithError(ctx context.Context, run *Run, err error) error
	onRunComplete(ctx context.Context, run *Run, report *Report) error
	close()
}

type redisClientWrapper struct {
	redisClient *redis.Client
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

// lockRun holds a lock separate from the status document lock, so status
// updates stay possible while the run is in progress.
func (wrapper *redisClientWrapper) lockRun(ctx context.Context, run *Run, ttl time.Duration) (redis.ReleaseLock, error) {
	return wrapper.redisClient.HoldLock(ctx, run.redisKey+":run", ttl)
}

func (wrapper *redisClientWrapper) getRunTask(ctx context.Context, redisKey string) (*tasks.RunTask, error) {
	return wrapper.tasksClient.Runs.Get(ctx, redisKey)
}

func (wrapper *redisClientWrapper) onRunStarted(ctx context.Context, run *Run) error {
	return wrapper.tasksClient.Runs.Update(ctx, run.redisKey, func(task *tasks.RunTask) {
		task.Status = tasks.TaskStatusStarted
		task.Attempts += 1
		task.StartedAt = tasks.Timestamp(run.startedAt)
		task.CompletedAt = nil
		task.InputLocation = run.inputLocation
		task.OutputLocation = run.outputLocation
		task.Outputs = nil
		task.SkippedFiles = nil
	})
}

func (wrapper *redisClientWrapper) onRunFailedWithError(ctx context.Context, run *Run, err error) error {
	return wrapper.tasksClient.Runs.Update(ctx, run.redisKey, func(task *tasks.RunTask) {
		task.Status = tasks.TaskStatusFailed
		task.CompletedAt = tasks.Timestamp(time.Now())
		task.ErrorMessages = append(task.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onRunComplete(ctx context.Context, run *Run, report *Report) error {
	return wrapper.tasksClient.Runs.Update(ctx, run.redisKey, func(task *tasks.RunTask) {
		task.Status = report.Status()
		task.CompletedAt = tasks.Timestamp(time.Now())
		task.Documents = report.Documents
		task.Sentences = report.Sentences
		task.Triples = report.Triples
		task.Nodes = report.Graph.Nodes
		task.Edges = report.Graph.Edges
		task.SkippedFiles = report.skippedNames()
		task.Outputs = report.Outputs
		if len(report.Uploaded) > 0 {
			task.Outputs = report.Uploaded
		}
	})
}

// noopRedis stands in when Redis is disabled: no lock, no status.
type noopRedis struct{}

func (noopRedis) lockRun(context.Context, *Run, time.Duration) (redis.ReleaseLock, error) {
	return func() error { return nil }, nil
}

func (noopRedis) getRunTask(context.Context, string) (*tasks.RunTask, error) {
	return nil, ErrStatusUnavailable
}

func (noopRedis) onRunStarted(context.Context, *Run) error { return nil }

func (noopRedis) onRunFailedWithError(context.Context, *Run, error) error { return nil }

func (noopRedis) onRunComplete(context.Context, *Run, *Report) error { return nil }

func (noopRedis) close() {}
