package worker

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"text2phenotype.com/kg/annotator"
	"text2phenotype.com/kg/logger"
	"text2phenotype.com/kg/redis"
	"text2phenotype.com/kg/rmq"
	"text2phenotype.com/kg/s3client"
	"text2phenotype.com/kg/tasks"
	"text2phenotype.com/kg/types"
)

var (
	ErrRunLocked         = errors.New("worker: another run holds the output location")
	ErrStatusUnavailable = errors.New("worker: run status needs KG_REDIS_ENABLED")
)

type Config struct {
	InputDir    string        `envconfig:"KG_INPUT_DIR" default:"processed"`
	OutputDir   string        `envconfig:"KG_OUTPUT_DIR" default:"knowledge_graph"`
	Workers     int           `envconfig:"KG_WORKERS" default:"0"`
	ConfigPath  string        `envconfig:"KG_CONFIG_PATH" default:""`
	ConfigPatch string        `envconfig:"KG_CONFIG_PATCH" default:""`
	RunLockTTL  time.Duration `envconfig:"KG_RUN_LOCK_TTL" default:"60s"`
}

func ReadConfig() (Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	return config, err
}

// LoadRunConfiguration reads the YAML run configuration, applies the merge
// patch and lets a positive Workers value override the file.
func LoadRunConfiguration(config Config) (types.Configuration, error) {
	runConfig, err := types.LoadConfiguration(config.ConfigPath)
	if err != nil {
		return runConfig, err
	}
	runConfig, err = types.ApplyConfigurationPatch(runConfig, []byte(config.ConfigPatch))
	if err != nil {
		return runConfig, err
	}
	if config.Workers > 0 {
		runConfig.Workers = config.Workers
	}
	return runConfig, nil
}

// Worker runs one extraction over a corpus. Redis, S3 and RMQ are optional and
// attached with the Use* methods.
type Worker struct {
	config    Config
	runConfig types.Configuration
	factory   annotator.Factory
	redis     redisTransactions
	s3        s3Transactions
	rmq       rmqTransactions
	fdlLogger *zerolog.Logger
}

func New(config Config, runConfig types.Configuration, factory annotator.Factory) *Worker {
	fdlLogger := logger.NewLogger("Worker")
	return &Worker{
		config:    config,
		runConfig: runConfig,
		factory:   factory,
		redis:     noopRedis{},
		rmq:       noopRMQ{},
		fdlLogger: &fdlLogger,
	}
}

// UseRedis enables the run lock and run status records.
func (worker *Worker) UseRedis(client *redis.Client) {
	tasksClient := tasks.NewClient(client)
	worker.redis = &redisClientWrapper{redisClient: client, tasksClient: &tasksClient}
	worker.fdlLogger.Info().Msg("Run status tracking enabled")
}

// UseS3 reads the corpus from inputPrefix and uploads outputs to outputPrefix.
func (worker *Worker) UseS3(client *s3client.Client, inputPrefix string, outputPrefix string) {
	worker.s3 = &s3ClientWrapper{s3Client: client, inputPrefix: inputPrefix, outputPrefix: outputPrefix}
	worker.fdlLogger.Info().
		Str("input", worker.s3.inputLocation()).
		Str("output", worker.s3.outputLocation()).
		Msg("S3 storage enabled")
}

// UseRMQ publishes a message when a run finishes.
func (worker *Worker) UseRMQ(client *rmq.Client) {
	worker.rmq = &rmqClientWrapper{rmqClient: client}
	worker.fdlLogger.Info().Msg("Run notifications enabled")
}

func (worker *Worker) InputLocation() string {
	if worker.s3 != nil {
		return worker.s3.inputLocation()
	}
	return absPath(worker.config.InputDir)
}

// OutputLocation identifies the run: one run at a time may write to it.
func (worker *Worker) OutputLocation() string {
	if worker.s3 != nil {
		return worker.s3.outputLocation()
	}
	return absPath(worker.config.OutputDir)
}

// Status returns the last recorded run for the output location.
func (worker *Worker) Status(ctx context.Context) (*tasks.RunTask, error) {
	if _, ok := worker.redis.(noopRedis); ok {
		return nil, ErrStatusUnavailable
	}
	return worker.redis.getRunTask(ctx, tasks.RunKey(worker.OutputLocation()))
}

func (worker *Worker) Close() {
	worker.redis.close()
	if worker.s3 != nil {
		worker.s3.close()
	}
	worker.rmq.close()
}

func absPath(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}
