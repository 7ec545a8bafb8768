package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"text2phenotype.com/kg/annotator"
	"text2phenotype.com/kg/logger"
	"text2phenotype.com/kg/redis"
	"text2phenotype.com/kg/rmq"
	"text2phenotype.com/kg/s3client"
	"text2phenotype.com/kg/types"
	"text2phenotype.com/kg/worker"
)

func main() {
	logger.SetupLogging()
	fdlLogger := logger.NewLogger("Main")

	if err := newRootCommand(&fdlLogger).Execute(); err != nil {
		fdlLogger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

type flags struct {
	input       string
	output      string
	workers     int
	configPath  string
	annotations string
}

func newRootCommand(fdlLogger *zerolog.Logger) *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:           "kg",
		Short:         "Extract knowledge-graph triples from a sentence-per-line corpus",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.output, "output", "", "output directory (overrides KG_OUTPUT_DIR)")

	extract := &cobra.Command{
		Use:   "extract",
		Short: "Run extraction and write the triple table and graph",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd.Context(), fdlLogger, f)
		},
	}
	extract.Flags().StringVar(&f.input, "input", "", "input directory (overrides KG_INPUT_DIR)")
	extract.Flags().IntVar(&f.workers, "workers", 0, "parallel documents (overrides KG_WORKERS)")
	extract.Flags().StringVar(&f.configPath, "config", "", "YAML run configuration (overrides KG_CONFIG_PATH)")
	extract.Flags().StringVar(&f.annotations, "annotations", "", "precomputed annotations JSONL (overrides KG_ANNOTATIONS_FILE)")

	status := &cobra.Command{
		Use:   "status",
		Short: "Print the last recorded run for the output location",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), f)
		},
	}

	root.AddCommand(extract, status)
	return root
}

func readWorkerConfig(f flags) (worker.Config, error) {
	config, err := worker.ReadConfig()
	if err != nil {
		return config, fmt.Errorf("failed to read environment: %w", err)
	}
	if f.input != "" {
		config.InputDir = f.input
	}
	if f.output != "" {
		config.OutputDir = f.output
	}
	if f.workers > 0 {
		config.Workers = f.workers
	}
	if f.configPath != "" {
		config.ConfigPath = f.configPath
	}
	return config, nil
}

// clients holds the integrations enabled in the environment.
type clients struct {
	redis    *redis.Client
	s3       *s3client.Client
	s3Config s3client.EnvironmentConfig
	rmq      *rmq.Client
}

// connectClients opens the enabled integrations. On error every client opened
// so far is closed again.
func connectClients(ctx context.Context, fdlLogger *zerolog.Logger) (_ *clients, err error) {
	var c clients
	defer func() {
		if err != nil {
			c.close(fdlLogger)
		}
	}()

	redisConfig, err := redis.ReadConfig()
	if err != nil {
		return nil, err
	}
	if redisConfig.Enabled {
		c.redis = redis.NewClient(redisConfig)
		if err = c.redis.Ping(ctx); err != nil {
			fdlLogger.Err(err).Msg("Could not reach Redis")
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	c.s3Config, err = s3client.ReadConfig()
	if err != nil {
		return nil, err
	}
	if c.s3Config.Enabled {
		if c.s3, err = s3client.New(c.s3Config); err != nil {
			fdlLogger.Err(err).Msg("Could not create S3 client")
			return nil, err
		}
	}

	rmqConfig, err := rmq.ReadConfig()
	if err != nil {
		return nil, err
	}
	if rmqConfig.Enabled {
		if c.rmq, err = rmq.NewClient(rmqConfig); err != nil {
			fdlLogger.Err(err).Msg("Could not create RMQ client")
			return nil, err
		}
	}
	return &c, nil
}

// close releases clients that were not handed over to a worker.
func (c *clients) close(fdlLogger *zerolog.Logger) {
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			fdlLogger.Err(err).Msg("Failed to close Redis client")
		}
	}
	if c.s3 != nil {
		c.s3.Close()
	}
	if c.rmq != nil {
		c.rmq.Close()
	}
}

func (c *clients) attach(w *worker.Worker) {
	if c.redis != nil {
		w.UseRedis(c.redis)
	}
	if c.s3 != nil {
		w.UseS3(c.s3, c.s3Config.InputPrefix, c.s3Config.OutputPrefix)
	}
	if c.rmq != nil {
		w.UseRMQ(c.rmq)
	}
}

func runExtract(ctx context.Context, fdlLogger *zerolog.Logger, f flags) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := readWorkerConfig(f)
	if err != nil {
		return err
	}
	runConfig, err := worker.LoadRunConfiguration(config)
	if err != nil {
		return err
	}

	annotatorConfig, err := annotator.ReadConfig()
	if err != nil {
		return fmt.Errorf("failed to read annotator environment: %w", err)
	}
	if f.annotations != "" {
		annotatorConfig.AnnotationsFile = f.annotations
	}

	c, err := connectClients(ctx, fdlLogger)
	if err != nil {
		return err
	}

	var cache annotator.KeyValueStore
	if annotatorConfig.CacheEnabled {
		if c.redis == nil {
			fdlLogger.Warn().Msg("KG_ANNOTATOR_CACHE needs KG_REDIS_ENABLED, annotations will not be cached")
		} else {
			cache = c.redis
		}
	}
	factory, err := annotator.NewFactory(annotatorConfig, cache)
	if err != nil {
		c.close(fdlLogger)
		return err
	}

	w := worker.New(config, runConfig, factory)
	c.attach(w)
	defer w.Close()

	fdlLogger.Info().
		Str("config", runConfig.Name).
		Str("input", w.InputLocation()).
		Str("output", w.OutputLocation()).
		Msg("Starting extraction run")
	report, err := w.Run(ctx)
	if report != nil {
		printJSON(report)
	}
	return err
}

func runStatus(ctx context.Context, f flags) error {
	config, err := readWorkerConfig(f)
	if err != nil {
		return err
	}
	fdlLogger := logger.NewLogger("Status")
	c, err := connectClients(ctx, &fdlLogger)
	if err != nil {
		return err
	}
	w := worker.New(config, types.DefaultConfiguration(), nil)
	c.attach(w)
	defer w.Close()

	status, err := w.Status(ctx)
	if err != nil {
		return err
	}
	printJSON(status)
	return nil
}

func printJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v)
}
