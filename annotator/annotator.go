package annotator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"text2phenotype.com/kg/logger"
	"text2phenotype.com/kg/types"
)

var (
	ErrNotAnnotated      = errors.New("annotator: sentence has no annotation")
	ErrMalformedDocument = errors.New("annotator: malformed document")
	ErrRequestFailed     = errors.New("annotator: request failed")
	ErrNotConfigured     = errors.New("annotator: neither KG_ANNOTATOR_URL nor KG_ANNOTATIONS_FILE is set")
)

// Annotator produces POS, dependency and entity annotations for one sentence.
// Instances are not assumed to be safe for concurrent use.
type Annotator interface {
	Annotate(ctx context.Context, sentence string) (*types.AnnotatedSentence, error)
	Close() error
}

// Factory creates a fresh Annotator, one per worker.
type Factory func() (Annotator, error)

type Config struct {
	URL             string        `envconfig:"KG_ANNOTATOR_URL" default:""`
	Model           string        `envconfig:"KG_ANNOTATOR_MODEL" default:"en_core_web_sm"`
	Timeout         time.Duration `envconfig:"KG_ANNOTATOR_TIMEOUT" default:"30s"`
	AnnotationsFile string        `envconfig:"KG_ANNOTATIONS_FILE" default:""`
	CacheEnabled    bool          `envconfig:"KG_ANNOTATOR_CACHE" default:"false"`
	CacheTTL        time.Duration `envconfig:"KG_ANNOTATOR_CACHE_TTL" default:"168h"`
}

func ReadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}

// NewFactory picks the annotator backend: a precomputed annotations file wins
// over the HTTP service. A non-nil cache wraps every instance.
func NewFactory(cfg Config, cache KeyValueStore) (Factory, error) {
	fdlLogger := logger.NewLogger("Annotator factory")

	var base Factory
	switch {
	case cfg.AnnotationsFile != "":
		index, err := LoadPrecomputed(cfg.AnnotationsFile)
		if err != nil {
			return nil, fmt.Errorf("loading annotations %s: %w", cfg.AnnotationsFile, err)
		}
		fdlLogger.Info().
			Str("file", cfg.AnnotationsFile).
			Int("sentences", index.Len()).
			Msg("Using precomputed annotations")
		base = func() (Annotator, error) {
			return index.Annotator(), nil
		}
	case cfg.URL != "":
		fdlLogger.Info().
			Str("url", cfg.URL).
			Str("model", cfg.Model).
			Msg("Using HTTP annotator")
		base = func() (Annotator, error) {
			return NewHTTPAnnotator(cfg.URL, cfg.Model, cfg.Timeout), nil
		}
	default:
		return nil, ErrNotConfigured
	}

	if cache == nil {
		return base, nil
	}
	return func() (Annotator, error) {
		inner, err := base()
		if err != nil {
			return nil, err
		}
		return NewCachingAnnotator(inner, cache, cfg.Model, cfg.CacheTTL), nil
	}, nil
}
