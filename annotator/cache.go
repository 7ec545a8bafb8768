package annotator

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"text2phenotype.com/kg/logger"
	"text2phenotype.com/kg/redis"
	"text2phenotype.com/kg/types"
	"text2phenotype.com/kg/utils"
)

const cacheKeyPrefix = "kg:ann:"

// KeyValueStore is the part of the Redis client the cache needs. GetBytes
// returns redis.ErrNotFound on a miss.
type KeyValueStore interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachingAnnotator serves annotations from the store and fills it on a miss.
// Store failures are logged and never fail an annotation.
type CachingAnnotator struct {
	inner     Annotator
	store     KeyValueStore
	model     string
	ttl       time.Duration
	fdlLogger zerolog.Logger
}

func NewCachingAnnotator(inner Annotator, store KeyValueStore, model string, ttl time.Duration) *CachingAnnotator {
	return &CachingAnnotator{
		inner:     inner,
		store:     store,
		model:     model,
		ttl:       ttl,
		fdlLogger: logger.NewLogger("Annotation cache"),
	}
}

func CacheKey(model string, sentence string) string {
	return cacheKeyPrefix + utils.HashKey(model, sentence)
}

func (a *CachingAnnotator) Annotate(ctx context.Context, sentence string) (*types.AnnotatedSentence, error) {
	key := CacheKey(a.model, sentence)
	cacheLog := a.fdlLogger.With().Str("key", key).Logger()

	buf, err := a.store.GetBytes(ctx, key)
	switch {
	case err == nil:
		var doc Document
		if err := json.Unmarshal(buf, &doc); err == nil {
			if sent, err := doc.Sentence(); err == nil {
				return sent, nil
			}
		}
		cacheLog.Warn().Msg("Ignoring unusable cached annotation")
	case errors.Is(err, redis.ErrNotFound):
	default:
		cacheLog.Warn().Err(err).Msg("Annotation cache read failed")
	}

	sent, err := a.inner.Annotate(ctx, sentence)
	if err != nil {
		return nil, err
	}

	buf, err = json.Marshal(FromSentence(sent))
	if err != nil {
		cacheLog.Warn().Err(err).Msg("Could not encode annotation for cache")
		return sent, nil
	}
	if err := a.store.SetBytes(ctx, key, buf, a.ttl); err != nil {
		cacheLog.Warn().Err(err).Msg("Annotation cache write failed")
	}
	return sent, nil
}

func (a *CachingAnnotator) Close() error {
	return a.inner.Close()
}
