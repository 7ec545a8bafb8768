package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-redis/redis/v8"
	"github.com/kelseyhightower/envconfig"

	"text2phenotype.com/kg/logger"
)

type DB int
type ReleaseLock func() error

var (
	ErrNotFound = errors.New("redis: key not found")
	ErrLocked   = errors.New("redis: lock is held by another owner")
)

type Client struct {
	client         redis.UniversalClient
	lockExpiration time.Duration
	lockRetries    int
}

type Config struct {
	Enabled                 bool    `envconfig:"KG_REDIS_ENABLED" default:"false"`
	LockExpirationSeconds   int     `envconfig:"KG_REDIS_LOCK_EXPIRATION" default:"3"`
	LockRetries             int     `envconfig:"KG_REDIS_LOCK_RETRIES" default:"20"`
	Host                    string  `envconfig:"KG_REDIS_HOST" default:"localhost"`
	Port                    string  `envconfig:"KG_REDIS_PORT" default:"6379"`
	DB                      DB      `envconfig:"KG_REDIS_DB" default:"0"`
	HASentinelPort          string  `envconfig:"KG_REDIS_HA_SENTINEL_PORT" default:"26379"`
	HASentinelMasterName    string  `envconfig:"KG_REDIS_HA_MASTER_NAME" default:"mymaster"`
	Password                string  `envconfig:"KG_REDIS_AUTH_PASSWORD" default:""`
	AuthRequired            bool    `envconfig:"KG_REDIS_AUTH_REQUIRED" default:"false"`
	HAMode                  bool    `envconfig:"KG_REDIS_HA_MODE" default:"false"`
	HASentinelSocketTimeout float32 `envconfig:"KG_REDIS_SOCKET_TIMEOUT" default:"0.5"`
}

func ReadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}

func NewClient(cfg Config) *Client {
	var client redis.UniversalClient
	if cfg.HAMode {
		client = CreateClusterClient(cfg)
	} else {
		client = CreateClient(cfg)
	}
	return newClient(client, cfg)
}

func newClient(client redis.UniversalClient, cfg Config) *Client {
	return &Client{
		client:         client,
		lockExpiration: time.Duration(cfg.LockExpirationSeconds) * time.Second,
		lockRetries:    cfg.LockRetries,
	}
}

func CreateClusterClient(cfg Config) *redis.ClusterClient {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.HASentinelPort)
	timeout := time.Duration(float64(cfg.HASentinelSocketTimeout) * float64(time.Second))
	options := redis.FailoverOptions{
		SentinelAddrs: []string{addr},
		ReadTimeout:   timeout,
		WriteTimeout:  timeout,
		MaxRetries:    6,
		DB:            int(cfg.DB),
		MasterName:    cfg.HASentinelMasterName,
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewFailoverClusterClient(&options)
}

func CreateClient(cfg Config) *redis.Client {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	options := redis.Options{
		Addr:       addr,
		MaxRetries: 6,
		DB:         int(cfg.DB),
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewClient(&options)
}

func (client *Client) Ping(ctx context.Context) error {
	return client.client.Ping(ctx).Err()
}

// GetBytes returns ErrNotFound when the key does not exist.
func (client *Client) GetBytes(ctx context.Context, redisKey string) ([]byte, error) {
	b, err := client.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, redisKey)
	}
	return b, err
}

// SetBytes stores value under redisKey; a zero ttl keeps it forever.
func (client *Client) SetBytes(ctx context.Context, redisKey string, value []byte, ttl time.Duration) error {
	return client.client.Set(ctx, redisKey, value, ttl).Err()
}

func (client *Client) GetDoc(ctx context.Context, redisKey string, doc interface{}) error {
	b, err := client.GetBytes(ctx, redisKey)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, doc)
}

func (client *Client) SaveDoc(ctx context.Context, redisKey string, doc interface{}) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return client.SetBytes(ctx, redisKey, b, 0)
}

// Lock obtains the short-lived lock guarding a document update, retrying once
// a second until the configured number of attempts is used up.
func (client *Client) Lock(ctx context.Context, redisKey string) (ReleaseLock, error) {
	lockCl := redislock.New(client.client)
	str := redislock.LimitRetry(redislock.LinearBackoff(time.Second), client.lockRetries)
	lock, err := lockCl.Obtain(ctx, lockKey(redisKey), client.lockExpiration, &redislock.Options{RetryStrategy: str})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrLocked, redisKey)
	}
	if err != nil {
		return nil, err
	}
	return func() error {
		return lock.Release(context.Background())
	}, nil
}

// HoldLock takes a lock without waiting and keeps extending it every ttl/2
// until released. ErrLocked means someone else holds it.
func (client *Client) HoldLock(ctx context.Context, redisKey string, ttl time.Duration) (ReleaseLock, error) {
	fdlLogger := logger.NewLogger("Redis lock").With().Str("key", redisKey).Logger()

	lock, err := redislock.New(client.client).Obtain(ctx, lockKey(redisKey), ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrLocked, redisKey)
	}
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := lock.Refresh(context.Background(), ttl, nil); err != nil {
					fdlLogger.Error().Err(err).Msg("Failed to refresh lock")
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() (err error) {
		once.Do(func() {
			close(done)
			wg.Wait()
			err = lock.Release(context.Background())
		})
		return err
	}, nil
}

func (client *Client) Close() error {
	return client.client.Close()
}

func lockKey(redisKey string) string {
	return fmt.Sprintf("lock:%s", redisKey)
}
