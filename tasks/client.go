package tasks

import (
	"context"

	"text2phenotype.com/kg/redis"
)

// docStore is the part of the Redis client run bookkeeping relies on.
type docStore interface {
	GetDoc(ctx context.Context, redisKey string, doc interface{}) error
	SaveDoc(ctx context.Context, redisKey string, doc interface{}) error
	Lock(ctx context.Context, redisKey string) (redis.ReleaseLock, error)
	Close() error
}

type Client struct {
	Runs RunTasks
}

func NewClient(store docStore) Client {
	return Client{Runs: RunTasks{client: store}}
}

func (client *Client) Close() {
	_ = client.Runs.client.Close()
}
