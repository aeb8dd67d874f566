package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisDocument keeps the local claim document under a single redis key.
type RedisDocument struct {
	client *redis.Client
	key    string
}

func NewRedisDocument(client *redis.Client, key string) *RedisDocument {
	return &RedisDocument{client: client, key: key}
}

func (d *RedisDocument) Load(ctx context.Context) ([]byte, error) {
	doc, err := d.client.Get(ctx, d.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return doc, err
}

func (d *RedisDocument) Save(ctx context.Context, doc []byte) error {
	return d.client.Set(ctx, d.key, doc, 0).Err()
}
