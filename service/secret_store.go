package service

import (
	"context"
	"fmt"
)

// SecretStore reads and writes named groups of secret values.
type SecretStore interface {
	GetSecret(ctx context.Context, name string) (map[string]string, error)
	PutSecret(ctx context.Context, name string, values map[string]string) error
}

// RedisSecretStore keeps each secret as a Redis hash under "secret:<name>".
type RedisSecretStore struct {
	client IHashClient
}

func NewRedisSecretStore(client IHashClient) *RedisSecretStore {
	return &RedisSecretStore{client: client}
}

func secretKey(name string) string {
	return "secret:" + name
}

// GetSecret returns an empty map when the secret does not exist yet.
func (s *RedisSecretStore) GetSecret(ctx context.Context, name string) (map[string]string, error) {
	values, err := s.client.HGetAll(ctx, secretKey(name)).Result()
	if err != nil {
		return nil, fmt.Errorf("read secret %q: %w", name, err)
	}
	return values, nil
}

// PutSecret overwrites the given fields and leaves the others untouched.
func (s *RedisSecretStore) PutSecret(ctx context.Context, name string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(values)*2)
	for k, v := range values {
		args = append(args, k, v)
	}
	if err := s.client.HSet(ctx, secretKey(name), args...).Err(); err != nil {
		return fmt.Errorf("write secret %q: %w", name, err)
	}
	return nil
}
