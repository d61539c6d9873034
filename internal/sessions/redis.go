package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Horizon-Research-Group/neuromath-navigator/internal/diagnostic"
)

// Key prefixes for namespacing Redis keys.
const (
	PrefixSession = "neuromath:session:"
	PrefixLock    = "neuromath:session-lock:"
)

// releaseScript deletes the lock only when it still holds our token, so a
// lock that expired and was re-acquired by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis shares snapshots and locks between server instances.
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// DialRedis parses a redis:// URL and checks the server answers.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *Redis) Load(ctx context.Context, id string) (diagnostic.Snapshot, error) {
	data, err := r.client.Get(ctx, PrefixSession+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return diagnostic.Snapshot{}, ErrNotFound
		}
		return diagnostic.Snapshot{}, fmt.Errorf("load session: %w", err)
	}

	var snap diagnostic.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return diagnostic.Snapshot{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return snap, nil
}

func (r *Redis) Save(ctx context.Context, snap diagnostic.Snapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, PrefixSession+snap.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *Redis) Lock(ctx context.Context, id string, ttl time.Duration) (UnlockFunc, error) {
	key := PrefixLock + id
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("unlock session: %w", err)
		}
		return nil
	}, nil
}
