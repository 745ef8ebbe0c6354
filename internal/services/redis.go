package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chachabrian/kwikliner/internal/negotiation"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LoadUpdatesChannel carries successful load mutations between replicas.
const LoadUpdatesChannel = "kwikliner:load:updates"

const loadLockPrefix = "kwikliner:lock:load:"

// InitRedis connects to Redis and checks the connection.
func InitRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opt)

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return client, nil
}

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a negotiation.Locker shared by every replica. Locks expire
// after ttl so a crashed replica cannot hold a load forever.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, logger: logger}
}

func (l *RedisLocker) Acquire(ctx context.Context, loadID string) (func(), error) {
	key := loadLockPrefix + loadID
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", loadID, err)
	}
	if !ok {
		return nil, negotiation.ErrLoadBusy
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's context may already be done
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
				l.logger.Warn("release load lock", zap.String("loadId", loadID), zap.Error(err))
			}
		})
	}, nil
}

// LoadUpdate is published after a mutation on a load was accepted.
type LoadUpdate struct {
	LoadID    string `json:"loadId"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
}

// RedisPublisher fans load updates out over Redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) PublishLoadUpdate(ctx context.Context, loadID, action string) error {
	data, err := json.Marshal(LoadUpdate{LoadID: loadID, Action: action, Timestamp: time.Now().Unix()})
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, LoadUpdatesChannel, data).Err()
}

// SubscribeLoadUpdates calls fn for each update until ctx is cancelled.
func SubscribeLoadUpdates(ctx context.Context, client *redis.Client, logger *zap.Logger, fn func(LoadUpdate)) error {
	sub := client.Subscribe(ctx, LoadUpdatesChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", LoadUpdatesChannel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var update LoadUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				logger.Warn("malformed load update", zap.String("payload", msg.Payload), zap.Error(err))
				continue
			}
			fn(update)
		}
	}
}
