package clients

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/imgcluster/internal/cfg"
	"github.com/DRSN-tech/imgcluster/pkg/e"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// RedisClient — подключение к Redis, в котором хранятся записи задач.
type RedisClient struct {
	Client *r.Client
	addr   string
}

// ConnectRedis открывает клиент и проверяет доступность сервера.
// При неудачной проверке клиент закрывается, вызывающему ничего освобождать не нужно.
func ConnectRedis(ctx context.Context, redisCfg *cfg.RedisCfg) (*RedisClient, error) {
	rc := &RedisClient{
		Client: r.NewClient(&r.Options{
			Addr:         redisCfg.Addr,
			Username:     redisCfg.User,
			Password:     redisCfg.Password,
			DB:           redisCfg.DB,
			MaxRetries:   redisCfg.MaxRetries,
			DialTimeout:  redisCfg.DialTimeout,
			ReadTimeout:  redisCfg.Timeout,
			WriteTimeout: redisCfg.Timeout,
		}),
		addr: redisCfg.Addr,
	}

	if err := rc.Client.Ping(ctx).Err(); err != nil {
		_ = rc.Client.Close()
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("redis %s: %w", rc.addr, err))
	}

	return rc, nil
}

func (rc *RedisClient) Close() error {
	return rc.Client.Close()
}
